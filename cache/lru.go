package cache

// node is an entry of the recency list. It keeps its key so evictions can
// delete the map entry in O(1).
type node[K comparable, V any] struct {
	key        K
	value      V
	prev, next *node[K, V]
}

// recency is a doubly linked list ordered from most (head) to least
// (tail) recently used. It is not safe for concurrent use.
type recency[K comparable, V any] struct {
	head, tail *node[K, V]
	n          int
}

func (l *recency[K, V]) len() int { return l.n }

// pushFront inserts a new node as the most recently used.
func (l *recency[K, V]) pushFront(key K, value V) *node[K, V] {
	nd := &node[K, V]{key: key, value: value}
	l.link(nd)
	return nd
}

// touch marks nd as the most recently used.
func (l *recency[K, V]) touch(nd *node[K, V]) {
	if nd == l.head {
		return
	}
	l.unlink(nd)
	l.link(nd)
}

// popBack removes the least recently used node.
func (l *recency[K, V]) popBack() (*node[K, V], bool) {
	nd := l.tail
	if nd == nil {
		return nil, false
	}
	l.unlink(nd)
	return nd, true
}

func (l *recency[K, V]) remove(nd *node[K, V]) { l.unlink(nd) }

func (l *recency[K, V]) clear() {
	l.head, l.tail, l.n = nil, nil, 0
}

func (l *recency[K, V]) link(nd *node[K, V]) {
	nd.prev = nil
	nd.next = l.head
	if l.head != nil {
		l.head.prev = nd
	}
	l.head = nd
	if l.tail == nil {
		l.tail = nd
	}
	l.n++
}

func (l *recency[K, V]) unlink(nd *node[K, V]) {
	if nd.prev != nil {
		nd.prev.next = nd.next
	} else {
		l.head = nd.next
	}
	if nd.next != nil {
		nd.next.prev = nd.prev
	} else {
		l.tail = nd.prev
	}
	nd.prev, nd.next = nil, nil
	l.n--
}
