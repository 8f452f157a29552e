// Package worker runs tile builds on a small set of goroutines.
//
// Each worker owns a queue and steals from the others when its own queue
// is empty. Submit never blocks: when every queue is full the job runs on
// a fresh goroutine, so the render loop submitting builds cannot stall.
package worker

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a pool of goroutines executing submitted jobs.
//
// Pool is safe for concurrent use.
type Pool struct {
	queues []chan func()
	done   chan struct{}
	wg     sync.WaitGroup

	running  atomic.Bool
	overflow atomic.Uint64
	next     atomic.Uint32
}

// New starts a pool with the given number of workers. If workers is 0 or
// negative, GOMAXPROCS is used.
func New(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if queueSize <= 0 {
		queueSize = 8
	}

	p := &Pool{
		queues: make([]chan func(), workers),
		done:   make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	own := p.queues[id]

	for {
		select {
		case <-p.done:
			p.drain(own)
			return
		case job := <-own:
			job()
			continue
		default:
		}

		if job := p.steal(id); job != nil {
			job()
			continue
		}

		select {
		case <-p.done:
			p.drain(own)
			return
		case job := <-own:
			job()
		}
	}
}

// drain runs the jobs left in a queue at shutdown.
func (p *Pool) drain(q chan func()) {
	for {
		select {
		case job := <-q:
			job()
		default:
			return
		}
	}
}

func (p *Pool) steal(id int) func() {
	for i := range p.queues {
		if i == id {
			continue
		}
		select {
		case job := <-p.queues[i]:
			return job
		default:
		}
	}
	return nil
}

// Submit queues fn for execution and reports whether it was accepted.
// Jobs submitted after Close are rejected.
func (p *Pool) Submit(fn func()) bool {
	if fn == nil || !p.running.Load() {
		return false
	}

	start := int(p.next.Add(1))
	for i := range p.queues {
		q := p.queues[(start+i)%len(p.queues)]
		select {
		case q <- fn:
			return true
		default:
		}
	}

	p.overflow.Add(1)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		fn()
	}()
	return true
}

// Close stops accepting jobs, runs what is queued and waits for workers.
// Close is safe to call multiple times.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return len(p.queues) }

// Running reports whether the pool still accepts jobs.
func (p *Pool) Running() bool { return p.running.Load() }

// Queued returns an approximate number of queued jobs.
func (p *Pool) Queued() int {
	n := 0
	for _, q := range p.queues {
		n += len(q)
	}
	return n
}

// Overflowed returns how many jobs ran outside the workers because every
// queue was full.
func (p *Pool) Overflowed() uint64 { return p.overflow.Load() }
