package miner

import (
	"context"
	"sync"

	"github.com/Sumatoshi-tech/editmine/pkg/changeset"
	"github.com/Sumatoshi-tech/editmine/pkg/corpus"
)

// slot holds a pair being processed. The done channel is closed when the
// record is built, letting the emitter wait without spinning.
type slot struct {
	pair   corpus.Pair
	record changeset.Record
	err    error
	done   chan struct{}
}

// pipeline builds records on a bounded worker pool and emits them in input
// order.
type pipeline struct {
	workers int
	buffer  int
	build   func(context.Context, corpus.Pair) (changeset.Record, error)
}

func newPipeline(workers int, build func(context.Context, corpus.Pair) (changeset.Record, error)) *pipeline {
	if workers <= 0 {
		workers = 1
	}

	return &pipeline{
		workers: workers,
		buffer:  workers * 2,
		build:   build,
	}
}

// process consumes pairs and returns their slots in the order received.
func (p *pipeline) process(ctx context.Context, pairs <-chan corpus.Pair) <-chan *slot {
	out := make(chan *slot, p.buffer)
	slots := make(chan *slot, p.buffer)
	jobs := make(chan *slot, p.buffer)

	go p.dispatch(ctx, pairs, slots, jobs)

	wg := p.startWorkers(ctx, jobs)

	go p.emit(ctx, slots, out, wg)

	return out
}

func (p *pipeline) dispatch(ctx context.Context, pairs <-chan corpus.Pair, slots, jobs chan<- *slot) {
	defer close(slots)
	defer close(jobs)

	for pair := range pairs {
		s := &slot{pair: pair, done: make(chan struct{})}

		select {
		case slots <- s:
		case <-ctx.Done():
			return
		}

		select {
		case jobs <- s:
		case <-ctx.Done():
			return
		}
	}
}

func (p *pipeline) startWorkers(ctx context.Context, jobs <-chan *slot) *sync.WaitGroup {
	var wg sync.WaitGroup

	wg.Add(p.workers)

	for range p.workers {
		go func() {
			defer wg.Done()

			for s := range jobs {
				s.record, s.err = p.build(ctx, s.pair)
				close(s.done)
			}
		}()
	}

	return &wg
}

func (p *pipeline) emit(ctx context.Context, slots <-chan *slot, out chan<- *slot, wg *sync.WaitGroup) {
	defer close(out)

	for s := range slots {
		select {
		case <-s.done:
		case <-ctx.Done():
			return
		}

		select {
		case out <- s:
		case <-ctx.Done():
			return
		}
	}

	wg.Wait()
}
