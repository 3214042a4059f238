package stategraph

import (
	"context"
	"sync"
)

// Stream is a lazy, finite, non-restartable sequence of step events
// produced by a single run. Steps are delivered on Events() as they
// complete, at the consumer's pace. Consuming the channel to exhaustion
// and closing the stream early are both valid; an early Close() cancels
// the run at the next step boundary.
//
// A Stream observes exactly one run. Call CompiledGraph.Stream again
// for a fresh run with its own step counter and snapshot lineage.
type Stream struct {
	events chan Step
	cancel context.CancelFunc
	done   chan struct{}

	closeOnce sync.Once

	// Written by the run goroutine before done is closed.
	res *Result
	err error
}

// Stream executes the graph like Run but delivers each completed step
// on the returned stream's Events channel. The channel closes when the
// run completes, fails, or is cancelled; Result() then reports the
// final outcome.
//
// Example:
//
//	stream, err := compiled.Stream(ctx, initial)
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//	for step := range stream.Events() {
//	    fmt.Println("completed:", step.NodeID)
//	}
//	result, err := stream.Result()
func (cg *CompiledGraph) Stream(ctx Context, initial map[string]any, opts ...RunOption) (*Stream, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	base, cancel := context.WithCancel(ctx)
	runCtx := withBase(ctx, base)

	s := &Stream{
		events: make(chan Step, cfg.streamBuffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	emit := func(step Step) bool {
		select {
		case s.events <- step:
			return true
		case <-base.Done():
			return false
		}
	}

	go func() {
		defer close(s.done)
		defer close(s.events)
		defer cancel()

		s.res, s.err = cg.run(runCtx, initial, &cfg, emit)
	}()

	return s, nil
}

// Events returns the step event channel. It closes when the run
// finishes for any reason.
func (s *Stream) Events() <-chan Step {
	return s.events
}

// Close cancels the run at the next step boundary. Steps already
// completed remain available on Events() and in the Result. Close is
// idempotent and safe to call concurrently with consumption.
func (s *Stream) Close() {
	s.closeOnce.Do(s.cancel)
}

// Result blocks until the run finishes and returns its outcome: the
// same Result/error shape Run produces. After an early Close, the
// error is a CancelledError and the Result holds the partial history.
func (s *Stream) Result() (*Result, error) {
	<-s.done
	return s.res, s.err
}
