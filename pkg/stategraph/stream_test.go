package stategraph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func streamTestGraph(t *testing.T) *CompiledGraph {
	t.Helper()
	graph := New(counterSchema()).
		AddWorker("a", increment).
		AddWorker("b", increment).
		AddWorker("c", increment).
		AddEdge("a", "b").
		AddEdge("b", "c").
		AddEdge("c", END).
		SetEntry("a")

	compiled, err := graph.Compile()
	require.NoError(t, err)
	return compiled
}

// TestStream_DeliversAllSteps tests full consumption of a stream.
func TestStream_DeliversAllSteps(t *testing.T) {
	compiled := streamTestGraph(t)

	stream, err := compiled.Stream(testCtx(), map[string]any{"value": 0})
	require.NoError(t, err)
	defer stream.Close()

	var steps []Step
	for step := range stream.Events() {
		steps = append(steps, step)
	}

	require.Len(t, steps, 3)
	assert.Equal(t, []string{"a", "b", "c"},
		[]string{steps[0].NodeID, steps[1].NodeID, steps[2].NodeID})
	assert.Equal(t, []int{1, 2, 3},
		[]int{steps[0].Seq, steps[1].Seq, steps[2].Seq})

	result, err := stream.Result()
	require.NoError(t, err)
	assert.Equal(t, 3, result.Final.Int("value", 0))
	assert.Len(t, result.Steps, 3)
}

// TestStream_NilContext tests the nil context guard.
func TestStream_NilContext(t *testing.T) {
	compiled := streamTestGraph(t)

	_, err := compiled.Stream(nil, nil)

	assert.ErrorIs(t, err, ErrNilContext)
}

// TestStream_EarlyClose tests that closing the stream cancels the run
// at the next step boundary.
func TestStream_EarlyClose(t *testing.T) {
	release := make(chan struct{})
	var executed []string

	slow := func(name string) WorkerFunc {
		return func(ctx Context, snap Snapshot) (Update, error) {
			executed = append(executed, name)
			<-release
			return nil, nil
		}
	}

	graph := New(counterSchema()).
		AddWorker("a", slow("a")).
		AddWorker("b", slow("b")).
		AddEdge("a", "b").
		AddEdge("b", END).
		SetEntry("a")

	compiled, err := graph.Compile()
	require.NoError(t, err)

	stream, err := compiled.Stream(testCtx(), nil)
	require.NoError(t, err)

	stream.Close()
	close(release)

	result, err := stream.Result()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.LessOrEqual(t, len(result.Steps), 1)
	assert.NotContains(t, executed, "b")
}

// TestStream_CloseIsIdempotent tests repeated Close calls.
func TestStream_CloseIsIdempotent(t *testing.T) {
	compiled := streamTestGraph(t)

	stream, err := compiled.Stream(testCtx(), nil)
	require.NoError(t, err)

	stream.Close()
	stream.Close()
	stream.Close()

	_, _ = stream.Result()
}

// TestStream_ErrorSurfacesInResult tests that a failing run closes the
// channel and reports the error via Result.
func TestStream_ErrorSurfacesInResult(t *testing.T) {
	graph := New(flowSchema()).
		AddWorker("ok", makeTrackingNode("ok", &[]string{})).
		AddWorker("bad", makePanicNode("kaboom")).
		AddEdge("ok", "bad").
		AddEdge("bad", END).
		SetEntry("ok")

	compiled, err := graph.Compile()
	require.NoError(t, err)

	stream, err := compiled.Stream(testCtx(), nil)
	require.NoError(t, err)
	defer stream.Close()

	var steps []Step
	for step := range stream.Events() {
		steps = append(steps, step)
	}

	result, err := stream.Result()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNodeFailure)
	assert.Len(t, steps, 1)
	assert.Len(t, result.Steps, 1)
}

// TestStream_SlowConsumer tests that a consumer slower than the
// producer still receives every step in order.
func TestStream_SlowConsumer(t *testing.T) {
	compiled := streamTestGraph(t)

	stream, err := compiled.Stream(testCtx(), nil, WithStreamBuffer(1))
	require.NoError(t, err)
	defer stream.Close()

	var seqs []int
	for step := range stream.Events() {
		time.Sleep(5 * time.Millisecond)
		seqs = append(seqs, step.Seq)
	}

	assert.Equal(t, []int{1, 2, 3}, seqs)

	_, err = stream.Result()
	require.NoError(t, err)
}

// TestStream_IndependentRuns tests that two streams from one compiled
// graph do not share state.
func TestStream_IndependentRuns(t *testing.T) {
	compiled := streamTestGraph(t)

	first, err := compiled.Stream(testCtx(), map[string]any{"value": 0})
	require.NoError(t, err)
	defer first.Close()
	second, err := compiled.Stream(testCtx(), map[string]any{"value": 100})
	require.NoError(t, err)
	defer second.Close()

	res1, err := first.Result()
	require.NoError(t, err)
	res2, err := second.Result()
	require.NoError(t, err)

	assert.Equal(t, 3, res1.Final.Int("value", 0))
	assert.Equal(t, 103, res2.Final.Int("value", 0))
	assert.NotEqual(t, res1.RunID, res2.RunID)
}
