package stategraph

import (
	"context"
)

// Test schemas and helper nodes used across tests

// counterSchema declares a single overwrite counter field.
func counterSchema() *Schema {
	return NewSchema().Field("value", Overwrite)
}

// flowSchema is a richer schema for routing and accumulation tests.
func flowSchema() *Schema {
	return NewSchema().
		Field("step", Overwrite).
		Field("done", Overwrite).
		Field("go_left", Overwrite).
		Field("messages", Append)
}

// increment bumps the counter by one.
func increment(ctx Context, snap Snapshot) (Update, error) {
	return Update{"value": snap.Int("value", 0) + 1}, nil
}

// passthrough returns an empty update.
func passthrough(ctx Context, snap Snapshot) (Update, error) {
	return nil, nil
}

// makeTrackingNode creates a worker that records its execution.
func makeTrackingNode(name string, tracker *[]string) WorkerFunc {
	return func(ctx Context, snap Snapshot) (Update, error) {
		*tracker = append(*tracker, name)
		return Update{"messages": []any{name}}, nil
	}
}

// makeFailingNode creates a worker that returns the given error.
func makeFailingNode(err error) WorkerFunc {
	return func(ctx Context, snap Snapshot) (Update, error) {
		return nil, err
	}
}

// makePanicNode creates a worker that panics with the given value.
func makePanicNode(value any) WorkerFunc {
	return func(ctx Context, snap Snapshot) (Update, error) {
		panic(value)
	}
}

// leftRightRouter routes on the go_left field.
func leftRightRouter(ctx Context, snap Snapshot) (string, error) {
	if snap.Bool("go_left", false) {
		return "left", nil
	}
	return "right", nil
}

// testCtx creates a simple test context.
func testCtx() Context {
	return NewContext(context.Background())
}
