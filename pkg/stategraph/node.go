package stategraph

// END is the terminal sentinel. Use it as an edge or dispatch target to
// indicate the run should complete. END is never a node and never has
// outgoing edges.
const END = "__end__"

// WorkerFunc is the capability backing a worker node. It receives the
// execution context and the latest snapshot, and returns a partial
// update over declared schema fields. Returning a nil update leaves the
// state unchanged.
//
// Workers are opaque to the engine: they may block on external services
// for arbitrarily long, and their failures abort the run as NodeError.
//
// Example:
//
//	func work(ctx stategraph.Context, snap stategraph.Snapshot) (stategraph.Update, error) {
//	    return stategraph.Update{"messages": []any{"done"}}, nil
//	}
type WorkerFunc func(ctx Context, snap Snapshot) (Update, error)

// RouterFunc is the capability backing a router node. It inspects the
// snapshot and returns exactly one label from the router's declared
// option set. The label is resolved to the next node through the
// router's dispatch map.
//
// Returning a label outside the declared set is a contract violation
// surfaced as RouterError; the engine never guesses a default.
//
// Example:
//
//	func route(ctx stategraph.Context, snap stategraph.Snapshot) (string, error) {
//	    if len(snap.Seq("messages")) > 0 {
//	        return "FINISH", nil
//	    }
//	    return "worker", nil
//	}
type RouterFunc func(ctx Context, snap Snapshot) (string, error)

// nodeKind distinguishes worker and router capabilities.
type nodeKind int

const (
	workerNode nodeKind = iota
	routerNode
)

// node pairs an id's capability with its declaration. Exactly one of
// worker/router is set, according to kind.
type node struct {
	kind    nodeKind
	worker  WorkerFunc
	router  RouterFunc
	options []string
}
