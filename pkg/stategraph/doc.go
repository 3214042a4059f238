// Package stategraph is a schema-driven graph orchestration engine.
//
// A graph is a set of named nodes connected by edges. Worker nodes do
// domain work and return partial state updates; router nodes inspect
// state and pick the next node from a declared, finite option set.
// State is an immutable snapshot whose fields merge under per-field
// reducer policies (overwrite or append), so every step is a pure
// function of the previous snapshot and the node's output.
//
// Graphs are built with a chainable builder and frozen by Compile(),
// which validates the whole topology up front: entry point, edge
// endpoints, and the exact match between each router's option set and
// its dispatch map. A CompiledGraph is immutable and safe for any
// number of concurrent runs.
//
// Basic usage:
//
//	schema := stategraph.NewSchema().
//	    Field("messages", stategraph.Append)
//
//	graph := stategraph.New(schema).
//	    AddRouter("supervisor", []string{"worker", "FINISH"}, route).
//	    AddWorker("worker", work).
//	    AddConditionalEdge("supervisor", map[string]string{
//	        "worker": "worker",
//	        "FINISH": stategraph.END,
//	    }).
//	    AddEdge("worker", "supervisor").
//	    SetEntry("supervisor")
//
//	compiled, err := graph.Compile()
//	if err != nil {
//	    // configuration defects, reported together
//	}
//
//	ctx := stategraph.NewContext(context.Background())
//	result, err := compiled.Run(ctx, map[string]any{"messages": []any{}})
//
// Every run is bounded by a step limit (WithMaxSteps) and can be
// cancelled cooperatively between steps. Stream() delivers steps as
// they complete for callers that want to observe a run in flight.
package stategraph
