package benchmarks

import (
	"fmt"
	"testing"

	"github.com/stategraph-io/stategraph/pkg/stategraph"
)

// benchSchema declares the fields used across the benchmarks.
func benchSchema() *stategraph.Schema {
	return stategraph.NewSchema().
		Field("value", stategraph.Overwrite).
		Field("remaining", stategraph.Overwrite)
}

// noop is a worker that leaves the state unchanged.
func noop(ctx stategraph.Context, snap stategraph.Snapshot) (stategraph.Update, error) {
	return nil, nil
}

// buildLinearGraph creates a linear graph with n workers.
func buildLinearGraph(n int) *stategraph.Graph {
	graph := stategraph.New(benchSchema())
	for i := 0; i < n; i++ {
		graph.AddWorker(fmt.Sprintf("node%d", i), noop)
	}
	for i := 0; i < n-1; i++ {
		graph.AddEdge(fmt.Sprintf("node%d", i), fmt.Sprintf("node%d", i+1))
	}
	graph.AddEdge(fmt.Sprintf("node%d", n-1), stategraph.END)
	graph.SetEntry("node0")
	return graph
}

// buildBranchingGraph creates a graph with a router and two branches.
func buildBranchingGraph() *stategraph.Graph {
	router := func(ctx stategraph.Context, snap stategraph.Snapshot) (string, error) {
		if snap.Int("value", 0)%2 == 0 {
			return "even", nil
		}
		return "odd", nil
	}
	return stategraph.New(benchSchema()).
		AddRouter("split", []string{"even", "odd"}, router).
		AddWorker("even", noop).
		AddWorker("odd", noop).
		AddConditionalEdge("split", map[string]string{
			"even": "even",
			"odd":  "odd",
		}).
		AddEdge("even", stategraph.END).
		AddEdge("odd", stategraph.END).
		SetEntry("split")
}

// buildLoopGraph creates a supervisor loop that iterates n times.
func buildLoopGraph(n int) *stategraph.Graph {
	router := func(ctx stategraph.Context, snap stategraph.Snapshot) (string, error) {
		if snap.Int("remaining", n) <= 0 {
			return "finish", nil
		}
		return "work", nil
	}
	worker := func(ctx stategraph.Context, snap stategraph.Snapshot) (stategraph.Update, error) {
		return stategraph.Update{"remaining": snap.Int("remaining", n) - 1}, nil
	}
	return stategraph.New(benchSchema()).
		AddRouter("check", []string{"work", "finish"}, router).
		AddWorker("worker", worker).
		AddConditionalEdge("check", map[string]string{
			"work":   "worker",
			"finish": stategraph.END,
		}).
		AddEdge("worker", "check").
		SetEntry("check")
}

// mustCompile compiles or panics. Benchmark graphs are static.
func mustCompile(g *stategraph.Graph) *stategraph.CompiledGraph {
	compiled, err := g.Compile()
	if err != nil {
		panic(err)
	}
	return compiled
}

func BenchmarkNewGraph(b *testing.B) {
	schema := benchSchema()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = stategraph.New(schema)
	}
}

func BenchmarkAddWorker(b *testing.B) {
	for i := 0; i < b.N; i++ {
		graph := stategraph.New(benchSchema())
		graph.AddWorker("node", noop)
	}
}

func BenchmarkAddWorker_100(b *testing.B) {
	for i := 0; i < b.N; i++ {
		graph := stategraph.New(benchSchema())
		for j := 0; j < 100; j++ {
			graph.AddWorker(fmt.Sprintf("node%d", j), noop)
		}
	}
}

func BenchmarkCompile_Linear_5(b *testing.B) {
	graph := buildLinearGraph(5)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = graph.Compile()
	}
}

func BenchmarkCompile_Linear_100(b *testing.B) {
	graph := buildLinearGraph(100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = graph.Compile()
	}
}

func BenchmarkCompile_Branching(b *testing.B) {
	graph := buildBranchingGraph()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = graph.Compile()
	}
}
