package stategraph

import (
	"fmt"
	"strings"
	"sync"

	"github.com/stategraph-io/stategraph/pkg/stategraph/registry"
)

// Graph is a mutable builder for orchestration graphs. Use New to
// create a builder, then chain AddWorker, AddRouter, AddEdge,
// AddConditionalEdge, and SetEntry calls to define the workflow.
//
// Builder methods never panic and never fail in place: every defect
// (duplicate id, reserved id, nil capability, conflicting edges) is
// recorded and reported together by Compile(), so a misconfigured
// graph can never become runnable.
//
// Graph is NOT thread-safe during building. Construct from a single
// goroutine, then call Compile() to obtain an immutable CompiledGraph
// that is safe to share.
type Graph struct {
	mu       sync.RWMutex
	schema   *Schema
	nodes    *registry.Registry[string, node]
	order    []string
	edges    map[string]string
	dispatch map[string]map[string]string
	entry    string
	defects  []error
}

// New creates a graph builder over the given state schema. A nil
// schema is treated as empty: every update field is then undeclared
// and rejected at run time.
func New(schema *Schema) *Graph {
	if schema == nil {
		schema = NewSchema()
	}
	return &Graph{
		schema:   schema,
		nodes:    registry.New[string, node](),
		edges:    make(map[string]string),
		dispatch: make(map[string]map[string]string),
	}
}

// AddWorker registers a worker node. Returns the graph for chaining.
func (g *Graph) AddWorker(id string, fn WorkerFunc) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	if fn == nil {
		g.defects = append(g.defects, fmt.Errorf("%w: worker %q has nil function", ErrInvalidNode, id))
		return g
	}
	g.register(id, node{kind: workerNode, worker: fn})
	return g
}

// AddRouter registers a router node with its declared option set. The
// labels the router may return are fixed here; the conditional edge's
// dispatch map must cover exactly this set. Returns the graph for
// chaining.
func (g *Graph) AddRouter(id string, options []string, fn RouterFunc) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	if fn == nil {
		g.defects = append(g.defects, fmt.Errorf("%w: router %q has nil function", ErrInvalidNode, id))
		return g
	}
	if len(options) == 0 {
		g.defects = append(g.defects, fmt.Errorf("%w: router %q has empty option set", ErrInvalidNode, id))
		return g
	}
	seen := make(map[string]bool, len(options))
	opts := make([]string, 0, len(options))
	for _, opt := range options {
		if opt == "" {
			g.defects = append(g.defects, fmt.Errorf("%w: router %q declares empty option label", ErrInvalidNode, id))
			return g
		}
		if seen[opt] {
			g.defects = append(g.defects, fmt.Errorf("%w: router %q declares option %q twice", ErrInvalidNode, id, opt))
			return g
		}
		seen[opt] = true
		opts = append(opts, opt)
	}
	g.register(id, node{kind: routerNode, router: fn, options: opts})
	return g
}

// AddEdge adds the unconditional edge leaving a worker node. The target
// is a node id or END. Each node has exactly one outgoing edge; a
// second AddEdge for the same source is a configuration defect.
// Returns the graph for chaining.
//
// Endpoint existence is validated at Compile() time, so edges may be
// added in any order relative to node registration.
func (g *Graph) AddEdge(from, to string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, dup := g.edges[from]; dup {
		g.defects = append(g.defects, fmt.Errorf("%w: %q", ErrDuplicateEdge, from))
		return g
	}
	if _, dup := g.dispatch[from]; dup {
		g.defects = append(g.defects, fmt.Errorf("%w: %q", ErrDuplicateEdge, from))
		return g
	}
	g.edges[from] = to
	return g
}

// AddConditionalEdge adds the dispatch map for a router node, mapping
// each label the router may return to a target node id or END. The key
// set must exactly equal the router's declared option set; Compile()
// rejects missing and extra labels alike. Returns the graph for
// chaining.
func (g *Graph) AddConditionalEdge(from string, dispatch map[string]string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, dup := g.dispatch[from]; dup {
		g.defects = append(g.defects, fmt.Errorf("%w: %q", ErrDuplicateEdge, from))
		return g
	}
	if _, dup := g.edges[from]; dup {
		g.defects = append(g.defects, fmt.Errorf("%w: %q", ErrDuplicateEdge, from))
		return g
	}
	m := make(map[string]string, len(dispatch))
	for label, target := range dispatch {
		m[label] = target
	}
	g.dispatch[from] = m
	return g
}

// SetEntry designates the entry point node. Must be called before
// Compile(); the id is validated there. Returns the graph for chaining.
func (g *Graph) SetEntry(id string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.entry = id
	return g
}

// register validates the id and stores the node, recording defects for
// empty, reserved, whitespace, or duplicate ids.
func (g *Graph) register(id string, n node) {
	if id == "" {
		g.defects = append(g.defects, fmt.Errorf("%w: empty node id", ErrInvalidNode))
		return
	}
	if lower := strings.ToLower(id); lower == "end" || lower == END {
		g.defects = append(g.defects, fmt.Errorf("%w: %q is reserved", ErrInvalidNode, id))
		return
	}
	if strings.ContainsAny(id, " \t\n\r") {
		g.defects = append(g.defects, fmt.Errorf("%w: node id %q contains whitespace", ErrInvalidNode, id))
		return
	}
	if !g.nodes.Add(id, n) {
		g.defects = append(g.defects, fmt.Errorf("%w: %q", ErrDuplicateNode, id))
		return
	}
	g.order = append(g.order, id)
}
