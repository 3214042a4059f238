package stategraph

import "sort"

// CompiledGraph is an immutable, executable graph produced by
// Graph.Compile(). It is safe for concurrent use: any number of runs
// may execute against the same compiled graph, each owning its own
// snapshot lineage and step counter.
//
// Use the introspection methods (NodeIDs, Options, Dispatch, …) to
// examine the structure for debugging or visualization.
type CompiledGraph struct {
	schema   *Schema
	nodes    map[string]node
	edges    map[string]string
	dispatch map[string]map[string]string
	entry    string
}

// EntryPoint returns the entry node id.
func (cg *CompiledGraph) EntryPoint() string {
	return cg.entry
}

// Schema returns the frozen state schema.
func (cg *CompiledGraph) Schema() *Schema {
	return cg.schema
}

// NodeIDs returns all node identifiers in sorted order.
func (cg *CompiledGraph) NodeIDs() []string {
	ids := make([]string, 0, len(cg.nodes))
	for id := range cg.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HasNode checks if a node exists in the graph.
func (cg *CompiledGraph) HasNode(id string) bool {
	_, exists := cg.nodes[id]
	return exists
}

// IsRouter returns true if the node is a router.
func (cg *CompiledGraph) IsRouter(id string) bool {
	n, exists := cg.nodes[id]
	return exists && n.kind == routerNode
}

// Options returns a copy of a router's declared option set in its
// declaration order. Returns nil for workers and unknown nodes.
func (cg *CompiledGraph) Options(id string) []string {
	n, exists := cg.nodes[id]
	if !exists || n.kind != routerNode {
		return nil
	}
	return append([]string(nil), n.options...)
}

// Dispatch returns a copy of a router's dispatch map. Returns nil for
// workers and unknown nodes.
func (cg *CompiledGraph) Dispatch(id string) map[string]string {
	m, exists := cg.dispatch[id]
	if !exists {
		return nil
	}
	out := make(map[string]string, len(m))
	for label, target := range m {
		out[label] = target
	}
	return out
}

// Successor returns a worker's static edge target and whether the node
// has one. Routers resolve their successor at run time.
func (cg *CompiledGraph) Successor(id string) (string, bool) {
	to, exists := cg.edges[id]
	return to, exists
}

// getNode returns the node for the given id. Used by the executor.
func (cg *CompiledGraph) getNode(id string) (node, bool) {
	n, exists := cg.nodes[id]
	return n, exists
}
