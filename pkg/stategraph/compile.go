package stategraph

import (
	"errors"
	"fmt"
	"sort"
)

// Compile validates the graph and freezes it into an executable
// CompiledGraph. Every defect found is reported; multiple errors are
// joined together, and errors.Is(err, ErrConfiguration) matches all of
// them.
//
// Validation checks:
//  1. Builder defects recorded during construction (duplicate ids,
//     reserved ids, nil capabilities, conflicting edges)
//  2. Entry point is set and references a registered node
//  3. Every worker has exactly one static edge; routers have none
//  4. Every router has a dispatch map whose key set exactly equals its
//     declared option set
//  5. Every edge and dispatch target references a registered node or END
//  6. Edge sources reference registered nodes
//
// A graph that fails compilation never becomes runnable.
func (g *Graph) Compile() (*CompiledGraph, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	errs := append([]error(nil), g.defects...)

	if g.entry == "" {
		errs = append(errs, ErrNoEntryPoint)
	} else if !g.nodes.Has(g.entry) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrEntryNotFound, g.entry))
	}

	// Edge sources must be registered nodes. END can never be a source.
	for _, from := range sortedKeys(g.edges) {
		if from == END {
			errs = append(errs, fmt.Errorf("%w: END cannot have outgoing edges", ErrEdgeKindMismatch))
			continue
		}
		if !g.nodes.Has(from) {
			errs = append(errs, fmt.Errorf("%w: edge source %q not registered", ErrNodeNotFound, from))
		}
	}
	for _, from := range sortedKeys(g.dispatch) {
		if !g.nodes.Has(from) {
			errs = append(errs, fmt.Errorf("%w: conditional edge source %q not registered", ErrNodeNotFound, from))
		}
	}

	// Per-node routing completeness, in registration order.
	for _, id := range g.order {
		n, _ := g.nodes.Get(id)
		switch n.kind {
		case workerNode:
			if _, has := g.dispatch[id]; has {
				errs = append(errs, fmt.Errorf("%w: worker %q has a conditional edge", ErrEdgeKindMismatch, id))
			}
			to, has := g.edges[id]
			if !has {
				errs = append(errs, fmt.Errorf("%w: worker %q", ErrMissingEdge, id))
				continue
			}
			if to != END && !g.nodes.Has(to) {
				errs = append(errs, fmt.Errorf("%w: edge target %q not registered", ErrNodeNotFound, to))
			}

		case routerNode:
			if _, has := g.edges[id]; has {
				errs = append(errs, fmt.Errorf("%w: router %q has a static edge", ErrEdgeKindMismatch, id))
			}
			dispatch, has := g.dispatch[id]
			if !has {
				errs = append(errs, fmt.Errorf("%w: router %q", ErrMissingEdge, id))
				continue
			}
			errs = append(errs, validateDispatch(id, n.options, dispatch)...)
			for _, label := range sortedKeys(dispatch) {
				target := dispatch[label]
				if target != END && !g.nodes.Has(target) {
					errs = append(errs, fmt.Errorf("%w: dispatch target %q for label %q not registered", ErrNodeNotFound, target, label))
				}
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return g.freeze(), nil
}

// validateDispatch checks the dispatch map's key set against the
// router's declared option set. Both missing and extra labels are
// defects: the exact-match requirement turns typo'd or unhandled
// labels into compile-time failures instead of runtime surprises.
func validateDispatch(id string, options []string, dispatch map[string]string) []error {
	var errs []error

	declared := make(map[string]bool, len(options))
	for _, opt := range options {
		declared[opt] = true
	}

	var missing, extra []string
	for _, opt := range options {
		if _, ok := dispatch[opt]; !ok {
			missing = append(missing, opt)
		}
	}
	for label := range dispatch {
		if !declared[label] {
			extra = append(extra, label)
		}
	}
	sort.Strings(extra)

	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("%w: router %q options %v not in dispatch map", ErrDispatchMismatch, id, missing))
	}
	if len(extra) > 0 {
		errs = append(errs, fmt.Errorf("%w: router %q dispatch labels %v not declared", ErrDispatchMismatch, id, extra))
	}
	return errs
}

// freeze builds the immutable CompiledGraph from the builder state.
func (g *Graph) freeze() *CompiledGraph {
	nodes := g.nodes.Snapshot()

	edges := make(map[string]string, len(g.edges))
	for from, to := range g.edges {
		edges[from] = to
	}

	dispatch := make(map[string]map[string]string, len(g.dispatch))
	for from, m := range g.dispatch {
		copied := make(map[string]string, len(m))
		for label, target := range m {
			copied[label] = target
		}
		dispatch[from] = copied
	}

	return &CompiledGraph{
		schema:   g.schema.clone(),
		nodes:    nodes,
		edges:    edges,
		dispatch: dispatch,
		entry:    g.entry,
	}
}

// sortedKeys returns map keys in sorted order for deterministic
// validation output.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
