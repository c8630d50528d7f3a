// Package depgraph builds the include/extends dependency graph of a
// template tree and resolves which documents a change affects.
package depgraph

import (
	"sort"

	"git.home.luguber.info/inful/devflow/internal/docs"
	"git.home.luguber.info/inful/devflow/internal/util/sets"
)

// MissingRef is a directive whose target is not part of the scanned tree.
type MissingRef struct {
	From   string
	Target string
	Kind   Kind
}

// Graph holds forward edges (document to what it references) and reverse
// edges (document to what references it). Targets need not exist and
// cycles are allowed.
type Graph struct {
	nodes   sets.Set[string]
	forward map[string][]string
	reverse map[string][]string
	missing []MissingRef
}

// Build parses the directives of every document. ext is appended to
// targets written without an extension.
func Build(documents []docs.Document, ext string) *Graph {
	g := &Graph{
		nodes:   sets.New[string](),
		forward: make(map[string][]string),
		reverse: make(map[string][]string),
	}
	for _, d := range documents {
		g.nodes.Add(d.Path)
	}

	for _, d := range documents {
		seen := sets.New[string]()
		for _, dir := range ParseDirectives(d.Content) {
			target, ok := ResolvePath(d.Path, dir.Target, ext)
			if !ok {
				g.missing = append(g.missing, MissingRef{From: d.Path, Target: dir.Target, Kind: dir.Kind})
				continue
			}
			if !g.nodes.Has(target) {
				g.missing = append(g.missing, MissingRef{From: d.Path, Target: target, Kind: dir.Kind})
			}
			if seen.Has(target) {
				continue
			}
			seen.Add(target)
			g.forward[d.Path] = append(g.forward[d.Path], target)
			g.reverse[target] = append(g.reverse[target], d.Path)
		}
	}
	return g
}

// Nodes returns every scanned document path, sorted.
func (g *Graph) Nodes() []string {
	return sets.Sorted(g.nodes)
}

// Dependencies returns the direct targets of p in directive order.
func (g *Graph) Dependencies(p string) []string {
	return append([]string(nil), g.forward[p]...)
}

// Dependents returns the documents referencing p directly.
func (g *Graph) Dependents(p string) []string {
	return append([]string(nil), g.reverse[p]...)
}

// Missing lists references to documents outside the scanned tree.
func (g *Graph) Missing() []MissingRef {
	out := append([]MissingRef(nil), g.missing...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].Target < out[j].Target
	})
	return out
}

// ResolveAffected returns the transitive closure of starts over reverse
// edges, keeping only paths for which isCompilable holds. Every reachable
// path is visited once, so cyclic references terminate.
func (g *Graph) ResolveAffected(starts []string, isCompilable func(string) bool) []string {
	visited := sets.New[string]()
	queue := make([]string, 0, len(starts))
	for _, s := range starts {
		if !visited.Has(s) {
			visited.Add(s)
			queue = append(queue, s)
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dep := range g.reverse[cur] {
			if visited.Has(dep) {
				continue
			}
			visited.Add(dep)
			queue = append(queue, dep)
		}
	}

	affected := sets.New[string]()
	for p := range visited {
		if isCompilable == nil || isCompilable(p) {
			affected.Add(p)
		}
	}
	return sets.Sorted(affected)
}
