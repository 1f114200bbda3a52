// Package search finds scene nodes by predicate.
package search

import (
	"iter"

	"github.com/agentic-research/fileman/internal/scene"
)

// MatchOptions are passed to every Matcher by the traversal.
type MatchOptions struct {
	IgnoreCase bool
}

// Matcher decides whether a node is part of a search result.
type Matcher interface {
	Matches(n *scene.Node, opts MatchOptions) bool
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(n *scene.Node, opts MatchOptions) bool

func (f MatcherFunc) Matches(n *scene.Node, opts MatchOptions) bool { return f(n, opts) }

// Name matches node names against a glob pattern.
func Name(pattern string) Matcher {
	return MatcherFunc(func(n *scene.Node, opts MatchOptions) bool {
		return scene.MatchPattern(pattern, n.Name(), opts.IgnoreCase)
	})
}

// Type matches operator type names against a glob pattern.
func Type(pattern string) Matcher {
	return MatcherFunc(func(n *scene.Node, opts MatchOptions) bool {
		return scene.MatchPattern(pattern, n.Type(), opts.IgnoreCase)
	})
}

// And matches when every matcher does. Evaluation stops at the first miss.
func And(ms ...Matcher) Matcher {
	return MatcherFunc(func(n *scene.Node, opts MatchOptions) bool {
		for _, m := range ms {
			if !m.Matches(n, opts) {
				return false
			}
		}
		return true
	})
}

// Or matches when any matcher does. Evaluation stops at the first hit.
func Or(ms ...Matcher) Matcher {
	return MatcherFunc(func(n *scene.Node, opts MatchOptions) bool {
		for _, m := range ms {
			if m.Matches(n, opts) {
				return true
			}
		}
		return false
	})
}

// Not inverts m.
func Not(m Matcher) Matcher {
	return MatcherFunc(func(n *scene.Node, opts MatchOptions) bool {
		return !m.Matches(n, opts)
	})
}

// TraverseOptions control Nodes.
type TraverseOptions struct {
	IgnoreCase bool
	// Recursive descends below the direct children of the root.
	Recursive bool
	// IncludeLocked descends into locked nodes. Locked nodes themselves are
	// always tested.
	IncludeLocked bool
}

// Nodes lazily yields the nodes below root that m accepts, depth-first in
// child order. The root itself is never yielded; an unknown root yields
// nothing.
func Nodes(store scene.Store, root string, m Matcher, opts TraverseOptions) iter.Seq[*scene.Node] {
	mopts := MatchOptions{IgnoreCase: opts.IgnoreCase}
	return func(yield func(*scene.Node) bool) {
		start, err := store.Node(root)
		if err != nil {
			return
		}
		var visit func(n *scene.Node) bool
		visit = func(n *scene.Node) bool {
			for _, c := range store.Children(n.Path()) {
				if m.Matches(c, mopts) && !yield(c) {
					return false
				}
				if !opts.Recursive || (c.Locked() && !opts.IncludeLocked) {
					continue
				}
				if !visit(c) {
					return false
				}
			}
			return true
		}
		visit(start)
	}
}

// Paths collects the paths of seq.
func Paths(seq iter.Seq[*scene.Node]) []string {
	var out []string
	for n := range seq {
		out = append(out, n.Path())
	}
	return out
}
