/*
Package label implements the node-label / task-predicate matching relation
used by the scheduler (spec §3 invariant 1: node is a legal placement
target for task T iff node.label.match(T.condition)).

The predicate operator set itself is deliberately thin here — equals,
not-equals, and key-existence — matching the core-level contract in
spec.md ("the predicate operator set is delegated to the external Label
module; at the core level, Label exposes only match and value equality").
A richer operator set can be layered on by swapping the evaluator a
caller passes to MatchWith, without changing this package's surface.
*/
package label

import "github.com/appltini/app-mesh/pkg/types"

// Match reports whether label satisfies every entry of predicate using
// the built-in eq/ne/exists operators.
func Match(l types.Label, predicate types.Predicate) bool {
	return MatchWith(l, predicate, evaluate)
}

// Evaluator decides whether a single predicate entry holds against a
// label set.
type Evaluator func(l types.Label, entry types.PredicateEntry) bool

// MatchWith reports whether label satisfies every entry of predicate
// under the given evaluator. An empty predicate always matches.
func MatchWith(l types.Label, predicate types.Predicate, eval Evaluator) bool {
	for _, entry := range predicate {
		if !eval(l, entry) {
			return false
		}
	}
	return true
}

func evaluate(l types.Label, entry types.PredicateEntry) bool {
	value, present := l[entry.Key]
	switch entry.Op {
	case types.OpExists:
		return present
	case types.OpNotEquals:
		return !present || value != entry.Value
	case types.OpEquals, "":
		return present && value == entry.Value
	default:
		return false
	}
}

// Equal reports whether two label sets carry exactly the same key/value
// pairs.
func Equal(a, b types.Label) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
