// Package auth separates anonymous requesters from the operators who may
// trigger onboarding. The allow-list is fixed at startup.
package auth

import "slices"

type Gate struct {
	operators map[int64]struct{}
}

func NewGate(operatorIDs []int64) *Gate {
	operators := make(map[int64]struct{}, len(operatorIDs))
	for _, id := range operatorIDs {
		operators[id] = struct{}{}
	}
	return &Gate{operators: operators}
}

// IsPrivileged reports whether the identity is on the operator allow-list.
func (g *Gate) IsPrivileged(id int64) bool {
	_, ok := g.operators[id]
	return ok
}

// Operators returns the allow-list in a stable order for fan-out.
func (g *Gate) Operators() []int64 {
	ids := make([]int64, 0, len(g.operators))
	for id := range g.operators {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
