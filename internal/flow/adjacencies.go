package flow

import (
	"sort"

	"pathfinder/internal/types"
)

// =============================================================================
// Adjacencies
// =============================================================================

// Adjacencies is the mutable residual view over a capacity graph given
// as an adjacency mapping Address → []Edge plus the senders' balances.
//
// The view keeps two layers per source node:
//
//   - the base layer, derived lazily from the input: an account node
//     reaches each of its token-position nodes with the balance edge —
//     the holder's recorded balance in that token, or, when no balance
//     is recorded, the sum of that token's outgoing edge capacities —
//     and a token-position node reaches each receiving account with
//     that edge's trust-limit capacity;
//   - the adjustment layer, a wrapping-signed delta map mutated as flow
//     is pushed. Applying a negative delta to a pair with no base edge
//     creates the implicit reverse (cancellation) arc.
//
// The split matters for IsAdjacent: a pair is "adjacent" only when a
// base edge exists between it AND its current residual capacity is
// positive. Residual arcs that exist purely through adjustments are
// traversable but never adjacent, which is what lets the engine tell a
// cancellation push apart from a first use.
type Adjacencies struct {
	edges    map[types.Address][]types.Edge
	balances types.Balances

	base        map[Node]map[Node]types.U256
	adjustments map[Node]map[Node]types.U256
}

// TargetCapacity is one outgoing arc of the residual view.
type TargetCapacity struct {
	Target   Node
	Capacity types.U256
}

// NewAdjacencies wraps an adjacency mapping and the senders' balances
// (nil for none). Neither input is copied; both must stay unmodified
// for the lifetime of the view.
func NewAdjacencies(edges map[types.Address][]types.Edge, balances types.Balances) *Adjacencies {
	return &Adjacencies{
		edges:       edges,
		balances:    balances,
		base:        make(map[Node]map[Node]types.U256),
		adjustments: make(map[Node]map[Node]types.U256),
	}
}

// baseFrom returns the base-layer adjacency of n, deriving and caching
// it on first use.
func (a *Adjacencies) baseFrom(n Node) map[Node]types.U256 {
	if row, ok := a.base[n]; ok {
		return row
	}
	row := make(map[Node]types.U256)
	switch n.Kind {
	case KindAccount:
		// One balance arc per distinct token: the holder's recorded
		// balance bounds the token's total outflow across all
		// receivers. Without a recorded balance the edge capacities
		// are summed (saturating), an upper bound that never blocks
		// a receiver another edge could serve.
		for _, e := range a.edges[n.Holder] {
			pos := TokenPositionNode(e.From, e.Token)
			if balance, ok := a.balances.Lookup(e.From, e.Token); ok {
				row[pos] = balance
				continue
			}
			sum := row[pos].Add(e.Capacity)
			if sum.Less(row[pos]) {
				sum = types.MaxU256()
			}
			row[pos] = sum
		}
	case KindTokenPosition:
		for _, e := range a.edges[n.Holder] {
			if e.Token == n.Token {
				row[AccountNode(e.To)] = e.Capacity
			}
		}
	}
	a.base[n] = row
	return row
}

// OutgoingSortedByCapacity returns all current outgoing arcs of n —
// base capacities with adjustments applied, plus arcs that exist only
// through adjustments — in descending capacity order. Ties are broken
// by node identity so that traversal order is reproducible. Arcs whose
// capacity has dropped to zero are still reported; callers skip them.
func (a *Adjacencies) OutgoingSortedByCapacity(n Node) []TargetCapacity {
	merged := make(map[Node]types.U256, len(a.baseFrom(n)))
	for target, capacity := range a.baseFrom(n) {
		merged[target] = capacity
	}
	for target, delta := range a.adjustments[n] {
		merged[target] = merged[target].Add(delta)
	}

	result := make([]TargetCapacity, 0, len(merged))
	for target, capacity := range merged {
		result = append(result, TargetCapacity{Target: target, Capacity: capacity})
	}
	sort.Slice(result, func(i, j int) bool {
		if c := result[i].Capacity.Cmp(result[j].Capacity); c != 0 {
			return c > 0
		}
		return result[i].Target.Cmp(result[j].Target) < 0
	})
	return result
}

// AdjustCapacity applies a wrapping-signed delta to the arc from → to.
// Pushing f along an arc is a pair of calls: -f on the forward
// direction and +f on the reverse.
func (a *Adjacencies) AdjustCapacity(from, to Node, delta types.U256) {
	row := a.adjustments[from]
	if row == nil {
		row = make(map[Node]types.U256)
		a.adjustments[from] = row
	}
	row[to] = row[to].Add(delta)
}

// IsAdjacent reports whether a base edge from → to exists with positive
// residual capacity. Arcs that only exist as cancellation residue
// return false.
func (a *Adjacencies) IsAdjacent(from, to Node) bool {
	capacity, ok := a.baseFrom(from)[to]
	if !ok {
		return false
	}
	return !capacity.Add(a.adjustments[from][to]).IsZero()
}
