package flow

import (
	"context"
	"log/slog"

	"pathfinder/internal/types"
	"pathfinder/pkg/apperror"
	"pathfinder/pkg/logger"
)

// =============================================================================
// Max-Flow Engine
// =============================================================================
//
// The engine is an Edmonds-Karp variant: repeated BFS for an augmenting
// path on the residual view, with one twist — each node relaxes its
// neighbors in descending residual-capacity order, so the search is
// seeded toward fat paths and converges on high-value routes early.
//
// Capacities are 256-bit unsigned integers. The BFS root is seeded with
// the maximum representable value so the source itself imposes no bound
// on the bottleneck.
// =============================================================================

// Options tunes one computation. The zero value is a valid default.
type Options struct {
	// Balances carries each sender's per-token balance, as materialized
	// by the graph builder. It bounds a sender's total outflow in a
	// token; for (sender, token) pairs without an entry the edge
	// capacities are summed instead.
	Balances types.Balances

	// SplitTransfers relaxes the transfer extractor's full-payment rule:
	// when no account can fund a used edge in one payment, a partial
	// transfer of min(balance, capacity) is emitted instead of failing.
	SplitTransfers bool

	// MaxIterations bounds the number of augmenting paths. Zero or
	// negative means unbounded. When the bound is hit the result is a
	// valid (possibly non-maximum) flow.
	MaxIterations int

	// Logger receives progress output. Nil uses the package default.
	Logger *slog.Logger
}

// Result is the outcome of one ComputeFlow call.
type Result struct {
	// MaxFlow is the maximum transferable amount. Zero iff no
	// augmenting path exists from source to sink.
	MaxFlow types.U256

	// Transfers is an ordered schedule realizing MaxFlow: applying each
	// edge in order, starting from the source holding MaxFlow, never
	// overdraws any intermediate account and ends with the sink holding
	// MaxFlow. Empty when MaxFlow is zero.
	Transfers []types.Edge

	// Iterations is the number of augmenting paths used.
	Iterations int
}

// ComputeFlow computes the maximum value source can send to sink across
// the capacity graph described by edges, and the transfer schedule that
// realizes it.
//
// Addresses absent from the mapping have no outgoing capacity. A
// disconnected pair, or source == sink, yields a zero-flow result and
// no error. The computation runs to completion once started; ctx is
// used for log and trace propagation, not cancellation — a host that
// needs a runtime bound runs the call on a worker it can abandon.
//
// The returned error is non-nil only for fatal conditions: a used-edge
// structure whose shape violates the account/token-position alternation
// or a transfer extraction that cannot make progress (see Options.
// SplitTransfers). Both indicate a bug in the input producer, not a
// runtime condition.
func ComputeFlow(ctx context.Context, source, sink types.Address, edges map[types.Address][]types.Edge, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Log
	}

	adjacencies := NewAdjacencies(edges, opts.Balances)
	usedEdges := make(map[Node]map[Node]types.U256)

	var flow types.U256
	iterations := 0
	for opts.MaxIterations <= 0 || iterations < opts.MaxIterations {
		newFlow, path := augmentingPath(source, sink, adjacencies)
		if newFlow.IsZero() {
			break
		}
		flow = flow.Add(newFlow)
		iterations++

		// path runs sink → … → source; each window is (node, prev)
		// with prev the BFS parent of node.
		for i := 0; i+1 < len(path); i++ {
			node, prev := path[i], path[i+1]
			adjacencies.AdjustCapacity(prev, node, newFlow.Neg())
			adjacencies.AdjustCapacity(node, prev, newFlow)
			// Probe after the mutation: if the forward edge node → prev
			// has residual capacity again, this push cancelled flow
			// previously sent along it.
			if adjacencies.IsAdjacent(node, prev) {
				addUsed(usedEdges, node, prev, newFlow.Neg())
			} else {
				addUsed(usedEdges, prev, node, newFlow)
			}
		}
	}

	log.DebugContext(ctx, "max flow computed",
		"source", source.Short(),
		"sink", sink.Short(),
		"max_flow", flow.Dec(),
		"iterations", iterations,
	)

	result := &Result{MaxFlow: flow, Iterations: iterations}
	if flow.IsZero() {
		return result, nil
	}

	transfers, err := extractTransfers(ctx, source, sink, flow, usedEdges, opts, log)
	if err != nil {
		return nil, err
	}
	result.Transfers = transfers
	log.DebugContext(ctx, "transfer schedule extracted", "transfers", len(transfers))
	return result, nil
}

// addUsed applies a wrapping-signed delta to the used-edge counter.
func addUsed(used map[Node]map[Node]types.U256, from, to Node, delta types.U256) {
	row := used[from]
	if row == nil {
		row = make(map[Node]types.U256)
		used[from] = row
	}
	row[to] = row[to].Add(delta)
}

// augmentingPath searches for a source → sink path with positive
// residual capacity, fattest arcs first. It returns the bottleneck flow
// and the path in sink-to-source order, or a zero flow when the sink is
// unreachable. The parent map doubles as the visited set, so every node
// is enqueued at most once per search.
func augmentingPath(source, sink types.Address, adjacencies *Adjacencies) (types.U256, []Node) {
	if source == sink {
		return types.U256{}, nil
	}
	sourceNode, sinkNode := AccountNode(source), AccountNode(sink)

	parent := make(map[Node]Node)
	parent[sourceNode] = sourceNode

	type queued struct {
		node Node
		flow types.U256
	}
	queue := []queued{{node: sourceNode, flow: types.MaxU256()}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, out := range adjacencies.OutgoingSortedByCapacity(current.node) {
			if out.Capacity.IsZero() {
				continue
			}
			if _, seen := parent[out.Target]; seen {
				continue
			}
			parent[out.Target] = current.node
			newFlow := types.MinU256(current.flow, out.Capacity)
			if out.Target == sinkNode {
				return newFlow, trace(parent, sourceNode, sinkNode)
			}
			queue = append(queue, queued{node: out.Target, flow: newFlow})
		}
	}
	return types.U256{}, nil
}

// trace walks the parent map back from sink to source.
func trace(parent map[Node]Node, source, sink Node) []Node {
	path := []Node{sink}
	for node := sink; node != source; {
		node = parent[node]
		path = append(path, node)
	}
	return path
}

// invalidShape builds the fatal error for a used-edge structure that
// breaks the account/token-position alternation.
func invalidShape(from, to Node) *apperror.Error {
	return apperror.NewCritical(apperror.CodeInvalidAdjacency,
		"used edge "+from.String()+" -> "+to.String()+" violates node alternation")
}
