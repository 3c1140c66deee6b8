package flow

import (
	"context"
	"log/slog"
	"sort"

	"pathfinder/internal/types"
	"pathfinder/pkg/apperror"
)

// =============================================================================
// Transfer Extraction
// =============================================================================
//
// The max-flow phase leaves behind a net per-edge flow (the used-edge
// map). Extraction turns it into an ordered schedule a sequential
// executor can apply: starting from the source holding the full flow,
// every emitted transfer is funded by its sender's current balance, and
// the run ends with the sink holding the full flow.
//
// The scheduling rule is full payment: a transfer is only emitted once
// its sender's running balance covers the entire used capacity of the
// edge, which keeps the schedule free of fragmentary payments. The rule
// can wedge on flows that split at a token position; Options.
// SplitTransfers trades the full-payment property for guaranteed
// progress in that case.
// =============================================================================

// extractTransfers decomposes the used-edge map into the transfer
// schedule. Iteration over accounts and used edges is in sorted order
// throughout, so equal inputs produce identical schedules.
func extractTransfers(ctx context.Context, source, sink types.Address, amount types.U256, usedEdges map[Node]map[Node]types.U256, opts *Options, log *slog.Logger) ([]types.Edge, error) {
	balances := map[types.Address]types.U256{source: amount}
	var transfers []types.Edge

	for len(balances) > 0 {
		if len(balances) == 1 {
			if _, done := balances[sink]; done {
				break
			}
		}
		log.DebugContext(ctx, "finding next transfer", "open_accounts", len(balances))

		edge, err := nextTransfer(balances, usedEdges, opts)
		if err != nil {
			return nil, err
		}

		balances[edge.From] = balances[edge.From].Sub(edge.Capacity)
		balances[edge.To] = balances[edge.To].Add(edge.Capacity)
		if balances[edge.From].IsZero() {
			delete(balances, edge.From)
		}

		position := TokenPositionNode(edge.From, edge.Token)
		if opts.SplitTransfers {
			// Consume only what was emitted and keep the position
			// reachable until its whole fan-out is drained.
			row := usedEdges[position]
			remaining := row[AccountNode(edge.To)].Sub(edge.Capacity)
			if remaining.IsZero() {
				delete(row, AccountNode(edge.To))
			} else {
				row[AccountNode(edge.To)] = remaining
			}
			if len(row) == 0 {
				delete(usedEdges[AccountNode(edge.From)], position)
			}
		} else {
			// Full payment consumed the position outright.
			delete(usedEdges[AccountNode(edge.From)], position)
		}

		transfers = append(transfers, edge)
	}

	return transfers, nil
}

// nextTransfer selects the next edge to schedule. The first pass
// applies the full-payment rule over accounts in address order; with
// SplitTransfers enabled a second pass settles for a partial payment of
// min(balance, capacity). Zero-capacity entries left behind by residual
// cancellation are skipped, not treated as candidates.
func nextTransfer(balances map[types.Address]types.U256, usedEdges map[Node]map[Node]types.U256, opts *Options) (types.Edge, error) {
	accounts := make([]types.Address, 0, len(balances))
	for account := range balances {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Less(accounts[j]) })

	var fallback *types.Edge
	for _, account := range accounts {
		balance := balances[account]
		for _, position := range sortedKeys(usedEdges[AccountNode(account)]) {
			if position.Kind != KindTokenPosition {
				return types.Edge{}, invalidShape(AccountNode(account), position)
			}
			for _, target := range sortedKeys(usedEdges[position]) {
				capacity := usedEdges[position][target]
				if capacity.IsZero() {
					continue
				}
				if !target.IsAccount() {
					return types.Edge{}, invalidShape(position, target)
				}
				edge := types.Edge{
					From:     position.Holder,
					To:       target.Holder,
					Token:    position.Token,
					Capacity: capacity,
				}
				if balance.Cmp(capacity) >= 0 {
					return edge, nil
				}
				if opts.SplitTransfers && fallback == nil && !balance.IsZero() {
					edge.Capacity = types.MinU256(balance, capacity)
					fallback = &edge
				}
			}
		}
	}

	if fallback != nil {
		return *fallback, nil
	}
	return types.Edge{}, apperror.NewCritical(apperror.CodeTransferDeadlock,
		"no account can fund a remaining used edge in one payment")
}

// sortedKeys returns the keys of a used-edge row in node order.
func sortedKeys(row map[Node]types.U256) []Node {
	keys := make([]Node, 0, len(row))
	for node := range row {
		keys = append(keys, node)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Cmp(keys[j]) < 0 })
	return keys
}
