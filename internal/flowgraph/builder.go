// Package flowgraph derives the capacity graph of a trust network from
// its safe state: balances, per-counterparty trust percentages and the
// organization flag.
package flowgraph

import (
	"fmt"
	"sort"

	"pathfinder/internal/types"
	"pathfinder/pkg/apperror"
)

// Build produces the capacity graph consumed by the flow engine: for
// every safe with outgoing capacity, the list of trust-limit edges in
// its own token, plus the balance layer — each sender's own-token
// balance, which bounds the sender's total outflow across all
// receivers (the per-receiver trust limits alone do not carry that
// shared bound).
//
// For a sender U and receiver R with trust percentage p, the edge
// capacity follows the safe's transfer-limit rule (organizations take
// the sender's full balance). Zero-capacity edges are omitted — an
// address absent from the mapping simply has no outgoing capacity.
// Self-edges are ignored, and edges toward addresses with no known safe
// are skipped. A trust percentage above 100 is a data error.
//
// Edge lists are sorted by (To, Token), so the same safe state always
// yields the same mapping.
func Build(safes map[types.Address]*types.Safe) (map[types.Address][]types.Edge, types.Balances, error) {
	result := make(map[types.Address][]types.Edge)
	balances := make(types.Balances)

	for sender, safe := range safes {
		var edges []types.Edge
		for receiver, pct := range safe.LimitPercentage {
			if pct > 100 {
				return nil, nil, apperror.NewWithField(apperror.CodeInvalidTrust,
					fmt.Sprintf("trust percentage %d exceeds 100 for %s -> %s", pct, sender, receiver),
					"limit_percentage")
			}
			if receiver == sender {
				continue
			}
			receiverSafe, ok := safes[receiver]
			if !ok {
				continue
			}
			capacity := safe.TrustTransferLimit(receiverSafe, pct)
			if capacity.IsZero() {
				continue
			}
			edges = append(edges, types.Edge{
				From:     sender,
				To:       receiver,
				Token:    safe.TokenAddress,
				Capacity: capacity,
			})
		}
		if len(edges) == 0 {
			continue
		}
		sort.Slice(edges, func(i, j int) bool { return edges[i].Cmp(edges[j]) < 0 })
		result[sender] = edges
		balances.Set(sender, safe.TokenAddress, safe.Balance(safe.TokenAddress))
	}

	return result, balances, nil
}

// CountEdges returns the total number of edges in an adjacency mapping.
func CountEdges(edges map[types.Address][]types.Edge) int {
	total := 0
	for _, list := range edges {
		total += len(list)
	}
	return total
}
