package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"pathfinder/internal/types"
)

// AdjacencyHash вычисляет хеш графа ёмкостей (рёбра + балансы) для
// использования как ключ кэша
func AdjacencyHash(source, sink types.Address, edges map[types.Address][]types.Edge, balances types.Balances) string {
	hash := sha256.Sum256(adjacencyToCanonical(source, sink, edges, balances))
	return hex.EncodeToString(hash[:16])
}

// adjacencyToCanonical создаёт детерминированное представление графа
func adjacencyToCanonical(source, sink types.Address, edges map[types.Address][]types.Edge, balances types.Balances) []byte {
	// Сортируем ключи
	froms := make([]types.Address, 0, len(edges))
	for from := range edges {
		froms = append(froms, from)
	}
	sort.Slice(froms, func(i, j int) bool { return froms[i].Less(froms[j]) })

	var result []byte
	result = append(result, 's')
	result = append(result, source.Bytes()...)
	result = append(result, 't')
	result = append(result, sink.Bytes()...)

	for _, from := range froms {
		// Сортируем рёбра внутри ключа
		sorted := make([]types.Edge, len(edges[from]))
		copy(sorted, edges[from])
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cmp(sorted[j]) < 0 })

		result = append(result, 'f')
		result = append(result, from.Bytes()...)
		for _, e := range sorted {
			result = append(result, e.To.Bytes()...)
			result = append(result, e.Token.Bytes()...)
			// Длина префиксом, чтобы границы значений не сливались
			b := e.Capacity.Bytes()
			result = append(result, byte(len(b)))
			result = append(result, b...)
		}
	}

	// Балансы участвуют в ключе: те же рёбра с другим балансом
	// отправителя дают другой максимальный поток
	holders := make([]types.Address, 0, len(balances))
	for holder := range balances {
		holders = append(holders, holder)
	}
	sort.Slice(holders, func(i, j int) bool { return holders[i].Less(holders[j]) })

	for _, holder := range holders {
		tokens := make([]types.Address, 0, len(balances[holder]))
		for token := range balances[holder] {
			tokens = append(tokens, token)
		}
		sort.Slice(tokens, func(i, j int) bool { return tokens[i].Less(tokens[j]) })

		result = append(result, 'b')
		result = append(result, holder.Bytes()...)
		for _, token := range tokens {
			result = append(result, token.Bytes()...)
			b := balances[holder][token].Bytes()
			result = append(result, byte(len(b)))
			result = append(result, b...)
		}
	}

	return result
}

// BuildFlowKey строит ключ кэша для результата вычисления потока
func BuildFlowKey(adjacencyHash string) string {
	return "flow:compute:" + adjacencyHash
}
