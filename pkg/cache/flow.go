package cache

import (
	"context"
	"encoding/json"
	"time"

	"pathfinder/internal/types"
)

// FlowCache специализированный кэш для результатов вычисления потока
type FlowCache struct {
	cache      Cache
	defaultTTL time.Duration
}

// CachedFlowResult кэшированный результат
type CachedFlowResult struct {
	MaxFlow           string          `json:"max_flow"` // десятичная строка
	Transfers         []TransferCache `json:"transfers,omitempty"`
	Iterations        int             `json:"iterations"`
	ComputationTimeMs float64         `json:"computation_time_ms"`
	ComputedAt        time.Time       `json:"computed_at"`
}

// TransferCache кэшированный перевод
type TransferCache struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Token string `json:"token"`
	Value string `json:"value"` // десятичная строка
}

// NewFlowCache создаёт кэш для результатов потока
func NewFlowCache(cache Cache, defaultTTL time.Duration) *FlowCache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &FlowCache{
		cache:      cache,
		defaultTTL: defaultTTL,
	}
}

// Get получает кэшированный результат
func (fc *FlowCache) Get(ctx context.Context, source, sink types.Address, edges map[types.Address][]types.Edge, balances types.Balances) (*CachedFlowResult, bool, error) {
	key := BuildFlowKey(AdjacencyHash(source, sink, edges, balances))

	data, err := fc.cache.Get(ctx, key)
	if err != nil {
		if err == ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	var result CachedFlowResult
	if err := json.Unmarshal(data, &result); err != nil {
		// Повреждённый кэш — удаляем, ошибку удаления игнорируем намеренно
		_ = fc.cache.Delete(ctx, key) //nolint:errcheck // best effort cleanup
		return nil, false, nil
	}

	return &result, true, nil
}

// Set сохраняет результат в кэш
func (fc *FlowCache) Set(ctx context.Context, source, sink types.Address, edges map[types.Address][]types.Edge, balances types.Balances, result *CachedFlowResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = fc.defaultTTL
	}

	key := BuildFlowKey(AdjacencyHash(source, sink, edges, balances))
	result.ComputedAt = time.Now()

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return fc.cache.Set(ctx, key, data, ttl)
}
