// Package service orchestrates one transfer-path request: it loads the
// trust-network state, derives the capacity graph, consults the result
// cache and runs the flow computation, wrapping everything in metrics
// and tracing.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"pathfinder/internal/flow"
	"pathfinder/internal/flowgraph"
	"pathfinder/internal/repository"
	"pathfinder/internal/types"
	"pathfinder/pkg/apperror"
	"pathfinder/pkg/cache"
	"pathfinder/pkg/config"
	"pathfinder/pkg/logger"
	"pathfinder/pkg/metrics"
	"pathfinder/pkg/telemetry"
)

// PathfinderService answers "how much can S send to T, and how".
type PathfinderService struct {
	repo    repository.SafeRepository
	cache   *cache.FlowCache
	metrics *metrics.Metrics
	cfg     config.FlowConfig
	log     *slog.Logger
}

// New creates the service. The cache may be nil, in which case every
// request recomputes.
func New(repo repository.SafeRepository, flowCache *cache.FlowCache, m *metrics.Metrics, cfg config.FlowConfig) *PathfinderService {
	if m == nil {
		m = metrics.Get()
	}
	return &PathfinderService{
		repo:    repo,
		cache:   flowCache,
		metrics: m,
		cfg:     cfg,
		log:     logger.WithComponent("pathfinder-service"),
	}
}

// ComputeTransfer loads the current trust-network state and computes
// the maximum flow from source to sink together with its transfer
// schedule.
func (s *PathfinderService) ComputeTransfer(ctx context.Context, source, sink types.Address) (*flow.Result, error) {
	ctx, span := telemetry.StartSpan(ctx, "PathfinderService.ComputeTransfer")
	defer span.End()

	safes, err := s.repo.LoadAll(ctx)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}
	if s.cfg.MaxSafes > 0 && len(safes) > s.cfg.MaxSafes {
		err := apperror.New(apperror.CodeGraphTooLarge, "trust graph exceeds the configured safe limit").
			WithDetail("safes", len(safes)).
			WithDetail("max_safes", s.cfg.MaxSafes)
		telemetry.SetError(ctx, err)
		return nil, err
	}

	edges, balances, err := flowgraph.Build(safes)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}
	edgeCount := flowgraph.CountEdges(edges)
	if s.cfg.MaxEdges > 0 && edgeCount > s.cfg.MaxEdges {
		err := apperror.New(apperror.CodeGraphTooLarge, "capacity graph exceeds the configured edge limit").
			WithDetail("edges", edgeCount).
			WithDetail("max_edges", s.cfg.MaxEdges)
		telemetry.SetError(ctx, err)
		return nil, err
	}

	s.metrics.RecordGraphSize(len(safes), edgeCount)
	telemetry.SetAttributes(ctx, telemetry.GraphAttributes(len(safes), edgeCount, source.String(), sink.String())...)

	return s.ComputeOnGraph(ctx, source, sink, edges, balances)
}

// ComputeOnGraph computes max flow over an already-built capacity
// graph (adjacency mapping plus sender balances), going through the
// result cache when one is configured.
func (s *PathfinderService) ComputeOnGraph(ctx context.Context, source, sink types.Address, edges map[types.Address][]types.Edge, balances types.Balances) (*flow.Result, error) {
	ctx, span := telemetry.StartSpan(ctx, "PathfinderService.ComputeOnGraph")
	defer span.End()

	if s.cache != nil {
		cached, hit, err := s.cache.Get(ctx, source, sink, edges, balances)
		if err != nil {
			// Кэш не критичен - логируем и продолжаем
			s.log.WarnContext(ctx, "flow cache lookup failed", "error", err)
		}
		if hit {
			s.metrics.CacheHitsTotal.Inc()
			result, err := fromCached(cached)
			if err == nil {
				telemetry.SetAttributes(ctx, attribute.Bool(telemetry.AttrCacheHit, true))
				return result, nil
			}
			s.log.WarnContext(ctx, "discarding malformed cache entry", "error", err)
		}
		s.metrics.CacheMissesTotal.Inc()
	}

	started := time.Now()
	result, err := flow.ComputeFlow(ctx, source, sink, edges, &flow.Options{
		Balances:       balances,
		SplitTransfers: s.cfg.SplitTransfers,
		MaxIterations:  s.cfg.MaxIterations,
		Logger:         s.log,
	})
	elapsed := time.Since(started)

	if err != nil {
		s.metrics.RecordComputation(false, elapsed, 0, 0)
		telemetry.SetError(ctx, err)
		return nil, err
	}

	s.metrics.RecordComputation(true, elapsed, result.Iterations, len(result.Transfers))
	telemetry.SetAttributes(ctx, telemetry.FlowAttributes(result.MaxFlow.Dec(), result.Iterations, len(result.Transfers))...)
	s.log.InfoContext(ctx, "flow computed",
		"source", source.Short(),
		"sink", sink.Short(),
		"max_flow", result.MaxFlow.Dec(),
		"transfers", len(result.Transfers),
		"duration_ms", float64(elapsed.Microseconds())/1000.0,
	)

	if s.cache != nil {
		entry := toCached(result, elapsed)
		if err := s.cache.Set(ctx, source, sink, edges, balances, entry, 0); err != nil {
			s.log.WarnContext(ctx, "flow cache store failed", "error", err)
		}
	}

	return result, nil
}

// toCached converts an engine result into its cache representation.
func toCached(result *flow.Result, elapsed time.Duration) *cache.CachedFlowResult {
	entry := &cache.CachedFlowResult{
		MaxFlow:           result.MaxFlow.Dec(),
		Iterations:        result.Iterations,
		ComputationTimeMs: float64(elapsed.Microseconds()) / 1000.0,
	}
	for _, t := range result.Transfers {
		entry.Transfers = append(entry.Transfers, cache.TransferCache{
			From:  t.From.String(),
			To:    t.To.String(),
			Token: t.Token.String(),
			Value: t.Capacity.Dec(),
		})
	}
	return entry
}

// fromCached restores an engine result from its cache representation.
func fromCached(entry *cache.CachedFlowResult) (*flow.Result, error) {
	maxFlow, err := types.ParseDecimalU256(entry.MaxFlow)
	if err != nil {
		return nil, err
	}
	result := &flow.Result{MaxFlow: maxFlow, Iterations: entry.Iterations}
	for _, t := range entry.Transfers {
		from, err := types.ParseAddress(t.From)
		if err != nil {
			return nil, err
		}
		to, err := types.ParseAddress(t.To)
		if err != nil {
			return nil, err
		}
		token, err := types.ParseAddress(t.Token)
		if err != nil {
			return nil, err
		}
		value, err := types.ParseDecimalU256(t.Value)
		if err != nil {
			return nil, err
		}
		result.Transfers = append(result.Transfers, types.Edge{
			From: from, To: to, Token: token, Capacity: value,
		})
	}
	return result, nil
}
