package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Граф доверия
	AttrGraphSafes  = "graph.safes"
	AttrGraphEdges  = "graph.edges"
	AttrGraphSource = "graph.source"
	AttrGraphSink   = "graph.sink"

	// Вычисление потока
	AttrIterations = "flow.iterations"
	AttrMaxFlow    = "flow.max_flow"
	AttrTransfers  = "flow.transfers"
	AttrCacheHit   = "flow.cache_hit"
)

// GraphAttributes возвращает атрибуты графа
func GraphAttributes(safes, edges int, source, sink string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrGraphSafes, safes),
		attribute.Int(AttrGraphEdges, edges),
		attribute.String(AttrGraphSource, source),
		attribute.String(AttrGraphSink, sink),
	}
}

// FlowAttributes возвращает атрибуты результата вычисления
func FlowAttributes(maxFlow string, iterations, transfers int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrMaxFlow, maxFlow),
		attribute.Int(AttrIterations, iterations),
		attribute.Int(AttrTransfers, transfers),
	}
}
