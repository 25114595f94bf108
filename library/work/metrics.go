package work

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/yola1107/herostory/library/work"

type metrics struct {
	name     string
	tasks    metric.Int64Counter
	rejects  metric.Int64Counter
	asyncOps metric.Int64Counter
}

func newMetrics(name string) *metrics {
	meter := otel.Meter(instrumentationName)
	m := &metrics{name: name}
	// 全局 MeterProvider 未设置时为 noop, 创建失败也不影响任务执行
	m.tasks, _ = meter.Int64Counter("work.loop.tasks",
		metric.WithDescription("Tasks executed by the loop, by result."))
	m.rejects, _ = meter.Int64Counter("work.loop.rejected",
		metric.WithDescription("Tasks rejected because the loop queue was full."))
	m.asyncOps, _ = meter.Int64Counter("work.async.operations",
		metric.WithDescription("Async operations executed by shards, by result."))
	return m
}

func (m *metrics) executed(ctx context.Context, ok bool) {
	if m.tasks == nil {
		return
	}
	m.tasks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("loop", m.name),
		attribute.Bool("ok", ok),
	))
}

func (m *metrics) rejected(ctx context.Context) {
	if m.rejects == nil {
		return
	}
	m.rejects.Add(ctx, 1, metric.WithAttributes(attribute.String("loop", m.name)))
}

func (m *metrics) async(ctx context.Context, shard int, ok bool) {
	if m.asyncOps == nil {
		return
	}
	m.asyncOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("loop", m.name),
		attribute.Int("shard", shard),
		attribute.Bool("ok", ok),
	))
}
