package metrics

import (
	"context"
	"time"
)

// NopCollector — Collector, который ничего не делает.
type NopCollector struct{}

// NewNopCollector создаёт NopCollector.
func NewNopCollector() *NopCollector {
	return &NopCollector{}
}

func (c *NopCollector) RecordCommandStart(string) {}

func (c *NopCollector) RecordCommandEnd(string, time.Duration, bool) {}

func (c *NopCollector) RecordPlan(string, int, bool) {}

func (c *NopCollector) RecordPlanFailure(string, string) {}

// Push всегда возвращает nil.
func (c *NopCollector) Push(context.Context) error {
	return nil
}
