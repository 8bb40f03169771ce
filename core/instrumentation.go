package toolpanel

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/ema-toolpanel/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var (
	toolCallCounter, _ = meter.Int64Counter(
		"toolpanel.tool_calls",
		metric.WithDescription("Tool invocations handled by the panel"),
	)
	skippedToolCallCounter, _ = meter.Int64Counter(
		"toolpanel.tool_calls.skipped",
		metric.WithDescription("Tool invocations skipped because their call id was already handled"),
	)
)
