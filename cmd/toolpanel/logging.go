package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const scopeName = "github.com/koscakluka/ema-toolpanel/cmd/toolpanel"

var logger = otelslog.NewLogger(scopeName)

// setupLogging installs the global logger provider every package logs
// through. Records below level are dropped. An empty path writes to stderr.
// The returned func flushes the provider and closes the output.
func setupLogging(level string, path string) (func(context.Context) error, error) {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var (
		out      io.Writer = os.Stderr
		closeOut           = func() error { return nil }
	)
	if path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out, closeOut = file, file.Close
	}

	exporter, err := stdoutlog.New(stdoutlog.WithWriter(out))
	if err != nil {
		_ = closeOut()
		return nil, fmt.Errorf("failed to create log exporter: %w", err)
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(&severityFilter{
			Processor: sdklog.NewSimpleProcessor(exporter),
			min:       severity(logLevel),
		}),
	)
	global.SetLoggerProvider(provider)

	return func(ctx context.Context) error {
		return errors.Join(provider.Shutdown(ctx), closeOut())
	}, nil
}

// severity maps a slog level onto the scale used by the otelslog bridge.
func severity(level slog.Level) log.Severity {
	return log.Severity(int(level) + 9)
}

type severityFilter struct {
	sdklog.Processor
	min log.Severity
}

func (f *severityFilter) OnEmit(ctx context.Context, record *sdklog.Record) error {
	if record.Severity() < f.min {
		return nil
	}
	return f.Processor.OnEmit(ctx, record)
}
