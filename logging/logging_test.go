package logging

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved() (*DefaultLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return FromZap(zap.New(core)), logs
}

func TestDefaultLoggerFields(t *testing.T) {
	logger, logs := newObserved()

	child := logger.WithFields(Fields{"component": "rules"})
	child.Info("template loaded", Fields{"sections": 2})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["component"] != "rules" {
		t.Errorf("component field missing: %v", ctx)
	}
	if ctx["sections"] != int64(2) {
		t.Errorf("sections field = %v", ctx["sections"])
	}
}

func TestDefaultLoggerLevel(t *testing.T) {
	logger, logs := newObserved()
	logger.SetLevel(WarnLevel)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	logger.Error(errors.New("boom"), "shown too")

	if got := logs.Len(); got != 2 {
		t.Fatalf("expected 2 entries above warn, got %d", got)
	}
	if logs.All()[1].ContextMap()["error"] != "boom" {
		t.Errorf("error field not attached: %v", logs.All()[1].ContextMap())
	}
}

func TestWithContext(t *testing.T) {
	logger, logs := newObserved()

	ctx := ContextWithFields(context.Background(), Fields{"analysis_id": "abc"})
	logger.WithContext(ctx).Info("analysis started")

	if logs.All()[0].ContextMap()["analysis_id"] != "abc" {
		t.Errorf("context fields not applied")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   DebugLevel,
		"warn":    WarnLevel,
		"error":   ErrorLevel,
		"info":    InfoLevel,
		"unknown": InfoLevel,
	}
	for name, want := range tests {
		if got := ParseLevel(name); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestSetGlobalLoggerNil(t *testing.T) {
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	SetGlobalLogger(nil)
	if _, ok := GetGlobalLogger().(*NoOpLogger); !ok {
		t.Fatalf("nil logger should install NoOpLogger")
	}
	Info("discarded")
}
