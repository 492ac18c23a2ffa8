package hooks

import (
	"context"
	"testing"

	"github.com/Suhaibinator/SHooks/pkg/hook"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDebugLogsPresentFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	c := hook.NewContext(context.Background(), hook.Create, "candies")
	c.Data = map[string]any{"a": "a"}
	c.Params.Query = map[string]any{"b": "b"}
	c.Result = map[string]any{"c": "c"}

	if err := Debug("my message", logger)(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	entries := logs.All()
	if len(entries) != 4 {
		t.Fatalf("Expected 4 log entries, got %d", len(entries))
	}
	if entries[0].Message != "* my message" {
		t.Errorf("Expected header %q, got %q", "* my message", entries[0].Message)
	}

	fields := entries[0].ContextMap()
	if fields["type"] != "before" || fields["method"] != "create" {
		t.Errorf("Expected type and method fields, got %v", fields)
	}

	for i, msg := range []string{"data:", "query:", "result:"} {
		if entries[i+1].Message != msg {
			t.Errorf("Expected entry %d to be %q, got %q", i+1, msg, entries[i+1].Message)
		}
	}
}

func TestDebugToleratesMissingFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	// Nothing optional present, not even params
	c := &hook.Context{Type: hook.After, Method: hook.Remove}
	if err := Debug("", logger)(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if logs.Len() != 1 {
		t.Errorf("Expected only the header line, got %d entries", logs.Len())
	}
	if c.Params != nil || c.Data != nil {
		t.Error("Expected the context not to be mutated")
	}
}

func TestDebugDefaultLogger(t *testing.T) {
	c := hook.NewContext(context.Background(), hook.Find, "candies")
	c.Params.Query = map[string]any{"size": "large"}
	if err := Debug("stderr", nil)(c); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}
