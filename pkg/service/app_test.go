package service

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/Suhaibinator/SHooks/pkg/hook"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func record(order *[]string, name string) hook.Hook {
	return func(c *hook.Context) error {
		*order = append(*order, name+":"+string(c.Type))
		return nil
	}
}

func TestAppRunsHooksInOrder(t *testing.T) {
	var order []string
	app := NewApp(Config{})
	app.Use("/candies/", NewMemory(), &Hooks{
		Before: HookMap{
			All:    hook.NewChain(record(&order, "all")),
			Create: hook.NewChain(record(&order, "create")),
			Find:   hook.NewChain(record(&order, "find")),
		},
		After: HookMap{
			All:    hook.NewChain(record(&order, "all")),
			Create: hook.NewChain(record(&order, "create")),
		},
	})

	_, err := app.Call(context.Background(), "candies", hook.Create, "", map[string]any{"name": "Gummi"}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	expected := []string{"all:before", "create:before", "all:after", "create:after"}
	if !reflect.DeepEqual(order, expected) {
		t.Errorf("Expected order %v, got %v", expected, order)
	}
}

func TestAppHookErrorAborts(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	mem := NewMemory()
	app := NewApp(Config{Logger: zap.New(core)})
	app.Use("candies", mem, &Hooks{
		Before: HookMap{
			Create: hook.NewChain(func(c *hook.Context) error { return hook.Forbidden("no") }),
		},
	})

	_, err := app.Call(context.Background(), "candies", hook.Create, "", map[string]any{"name": "Gummi"}, nil)
	if hook.StatusCode(err) != http.StatusForbidden {
		t.Errorf("Expected forbidden, got %v", err)
	}

	found, _ := mem.Find(context.Background(), nil)
	if len(found.([]map[string]any)) != 0 {
		t.Error("Expected the service method not to run")
	}
	if logs.FilterMessage("Service call failed").Len() != 1 {
		t.Error("Expected the failed call to be logged")
	}
}

func TestAppBeforeResultShortCircuits(t *testing.T) {
	app := NewApp(Config{})
	app.Use("candies", NewMemory(), &Hooks{
		Before: HookMap{
			Get: hook.NewChain(func(c *hook.Context) error {
				c.Result = map[string]any{"id": c.ID, "cached": true}
				return nil
			}),
		},
	})

	result, err := app.Call(context.Background(), "candies", hook.Get, "x", nil, nil)
	if err != nil {
		t.Fatalf("Expected cached result, got %v", err)
	}
	if result.(map[string]any)["cached"] != true {
		t.Errorf("Expected cached result, got %v", result)
	}
}

func TestAppUnknownPath(t *testing.T) {
	app := NewApp(Config{})
	_, err := app.Call(context.Background(), "nope", hook.Find, "", nil, nil)
	if hook.StatusCode(err) != http.StatusNotFound {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestAppServiceGetterRunsHooks(t *testing.T) {
	var providers []hook.Provider
	mem := NewMemory()
	app := NewApp(Config{})
	app.Use("candies", mem, &Hooks{
		Before: HookMap{
			Get: hook.NewChain(func(c *hook.Context) error {
				providers = append(providers, c.Params.Provider)
				return nil
			}),
		},
	})

	created, _ := mem.Create(context.Background(), map[string]any{"name": "Gummi"}, nil)
	id := created.(map[string]any)["id"].(string)

	rec, err := app.Service("/candies").Get(context.Background(), id, &hook.Params{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.(map[string]any)["name"] != "Gummi" {
		t.Errorf("Expected Gummi, got %v", rec)
	}
	if len(providers) != 1 || providers[0] != "" {
		t.Errorf("Expected one internal get, got %v", providers)
	}
}

func TestAppPaths(t *testing.T) {
	app := NewApp(Config{})
	app.Use("/users", NewMemory(), nil)
	app.Use("/stores/:storeId/candies", NewMemory(), nil)

	expected := []string{"stores/:storeId/candies", "users"}
	if !reflect.DeepEqual(app.Paths(), expected) {
		t.Errorf("Expected %v, got %v", expected, app.Paths())
	}
}

func TestAppMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	app := NewApp(Config{Registerer: registry, Namespace: "shooks"})
	app.Use("candies", NewMemory(), nil)

	_, _ = app.Call(context.Background(), "candies", hook.Find, "", nil, nil)
	_, _ = app.Call(context.Background(), "candies", hook.Get, "missing", nil, nil)

	if v := testutil.ToFloat64(app.calls.WithLabelValues("candies", "find", "success")); v != 1 {
		t.Errorf("Expected 1 successful find, got %v", v)
	}
	if v := testutil.ToFloat64(app.calls.WithLabelValues("candies", "get", "NotFound")); v != 1 {
		t.Errorf("Expected 1 failed get, got %v", v)
	}
}

func TestDispatchUnknownMethod(t *testing.T) {
	c := hook.NewContext(context.Background(), hook.Method("explode"), "candies")
	err := dispatch(NewMemory(), c)
	var herr *hook.Error
	if !errors.As(err, &herr) || herr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected method not allowed, got %v", err)
	}
}
