// Package service provides the host that runs hook chains around service
// methods, and an in-memory service implementation.
package service

import (
	"context"

	"github.com/Suhaibinator/SHooks/pkg/hook"
)

// Service is a resource exposed through the App.
// Records are JSON-shaped values, usually map[string]any.
type Service interface {
	Find(ctx context.Context, params *hook.Params) (any, error)
	Get(ctx context.Context, id string, params *hook.Params) (any, error)
	Create(ctx context.Context, data map[string]any, params *hook.Params) (any, error)
	Update(ctx context.Context, id string, data map[string]any, params *hook.Params) (any, error)
	Patch(ctx context.Context, id string, data map[string]any, params *hook.Params) (any, error)
	Remove(ctx context.Context, id string, params *hook.Params) (any, error)
}

// HookMap holds the hook chains for one phase.
// All runs before the method-specific chain.
type HookMap struct {
	All    hook.Chain
	Find   hook.Chain
	Get    hook.Chain
	Create hook.Chain
	Update hook.Chain
	Patch  hook.Chain
	Remove hook.Chain
}

// For returns the ordered chain to run for method.
func (m HookMap) For(method hook.Method) hook.Chain {
	var specific hook.Chain
	switch method {
	case hook.Find:
		specific = m.Find
	case hook.Get:
		specific = m.Get
	case hook.Create:
		specific = m.Create
	case hook.Update:
		specific = m.Update
	case hook.Patch:
		specific = m.Patch
	case hook.Remove:
		specific = m.Remove
	}
	return specific.Prepend(m.All...)
}

// Hooks holds the before and after hooks of a service.
type Hooks struct {
	Before HookMap
	After  HookMap
}

// dispatch calls the service method for c and stores the outcome in c.Result.
func dispatch(svc Service, c *hook.Context) error {
	ctx := c.Context()

	var (
		result any
		err    error
	)
	switch c.Method {
	case hook.Find:
		result, err = svc.Find(ctx, c.Params)
	case hook.Get:
		result, err = svc.Get(ctx, c.ID, c.Params)
	case hook.Create:
		result, err = svc.Create(ctx, c.Data, c.Params)
	case hook.Update:
		result, err = svc.Update(ctx, c.ID, c.Data, c.Params)
	case hook.Patch:
		result, err = svc.Patch(ctx, c.ID, c.Data, c.Params)
	case hook.Remove:
		result, err = svc.Remove(ctx, c.ID, c.Params)
	default:
		return hook.MethodNotAllowed("method " + string(c.Method) + " is not supported")
	}
	if err != nil {
		return err
	}

	c.Result = result
	return nil
}
