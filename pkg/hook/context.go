// Package hook defines the per-operation context that hooks read and mutate,
// the hook function signature, and ordered hook chains.
package hook

import (
	"context"
)

// Phase is the lifecycle phase a hook runs in.
type Phase string

const (
	// Before hooks run before the service method is called.
	Before Phase = "before"

	// After hooks run once the service method has produced a result.
	After Phase = "after"
)

// Method identifies the service operation being performed.
type Method string

const (
	// Find lists the records matching Params.Query.
	Find Method = "find"

	// Get loads the record with Context.ID.
	Get Method = "get"

	// Create stores Context.Data as a new record.
	Create Method = "create"

	// Update replaces the record with Context.ID.
	Update Method = "update"

	// Patch merges Context.Data into the record with Context.ID.
	Patch Method = "patch"

	// Remove deletes the record with Context.ID.
	Remove Method = "remove"
)

// Methods lists every service method in registration order.
var Methods = []Method{Find, Get, Create, Update, Patch, Remove}

// Provider identifies the transport a call arrived over.
// Internal calls made directly against the App have an empty provider.
type Provider string

const (
	// ProviderREST marks calls that arrived as raw HTTP requests.
	ProviderREST Provider = "rest"

	// ProviderSocket marks calls that arrived over the websocket transport.
	ProviderSocket Provider = "socket"
)

// Getter loads a single record. Services expose it to hooks that need to
// inspect the record an operation targets, such as ownership checks.
type Getter interface {
	Get(ctx context.Context, id string, params *Params) (any, error)
}

// Params carries transport-derived request parameters.
type Params struct {
	// Provider is the transport kind. Empty for internal calls.
	Provider Provider

	// Values holds route-derived values, e.g. "storeId" for /stores/:storeId/candies.
	Values map[string]any

	// Query holds the query parameters the service filters on.
	Query map[string]any

	// User is the authenticated user record, if any.
	User map[string]any
}

// Value returns a route-derived value.
func (p *Params) Value(name string) (any, bool) {
	if p == nil || p.Values == nil {
		return nil, false
	}
	v, ok := p.Values[name]
	return v, ok
}

// Clone returns a shallow copy of the params with fresh top-level maps.
func (p *Params) Clone() *Params {
	if p == nil {
		return &Params{}
	}
	c := &Params{
		Provider: p.Provider,
		User:     p.User,
	}
	if p.Values != nil {
		c.Values = make(map[string]any, len(p.Values))
		for k, v := range p.Values {
			c.Values[k] = v
		}
	}
	if p.Query != nil {
		c.Query = make(map[string]any, len(p.Query))
		for k, v := range p.Query {
			c.Query[k] = v
		}
	}
	return c
}

// Context is the mutable per-operation object passed to every hook.
// It is owned by the single in-flight operation that created it.
type Context struct {
	Type   Phase
	Method Method
	Path   string
	ID     string
	Data   map[string]any
	Params *Params
	Result any

	// Service is the service the operation targets.
	Service Getter

	ctx context.Context
}

// NewContext creates a hook context for one operation.
func NewContext(ctx context.Context, method Method, path string) *Context {
	return &Context{
		Type:   Before,
		Method: method,
		Path:   path,
		Params: &Params{},
		ctx:    ctx,
	}
}

// Context returns the operation's context.Context.
func (c *Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}
