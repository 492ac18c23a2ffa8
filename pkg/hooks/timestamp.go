// Package hooks provides common service hooks: timestamping records,
// normalizing route slugs across transports, debug logging, and a
// role/ownership restriction factory.
//
//	app.Use("/stores/:storeId/candies", svc, &service.Hooks{
//		Before: service.HookMap{
//			All:    hook.NewChain(hooks.SetSlug("storeId")),
//			Create: hook.NewChain(hooks.SetCreatedAt(nil)),
//			Patch:  hook.NewChain(hooks.SetUpdatedAt(nil)),
//		},
//	})
package hooks

import (
	"time"

	"github.com/Suhaibinator/SHooks/pkg/hook"
)

const (
	// DefaultCreatedAtField is the field SetCreatedAt writes by default.
	DefaultCreatedAtField = "createdAt"

	// DefaultUpdatedAtField is the field SetUpdatedAt writes by default.
	DefaultUpdatedAtField = "updatedAt"
)

// TimestampConfig configures SetCreatedAt and SetUpdatedAt.
type TimestampConfig struct {
	As  string           // Field name to write; empty uses the default
	Now func() time.Time // Clock; nil uses time.Now
}

// SetCreatedAt returns a hook that sets a createdAt field (or config.As) to the
// current time. Use it on create in the before phase.
func SetCreatedAt(config *TimestampConfig) hook.Hook {
	return setTimestamp(DefaultCreatedAtField, config)
}

// SetUpdatedAt returns a hook that sets an updatedAt field (or config.As) to the
// current time. Use it on create, update and patch.
func SetUpdatedAt(config *TimestampConfig) hook.Hook {
	return setTimestamp(DefaultUpdatedAtField, config)
}

func setTimestamp(name string, config *TimestampConfig) hook.Hook {
	now := time.Now
	if config != nil {
		if config.As != "" {
			name = config.As
		}
		if config.Now != nil {
			now = config.Now
		}
	}

	return func(c *hook.Context) error {
		setField(c, name, now())
		return nil
	}
}

// setField writes value into the payload the phase works on: Data before the
// method runs, the result records after it. An after hook with no record
// result falls back to Data.
func setField(c *hook.Context, name string, value any) {
	if c.Type == hook.After {
		switch result := c.Result.(type) {
		case map[string]any:
			result[name] = value
			return
		case []map[string]any:
			for _, rec := range result {
				rec[name] = value
			}
			return
		case []any:
			set := false
			for _, item := range result {
				if rec, ok := item.(map[string]any); ok {
					rec[name] = value
					set = true
				}
			}
			if set {
				return
			}
		}
	}

	if c.Data == nil {
		c.Data = make(map[string]any)
	}
	c.Data[name] = value
}
