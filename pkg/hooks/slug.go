package hooks

import (
	"strings"

	"github.com/Suhaibinator/SHooks/pkg/hook"
)

// SetSlug returns a hook that copies the route slug name into Params.Query.
//
// A service mounted at /stores/:storeId/candies sees the slug differently per
// transport:
//
//	transport  Params.Values["storeId"]  Params.Query
//	---------  ------------------------  ----------------------------------
//	socket     (absent)                  {size: large, storeId: 123}
//	rest       123                       {size: large}
//
// After SetSlug("storeId") both see {size: large, storeId: 123}.
// Only raw HTTP calls are touched; a value still holding the ":storeId"
// placeholder was never resolved and is ignored.
func SetSlug(name string) hook.Hook {
	return func(c *hook.Context) error {
		if c.Params == nil || c.Params.Provider != hook.ProviderREST {
			return nil
		}

		v, _ := c.Params.Value(name)
		value, ok := v.(string)
		if !ok || value == "" || strings.HasPrefix(value, ":") {
			return nil
		}

		if c.Params.Query == nil {
			c.Params.Query = make(map[string]any)
		}
		c.Params.Query[name] = value
		return nil
	}
}
