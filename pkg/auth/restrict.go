// Package auth provides the role and ownership checks used by service hooks,
// and bearer-token authentication for the transports.
package auth

import (
	"fmt"

	"github.com/Suhaibinator/SHooks/pkg/hook"
)

// Options configures RestrictToRoles.
type Options struct {
	// Roles permitted to continue. Must not be empty.
	Roles []string

	// FieldName is the user field holding the user's roles. Default "roles".
	FieldName string

	// IDField is the user field holding the user's id. Default "id".
	IDField string

	// Owner lets the owner of the targeted record continue even without a permitted role.
	Owner bool

	// OwnerField is the record field holding the owner's id. Default "userId".
	OwnerField string
}

func (o Options) withDefaults() Options {
	if o.FieldName == "" {
		o.FieldName = "roles"
	}
	if o.IDField == "" {
		o.IDField = "id"
	}
	if o.OwnerField == "" {
		o.OwnerField = "userId"
	}
	return o
}

// RestrictToRoles returns a before hook that only lets external callers
// continue when their roles intersect opts.Roles or, with opts.Owner set,
// when they own the record the operation targets. Internal calls always pass.
func RestrictToRoles(opts Options) hook.Hook {
	opts = opts.withDefaults()

	return func(c *hook.Context) error {
		if len(opts.Roles) == 0 {
			return hook.GeneralError("you need to provide an array of roles to check against")
		}
		if c.Type != hook.Before {
			return hook.GeneralError("the restrictToRoles hook should only be used as a before hook")
		}
		if c.Params == nil || c.Params.Provider == "" {
			return nil
		}

		user := c.Params.User
		if user == nil {
			return hook.NotAuthenticated("not authenticated")
		}

		id, ok := user[opts.IDField]
		if !ok || id == nil {
			return hook.GeneralError(fmt.Sprintf("'%s' is missing from current user", opts.IDField))
		}

		forbidden := hook.Forbidden("you do not have valid permissions to access this")

		userRoles, hasRoles := user[opts.FieldName]
		if !opts.Owner && (!hasRoles || userRoles == nil) {
			return forbidden
		}

		if hasAnyRole(toStrings(userRoles), opts.Roles) {
			return nil
		}
		if !opts.Owner {
			return forbidden
		}

		return checkOwner(c, opts, id)
	}
}

// checkOwner loads the targeted record and compares its owner field to the user id.
func checkOwner(c *hook.Context, opts Options, userID any) error {
	if c.ID == "" {
		return hook.MethodNotAllowed("the restrictToRoles hook should only be used on the get, update, patch and remove service methods when owner is set")
	}
	if c.Service == nil {
		return hook.GeneralError("no service available to look up the record owner")
	}

	// Clear the provider so the lookup is an internal call and does not
	// re-enter this hook.
	params := c.Params.Clone()
	params.Provider = ""

	record, err := c.Service.Get(c.Context(), c.ID, params)
	if err != nil {
		return err
	}

	fields, ok := record.(map[string]any)
	if !ok {
		return hook.Forbidden("you do not have the permissions to access this")
	}

	owner := fields[opts.OwnerField]
	// Nested owner records carry the id under IDField.
	if nested, ok := owner.(map[string]any); ok {
		owner = nested[opts.IDField]
	}

	if owner == nil || fmt.Sprint(owner) != fmt.Sprint(userID) {
		return hook.Forbidden("you do not have the permissions to access this")
	}
	return nil
}

func hasAnyRole(have, allowed []string) bool {
	for _, r := range have {
		for _, a := range allowed {
			if r == a {
				return true
			}
		}
	}
	return false
}

// toStrings normalizes a roles value that may be a single role or a list.
func toStrings(v any) []string {
	switch roles := v.(type) {
	case nil:
		return nil
	case string:
		return []string{roles}
	case []string:
		return roles
	case []any:
		out := make([]string, 0, len(roles))
		for _, r := range roles {
			out = append(out, fmt.Sprint(r))
		}
		return out
	default:
		return []string{fmt.Sprint(roles)}
	}
}
