package hooks

import (
	"github.com/Suhaibinator/SHooks/pkg/auth"
	"github.com/Suhaibinator/SHooks/pkg/hook"
)

const (
	// DefaultRolesField is the user field holding roles when none is configured.
	DefaultRolesField = "roles"

	// DefaultOwnerField is the record field holding the owner id when none is
	// configured. Note this is createdById, not ownerId.
	DefaultOwnerField = "createdById"
)

// RestrictConfig holds the defaults a Restrictor applies.
type RestrictConfig struct {
	// FieldName is the user field holding roles. Empty uses "roles".
	FieldName string

	// Owner is the default for whether a record's owner may continue.
	Owner bool

	// OwnerField is the record field holding the owner id. Empty uses "createdById".
	OwnerField string

	// Delegate performs the check. Nil uses auth.RestrictToRoles.
	Delegate func(auth.Options) hook.Hook
}

// Restrictor builds a role restriction hook for one set of operations.
// A nil roles list uses the restrictor's default roles; an omitted ifOwner
// uses its default owner flag.
type Restrictor func(roles []string, ifOwner ...bool) hook.Hook

// RestrictToRoles returns a Restrictor with the given defaults. defaultRoles
// may be a single role or a list.
//
//	authorizer := hooks.RestrictToRoles([]string{}, &hooks.RestrictConfig{FieldName: "allowedRoles", OwnerField: "ownerId"})
//	before := service.HookMap{
//		All: hook.NewChain(authorizer([]string{"purchasing", "accounting"})),
//	}
func RestrictToRoles[R string | []string](defaultRoles R, config *RestrictConfig) Restrictor {
	var defaults []string
	switch roles := any(defaultRoles).(type) {
	case string:
		defaults = []string{roles}
	case []string:
		defaults = roles
	}
	if defaults == nil {
		defaults = []string{}
	}

	if config == nil {
		config = &RestrictConfig{}
	}
	fieldName := config.FieldName
	if fieldName == "" {
		fieldName = DefaultRolesField
	}
	ownerField := config.OwnerField
	if ownerField == "" {
		ownerField = DefaultOwnerField
	}
	delegate := config.Delegate
	if delegate == nil {
		delegate = auth.RestrictToRoles
	}
	defaultOwner := config.Owner

	return func(roles []string, ifOwner ...bool) hook.Hook {
		if roles == nil {
			roles = defaults
		}
		owner := defaultOwner
		if len(ifOwner) > 0 {
			owner = ifOwner[0]
		}

		return delegate(auth.Options{
			Roles:      roles,
			FieldName:  fieldName,
			Owner:      owner,
			OwnerField: ownerField,
		})
	}
}
