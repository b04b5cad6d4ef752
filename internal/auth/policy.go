package auth

// Action names a category of mutation the policy knows how to judge.
type Action string

const (
	// ActionCatalogWrite covers product create/update/delete and direct
	// stock adjustment.
	ActionCatalogWrite Action = "catalog:write"
	// ActionOwnResource covers mutations of a caller-owned row (cart,
	// address, review, wishlist). The resource owner id is compared
	// against the caller subject.
	ActionOwnResource Action = "resource:own"
	// ActionAdmin covers administrative overrides such as direct order
	// status writes.
	ActionAdmin Action = "admin"
)

type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Authorizer is the single policy-evaluation point consulted by every
// mutating handler.
type Authorizer interface {
	Authorize(id Identity, action Action, ownerID string) Decision
}

// RolePolicy implements the role rules: admins may do anything, sellers
// additionally manage the catalog, and everyone may mutate rows they own.
type RolePolicy struct{}

func NewRolePolicy() RolePolicy { return RolePolicy{} }

func (RolePolicy) Authorize(id Identity, action Action, ownerID string) Decision {
	if id.Subject == "" {
		return deny("unauthorized")
	}
	if id.Banned {
		return deny("account is banned")
	}
	if id.Role == RoleAdmin {
		return allow()
	}

	switch action {
	case ActionCatalogWrite:
		if id.Role == RoleSeller {
			return allow()
		}
		return deny("requires seller or admin role")
	case ActionOwnResource:
		if ownerID != "" && id.Subject == ownerID {
			return allow()
		}
		return deny("not the resource owner")
	case ActionAdmin:
		return deny("requires admin role")
	}

	return deny("unknown action")
}
