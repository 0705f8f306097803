package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/crm-backoffice/internal"
)

// Action is a family of record level operations on a contractor. Each family
// has an ALL permission and an OWN permission.
type Action string

const (
	ActionEdit       Action = "edit"
	ActionDelete     Action = "delete"
	ActionHide       Action = "hide"
	ActionViewHidden Action = "view_hidden"
)

type actionPermissions struct {
	all string
	own string
}

var actionTable = map[Action]actionPermissions{
	ActionEdit:       {all: PermEditAllClients, own: PermEditOwnClient},
	ActionDelete:     {all: PermDeleteAllClients, own: PermDeleteOwnClient},
	ActionHide:       {all: PermHideAllClients, own: PermHideOwnClient},
	ActionViewHidden: {all: PermViewHiddenAllClients, own: PermViewHiddenOwnClient},
}

// AllPermission and OwnPermission expose the permission pair behind an action.
func (a Action) AllPermission() string { return actionTable[a].all }
func (a Action) OwnPermission() string { return actionTable[a].own }

// Ownership carries the attributes of a contractor that access decisions
// depend on. It is read fresh from the store for every decision.
type Ownership struct {
	ContractorID int64
	ManagerID    *int64
	CreatorID    *int64
	Hidden       bool
}

// IsOwner is true when userID is the assigned manager or the creator.
func (o Ownership) IsOwner(userID int64) bool {
	if userID == 0 {
		return false
	}
	return (o.ManagerID != nil && *o.ManagerID == userID) ||
		(o.CreatorID != nil && *o.CreatorID == userID)
}

var ErrOwnershipNotFound = errors.New("contractor not found")

// OwnershipResolver loads the ownership attributes of a contractor. It returns
// ErrOwnershipNotFound when the contractor does not exist.
type OwnershipResolver interface {
	Ownership(ctx context.Context, contractorID int64) (Ownership, error)
}

// ABACPolicy combines the permission evaluator with record ownership.
type ABACPolicy struct {
	logger *slog.Logger
}

func NewABACPolicy(logger *slog.Logger) *ABACPolicy {
	if logger == nil {
		logger = slog.Default()
	}
	return &ABACPolicy{logger: logger}
}

// Allow decides action for u on the record described by own:
// ADMIN, then the ALL permission, then the OWN permission plus ownership.
func (p *ABACPolicy) Allow(u *internal.User, action Action, own Ownership) bool {
	if u == nil {
		return false
	}
	perms, ok := actionTable[action]
	if !ok {
		return false
	}
	if HasPermission(u.Permissions, perms.all) {
		return true
	}
	return HasPermission(u.Permissions, perms.own) && own.IsOwner(u.ID)
}

// Authorize is Allow that returns a forbidden error and logs the denial.
func (p *ABACPolicy) Authorize(ctx context.Context, u *internal.User, action Action, own Ownership) error {
	if u == nil {
		return internal.ErrUnauthenticated
	}
	if p.Allow(u, action, own) {
		return nil
	}
	p.logger.WarnContext(ctx, "access denied",
		"user_id", u.ID,
		"action", string(action),
		"contractor_id", own.ContractorID)
	return internal.ErrForbidden.WithMessage("not allowed to " + string(action) + " this contractor")
}

// CanView reports whether u may see the record at all. Visible records are
// open to every authenticated user; hidden ones need the view-hidden policy.
func (p *ABACPolicy) CanView(u *internal.User, own Ownership) bool {
	if !own.Hidden {
		return u != nil
	}
	return p.Allow(u, ActionViewHidden, own)
}

// HiddenScope describes which hidden contractors a list query may return.
type HiddenScope int

const (
	HiddenNone HiddenScope = iota
	HiddenOwn
	HiddenAll
)

func (p *ABACPolicy) HiddenScopeFor(u *internal.User) HiddenScope {
	if u == nil {
		return HiddenNone
	}
	switch {
	case HasPermission(u.Permissions, PermViewHiddenAllClients):
		return HiddenAll
	case HasPermission(u.Permissions, PermViewHiddenOwnClient):
		return HiddenOwn
	default:
		return HiddenNone
	}
}
