// Package auth holds credential handling and the access-control guard: the
// single policy evaluated before every user-, machine- and record-scoped
// operation.
package auth

import (
	"strings"

	"smartbreath-backend/internal/model"
)

// Principal is the authenticated identity attached to an inbound request.
type Principal struct {
	ID       string
	Username string
	Label    string
}

// Decision is the outcome of a guard check. A denial carries the reason; it
// is a pure policy result, transport mapping is the caller's concern.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Guard evaluates ownership-scoped access policy. ClientLabel designates the
// privileged service credential class granted a read-only bypass on records.
type Guard struct {
	clientLabel string
}

// NewGuard creates a guard recognizing the given client credential label.
func NewGuard(clientLabel string) *Guard {
	return &Guard{clientLabel: clientLabel}
}

// IsClient reports whether the principal carries the privileged service
// credential class. The label is a single concept: comparison ignores case
// and surrounding whitespace.
func (g *Guard) IsClient(p Principal) bool {
	if g.clientLabel == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(p.Label), strings.TrimSpace(g.clientLabel))
}

// Self authorizes self-resource operations (user read/update/delete).
func (g *Guard) Self(p Principal, userID string) Decision {
	if p.ID == userID {
		return allow()
	}
	return deny("not your account")
}

// MachineOwner authorizes machine-scoped operations (read/update/delete).
func (g *Guard) MachineOwner(p Principal, m *model.Machine) Decision {
	if m != nil && m.OwnedBy(p.ID) {
		return allow()
	}
	return deny("not the owner of this machine")
}

// RecordRead authorizes reading a record through its parent machine. The
// client credential class bypasses ownership; this is an explicit policy
// exception for automated ingestion and polling flows, not an admin role.
func (g *Guard) RecordRead(p Principal, parent *model.Machine) Decision {
	if g.IsClient(p) {
		return allow()
	}
	return g.MachineOwner(p, parent)
}

// RecordDelete authorizes deleting a record. Owner only, no client bypass.
func (g *Guard) RecordDelete(p Principal, parent *model.Machine) Decision {
	return g.MachineOwner(p, parent)
}
