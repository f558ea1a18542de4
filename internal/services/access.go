package services

import (
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/session"
	"github.com/google/uuid"
)

// Guard holds the authorization rules for mutations. Callers pass freshly
// loaded ownership data; nothing is cached between calls.
type Guard struct{}

func (Guard) RequireSession(caller *session.Session) error {
	if caller == nil || caller.ID == uuid.Nil {
		return ErrUnauthenticated
	}
	return nil
}

// RequireOwnerOrAdmin passes for the resource owner or any admin.
func (g Guard) RequireOwnerOrAdmin(caller *session.Session, ownerID uuid.UUID) error {
	if err := g.RequireSession(caller); err != nil {
		return err
	}
	if caller.IsAdmin || caller.ID == ownerID {
		return nil
	}
	return ErrUnauthorized
}

// RequireSelf passes only when the caller is userID. Admins are not exempt.
func (g Guard) RequireSelf(caller *session.Session, userID uuid.UUID) error {
	if err := g.RequireSession(caller); err != nil {
		return err
	}
	if caller.ID != userID {
		return ErrUnauthorized
	}
	return nil
}

func (g Guard) RequireAdmin(caller *session.Session) error {
	if err := g.RequireSession(caller); err != nil {
		return err
	}
	if !caller.IsAdmin {
		return ErrUnauthorized
	}
	return nil
}
