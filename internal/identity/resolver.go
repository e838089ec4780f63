package identity

import (
	"errors"

	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/models"
)

// Storage persists the two client-side identity keys. Implementations must
// return ErrNotFound when no identity has been stored yet.
type Storage interface {
	Load() (sessionID, icon string, err error)
	Save(sessionID, icon string) error
}

// Resolver resolves the client's anonymous session, creating it on first use
// and returning the persisted pair unchanged on every later call.
type Resolver struct {
	storage Storage
}

// NewResolver creates a Resolver backed by the given storage.
func NewResolver(storage Storage) *Resolver {
	return &Resolver{storage: storage}
}

// Resolve returns the persisted session if one exists, otherwise generates a
// new session id, derives the icon from it, and persists both. A session is
// never re-derived once created.
func (r *Resolver) Resolve() (models.Session, error) {
	id, icon, err := r.storage.Load()
	if err == nil && id != "" {
		return models.Session{ID: id, Icon: icon}, nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return models.Session{}, err
	}

	id = NewSessionID()
	icon = DeriveIcon(id)
	if err := r.storage.Save(id, icon); err != nil {
		return models.Session{}, err
	}
	return models.Session{ID: id, Icon: icon}, nil
}
