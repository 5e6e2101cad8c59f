package ports

import (
	"context"
	"time"

	"github.com/clkhoo5211/aphorism/internal/domain"
)

// CardRef is the persisted form of a drawn card.
type CardRef struct {
	ID       string `json:"id"`
	Reversed bool   `json:"reversed"`
}

// Session is one reader's rolling deck. Each session owns its deck; it is never
// shared between readers.
type Session struct {
	ID        string
	CatalogID string
	Deck      []CardRef
	Draws     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionStore persists reading sessions.
type SessionStore interface {
	Create(ctx context.Context, s Session) error
	// Get returns domain.ErrSessionNotFound for unknown ids.
	Get(ctx context.Context, id string) (Session, error)
	// Save replaces the deck and draw count of an existing session.
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context, id string) error
	// Prune removes sessions not updated since before and reports how many went.
	Prune(ctx context.Context, before time.Time) (int, error)
}

// ToRefs converts a deck into its persisted form.
func ToRefs(deck domain.Deck) []CardRef {
	refs := make([]CardRef, len(deck))
	for i, c := range deck {
		refs[i] = CardRef{ID: c.ID, Reversed: c.Reversed}
	}
	return refs
}
