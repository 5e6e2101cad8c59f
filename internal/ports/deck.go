package ports

import (
	"context"

	"github.com/clkhoo5211/aphorism/internal/domain"
)

// DeckStore provides access to tarot catalogs and their layouts.
type DeckStore interface {
	GetCatalog(ctx context.Context, catalogID string) (domain.Catalog, error)
	Spreads(ctx context.Context) ([]domain.Spread, error)
	Styles(ctx context.Context) ([]domain.StyleInfo, error)
}
