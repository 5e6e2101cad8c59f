package decks

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/clkhoo5211/aphorism/internal/domain"
)

//go:embed data/*.json
var deckFS embed.FS

// registry maps catalog IDs to their JSON filenames inside data/.
var registry = map[string]struct {
	name string
	file string
}{
	"rider_waite": {name: "Rider-Waite Tarot", file: "data/tarot_cards.json"},
}

const (
	spreadsFile = "data/spreads.json"
	stylesFile  = "data/styles.json"
)

// EmbeddedStore loads catalogs, spreads and styles from embedded JSON files.
type EmbeddedStore struct {
	once     sync.Once
	catalogs map[string]domain.Catalog
	spreads  []domain.Spread
	styles   []domain.StyleInfo
	err      error
}

func NewEmbeddedStore() *EmbeddedStore {
	return &EmbeddedStore{}
}

func (s *EmbeddedStore) init() {
	s.catalogs = make(map[string]domain.Catalog, len(registry))
	for id, entry := range registry {
		var cards []domain.Card
		if err := readJSON(entry.file, &cards); err != nil {
			s.err = fmt.Errorf("load embedded catalog %s: %w", id, err)
			return
		}
		catalog := domain.Catalog{ID: id, Name: entry.name, Cards: cards}
		if err := catalog.Validate(); err != nil {
			s.err = fmt.Errorf("load embedded catalog %s: %w", id, err)
			return
		}
		s.catalogs[id] = catalog
	}

	if err := readJSON(spreadsFile, &s.spreads); err != nil {
		s.err = fmt.Errorf("load embedded spreads: %w", err)
		return
	}
	if err := readJSON(stylesFile, &s.styles); err != nil {
		s.err = fmt.Errorf("load embedded styles: %w", err)
		return
	}
	for _, st := range s.styles {
		if _, err := domain.ParseDeckStyle(string(st.ID)); err != nil {
			s.err = fmt.Errorf("load embedded styles: %s: %w", st.ID, err)
			return
		}
	}
}

func readJSON(name string, v any) error {
	raw, err := deckFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func (s *EmbeddedStore) GetCatalog(_ context.Context, catalogID string) (domain.Catalog, error) {
	s.once.Do(s.init)
	if s.err != nil {
		return domain.Catalog{}, s.err
	}
	catalog, ok := s.catalogs[catalogID]
	if !ok {
		return domain.Catalog{}, domain.ErrDeckNotFound
	}
	return catalog, nil
}

func (s *EmbeddedStore) Spreads(_ context.Context) ([]domain.Spread, error) {
	s.once.Do(s.init)
	return s.spreads, s.err
}

func (s *EmbeddedStore) Styles(_ context.Context) ([]domain.StyleInfo, error) {
	s.once.Do(s.init)
	return s.styles, s.err
}
