package lots

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/clkhoo5211/aphorism/internal/domain"
)

//go:embed data/systems.json
var lotFS embed.FS

// EmbeddedStore serves the oracle systems bundled with the binary. The file
// order is the pool order, so it must stay stable for seeded answers to repeat.
type EmbeddedStore struct {
	once    sync.Once
	systems []domain.System
	err     error
}

func NewEmbeddedStore() *EmbeddedStore {
	return &EmbeddedStore{}
}

func (s *EmbeddedStore) init() {
	raw, err := lotFS.ReadFile("data/systems.json")
	if err != nil {
		s.err = fmt.Errorf("read embedded systems: %w", err)
		return
	}
	if err := json.Unmarshal(raw, &s.systems); err != nil {
		s.err = fmt.Errorf("parse embedded systems: %w", err)
		return
	}
	if err := domain.ValidateSystems(s.systems); err != nil {
		s.err = fmt.Errorf("load embedded systems: %w", err)
	}
}

func (s *EmbeddedStore) Systems(_ context.Context) ([]domain.System, error) {
	s.once.Do(s.init)
	if s.err != nil {
		return nil, s.err
	}
	return s.systems, nil
}
