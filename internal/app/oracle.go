package app

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/clkhoo5211/aphorism/internal/domain"
	"github.com/clkhoo5211/aphorism/internal/ports"
)

// MaxQuestionLen is the longest question, in characters, the oracle accepts.
const MaxQuestionLen = 500

// ConsultResponse is the lot drawn for a question.
type ConsultResponse struct {
	Lot domain.Lot
	// Personalized is true when the lot was derived from the question text.
	Personalized bool
	PoolSize     int
}

// OracleService answers questions from the unified oracle pool.
type OracleService struct {
	store ports.OracleStore
	rng   domain.RNG
}

func NewOracleService(store ports.OracleStore, rng domain.RNG) *OracleService {
	return &OracleService{store: store, rng: rng}
}

// Consult draws a lot for question. The same question always gets the same lot;
// a blank question gets a random one.
func (s *OracleService) Consult(ctx context.Context, question string) (ConsultResponse, error) {
	if utf8.RuneCountInString(question) > MaxQuestionLen {
		return ConsultResponse{}, domain.ErrQuestionTooLong
	}

	pool, err := s.pool(ctx)
	if err != nil {
		return ConsultResponse{}, err
	}

	return ConsultResponse{
		Lot:          domain.DrawForSeed(pool, question, s.rng),
		Personalized: strings.TrimSpace(question) != "",
		PoolSize:     len(pool),
	}, nil
}

// Stats reports pool totals per system.
func (s *OracleService) Stats(ctx context.Context) (domain.Stats, error) {
	systems, err := s.store.Systems(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("get systems: %w", err)
	}
	return domain.PoolStats(systems), nil
}

func (s *OracleService) Systems(ctx context.Context) ([]domain.System, error) {
	systems, err := s.store.Systems(ctx)
	if err != nil {
		return nil, fmt.Errorf("get systems: %w", err)
	}
	return systems, nil
}

func (s *OracleService) pool(ctx context.Context) (domain.Pool, error) {
	systems, err := s.store.Systems(ctx)
	if err != nil {
		return nil, fmt.Errorf("get systems: %w", err)
	}
	if err := domain.ValidateSystems(systems); err != nil {
		return nil, fmt.Errorf("build pool: %w", err)
	}
	return domain.BuildPool(systems), nil
}
