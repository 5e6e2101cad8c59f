package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/clkhoo5211/aphorism/internal/app"
	"github.com/clkhoo5211/aphorism/internal/domain"
)

type mockOracleStore struct {
	systems []domain.System
	err     error
}

func (m *mockOracleStore) Systems(_ context.Context) ([]domain.System, error) {
	return m.systems, m.err
}

func testSystems() []domain.System {
	return []domain.System{
		{ID: "guanyin", Name: "观音灵签", Lots: []domain.Lot{
			{ID: 1, Fortune: "上上签"}, {ID: 2, Fortune: "中签"}, {ID: 3, Fortune: "下签"},
		}},
		{ID: "mazu", Name: "妈祖灵签", Lots: []domain.Lot{
			{ID: 1, Fortune: "上签"}, {ID: 2, Fortune: "中平签"},
		}},
	}
}

func TestConsult_SameQuestionSameLot(t *testing.T) {
	svc := app.NewOracleService(&mockOracleStore{systems: testSystems()}, fixedRNG{val: 0.3})

	// 'a'+'b' = 195; 195 mod 5 = 0.
	first, err := svc.Consult(context.Background(), "ab")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Consult(context.Background(), "ab")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Lot.SystemID != "guanyin" || first.Lot.ID != 1 {
		t.Errorf("expected guanyin/1, got %s/%d", first.Lot.SystemID, first.Lot.ID)
	}
	if first.Lot.SystemID != second.Lot.SystemID || first.Lot.ID != second.Lot.ID {
		t.Errorf("same question drew different lots")
	}
	if !first.Personalized || first.PoolSize != 5 {
		t.Errorf("unexpected response metadata: %+v", first)
	}
}

func TestConsult_BlankQuestionIsRandom(t *testing.T) {
	// 0.7 * 5 = 3.5 -> index 3 -> mazu/1.
	svc := app.NewOracleService(&mockOracleStore{systems: testSystems()}, fixedRNG{val: 0.7})

	resp, err := svc.Consult(context.Background(), "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Personalized {
		t.Error("blank question should not be personalized")
	}
	if resp.Lot.SystemID != "mazu" || resp.Lot.ID != 1 {
		t.Errorf("expected mazu/1, got %s/%d", resp.Lot.SystemID, resp.Lot.ID)
	}
}

func TestConsult_QuestionTooLong(t *testing.T) {
	svc := app.NewOracleService(&mockOracleStore{systems: testSystems()}, fixedRNG{})

	if _, err := svc.Consult(context.Background(), strings.Repeat("问", 500)); err != nil {
		t.Errorf("500 characters should be accepted: %v", err)
	}
	_, err := svc.Consult(context.Background(), strings.Repeat("a", 501))
	if !errors.Is(err, domain.ErrQuestionTooLong) {
		t.Errorf("expected ErrQuestionTooLong, got %v", err)
	}
}

func TestConsult_EmptyPool(t *testing.T) {
	svc := app.NewOracleService(&mockOracleStore{systems: []domain.System{{ID: "empty"}}}, fixedRNG{})

	_, err := svc.Consult(context.Background(), "anything")
	if !errors.Is(err, domain.ErrEmptyPool) {
		t.Fatalf("expected ErrEmptyPool, got %v", err)
	}
}

func TestOracleStats(t *testing.T) {
	svc := app.NewOracleService(&mockOracleStore{systems: testSystems()}, fixedRNG{})

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalLots != 5 || len(stats.Systems) != 2 || stats.Systems[1].Lots != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
