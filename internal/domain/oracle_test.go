package domain_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/clkhoo5211/aphorism/internal/domain"
)

func lots(n int) []domain.Lot {
	out := make([]domain.Lot, n)
	for i := range n {
		out[i] = domain.Lot{ID: i, Fortune: "上签", Poem: []string{"line"}}
	}
	return out
}

func lotKeys(pool domain.Pool) []string {
	out := make([]string, len(pool))
	for i, l := range pool {
		out[i] = l.SystemID + "/" + string(rune('0'+l.ID))
	}
	return out
}

func TestBuildPool_Composition(t *testing.T) {
	systems := []domain.System{
		{ID: "A", Name: "Alpha", Lots: []domain.Lot{{ID: 1}, {ID: 2}}},
		{ID: "B", Name: "Beta", Lots: []domain.Lot{{ID: 1}}},
	}

	for range 3 {
		pool := domain.BuildPool(systems)
		if diff := cmp.Diff([]string{"A/1", "A/2", "B/1"}, lotKeys(pool)); diff != "" {
			t.Fatalf("pool order (-want +got):\n%s", diff)
		}
		if pool[2].SystemName != "Beta" {
			t.Errorf("system name not stamped: %q", pool[2].SystemName)
		}
	}

	if systems[0].Lots[0].SystemID != "" {
		t.Error("BuildPool mutated source lots")
	}
}

func TestDrawRandom_Index(t *testing.T) {
	pool := domain.BuildPool([]domain.System{{ID: "s", Lots: lots(5)}})

	cases := []struct {
		sample float64
		want   int
	}{
		{0, 0},
		{0.19, 0},
		{0.2, 1},
		{0.5, 2},
		{0.999999, 4},
	}
	for _, tc := range cases {
		got := domain.DrawRandom(pool, &sequenceRNG{values: []float64{tc.sample}})
		if got.ID != tc.want {
			t.Errorf("sample %v: got lot %d, want %d", tc.sample, got.ID, tc.want)
		}
	}
}

func TestDrawForSeed_Deterministic(t *testing.T) {
	pool := domain.BuildPool([]domain.System{
		{ID: "a", Lots: lots(7)},
		{ID: "b", Lots: lots(4)},
	})
	rng := seeded(5)

	for _, q := range []string{"Will I find love?", "ab", "工作运势如何", "🙂 luck"} {
		first := domain.DrawForSeed(pool, q, rng)
		second := domain.DrawForSeed(pool, q, rng)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("question %q drew different lots (-first +second):\n%s", q, diff)
		}
	}
}

func TestDrawForSeed_KnownIndex(t *testing.T) {
	pool := domain.BuildPool([]domain.System{{ID: "s", Lots: lots(5)}})
	rng := &sequenceRNG{values: []float64{0.9}}

	// 'a'+'b' = 195; 195 mod 5 = 0.
	if got := domain.DrawForSeed(pool, "ab", rng); got.ID != 0 {
		t.Errorf("ab: got lot %d, want 0", got.ID)
	}
	// 'a'+'c' = 196; 196 mod 5 = 1.
	if got := domain.DrawForSeed(pool, "ac", rng); got.ID != 1 {
		t.Errorf("ac: got lot %d, want 1", got.ID)
	}
	// Surrounding whitespace is part of the seed: 32+97+98 = 227; 227 mod 5 = 2.
	if got := domain.DrawForSeed(pool, " ab", rng); got.ID != 2 {
		t.Errorf("' ab': got lot %d, want 2", got.ID)
	}
}

func TestDrawForSeed_BlankFallsBackToRandom(t *testing.T) {
	pool := domain.BuildPool([]domain.System{{ID: "s", Lots: lots(5)}})

	for _, q := range []string{"", "   ", "\t\n"} {
		rng := &sequenceRNG{values: []float64{0.95}}
		if got := domain.DrawForSeed(pool, q, rng); got.ID != 4 {
			t.Errorf("%q: got lot %d, want random pick 4", q, got.ID)
		}
		if rng.idx != 1 {
			t.Errorf("%q: expected one random sample, got %d", q, rng.idx)
		}
	}
}

func TestTextSeed(t *testing.T) {
	cases := []struct {
		text string
		want uint64
	}{
		{"", 0},
		{"ab", 195},
		{"ba", 195},
		{"签", 0x7B7E},
		// U+1F600 contributes its leading surrogate 0xD83D.
		{"😀", 0xD83D},
	}
	for _, tc := range cases {
		if got := domain.TextSeed(tc.text); got != tc.want {
			t.Errorf("TextSeed(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestOracle_EmptyPoolPanics(t *testing.T) {
	draws := map[string]func(){
		"random": func() { domain.DrawRandom(nil, seeded(1)) },
		"seed":   func() { domain.DrawForSeed(domain.Pool{}, "question", seeded(1)) },
		"blank":  func() { domain.DrawForSeed(nil, " ", seeded(1)) },
	}
	for name, draw := range draws {
		t.Run(name, func(t *testing.T) {
			defer func() {
				err, ok := recover().(error)
				if !ok || !errors.Is(err, domain.ErrEmptyPool) {
					t.Fatalf("expected ErrEmptyPool panic, got %v", err)
				}
			}()
			draw()
		})
	}
}

func TestValidateSystems(t *testing.T) {
	if err := domain.ValidateSystems(nil); !errors.Is(err, domain.ErrEmptyPool) {
		t.Errorf("nil systems: expected ErrEmptyPool, got %v", err)
	}
	if err := domain.ValidateSystems([]domain.System{{ID: "empty"}}); !errors.Is(err, domain.ErrEmptyPool) {
		t.Errorf("lotless system: expected ErrEmptyPool, got %v", err)
	}
	ok := []domain.System{{ID: "empty"}, {ID: "full", Lots: lots(1)}}
	if err := domain.ValidateSystems(ok); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPoolStats(t *testing.T) {
	systems := []domain.System{
		{ID: "guanyin", Name: "观音灵签", NameEn: "Guan Yin Oracle", Lots: lots(3)},
		{ID: "mazu", Name: "妈祖灵签", NameEn: "Mazu Oracle", Lots: lots(2)},
	}

	want := domain.Stats{
		TotalLots: 5,
		Systems: []domain.SystemCount{
			{ID: "guanyin", Name: "观音灵签", NameEn: "Guan Yin Oracle", Lots: 3},
			{ID: "mazu", Name: "妈祖灵签", NameEn: "Mazu Oracle", Lots: 2},
		},
	}
	if diff := cmp.Diff(want, domain.PoolStats(systems)); diff != "" {
		t.Errorf("stats (-want +got):\n%s", diff)
	}
}
