package domain

import (
	"strings"
	"unicode/utf16"
)

// Lot is a single fortune-telling slip of an oracle system.
// Identity is (SystemID, ID).
type Lot struct {
	ID             int      `json:"id"`
	SystemID       string   `json:"system_id"`
	SystemName     string   `json:"system_name"`
	Fortune        string   `json:"fortune"`
	Poem           []string `json:"poem"`
	Story          string   `json:"story,omitempty"`
	Interpretation string   `json:"interpretation"`
	Advice         string   `json:"advice"`
}

// System is a named oracular tradition with its ordered lots.
type System struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	NameEn      string `json:"name_en"`
	Description string `json:"description"`
	Lots        []Lot  `json:"lots"`
}

// Pool is the flat concatenation of every system's lots.
type Pool []Lot

// ValidateSystems reports ErrEmptyPool unless at least one system has a lot.
func ValidateSystems(systems []System) error {
	for _, s := range systems {
		if len(s.Lots) > 0 {
			return nil
		}
	}
	return ErrEmptyPool
}

// BuildPool concatenates the lots of systems in the given order, preserving each
// system's internal order. Each lot is stamped with the system it came from.
func BuildPool(systems []System) Pool {
	var n int
	for _, s := range systems {
		n += len(s.Lots)
	}
	pool := make(Pool, 0, n)
	for _, s := range systems {
		for _, lot := range s.Lots {
			lot.SystemID = s.ID
			lot.SystemName = s.Name
			pool = append(pool, lot)
		}
	}
	return pool
}

// DrawRandom selects a lot uniformly at random. It panics with ErrEmptyPool
// when pool is empty.
func DrawRandom(pool Pool, rng RNG) Lot {
	if len(pool) == 0 {
		panic(ErrEmptyPool)
	}
	return pool[pick(rng, len(pool))]
}

// DrawForSeed maps text deterministically onto a lot: the same text against the
// same pool always returns the same lot. Blank text falls back to DrawRandom.
// It panics with ErrEmptyPool when pool is empty.
func DrawForSeed(pool Pool, text string, rng RNG) Lot {
	if strings.TrimSpace(text) == "" {
		return DrawRandom(pool, rng)
	}
	if len(pool) == 0 {
		panic(ErrEmptyPool)
	}
	return pool[TextSeed(text)%uint64(len(pool))]
}

// TextSeed sums the UTF-16 character codes of text. Characters outside the
// Basic Multilingual Plane contribute their leading surrogate only.
// The sum is order independent and collides freely; answers published for a
// question depend on it, so it must not change.
func TextSeed(text string) uint64 {
	var seed uint64
	for _, r := range text {
		if r > 0xFFFF {
			r, _ = utf16.EncodeRune(r)
		}
		seed += uint64(r)
	}
	return seed
}

// SystemCount is the number of lots contributed by one system.
type SystemCount struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	NameEn string `json:"name_en"`
	Lots   int    `json:"lots"`
}

// Stats summarises the pool built from systems.
type Stats struct {
	TotalLots int           `json:"total_lots"`
	Systems   []SystemCount `json:"systems"`
}

// PoolStats counts lots overall and per system, in system order.
func PoolStats(systems []System) Stats {
	st := Stats{Systems: make([]SystemCount, 0, len(systems))}
	for _, s := range systems {
		st.TotalLots += len(s.Lots)
		st.Systems = append(st.Systems, SystemCount{
			ID:     s.ID,
			Name:   s.Name,
			NameEn: s.NameEn,
			Lots:   len(s.Lots),
		})
	}
	return st
}
