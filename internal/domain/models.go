package domain

// RNG abstracts random number generation for deterministic testing.
type RNG interface {
	// Float64 returns a uniformly distributed value in [0.0, 1.0).
	Float64() float64
}

// pick maps a uniform [0,1) sample onto an index in [0, n).
func pick(rng RNG, n int) int {
	i := int(rng.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// Orientation represents the orientation of a drawn tarot card.
type Orientation string

const (
	Upright  Orientation = "upright"
	Reversed Orientation = "reversed"
)

// Arcana groups cards into the 22 major and 56 minor cards.
type Arcana string

const (
	MajorArcana Arcana = "major"
	MinorArcana Arcana = "minor"
)

// Card represents a single tarot card in a catalog.
type Card struct {
	ID              string                `json:"id"`
	Name            string                `json:"name"`
	Arcana          Arcana                `json:"arcana"`
	MeaningUpright  string                `json:"meaning_upright"`
	MeaningReversed string                `json:"meaning_reversed"`
	ImageURL        string                `json:"image_url"`
	Variants        map[DeckStyle]Variant `json:"variants"`
}

// DrawnCard pairs a card with the orientation it was drawn in.
type DrawnCard struct {
	Card
	Reversed bool `json:"reversed"`
}

func (d DrawnCard) Orientation() Orientation {
	if d.Reversed {
		return Reversed
	}
	return Upright
}

// Meaning returns the meaning matching the drawn orientation.
func (d DrawnCard) Meaning() string {
	if d.Reversed {
		return d.MeaningReversed
	}
	return d.MeaningUpright
}

// Deck is the ordered remainder of cards still to be drawn in one session.
type Deck []DrawnCard

// Catalog is a named, fixed collection of tarot cards.
type Catalog struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Cards []Card `json:"cards"`
}

// Validate reports ErrEmptyCatalog when the catalog has no cards.
func (c Catalog) Validate() error {
	if len(c.Cards) == 0 {
		return ErrEmptyCatalog
	}
	return nil
}

// Major returns the major arcana in catalog order.
func (c Catalog) Major() []Card {
	var out []Card
	for _, card := range c.Cards {
		if card.Arcana == MajorArcana {
			out = append(out, card)
		}
	}
	return out
}

// Lookup returns the card with the given id.
func (c Catalog) Lookup(id string) (Card, bool) {
	for _, card := range c.Cards {
		if card.ID == id {
			return card, true
		}
	}
	return Card{}, false
}

// SpreadPosition is one slot of a spread layout.
type SpreadPosition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Spread is a named layout of positions; it needs one card per position.
type Spread struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Positions   []SpreadPosition `json:"positions"`
}

func (s Spread) CardCount() int { return len(s.Positions) }

// PlacedCard is a drawn card laid on a spread position.
type PlacedCard struct {
	DrawnCard
	Position int            `json:"position"`
	Slot     SpreadPosition `json:"slot"`
}

// Reading is the result of laying out a spread.
type Reading struct {
	Spread Spread
	Cards  []PlacedCard
}
