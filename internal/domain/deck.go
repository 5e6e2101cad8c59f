package domain

// MaxDraw caps how many cards a single request may draw.
const MaxDraw = 10

// Shuffle returns a uniformly random permutation of s. The input is not modified.
func Shuffle[T any](s []T, rng RNG) []T {
	out := make([]T, len(s))
	copy(out, s)
	// Fisher-Yates: swap each position with a uniformly chosen earlier-or-equal one.
	for i := len(out) - 1; i > 0; i-- {
		j := pick(rng, i+1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// NewShuffledDeck permutes cards and assigns every entry an independent orientation.
func NewShuffledDeck(cards []Card, rng RNG) Deck {
	shuffled := Shuffle(cards, rng)
	deck := make(Deck, len(shuffled))
	for i, c := range shuffled {
		deck[i] = DrawnCard{Card: c, Reversed: rng.Float64() > 0.5}
	}
	return deck
}

// Draw takes the first card of deck and returns it with the remainder.
// An empty deck is replaced by a fresh shuffle of cards before drawing, so Draw
// never fails for a non-empty catalog. It panics with ErrEmptyCatalog when both
// deck and cards are empty.
func Draw(deck Deck, cards []Card, rng RNG) (DrawnCard, Deck) {
	if len(deck) == 0 {
		if len(cards) == 0 {
			panic(ErrEmptyCatalog)
		}
		deck = NewShuffledDeck(cards, rng)
	}
	return deck[0], deck[1:]
}

// DrawN performs n sequential draws, threading the remainder through each one.
func DrawN(deck Deck, cards []Card, n int, rng RNG) ([]DrawnCard, Deck) {
	drawn := make([]DrawnCard, 0, n)
	for range n {
		var c DrawnCard
		c, deck = Draw(deck, cards, rng)
		drawn = append(drawn, c)
	}
	return drawn, deck
}
