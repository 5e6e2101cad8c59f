package domain

// DrawSpread lays out one card per spread position using the rolling deck.
// Positions are 1-based. The returned deck is the remainder after the reading.
func DrawSpread(deck Deck, cards []Card, spread Spread, rng RNG) (Reading, Deck) {
	drawn, rest := DrawN(deck, cards, spread.CardCount(), rng)

	placed := make([]PlacedCard, len(drawn))
	for i, c := range drawn {
		placed[i] = PlacedCard{
			DrawnCard: c,
			Position:  i + 1,
			Slot:      spread.Positions[i],
		}
	}

	return Reading{Spread: spread, Cards: placed}, rest
}

// FindSpread returns the spread with the given id.
func FindSpread(spreads []Spread, id string) (Spread, error) {
	for _, s := range spreads {
		if s.ID == id {
			return s, nil
		}
	}
	return Spread{}, ErrSpreadNotFound
}

// NeedsReshuffle reports whether a session deck is too thin to start a new reading.
func NeedsReshuffle(deck Deck, threshold int) bool {
	return len(deck) < threshold
}
