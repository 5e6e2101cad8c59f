package domain

import (
	"fmt"
	"time"
)

// DailyCard picks the card of the day from major. The same calendar date always
// yields the same card and orientation. The seed text is "year-month-day" with a
// zero-based month; changing it changes every published daily card.
// It panics with ErrEmptyCatalog when major is empty.
func DailyCard(major []Card, date time.Time) DrawnCard {
	if len(major) == 0 {
		panic(ErrEmptyCatalog)
	}
	seed := TextSeed(fmt.Sprintf("%d-%d-%d", date.Year(), int(date.Month())-1, date.Day()))
	return DrawnCard{
		Card:     major[seed%uint64(len(major))],
		Reversed: seed%2 == 0,
	}
}
