package domain

import (
	"path"
	"strings"
)

// DeckStyle identifies an artwork and naming variant of the catalog.
type DeckStyle string

const (
	StyleRiderWaite DeckStyle = "riderWaite"
	StyleHero       DeckStyle = "hero"
	StyleLotus      DeckStyle = "lotus"
	StyleMythic     DeckStyle = "mythic"
)

// DefaultStyle is used when no style is requested.
const DefaultStyle = StyleRiderWaite

const cardImageRoot = "/aphorism/assets/tarot-cards"

// styleDirs maps each style to its image directory.
var styleDirs = map[DeckStyle]string{
	StyleRiderWaite: "rider-waite",
	StyleHero:       "hero",
	StyleLotus:      "lotus",
	StyleMythic:     "mythic",
}

// ParseDeckStyle validates s against the known styles. Empty input yields DefaultStyle.
func ParseDeckStyle(s string) (DeckStyle, error) {
	if s == "" {
		return DefaultStyle, nil
	}
	st := DeckStyle(s)
	if _, ok := styleDirs[st]; !ok {
		return "", ErrUnknownStyle
	}
	return st, nil
}

// ImageDir returns the asset directory for the style, falling back to rider-waite.
func (s DeckStyle) ImageDir() string {
	if dir, ok := styleDirs[s]; ok {
		return dir
	}
	return styleDirs[StyleRiderWaite]
}

// StyleInfo describes a deck style for listing.
type StyleInfo struct {
	ID          DeckStyle `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CardBackURL string    `json:"card_back_url"`
}

// Variant is the per-style presentation of a card.
type Variant struct {
	Name        string `json:"name"`
	Theme       string `json:"theme"`
	Description string `json:"description"`
}

// Display is a card resolved for a particular style.
type Display struct {
	Name            string
	Theme           string
	Description     string
	MeaningUpright  string
	MeaningReversed string
	ImageURL        string
}

// Variant returns the card's variant for style. Missing variants fall back to
// the Rider-Waite variant, then to a traditional default built from the card name.
func (c Card) Variant(style DeckStyle) Variant {
	if v, ok := c.Variants[style]; ok {
		return v
	}
	if v, ok := c.Variants[StyleRiderWaite]; ok {
		return v
	}
	return Variant{
		Name:        c.Name,
		Theme:       "Traditional",
		Description: "Traditional interpretation of " + c.Name + ".",
	}
}

// Display resolves the card's name, theme and artwork for style.
func (c Card) Display(style DeckStyle) Display {
	v := c.Variant(style)
	return Display{
		Name:            v.Name,
		Theme:           v.Theme,
		Description:     v.Description,
		MeaningUpright:  c.MeaningUpright,
		MeaningReversed: c.MeaningReversed,
		ImageURL:        c.StyleImageURL(style),
	}
}

// StyleImageURL returns the locally served image for the style. Cards whose
// source image is not a .jpg keep their original URL.
func (c Card) StyleImageURL(style DeckStyle) string {
	filename := path.Base(c.ImageURL)
	if !strings.HasSuffix(filename, ".jpg") {
		return c.ImageURL
	}
	return cardImageRoot + "/" + style.ImageDir() + "/" + filename
}
