package ports

import "context"

// InterpretInput describes a laid-out spread for a written reading.
// Lang is a BCP 47 code; empty means English.
type InterpretInput struct {
	Style    string
	Spread   string
	Question string
	Lang     string
	Cards    []CardInput
}

// CardInput is one placed card as the reader sees it.
type CardInput struct {
	Name        string
	Position    int
	Slot        string
	Orientation string
	Meaning     string
}

// InterpretOutput is a reading. Text may contain Markdown.
type InterpretOutput struct {
	Text       string `json:"text"`
	Style      string `json:"style"`
	Disclaimer string `json:"disclaimer"`
	// Model that produced the reading, set by the interpreter.
	Model string `json:"-"`
}

// Interpreter turns a spread into prose.
type Interpreter interface {
	Interpret(ctx context.Context, in InterpretInput) (InterpretOutput, error)
}
