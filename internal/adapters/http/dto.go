package http

import (
	"github.com/clkhoo5211/aphorism/internal/app"
	"github.com/clkhoo5211/aphorism/internal/domain"
)

// TarotResponse is the JSON shape returned by GET /v1/tarot.
type TarotResponse struct {
	Spread         SpreadRef           `json:"spread"`
	Style          domain.DeckStyle    `json:"style"`
	Cards          []CardResponse      `json:"cards"`
	SessionID      string              `json:"session_id,omitempty"`
	Remaining      int                 `json:"remaining"`
	Interpretation *InterpretationResp `json:"interpretation,omitempty"`
	Meta           MetaResp            `json:"meta"`
}

type SpreadRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CardResponse struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Theme       string                 `json:"theme"`
	Description string                 `json:"description"`
	Arcana      domain.Arcana          `json:"arcana"`
	Position    int                    `json:"position,omitempty"`
	Slot        *domain.SpreadPosition `json:"slot,omitempty"`
	Orientation domain.Orientation     `json:"orientation"`
	Meaning     string                 `json:"meaning"`
	ImageURL    string                 `json:"image_url"`
}

type InterpretationResp struct {
	Style      string `json:"style"`
	Text       string `json:"text"`
	HTML       string `json:"html"`
	Disclaimer string `json:"disclaimer"`
}

type MetaResp struct {
	Model     string `json:"model,omitempty"`
	RequestID string `json:"request_id"`
	LatencyMS int64  `json:"latency_ms,omitempty"`
}

// SessionResponse is returned when a session starts.
type SessionResponse struct {
	SessionID string `json:"session_id"`
	Remaining int    `json:"remaining"`
}

// DrawResponse is returned by POST /v1/tarot/sessions/:id/draw.
type DrawResponse struct {
	SessionID string         `json:"session_id"`
	Cards     []CardResponse `json:"cards"`
	Remaining int            `json:"remaining"`
}

type DailyResponse struct {
	Date  string           `json:"date"`
	Style domain.DeckStyle `json:"style"`
	Card  CardResponse     `json:"card"`
}

// OracleResponse is the JSON shape returned by GET /v1/oracle.
type OracleResponse struct {
	Lot          domain.Lot `json:"lot"`
	Personalized bool       `json:"personalized"`
	PoolSize     int        `json:"pool_size"`
	Meta         MetaResp   `json:"meta"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func toCard(dc domain.DrawnCard, style domain.DeckStyle) CardResponse {
	d := dc.Display(style)
	return CardResponse{
		ID:          dc.ID,
		Name:        d.Name,
		Theme:       d.Theme,
		Description: d.Description,
		Arcana:      dc.Arcana,
		Orientation: dc.Orientation(),
		Meaning:     dc.Meaning(),
		ImageURL:    d.ImageURL,
	}
}

func toCards(cards []domain.DrawnCard, style domain.DeckStyle) []CardResponse {
	out := make([]CardResponse, len(cards))
	for i, dc := range cards {
		out[i] = toCard(dc, style)
	}
	return out
}

func toTarotResponse(r app.ReadSpreadResponse, requestID string) TarotResponse {
	cards := make([]CardResponse, len(r.Cards))
	for i, pc := range r.Cards {
		slot := pc.Slot
		cards[i] = toCard(pc.DrawnCard, r.Style)
		cards[i].Position = pc.Position
		cards[i].Slot = &slot
	}

	resp := TarotResponse{
		Spread:    SpreadRef{ID: r.Spread.ID, Name: r.Spread.Name},
		Style:     r.Style,
		Cards:     cards,
		SessionID: r.SessionID,
		Remaining: r.Remaining,
		Meta: MetaResp{
			Model:     r.Model,
			RequestID: requestID,
			LatencyMS: r.LatencyMS,
		},
	}
	if r.Interpretation != nil {
		resp.Interpretation = &InterpretationResp{
			Style:      r.Interpretation.Style,
			Text:       r.Interpretation.Text,
			HTML:       renderMarkdown(r.Interpretation.Text),
			Disclaimer: r.Interpretation.Disclaimer,
		}
	}
	return resp
}
