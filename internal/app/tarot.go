package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/clkhoo5211/aphorism/internal/domain"
	"github.com/clkhoo5211/aphorism/internal/ports"
)

const (
	DefaultCatalogID      = "rider_waite"
	DefaultSpreadID       = "past-present-future"
	DefaultReshuffleBelow = 10
)

// TarotOptions tunes a TarotService. Zero values fall back to defaults.
// Style is used for requests that name none.
type TarotOptions struct {
	CatalogID      string
	ReshuffleBelow int
	Style          domain.DeckStyle
	Model          string
	Logger         *slog.Logger
	Now            func() time.Time
}

// ReadSpreadRequest is the application-level input (no HTTP types).
type ReadSpreadRequest struct {
	Question  string
	SpreadID  string
	Style     string
	SessionID string
	Lang      string
	Interpret bool
}

// ReadSpreadResponse is the application-level output.
type ReadSpreadResponse struct {
	Spread         domain.Spread
	Style          domain.DeckStyle
	Cards          []domain.PlacedCard
	SessionID      string
	Remaining      int
	Interpretation *ports.InterpretOutput
	Model          string
	LatencyMS      int64
}

// DrawResponse is the result of drawing loose cards from a session.
type DrawResponse struct {
	SessionID string
	Cards     []domain.DrawnCard
	Remaining int
}

// SessionInfo describes a freshly started session.
type SessionInfo struct {
	ID        string
	Remaining int
}

// TarotService orchestrates decks, sessions, spreads and LLM interpretation.
type TarotService struct {
	deckStore   ports.DeckStore
	sessions    ports.SessionStore
	interpreter ports.Interpreter
	rng         domain.RNG
	opts        TarotOptions

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock is dropped from TarotService.locks once no caller holds or waits on it.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewTarotService wires a TarotService. interp may be nil when interpretation
// is not configured.
func NewTarotService(ds ports.DeckStore, ss ports.SessionStore, interp ports.Interpreter, rng domain.RNG, opts TarotOptions) *TarotService {
	if opts.CatalogID == "" {
		opts.CatalogID = DefaultCatalogID
	}
	if opts.ReshuffleBelow <= 0 {
		opts.ReshuffleBelow = DefaultReshuffleBelow
	}
	if opts.Style == "" {
		opts.Style = domain.DefaultStyle
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &TarotService{
		deckStore:   ds,
		sessions:    ss,
		interpreter: interp,
		rng:         rng,
		opts:        opts,
		locks:       make(map[string]*sessionLock),
	}
}

// StartSession creates a session holding a freshly shuffled deck.
func (s *TarotService) StartSession(ctx context.Context) (SessionInfo, error) {
	catalog, err := s.catalog(ctx)
	if err != nil {
		return SessionInfo{}, err
	}

	now := s.opts.Now()
	deck := domain.NewShuffledDeck(catalog.Cards, s.rng)
	sess := ports.Session{
		ID:        newSessionID(now),
		CatalogID: catalog.ID,
		Deck:      ports.ToRefs(deck),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return SessionInfo{}, fmt.Errorf("create session: %w", err)
	}

	s.opts.Logger.DebugContext(ctx, "session started", "session_id", sess.ID, "cards", len(deck))
	return SessionInfo{ID: sess.ID, Remaining: len(deck)}, nil
}

// EndSession discards a session and its deck.
func (s *TarotService) EndSession(ctx context.Context, id string) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DrawCards draws n cards in sequence from the session deck.
func (s *TarotService) DrawCards(ctx context.Context, sessionID string, n int) (DrawResponse, error) {
	if n < 1 || n > domain.MaxDraw {
		return DrawResponse{}, domain.ErrInvalidN
	}

	unlock := s.lock(sessionID)
	defer unlock()

	catalog, err := s.catalog(ctx)
	if err != nil {
		return DrawResponse{}, err
	}
	sess, deck, err := s.loadSession(ctx, sessionID, catalog)
	if err != nil {
		return DrawResponse{}, err
	}

	drawn, rest := domain.DrawN(deck, catalog.Cards, n, s.rng)
	if err := s.saveSession(ctx, sess, rest, n); err != nil {
		return DrawResponse{}, err
	}

	return DrawResponse{SessionID: sessionID, Cards: drawn, Remaining: len(rest)}, nil
}

// ReadSpread lays out a spread. With a session the rolling deck is used and
// reshuffled first when it has grown too thin; without one the reading gets a
// deck of its own.
func (s *TarotService) ReadSpread(ctx context.Context, req ReadSpreadRequest) (ReadSpreadResponse, error) {
	catalog, err := s.catalog(ctx)
	if err != nil {
		return ReadSpreadResponse{}, err
	}

	spread, err := s.spread(ctx, req.SpreadID)
	if err != nil {
		return ReadSpreadResponse{}, err
	}

	style, err := s.ResolveStyle(req.Style)
	if err != nil {
		return ReadSpreadResponse{}, err
	}
	if req.Interpret && s.interpreter == nil {
		return ReadSpreadResponse{}, domain.ErrInterpreterDisabled
	}

	var (
		deck domain.Deck
		sess ports.Session
	)
	if req.SessionID != "" {
		unlock := s.lock(req.SessionID)
		defer unlock()

		sess, deck, err = s.loadSession(ctx, req.SessionID, catalog)
		if err != nil {
			return ReadSpreadResponse{}, err
		}
		if domain.NeedsReshuffle(deck, s.opts.ReshuffleBelow) {
			s.opts.Logger.DebugContext(ctx, "reshuffling thin deck", "session_id", sess.ID, "remaining", len(deck))
			deck = domain.NewShuffledDeck(catalog.Cards, s.rng)
		}
	}

	reading, rest := domain.DrawSpread(deck, catalog.Cards, spread, s.rng)

	resp := ReadSpreadResponse{
		Spread:    spread,
		Style:     style,
		Cards:     reading.Cards,
		SessionID: req.SessionID,
		Remaining: len(rest),
	}

	// A failed interpretation leaves the session deck as it was.
	if req.Interpret {
		llmInput := ports.InterpretInput{
			Style:    string(style),
			Spread:   spread.Name,
			Question: req.Question,
			Lang:     req.Lang,
			Cards:    toCardInputs(reading.Cards, style),
		}

		start := time.Now()
		interpretation, err := s.interpreter.Interpret(ctx, llmInput)
		latency := time.Since(start).Milliseconds()

		if err != nil {
			return ReadSpreadResponse{}, fmt.Errorf("interpret: %w", err)
		}

		resp.Interpretation = &interpretation
		resp.Model = interpretationModel(interpretation.Model, s.opts.Model)
		resp.LatencyMS = latency
	}

	if req.SessionID != "" {
		if err := s.saveSession(ctx, sess, rest, spread.CardCount()); err != nil {
			return ReadSpreadResponse{}, err
		}
	}
	return resp, nil
}

// DailyCard returns the major-arcana card of the day for date.
func (s *TarotService) DailyCard(ctx context.Context, date time.Time) (domain.DrawnCard, error) {
	catalog, err := s.catalog(ctx)
	if err != nil {
		return domain.DrawnCard{}, err
	}
	major := catalog.Major()
	if len(major) == 0 {
		return domain.DrawnCard{}, fmt.Errorf("daily card: %w", domain.ErrEmptyCatalog)
	}
	return domain.DailyCard(major, date), nil
}

// ResolveStyle parses a requested style, substituting the configured default
// for an empty one.
func (s *TarotService) ResolveStyle(raw string) (domain.DeckStyle, error) {
	if raw == "" {
		return s.opts.Style, nil
	}
	return domain.ParseDeckStyle(raw)
}

func (s *TarotService) Spreads(ctx context.Context) ([]domain.Spread, error) {
	return s.deckStore.Spreads(ctx)
}

func (s *TarotService) Styles(ctx context.Context) ([]domain.StyleInfo, error) {
	return s.deckStore.Styles(ctx)
}

func (s *TarotService) catalog(ctx context.Context) (domain.Catalog, error) {
	catalog, err := s.deckStore.GetCatalog(ctx, s.opts.CatalogID)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("get catalog: %w", err)
	}
	if err := catalog.Validate(); err != nil {
		return domain.Catalog{}, fmt.Errorf("get catalog: %w", err)
	}
	return catalog, nil
}

func (s *TarotService) spread(ctx context.Context, id string) (domain.Spread, error) {
	if id == "" {
		id = DefaultSpreadID
	}
	spreads, err := s.deckStore.Spreads(ctx)
	if err != nil {
		return domain.Spread{}, fmt.Errorf("get spreads: %w", err)
	}
	return domain.FindSpread(spreads, id)
}

func (s *TarotService) loadSession(ctx context.Context, id string, catalog domain.Catalog) (ports.Session, domain.Deck, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return ports.Session{}, nil, fmt.Errorf("get session: %w", err)
	}
	deck, ok := fromRefs(sess.Deck, catalog)
	if !ok {
		// Catalog changed under the session; start it over.
		s.opts.Logger.WarnContext(ctx, "session deck references unknown cards, reshuffling", "session_id", id)
		deck = domain.NewShuffledDeck(catalog.Cards, s.rng)
	}
	return sess, deck, nil
}

func (s *TarotService) saveSession(ctx context.Context, sess ports.Session, rest domain.Deck, drawn int) error {
	sess.Deck = ports.ToRefs(rest)
	sess.Draws += drawn
	sess.UpdatedAt = s.opts.Now()
	if err := s.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// lock serialises draws within one session.
func (s *TarotService) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

func fromRefs(refs []ports.CardRef, catalog domain.Catalog) (domain.Deck, bool) {
	byID := make(map[string]domain.Card, len(catalog.Cards))
	for _, c := range catalog.Cards {
		byID[c.ID] = c
	}
	deck := make(domain.Deck, 0, len(refs))
	for _, r := range refs {
		c, ok := byID[r.ID]
		if !ok {
			return nil, false
		}
		deck = append(deck, domain.DrawnCard{Card: c, Reversed: r.Reversed})
	}
	return deck, true
}

func newSessionID(now time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

// IsNotFound reports whether err means a requested resource does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrSessionNotFound) ||
		errors.Is(err, domain.ErrDeckNotFound) ||
		errors.Is(err, domain.ErrSpreadNotFound)
}

func interpretationModel(fromLLM, fallback string) string {
	if fromLLM != "" {
		return fromLLM
	}
	return fallback
}

func toCardInputs(cards []domain.PlacedCard, style domain.DeckStyle) []ports.CardInput {
	out := make([]ports.CardInput, len(cards))
	for i, c := range cards {
		out[i] = ports.CardInput{
			Name:        c.Variant(style).Name,
			Position:    c.Position,
			Slot:        c.Slot.Name,
			Orientation: string(c.Orientation()),
			Meaning:     c.Meaning(),
		}
	}
	return out
}
