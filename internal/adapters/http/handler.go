package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/clkhoo5211/aphorism/internal/app"
	"github.com/clkhoo5211/aphorism/internal/domain"
)

const dateLayout = "2006-01-02"

type Handler struct {
	tarot  *app.TarotService
	oracle *app.OracleService
	logger *slog.Logger
	now    func() time.Time
}

func NewHandler(tarot *app.TarotService, oracle *app.OracleService, logger *slog.Logger) *Handler {
	return &Handler{tarot: tarot, oracle: oracle, logger: logger, now: time.Now}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)

	e.GET("/v1/styles", h.ListStyles)
	e.GET("/v1/spreads", h.ListSpreads)

	e.GET("/v1/tarot", h.ReadTarot)
	e.GET("/v1/tarot/daily", h.DailyCard)
	e.POST("/v1/tarot/sessions", h.StartSession)
	e.POST("/v1/tarot/sessions/:id/draw", h.DrawCards)
	e.DELETE("/v1/tarot/sessions/:id", h.EndSession)

	e.GET("/v1/oracle", h.Consult)
	e.GET("/v1/oracle/stats", h.OracleStats)
	e.GET("/v1/oracle/systems", h.OracleSystems)
}

func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) ListStyles(c echo.Context) error {
	styles, err := h.tarot.Styles(c.Request().Context())
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, styles)
}

func (h *Handler) ListSpreads(c echo.Context) error {
	spreads, err := h.tarot.Spreads(c.Request().Context())
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, spreads)
}

func (h *Handler) ReadTarot(c echo.Context) error {
	q := c.QueryParam("q")
	if utf8.RuneCountInString(q) > app.MaxQuestionLen {
		return h.mapError(c, domain.ErrQuestionTooLong)
	}

	var interpret bool
	if raw := c.QueryParam("interpret"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "interpret must be a boolean")
		}
		interpret = parsed
	}

	req := app.ReadSpreadRequest{
		Question:  q,
		SpreadID:  c.QueryParam("spread"),
		Style:     c.QueryParam("style"),
		SessionID: c.QueryParam("session"),
		Lang:      c.QueryParam("lang"),
		Interpret: interpret,
	}

	resp, err := h.tarot.ReadSpread(c.Request().Context(), req)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusOK, toTarotResponse(resp, requestID(c)))
}

func (h *Handler) DailyCard(c echo.Context) error {
	date := h.now()
	if raw := c.QueryParam("date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return badRequest(c, "date must be formatted as YYYY-MM-DD")
		}
		date = parsed
	}

	style, err := h.tarot.ResolveStyle(c.QueryParam("style"))
	if err != nil {
		return h.mapError(c, err)
	}

	card, err := h.tarot.DailyCard(c.Request().Context(), date)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusOK, DailyResponse{
		Date:  date.Format(dateLayout),
		Style: style,
		Card:  toCard(card, style),
	})
}

func (h *Handler) StartSession(c echo.Context) error {
	info, err := h.tarot.StartSession(c.Request().Context())
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusCreated, SessionResponse{SessionID: info.ID, Remaining: info.Remaining})
}

func (h *Handler) DrawCards(c echo.Context) error {
	n := 1
	if raw := c.QueryParam("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return h.mapError(c, domain.ErrInvalidN)
		}
		n = parsed
	}

	style, err := h.tarot.ResolveStyle(c.QueryParam("style"))
	if err != nil {
		return h.mapError(c, err)
	}

	resp, err := h.tarot.DrawCards(c.Request().Context(), c.Param("id"), n)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusOK, DrawResponse{
		SessionID: resp.SessionID,
		Cards:     toCards(resp.Cards, style),
		Remaining: resp.Remaining,
	})
}

func (h *Handler) EndSession(c echo.Context) error {
	if err := h.tarot.EndSession(c.Request().Context(), c.Param("id")); err != nil {
		return h.mapError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Consult(c echo.Context) error {
	resp, err := h.oracle.Consult(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, OracleResponse{
		Lot:          resp.Lot,
		Personalized: resp.Personalized,
		PoolSize:     resp.PoolSize,
		Meta:         MetaResp{RequestID: requestID(c)},
	})
}

func (h *Handler) OracleStats(c echo.Context) error {
	stats, err := h.oracle.Stats(c.Request().Context())
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) OracleSystems(c echo.Context) error {
	systems, err := h.oracle.Systems(c.Request().Context())
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, systems)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, RequestID: requestID(c)})
}

func (h *Handler) mapError(c echo.Context, err error) error {
	id := requestID(c)

	switch {
	case app.IsNotFound(err):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), RequestID: id})
	case errors.Is(err, domain.ErrInvalidN),
		errors.Is(err, domain.ErrQuestionTooLong),
		errors.Is(err, domain.ErrUnknownStyle),
		errors.Is(err, domain.ErrInterpreterDisabled):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), RequestID: id})
	case errors.Is(err, domain.ErrUpstreamLLM), errors.Is(err, domain.ErrInvalidLLMJSON):
		h.logger.ErrorContext(c.Request().Context(), "upstream LLM failure", "request_id", id, "error", err)
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: "upstream LLM failure", RequestID: id})
	default:
		h.logger.ErrorContext(c.Request().Context(), "internal error", "request_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", RequestID: id})
	}
}
