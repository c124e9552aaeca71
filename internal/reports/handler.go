package reports

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stockdesk/stockdesk/internal/platform/httpx"
)

// Handler exposes report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	money   Money
	clock   func() time.Time
}

// NewHandler builds the report handler.
func NewHandler(logger *slog.Logger, service *Service, money Money) *Handler {
	return &Handler{logger: logger, service: service, money: money, clock: time.Now}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/day", h.day)
		r.Get("/period", h.period)
		r.Get("/summary", h.summary)
	})
}

type reportResponse struct {
	Report  Report  `json:"report"`
	Display Display `json:"display"`
}

func (h *Handler) day(w http.ResponseWriter, r *http.Request) {
	date, err := h.dateParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.Day(r.Context(), date)
	h.respond(w, report, err)
}

func (h *Handler) period(w http.ResponseWriter, r *http.Request) {
	start, end, err := ValidatePeriod(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.Period(r.Context(), start, end)
	h.respond(w, report, err)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("type")
	if strings.TrimSpace(raw) == "" {
		raw = string(SummaryDay)
	}
	t, err := ParseSummaryType(raw)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	date, err := h.dateParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.Summary(r.Context(), t, date)
	h.respond(w, report, err)
}

func (h *Handler) dateParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if strings.TrimSpace(raw) == "" {
		return h.clock(), nil
	}
	return ParseDate("date", raw)
}

func (h *Handler) respond(w http.ResponseWriter, report Report, err error) {
	if err != nil {
		h.logger.Warn("report fetch failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, reportResponse{Report: report, Display: Describe(report, h.money)})
}
