package dashboard

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stockdesk/stockdesk/internal/platform/httpx"
	"github.com/stockdesk/stockdesk/internal/reports"
)

// Handler serves the dashboard overview.
type Handler struct {
	logger  *slog.Logger
	service *Service
	money   reports.Money
	clock   func() time.Time
}

// NewHandler builds the dashboard handler.
func NewHandler(logger *slog.Logger, service *Service, money reports.Money) *Handler {
	return &Handler{logger: logger, service: service, money: money, clock: time.Now}
}

// MountRoutes registers dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dashboard", h.overview)
	r.Get("/dashboard/critical", h.critical)
}

type overviewResponse struct {
	Stats   Stats  `json:"stats"`
	Cards   []Card `json:"cards"`
	Stale   bool   `json:"stale"`
	Warning string `json:"warning,omitempty"`
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Refresh(r.Context(), h.clock())
	if err != nil {
		previous, ok := h.service.Latest()
		if !ok {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, overviewResponse{
			Stats:   previous,
			Cards:   Cards(previous, h.money),
			Stale:   true,
			Warning: "dashboard refresh failed, showing last known figures",
		})
		return
	}
	httpx.JSON(w, http.StatusOK, overviewResponse{Stats: stats, Cards: Cards(stats, h.money)})
}

func (h *Handler) critical(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Critical(r.Context())
	if err != nil {
		h.logger.Warn("critical stock fetch failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"count":    len(rows),
		"products": rows,
	})
}
