package reporting

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/helios-erp/helios-erp/internal/platform/httpx"
)

// Handler serves the report suite.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/profit-and-loss", h.profitAndLoss)
		r.Get("/balance-sheet", h.balanceSheet)
		r.Get("/cash-flow", h.cashFlow)
		r.Get("/ar-aging", h.arAging)
		r.Get("/trial-balance", h.trialBalance)
		r.Get("/vat-return", h.vatReturn)
	})
}

func queryDate(r *http.Request, name string) time.Time {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t
	}
	return time.Time{}
}

func (h *Handler) profitAndLoss(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.ProfitAndLoss(r.Context(), queryDate(r, "from"), queryDate(r, "to"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.BalanceSheet(r.Context(), queryDate(r, "as_of"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) cashFlow(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.CashFlow(r.Context(), queryDate(r, "from"), queryDate(r, "to"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) arAging(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.ARAging(r.Context(), queryDate(r, "as_of"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.TrialBalance(r.Context(), queryDate(r, "as_of"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) vatReturn(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.VATReturn(r.Context(), queryDate(r, "from"), queryDate(r, "to"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	h.logger.Error("reporting request failed", slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal error", "")
}
