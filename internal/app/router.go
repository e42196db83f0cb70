package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/helios-erp/helios-erp/internal/invoicing"
	"github.com/helios-erp/helios-erp/internal/ledger"
	"github.com/helios-erp/helios-erp/internal/payments"
	"github.com/helios-erp/helios-erp/internal/payroll"
	"github.com/helios-erp/helios-erp/internal/platform/httpx"
	"github.com/helios-erp/helios-erp/internal/purchasing"
	"github.com/helios-erp/helios-erp/internal/reporting"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	LedgerHandler     *ledger.Handler
	InvoicingHandler  *invoicing.Handler
	PaymentsHandler   *payments.Handler
	PayrollHandler    *payroll.Handler
	PurchasingHandler *purchasing.Handler
	ReportingHandler  *reporting.Handler
}

// NewRouter constructs the chi.Router with Helios defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(params.Logger))
	r.Use(chimw.Recoverer)
	if params.Config != nil {
		r.Use(chimw.Timeout(params.Config.AppRequestTimeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		params.LedgerHandler.MountRoutes(r)
		params.InvoicingHandler.MountRoutes(r)
		params.PaymentsHandler.MountRoutes(r)
		params.PayrollHandler.MountRoutes(r)
		params.PurchasingHandler.MountRoutes(r)
		params.ReportingHandler.MountRoutes(r)
	})

	return r
}
