package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/helios-erp/helios-erp/internal/platform/httpx"
)

// Handler manages chart of accounts and journal endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Post("/", h.createAccount)
		r.Get("/", h.listAccounts)
		r.Get("/{idOrCode}", h.getAccount)
		r.Post("/{id}/deactivate", h.deactivateAccount)
		r.Post("/{id}/recompute", h.recomputeBalance)
	})
	r.Route("/journal-entries", func(r chi.Router) {
		r.Post("/", h.postEntry)
		r.Post("/draft", h.createDraft)
		r.Get("/", h.listEntries)
		r.Get("/{id}", h.getEntry)
		r.Post("/{id}/post", h.postDraft)
		r.Post("/{id}/reverse", h.reverseEntry)
	})
}

type createAccountRequest struct {
	Code    string `json:"code" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Type    string `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	Subtype string `json:"subtype"`
}

type lineRequest struct {
	AccountID   int64           `json:"account_id"`
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Memo        string          `json:"memo"`
}

type postingRequest struct {
	Date         time.Time     `json:"date"`
	Reference    string        `json:"reference"`
	Memo         string        `json:"memo"`
	SourceModule string        `json:"source_module" validate:"required"`
	CreatedBy    string        `json:"created_by"`
	Lines        []lineRequest `json:"lines" validate:"required,min=2"`
}

func (req postingRequest) toInput() PostingInput {
	input := PostingInput{
		Date:         req.Date,
		Reference:    req.Reference,
		Memo:         req.Memo,
		SourceModule: req.SourceModule,
		SourceID:     uuid.New(),
		CreatedBy:    req.CreatedBy,
	}
	for _, l := range req.Lines {
		input.Lines = append(input.Lines, LineInput{
			AccountID:   l.AccountID,
			AccountCode: l.AccountCode,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Memo:        l.Memo,
		})
	}
	return input
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}
	account, err := h.service.CreateAccount(r.Context(), CreateAccountInput{
		Code:    req.Code,
		Name:    req.Name,
		Type:    AccountType(req.Type),
		Subtype: req.Subtype,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, account)
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, accounts)
}

func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.GetAccount(r.Context(), chi.URLParam(r, "idOrCode"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) deactivateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid account ID", "")
		return
	}
	if err := h.service.DeactivateAccount(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) recomputeBalance(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid account ID", "")
		return
	}
	balance, err := h.service.Recompute(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"account_id": id, "balance": balance})
}

func (h *Handler) decodePosting(w http.ResponseWriter, r *http.Request) (PostingInput, bool) {
	var req postingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", err.Error())
		return PostingInput{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return PostingInput{}, false
	}
	return req.toInput(), true
}

func (h *Handler) postEntry(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodePosting(w, r)
	if !ok {
		return
	}
	entry, err := h.service.PostDirect(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) createDraft(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodePosting(w, r)
	if !ok {
		return
	}
	entry, err := h.service.CreateDraft(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) postDraft(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid entry ID", "")
		return
	}
	entry, err := h.service.Post(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

type reverseRequest struct {
	Actor string `json:"actor"`
}

func (h *Handler) reverseEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid entry ID", "")
		return
	}
	// Body is optional; an absent actor is recorded as empty.
	var req reverseRequest
	_ = httpx.DecodeJSON(r, &req)
	entry, err := h.service.Reverse(r.Context(), id, req.Actor)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) getEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid entry ID", "")
		return
	}
	entry, err := h.service.GetJournalEntry(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	filter := JournalFilter{
		Status:       JournalStatus(r.URL.Query().Get("status")),
		SourceModule: r.URL.Query().Get("source_module"),
	}
	if v := r.URL.Query().Get("account_id"); v != "" {
		filter.AccountID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := r.URL.Query().Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.From = t
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.To = t
		}
	}
	entries, err := h.service.ListJournalEntries(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrJournalNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, ErrDuplicateCode):
		httpx.Problem(w, http.StatusConflict, "Duplicate code", err.Error())
	case errors.Is(err, ErrUnbalanced), errors.Is(err, ErrTooFewLines):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid posting", err.Error())
	case errors.Is(err, ErrAlreadyPosted), errors.Is(err, ErrAlreadyReversed),
		errors.Is(err, ErrNotPosted), errors.Is(err, ErrAccountHasBalance):
		httpx.Problem(w, http.StatusConflict, "Invalid state", err.Error())
	case errors.Is(err, ErrCodeNotConfigured):
		httpx.Problem(w, http.StatusInternalServerError, "Configuration error", err.Error())
	default:
		h.logger.Error("ledger request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal error", "")
	}
}
