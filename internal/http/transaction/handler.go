package transaction

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nmoreau/penny/internal/currency"
	"github.com/nmoreau/penny/internal/transaction"
)

type Handler struct {
	svc *transaction.Service
}

func NewHandler(svc *transaction.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
}

type createTransactionRequest struct {
	Amount      float64          `json:"amount"` // dollars
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Type        transaction.Type `json:"type"`
	Date        string           `json:"date,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var date time.Time

	if req.Date != "" {
		t, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			t, err = time.Parse(time.DateOnly, req.Date)
		}

		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}

		date = t
	}

	tx, err := h.svc.Insert(r.Context(), transaction.CreateParams{
		Amount:      currency.FromFloat(req.Amount),
		Description: req.Description,
		Category:    req.Category,
		Type:        req.Type,
		Date:        date,
	})
	if err != nil {
		if errors.Is(err, transaction.ErrValidation) || errors.Is(err, currency.ErrInvalidAmount) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(tx)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	spec := transaction.QuerySpec{
		SortBy:    "date",
		SortOrder: transaction.SortDesc,
	}

	if s := r.URL.Query().Get("category"); s != "" {
		spec.Filters.Category = s
	}

	if s := r.URL.Query().Get("type"); s != "" {
		t := transaction.Type(s)
		if !t.Valid() {
			http.Error(w, "invalid type", http.StatusBadRequest)
			return
		}

		spec.Filters.Type = t
	}

	if s := r.URL.Query().Get("range"); s != "" {
		if s != string(transaction.DateRangeThisMonth) {
			http.Error(w, "invalid range", http.StatusBadRequest)
			return
		}

		spec.Filters.DateRange = transaction.DateRangeThisMonth
	}

	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}

		spec.Limit = n
	}

	txs, err := h.svc.Query(r.Context(), spec)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(txs)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
