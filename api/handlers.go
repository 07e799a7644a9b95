/*
handlers.go - HTTP API handlers for transaction entry

PURPOSE:
  Exposes transaction creation and reference data via REST. Handles HTTP
  request/response, JSON serialization, and delegates persistence to the
  store.

ENDPOINTS:
  Transactions:
    POST   /api/txns           Create a transaction
    GET    /api/txns           List transactions (most recent first)
    GET    /api/txns/{id}      Get one transaction

  Reference data:
    GET    /api/methods        Selectable payment methods
    GET    /api/platforms      Known payment platforms

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (same rules the form enforces, re-checked server-side)
  3. Persist
  4. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Transaction not found
  - 500: Store failures

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/paydesk/txn-entry/allocation"
	"github.com/paydesk/txn-entry/store"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store store.Store

	// now is injectable for deterministic createdAt in tests.
	now func() time.Time
}

// NewHandler creates a new handler backed by the given store.
func NewHandler(st store.Store) *Handler {
	return &Handler{Store: st, now: time.Now}
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// CreateTransaction validates and persists a submitted transaction.
// POST /api/txns
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	txn, err := h.buildTransaction(r, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if err := h.Store.SaveTransaction(r.Context(), *txn); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save transaction", err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionDTO(*txn))
}

// buildTransaction re-validates the payload server-side and shapes the
// storage record. The form enforces the same rules client-side; a direct
// API caller gets identical treatment.
func (h *Handler) buildTransaction(r *http.Request, req CreateTransactionRequest) (*store.Transaction, error) {
	merchant := strings.TrimSpace(req.Merchant)
	if merchant == "" {
		return nil, errors.New("merchant is required")
	}
	if utf8.RuneCountInString(merchant) > 120 {
		return nil, errors.New("merchant must be at most 120 characters")
	}
	if !req.Amount.IsPositive() {
		return nil, errors.New("amount must be a positive integer")
	}
	if len(req.Payments) == 0 {
		return nil, errors.New("at least one payment is required")
	}
	if len(req.Payments) > allocation.MaxSelections {
		return nil, fmt.Errorf("at most %d payments are allowed", allocation.MaxSelections)
	}

	known, err := h.knownMethods(r)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(req.Payments))
	paymentSum := allocation.NewAmount(0)
	legs := make([]store.PaymentLeg, len(req.Payments))
	for i, p := range req.Payments {
		if !known[p.Method] {
			return nil, fmt.Errorf("unknown payment method %q", p.Method)
		}
		if seen[p.Method] {
			return nil, fmt.Errorf("duplicate payment method %q", p.Method)
		}
		seen[p.Method] = true
		if p.SequenceNumber != i+1 {
			return nil, errors.New("payment sequence numbers must be 1-based and in order")
		}
		paymentSum = paymentSum.Add(p.Amount)
		legs[i] = store.PaymentLeg{
			Method:   p.Method,
			Amount:   p.Amount.Units(),
			Sequence: p.SequenceNumber,
		}
	}
	if !paymentSum.Equal(req.Amount) {
		return nil, fmt.Errorf("payments sum to %s but amount is %s", paymentSum, req.Amount)
	}

	if req.PlatformCode != "" {
		ok, err := h.knownPlatform(r, req.PlatformCode)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("unknown platform %q", req.PlatformCode)
		}
	}

	txn := &store.Transaction{
		ID:           uuid.NewString(),
		Merchant:     merchant,
		Memo:         req.Memo,
		Amount:       req.Amount.Units(),
		PlatformCode: req.PlatformCode,
		Payments:     legs,
		CreatedAt:    h.now().UTC(),
	}
	if req.UsedAt != "" {
		at, err := time.Parse(time.RFC3339, req.UsedAt)
		if err != nil {
			return nil, errors.New("usedAt must be an RFC3339 timestamp")
		}
		txn.UsedAt = &at
	}
	return txn, nil
}

func (h *Handler) knownMethods(r *http.Request) (map[string]bool, error) {
	methods, err := h.Store.ListPaymentMethods(r.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to load payment methods: %w", err)
	}
	known := make(map[string]bool, len(methods))
	for _, m := range methods {
		known[string(m.Code)] = true
	}
	return known, nil
}

func (h *Handler) knownPlatform(r *http.Request, code string) (bool, error) {
	platforms, err := h.Store.ListPlatforms(r.Context())
	if err != nil {
		return false, fmt.Errorf("failed to load platforms: %w", err)
	}
	for _, p := range platforms {
		if string(p.Code) == code {
			return true, nil
		}
	}
	return false, nil
}

// ListTransactions returns all transactions, most recent first.
// GET /api/txns
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.Store.ListTransactions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list transactions", err)
		return
	}

	dtos := make([]TransactionDTO, len(txns))
	for i, txn := range txns {
		dtos[i] = toTransactionDTO(txn)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetTransaction returns a single transaction.
// GET /api/txns/{id}
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	txn, err := h.Store.GetTransaction(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "transaction not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionDTO(*txn))
}

// =============================================================================
// REFERENCE DATA HANDLERS
// =============================================================================

// ListMethods returns the selectable payment methods.
// GET /api/methods
func (h *Handler) ListMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.Store.ListPaymentMethods(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list payment methods", err)
		return
	}
	writeJSON(w, http.StatusOK, methods)
}

// ListPlatforms returns the known payment platforms.
// GET /api/platforms
func (h *Handler) ListPlatforms(w http.ResponseWriter, r *http.Request) {
	platforms, err := h.Store.ListPlatforms(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list platforms", err)
		return
	}
	writeJSON(w, http.StatusOK, platforms)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message, Message: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
