/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the storage model from the external API contract.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *DTO: Response types returned to clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - client: The Go client that speaks this contract
*/
package api

import (
	"time"

	"github.com/paydesk/txn-entry/allocation"
	"github.com/paydesk/txn-entry/store"
)

// CreateTransactionRequest is the submit payload.
type CreateTransactionRequest struct {
	Merchant     string            `json:"merchant"`
	Memo         string            `json:"memo"`
	UsedAt       string            `json:"usedAt,omitempty"`
	Amount       allocation.Amount `json:"amount"`
	PlatformCode string            `json:"platformCode,omitempty"`
	Payments     []PaymentDTO      `json:"payments"`
}

// PaymentDTO is one method's share of a transaction.
type PaymentDTO struct {
	Method         string            `json:"method"`
	Amount         allocation.Amount `json:"amount"`
	SequenceNumber int               `json:"sequenceNumber"`
}

// TransactionDTO represents a created transaction in API responses.
type TransactionDTO struct {
	ID           string       `json:"id"`
	CreatedAt    string       `json:"createdAt"`
	Merchant     string       `json:"merchant"`
	Memo         string       `json:"memo,omitempty"`
	UsedAt       string       `json:"usedAt,omitempty"`
	Amount       int64        `json:"amount"`
	PlatformCode string       `json:"platformCode,omitempty"`
	Payments     []PaymentDTO `json:"payments"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toTransactionDTO(txn store.Transaction) TransactionDTO {
	dto := TransactionDTO{
		ID:           txn.ID,
		CreatedAt:    txn.CreatedAt.UTC().Format(time.RFC3339),
		Merchant:     txn.Merchant,
		Memo:         txn.Memo,
		Amount:       txn.Amount,
		PlatformCode: txn.PlatformCode,
		Payments:     make([]PaymentDTO, len(txn.Payments)),
	}
	if txn.UsedAt != nil {
		dto.UsedAt = txn.UsedAt.UTC().Format(time.RFC3339)
	}
	for i, leg := range txn.Payments {
		dto.Payments[i] = PaymentDTO{
			Method:         leg.Method,
			Amount:         allocation.NewAmount(leg.Amount),
			SequenceNumber: leg.Sequence,
		}
	}
	return dto
}
