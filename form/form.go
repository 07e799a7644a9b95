/*
form.go - Transaction entry form lifecycle

PURPOSE:
  Holds everything the user types while composing a transaction: merchant,
  memo, optional usage timestamp, optional platform, and the allocation
  state. Orchestrates the full lifecycle:
  1. Edits: Field mutations, allocation transitions (rejected edits leave
     state untouched)
  2. Validation: Ordered rules, first failure wins
  3. Submit: At most one in-flight submission; edits are refused while the
     remote call is outstanding
  4. Outcome: Success resets every field to pristine; failure keeps the
     state so the user can correct and resubmit

VALIDATION ORDER:
  merchant non-empty -> merchant length -> selection non-empty ->
  total positive -> conservation. Matches what the user sees inline.

CONCURRENCY:
  Edits and submits arrive from one UI event loop, but the remote call runs
  while the loop keeps dispatching. A mutex plus an in-flight flag serialize
  the two worlds. There is no cancellation or timeout here; the submitter's
  transport owns that.

SEE ALSO:
  - allocation: The split engine this form drives
  - client: The default Submitter implementation
*/
package form

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/paydesk/txn-entry/allocation"
	"github.com/paydesk/txn-entry/client"
)

// MaxMerchantLength is the longest accepted merchant name, in characters.
const MaxMerchantLength = 120

var (
	// ErrSubmitInFlight is returned by every mutation and by Submit itself
	// while a submission is outstanding.
	ErrSubmitInFlight = errors.New("a submission is already in flight")

	// ErrMerchantRequired is returned when the merchant field is empty.
	ErrMerchantRequired = errors.New("merchant is required")

	// ErrMerchantTooLong is returned when the merchant name exceeds 120 characters.
	ErrMerchantTooLong = errors.New("merchant must be at most 120 characters")
)

// Submitter performs the remote transaction creation. *client.Client
// satisfies this; tests substitute fakes.
type Submitter interface {
	CreateTransaction(ctx context.Context, payload client.TransactionPayload) (*client.TransactionRecord, error)
}

// Form is the mutable entry state. Create with New; zero value is not usable.
type Form struct {
	mu sync.Mutex

	merchant string
	memo     string
	usedAt   *time.Time
	platform allocation.PlatformCode
	alloc    allocation.State

	inFlight bool
}

// New returns a pristine form.
func New() *Form {
	return &Form{alloc: allocation.NewState()}
}

// =============================================================================
// FIELD MUTATIONS
// =============================================================================

// SetMerchant records the merchant name. Length is enforced at validation
// time so partial typing is never rejected.
func (f *Form) SetMerchant(name string) error {
	return f.edit(func() error {
		f.merchant = name
		return nil
	})
}

// SetMemo records the free-text memo.
func (f *Form) SetMemo(memo string) error {
	return f.edit(func() error {
		f.memo = memo
		return nil
	})
}

// SetUsedAt records when the transaction happened. Nil clears it.
func (f *Form) SetUsedAt(at *time.Time) error {
	return f.edit(func() error {
		f.usedAt = at
		return nil
	})
}

// SetPlatform records the optional payment platform. Empty clears it.
func (f *Form) SetPlatform(code allocation.PlatformCode) error {
	return f.edit(func() error {
		f.platform = code
		return nil
	})
}

// SetTotal replaces the total amount.
func (f *Form) SetTotal(total allocation.Amount) error {
	return f.edit(func() error {
		next, err := f.alloc.WithTotal(total)
		if err != nil {
			return err
		}
		f.alloc = next
		return nil
	})
}

// SelectMethod adds a payment method to the split.
func (f *Form) SelectMethod(code allocation.MethodCode) error {
	return f.edit(func() error {
		next, err := f.alloc.Select(code)
		if err != nil {
			return err
		}
		f.alloc = next
		return nil
	})
}

// DeselectMethod removes a payment method from the split.
func (f *Form) DeselectMethod(code allocation.MethodCode) error {
	return f.edit(func() error {
		f.alloc = f.alloc.Deselect(code)
		return nil
	})
}

// SetMethodAmount records raw digit input for one method and lets the
// engine derive the rest. A rejected edit leaves the allocation untouched.
func (f *Form) SetMethodAmount(code allocation.MethodCode, raw string) error {
	return f.edit(func() error {
		next, err := f.alloc.SetAmount(code, raw)
		if err != nil {
			return err
		}
		f.alloc = next
		return nil
	})
}

// edit runs fn under the lock unless a submission is in flight.
func (f *Form) edit(fn func() error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight {
		return ErrSubmitInFlight
	}
	return fn()
}

// =============================================================================
// ACCESSORS
// =============================================================================

func (f *Form) Merchant() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.merchant
}

func (f *Form) Memo() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.memo
}

// Allocation returns a snapshot of the allocation state. State is a value;
// the caller cannot mutate the form through it.
func (f *Form) Allocation() allocation.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alloc
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the whole form, first failing rule wins.
func (f *Form) Validate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateLocked()
}

func (f *Form) validateLocked() error {
	merchant := strings.TrimSpace(f.merchant)
	if merchant == "" {
		return ErrMerchantRequired
	}
	if utf8.RuneCountInString(merchant) > MaxMerchantLength {
		return ErrMerchantTooLong
	}
	return f.alloc.Validate()
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submit validates the form, builds the payload, and hands it to the
// submitter. At most one submission is in flight at a time; edits are
// refused until it completes. Success resets the form; failure leaves
// everything in place and returns the error for display.
func (f *Form) Submit(ctx context.Context, s Submitter) (*client.TransactionRecord, error) {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if err := f.validateLocked(); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	payload, err := f.payloadLocked()
	if err != nil {
		f.mu.Unlock()
		return nil, err
	}
	f.inFlight = true
	f.mu.Unlock()

	record, err := s.CreateTransaction(ctx, payload)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false
	if err != nil {
		return nil, err
	}
	f.resetLocked()
	return record, nil
}

// payloadLocked materializes the wire payload from the current state.
func (f *Form) payloadLocked() (client.TransactionPayload, error) {
	payments, err := f.alloc.BuildPayments()
	if err != nil {
		return client.TransactionPayload{}, err
	}
	payload := client.TransactionPayload{
		Merchant:     strings.TrimSpace(f.merchant),
		Memo:         f.memo,
		Amount:       f.alloc.Total,
		PlatformCode: string(f.platform),
		Payments:     payments,
	}
	if f.usedAt != nil {
		payload.UsedAt = f.usedAt.UTC().Format(time.RFC3339)
	}
	return payload, nil
}

// Reset returns the form to its pristine state. No-op while in flight.
func (f *Form) Reset() error {
	return f.edit(func() error {
		f.resetLocked()
		return nil
	})
}

func (f *Form) resetLocked() {
	f.merchant = ""
	f.memo = ""
	f.usedAt = nil
	f.platform = ""
	f.alloc = allocation.NewState()
}
