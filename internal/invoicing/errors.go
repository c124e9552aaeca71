package invoicing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stockdesk/stockdesk/internal/shared"
)

type conflictError string

func (e conflictError) Error() string { return string(e) }

// Conflict marks the error as a refused edit.
func (conflictError) Conflict() bool { return true }

var (
	// ErrReadOnlyField rejects edits the invoice kind does not allow.
	ErrReadOnlyField error = conflictError("invoicing: field is read-only for this invoice kind")
	// ErrLineOutOfRange indicates an index past the end of the item list.
	ErrLineOutOfRange = fmt.Errorf("invoicing: line item %w", shared.ErrNotFound)
	// ErrSessionNotFound indicates an unknown or expired draft session.
	ErrSessionNotFound = fmt.Errorf("invoicing: draft session %w", shared.ErrNotFound)
	// ErrAlreadySubmitted indicates a submit is already in flight for the draft.
	ErrAlreadySubmitted error = conflictError("invoicing: draft is already being submitted")
)

// StockViolation rejects a sale edit whose total requested quantity for a
// product exceeds that product's stock. The listed fields have been reverted;
// the rest of the draft is intact.
type StockViolation struct {
	Index       int             `json:"index"`
	Field       Field           `json:"field"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Requested   decimal.Decimal `json:"requested"`
	Available   decimal.Decimal `json:"available"`
	Reverted    []Field         `json:"reverted"`
}

func (v *StockViolation) Error() string {
	reverted := make([]string, 0, len(v.Reverted))
	for _, f := range v.Reverted {
		reverted = append(reverted, string(f))
	}
	return fmt.Sprintf("stock not available for %q: requested %s, only %s left (reverted %s)",
		v.ProductName, v.Requested.String(), v.Available.String(), strings.Join(reverted, ","))
}

// Conflict marks the violation as a refused edit.
func (v *StockViolation) Conflict() bool { return true }
