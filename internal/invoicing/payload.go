package invoicing

import (
	"encoding/json"
	"strconv"

	"github.com/stockdesk/stockdesk/internal/shared"
)

// PayloadItem is one submitted invoice row.
type PayloadItem struct {
	Product  int64   `json:"product"`
	Quantity int64   `json:"quantity"`
	Price    float64 `json:"price"`
}

// SubmissionPayload is the create body sent to the backend. It is built once
// per submit and never mutated afterwards.
type SubmissionPayload struct {
	Kind        Kind
	PartyName   string
	Discount    float64
	Items       []PayloadItem
	TotalAmount float64
	// Date is set only for purchase invoices.
	Date string
}

type salePayload struct {
	CustomerName string        `json:"customer_name"`
	Discount     float64       `json:"discount"`
	Items        []PayloadItem `json:"items"`
	TotalAmount  float64       `json:"total_amount"`
}

type purchasePayload struct {
	SupplierName string        `json:"supplier_name"`
	Discount     float64       `json:"discount"`
	Items        []PayloadItem `json:"items"`
	TotalAmount  float64       `json:"total_amount"`
	Date         string        `json:"date,omitempty"`
}

// MarshalJSON names the party field after the kind and omits the date on sales.
func (p SubmissionPayload) MarshalJSON() ([]byte, error) {
	if p.Kind == KindSale {
		return json.Marshal(salePayload{
			CustomerName: p.PartyName,
			Discount:     p.Discount,
			Items:        p.Items,
			TotalAmount:  p.TotalAmount,
		})
	}
	return json.Marshal(purchasePayload{
		SupplierName: p.PartyName,
		Discount:     p.Discount,
		Items:        p.Items,
		TotalAmount:  p.TotalAmount,
		Date:         p.Date,
	})
}

// BuildSubmissionPayload validates d and converts it into the create body for
// kind. It performs no I/O.
func BuildSubmissionPayload(d Draft, kind Kind, accounts []Account) (SubmissionPayload, error) {
	if d.AccountID == 0 {
		return SubmissionPayload{}, shared.NewValidationError(shared.CodeMissingAccount)
	}
	if len(d.Items) == 0 {
		return SubmissionPayload{}, shared.NewValidationError(shared.CodeNoItems)
	}

	items := make([]PayloadItem, 0, len(d.Items))
	for i, item := range d.Items {
		if item.ProductID == 0 {
			return SubmissionPayload{}, &shared.ValidationError{
				Code:   shared.CodeMissingProduct,
				Fields: map[string]string{"index": strconv.Itoa(i)},
			}
		}
		items = append(items, PayloadItem{
			Product:  item.ProductID,
			// The backend takes whole units; the total keeps the fraction.
			Quantity: item.Quantity.IntPart(),
			Price:    item.UnitPrice().InexactFloat64(),
		})
	}

	payload := SubmissionPayload{
		Kind:        kind,
		PartyName:   accountName(accounts, d.AccountID),
		Discount:    d.Discount.InexactFloat64(),
		Items:       items,
		TotalAmount: ComputeTotal(d).InexactFloat64(),
	}
	if kind == KindPurchase {
		payload.Date = d.Date
	}
	return payload, nil
}

func accountName(accounts []Account, id int64) string {
	for _, acc := range accounts {
		if acc.ID == id {
			return acc.Name
		}
	}
	return ""
}
