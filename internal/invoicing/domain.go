package invoicing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind distinguishes sale invoices from purchase invoices.
type Kind string

const (
	KindSale     Kind = "sale"
	KindPurchase Kind = "purchase"
)

// ParseKind accepts the singular and plural spellings used by the API.
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "sale", "sales":
		return KindSale, nil
	case "purchase", "purchases":
		return KindPurchase, nil
	}
	return "", fmt.Errorf("invoicing: unknown invoice kind %q", value)
}

// Field names an editable line item field.
type Field string

const (
	FieldProduct      Field = "product"
	FieldQuantity     Field = "quantity"
	FieldPrice        Field = "price"
	FieldSellingPrice Field = "selling_price"
)

// LineItem is one row of a draft invoice. ProductID zero means no product has
// been chosen yet.
type LineItem struct {
	ProductID    int64           `json:"product,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// NewLineItem returns a row with the form defaults.
func NewLineItem() LineItem {
	return LineItem{Quantity: decimal.NewFromInt(1)}
}

// UnitPrice is the price shown on the row: the invoice price, or the selling
// price when no invoice price is set.
func (li LineItem) UnitPrice() decimal.Decimal {
	if !li.Price.IsZero() {
		return li.Price
	}
	return li.SellingPrice
}

// Draft is the in-memory invoice under construction.
type Draft struct {
	Date      string          `json:"date"`
	AccountID int64           `json:"account_id,omitempty"`
	Items     []LineItem      `json:"items"`
	Discount  decimal.Decimal `json:"discount"`
}

// NewDraft returns an empty draft dated now with a single default row.
func NewDraft(now time.Time) Draft {
	return Draft{
		Date:  now.Format(DateLayout),
		Items: []LineItem{NewLineItem()},
	}
}

// Clone returns a deep copy of the draft.
func (d Draft) Clone() Draft {
	out := d
	out.Items = make([]LineItem, len(d.Items))
	copy(out.Items, d.Items)
	return out
}

// DateLayout is the ISO date format used on the wire.
const DateLayout = "2006-01-02"

// Account is a customer (sale) or supplier (purchase).
type Account struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	CompanyName *string `json:"company_name,omitempty"`
	Phone       string  `json:"phone,omitempty"`
}

// Label renders the account the way the picker shows it.
func (a Account) Label(kind Kind) string {
	if kind == KindPurchase && a.CompanyName != nil && *a.CompanyName != "" {
		return fmt.Sprintf("%s (%s)", a.Name, *a.CompanyName)
	}
	return a.Name
}

// Invoice is a stored invoice as listed by the backend.
type Invoice struct {
	ID           int64           `json:"id"`
	CustomerName string          `json:"customer_name,omitempty"`
	SupplierName string          `json:"supplier_name,omitempty"`
	Date         string          `json:"date"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Discount     decimal.Decimal `json:"discount"`
	Items        []InvoiceItem   `json:"items"`
}

// InvoiceItem is a stored invoice row.
type InvoiceItem struct {
	ID           int64           `json:"id"`
	Product      int64           `json:"product"`
	ProductName  string          `json:"product_name"`
	Quantity     decimal.Decimal `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// PartyName returns the customer or supplier name.
func (inv Invoice) PartyName() string {
	if inv.CustomerName != "" {
		return inv.CustomerName
	}
	return inv.SupplierName
}
