package invoicing

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockdesk/stockdesk/internal/catalog"
	"github.com/stockdesk/stockdesk/internal/shared"
)

// Composer owns one draft invoice for the length of an editing session. Every
// mutation goes through it so the sale stock ceiling is checked on each edit.
// A Composer is not safe for concurrent use.
type Composer struct {
	kind     Kind
	products *catalog.Snapshot
	draft    Draft
}

// NewComposer opens a fresh draft of kind priced from products.
func NewComposer(kind Kind, products *catalog.Snapshot, now time.Time) *Composer {
	return &Composer{kind: kind, products: products, draft: NewDraft(now)}
}

// ResumeComposer continues editing an existing draft.
func ResumeComposer(kind Kind, products *catalog.Snapshot, draft Draft) *Composer {
	return &Composer{kind: kind, products: products, draft: draft.Clone()}
}

// Kind returns the invoice kind being composed.
func (c *Composer) Kind() Kind { return c.kind }

// Draft returns a copy of the current draft.
func (c *Composer) Draft() Draft { return c.draft.Clone() }

// AddLineItem appends a default row.
func (c *Composer) AddLineItem() Draft {
	c.draft.Items = append(c.draft.Items, NewLineItem())
	return c.Draft()
}

// RemoveLineItem drops the row at index. Removing the last row is allowed;
// such a draft fails at submit time.
func (c *Composer) RemoveLineItem(index int) (Draft, error) {
	if index < 0 || index >= len(c.draft.Items) {
		return c.Draft(), ErrLineOutOfRange
	}
	c.draft.Items = append(c.draft.Items[:index], c.draft.Items[index+1:]...)
	return c.Draft(), nil
}

// SetLineItemField applies one field edit. Choosing a product fills in its
// prices. On a sale, an edit that pushes a product's requested quantity past
// its stock is reverted and reported as a *StockViolation; the returned draft
// reflects the revert.
func (c *Composer) SetLineItemField(index int, field Field, value string) (Draft, error) {
	if index < 0 || index >= len(c.draft.Items) {
		return c.Draft(), ErrLineOutOfRange
	}
	item := &c.draft.Items[index]

	switch field {
	case FieldProduct:
		item.ProductID = parseID(value)
		if item.ProductID != 0 {
			if product, ok := c.products.Lookup(item.ProductID); ok {
				if c.kind == KindSale {
					item.Price = product.SellingPrice
				} else {
					item.Price = product.BuyingPrice
				}
				item.SellingPrice = product.SellingPrice
			}
		}
	case FieldQuantity:
		item.Quantity = Coerce(value)
	case FieldPrice:
		item.Price = Coerce(value)
	case FieldSellingPrice:
		if c.kind == KindSale {
			return c.Draft(), ErrReadOnlyField
		}
		item.SellingPrice = Coerce(value)
	default:
		return c.Draft(), &shared.ValidationError{
			Code:   shared.CodeUnknownField,
			Fields: map[string]string{"field": string(field)},
		}
	}

	if field == FieldProduct || field == FieldQuantity {
		if violation := c.enforceStock(index, field); violation != nil {
			return c.Draft(), violation
		}
	}
	return c.Draft(), nil
}

func (c *Composer) enforceStock(index int, field Field) *StockViolation {
	if c.kind != KindSale {
		return nil
	}
	item := &c.draft.Items[index]
	if item.ProductID == 0 {
		return nil
	}
	product, ok := c.products.Lookup(item.ProductID)
	if !ok {
		return nil
	}
	requested := RequestedQuantity(c.draft, item.ProductID)
	if requested.LessThanOrEqual(product.Stock) {
		return nil
	}

	violation := &StockViolation{
		Index:       index,
		Field:       field,
		ProductID:   product.ID,
		ProductName: product.Name,
		Requested:   requested,
		Available:   product.Stock,
	}
	if field == FieldQuantity {
		item.Quantity = decimal.Zero
		violation.Reverted = []Field{FieldQuantity}
	} else {
		item.ProductID = 0
		item.Price = decimal.Zero
		item.SellingPrice = decimal.Zero
		violation.Reverted = []Field{FieldProduct, FieldPrice, FieldSellingPrice}
	}
	return violation
}

// SetDate sets the invoice date. Sale invoices are dated by the backend on
// creation, so the date is read-only for them.
func (c *Composer) SetDate(value string) error {
	if c.kind == KindSale {
		return ErrReadOnlyField
	}
	value = strings.TrimSpace(value)
	if value != "" {
		if _, err := time.Parse(DateLayout, value); err != nil {
			return shared.NewValidationError(shared.CodeInvalidDate)
		}
	}
	c.draft.Date = value
	return nil
}

// SetAccount selects the customer or supplier. Zero clears the selection.
func (c *Composer) SetAccount(id int64) {
	if id < 0 {
		id = 0
	}
	c.draft.AccountID = id
}

// SetDiscount sets the invoice-level discount.
func (c *Composer) SetDiscount(value string) {
	c.draft.Discount = Coerce(value)
}

// LineTotal is the row amount shown next to each item.
func (c *Composer) LineTotal(index int) (decimal.Decimal, error) {
	if index < 0 || index >= len(c.draft.Items) {
		return decimal.Zero, ErrLineOutOfRange
	}
	item := c.draft.Items[index]
	return item.Quantity.Mul(item.UnitPrice()), nil
}

// Subtotal sums quantity times price over all rows.
func (c *Composer) Subtotal() decimal.Decimal { return Subtotal(c.draft) }

// Total is the subtotal less the discount.
func (c *Composer) Total() decimal.Decimal { return ComputeTotal(c.draft) }

// BuildPayload converts the draft into a submission payload.
func (c *Composer) BuildPayload(accounts []Account) (SubmissionPayload, error) {
	return BuildSubmissionPayload(c.draft, c.kind, accounts)
}

// RequestedQuantity sums the quantity of every row referencing productID.
func RequestedQuantity(d Draft, productID int64) decimal.Decimal {
	total := decimal.Zero
	for _, item := range d.Items {
		if item.ProductID == productID {
			total = total.Add(item.Quantity)
		}
	}
	return total
}

// Subtotal sums quantity times price over all rows of d.
func Subtotal(d Draft) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range d.Items {
		subtotal = subtotal.Add(item.Quantity.Mul(item.Price))
	}
	return subtotal
}

// ComputeTotal returns subtotal minus discount. The result is not clamped: a
// discount larger than the subtotal yields a negative total.
func ComputeTotal(d Draft) decimal.Decimal {
	return Subtotal(d).Sub(d.Discount)
}

// Coerce reads a numeric form value. Blank, non-numeric and negative input
// reads as zero.
func Coerce(value string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func parseID(value string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}
