package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Unit is the measurement unit a product is stocked in.
type Unit string

const (
	UnitPieces Unit = "pcs"
	UnitKilo   Unit = "kg"
	UnitLitre  Unit = "ltr"
	UnitBox    Unit = "box"
)

// Valid reports whether u is one of the known units.
func (u Unit) Valid() bool {
	switch u {
	case UnitPieces, UnitKilo, UnitLitre, UnitBox:
		return true
	}
	return false
}

// Product is a catalog record owned by the backend. Numeric fields accept
// either JSON numbers or decimal strings.
type Product struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Unit         Unit            `json:"unit"`
	MinStock     decimal.Decimal `json:"min_stock"`
	BuyingPrice  decimal.Decimal `json:"buying_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Stock        decimal.Decimal `json:"stock"`
	CreatedAt    *time.Time      `json:"created_at,omitempty"`
}

// ProductInput is the create/update body sent to the backend.
type ProductInput struct {
	Name         string          `json:"name" validate:"required,max=150"`
	Unit         Unit            `json:"unit" validate:"required,oneof=pcs kg ltr box"`
	MinStock     decimal.Decimal `json:"min_stock" validate:"gte=0"`
	BuyingPrice  decimal.Decimal `json:"buying_price" validate:"gte=0"`
	SellingPrice decimal.Decimal `json:"selling_price" validate:"gte=0"`
	Stock        decimal.Decimal `json:"stock" validate:"gte=0"`
}

// ProductPatch carries a partial update; nil fields are left untouched.
type ProductPatch struct {
	Name         *string          `json:"name,omitempty" validate:"omitempty,max=150"`
	Unit         *Unit            `json:"unit,omitempty" validate:"omitempty,oneof=pcs kg ltr box"`
	MinStock     *decimal.Decimal `json:"min_stock,omitempty" validate:"omitempty,gte=0"`
	BuyingPrice  *decimal.Decimal `json:"buying_price,omitempty" validate:"omitempty,gte=0"`
	SellingPrice *decimal.Decimal `json:"selling_price,omitempty" validate:"omitempty,gte=0"`
	Stock        *decimal.Decimal `json:"stock,omitempty" validate:"omitempty,gte=0"`
}
