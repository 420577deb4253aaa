package models

import (
	"math"
	"time"

	"gorm.io/gorm"
)

// Markup tiers: fixed percentages applied to the base price to produce
// the displayed store price.
const (
	MarkupLow      = 50
	MarkupStandard = 70
	MarkupHigh     = 100

	// DefaultMarkup is applied whenever a product is created without an
	// explicit tier (manual creation and spreadsheet/invoice imports alike).
	DefaultMarkup = MarkupStandard
)

// Product represents one inventory item.
//
// CurrentStock is derived: it is the signed sum of the product's stock
// movements, computed by the store on every read and never written
// directly. MinStock of 0 means no low-stock threshold is configured.
type Product struct {
	ID           string     `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name         string     `json:"name" validate:"required,min=1,max=200"`
	Barcode      string     `json:"barcode" gorm:"index" validate:"omitempty,max=64"`
	Category     string     `json:"category" validate:"omitempty,max=100"`
	BasePrice    float64    `json:"base_price" validate:"gte=0"`
	Markup       int        `json:"markup" validate:"omitempty,oneof=50 70 100"`
	MinStock     int        `json:"min_stock" validate:"gte=0"`
	CurrentStock int        `json:"current_stock" gorm:"-"`
	Supplier     string     `json:"supplier" validate:"omitempty,max=200"`
	ExpiryDate   *time.Time `json:"expiry_date"`
	ImageURL     string     `json:"image_url" validate:"omitempty,url"`
	gorm.Model              // CreatedAt, UpdatedAt, DeletedAt
}

// PriceAt returns the price for a given markup tier.
func (p *Product) PriceAt(tier int) float64 {
	return SanitizeNumber(p.BasePrice) * (1 + float64(tier)/100)
}

// SalePrice returns the displayed store price: the base price raised by
// the product's own markup tier (DefaultMarkup when unset).
func (p *Product) SalePrice() float64 {
	tier := p.Markup
	if tier == 0 {
		tier = DefaultMarkup
	}
	return p.PriceAt(tier)
}

// IsLowStock reports whether current stock has fallen below the configured
// minimum. Products without a positive minimum are never low-stock, even
// at zero stock.
func (p *Product) IsLowStock() bool {
	minStock := sanitizeStock(p.MinStock)
	return minStock > 0 && sanitizeStock(p.CurrentStock) < minStock
}

// SanitizeNumber coerces NaN and infinities to 0 so that malformed values
// from the backend or an imported file never propagate into comparisons
// or arithmetic.
func SanitizeNumber(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// sanitizeStock clamps negative stored values to 0. A negative sum can
// only come from movements written behind the application's back.
func sanitizeStock(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
