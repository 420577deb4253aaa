package models

import "time"

// Movement type tags. The tag is redundant with the sign of Quantity but
// kept for display and export.
const (
	MovementIn  = "IN"
	MovementOut = "OUT"
)

// StockMovement is an immutable signed quantity event against a product.
// Quantity is stored as +abs(qty) for IN and -abs(qty) for OUT; a
// product's current stock is the running sum of its movements. No update
// or delete operation is exposed for movements.
type StockMovement struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string    `json:"product_id" gorm:"index;not null;type:varchar(36)"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	Type      string    `json:"type" gorm:"not null" validate:"required,oneof=IN OUT"`
	Date      time.Time `json:"date"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidMovementType reports whether t is one of the two movement tags.
func ValidMovementType(t string) bool {
	return t == MovementIn || t == MovementOut
}

// SignedQuantity applies the movement sign convention to an absolute
// quantity.
func SignedQuantity(qty int, movementType string) int {
	if qty < 0 {
		qty = -qty
	}
	if movementType == MovementOut {
		return -qty
	}
	return qty
}
