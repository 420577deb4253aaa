package repositories

import (
	"errors"

	"gudang/internal/models"
)

// MovementHistoryLimit bounds how many movements a single history read
// returns.
const MovementHistoryLimit = 50

// ErrProductNotFound is returned by lookups and writes that reference a
// product id the store does not know.
var ErrProductNotFound = errors.New("product not found")

// Store is the uniform CRUD surface over the concrete backend. The rest
// of the application never knows which implementation is in use; the
// choice is made once at startup from configuration.
//
// GetProductByBarcode returns (nil, nil) when no product carries the
// barcode, so callers can distinguish "absent" from a failed lookup.
// GetStockMovements returns the most recent movements first, capped at
// MovementHistoryLimit.
type Store interface {
	GetAllProducts() ([]models.Product, error)
	GetProductByID(id string) (*models.Product, error)
	GetProductByBarcode(barcode string) (*models.Product, error)
	CreateProduct(product *models.Product) error
	UpdateProduct(product *models.Product) error
	DeleteProduct(id string) error
	AddStockMovement(productID string, quantity int, movementType, note string) (*models.StockMovement, error)
	GetStockMovements(productID string) ([]models.StockMovement, error)
}
