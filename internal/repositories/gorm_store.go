package repositories

import (
	"errors"
	"fmt"
	"time"

	"gudang/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStore is the relational implementation of Store, used with either
// the SQLite or the PostgreSQL driver depending on configuration.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GormStore.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// stockSum is the scan target for the movement rollup query.
type stockSum struct {
	ProductID string
	Total     int
}

// GetAllProducts retrieves all products with their current stock filled
// from the movement rollup.
func (s *GormStore) GetAllProducts() ([]models.Product, error) {
	var products []models.Product
	if err := s.db.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}

	var sums []stockSum
	err := s.db.Model(&models.StockMovement{}).
		Select("product_id, COALESCE(SUM(quantity), 0) AS total").
		Group("product_id").
		Scan(&sums).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum stock movements: %w", err)
	}

	totals := make(map[string]int, len(sums))
	for _, sum := range sums {
		totals[sum.ProductID] = sum.Total
	}
	for i := range products {
		products[i].CurrentStock = totals[products[i].ID]
	}
	return products, nil
}

// GetProductByID retrieves a single product by its ID, current stock
// included.
func (s *GormStore) GetProductByID(id string) (*models.Product, error) {
	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	stock, err := s.currentStock(id)
	if err != nil {
		return nil, err
	}
	product.CurrentStock = stock
	return &product, nil
}

// GetProductByBarcode looks a product up by barcode. A missing barcode is
// not an error: the result is (nil, nil).
func (s *GormStore) GetProductByBarcode(barcode string) (*models.Product, error) {
	if barcode == "" {
		return nil, nil
	}
	var product models.Product
	if err := s.db.First(&product, "barcode = ?", barcode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product by barcode %s: %w", barcode, err)
	}
	stock, err := s.currentStock(product.ID)
	if err != nil {
		return nil, err
	}
	product.CurrentStock = stock
	return &product, nil
}

// CreateProduct creates a new product. Stock starts at 0; movements are
// attached separately.
func (s *GormStore) CreateProduct(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.Markup == 0 {
		product.Markup = models.DefaultMarkup
	}
	if err := s.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// UpdateProduct updates an existing product's business fields. The row's
// created_at is left untouched, and CurrentStock is excluded from the
// write; it only ever changes through movements. Save is deliberately
// avoided here: it upserts when the row is missing, which would hide
// unknown IDs instead of reporting them.
func (s *GormStore) UpdateProduct(product *models.Product) error {
	res := s.db.Model(&models.Product{}).
		Where("id = ?", product.ID).
		Select("name", "barcode", "category", "base_price", "markup",
			"min_stock", "supplier", "expiry_date", "image_url", "updated_at").
		Updates(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", product.ID, ErrProductNotFound)
	}
	return nil
}

// DeleteProduct deletes a product and cascades to its movements.
func (s *GormStore) DeleteProduct(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.StockMovement{}).Error; err != nil {
			return fmt.Errorf("failed to delete movements for product %s: %w", id, err)
		}
		res := tx.Delete(&models.Product{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete product: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
		}
		return nil
	})
}

// AddStockMovement records one immutable movement of quantity units
// against a product. quantity must be positive; the sign convention is
// applied here from the movement type.
func (s *GormStore) AddStockMovement(productID string, quantity int, movementType, note string) (*models.StockMovement, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("movement quantity must be positive, got %d", quantity)
	}
	if !models.ValidMovementType(movementType) {
		return nil, fmt.Errorf("invalid movement type: %s", movementType)
	}

	var count int64
	if err := s.db.Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check product %s: %w", productID, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("product with ID %s: %w", productID, ErrProductNotFound)
	}

	movement := &models.StockMovement{
		ID:        uuid.New().String(),
		ProductID: productID,
		Quantity:  models.SignedQuantity(quantity, movementType),
		Type:      movementType,
		Date:      time.Now(),
		Note:      note,
	}
	if err := s.db.Create(movement).Error; err != nil {
		return nil, fmt.Errorf("failed to add stock movement for product %s: %w", productID, err)
	}
	return movement, nil
}

// GetStockMovements returns a product's movement history, most recent
// first, capped at MovementHistoryLimit.
func (s *GormStore) GetStockMovements(productID string) ([]models.StockMovement, error) {
	var movements []models.StockMovement
	err := s.db.Where("product_id = ?", productID).
		Order("date DESC, created_at DESC").
		Limit(MovementHistoryLimit).
		Find(&movements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get movements for product %s: %w", productID, err)
	}
	return movements, nil
}

func (s *GormStore) currentStock(productID string) (int, error) {
	var total int
	err := s.db.Model(&models.StockMovement{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum movements for product %s: %w", productID, err)
	}
	return total, nil
}
