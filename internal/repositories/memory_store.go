package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"gudang/internal/models"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of Store. It backs the
// "memory" driver for demos and is the default store in tests.
type MemoryStore struct {
	mu        sync.RWMutex
	products  map[string]models.Product
	movements map[string][]models.StockMovement
}

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:  make(map[string]models.Product),
		movements: make(map[string][]models.StockMovement),
	}
}

// GetAllProducts returns all products with current stock computed from
// their movements.
func (s *MemoryStore) GetAllProducts() ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	productList := make([]models.Product, 0, len(s.products))
	for id, p := range s.products {
		p.CurrentStock = s.sumLocked(id)
		productList = append(productList, p)
	}
	// Map iteration order is random; keep reads deterministic.
	sort.Slice(productList, func(i, j int) bool { return productList[i].ID < productList[j].ID })
	return productList, nil
}

// GetProductByID returns a product by its ID.
func (s *MemoryStore) GetProductByID(id string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
	}
	product.CurrentStock = s.sumLocked(id)
	return &product, nil
}

// GetProductByBarcode returns (nil, nil) when no product carries the
// barcode.
func (s *MemoryStore) GetProductByBarcode(barcode string) (*models.Product, error) {
	if barcode == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, p := range s.products {
		if p.Barcode == barcode {
			p.CurrentStock = s.sumLocked(id)
			return &p, nil
		}
	}
	return nil, nil
}

// CreateProduct adds a new product.
func (s *MemoryStore) CreateProduct(product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.Markup == 0 {
		product.Markup = models.DefaultMarkup
	}
	s.products[product.ID] = *product
	return nil
}

// UpdateProduct modifies an existing product.
func (s *MemoryStore) UpdateProduct(product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[product.ID]; !ok {
		return fmt.Errorf("product with ID %s: %w", product.ID, ErrProductNotFound)
	}
	s.products[product.ID] = *product
	return nil
}

// DeleteProduct removes a product and all of its movements.
func (s *MemoryStore) DeleteProduct(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
	}
	delete(s.products, id)
	delete(s.movements, id)
	return nil
}

// AddStockMovement appends one movement for a product.
func (s *MemoryStore) AddStockMovement(productID string, quantity int, movementType, note string) (*models.StockMovement, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("movement quantity must be positive, got %d", quantity)
	}
	if !models.ValidMovementType(movementType) {
		return nil, fmt.Errorf("invalid movement type: %s", movementType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[productID]; !ok {
		return nil, fmt.Errorf("product with ID %s: %w", productID, ErrProductNotFound)
	}
	movement := models.StockMovement{
		ID:        uuid.New().String(),
		ProductID: productID,
		Quantity:  models.SignedQuantity(quantity, movementType),
		Type:      movementType,
		Date:      time.Now(),
		Note:      note,
		CreatedAt: time.Now(),
	}
	s.movements[productID] = append(s.movements[productID], movement)
	return &movement, nil
}

// GetStockMovements returns a product's movements, most recent first,
// capped at MovementHistoryLimit.
func (s *MemoryStore) GetStockMovements(productID string) ([]models.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.movements[productID]
	out := make([]models.StockMovement, len(history))
	copy(out, history)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > MovementHistoryLimit {
		out = out[:MovementHistoryLimit]
	}
	return out, nil
}

func (s *MemoryStore) sumLocked(productID string) int {
	total := 0
	for _, m := range s.movements[productID] {
		total += m.Quantity
	}
	return total
}
