package services

import (
	"errors"
	"log"
	"sync"
	"time"

	"gudang/internal/models"
	"gudang/internal/repositories"
	"gudang/pkg/events"

	"github.com/google/uuid"
)

// ConfirmThreshold is the quantity above which a stock adjustment needs
// explicit user confirmation before it is issued.
const ConfirmThreshold = 50

var (
	// ErrInvalidQuantity rejects non-positive adjustment quantities.
	ErrInvalidQuantity = errors.New("quantity must be a positive whole number")
	// ErrInvalidMovementType rejects movement types other than IN/OUT.
	ErrInvalidMovementType = errors.New("movement type must be IN or OUT")
	// ErrInsufficientStock rejects an OUT that would drive stock negative.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrConfirmationRequired gates adjustments above ConfirmThreshold.
	ErrConfirmationRequired = errors.New("large quantity requires confirmation")
	// ErrMutationInFlight rejects a second adjustment for a product whose
	// previous one has not settled yet.
	ErrMutationInFlight = errors.New("a stock mutation for this product is already in progress")
)

// StockService applies signed stock deltas with optimistic cache updates
// and full rollback on backend failure. One mutation per product may be
// in flight at a time; mutations on different products are independent.
type StockService struct {
	store  repositories.Store
	cache  *ProductCache
	events *events.Publisher

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewStockService creates a new StockService. publisher may be nil, in
// which case no events are emitted.
func NewStockService(store repositories.Store, cache *ProductCache, publisher *events.Publisher) *StockService {
	return &StockService{
		store:    store,
		cache:    cache,
		events:   publisher,
		inFlight: make(map[string]struct{}),
	}
}

// AdjustStock applies one IN/OUT adjustment of quantity units to a
// product.
//
// Preconditions, checked before any cache or store effect: the quantity
// must be positive; an OUT must not exceed the product's current stock;
// a quantity above ConfirmThreshold requires confirmed=true. The cached
// product is then updated optimistically, the movement is written to the
// store, and on failure the pre-mutation cache state is restored exactly.
// In every outcome the product's cache entries are refetched afterwards.
// Failed adjustments are never retried automatically.
func (s *StockService) AdjustStock(productID string, quantity int, movementType, note string, confirmed bool) (*models.StockMovement, error) {
	if !models.ValidMovementType(movementType) {
		return nil, ErrInvalidMovementType
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.cache.ProductByID(productID)
	if err != nil {
		return nil, err
	}

	if movementType == models.MovementOut {
		current := product.CurrentStock
		if current < 0 {
			current = 0
		}
		if quantity > current {
			return nil, ErrInsufficientStock
		}
	}
	if quantity > ConfirmThreshold && !confirmed {
		return nil, ErrConfirmationRequired
	}

	if !s.acquire(productID) {
		return nil, ErrMutationInFlight
	}
	defer s.release(productID)

	delta := models.SignedQuantity(quantity, movementType)
	synthetic := models.StockMovement{
		ID:        uuid.New().String(),
		ProductID: productID,
		Quantity:  delta,
		Type:      movementType,
		Date:      time.Now(),
		Note:      note,
	}

	movement, err := withOptimisticUpdate(s.cache,
		func() { s.cache.applyStockDelta(productID, delta, synthetic) },
		func() (*models.StockMovement, error) {
			return s.store.AddStockMovement(productID, quantity, movementType, note)
		})

	// Settle the cache against the store's truth whether the write
	// succeeded or not.
	if refreshErr := s.cache.RefreshProduct(productID); refreshErr != nil {
		log.Printf("Failed to refresh cache for product %s after adjustment: %v", productID, refreshErr)
	}

	if err != nil {
		log.Printf("Stock adjustment failed for product %s (%s %d): %v", productID, movementType, quantity, err)
		return nil, err
	}

	s.notify(movement, product.Name)
	return movement, nil
}

// acquire marks a product as having a mutation in flight. It reports
// false when one is already pending.
func (s *StockService) acquire(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[productID]; busy {
		return false
	}
	s.inFlight[productID] = struct{}{}
	return true
}

func (s *StockService) release(productID string) {
	s.mu.Lock()
	delete(s.inFlight, productID)
	s.mu.Unlock()
}

// notify publishes the movement event plus a low-stock alert when the
// adjustment left the product below its threshold. Event failures are
// logged, never surfaced: messaging is advisory.
func (s *StockService) notify(movement *models.StockMovement, productName string) {
	err := s.events.Publish(events.EventStockMovement, map[string]interface{}{
		"product_id": movement.ProductID,
		"product":    productName,
		"type":       movement.Type,
		"quantity":   movement.Quantity,
		"date":       movement.Date,
	})
	if err != nil {
		log.Printf("Failed to publish movement event for product %s: %v", movement.ProductID, err)
	}

	product, err := s.cache.ProductByID(movement.ProductID)
	if err != nil || !product.IsLowStock() {
		return
	}
	err = s.events.Publish(events.EventLowStock, map[string]interface{}{
		"product_id": product.ID,
		"product":    product.Name,
		"stock":      product.CurrentStock,
		"min_stock":  product.MinStock,
	})
	if err != nil {
		log.Printf("Failed to publish low stock event for product %s: %v", product.ID, err)
	}
}
