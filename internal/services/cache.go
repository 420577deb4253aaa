package services

import (
	"fmt"
	"sync"
	"time"

	"gudang/internal/models"
	"gudang/internal/repositories"
)

// cacheTTL is the freshness window of the product snapshot. Within the
// window reads are served from memory; after it the next read refetches
// the full collection from the store.
const cacheTTL = 5 * time.Minute

// ProductCache is the shared read model for the whole application: the
// inventory list reads from it, and stock mutations and imports write
// through it. Mutations follow a snapshot/apply/restore discipline via
// withOptimisticUpdate rather than locking around the backend call.
type ProductCache struct {
	store repositories.Store

	mu        sync.RWMutex
	products  []models.Product
	movements map[string][]models.StockMovement
	fetchedAt time.Time
}

// NewProductCache creates an empty cache over the given store.
func NewProductCache(store repositories.Store) *ProductCache {
	return &ProductCache{
		store:     store,
		movements: make(map[string][]models.StockMovement),
	}
}

// Products returns the full product collection, refetching it when the
// snapshot is stale. The returned slice is a copy; callers may not reach
// into the cache through it.
func (c *ProductCache) Products() ([]models.Product, error) {
	c.mu.RLock()
	fresh := !c.fetchedAt.IsZero() && time.Since(c.fetchedAt) < cacheTTL
	c.mu.RUnlock()

	if !fresh {
		if err := c.Refresh(); err != nil {
			return nil, err
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Product, len(c.products))
	copy(out, c.products)
	return out, nil
}

// ProductByID returns one product from the snapshot, falling back to the
// store when the snapshot does not contain the id.
func (c *ProductCache) ProductByID(id string) (*models.Product, error) {
	products, err := c.Products()
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return c.store.GetProductByID(id)
}

// Movements returns a product's movement history, cached per product.
func (c *ProductCache) Movements(productID string) ([]models.StockMovement, error) {
	c.mu.RLock()
	cached, ok := c.movements[productID]
	c.mu.RUnlock()
	if ok {
		out := make([]models.StockMovement, len(cached))
		copy(out, cached)
		return out, nil
	}

	history, err := c.store.GetStockMovements(productID)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.movements[productID] = history
	c.mu.Unlock()

	out := make([]models.StockMovement, len(history))
	copy(out, history)
	return out, nil
}

// Refresh replaces the snapshot with the store's current collection.
func (c *ProductCache) Refresh() error {
	products, err := c.store.GetAllProducts()
	if err != nil {
		return fmt.Errorf("failed to refresh product cache: %w", err)
	}
	c.mu.Lock()
	c.products = products
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return nil
}

// Invalidate marks the snapshot stale so the next read refetches.
func (c *ProductCache) Invalidate() {
	c.mu.Lock()
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

// RefreshProduct refetches one product and its movement history from the
// store and patches them into the snapshot.
func (c *ProductCache) RefreshProduct(productID string) error {
	product, err := c.store.GetProductByID(productID)
	if err != nil {
		return err
	}
	history, err := c.store.GetStockMovements(productID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.products {
		if c.products[i].ID == productID {
			c.products[i] = *product
			break
		}
	}
	c.movements[productID] = history
	return nil
}

// applyStockDelta applies a provisional signed stock delta to the
// cached product and prepends a synthetic movement to its history entry.
func (c *ProductCache) applyStockDelta(productID string, delta int, movement models.StockMovement) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.products {
		if c.products[i].ID == productID {
			c.products[i].CurrentStock += delta
			break
		}
	}
	if history, ok := c.movements[productID]; ok {
		c.movements[productID] = append([]models.StockMovement{movement}, history...)
	}
}

// snapshot captures the cache state so a failed mutation can be undone
// exactly.
func (c *ProductCache) snapshot() ([]models.Product, map[string][]models.StockMovement, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	products := make([]models.Product, len(c.products))
	copy(products, c.products)
	movements := make(map[string][]models.StockMovement, len(c.movements))
	for id, history := range c.movements {
		cp := make([]models.StockMovement, len(history))
		copy(cp, history)
		movements[id] = cp
	}
	return products, movements, c.fetchedAt
}

func (c *ProductCache) restore(products []models.Product, movements map[string][]models.StockMovement, fetchedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = products
	c.movements = movements
	c.fetchedAt = fetchedAt
}

// withOptimisticUpdate runs an optimistic cache mutation around a backend
// call: snapshot first, apply the provisional change, issue the call, and
// restore the snapshot exactly when the call fails. On success the
// provisional state stands; the backend's truth is picked up on the next
// refetch.
func withOptimisticUpdate[T any](cache *ProductCache, apply func(), backendCall func() (T, error)) (T, error) {
	products, movements, fetchedAt := cache.snapshot()
	apply()
	value, err := backendCall()
	if err != nil {
		cache.restore(products, movements, fetchedAt)
	}
	return value, err
}
