package services

import (
	"fmt"

	"gudang/internal/models"
	"gudang/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// ProductService handles product CRUD. Every write goes to the store and
// invalidates the shared cache so the next list read sees it.
type ProductService struct {
	store    repositories.Store
	cache    *ProductCache
	validate *validator.Validate
}

// NewProductService creates a new ProductService.
func NewProductService(store repositories.Store, cache *ProductCache) *ProductService {
	return &ProductService{
		store:    store,
		cache:    cache,
		validate: validator.New(),
	}
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.cache.ProductByID(id)
}

// GetProductByBarcode retrieves a product by barcode, or nil when no
// product carries it.
func (s *ProductService) GetProductByBarcode(barcode string) (*models.Product, error) {
	return s.store.GetProductByBarcode(barcode)
}

// GetStockMovements returns a product's movement history, most recent
// first.
func (s *ProductService) GetStockMovements(productID string) ([]models.StockMovement, error) {
	return s.cache.Movements(productID)
}

// CreateProduct validates and creates a new product. Stock starts at 0.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if product.Markup == 0 {
		product.Markup = models.DefaultMarkup
	}
	if err := s.validate.Struct(product); err != nil {
		return fmt.Errorf("product validation failed: %w", err)
	}
	if err := s.store.CreateProduct(product); err != nil {
		return err
	}
	s.cache.Invalidate()
	return nil
}

// UpdateProduct validates and updates an existing product's fields.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	if err := s.validate.Struct(product); err != nil {
		return fmt.Errorf("product validation failed: %w", err)
	}
	if err := s.store.UpdateProduct(product); err != nil {
		return err
	}
	s.cache.Invalidate()
	return nil
}

// DeleteProduct deletes a product and its movement history.
func (s *ProductService) DeleteProduct(id string) error {
	if err := s.store.DeleteProduct(id); err != nil {
		return err
	}
	s.cache.Invalidate()
	return nil
}
