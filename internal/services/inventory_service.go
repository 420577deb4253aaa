package services

import (
	"sort"
	"strings"

	"gudang/internal/models"
)

// InventoryService produces the filtered and sorted inventory view from
// the cached product collection. Filtering and sorting are entirely
// in-memory; no store call is triggered by a filter change.
type InventoryService struct {
	cache *ProductCache
}

// NewInventoryService creates a new InventoryService.
func NewInventoryService(cache *ProductCache) *InventoryService {
	return &InventoryService{cache: cache}
}

// ListResult is the derived read model for the inventory list.
type ListResult struct {
	Products      []models.Product `json:"products"`
	TotalCount    int              `json:"total_count"`
	FilteredCount int              `json:"filtered_count"`
	Categories    []string         `json:"categories"`
}

// List applies the given filters to the full collection and returns the
// view plus the distinct categories present in the unfiltered set.
func (s *InventoryService) List(filters models.InventoryFilters) (*ListResult, error) {
	products, err := s.cache.Products()
	if err != nil {
		return nil, err
	}

	filtered := FilterProducts(products, filters)
	SortProducts(filtered, filters.SortField, filters.SortDir)

	return &ListResult{
		Products:      filtered,
		TotalCount:    len(products),
		FilteredCount: len(filtered),
		Categories:    Categories(products),
	}, nil
}

// FilterProducts applies the search, category and low-stock predicates.
// Each predicate is pure, so the order of application is irrelevant.
func FilterProducts(products []models.Product, filters models.InventoryFilters) []models.Product {
	query := strings.ToLower(strings.TrimSpace(filters.Query))

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.Barcode), query) {
			continue
		}
		if filters.Category != "" && p.Category != filters.Category {
			continue
		}
		if filters.LowStockOnly && !p.IsLowStock() {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SortProducts orders products in place by the given field and direction.
// Ties on the sort key fall back to the product ID ascending, so the
// order is deterministic regardless of input order.
func SortProducts(products []models.Product, field, dir string) {
	less := comparatorFor(field)
	desc := dir == models.SortDesc

	sort.SliceStable(products, func(i, j int) bool {
		a, b := &products[i], &products[j]
		switch cmp := less(a, b); {
		case cmp < 0:
			return !desc
		case cmp > 0:
			return desc
		default:
			return a.ID < b.ID
		}
	})
}

// comparatorFor returns a three-way comparison for the sort field.
func comparatorFor(field string) func(a, b *models.Product) int {
	switch field {
	case models.SortByStock:
		return func(a, b *models.Product) int {
			return compareFloats(float64(a.CurrentStock), float64(b.CurrentStock))
		}
	case models.SortByPrice:
		return func(a, b *models.Product) int {
			return compareFloats(a.BasePrice, b.BasePrice)
		}
	case models.SortByCategory:
		return func(a, b *models.Product) int {
			return strings.Compare(strings.ToLower(a.Category), strings.ToLower(b.Category))
		}
	default: // name
		return func(a, b *models.Product) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	}
}

func compareFloats(a, b float64) int {
	a, b = models.SanitizeNumber(a), models.SanitizeNumber(b)
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Categories returns the distinct non-empty categories of the full
// collection, sorted lexicographically.
func Categories(products []models.Product) []string {
	seen := make(map[string]struct{})
	for _, p := range products {
		if p.Category != "" {
			seen[p.Category] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
