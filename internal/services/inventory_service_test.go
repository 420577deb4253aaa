package services_test

import (
	"testing"

	"gudang/internal/models"
	"gudang/internal/repositories"
	"gudang/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProducts() []models.Product {
	return []models.Product{
		{ID: "p1", Name: "Milk", Barcode: "111", Category: "Dairy", BasePrice: 1.5, CurrentStock: 2, MinStock: 5},
		{ID: "p2", Name: "Bread", Barcode: "222", Category: "Bakery", BasePrice: 2.0, CurrentStock: 10, MinStock: 0},
		{ID: "p3", Name: "Butter", Barcode: "333", Category: "Dairy", BasePrice: 3.2, CurrentStock: 7, MinStock: 2},
		{ID: "p4", Name: "coffee", Barcode: "", Category: "", BasePrice: 6.5, CurrentStock: 0, MinStock: 0},
	}
}

func TestFilterProducts_Search(t *testing.T) {
	products := sampleProducts()

	// Case-insensitive match against name or barcode.
	got := services.FilterProducts(products, models.DefaultFilters().With("query", "bReAd"))
	require.Len(t, got, 1)
	assert.Equal(t, "Bread", got[0].Name)

	got = services.FilterProducts(products, models.DefaultFilters().With("query", "333"))
	require.Len(t, got, 1)
	assert.Equal(t, "Butter", got[0].Name)

	// Whitespace-only query matches everything.
	got = services.FilterProducts(products, models.DefaultFilters().With("query", "   "))
	assert.Len(t, got, len(products))
}

func TestFilterProducts_Category(t *testing.T) {
	products := sampleProducts()

	got := services.FilterProducts(products, models.DefaultFilters().With("category", "Dairy"))
	assert.Len(t, got, 2)

	// Empty category means no filter.
	got = services.FilterProducts(products, models.DefaultFilters())
	assert.Len(t, got, len(products))
}

func TestFilterProducts_LowStockOnly(t *testing.T) {
	products := sampleProducts()

	got := services.FilterProducts(products, models.DefaultFilters().With("low_stock_only", true))
	require.Len(t, got, 1)
	// Bread and coffee have no configured minimum, so even 0 stock never
	// flags them.
	assert.Equal(t, "Milk", got[0].Name)
}

func TestFilterProducts_Idempotent(t *testing.T) {
	products := sampleProducts()
	filters := models.DefaultFilters().With("query", "b").With("category", "Dairy")

	first := services.FilterProducts(products, filters)
	second := services.FilterProducts(first, filters)
	assert.Equal(t, first, second)
	assert.LessOrEqual(t, len(first), len(products))
}

func TestSortProducts_ByStock(t *testing.T) {
	products := sampleProducts()

	services.SortProducts(products, models.SortByStock, models.SortAsc)
	assert.Equal(t, []string{"coffee", "Milk", "Butter", "Bread"}, names(products))

	services.SortProducts(products, models.SortByStock, models.SortDesc)
	assert.Equal(t, []string{"Bread", "Butter", "Milk", "coffee"}, names(products))
}

func TestSortProducts_NameCaseInsensitive(t *testing.T) {
	products := sampleProducts()
	services.SortProducts(products, models.SortByName, models.SortAsc)
	assert.Equal(t, []string{"Bread", "Butter", "coffee", "Milk"}, names(products))
}

func TestSortProducts_CategoryMissingSortsFirst(t *testing.T) {
	products := sampleProducts()
	services.SortProducts(products, models.SortByCategory, models.SortAsc)
	assert.Equal(t, "coffee", products[0].Name)
}

func TestSortProducts_DescendingReversesAscending(t *testing.T) {
	for _, field := range []string{models.SortByName, models.SortByStock, models.SortByPrice, models.SortByCategory} {
		asc := sampleProducts()
		desc := sampleProducts()
		services.SortProducts(asc, field, models.SortAsc)
		services.SortProducts(desc, field, models.SortDesc)

		for i := range asc {
			assert.Equal(t, asc[i].ID, desc[len(desc)-1-i].ID, "field %s position %d", field, i)
		}
	}
}

func TestSortProducts_TieBreakByID(t *testing.T) {
	products := []models.Product{
		{ID: "z", Name: "Same", CurrentStock: 5},
		{ID: "a", Name: "Same", CurrentStock: 5},
		{ID: "m", Name: "Same", CurrentStock: 5},
	}
	services.SortProducts(products, models.SortByStock, models.SortAsc)
	assert.Equal(t, []string{"a", "m", "z"}, ids(products))
}

func TestCategories(t *testing.T) {
	got := services.Categories(sampleProducts())
	// Distinct, non-empty, lexicographically sorted.
	assert.Equal(t, []string{"Bakery", "Dairy"}, got)
}

func TestInventoryService_List(t *testing.T) {
	store := repositories.NewMemoryStore()
	for _, p := range []models.Product{
		{Name: "Milk", Category: "Dairy", MinStock: 5},
		{Name: "Bread", Category: "Bakery"},
	} {
		product := p
		require.NoError(t, store.CreateProduct(&product))
		if product.Name == "Milk" {
			_, err := store.AddStockMovement(product.ID, 2, models.MovementIn, "")
			require.NoError(t, err)
		} else {
			_, err := store.AddStockMovement(product.ID, 10, models.MovementIn, "")
			require.NoError(t, err)
		}
	}

	service := services.NewInventoryService(services.NewProductCache(store))

	result, err := service.List(models.DefaultFilters().With("low_stock_only", true))
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalCount)
	assert.Equal(t, 1, result.FilteredCount)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "Milk", result.Products[0].Name)
	assert.Equal(t, []string{"Bakery", "Dairy"}, result.Categories)

	result, err = service.List(models.DefaultFilters().With("sort_field", models.SortByStock))
	require.NoError(t, err)
	assert.Equal(t, []string{"Milk", "Bread"}, names(result.Products))
}

func names(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

func ids(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}
