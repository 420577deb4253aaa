package models_test

import (
	"math"
	"testing"

	"gudang/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestIsLowStock(t *testing.T) {
	cases := []struct {
		name    string
		current int
		min     int
		want    bool
	}{
		{"below minimum", 2, 5, true},
		{"at minimum", 5, 5, false},
		{"above minimum", 8, 5, false},
		{"no minimum configured", 0, 0, false},
		{"zero stock without minimum", 0, 0, false},
		{"negative stored stock treated as zero", -3, 5, true},
		{"negative minimum treated as unconfigured", 4, -1, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := models.Product{CurrentStock: tc.current, MinStock: tc.min}
			assert.Equal(t, tc.want, p.IsLowStock())
		})
	}
}

func TestSanitizeNumber(t *testing.T) {
	assert.Equal(t, 0.0, models.SanitizeNumber(math.NaN()))
	assert.Equal(t, 0.0, models.SanitizeNumber(math.Inf(1)))
	assert.Equal(t, 0.0, models.SanitizeNumber(math.Inf(-1)))
	assert.Equal(t, 1.25, models.SanitizeNumber(1.25))
	assert.Equal(t, -2.0, models.SanitizeNumber(-2.0))
}

func TestSalePrice(t *testing.T) {
	p := models.Product{BasePrice: 10}

	// Unset markup uses the default tier.
	assert.InDelta(t, 17.0, p.SalePrice(), 1e-9)

	p.Markup = models.MarkupLow
	assert.InDelta(t, 15.0, p.SalePrice(), 1e-9)
	assert.InDelta(t, 20.0, p.PriceAt(models.MarkupHigh), 1e-9)
}

func TestSignedQuantity(t *testing.T) {
	assert.Equal(t, 5, models.SignedQuantity(5, models.MovementIn))
	assert.Equal(t, -5, models.SignedQuantity(5, models.MovementOut))
	// Already-signed input keeps its magnitude.
	assert.Equal(t, -5, models.SignedQuantity(-5, models.MovementOut))
}

func TestFiltersWith(t *testing.T) {
	f := models.DefaultFilters()
	assert.Equal(t, models.SortByName, f.SortField)
	assert.Equal(t, models.SortAsc, f.SortDir)

	f = f.With("query", "milk").With("low_stock_only", true)
	assert.Equal(t, "milk", f.Query)
	assert.True(t, f.LowStockOnly)

	// Unknown keys and invalid values leave the state untouched.
	f = f.With("sort_field", "bogus").With("nope", 1)
	assert.Equal(t, models.SortByName, f.SortField)

	// Reset restores the defaults.
	assert.Equal(t, models.DefaultFilters(), models.DefaultFilters().With("query", "x").With("query", ""))
}
