package repositories_test

import (
	"testing"
	"time"

	"gudang/internal/models"
	"gudang/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupGormStore(t *testing.T) *repositories.GormStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.StockMovement{}))
	return repositories.NewGormStore(db)
}

func TestUpdateProductUnknownID(t *testing.T) {
	stores := map[string]repositories.Store{
		"gorm":   setupGormStore(t),
		"memory": repositories.NewMemoryStore(),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			err := store.UpdateProduct(&models.Product{
				ID:   "11111111-1111-1111-1111-111111111111",
				Name: "Fantasma",
			})
			assert.ErrorIs(t, err, repositories.ErrProductNotFound)

			products, err := store.GetAllProducts()
			require.NoError(t, err)
			assert.Empty(t, products, "a failed update must not create a row")
		})
	}
}

func TestUpdateProductKeepsCreatedAt(t *testing.T) {
	store := setupGormStore(t)

	product := &models.Product{Name: "Leche Entera", BasePrice: 1.20}
	require.NoError(t, store.CreateProduct(product))

	created, err := store.GetProductByID(product.ID)
	require.NoError(t, err)
	require.False(t, created.CreatedAt.IsZero())

	// Handlers body-parse updates into a fresh struct, so CreatedAt
	// arrives zeroed. The stored timestamp must survive anyway.
	update := &models.Product{
		ID:        product.ID,
		Name:      "Leche Descremada",
		BasePrice: 1.35,
	}
	require.NoError(t, store.UpdateProduct(update))

	after, err := store.GetProductByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Leche Descremada", after.Name)
	assert.Equal(t, 1.35, after.BasePrice)
	assert.WithinDuration(t, created.CreatedAt, after.CreatedAt, time.Second)
	assert.False(t, after.CreatedAt.IsZero())
}
