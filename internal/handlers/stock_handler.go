package handlers

import (
	"errors"
	"fmt"
	"log"

	"gudang/internal/repositories"
	"gudang/internal/services"

	"github.com/gofiber/fiber/v2"
)

// StockHandler handles HTTP requests for stock movements.
type StockHandler struct {
	stock    *services.StockService
	products *services.ProductService
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(stock *services.StockService, products *services.ProductService) *StockHandler {
	return &StockHandler{
		stock:    stock,
		products: products,
	}
}

// RegisterRoutes registers the movement routes with the Fiber app.
func (h *StockHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/products/:id/movements", h.HandleGetMovements)
	router.Post("/products/:id/movements", h.HandleAdjustStock)
}

// HandleGetMovements returns a product's movement history, most recent
// first.
func (h *StockHandler) HandleGetMovements(c *fiber.Ctx) error {
	id := c.Params("id")
	movements, err := h.products.GetStockMovements(id)
	if err != nil {
		log.Printf("Error getting movements for product %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve stock movements",
			"error":   err.Error(),
		})
	}
	return c.JSON(movements)
}

// adjustRequest is the body of a quick stock adjustment. Confirmed must
// be true for quantities above the confirmation threshold.
type adjustRequest struct {
	Quantity  int    `json:"quantity"`
	Type      string `json:"type"`
	Note      string `json:"note"`
	Confirmed bool   `json:"confirmed"`
}

// HandleAdjustStock applies one IN/OUT adjustment to a product.
func (h *StockHandler) HandleAdjustStock(c *fiber.Ctx) error {
	id := c.Params("id")

	var req adjustRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing adjustment body for product %s: %v", id, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	movement, err := h.stock.AdjustStock(id, req.Quantity, req.Type, req.Note, req.Confirmed)
	if err != nil {
		return h.writeAdjustError(c, id, req, err)
	}
	return c.Status(fiber.StatusCreated).JSON(movement)
}

// writeAdjustError maps stock mutation errors to HTTP statuses: rejected
// preconditions are 400, the confirmation gate and the in-flight guard
// are 409, an unknown product is 404.
func (h *StockHandler) writeAdjustError(c *fiber.Ctx, id string, req adjustRequest, err error) error {
	log.Printf("Stock adjustment rejected for product %s (%s %d): %v", id, req.Type, req.Quantity, err)

	switch {
	case errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrInvalidMovementType),
		errors.Is(err, services.ErrInsufficientStock):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Stock adjustment rejected",
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrConfirmationRequired):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message":   fmt.Sprintf("Adjustments above %d units require confirmation", services.ConfirmThreshold),
			"error":     err.Error(),
			"threshold": services.ConfirmThreshold,
		})
	case errors.Is(err, services.ErrMutationInFlight):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Another adjustment for this product is still pending",
			"error":   err.Error(),
		})
	case errors.Is(err, repositories.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Product with ID %s not found", id),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Could not adjust stock",
		"error":   err.Error(),
	})
}
