package handlers

import (
	"errors"
	"fmt"
	"log"

	"gudang/internal/models"
	"gudang/internal/repositories"
	"gudang/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for products and the inventory
// list.
type ProductHandler struct {
	products  *services.ProductService
	inventory *services.InventoryService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(products *services.ProductService, inventory *services.InventoryService) *ProductHandler {
	return &ProductHandler{
		products:  products,
		inventory: inventory,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleList)
	productRoutes.Get("/barcode/:code", h.HandleGetByBarcode)
	productRoutes.Get("/:id", h.HandleGetByID)
	productRoutes.Post("/", h.HandleCreate)
	productRoutes.Put("/:id", h.HandleUpdate)
	productRoutes.Delete("/:id", h.HandleDelete)
}

// HandleList returns the filtered and sorted inventory view. Filters come
// from query parameters; omitted parameters keep their defaults.
func (h *ProductHandler) HandleList(c *fiber.Ctx) error {
	filters := models.DefaultFilters()
	filters = filters.With("query", c.Query("query"))
	filters = filters.With("category", c.Query("category"))
	filters = filters.With("low_stock_only", c.QueryBool("low_stock_only"))
	if v := c.Query("sort_field"); v != "" {
		filters = filters.With("sort_field", v)
	}
	if v := c.Query("sort_dir"); v != "" {
		filters = filters.With("sort_dir", v)
	}

	result, err := h.inventory.List(filters)
	if err != nil {
		log.Printf("Error listing products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
			"error":   err.Error(),
		})
	}
	return c.JSON(result)
}

// HandleGetByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	product, err := h.products.GetProductByID(id)
	if err != nil {
		log.Printf("Error getting product by ID %s: %v", id, err)
		if errors.Is(err, repositories.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %s not found", id),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve product",
			"error":   err.Error(),
		})
	}
	return c.JSON(product)
}

// HandleGetByBarcode retrieves a product by barcode. An unknown barcode is
// a 404, not an error.
func (h *ProductHandler) HandleGetByBarcode(c *fiber.Ctx) error {
	code := c.Params("code")
	product, err := h.products.GetProductByBarcode(code)
	if err != nil {
		log.Printf("Error getting product by barcode %s: %v", code, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve product",
			"error":   err.Error(),
		})
	}
	if product == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("No product with barcode %s", code),
		})
	}
	return c.JSON(product)
}

// HandleCreate creates a new product. Stock starts at 0; movements attach
// stock separately.
func (h *ProductHandler) HandleCreate(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		log.Printf("Error parsing create product body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.products.CreateProduct(&product); err != nil {
		return h.writeError(c, "Could not create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdate updates an existing product's fields.
func (h *ProductHandler) HandleUpdate(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		log.Printf("Error parsing update product body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	product.ID = c.Params("id")

	if err := h.products.UpdateProduct(&product); err != nil {
		return h.writeError(c, "Could not update product", err)
	}
	return c.JSON(product)
}

// HandleDelete deletes a product and its movement history. The caller
// must confirm by passing the exact product name in the confirm query
// parameter.
func (h *ProductHandler) HandleDelete(c *fiber.Ctx) error {
	id := c.Params("id")

	product, err := h.products.GetProductByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %s not found", id),
			})
		}
		return h.writeError(c, "Could not delete product", err)
	}
	if c.Query("confirm") != product.Name {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Deletion requires confirm=<exact product name>",
		})
	}

	if err := h.products.DeleteProduct(id); err != nil {
		return h.writeError(c, "Could not delete product", err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Product %s deleted", product.Name),
	})
}

// writeError maps service errors to HTTP statuses: validation failures
// and not-found are client errors, everything else is a 500.
func (h *ProductHandler) writeError(c *fiber.Ctx, message string, err error) error {
	log.Printf("%s: %v", message, err)

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	if errors.Is(err, repositories.ErrProductNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
