package handlers

import (
	"errors"
	"io"
	"log"

	"gudang/internal/importer"
	"gudang/internal/models"
	"gudang/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ImportHandler handles spreadsheet/invoice imports and the spreadsheet
// export.
type ImportHandler struct {
	imports   *services.ImportService
	inventory *services.InventoryService
	invoices  *importer.InvoiceParser
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(imports *services.ImportService, inventory *services.InventoryService, invoices *importer.InvoiceParser) *ImportHandler {
	return &ImportHandler{
		imports:   imports,
		inventory: inventory,
		invoices:  invoices,
	}
}

// RegisterRoutes registers the import/export routes with the Fiber app.
func (h *ImportHandler) RegisterRoutes(router fiber.Router) {
	importRoutes := router.Group("/import")
	importRoutes.Post("/spreadsheet", h.HandleParseSpreadsheet)
	importRoutes.Post("/invoice", h.HandleParseInvoice)
	importRoutes.Post("/commit", h.HandleCommit)

	router.Get("/export/spreadsheet", h.HandleExport)
}

// HandleParseSpreadsheet parses an uploaded xlsx file and returns the
// candidate rows plus row errors and warnings. Nothing is written until
// the user commits.
func (h *ImportHandler) HandleParseSpreadsheet(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "A file upload named 'file' is required",
			"error":   err.Error(),
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Printf("Error opening uploaded spreadsheet %s: %v", file.Filename, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Could not read uploaded file",
			"error":   err.Error(),
		})
	}
	defer src.Close()

	result, err := importer.ParseSpreadsheet(src)
	if err != nil {
		log.Printf("Error parsing spreadsheet %s: %v", file.Filename, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Could not parse spreadsheet",
			"error":   err.Error(),
		})
	}
	return c.JSON(result)
}

// HandleParseInvoice runs OCR and structured extraction on an uploaded
// invoice image and returns the same parse-result shape as spreadsheets.
func (h *ImportHandler) HandleParseInvoice(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "A file upload named 'file' is required",
			"error":   err.Error(),
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Could not read uploaded file",
			"error":   err.Error(),
		})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Could not read uploaded file",
			"error":   err.Error(),
		})
	}

	result, err := h.invoices.Parse(data)
	if err != nil {
		return h.writeInvoiceError(c, file.Filename, err)
	}
	return c.JSON(result)
}

// HandleCommit reconciles previously parsed rows into products and
// initial stock movements, and returns the per-row report.
func (h *ImportHandler) HandleCommit(c *fiber.Ctx) error {
	var body struct {
		Rows []models.ImportedProduct `json:"rows"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if len(body.Rows) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "No rows to import",
		})
	}

	report := h.imports.Reconcile(body.Rows)
	return c.JSON(report)
}

// HandleExport streams the current product collection as an xlsx
// download with a date-stamped filename.
func (h *ImportHandler) HandleExport(c *fiber.Ctx) error {
	result, err := h.inventory.List(models.DefaultFilters())
	if err != nil {
		log.Printf("Error loading products for export: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not load products for export",
			"error":   err.Error(),
		})
	}

	f, filename, err := importer.ExportSpreadsheet(result.Products)
	if err != nil {
		log.Printf("Error building export spreadsheet: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not build export spreadsheet",
			"error":   err.Error(),
		})
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		log.Printf("Error writing export spreadsheet: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not write export spreadsheet",
			"error":   err.Error(),
		})
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(buf.Bytes())
}

// writeInvoiceError maps categorized extraction failures to HTTP
// statuses so no raw service error reaches the user.
func (h *ImportHandler) writeInvoiceError(c *fiber.Ctx, filename string, err error) error {
	log.Printf("Invoice parsing failed for %s: %v", filename, err)

	switch {
	case errors.Is(err, importer.ErrUnsupportedFile),
		errors.Is(err, importer.ErrFileTooLarge):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invoice upload rejected",
			"error":   err.Error(),
		})
	case errors.Is(err, importer.ErrServiceAuth):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": "Extraction service authentication failed; check the configured API keys",
		})
	case errors.Is(err, importer.ErrServiceQuota):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"message": "Extraction service quota exceeded, try again later",
		})
	case errors.Is(err, importer.ErrServiceUnavailable):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": "Extraction service is unreachable",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Could not parse invoice",
		"error":   err.Error(),
	})
}
