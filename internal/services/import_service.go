package services

import (
	"fmt"
	"log"
	"strings"

	"gudang/internal/models"
	"gudang/internal/repositories"
)

// maxReportedErrors bounds how many per-row diagnostics an import report
// carries back to the user.
const maxReportedErrors = 10

// RowError is one user-facing import diagnostic.
type RowError struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// ImportReport summarizes a reconciliation batch.
type ImportReport struct {
	Succeeded int        `json:"succeeded"`
	Skipped   int        `json:"skipped"`
	Failed    int        `json:"failed"`
	Errors    []RowError `json:"errors,omitempty"`
}

// ImportService turns parsed spreadsheet/invoice rows into products and
// initial stock movements.
type ImportService struct {
	store repositories.Store
	cache *ProductCache
}

// NewImportService creates a new ImportService.
func NewImportService(store repositories.Store, cache *ProductCache) *ImportService {
	return &ImportService{store: store, cache: cache}
}

// Reconcile processes rows strictly one at a time so write ordering stays
// simple and every error is attributable to a single row.
//
// A row whose barcode already exists is skipped; rows without a barcode
// are never treated as duplicates. A row whose product was created but
// whose initial movement failed counts as failed while the product is
// kept, so the user can add stock manually. The product cache is
// refreshed once after the whole batch, not per row.
func (s *ImportService) Reconcile(rows []models.ImportedProduct) ImportReport {
	var report ImportReport

	for _, row := range rows {
		if err := s.importRow(row); err != nil {
			if err == errDuplicateBarcode {
				report.Skipped++
				continue
			}
			report.Failed++
			log.Printf("Import failed for row %q: %v", row.Name, err)
			if len(report.Errors) < maxReportedErrors {
				report.Errors = append(report.Errors, RowError{Name: row.Name, Error: err.Error()})
			}
			continue
		}
		report.Succeeded++
	}

	if err := s.cache.Refresh(); err != nil {
		log.Printf("Failed to refresh product cache after import: %v", err)
	}
	return report
}

var errDuplicateBarcode = fmt.Errorf("duplicate barcode")

func (s *ImportService) importRow(row models.ImportedProduct) error {
	// Commit payloads come straight from the client, so the name
	// requirement is enforced here too, not only at parse time.
	if strings.TrimSpace(row.Name) == "" {
		return fmt.Errorf("product name is required")
	}
	if row.Barcode != "" {
		existing, err := s.store.GetProductByBarcode(row.Barcode)
		if err != nil {
			return fmt.Errorf("barcode lookup failed: %w", err)
		}
		if existing != nil {
			return errDuplicateBarcode
		}
	}

	markup := row.Markup
	if markup == 0 {
		markup = models.DefaultMarkup
	}
	product := &models.Product{
		Name:       row.Name,
		Barcode:    row.Barcode,
		Category:   row.Category,
		BasePrice:  models.SanitizeNumber(row.UnitPrice),
		Markup:     markup,
		MinStock:   row.MinStock,
		Supplier:   row.Supplier,
		ExpiryDate: row.ExpiryDate,
	}
	if err := s.store.CreateProduct(product); err != nil {
		return fmt.Errorf("create failed: %w", err)
	}

	if row.Quantity > 0 {
		_, err := s.store.AddStockMovement(product.ID, row.Quantity, models.MovementIn, "initial import")
		if err != nil {
			// The product stays; only the stock step failed.
			return fmt.Errorf("product created but initial stock failed: %w", err)
		}
	}
	return nil
}
