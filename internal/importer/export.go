package importer

import (
	"fmt"
	"time"

	"gudang/internal/models"

	"github.com/xuri/excelize/v2"
)

// exportSheet is the sheet name of generated inventory spreadsheets.
const exportSheet = "Inventario"

// exportColumns is the fixed column order of an export. The labels are
// the primary import aliases, so an exported file re-imports cleanly.
var exportColumns = []string{
	"Producto",
	"Código de barras",
	"Categoría",
	"Precio",
	"Margen",
	"Stock",
	"Stock Mínimo",
	"Proveedor",
	"Vencimiento",
}

// ExportSpreadsheet renders the product collection to an xlsx file, one
// row per product, and returns the file plus a date-stamped filename.
func ExportSpreadsheet(products []models.Product) (*excelize.File, string, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, "", fmt.Errorf("failed to name export sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to create header style: %w", err)
	}

	for i, label := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, "", fmt.Errorf("failed to address header cell: %w", err)
		}
		if err := f.SetCellValue(exportSheet, cell, label); err != nil {
			return nil, "", fmt.Errorf("failed to write header %q: %w", label, err)
		}
		if err := f.SetCellStyle(exportSheet, cell, cell, headerStyle); err != nil {
			return nil, "", fmt.Errorf("failed to style header %q: %w", label, err)
		}
	}

	for r, p := range products {
		expiry := ""
		if p.ExpiryDate != nil {
			expiry = p.ExpiryDate.Format("2006-01-02")
		}
		values := []interface{}{
			p.Name,
			p.Barcode,
			p.Category,
			models.SanitizeNumber(p.BasePrice),
			p.Markup,
			p.CurrentStock,
			p.MinStock,
			p.Supplier,
			expiry,
		}
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, "", fmt.Errorf("failed to address cell: %w", err)
			}
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return nil, "", fmt.Errorf("failed to write row %d: %w", r+2, err)
			}
		}
	}

	filename := fmt.Sprintf("inventario-%s.xlsx", time.Now().Format("2006-01-02"))
	return f, filename, nil
}
