package importer_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"gudang/internal/importer"
	"gudang/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildSheet writes rows to a fresh workbook and returns it as an upload
// body.
func buildSheet(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetList()[0]
	for r, cells := range rows {
		for c, v := range cells {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseSpreadsheet_HeaderBelowTitleRow(t *testing.T) {
	buf := buildSheet(t, [][]interface{}{
		{"Listado de inventario"},
		{},
		{"Producto", "Código de barras", "Categoría", "Precio", "Stock"},
		{"Leche entera", "779111", "Lácteos", 1.5, 12},
	})

	result, err := importer.ParseSpreadsheet(buf)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	assert.Equal(t, "Leche entera", row.Name)
	assert.Equal(t, "779111", row.Barcode)
	assert.Equal(t, "Lácteos", row.Category)
	assert.Equal(t, 1.5, row.UnitPrice)
	assert.Equal(t, 12, row.Quantity)
	assert.Equal(t, 18.0, row.Total)
	assert.Equal(t, 1, result.TotalRows)
	assert.Equal(t, 1, result.Accepted)
}

func TestParseSpreadsheet_DiacriticFreeHeaders(t *testing.T) {
	// The same columns typed without accents must still resolve.
	buf := buildSheet(t, [][]interface{}{
		{"producto", "codigo de barras", "categoria", "precio", "stock minimo"},
		{"Pan lactal", "779222", "Panaderia", "2,50", 4},
	})

	result, err := importer.ParseSpreadsheet(buf)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	assert.Equal(t, "Pan lactal", row.Name)
	assert.Equal(t, 2.5, row.UnitPrice) // comma decimal tolerated
	assert.Equal(t, 4, row.MinStock)
}

func TestParseSpreadsheet_MissingNameRowsRejected(t *testing.T) {
	buf := buildSheet(t, [][]interface{}{
		{"Producto", "Precio"},
		{"Yerba", 5.0},
		{"", 3.0},
		{"Azúcar", 1.1},
	})

	result, err := importer.ParseSpreadsheet(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 2, result.Accepted)
	require.Len(t, result.RowErrors, 1)
	assert.Equal(t, 3, result.RowErrors[0].Row)
	assert.Contains(t, result.RowErrors[0].Message, "name")
}

func TestParseSpreadsheet_Warnings(t *testing.T) {
	buf := buildSheet(t, [][]interface{}{
		{"Producto", "Precio", "Color favorito"},
		{"Fideos", 1.8},
	})

	result, err := importer.ParseSpreadsheet(buf)
	require.NoError(t, err)

	// Unrecognized column plus missing barcode column, neither fatal.
	assert.Len(t, result.Rows, 1)
	var unrecognized, noBarcode bool
	for _, w := range result.Warnings {
		if w == `unrecognized column "Color favorito" ignored` {
			unrecognized = true
		}
		if w == "no barcode column found; imported rows cannot be checked for duplicates" {
			noBarcode = true
		}
	}
	assert.True(t, unrecognized, "warnings: %v", result.Warnings)
	assert.True(t, noBarcode, "warnings: %v", result.Warnings)
}

func TestParseSpreadsheet_DuplicateColumnsLeftmostWins(t *testing.T) {
	// "Producto" and "Nombre" alias the same field; only the leftmost
	// column may feed it, no matter how the sheet is shaped.
	buf := buildSheet(t, [][]interface{}{
		{"Producto", "Nombre", "Precio", "Costo"},
		{"Yerba mate", "Etiqueta interna", 3.5, 9.99},
	})

	result, err := importer.ParseSpreadsheet(buf)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Yerba mate", result.Rows[0].Name)
	assert.Equal(t, 3.5, result.Rows[0].UnitPrice)

	var duplicates int
	for _, w := range result.Warnings {
		if strings.Contains(w, "duplicate column") {
			duplicates++
		}
	}
	assert.Equal(t, 2, duplicates)
}

func TestParseSpreadsheet_NoHeaderRow(t *testing.T) {
	buf := buildSheet(t, [][]interface{}{
		{"just", "random", "cells"},
		{"more", "random", "cells"},
	})

	_, err := importer.ParseSpreadsheet(buf)
	assert.Error(t, err)
}

func TestParseSpreadsheet_DateSerial(t *testing.T) {
	buf := buildSheet(t, [][]interface{}{
		{"Producto", "Vencimiento"},
		{"Yogur", "45000"},
		{"Queso", "2026-03-01"},
	})

	result, err := importer.ParseSpreadsheet(buf)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)

	// Serial 45000 is 2023-03-15 in the 1900 date system.
	require.NotNil(t, result.Rows[0].ExpiryDate)
	assert.Equal(t, time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC), *result.Rows[0].ExpiryDate)

	require.NotNil(t, result.Rows[1].ExpiryDate)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *result.Rows[1].ExpiryDate)
}

func TestExportImportRoundTrip(t *testing.T) {
	expiry := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	products := []models.Product{
		{Name: "Leche entera", Barcode: "779111", Category: "Lácteos", BasePrice: 1.5, Markup: 70, CurrentStock: 12, MinStock: 5, Supplier: "La Serenísima", ExpiryDate: &expiry},
		{Name: "Pan lactal", Barcode: "779222", Category: "Panadería", BasePrice: 2.1, Markup: 50, CurrentStock: 3},
	}

	f, filename, err := importer.ExportSpreadsheet(products)
	require.NoError(t, err)
	defer f.Close()
	assert.Regexp(t, `^inventario-\d{4}-\d{2}-\d{2}\.xlsx$`, filename)

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	result, err := importer.ParseSpreadsheet(buf)
	require.NoError(t, err)
	require.Len(t, result.Rows, len(products))
	assert.Empty(t, result.RowErrors)

	for i, p := range products {
		row := result.Rows[i]
		assert.Equal(t, p.Name, row.Name)
		assert.Equal(t, p.Barcode, row.Barcode)
		assert.Equal(t, p.Category, row.Category)
		assert.Equal(t, p.BasePrice, row.UnitPrice)
		assert.Equal(t, p.Markup, row.Markup)
		assert.Equal(t, p.CurrentStock, row.Quantity)
		assert.Equal(t, p.MinStock, row.MinStock)
		assert.Equal(t, p.Supplier, row.Supplier)
	}
}
