package importer

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"gudang/internal/models"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// headerScanRows is how deep into the sheet the header row is searched
// for. Real-world files often carry a title or blank rows above it.
const headerScanRows = 5

// Canonical column fields recognized by the spreadsheet parser.
const (
	fieldName     = "name"
	fieldBarcode  = "barcode"
	fieldCategory = "category"
	fieldPrice    = "price"
	fieldMarkup   = "markup"
	fieldStock    = "stock"
	fieldMinStock = "min_stock"
	fieldSupplier = "supplier"
	fieldExpiry   = "expiry"
)

// columnAliases maps each canonical field to its accepted Spanish header
// labels. Matching is case-insensitive and diacritic-insensitive, so
// "Categoría" and "categoria" resolve to the same field.
var columnAliases = map[string][]string{
	fieldName:     {"producto", "nombre", "nombre del producto", "artículo", "descripción"},
	fieldBarcode:  {"código de barras", "codigo de barra", "barras", "barcode", "ean"},
	fieldCategory: {"categoría", "rubro"},
	fieldPrice:    {"precio", "precio base", "precio unitario", "costo"},
	fieldMarkup:   {"margen", "markup", "% margen"},
	fieldStock:    {"stock", "cantidad", "existencias", "unidades"},
	fieldMinStock: {"stock mínimo", "mínimo"},
	fieldSupplier: {"proveedor"},
	fieldExpiry:   {"vencimiento", "fecha de vencimiento", "caducidad"},
}

// RowIssue is a per-row parse error with its 1-based sheet row number.
type RowIssue struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ParseResult is the outcome of parsing an upload. The parser performs no
// writes; accepted rows are handed to import reconciliation separately.
type ParseResult struct {
	Rows      []models.ImportedProduct `json:"rows"`
	RowErrors []RowIssue               `json:"row_errors,omitempty"`
	Warnings  []string                 `json:"warnings,omitempty"`
	TotalRows int                      `json:"total_rows"`
	Accepted  int                      `json:"accepted"`
}

// ParseSpreadsheet reads the first sheet of an xlsx file: it locates the
// header row by alias matching, maps recognized columns to canonical
// fields, and converts each data row. Rows missing the mandatory name
// produce row errors; a missing barcode column and unrecognized columns
// produce batch warnings.
func ParseSpreadsheet(r io.Reader) (*ParseResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	headerIdx, columns, warnings := locateHeader(rows)
	if headerIdx < 0 {
		return nil, fmt.Errorf("no header row with a product name column found in the first %d rows", headerScanRows)
	}

	result := &ParseResult{Warnings: warnings}
	for i := headerIdx + 1; i < len(rows); i++ {
		cells := rows[i]
		if emptyRow(cells) {
			continue
		}
		result.TotalRows++

		row, issue := convertRow(cells, columns, i+1)
		if issue != nil {
			result.RowErrors = append(result.RowErrors, *issue)
			continue
		}
		result.Rows = append(result.Rows, row)
	}
	result.Accepted = len(result.Rows)
	return result, nil
}

// locateHeader scans the first headerScanRows rows for one containing a
// name column, and returns its index plus the column→field mapping.
func locateHeader(rows [][]string) (int, map[int]string, []string) {
	aliasToField := make(map[string]string)
	for field, aliases := range columnAliases {
		for _, alias := range aliases {
			aliasToField[normalizeHeader(alias)] = field
		}
	}

	limit := headerScanRows
	if len(rows) < limit {
		limit = len(rows)
	}

	for i := 0; i < limit; i++ {
		columns := make(map[int]string)
		mapped := make(map[string]bool)
		var warnings []string
		for col, cell := range rows[i] {
			label := strings.TrimSpace(cell)
			if label == "" {
				continue
			}
			field, ok := aliasToField[normalizeHeader(label)]
			if !ok {
				warnings = append(warnings, fmt.Sprintf("unrecognized column %q ignored", label))
				continue
			}
			// Two headers aliasing the same field: the leftmost wins.
			if mapped[field] {
				warnings = append(warnings, fmt.Sprintf("duplicate column %q ignored", label))
				continue
			}
			mapped[field] = true
			columns[col] = field
		}
		if !hasField(columns, fieldName) {
			continue
		}
		if !hasField(columns, fieldBarcode) {
			warnings = append(warnings, "no barcode column found; imported rows cannot be checked for duplicates")
		}
		return i, columns, warnings
	}
	return -1, nil, nil
}

func hasField(columns map[int]string, field string) bool {
	for _, f := range columns {
		if f == field {
			return true
		}
	}
	return false
}

func convertRow(cells []string, columns map[int]string, rowNum int) (models.ImportedProduct, *RowIssue) {
	var row models.ImportedProduct
	for col, field := range columns {
		if col >= len(cells) {
			continue
		}
		value := strings.TrimSpace(cells[col])
		if value == "" {
			continue
		}
		switch field {
		case fieldName:
			row.Name = value
		case fieldBarcode:
			row.Barcode = value
		case fieldCategory:
			row.Category = value
		case fieldSupplier:
			row.Supplier = value
		case fieldPrice:
			row.UnitPrice = models.SanitizeNumber(parseNumber(value))
		case fieldMarkup:
			row.Markup = parseMarkup(value)
		case fieldStock:
			row.Quantity = int(models.SanitizeNumber(parseNumber(value)))
		case fieldMinStock:
			row.MinStock = int(models.SanitizeNumber(parseNumber(value)))
		case fieldExpiry:
			row.ExpiryDate = parseDate(value)
		}
	}

	if row.Name == "" {
		return row, &RowIssue{Row: rowNum, Message: "missing product name"}
	}
	row.Total = row.UnitPrice * float64(row.Quantity)
	return row, nil
}

// foldDiacritics strips combining marks: NFD decomposition, mark removal,
// NFC recomposition.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	folded, _, err := transform.String(foldDiacritics, s)
	if err != nil {
		return s
	}
	return folded
}

// parseNumber tolerates currency symbols, thousands separators and comma
// decimals. Unparseable values become 0.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(strings.TrimLeft(s, "$€ "))
	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		// "1.234,56" style: dots are thousands separators.
		s = strings.ReplaceAll(s, ".", "")
	}
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseMarkup accepts only the three known tiers; anything else falls
// back to 0 so the default tier is applied downstream.
func parseMarkup(s string) int {
	n := int(parseNumber(strings.TrimSuffix(s, "%")))
	switch n {
	case models.MarkupLow, models.MarkupStandard, models.MarkupHigh:
		return n
	}
	return 0
}

// excelEpoch is the day-zero of spreadsheet date serials.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2/1/2006", "01-02-06"}

// parseDate tries the known textual layouts and then a date serial.
// Unparseable values are dropped rather than failing the row: an expiry
// date is optional.
func parseDate(s string) *time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 && !math.IsInf(serial, 0) {
		t := excelEpoch.Add(time.Duration(serial * 24 * float64(time.Hour)))
		return &t
	}
	return nil
}

func emptyRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
