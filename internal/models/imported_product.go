package models

import "time"

// ImportedProduct is one candidate row extracted from an uploaded
// spreadsheet or invoice. It only exists between parse time and the
// moment the user confirms the import; confirmation turns each row into
// a Create-Product plus, when Quantity > 0, one initial IN movement.
type ImportedProduct struct {
	Name       string     `json:"name" validate:"required"`
	Barcode    string     `json:"barcode"`
	Category   string     `json:"category"`
	UnitPrice  float64    `json:"unit_price"`
	Markup     int        `json:"markup"`
	Quantity   int        `json:"quantity"`
	Total      float64    `json:"total"`
	MinStock   int        `json:"min_stock"`
	Supplier   string     `json:"supplier"`
	ExpiryDate *time.Time `json:"expiry_date"`
}

// InvoiceMetadata is the optional document-level information an invoice
// extraction can carry alongside its line items.
type InvoiceMetadata struct {
	Supplier      string  `json:"supplier"`
	InvoiceNumber string  `json:"invoice_number"`
	Date          string  `json:"date"`
	Total         float64 `json:"total"`
}
