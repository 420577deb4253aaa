package importer

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gudang/internal/models"
)

// MaxInvoiceSize caps uploaded invoice images at 10 MB.
const MaxInvoiceSize = 10 << 20

// Categorized extraction failures. Handlers map these to user-facing
// messages instead of surfacing raw service errors.
var (
	ErrUnsupportedFile    = errors.New("only JPEG and PNG images are supported")
	ErrFileTooLarge       = errors.New("invoice image exceeds the 10 MB limit")
	ErrServiceAuth        = errors.New("extraction service rejected the configured credentials")
	ErrServiceQuota       = errors.New("extraction service quota exceeded, try again later")
	ErrServiceUnavailable = errors.New("extraction service is unreachable")
	ErrInvalidResponse    = errors.New("extraction service returned malformed data")
)

// InvoiceParser extracts line items from invoice images: an external OCR
// service turns the image into raw text, and an external language-model
// service turns the text into structured line items. Both are opaque
// JSON-over-HTTP black boxes.
type InvoiceParser struct {
	ocrURL string
	ocrKey string
	aiURL  string
	aiKey  string
	client *http.Client
}

// InvoiceParserConfig holds the endpoints and keys of the two services.
type InvoiceParserConfig struct {
	OCRURL string
	OCRKey string
	AIURL  string
	AIKey  string
}

// NewInvoiceParser creates a new InvoiceParser.
func NewInvoiceParser(cfg InvoiceParserConfig) *InvoiceParser {
	return &InvoiceParser{
		ocrURL: cfg.OCRURL,
		ocrKey: cfg.OCRKey,
		aiURL:  cfg.AIURL,
		aiKey:  cfg.AIKey,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// InvoiceResult is a ParseResult plus the document-level metadata an
// invoice carries, shaped for the same downstream reconciliation as
// spreadsheet imports.
type InvoiceResult struct {
	ParseResult
	Metadata models.InvoiceMetadata `json:"metadata"`
}

type ocrResponse struct {
	Text string `json:"text"`
}

type extractedItem struct {
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
	Barcode    string  `json:"barcode"`
}

type extractionResponse struct {
	Products      []extractedItem `json:"products"`
	Supplier      string          `json:"supplier"`
	InvoiceNumber string          `json:"invoice_number"`
	Date          string          `json:"date"`
	Total         float64         `json:"total"`
}

// Parse validates the image, runs OCR, then structured extraction, and
// converts the result into import rows. It performs no writes.
func (p *InvoiceParser) Parse(data []byte) (*InvoiceResult, error) {
	if len(data) > MaxInvoiceSize {
		return nil, ErrFileTooLarge
	}
	switch http.DetectContentType(data) {
	case "image/jpeg", "image/png":
	default:
		return nil, ErrUnsupportedFile
	}

	var ocr ocrResponse
	err := p.postJSON(p.ocrURL, p.ocrKey, map[string]interface{}{
		"image": base64.StdEncoding.EncodeToString(data),
	}, &ocr)
	if err != nil {
		return nil, fmt.Errorf("OCR step failed: %w", err)
	}
	if ocr.Text == "" {
		return nil, fmt.Errorf("OCR step failed: %w", ErrInvalidResponse)
	}

	var extraction extractionResponse
	err = p.postJSON(p.aiURL, p.aiKey, map[string]interface{}{
		"text": ocr.Text,
	}, &extraction)
	if err != nil {
		return nil, fmt.Errorf("extraction step failed: %w", err)
	}

	result := &InvoiceResult{
		Metadata: models.InvoiceMetadata{
			Supplier:      extraction.Supplier,
			InvoiceNumber: extraction.InvoiceNumber,
			Date:          extraction.Date,
			Total:         models.SanitizeNumber(extraction.Total),
		},
	}
	for i, item := range extraction.Products {
		result.TotalRows++
		if item.Name == "" {
			result.RowErrors = append(result.RowErrors, RowIssue{Row: i + 1, Message: "missing product name"})
			continue
		}
		row := models.ImportedProduct{
			Name:      item.Name,
			Barcode:   item.Barcode,
			Supplier:  extraction.Supplier,
			UnitPrice: models.SanitizeNumber(item.UnitPrice),
			Quantity:  int(models.SanitizeNumber(item.Quantity)),
			Total:     models.SanitizeNumber(item.TotalPrice),
		}
		if row.Total == 0 {
			row.Total = row.UnitPrice * float64(row.Quantity)
		}
		result.Rows = append(result.Rows, row)
	}
	result.Accepted = len(result.Rows)
	return result, nil
}

// postJSON issues one authenticated JSON request and maps service error
// signatures to the categorized sentinels.
func (p *InvoiceParser) postJSON(url, key string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrServiceAuth
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrServiceQuota
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: status %d", ErrInvalidResponse, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
