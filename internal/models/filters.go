package models

// Sort fields accepted by the inventory list.
const (
	SortByName     = "name"
	SortByStock    = "stock"
	SortByPrice    = "price"
	SortByCategory = "category"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// InventoryFilters is the ephemeral filter/sort state for the inventory
// list. It is never persisted; each request carries its own copy.
type InventoryFilters struct {
	Query        string `json:"query"`
	Category     string `json:"category"`
	LowStockOnly bool   `json:"low_stock_only"`
	SortField    string `json:"sort_field"`
	SortDir      string `json:"sort_dir"`
}

// DefaultFilters returns the initial filter state: no query, all
// categories, low-stock off, sorted by name ascending.
func DefaultFilters() InventoryFilters {
	return InventoryFilters{
		SortField: SortByName,
		SortDir:   SortAsc,
	}
}

// With returns a copy of the filters with a single key patched. Unknown
// keys and mismatched value types leave the filters unchanged.
func (f InventoryFilters) With(key string, value interface{}) InventoryFilters {
	switch key {
	case "query":
		if s, ok := value.(string); ok {
			f.Query = s
		}
	case "category":
		if s, ok := value.(string); ok {
			f.Category = s
		}
	case "low_stock_only":
		if b, ok := value.(bool); ok {
			f.LowStockOnly = b
		}
	case "sort_field":
		if s, ok := value.(string); ok && validSortField(s) {
			f.SortField = s
		}
	case "sort_dir":
		if s, ok := value.(string); ok && (s == SortAsc || s == SortDesc) {
			f.SortDir = s
		}
	}
	return f
}

func validSortField(s string) bool {
	switch s {
	case SortByName, SortByStock, SortByPrice, SortByCategory:
		return true
	}
	return false
}
