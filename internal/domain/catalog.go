package domain

import "fmt"

// Catalog column names
const (
	ColumnID          = "uniq_id"
	ColumnTitle       = "title"
	ColumnDescription = "description"
	ColumnBrand       = "brand"
	ColumnPrice       = "price"
	ColumnCategories  = "categories"
	ColumnImages      = "images"
	ColumnMaterial    = "material"
	ColumnColor       = "color"
	ColumnCountry     = "country_of_origin"
)

// RequiredColumns lists every column the service reads from a catalog file
var RequiredColumns = []string{
	ColumnID, ColumnTitle, ColumnDescription, ColumnBrand, ColumnPrice,
	ColumnCategories, ColumnImages, ColumnMaterial, ColumnColor, ColumnCountry,
}

// CatalogRow is one product as loaded from the catalog table.
// An empty string means the cell was null.
type CatalogRow struct {
	ID            string            `json:"uniq_id"`
	Title         string            `json:"title,omitempty"`
	Description   string            `json:"description,omitempty"`
	Brand         string            `json:"brand,omitempty"`
	RawPrice      string            `json:"price,omitempty"`
	RawCategories string            `json:"categories,omitempty"`
	RawImages     string            `json:"images,omitempty"`
	Material      string            `json:"material,omitempty"`
	Color         string            `json:"color,omitempty"`
	Country       string            `json:"country_of_origin,omitempty"`
	Extra         map[string]string `json:"extra,omitempty"`
}

// Value returns the raw cell for a column name, including unmodeled columns
func (r *CatalogRow) Value(column string) string {
	switch column {
	case ColumnID:
		return r.ID
	case ColumnTitle:
		return r.Title
	case ColumnDescription:
		return r.Description
	case ColumnBrand:
		return r.Brand
	case ColumnPrice:
		return r.RawPrice
	case ColumnCategories:
		return r.RawCategories
	case ColumnImages:
		return r.RawImages
	case ColumnMaterial:
		return r.Material
	case ColumnColor:
		return r.Color
	case ColumnCountry:
		return r.Country
	}
	return r.Extra[column]
}

// Catalog is the read-only product table shared by all requests.
// It is built once at startup and never mutated afterwards.
type Catalog struct {
	columns []string
	index   map[string]struct{}
	rows    []CatalogRow
	byID    map[string]int
}

// NewCatalog creates a catalog snapshot from a header and its rows
func NewCatalog(columns []string, rows []CatalogRow) *Catalog {
	index := make(map[string]struct{}, len(columns))
	cols := make([]string, len(columns))
	copy(cols, columns)
	for _, c := range cols {
		index[c] = struct{}{}
	}

	// first occurrence wins for duplicated ids
	byID := make(map[string]int, len(rows))
	for i := range rows {
		if _, seen := byID[rows[i].ID]; !seen {
			byID[rows[i].ID] = i
		}
	}

	return &Catalog{columns: cols, index: index, rows: rows, byID: byID}
}

// Rows returns the catalog rows. Callers must not modify them.
func (c *Catalog) Rows() []CatalogRow {
	return c.rows
}

// Lookup returns the position of the row with the given id
func (c *Catalog) Lookup(id string) (int, bool) {
	i, ok := c.byID[id]
	return i, ok
}

// Len returns the number of rows
func (c *Catalog) Len() int {
	return len(c.rows)
}

// Columns returns a copy of the header
func (c *Catalog) Columns() []string {
	out := make([]string, len(c.columns))
	copy(out, c.columns)
	return out
}

// HasColumn reports whether the catalog carries the named column
func (c *Catalog) HasColumn(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Require returns an error wrapping ErrDataUnavailable and ErrMissingColumn
// for the first absent column.
func (c *Catalog) Require(columns ...string) error {
	for _, col := range columns {
		if !c.HasColumn(col) {
			return fmt.Errorf("%w: %w: %q", ErrDataUnavailable, ErrMissingColumn, col)
		}
	}
	return nil
}
