// Package catalog loads the product catalog from a CSV file into an
// immutable domain.Catalog snapshot.
package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/catalogrank/backend/internal/domain"
	"github.com/catalogrank/backend/internal/infrastructure/logging"
	"github.com/catalogrank/backend/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// DefaultSearchPaths are tried in order when no explicit path is configured
var DefaultSearchPaths = []string{
	"data/furniture_dataset_final.csv",
	"../data/furniture_dataset_final.csv",
	"data/furniture_dataset_cleaned.csv",
	"../data/furniture_dataset_cleaned.csv",
}

// nullTokens are cell values read as null, matching common dataframe exports
var nullTokens = map[string]struct{}{
	"":     {},
	"nan":  {},
	"NaN":  {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"NULL": {},
	"null": {},
	"None": {},
}

// ctxCheckEvery is how many rows are parsed between cancellation checks
const ctxCheckEvery = 1000

// Config holds catalog location settings
type Config struct {
	Path        string
	SearchPaths []string
}

// Loader reads the catalog file once at startup
type Loader struct {
	path        string
	searchPaths []string
	logger      *zap.Logger
}

// NewLoader creates a catalog loader
func NewLoader(cfg Config, logger *zap.Logger) *Loader {
	searchPaths := cfg.SearchPaths
	if len(searchPaths) == 0 {
		searchPaths = DefaultSearchPaths
	}
	return &Loader{
		path:        cfg.Path,
		searchPaths: searchPaths,
		logger:      logging.OrNop(logger).Named("catalog"),
	}
}

// Resolve returns the file the loader will read: the explicit path if set,
// otherwise the first existing search path.
func (l *Loader) Resolve() (string, error) {
	if l.path != "" {
		if _, err := os.Stat(l.path); err != nil {
			return "", fmt.Errorf("%w: catalog file %q: %w", domain.ErrDataUnavailable, l.path, err)
		}
		return l.path, nil
	}

	for _, p := range l.searchPaths {
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: no catalog file found in %s", domain.ErrDataUnavailable, strings.Join(l.searchPaths, ", "))
}

// Load locates, reads and parses the catalog
func (l *Loader) Load(ctx context.Context) (*domain.Catalog, error) {
	path, err := l.Resolve()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open catalog: %w", domain.ErrDataUnavailable, err)
	}
	defer f.Close()

	catalog, err := ReadCSV(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	for _, col := range domain.RequiredColumns {
		if !catalog.HasColumn(col) {
			l.logger.Warn("catalog column missing, dependent operations will fail",
				zap.String("path", path),
				zap.String("column", col),
			)
		}
	}

	metrics.CatalogRows.Set(float64(catalog.Len()))
	l.logger.Info("catalog loaded",
		zap.String("path", path),
		zap.Int("rows", catalog.Len()),
		zap.Int("columns", len(catalog.Columns())),
	)

	return catalog, nil
}

// ReadCSV parses a header-first CSV stream into a catalog.
// Short rows leave trailing cells null; columns beyond the modeled set are kept in CatalogRow.Extra.
func ReadCSV(ctx context.Context, r io.Reader) (*domain.Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty catalog file", domain.ErrDataUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", domain.ErrDataUnavailable, err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}
	if len(columns) > 0 {
		columns[0] = strings.TrimPrefix(columns[0], "\ufeff")
	}

	var rows []domain.CatalogRow
	for n := 0; ; n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read row %d: %w", domain.ErrDataUnavailable, n+1, err)
		}

		rows = append(rows, buildRow(columns, record))
	}

	return domain.NewCatalog(columns, rows), nil
}

// buildRow maps one record onto the modeled fields
func buildRow(columns, record []string) domain.CatalogRow {
	var row domain.CatalogRow
	for i, col := range columns {
		if i >= len(record) {
			break
		}
		v := record[i]
		if _, null := nullTokens[strings.TrimSpace(v)]; null {
			continue
		}

		switch col {
		case domain.ColumnID:
			row.ID = v
		case domain.ColumnTitle:
			row.Title = v
		case domain.ColumnDescription:
			row.Description = v
		case domain.ColumnBrand:
			row.Brand = v
		case domain.ColumnPrice:
			row.RawPrice = v
		case domain.ColumnCategories:
			row.RawCategories = v
		case domain.ColumnImages:
			row.RawImages = v
		case domain.ColumnMaterial:
			row.Material = v
		case domain.ColumnColor:
			row.Color = v
		case domain.ColumnCountry:
			row.Country = v
		default:
			if row.Extra == nil {
				row.Extra = make(map[string]string)
			}
			row.Extra[col] = v
		}
	}
	return row
}
