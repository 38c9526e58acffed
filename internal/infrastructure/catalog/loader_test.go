package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/catalogrank/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const sampleCSV = `uniq_id,title,description,brand,price,categories,images,material,color,country_of_origin,package_dimensions
a1,Blue Sofa,"A comfortable sofa, seats three",Acme,"$1,299.00","['Home', 'Sofas']","['http://x.com/a.jpg']",Fabric,Blue,USA,30 x 80
b2,Red Chair,,nan,invalid,"Home, Chairs",,Wood,Red,,
c3,Short Row
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCSV(t *testing.T) {
	catalog, err := ReadCSV(context.Background(), strings.NewReader(sampleCSV))
	require.NoError(t, err)

	require.Equal(t, 3, catalog.Len())
	for _, col := range domain.RequiredColumns {
		assert.True(t, catalog.HasColumn(col), "missing column %s", col)
	}
	assert.True(t, catalog.HasColumn("package_dimensions"))

	rows := catalog.Rows()

	assert.Equal(t, domain.CatalogRow{
		ID:            "a1",
		Title:         "Blue Sofa",
		Description:   "A comfortable sofa, seats three",
		Brand:         "Acme",
		RawPrice:      "$1,299.00",
		RawCategories: "['Home', 'Sofas']",
		RawImages:     "['http://x.com/a.jpg']",
		Material:      "Fabric",
		Color:         "Blue",
		Country:       "USA",
		Extra:         map[string]string{"package_dimensions": "30 x 80"},
	}, rows[0])

	t.Run("null tokens and empty cells are absent", func(t *testing.T) {
		assert.Equal(t, "", rows[1].Description)
		assert.Equal(t, "", rows[1].Brand)
		assert.Equal(t, "invalid", rows[1].RawPrice)
		assert.Equal(t, "", rows[1].Country)
		assert.Nil(t, rows[1].Extra)
	})

	t.Run("short rows leave trailing cells null", func(t *testing.T) {
		assert.Equal(t, "c3", rows[2].ID)
		assert.Equal(t, "Short Row", rows[2].Title)
		assert.Equal(t, "", rows[2].RawPrice)
	})

	t.Run("ids are indexed", func(t *testing.T) {
		idx, ok := catalog.Lookup("b2")
		assert.True(t, ok)
		assert.Equal(t, 1, idx)
	})
}

func TestReadCSV_ByteOrderMark(t *testing.T) {
	catalog, err := ReadCSV(context.Background(), strings.NewReader("\ufeffuniq_id,title\nx,Lamp\n"))
	require.NoError(t, err)

	assert.True(t, catalog.HasColumn(domain.ColumnID))
	assert.Equal(t, "x", catalog.Rows()[0].ID)
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(context.Background(), strings.NewReader(""))
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	catalog, err := ReadCSV(context.Background(), strings.NewReader("uniq_id,title\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, catalog.Len())
}

func TestReadCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadCSV(ctx, strings.NewReader(sampleCSV))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoader_Resolve(t *testing.T) {
	dir := t.TempDir()
	second := writeFile(t, dir, "cleaned.csv", sampleCSV)

	t.Run("first existing search path wins", func(t *testing.T) {
		l := NewLoader(Config{SearchPaths: []string{filepath.Join(dir, "missing.csv"), dir, second}}, nil)
		path, err := l.Resolve()
		require.NoError(t, err)
		assert.Equal(t, second, path)
	})

	t.Run("explicit path must exist", func(t *testing.T) {
		l := NewLoader(Config{Path: filepath.Join(dir, "nope.csv")}, nil)
		_, err := l.Resolve()
		assert.ErrorIs(t, err, domain.ErrDataUnavailable)
	})

	t.Run("nothing found", func(t *testing.T) {
		l := NewLoader(Config{SearchPaths: []string{filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv")}}, nil)
		_, err := l.Resolve()
		assert.ErrorIs(t, err, domain.ErrDataUnavailable)
	})

	t.Run("defaults to built-in search paths", func(t *testing.T) {
		l := NewLoader(Config{}, nil)
		assert.Equal(t, DefaultSearchPaths, l.searchPaths)
	})
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "catalog.csv", sampleCSV)

	l := NewLoader(Config{Path: path}, zaptest.NewLogger(t))
	catalog, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, catalog.Len())
}

func TestLoader_Load_MissingColumnsStillLoads(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "partial.csv", "uniq_id,title\nx,Lamp\n")

	catalog, err := NewLoader(Config{Path: path}, zaptest.NewLogger(t)).Load(context.Background())
	require.NoError(t, err)

	err = catalog.Require(domain.ColumnPrice)
	assert.ErrorIs(t, err, domain.ErrMissingColumn)
}
