package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/gsbingo17/cms-to-commerce/pkg/common"
	"github.com/gsbingo17/cms-to-commerce/pkg/logger"
	"github.com/gsbingo17/cms-to-commerce/pkg/mapping"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadFile_JSONShapes(t *testing.T) {
	dir := t.TempDir()
	log := logger.NewDiscard()

	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"list", `[{"id": "1"}, {"id": "2"}]`, 2},
		{"keyed plural", `{"products": [{"id": "1"}]}`, 1},
		{"keyed data", `{"data": [{"id": "1"}, {"id": "2"}, {"id": "3"}]}`, 3},
		{"single object", `{"id": "1", "title": "Shirt"}`, 1},
		{"empty list", `[]`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "products.json", tt.content)
			records, err := ReadFile(path, mapping.EntityProduct, log)
			require.NoError(t, err)
			assert.Len(t, records, tt.want)
		})
	}
}

func TestReadFile_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "categories.yaml", `
categories:
  - id: cat-1
    name: Shirts
    seo:
      title: All shirts
`)
	records, err := ReadFile(path, mapping.EntityCategory, logger.NewDiscard())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Shirts", records[0]["name"])
	title, _ := records[0].Get("seo.title")
	assert.Equal(t, "All shirts", title)
}

func TestReadFile_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "customers.xlsx")

	f := excelize.NewFile()
	_, err := f.NewSheet("Customers")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Customers", "A1", &[]interface{}{"ID", "Name *", "Email", ""}))
	require.NoError(t, f.SetSheetRow("Customers", "A2", &[]interface{}{"c1", " Jane Doe ", "jane@example.com", "ignored"}))
	require.NoError(t, f.SetSheetRow("Customers", "A3", &[]interface{}{"c2", "John Roe"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	records, err := ReadFile(path, mapping.EntityCustomer, logger.NewDiscard())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, common.Record{"id": "c1", "name": "Jane Doe", "email": "jane@example.com"}, records[0])
	assert.Equal(t, common.Record{"id": "c2", "name": "John Roe"}, records[1])
}

func TestReadFile_Missing(t *testing.T) {
	records, err := ReadFile(filepath.Join(t.TempDir(), "pages.json"), mapping.EntityPage, logger.NewDiscard())
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = ReadFile("", mapping.EntityPage, logger.NewDiscard())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadFile(writeFile(t, dir, "orders.json", `{"orders": [1, 2]}`), mapping.EntityOrder, logger.NewDiscard())
	assert.Error(t, err)

	_, err = ReadFile(writeFile(t, dir, "pages.json", `{`), mapping.EntityPage, logger.NewDiscard())
	assert.Error(t, err)

	_, err = ReadFile(writeFile(t, dir, "pages2.json", `"text"`), mapping.EntityPage, logger.NewDiscard())
	assert.Error(t, err)
}

func TestFindFile(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "", FindFile(dir, mapping.EntityProduct))

	writeFile(t, dir, "category.yml", "[]")
	assert.Equal(t, filepath.Join(dir, "category.yml"), FindFile(dir, mapping.EntityCategory))

	writeFile(t, dir, "categories.json", "[]")
	assert.Equal(t, filepath.Join(dir, "categories.json"), FindFile(dir, mapping.EntityCategory))
}
