package mapping

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
  "version": "2",
  "regions": ["de"],
  "entities": {
    "product": {
      "directRules": [
        {"sourceField": "title", "destinationField": "title"},
        {"sourceField": "title", "destinationField": "handle", "kind": "slugify"},
        {"sourceField": "price", "destinationField": "prices.amount", "kind": "multiply_by_100", "unit": "major"}
      ],
      "multiRegionRules": [
        {"sourceField": "price", "destinationField": "price"}
      ]
    },
    "customer": {
      "directRules": [
        {"sourceField": "name", "destinationField": "first_name", "kind": "name_split"}
      ]
    }
  }
}`

func TestParse_JSON(t *testing.T) {
	tbl, err := Parse([]byte(sampleJSON), FormatJSON)
	require.NoError(t, err)
	require.NoError(t, tbl.Validate())

	assert.Equal(t, "2", tbl.Version)
	assert.Equal(t, []string{"de"}, tbl.Regions)

	product, ok := tbl.Entity(EntityProduct)
	require.True(t, ok)
	require.Len(t, product.DirectRules, 3)

	// Missing kind defaults to direct
	assert.Equal(t, KindDirect, product.DirectRules[0].Kind)
	assert.Equal(t, KindSlugify, product.DirectRules[1].Kind)
	assert.Equal(t, UnitMajor, product.DirectRules[2].Unit)
	assert.Len(t, product.MultiRegionRules, 1)

	_, ok = tbl.Entity(EntityOrder)
	assert.False(t, ok)
}

func TestParse_YAML(t *testing.T) {
	yamlDoc := `
version: "1"
entities:
  order:
    directRules:
      - sourceField: status
        destinationField: status
        kind: status_map
      - sourceField: total
        destinationField: total
        kind: multiply_by_100
        defaultValue: 0
`
	tbl, err := Parse([]byte(yamlDoc), FormatYAML)
	require.NoError(t, err)
	require.NoError(t, tbl.Validate())

	order, ok := tbl.Entity(EntityOrder)
	require.True(t, ok)
	require.Len(t, order.DirectRules, 2)
	assert.Equal(t, KindStatusMap, order.DirectRules[0].Kind)
	assert.Equal(t, 0, order.DirectRules[1].DefaultValue)
}

func TestEntity_ReturnsCopy(t *testing.T) {
	tbl, err := Parse([]byte(sampleJSON), FormatJSON)
	require.NoError(t, err)

	em, _ := tbl.Entity(EntityProduct)
	em.DirectRules[0].DestinationField = "changed"

	again, _ := tbl.Entity(EntityProduct)
	assert.Equal(t, "title", again.DirectRules[0].DestinationField)
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantMsg string
		unknown bool
	}{
		{
			name:    "unknown kind",
			doc:     `{"entities": {"product": {"directRules": [{"sourceField": "a", "destinationField": "a", "kind": "uppercase"}]}}}`,
			wantMsg: "unknown transformation kind",
			unknown: true,
		},
		{
			name:    "empty path segment",
			doc:     `{"entities": {"product": {"directRules": [{"sourceField": "a", "destinationField": "metadata..id"}]}}}`,
			wantMsg: "empty segment",
		},
		{
			name:    "unknown entity",
			doc:     `{"entities": {"widget": {"directRules": []}}}`,
			wantMsg: "unknown entity type",
		},
		{
			name:    "bad unit",
			doc:     `{"entities": {"order": {"directRules": [{"sourceField": "t", "destinationField": "t", "kind": "multiply_by_100", "unit": "cents"}]}}}`,
			wantMsg: "unit must be",
		},
		{
			name:    "missing source field",
			doc:     `{"entities": {"page": {"directRules": [{"destinationField": "title"}]}}}`,
			wantMsg: "SourceField is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Parse([]byte(tt.doc), FormatJSON)
			require.NoError(t, err)

			err = tbl.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, tt.unknown, errors.Is(err, ErrUnknownKind))
		})
	}
}

func TestLoadFile_RoundTripYAML(t *testing.T) {
	tbl, err := Parse([]byte(sampleJSON), FormatJSON)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "field-mapping.yaml")
	require.NoError(t, WriteFile(tbl, path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, tbl.Entities[EntityCustomer], loaded.Entities[EntityCustomer])
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"entities": {"product": {"directRules": [{"sourceField": "a", "kind": "nope"}]}}}`), 0644))
	_, err = LoadFile(path)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestParsePath(t *testing.T) {
	segs, err := ParsePath("metadata.original_id")
	require.NoError(t, err)
	assert.Equal(t, []string{"metadata", "original_id"}, segs)

	for _, bad := range []string{"", ".a", "a.", "a. .b"} {
		_, err := ParsePath(bad)
		assert.Error(t, err, bad)
	}
}

func TestKinds(t *testing.T) {
	assert.Len(t, Kinds(), 10)
	assert.True(t, KindFlatten.Valid())
	assert.False(t, Kind("uppercase").Valid())
}

func TestUntaggedPriceRules(t *testing.T) {
	doc := `{"entities": {
	  "order": {"directRules": [
	    {"sourceField": "total", "destinationField": "total", "kind": "multiply_by_100"},
	    {"sourceField": "shipping", "destinationField": "shipping", "kind": "multiply_by_100", "unit": "minor"}
	  ]},
	  "product": {"directRules": [
	    {"sourceField": "price", "destinationField": "price", "kind": "multiply_by_100"}
	  ]}
	}}`
	tbl, err := Parse([]byte(doc), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, []string{"product.price", "order.total"}, tbl.UntaggedPriceRules())
}
