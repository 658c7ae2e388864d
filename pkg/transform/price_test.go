package transform

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/gsbingo17/cms-to-commerce/pkg/mapping"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		unit  string
		want  int64
		ok    bool
	}{
		{"major string", "19.99", "", 1999, true},
		{"major float", 0.1 + 0.2, "", 30, true},
		{"small integer", 99, "", 9900, true},
		{"boundary 100 is minor", 100, "", 100, true},
		{"boundary 100.00 string is minor", "100.00", "", 100, true},
		{"integer above boundary", 2500, "", 2500, true},
		{"tagged major 100", 100, mapping.UnitMajor, 10000, true},
		{"tagged major 2500", "2500", mapping.UnitMajor, 250000, true},
		{"tagged minor", 1999.4, mapping.UnitMinor, 1999, true},
		{"tagged minor small", 5, mapping.UnitMinor, 5, true},
		{"not a number", "free", "", 0, false},
		{"nil", nil, "", 0, false},
		{"overflow major", "1e20", mapping.UnitMajor, 0, false},
		{"overflow untagged", "1e20", "", 0, false},
		{"overflow minor", -1e19, mapping.UnitMinor, 0, false},
		{"largest safe minor", 9e17, mapping.UnitMinor, 900000000000000000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToMinorUnits(tt.value, tt.unit)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProperty_MinorUnitsNotDoubleConverted(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("integral amounts >= 100 are kept as minor units", prop.ForAll(
		func(n int) bool {
			got, ok := ToMinorUnits(n, "")
			if !ok || got != int64(n) {
				return false
			}
			again, ok := ToMinorUnits(got, "")
			return ok && again == got
		},
		gen.IntRange(100, 10000000),
	))

	properties.Property("tagged major amounts always scale", prop.ForAll(
		func(n int) bool {
			got, ok := ToMinorUnits(n, mapping.UnitMajor)
			return ok && got == int64(n)*100
		},
		gen.IntRange(0, 1000000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestMapStatus(t *testing.T) {
	assert.Equal(t, "published", MapStatus(mapping.EntityPage, "Published"))
	assert.Equal(t, "draft", MapStatus(mapping.EntityProduct, "archived"))
	assert.Equal(t, "draft", MapStatus(mapping.EntityCategory, nil))
	assert.Equal(t, "inactive", MapStatus(mapping.EntityCustomer, "inactive"))
	assert.Equal(t, "active", MapStatus(mapping.EntityCustomer, "blocked"))
	assert.Equal(t, "refunded", MapStatus(mapping.EntityOrder, "refunded"))
}
