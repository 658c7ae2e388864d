package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDefault(t *testing.T) {
	tests := []struct {
		raw  string
		want interface{}
	}{
		{"0", float64(0)},
		{"true", true},
		{`"n/a"`, "n/a"},
		{"n/a", "n/a"},
		{`{"a": 1}`, map[string]interface{}{"a": float64(1)}},
		{"null", nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDefault(tt.raw))
		})
	}
}
