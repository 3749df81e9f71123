package etl

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreyMidpoint(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"to separator", "07 TO 09", 8},
		{"dash separator", "10-12", 11},
		{"lowercase to", "01 to 03", 2},
		{"extra spaces", "  04 TO 06 ", 5},
		{"single floor", "04", 4},
		{"equal bounds", "10 TO 10", 10},
		{"large range", "1-25", 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StoreyMidpoint(tt.input))
		})
	}
}

func TestStoreyMidpointUnparseable(t *testing.T) {
	for _, input := range []string{"", "GROUND", "A TO B", "TO", "--", "7F"} {
		assert.True(t, math.IsNaN(StoreyMidpoint(input)), "input %q should yield NaN", input)
	}
}

func TestStoreyMidpointHalfValues(t *testing.T) {
	// An even span yields a fractional midpoint.
	assert.Equal(t, 5.5, StoreyMidpoint("04 TO 07"))
}
