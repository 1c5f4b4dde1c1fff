package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundRating(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{4, 4},
		{4.25, 4.2},
		{4.75, 4.8},
		{11.0 / 3, 3.7},
		{10.0 / 3, 3.3},
		{0, 0},
		{5, 5},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundRating(tt.in), "RoundRating(%v)", tt.in)
	}
}
