package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParameterCombinations(t *testing.T) {
	tests := []struct {
		name  string
		temps []float64
		topPs []float64
		want  []ParameterSet
	}{
		{
			name:  "temperature is the outer loop",
			temps: []float64{0.2, 0.8},
			topPs: []float64{0.5},
			want:  []ParameterSet{{0.2, 0.5}, {0.8, 0.5}},
		},
		{
			name:  "full grid",
			temps: []float64{0.1, 0.9},
			topPs: []float64{0.3, 0.7},
			want:  []ParameterSet{{0.1, 0.3}, {0.1, 0.7}, {0.9, 0.3}, {0.9, 0.7}},
		},
		{
			name:  "duplicates are kept",
			temps: []float64{0.5, 0.5},
			topPs: []float64{1, 1},
			want:  []ParameterSet{{0.5, 1}, {0.5, 1}, {0.5, 1}, {0.5, 1}},
		},
		{
			name:  "empty temperatures",
			temps: nil,
			topPs: []float64{0.5},
			want:  []ParameterSet{},
		},
		{
			name:  "empty top_ps",
			temps: []float64{0.5},
			topPs: []float64{},
			want:  []ParameterSet{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParameterCombinations(tt.temps, tt.topPs))
		})
	}
}
