package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "zero value", input: 0, expected: "0.00"},
		{name: "one decimal", input: 13.4, expected: "13.40"},
		{name: "rounded", input: 2.566, expected: "2.57"},
		{name: "large value", input: 2030.99, expected: "2030.99"},
		{name: "negative", input: -1.29, expected: "-1.29"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatFloat(tt.input))
		})
	}
}

func TestFormatInt(t *testing.T) {
	assert.Equal(t, "0", formatInt(0))
	assert.Equal(t, "1200", formatInt(1200))
}
