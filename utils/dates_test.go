package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitDepDate(t *testing.T) {
	tests := []struct {
		in        string
		day       int
		month     int
		wantError bool
	}{
		{in: "2025-12-15", day: 15, month: 12},
		{in: "2025-02-01", day: 1, month: 2},
		{in: "2025-13-40", day: 40, month: 13},
		{in: " 2026-01-09 ", day: 9, month: 1},
		{in: "2025/12/15", wantError: true},
		{in: "2025-12", wantError: true},
		{in: "2025-Dec-15", wantError: true},
		{in: "2025-12-xx", wantError: true},
		{in: "", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			day, month, err := SplitDepDate(tt.in)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.day, day)
			assert.Equal(t, tt.month, month)
		})
	}
}
