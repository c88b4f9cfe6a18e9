package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRatioSpec(t *testing.T) {
	tests := []struct {
		spec      string
		keep, all int
	}{
		{"1/10", 1, 10},
		{" 3 / 4 ", 3, 4},
		{"50", 1, 50},
		{"", 0, 0},
		{"0", 0, 0},
		{"a/b", 0, 0},
		{"-1/5", 0, 0},
	}
	for _, tt := range tests {
		keep, all := parseRatioSpec(tt.spec)
		assert.Equal(t, tt.keep, keep, tt.spec)
		assert.Equal(t, tt.all, all, tt.spec)
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(2, 5)
	var got []bool
	for i := 0; i < 10; i++ {
		got = append(got, s.Allow())
	}
	assert.Equal(t, []bool{true, true, false, false, false, true, true, false, false, false}, got)

	s.Set(0, 0)
	assert.True(t, s.Allow())

	s.Set(9, 3)
	for i := 0; i < 6; i++ {
		assert.True(t, s.Allow())
	}
}
