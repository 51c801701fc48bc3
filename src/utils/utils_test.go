package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundMoney(t *testing.T) {
	testCases := []struct {
		in       float64
		expected float64
	}{
		{146.591, 146.59},
		{146.595, 146.6},
		{146.596, 146.6},
		{0.004, 0.0},
		{0.005, 0.01},
		{100.0, 100.0},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, RoundMoney(tc.in), "RoundMoney(%v)", tc.in)
	}
}

func TestCanonicalListing(t *testing.T) {
	testCases := []struct {
		raw     string
		want    string
		matched bool
	}{
		{"Green apartment - one bedroom", "Aurora Loft", true},
		{"Nice one-bedroom flat", "Aurora Loft", true},
		{"garden view / child friendly", "Garden House", true},
		{"Garden child-friendly house", "Garden House", true},
		{"RED studio", "Red Door Studio", true},
		{"  Mystery penthouse  ", "Mystery penthouse", false},
		{"", "", false},
	}

	for _, tc := range testCases {
		got, matched := CanonicalListing(tc.raw)
		assert.Equal(t, tc.want, got, "CanonicalListing(%q)", tc.raw)
		assert.Equal(t, tc.matched, matched, "CanonicalListing(%q) matched", tc.raw)
	}
}

func TestDateParsing(t *testing.T) {
	d, err := ParseDayMonthYear("05-02-2026")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseISODate("2026-02-05")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-05", FormatISODate(d))

	_, err = ParseISODate("05-02-2026")
	assert.Error(t, err)

	assert.Equal(t, "", FormatISODate(time.Time{}))
}
