package taxrates

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/rentledger/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestScheduleResolve(t *testing.T) {
	schedule := DefaultSchedule()

	tests := []struct {
		name            string
		date            time.Time
		wantVatRate     float64
		wantVatBase     float64
		wantTouristRate float64
		wantTouristBase float64
		wantErr         bool
	}{
		{
			name:            "2025 rates apply before the change",
			date:            date(2025, 6, 15),
			wantVatRate:     9,
			wantVatBase:     109,
			wantTouristRate: 6.02,
			wantTouristBase: 106.02,
		},
		{
			name:            "last day of 2025 still uses the 2025 rate set",
			date:            date(2025, 12, 31),
			wantVatRate:     9,
			wantVatBase:     109,
			wantTouristRate: 6.02,
			wantTouristBase: 106.02,
		},
		{
			name:            "effective date itself uses the 2026 rate set",
			date:            date(2026, 1, 1),
			wantVatRate:     21,
			wantVatBase:     121,
			wantTouristRate: 6.9,
			wantTouristBase: 106.9,
		},
		{
			name:            "dates after the change keep the 2026 rate set",
			date:            date(2027, 8, 3),
			wantVatRate:     21,
			wantVatBase:     121,
			wantTouristRate: 6.9,
			wantTouristBase: 106.9,
		},
		{
			name:    "date before the earliest entry has no applicable rate",
			date:    date(2016, 12, 31),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := schedule.Resolve(tt.date)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrNoApplicableRate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVatRate, rate.VatRatePercent)
			assert.Equal(t, tt.wantVatBase, rate.VatBasePercent)
			assert.Equal(t, tt.wantTouristRate, rate.TouristTaxRatePercent)
			assert.Equal(t, tt.wantTouristBase, rate.TouristTaxBasePercent)
		})
	}
}

func TestNewScheduleRejectsDuplicateEffectiveDates(t *testing.T) {
	_, err := NewSchedule([]Rate{
		{EffectiveFrom: date(2026, 1, 1), VatRatePercent: 21},
		{EffectiveFrom: date(2026, 1, 1), VatRatePercent: 9},
	})
	assert.Error(t, err)
}

func TestNewScheduleSortsEntries(t *testing.T) {
	s, err := NewSchedule([]Rate{
		{EffectiveFrom: date(2026, 1, 1), VatRatePercent: 21},
		{EffectiveFrom: date(2017, 1, 1), VatRatePercent: 9},
	})
	require.NoError(t, err)

	rate, err := s.Resolve(date(2020, 5, 1))
	require.NoError(t, err)
	assert.Equal(t, float64(9), rate.VatRatePercent)
}

func TestLoadSchedule(t *testing.T) {
	t.Run("empty path falls back to default schedule", func(t *testing.T) {
		s, err := LoadSchedule("")
		require.NoError(t, err)
		assert.False(t, s.Empty())
	})

	t.Run("loads entries from JSON file", func(t *testing.T) {
		content := `[
			{"effective_from": "2020-01-01", "vat_rate_percent": 9, "vat_base_percent": 109, "tourist_tax_rate_percent": 6.02, "tourist_tax_base_percent": 106.02},
			{"effective_from": "2026-01-01", "vat_rate_percent": 21, "vat_base_percent": 121, "tourist_tax_rate_percent": 6.9, "tourist_tax_base_percent": 106.9}
		]`
		path := filepath.Join(t.TempDir(), "taxrates.json")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		s, err := LoadSchedule(path)
		require.NoError(t, err)

		rate, err := s.Resolve(date(2026, 3, 1))
		require.NoError(t, err)
		assert.Equal(t, float64(121), rate.VatBasePercent)

		_, err = s.Resolve(date(2019, 12, 31))
		assert.ErrorIs(t, err, ErrNoApplicableRate)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := LoadSchedule(filepath.Join(t.TempDir(), "does-not-exist.json"))
		assert.Error(t, err)
	})
}
