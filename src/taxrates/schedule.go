// backend/src/taxrates/schedule.go
package taxrates

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/username/rentledger/backend/src/logger"
	"github.com/username/rentledger/backend/src/utils"
)

// ErrNoApplicableRate means the date precedes the earliest schedule entry.
// Fatal for the row being processed, not for the whole batch.
var ErrNoApplicableRate = errors.New("no applicable tax rate")

// Rate is one effective-dated entry of the VAT / tourist-tax schedule.
// Base percents are the divisors used to back taxes out of inclusive
// amounts (100 + rate percent), e.g. VAT 21% has base 121.
type Rate struct {
	EffectiveFrom         time.Time `json:"-"`
	VatRatePercent        float64   `json:"vat_rate_percent"`
	VatBasePercent        float64   `json:"vat_base_percent"`
	TouristTaxRatePercent float64   `json:"tourist_tax_rate_percent"`
	TouristTaxBasePercent float64   `json:"tourist_tax_base_percent"`
}

// rateFileEntry is the on-disk shape: dates are yyyy-mm-dd strings so the
// schedule file stays hand-editable.
type rateFileEntry struct {
	EffectiveFrom         string  `json:"effective_from"`
	VatRatePercent        float64 `json:"vat_rate_percent"`
	VatBasePercent        float64 `json:"vat_base_percent"`
	TouristTaxRatePercent float64 `json:"tourist_tax_rate_percent"`
	TouristTaxBasePercent float64 `json:"tourist_tax_base_percent"`
}

// Schedule is an ordered, non-overlapping set of rate entries. It is
// read-only configuration as far as the reconciliation engine is concerned.
type Schedule struct {
	entries []Rate // ascending by EffectiveFrom
}

// NewSchedule builds a schedule from entries in any order. Entries with a
// duplicate effective date are rejected since resolution would be ambiguous.
func NewSchedule(entries []Rate) (*Schedule, error) {
	sorted := make([]Rate, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EffectiveFrom.Before(sorted[j].EffectiveFrom)
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].EffectiveFrom.Equal(sorted[i-1].EffectiveFrom) {
			return nil, fmt.Errorf("duplicate schedule entry for %s", utils.FormatISODate(sorted[i].EffectiveFrom))
		}
	}
	return &Schedule{entries: sorted}, nil
}

// DefaultSchedule is the schedule shipped with the application: the
// pre-2026 reduced rates and the 2026 rate change.
func DefaultSchedule() *Schedule {
	s, _ := NewSchedule([]Rate{
		{
			EffectiveFrom:         time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC),
			VatRatePercent:        9,
			VatBasePercent:        109,
			TouristTaxRatePercent: 6.02,
			TouristTaxBasePercent: 106.02,
		},
		{
			EffectiveFrom:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			VatRatePercent:        21,
			VatBasePercent:        121,
			TouristTaxRatePercent: 6.9,
			TouristTaxBasePercent: 106.9,
		},
	})
	return s
}

// LoadSchedule reads a schedule from a JSON file. An empty path returns the
// built-in default.
func LoadSchedule(filePath string) (*Schedule, error) {
	if filePath == "" {
		logger.L.Info("No tax schedule path configured, using built-in default schedule")
		return DefaultSchedule(), nil
	}

	logger.L.Info("Loading tax rate schedule", "path", filePath)
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading tax schedule file '%s': %w", filePath, err)
	}

	var fileEntries []rateFileEntry
	if err := json.Unmarshal(data, &fileEntries); err != nil {
		return nil, fmt.Errorf("error unmarshalling tax schedule from '%s': %w", filePath, err)
	}

	entries := make([]Rate, 0, len(fileEntries))
	for _, fe := range fileEntries {
		from, err := utils.ParseISODate(fe.EffectiveFrom)
		if err != nil {
			return nil, fmt.Errorf("tax schedule entry has invalid effective_from: %w", err)
		}
		entries = append(entries, Rate{
			EffectiveFrom:         from,
			VatRatePercent:        fe.VatRatePercent,
			VatBasePercent:        fe.VatBasePercent,
			TouristTaxRatePercent: fe.TouristTaxRatePercent,
			TouristTaxBasePercent: fe.TouristTaxBasePercent,
		})
	}

	schedule, err := NewSchedule(entries)
	if err != nil {
		return nil, fmt.Errorf("invalid tax schedule in '%s': %w", filePath, err)
	}
	logger.L.Info("Tax rate schedule loaded", "path", filePath, "entryCount", len(entries))
	return schedule, nil
}

// Resolve returns the rates applicable on the given date: the latest entry
// with EffectiveFrom <= date. Pure function of the date.
func (s *Schedule) Resolve(date time.Time) (Rate, error) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if !s.entries[i].EffectiveFrom.After(date) {
			return s.entries[i], nil
		}
	}
	return Rate{}, fmt.Errorf("%w for date %s", ErrNoApplicableRate, utils.FormatISODate(date))
}

// Entries returns a copy of the schedule, ascending by effective date.
func (s *Schedule) Entries() []Rate {
	out := make([]Rate, len(s.entries))
	copy(out, s.entries)
	return out
}

// Empty reports whether the schedule has no entries at all. A batch cannot
// be processed against an empty schedule.
func (s *Schedule) Empty() bool {
	return len(s.entries) == 0
}
