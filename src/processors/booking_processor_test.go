package processors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/rentledger/backend/src/models"
	"github.com/username/rentledger/backend/src/taxrates"
)

func newTestProcessor(t *testing.T) *BookingProcessor {
	t.Helper()
	return NewBookingProcessor(
		taxrates.DefaultSchedule(),
		NewAmountCalculator(testUpliftFactor, testAirbnbFeeFactor),
	)
}

func TestBookingProcessorProcess(t *testing.T) {
	p := newTestProcessor(t)
	processingDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	bookings := []models.CanonicalBooking{
		{
			Channel:         models.ChannelBooking,
			Listing:         "Garden House",
			ReservationCode: "BK-1001",
			Nights:          2,
			CheckinDate:     time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			CheckoutDate:    time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
			RawAmounts:      models.RawAmounts{BasePrice: 126.63, CommissionAmount: 15.20},
		},
		{
			// Check-in predates the earliest schedule entry.
			Channel:         models.ChannelDirect,
			ReservationCode: "DIR-OLD",
			Nights:          1,
			CheckinDate:     time.Date(2015, 5, 1, 0, 0, 0, 0, time.UTC),
			RawAmounts:      models.RawAmounts{Gross: 100},
		},
		{
			// Day-use booking: committed, but flagged.
			Channel:         models.ChannelDirect,
			ReservationCode: "DIR-DAYUSE",
			Nights:          0,
			CheckinDate:     time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
			RawAmounts:      models.RawAmounts{Gross: 80},
		},
	}

	processed, skipped, warnings := p.Process("admin-a", "export.csv", bookings, processingDate)

	require.Len(t, processed, 2)
	require.Len(t, skipped, 1)
	assert.Equal(t, models.ReasonNoApplicableRate, skipped[0].Reason)
	assert.Contains(t, skipped[0].Detail, "DIR-OLD")

	require.Len(t, warnings, 1)
	assert.Equal(t, models.ReasonZeroNights, warnings[0].Reason)

	first := processed[0]
	assert.Equal(t, "admin-a", first.Administration)
	assert.Equal(t, "export.csv", first.SourceFile)
	assert.Equal(t, "2026-02-01", first.CheckinDate)
	assert.Equal(t, "2026-02-03", first.CheckoutDate)
	assert.Equal(t, 146.59, first.AmountGross)
	assert.Equal(t, models.StatusRealised, first.Status)

	dayUse := processed[1]
	assert.Nil(t, dayUse.PricePerNight)
	assert.Equal(t, models.StatusRealised, dayUse.Status)
}

func TestBookingProcessorCarriesSubChannelIntoAddInfo(t *testing.T) {
	p := newTestProcessor(t)

	processed, _, _ := p.Process("admin-a", "export.csv", []models.CanonicalBooking{
		{
			Channel:         models.ChannelDirect,
			SubChannel:      "internal",
			ReservationCode: "DIR-1",
			Nights:          1,
			CheckinDate:     time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			RawAmounts:      models.RawAmounts{Gross: 100},
			AddInfo:         "typeTrade=own use",
		},
	}, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	require.Len(t, processed, 1)
	assert.Contains(t, processed[0].AddInfo, "subChannel=internal")
	assert.Contains(t, processed[0].AddInfo, "typeTrade=own use")
}
