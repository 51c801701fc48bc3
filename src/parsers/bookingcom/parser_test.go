package bookingcom

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/rentledger/backend/src/models"
)

const bookingHeader = "Book number,Booked by,Booked on,Check-in,Check-out,Duration (nights),Persons,Unit type,Price,Commission %,Commission amount,Status,Payment status\n"

func TestBookingParserParse(t *testing.T) {
	csvData := bookingHeader +
		"3100001,Jan de Vries,2025-12-01,2026-02-01,2026-02-03,2,2,Garden child-friendly house,126.63 EUR,12.00 %,15.20 EUR,ok,Paid\n"

	p := NewParser()
	result, err := p.Parse(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, result.Bookings, 1)

	b := result.Bookings[0]
	assert.Equal(t, models.ChannelBooking, b.Channel)
	assert.Equal(t, "3100001", b.ReservationCode)
	assert.Equal(t, "Jan de Vries", b.GuestName)
	assert.Equal(t, 2, b.Guests)
	assert.Equal(t, 2, b.Nights)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), b.CheckinDate)
	assert.Equal(t, time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), b.CheckoutDate)
	assert.Equal(t, "Garden House", b.Listing)
	assert.Equal(t, 126.63, b.RawAmounts.BasePrice)
	assert.Equal(t, 15.20, b.RawAmounts.CommissionAmount)
	assert.False(t, b.Cancelled)
	assert.Contains(t, b.AddInfo, "payment=Paid")
}

func TestBookingParserKeepsCancelledRowsWithCommission(t *testing.T) {
	// The channel charges commission on cancellations, so cancelled rows
	// with a commission amount stay in the batch.
	csvData := bookingHeader +
		"3100002,Eva Novak,2025-12-05,2026-03-01,2026-03-04,3,2,Red studio,200.00 EUR,12.00 %,24.00 EUR,cancelled_by_guest,No show\n"

	p := NewParser()
	result, err := p.Parse(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, result.Bookings, 1)
	assert.True(t, result.Bookings[0].Cancelled)
}

func TestBookingParserSkipsRowsWithoutCommission(t *testing.T) {
	csvData := bookingHeader +
		"3100003,Guest,2025-12-05,2026-03-01,2026-03-04,3,2,Red studio,200.00 EUR,0 %,,ok,Paid\n"

	p := NewParser()
	result, err := p.Parse(strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Empty(t, result.Bookings)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, models.ReasonMissingField, result.Skipped[0].Reason)
	assert.Contains(t, result.Skipped[0].Detail, "Commission amount")
}

func TestBookingParserColumnOrderIndependent(t *testing.T) {
	// Same columns, shuffled order: the parser addresses them by header name.
	csvData := "Status,Book number,Price,Commission amount,Check-in,Check-out,Booked by,Booked on,Duration (nights),Persons,Unit type,Commission %,Payment status\n" +
		"ok,3100004,100.00 EUR,12.00 EUR,2026-04-01,2026-04-02,Guest,2026-01-15,1,1,green one,12.00 %,Paid\n"

	p := NewParser()
	result, err := p.Parse(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, result.Bookings, 1)
	assert.Equal(t, "3100004", result.Bookings[0].ReservationCode)
	assert.Equal(t, 100.00, result.Bookings[0].RawAmounts.BasePrice)
}

func TestBookingParserMissingRequiredColumnIsFatal(t *testing.T) {
	csvData := "Book number,Booked by\n3100005,Guest\n"

	p := NewParser()
	_, err := p.Parse(strings.NewReader(csvData))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required column")
}

func TestParseEuroAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "126.63 EUR", want: 126.63},
		{in: "126.63", want: 126.63},
		{in: "1,5 EUR", want: 1.5},
		{in: " 15.20 EUR ", want: 15.2},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseEuroAmount(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}
