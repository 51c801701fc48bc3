// backend/src/parsers/airbnb/parser.go
package airbnb

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/username/rentledger/backend/src/models"
	"github.com/username/rentledger/backend/src/utils"
)

// rawRow mirrors the airbnb-style export column layout:
// reservationCode, guestName, phone, adult, child, baby,
// checkinDate (dd-mm-yyyy), checkoutDate, nights, reservationDate
// (yyyy-mm-dd), listing, paidOut, status.
type rawRow struct {
	ReservationCode, GuestName, Phone             string
	Adult, Child, Baby                            string
	CheckinDate, CheckoutDate, Nights             string
	ReservationDate, Listing, PaidOut, StatusText string
}

type AirbnbParser struct{}

func NewParser() *AirbnbParser {
	return &AirbnbParser{}
}

func (p *AirbnbParser) Parse(file io.Reader) (*models.ParseResult, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read all CSV records: %w", err)
	}

	result := &models.ParseResult{}
	for i, record := range records {
		line := i + 2 // header is line 1
		if len(record) < 13 {
			result.Skipped = append(result.Skipped, models.RowIssue{
				Line:   line,
				Reason: models.ReasonMissingField,
				Detail: fmt.Sprintf("expected 13 columns, got %d", len(record)),
			})
			continue
		}
		raw := rawRow{
			ReservationCode: strings.TrimSpace(record[0]),
			GuestName:       strings.TrimSpace(record[1]),
			Phone:           strings.TrimSpace(record[2]),
			Adult:           record[3],
			Child:           record[4],
			Baby:            record[5],
			CheckinDate:     strings.TrimSpace(record[6]),
			CheckoutDate:    strings.TrimSpace(record[7]),
			Nights:          strings.TrimSpace(record[8]),
			ReservationDate: strings.TrimSpace(record[9]),
			Listing:         record[10],
			PaidOut:         strings.TrimSpace(record[11]),
			StatusText:      record[12],
		}

		booking, issue := p.normalizeRow(raw, line)
		if issue != nil {
			result.Skipped = append(result.Skipped, *issue)
			continue
		}
		if _, matched := utils.CanonicalListing(raw.Listing); !matched {
			result.Warnings = append(result.Warnings, models.RowIssue{
				Line:   line,
				Reason: models.ReasonUnmatchedListing,
				Detail: fmt.Sprintf("unit name %q kept as-is", strings.TrimSpace(raw.Listing)),
			})
		}
		result.Bookings = append(result.Bookings, *booking)
	}

	return result, nil
}

func (p *AirbnbParser) normalizeRow(raw rawRow, line int) (*models.CanonicalBooking, *models.RowIssue) {
	if raw.ReservationCode == "" {
		return nil, &models.RowIssue{Line: line, Reason: models.ReasonMissingField, Detail: "reservationCode is empty"}
	}
	checkin, err := utils.ParseDayMonthYear(raw.CheckinDate)
	if err != nil {
		return nil, &models.RowIssue{Line: line, Reason: models.ReasonInvalidDate, Detail: err.Error()}
	}
	nights, err := strconv.Atoi(raw.Nights)
	if err != nil || nights < 0 {
		return nil, &models.RowIssue{Line: line, Reason: models.ReasonMissingField, Detail: fmt.Sprintf("invalid nights %q", raw.Nights)}
	}
	if raw.PaidOut == "" {
		return nil, &models.RowIssue{Line: line, Reason: models.ReasonMissingField, Detail: "paidOut is empty"}
	}
	payout, err := strconv.ParseFloat(raw.PaidOut, 64)
	if err != nil {
		return nil, &models.RowIssue{Line: line, Reason: models.ReasonUnparsableAmount, Detail: fmt.Sprintf("invalid paidOut %q", raw.PaidOut)}
	}

	// The export's checkout column is occasionally blank; the stay length
	// is authoritative either way.
	checkout, err := utils.ParseDayMonthYear(raw.CheckoutDate)
	if err != nil {
		checkout = checkin.AddDate(0, 0, nights)
	}

	// Reservation date uses ISO format in this export, unlike the stay dates.
	reservationDate, _ := utils.ParseISODate(raw.ReservationDate)

	guests := parseCount(raw.Adult) + parseCount(raw.Child) + parseCount(raw.Baby)
	listing, _ := utils.CanonicalListing(raw.Listing)

	return &models.CanonicalBooking{
		Channel:         models.ChannelAirbnb,
		Listing:         listing,
		ReservationCode: raw.ReservationCode,
		GuestName:       raw.GuestName,
		Guests:          guests,
		Nights:          nights,
		CheckinDate:     checkin,
		CheckoutDate:    checkout,
		ReservationDate: reservationDate,
		RawAmounts:      models.RawAmounts{Payout: payout},
		Cancelled:       isCancelled(raw.StatusText),
		AddInfo: fmt.Sprintf("unit=%s; status=%s; phone=%s; adult=%s; child=%s; baby=%s",
			strings.TrimSpace(raw.Listing), strings.TrimSpace(raw.StatusText), raw.Phone, raw.Adult, raw.Child, raw.Baby),
	}, nil
}

func isCancelled(statusText string) bool {
	return strings.Contains(strings.ToLower(statusText), "cancel")
}

func parseCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
