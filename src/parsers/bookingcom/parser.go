// backend/src/parsers/bookingcom/parser.go
package bookingcom

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/username/rentledger/backend/src/models"
	"github.com/username/rentledger/backend/src/utils"
)

// The booking-style export is header-addressed rather than positional;
// column order varies between account exports but the names are stable.
var requiredColumns = []string{
	"Book number", "Check-in", "Check-out", "Price", "Commission amount", "Status",
}

type BookingParser struct{}

func NewParser() *BookingParser {
	return &BookingParser{}
}

func (p *BookingParser) Parse(file io.Reader) (*models.ParseResult, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := colIndex[name]; !ok {
			return nil, fmt.Errorf("booking export is missing required column %q", name)
		}
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read all CSV records: %w", err)
	}

	result := &models.ParseResult{}
	for i, record := range records {
		line := i + 2
		field := func(name string) string {
			idx, ok := colIndex[name]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		booking, issue := p.normalizeRow(field, line)
		if issue != nil {
			result.Skipped = append(result.Skipped, *issue)
			continue
		}
		if booking == nil {
			continue // filtered, not an error
		}
		if _, matched := utils.CanonicalListing(field("Unit type")); !matched {
			result.Warnings = append(result.Warnings, models.RowIssue{
				Line:   line,
				Reason: models.ReasonUnmatchedListing,
				Detail: fmt.Sprintf("unit type %q kept as-is", field("Unit type")),
			})
		}
		result.Bookings = append(result.Bookings, *booking)
	}

	return result, nil
}

func (p *BookingParser) normalizeRow(field func(string) string, line int) (*models.CanonicalBooking, *models.RowIssue) {
	code := field("Book number")
	if code == "" {
		return nil, &models.RowIssue{Line: line, Reason: models.ReasonMissingField, Detail: "Book number is empty"}
	}

	// Rows without a commission amount carry no revenue and are dropped.
	// Cancelled rows with a commission are kept: the channel still charges
	// commission on cancellations.
	commissionStr := field("Commission amount")
	if commissionStr == "" {
		return nil, &models.RowIssue{Line: line, Reason: models.ReasonMissingField, Detail: "Commission amount is empty"}
	}
	commission, err := parseEuroAmount(commissionStr)
	if err != nil {
		return nil, &models.RowIssue{Line: line, Reason: models.ReasonUnparsableAmount, Detail: fmt.Sprintf("Commission amount: %v", err)}
	}

	priceStr := field("Price")
	if priceStr == "" {
		return nil, &models.RowIssue{Line: line, Reason: models.ReasonMissingField, Detail: "Price is empty"}
	}
	basePrice, err := parseEuroAmount(priceStr)
	if err != nil {
		return nil, &models.RowIssue{Line: line, Reason: models.ReasonUnparsableAmount, Detail: fmt.Sprintf("Price: %v", err)}
	}

	checkin, err := utils.ParseISODate(field("Check-in"))
	if err != nil {
		return nil, &models.RowIssue{Line: line, Reason: models.ReasonInvalidDate, Detail: err.Error()}
	}

	nights := 0
	if d := field("Duration (nights)"); d != "" {
		nights, _ = strconv.Atoi(d)
	}
	checkout, err := utils.ParseISODate(field("Check-out"))
	if err != nil {
		checkout = checkin.AddDate(0, 0, nights)
	} else if nights == 0 {
		nights = int(checkout.Sub(checkin).Hours() / 24)
	}

	guests, _ := strconv.Atoi(field("Persons"))
	reservationDate, _ := utils.ParseISODate(field("Booked on"))
	listing, _ := utils.CanonicalListing(field("Unit type"))

	return &models.CanonicalBooking{
		Channel:         models.ChannelBooking,
		Listing:         listing,
		ReservationCode: code,
		GuestName:       field("Booked by"),
		Guests:          guests,
		Nights:          nights,
		CheckinDate:     checkin,
		CheckoutDate:    checkout,
		ReservationDate: reservationDate,
		RawAmounts: models.RawAmounts{
			BasePrice:        basePrice,
			CommissionAmount: commission,
		},
		Cancelled: strings.Contains(strings.ToLower(field("Status")), "cancel"),
		AddInfo: fmt.Sprintf("unit=%s; status=%s; payment=%s; commission_pct=%s",
			field("Unit type"), field("Status"), field("Payment status"), field("Commission %")),
	}, nil
}

// parseEuroAmount parses figures like "126.63 EUR" or plain "126.63".
func parseEuroAmount(s string) (float64, error) {
	cleaned := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "EUR"))
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return amount, nil
}
