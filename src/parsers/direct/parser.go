// backend/src/parsers/direct/parser.go
package direct

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/username/rentledger/backend/src/models"
	"github.com/username/rentledger/backend/src/utils"
)

// rawRow mirrors the direct-bookings export column layout:
// type, typeTrade, details, reservationCode, currency, amountGross,
// amountChannelFee, cleaningFee, startDate (yyyy-mm-dd), nights,
// guestName, listing.
type rawRow struct {
	Type, TypeTrade, Details, ReservationCode, Currency string
	AmountGross, AmountChannelFee, CleaningFee          string
	StartDate, Nights, GuestName, Listing               string
}

type DirectParser struct{}

func NewParser() *DirectParser {
	return &DirectParser{}
}

func (p *DirectParser) Parse(file io.Reader) (*models.ParseResult, error) {
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
		line := i + 2
		if len(record) < 12 {
			result.Skipped = append(result.Skipped, models.RowIssue{
				Line:   line,
				Reason: models.ReasonMissingField,
				Detail: fmt.Sprintf("expected 12 columns, got %d", len(record)),
			})
			continue
		}
		raw := rawRow{
			Type:             strings.TrimSpace(record[0]),
			TypeTrade:        record[1],
			Details:          record[2],
			ReservationCode:  strings.TrimSpace(record[3]),
			Currency:         strings.TrimSpace(record[4]),
			AmountGross:      strings.TrimSpace(record[5]),
			AmountChannelFee: strings.TrimSpace(record[6]),
			CleaningFee:      strings.TrimSpace(record[7]),
			StartDate:        strings.TrimSpace(record[8]),
			Nights:           strings.TrimSpace(record[9]),
			GuestName:        strings.TrimSpace(record[10]),
			Listing:          record[11],
		}

		// Only reservation rows become bookings; expense and transfer rows
		// in the same export belong to other subsystems.
		if !strings.EqualFold(raw.Type, "reservation") {
			continue
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
				Detail: fmt.Sprintf("listing %q kept as-is", strings.TrimSpace(raw.Listing)),
			})
		}
		result.Bookings = append(result.Bookings, *booking)
	}

	return result, nil
}

func (p *DirectParser) normalizeRow(raw rawRow, line int) (*models.CanonicalBooking, *models.RowIssue) {
	if raw.ReservationCode == "" {
		return nil, &models.RowIssue{Line: line, Reason: models.ReasonMissingField, Detail: "reservationCode is empty"}
	}
	// Cross-currency conversion is out of scope; the ledger is EUR only.
	if raw.Currency != "" && !strings.EqualFold(raw.Currency, "EUR") {
		return nil, &models.RowIssue{Line: line, Reason: models.ReasonUnsupportedCurrency, Detail: fmt.Sprintf("currency %q", raw.Currency)}
	}
	if raw.AmountGross == "" {
		return nil, &models.RowIssue{Line: line, Reason: models.ReasonMissingField, Detail: "amountGross is empty"}
	}
	gross, err := strconv.ParseFloat(raw.AmountGross, 64)
	if err != nil {
		return nil, &models.RowIssue{Line: line, Reason: models.ReasonUnparsableAmount, Detail: fmt.Sprintf("invalid amountGross %q", raw.AmountGross)}
	}
	channelFee, _ := strconv.ParseFloat(raw.AmountChannelFee, 64)
	cleaningFee, _ := strconv.ParseFloat(raw.CleaningFee, 64)

	checkin, err := utils.ParseISODate(raw.StartDate)
	if err != nil {
		return nil, &models.RowIssue{Line: line, Reason: models.ReasonInvalidDate, Detail: err.Error()}
	}
	nights, err := strconv.Atoi(raw.Nights)
	if err != nil || nights < 0 {
		return nil, &models.RowIssue{Line: line, Reason: models.ReasonMissingField, Detail: fmt.Sprintf("invalid nights %q", raw.Nights)}
	}

	listing, _ := utils.CanonicalListing(raw.Listing)

	return &models.CanonicalBooking{
		Channel:         models.ChannelDirect,
		SubChannel:      classifyTradeType(raw.TypeTrade),
		Listing:         listing,
		ReservationCode: raw.ReservationCode,
		GuestName:       raw.GuestName,
		Nights:          nights,
		CheckinDate:     checkin,
		CheckoutDate:    checkin.AddDate(0, 0, nights),
		RawAmounts: models.RawAmounts{
			Gross:       gross,
			ChannelFee:  channelFee,
			CleaningFee: cleaningFee,
		},
		Cancelled: strings.Contains(strings.ToLower(raw.Details), "cancel"),
		AddInfo: fmt.Sprintf("typeTrade=%s; details=%s; listing=%s; cleaningFee=%s",
			strings.TrimSpace(raw.TypeTrade), strings.TrimSpace(raw.Details), strings.TrimSpace(raw.Listing), raw.CleaningFee),
	}, nil
}

// classifyTradeType derives the direct-booking sub-channel from the
// free-text trade type.
func classifyTradeType(typeTrade string) string {
	lower := strings.ToLower(typeTrade)
	if strings.Contains(lower, "own") || strings.Contains(lower, "internal") {
		return "internal"
	}
	return "external"
}
