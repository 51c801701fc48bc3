// backend/src/processors/booking_processor.go
package processors

import (
	"errors"
	"fmt"
	"time"

	"github.com/username/rentledger/backend/src/models"
	"github.com/username/rentledger/backend/src/taxrates"
	"github.com/username/rentledger/backend/src/utils"
)

// BookingProcessor turns canonical bookings into ledger-ready reconciled
// records: tax-rate resolution, amount computation, status classification.
// It performs no I/O; the ledger write happens afterwards in one unit.
type BookingProcessor struct {
	schedule   *taxrates.Schedule
	calculator *AmountCalculator
}

func NewBookingProcessor(schedule *taxrates.Schedule, calculator *AmountCalculator) *BookingProcessor {
	return &BookingProcessor{schedule: schedule, calculator: calculator}
}

// Process computes reconciled bookings for one batch. Rows whose check-in
// date has no applicable tax rate are skipped (returned in the issue list);
// zero-nights rows are committed with a warning and a NULL price per night.
func (p *BookingProcessor) Process(administration, sourceFile string, bookings []models.CanonicalBooking, processingDate time.Time) ([]models.ReconciledBooking, []models.RowIssue, []models.RowIssue) {
	var (
		processed []models.ReconciledBooking
		skipped   []models.RowIssue
		warnings  []models.RowIssue
	)

	for _, b := range bookings {
		rate, err := p.schedule.Resolve(b.CheckinDate)
		if err != nil {
			if errors.Is(err, taxrates.ErrNoApplicableRate) {
				skipped = append(skipped, models.RowIssue{
					Reason: models.ReasonNoApplicableRate,
					Detail: fmt.Sprintf("reservation %s: %v", b.ReservationCode, err),
				})
				continue
			}
			skipped = append(skipped, models.RowIssue{
				Reason: models.ReasonNoApplicableRate,
				Detail: err.Error(),
			})
			continue
		}

		breakdown := p.calculator.Calculate(b, rate)
		if breakdown.PricePerNight == nil {
			warnings = append(warnings, models.RowIssue{
				Reason: models.ReasonZeroNights,
				Detail: fmt.Sprintf("reservation %s has zero nights, price per night left empty", b.ReservationCode),
			})
		}

		processed = append(processed, models.ReconciledBooking{
			Administration:   administration,
			SourceFile:       sourceFile,
			Channel:          b.Channel,
			Listing:          b.Listing,
			CheckinDate:      utils.FormatISODate(b.CheckinDate),
			CheckoutDate:     utils.FormatISODate(b.CheckoutDate),
			Nights:           b.Nights,
			Guests:           b.Guests,
			AmountGross:      breakdown.Gross,
			AmountChannelFee: breakdown.ChannelFee,
			AmountVat:        breakdown.Vat,
			AmountTouristTax: breakdown.TouristTax,
			AmountNett:       breakdown.Nett,
			PricePerNight:    breakdown.PricePerNight,
			GuestName:        b.GuestName,
			ReservationCode:  b.ReservationCode,
			ReservationDate:  utils.FormatISODate(b.ReservationDate),
			Status:           ClassifyStatus(b, processingDate),
			AddInfo:          buildAddInfo(b),
		})
	}

	return processed, skipped, warnings
}

func buildAddInfo(b models.CanonicalBooking) string {
	if b.SubChannel == "" {
		return b.AddInfo
	}
	return fmt.Sprintf("subChannel=%s; %s", b.SubChannel, b.AddInfo)
}
