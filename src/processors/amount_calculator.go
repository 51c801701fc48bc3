// backend/src/processors/amount_calculator.go
package processors

import (
	"github.com/username/rentledger/backend/src/models"
	"github.com/username/rentledger/backend/src/taxrates"
	"github.com/username/rentledger/backend/src/utils"
)

// AmountBreakdown is the result of the computation pipeline. The invariant
// Gross = Nett + Vat + TouristTax + ChannelFee holds within 0.01.
// PricePerNight is nil when the booking has zero nights.
type AmountBreakdown struct {
	Gross         float64
	ChannelFee    float64
	Vat           float64
	TouristTax    float64
	Nett          float64
	PricePerNight *float64
}

// AmountCalculator applies the resolved tax rates to a canonical booking.
// The steps run in a fixed order with half-up rounding to 2 decimals after
// every step; reordering or deferring the rounding shifts totals by up to
// a cent.
type AmountCalculator struct {
	// upliftFactor converts the booking channel's commissionable price
	// into the VAT-inclusive gross guest-paid amount.
	upliftFactor float64
	// airbnbFeeFactor back-computes gross from the airbnb net payout.
	airbnbFeeFactor float64
}

func NewAmountCalculator(upliftFactor, airbnbFeeFactor float64) *AmountCalculator {
	return &AmountCalculator{
		upliftFactor:    upliftFactor,
		airbnbFeeFactor: airbnbFeeFactor,
	}
}

// Calculate computes the monetary breakdown for one booking.
func (c *AmountCalculator) Calculate(b models.CanonicalBooking, rate taxrates.Rate) AmountBreakdown {
	var gross, channelFee float64

	// Step 1-2: channel-specific gross and fee derivation.
	switch b.Channel {
	case models.ChannelBooking:
		gross = utils.RoundMoney((b.RawAmounts.BasePrice + b.RawAmounts.CommissionAmount) * c.upliftFactor)
		channelFee = utils.RoundMoney(gross - b.RawAmounts.BasePrice)
	case models.ChannelAirbnb:
		gross = utils.RoundMoney(b.RawAmounts.Payout * (1 + c.airbnbFeeFactor))
		channelFee = utils.RoundMoney(gross - b.RawAmounts.Payout)
	default:
		gross = utils.RoundMoney(b.RawAmounts.Gross)
		channelFee = utils.RoundMoney(b.RawAmounts.ChannelFee)
	}

	// Step 3: VAT backed out of the inclusive gross.
	vat := utils.RoundMoney((gross / rate.VatBasePercent) * rate.VatRatePercent)

	// Step 4: tourist tax is always computed on the VAT-exclusive amount.
	touristTax := utils.RoundMoney(((gross - vat) / rate.TouristTaxBasePercent) * rate.TouristTaxRatePercent)

	// Step 5: nett is the remainder, keeping the gross invariant exact.
	nett := utils.RoundMoney(gross - vat - touristTax - channelFee)

	breakdown := AmountBreakdown{
		Gross:      gross,
		ChannelFee: channelFee,
		Vat:        vat,
		TouristTax: touristTax,
		Nett:       nett,
	}

	// Step 6: price per night, left unset on zero nights. The caller
	// records the zero-nights warning; the booking itself still commits.
	if b.Nights > 0 {
		ppn := utils.RoundMoney(nett / float64(b.Nights))
		breakdown.PricePerNight = &ppn
	}
	return breakdown
}
