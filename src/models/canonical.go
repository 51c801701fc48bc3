// backend/src/models/canonical.go
package models

import "time"

// Channel identifies the sales platform a booking came through. Downstream
// code switches on this closed set; new platforms are added here and get
// their own parser, never a string branch elsewhere.
type Channel string

const (
	ChannelAirbnb  Channel = "airbnb"
	ChannelBooking Channel = "booking"
	ChannelDirect  Channel = "direct"
)

// CanonicalBooking is the unified, intermediate representation of one
// export row. Each parser is responsible for populating these fields
// directly from its source file, including the cancellation flag derived
// from the channel's status text.
type CanonicalBooking struct {
	Channel         Channel    `json:"channel"`
	SubChannel      string     `json:"sub_channel,omitempty"` // direct bookings only, e.g. "internal", "external"
	Listing         string     `json:"listing"`               // canonical listing name, or raw unit name if unmatched
	ReservationCode string     `json:"reservation_code"`
	GuestName       string     `json:"guest_name"`
	Guests          int        `json:"guests"`
	Nights          int        `json:"nights"`
	CheckinDate     time.Time  `json:"checkin_date"`
	CheckoutDate    time.Time  `json:"checkout_date"`
	ReservationDate time.Time  `json:"reservation_date"`
	RawAmounts      RawAmounts `json:"raw_amounts"`
	Cancelled       bool       `json:"cancelled"`
	AddInfo         string     `json:"add_info"` // audit trail of original channel fields
}

// RawAmounts carries the channel-specific pre-tax figures the amount
// calculator starts from. Which fields are meaningful depends on Channel:
// booking fills BasePrice and CommissionAmount, airbnb fills Payout,
// direct fills Gross, ChannelFee and CleaningFee.
type RawAmounts struct {
	BasePrice        float64 `json:"base_price,omitempty"`
	CommissionAmount float64 `json:"commission_amount,omitempty"`
	Payout           float64 `json:"payout,omitempty"`
	Gross            float64 `json:"gross,omitempty"`
	ChannelFee       float64 `json:"channel_fee,omitempty"`
	CleaningFee      float64 `json:"cleaning_fee,omitempty"`
}

// ParseResult is what a channel parser hands back: the rows it could
// normalize plus an account of every row it could not. Skipped rows never
// abort a batch; they end up in the batch report.
type ParseResult struct {
	Bookings []CanonicalBooking
	Skipped  []RowIssue
	Warnings []RowIssue
}
