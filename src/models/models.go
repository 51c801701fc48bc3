package models

import "time"

// BookingStatus is the lifecycle state of a reconciled booking. Cancellation
// is a status value, never a deletion; realised/planned is recomputed on
// every pass from the processing date.
type BookingStatus string

const (
	StatusRealised  BookingStatus = "realised"
	StatusPlanned   BookingStatus = "planned"
	StatusCancelled BookingStatus = "cancelled"
)

// ReconciledBooking is the persisted ledger record. Dates are stored as
// ISO strings (yyyy-mm-dd) so the duplicate-detection index can range-scan
// them lexically.
type ReconciledBooking struct {
	ID               int64         `json:"id,omitempty"`
	Administration   string        `json:"administration"`
	SourceFile       string        `json:"source_file"`
	Channel          Channel       `json:"channel"`
	Listing          string        `json:"listing"`
	CheckinDate      string        `json:"checkin_date"`
	CheckoutDate     string        `json:"checkout_date"`
	Nights           int           `json:"nights"`
	Guests           int           `json:"guests"`
	AmountGross      float64       `json:"amount_gross"`
	AmountChannelFee float64       `json:"amount_channel_fee"`
	AmountVat        float64       `json:"amount_vat"`
	AmountTouristTax float64       `json:"amount_tourist_tax"`
	AmountNett       float64       `json:"amount_nett"`
	PricePerNight    *float64      `json:"price_per_night"` // nil when nights = 0
	GuestName        string        `json:"guest_name"`
	ReservationCode  string        `json:"reservation_code"`
	ReservationDate  string        `json:"reservation_date"`
	Status           BookingStatus `json:"status"`
	AddInfo          string        `json:"add_info"`
}

// Row issue reason codes surfaced in batch reports.
const (
	ReasonMissingField        = "missing_required_field"
	ReasonInvalidDate         = "invalid_date"
	ReasonNoApplicableRate    = "no_applicable_tax_rate"
	ReasonZeroNights          = "zero_nights"
	ReasonUnmatchedListing    = "unmatched_listing"
	ReasonUnparsableAmount    = "unparsable_amount"
	ReasonUnsupportedCurrency = "unsupported_currency"
)

// RowIssue records why a single row was skipped or flagged. Line is the
// 1-based line number in the source file where known, 0 otherwise.
type RowIssue struct {
	Line   int    `json:"line,omitempty"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// BatchState tracks a batch through the reconciliation pipeline.
type BatchState string

const (
	BatchParsing       BatchState = "parsing"
	BatchNormalizing   BatchState = "normalizing"
	BatchCalculating   BatchState = "calculating"
	BatchDeduplicating BatchState = "deduplicating"
	BatchCommitted     BatchState = "committed"
	BatchAborted       BatchState = "aborted"
)

// BatchReport is the per-batch account returned to the caller. Every parsed
// row is accounted for: RowsInserted + RowsUpdated + RowsSkipped equals
// RowsParsed. Issues holds only the first N examples; RowsSkipped and
// WarningsTotal carry the full counts.
type BatchReport struct {
	BatchID        string     `json:"batch_id"`
	Administration string     `json:"administration"`
	Channel        Channel    `json:"channel"`
	SourceFile     string     `json:"source_file"`
	State          BatchState `json:"state"`
	ProcessedAt    time.Time  `json:"processed_at"`
	RowsParsed     int        `json:"rows_parsed"`
	RowsInserted   int        `json:"rows_inserted"`
	RowsUpdated    int        `json:"rows_updated"`
	RowsSkipped    int        `json:"rows_skipped"`
	WarningsTotal  int        `json:"warnings_total"`
	Issues         []RowIssue `json:"issues"`
	AbortReason    string     `json:"abort_reason,omitempty"`
}
