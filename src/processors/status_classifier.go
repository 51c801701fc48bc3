// backend/src/processors/status_classifier.go
package processors

import (
	"time"

	"github.com/username/rentledger/backend/src/models"
)

// ClassifyStatus assigns the booking lifecycle state. A cancellation flag
// from the channel is terminal; otherwise the decision is purely check-in
// date versus processing date. Status is recomputed on every pass, no
// transitions are tracked.
func ClassifyStatus(b models.CanonicalBooking, processingDate time.Time) models.BookingStatus {
	if b.Cancelled {
		return models.StatusCancelled
	}
	if b.CheckinDate.After(processingDate) {
		return models.StatusPlanned
	}
	return models.StatusRealised
}
