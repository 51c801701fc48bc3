package services

import (
	"errors"
	"io"

	"github.com/username/rentledger/backend/src/models"
)

var (
	// ErrParsingFailed wraps unreadable or structurally broken export
	// files. Batch-fatal: nothing is written.
	ErrParsingFailed = errors.New("file parsing failed")
	// ErrBatchAborted means no row in the batch could be reconciled
	// (empty tax schedule, or no schedule entry applies to any row).
	ErrBatchAborted = errors.New("batch aborted")
)

// ImportService drives the reconciliation pipeline for uploaded export
// files and exposes the resulting ledger.
type ImportService interface {
	ProcessImport(fileReader io.Reader, administration string, channel models.Channel, fileName string) (*models.BatchReport, error)
	LatestBatchReport(administration string) (*models.BatchReport, error)
	Bookings(administration string) ([]models.ReconciledBooking, error)
	DeleteBookings(administration string) (int64, error)
}

// BatchNotifier is told about committed batches. Implementations must be
// best-effort: a failed notification never fails the batch.
type BatchNotifier interface {
	NotifyBatchCommitted(report *models.BatchReport) error
}
