// backend/src/services/import_service.go
package services

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/username/rentledger/backend/src/ledger"
	"github.com/username/rentledger/backend/src/logger"
	"github.com/username/rentledger/backend/src/models"
	"github.com/username/rentledger/backend/src/parsers"
	"github.com/username/rentledger/backend/src/processors"
	"github.com/username/rentledger/backend/src/taxrates"
)

const (
	ckLatestBatchReport = "agg_latest_batch_report_admin_%s"
	ckBookings          = "res_bookings_admin_%s"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type importServiceImpl struct {
	schedule         *taxrates.Schedule
	bookingProcessor *processors.BookingProcessor
	notifier         BatchNotifier
	reportCache      *cache.Cache
	maxIssueExamples int
	now              func() time.Time
}

func NewImportService(
	schedule *taxrates.Schedule,
	bookingProcessor *processors.BookingProcessor,
	notifier BatchNotifier,
	reportCache *cache.Cache,
	maxIssueExamples int,
) ImportService {
	return &importServiceImpl{
		schedule:         schedule,
		bookingProcessor: bookingProcessor,
		notifier:         notifier,
		reportCache:      reportCache,
		maxIssueExamples: maxIssueExamples,
		now:              time.Now,
	}
}

// ProcessImport runs one batch through the pipeline:
// parse -> normalize -> calculate -> dedupe -> commit. Row-level problems
// divert single rows into the batch report; only an unreadable file or a
// schedule that applies to no row aborts the batch, and an aborted batch
// leaves no partial writes behind (the ledger write is one DB transaction).
func (s *importServiceImpl) ProcessImport(fileReader io.Reader, administration string, channel models.Channel, fileName string) (*models.BatchReport, error) {
	overallStartTime := time.Now()
	processingDate := s.now()

	report := &models.BatchReport{
		BatchID:        uuid.NewString(),
		Administration: administration,
		Channel:        channel,
		SourceFile:     fileName,
		State:          models.BatchParsing,
		ProcessedAt:    processingDate,
		Issues:         []models.RowIssue{},
	}
	logger.L.Info("ProcessImport START", "batchID", report.BatchID,
		"administration", administration, "channel", channel, "sourceFile", fileName)

	parser, err := parsers.GetParser(channel)
	if err != nil {
		report.State = models.BatchAborted
		report.AbortReason = err.Error()
		return report, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	parseResult, err := parser.Parse(fileReader)
	if err != nil {
		report.State = models.BatchAborted
		report.AbortReason = err.Error()
		return report, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	report.State = models.BatchNormalizing
	report.RowsParsed = len(parseResult.Bookings) + len(parseResult.Skipped)

	if s.schedule.Empty() {
		report.State = models.BatchAborted
		report.AbortReason = "tax rate schedule is empty"
		return report, fmt.Errorf("%w: tax rate schedule is empty", ErrBatchAborted)
	}

	report.State = models.BatchCalculating
	processed, taxSkipped, calcWarnings := s.bookingProcessor.Process(administration, fileName, parseResult.Bookings, processingDate)

	allSkipped := append(append([]models.RowIssue{}, parseResult.Skipped...), taxSkipped...)
	allWarnings := append(append([]models.RowIssue{}, parseResult.Warnings...), calcWarnings...)

	// If rows were normalized but none survived tax resolution, the
	// schedule does not cover the batch's date range at all.
	if len(parseResult.Bookings) > 0 && len(processed) == 0 {
		report.State = models.BatchAborted
		report.AbortReason = "no tax schedule entry applies to any row in the batch"
		s.fillIssueAccounting(report, allSkipped, allWarnings)
		return report, fmt.Errorf("%w: no tax schedule entry applies to any row", ErrBatchAborted)
	}

	report.State = models.BatchDeduplicating
	inserted, updated, err := ledger.WriteBatch(processed, processingDate)
	if err != nil {
		report.State = models.BatchAborted
		report.AbortReason = err.Error()
		return report, fmt.Errorf("error writing batch to ledger: %w", err)
	}

	report.State = models.BatchCommitted
	report.RowsInserted = inserted
	report.RowsUpdated = updated
	s.fillIssueAccounting(report, allSkipped, allWarnings)

	s.invalidateAdministrationCache(administration)
	s.reportCache.Set(fmt.Sprintf(ckLatestBatchReport, administration), report, cache.NoExpiration)

	if err := s.notifier.NotifyBatchCommitted(report); err != nil {
		// Best effort only; the batch is already committed.
		logger.L.Warn("Batch notification failed", "batchID", report.BatchID, "error", err)
	}

	logger.L.Info("ProcessImport END", "batchID", report.BatchID,
		"inserted", inserted, "updated", updated, "skipped", report.RowsSkipped,
		"duration", time.Since(overallStartTime))
	return report, nil
}

// fillIssueAccounting folds skip/warning lists into the report: full counts
// always, verbatim examples capped at maxIssueExamples.
func (s *importServiceImpl) fillIssueAccounting(report *models.BatchReport, skipped, warnings []models.RowIssue) {
	report.RowsSkipped = len(skipped)
	report.WarningsTotal = len(warnings)

	examples := make([]models.RowIssue, 0, s.maxIssueExamples)
	for _, issue := range skipped {
		if len(examples) >= s.maxIssueExamples {
			break
		}
		examples = append(examples, issue)
	}
	for _, issue := range warnings {
		if len(examples) >= s.maxIssueExamples {
			break
		}
		examples = append(examples, issue)
	}
	report.Issues = examples
}

func (s *importServiceImpl) invalidateAdministrationCache(administration string) {
	s.reportCache.Delete(fmt.Sprintf(ckBookings, administration))
	logger.L.Debug("Invalidated bookings cache", "administration", administration)
}

func (s *importServiceImpl) LatestBatchReport(administration string) (*models.BatchReport, error) {
	cacheKey := fmt.Sprintf(ckLatestBatchReport, administration)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(*models.BatchReport), nil
	}
	return nil, errors.New("no batch has been processed for this administration")
}

func (s *importServiceImpl) Bookings(administration string) ([]models.ReconciledBooking, error) {
	cacheKey := fmt.Sprintf(ckBookings, administration)
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for bookings", "administration", administration)
		return cached.([]models.ReconciledBooking), nil
	}

	bookings, err := ledger.FetchBookings(administration)
	if err != nil {
		return nil, err
	}
	s.reportCache.Set(cacheKey, bookings, DefaultCacheExpiration)
	return bookings, nil
}

func (s *importServiceImpl) DeleteBookings(administration string) (int64, error) {
	deleted, err := ledger.DeleteAll(administration)
	if err != nil {
		return 0, err
	}
	s.invalidateAdministrationCache(administration)
	s.reportCache.Delete(fmt.Sprintf(ckLatestBatchReport, administration))
	return deleted, nil
}
