package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/rentledger/backend/src/database"
	"github.com/username/rentledger/backend/src/logger"
	"github.com/username/rentledger/backend/src/models"
	"github.com/username/rentledger/backend/src/processors"
	"github.com/username/rentledger/backend/src/taxrates"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")

	dir, err := os.MkdirTemp("", "import-service-test-*")
	if err != nil {
		panic(err)
	}
	database.InitDB(filepath.Join(dir, "test.db"))

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func newTestService(t *testing.T) *importServiceImpl {
	t.Helper()
	schedule := taxrates.DefaultSchedule()
	calculator := processors.NewAmountCalculator(1.03357, 0.15)
	return &importServiceImpl{
		schedule:         schedule,
		bookingProcessor: processors.NewBookingProcessor(schedule, calculator),
		notifier:         &NoopNotifier{},
		reportCache:      cache.New(DefaultCacheExpiration, CacheCleanupInterval),
		maxIssueExamples: 10,
		now:              func() time.Time { return time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC) },
	}
}

func clearLedger(t *testing.T) {
	t.Helper()
	_, err := database.DB.Exec("DELETE FROM bookings")
	require.NoError(t, err)
}

const bookingHeader = "Book number,Booked by,Unit type,Check-in,Check-out,Duration (nights),Persons,Booked on,Status,Price,Commission amount,Commission %,Payment status"

func bookingRow(code string, checkin string, price string) string {
	return fmt.Sprintf("%s,Jan de Vries,Garden child-friendly house,%s,,2,2,2026-01-05,ok,%s,15.20 EUR,12.00,paid", code, checkin, price)
}

// Nine well-formed rows plus one with the price column blanked out.
func testExport() string {
	lines := []string{bookingHeader}
	for i := 1; i <= 9; i++ {
		lines = append(lines, bookingRow(fmt.Sprintf("BK-%04d", i), fmt.Sprintf("2026-02-%02d", i), "126.63 EUR"))
	}
	lines = append(lines, bookingRow("BK-0010", "2026-02-10", ""))
	return strings.Join(lines, "\n")
}

func TestProcessImportCommitsValidRowsAndReportsSkips(t *testing.T) {
	clearLedger(t)
	svc := newTestService(t)

	report, err := svc.ProcessImport(strings.NewReader(testExport()), "admin-a", models.ChannelBooking, "export.csv")
	require.NoError(t, err)

	assert.Equal(t, models.BatchCommitted, report.State)
	assert.Equal(t, 10, report.RowsParsed)
	assert.Equal(t, 9, report.RowsInserted)
	assert.Equal(t, 0, report.RowsUpdated)
	assert.Equal(t, 1, report.RowsSkipped)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, 11, report.Issues[0].Line)
	assert.Equal(t, models.ReasonMissingField, report.Issues[0].Reason)

	bookings, err := svc.Bookings("admin-a")
	require.NoError(t, err)
	require.Len(t, bookings, 9)
	assert.Equal(t, 146.59, bookings[0].AmountGross)
}

func TestProcessImportIsIdempotent(t *testing.T) {
	clearLedger(t)
	svc := newTestService(t)

	_, err := svc.ProcessImport(strings.NewReader(testExport()), "admin-a", models.ChannelBooking, "export.csv")
	require.NoError(t, err)

	report, err := svc.ProcessImport(strings.NewReader(testExport()), "admin-a", models.ChannelBooking, "export.csv")
	require.NoError(t, err)
	assert.Equal(t, 0, report.RowsInserted)
	assert.Equal(t, 9, report.RowsUpdated)

	bookings, err := svc.Bookings("admin-a")
	require.NoError(t, err)
	assert.Len(t, bookings, 9)
}

func TestProcessImportUnknownChannelFailsParsing(t *testing.T) {
	svc := newTestService(t)

	report, err := svc.ProcessImport(strings.NewReader(testExport()), "admin-a", models.Channel("ebay"), "export.csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParsingFailed)
	assert.Equal(t, models.BatchAborted, report.State)
}

func TestProcessImportUnreadableFileFailsParsing(t *testing.T) {
	svc := newTestService(t)

	report, err := svc.ProcessImport(strings.NewReader("Book number,Price\n\"unterminated"), "admin-a", models.ChannelBooking, "broken.csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParsingFailed)
	assert.Equal(t, models.BatchAborted, report.State)
}

func TestProcessImportAbortsWhenNoRateAppliesToAnyRow(t *testing.T) {
	clearLedger(t)
	svc := newTestService(t)

	// Every check-in predates the earliest schedule entry.
	export := strings.Join([]string{
		bookingHeader,
		bookingRow("BK-1", "2015-06-01", "126.63 EUR"),
		bookingRow("BK-2", "2016-06-01", "126.63 EUR"),
	}, "\n")

	report, err := svc.ProcessImport(strings.NewReader(export), "admin-a", models.ChannelBooking, "ancient.csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBatchAborted)
	assert.Equal(t, models.BatchAborted, report.State)
	assert.Equal(t, 2, report.RowsSkipped)

	// An aborted batch leaves no partial writes behind.
	bookings, err := svc.Bookings("admin-a")
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestProcessImportCapsIssueExamples(t *testing.T) {
	clearLedger(t)
	svc := newTestService(t)
	svc.maxIssueExamples = 2

	lines := []string{bookingHeader}
	for i := 1; i <= 4; i++ {
		lines = append(lines, bookingRow(fmt.Sprintf("BK-%d", i), fmt.Sprintf("2026-02-0%d", i), ""))
	}
	lines = append(lines, bookingRow("BK-OK", "2026-02-09", "126.63 EUR"))

	report, err := svc.ProcessImport(strings.NewReader(strings.Join(lines, "\n")), "admin-a", models.ChannelBooking, "export.csv")
	require.NoError(t, err)
	assert.Equal(t, 4, report.RowsSkipped)
	assert.Len(t, report.Issues, 2)
}

func TestLatestBatchReport(t *testing.T) {
	clearLedger(t)
	svc := newTestService(t)

	_, err := svc.LatestBatchReport("admin-a")
	require.Error(t, err)

	committed, err := svc.ProcessImport(strings.NewReader(testExport()), "admin-a", models.ChannelBooking, "export.csv")
	require.NoError(t, err)

	latest, err := svc.LatestBatchReport("admin-a")
	require.NoError(t, err)
	assert.Equal(t, committed.BatchID, latest.BatchID)

	_, err = svc.LatestBatchReport("admin-b")
	require.Error(t, err)
}

func TestDeleteBookingsInvalidatesCache(t *testing.T) {
	clearLedger(t)
	svc := newTestService(t)

	_, err := svc.ProcessImport(strings.NewReader(testExport()), "admin-a", models.ChannelBooking, "export.csv")
	require.NoError(t, err)

	// Prime the cache, then delete through the service.
	bookings, err := svc.Bookings("admin-a")
	require.NoError(t, err)
	require.Len(t, bookings, 9)

	deleted, err := svc.DeleteBookings("admin-a")
	require.NoError(t, err)
	assert.Equal(t, int64(9), deleted)

	bookings, err = svc.Bookings("admin-a")
	require.NoError(t, err)
	assert.Empty(t, bookings)
}
