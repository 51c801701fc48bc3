// backend/src/ledger/ledger.go
package ledger

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/username/rentledger/backend/src/database"
	"github.com/username/rentledger/backend/src/logger"
	"github.com/username/rentledger/backend/src/models"
	"github.com/username/rentledger/backend/src/utils"
)

const (
	// A reservation code only counts as a duplicate when the stored gross
	// matches within a cent and the stay falls inside the lookback window.
	amountTolerance      = 0.01
	duplicateWindowYears = 2
)

const bookingColumns = `id, administration, source_file, channel, listing, checkin_date, checkout_date,
	nights, guests, amount_gross, amount_channel_fee, amount_vat, amount_tourist_tax, amount_nett,
	price_per_night, guest_name, reservation_code, reservation_date, status, add_info`

// WriteBatch persists one batch of reconciled bookings as a single unit.
// Each row is checked against the ledger first: a duplicate is updated in
// place, everything else is inserted. A unique-constraint violation on
// insert means a concurrent import won the race for that reservation code,
// so the row falls through to the update path. On error nothing is
// committed.
func WriteBatch(bookings []models.ReconciledBooking, processingDate time.Time) (inserted, updated int, err error) {
	dbTx, err := database.DB.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	insertStmt, err := dbTx.Prepare(`INSERT INTO bookings (administration, source_file, channel, listing,
		checkin_date, checkout_date, nights, guests, amount_gross, amount_channel_fee, amount_vat,
		amount_tourist_tax, amount_nett, price_per_night, guest_name, reservation_code, reservation_date,
		status, add_info) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, 0, fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer insertStmt.Close()

	for _, b := range bookings {
		existingID, found, err := findDuplicate(dbTx, b, processingDate)
		if err != nil {
			return 0, 0, err
		}
		if found {
			if err := updateBooking(dbTx, existingID, b); err != nil {
				return 0, 0, err
			}
			updated++
			continue
		}

		pricePerNight := toNullFloat(b.PricePerNight)
		_, err = insertStmt.Exec(b.Administration, b.SourceFile, b.Channel, b.Listing,
			b.CheckinDate, b.CheckoutDate, b.Nights, b.Guests, b.AmountGross, b.AmountChannelFee,
			b.AmountVat, b.AmountTouristTax, b.AmountNett, pricePerNight, b.GuestName,
			b.ReservationCode, b.ReservationDate, b.Status, b.AddInfo)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
				// Same reservation code landed outside the duplicate window
				// or with a different amount. Re-import semantics apply
				// either way: refresh the existing row.
				logger.L.Debug("Insert hit uniqueness constraint, switching to update",
					"administration", b.Administration, "reservationCode", b.ReservationCode)
				if err := updateByReservationCode(dbTx, b); err != nil {
					return 0, 0, err
				}
				updated++
				continue
			}
			return 0, 0, fmt.Errorf("error inserting booking (reservation %s): %w", b.ReservationCode, err)
		}
		inserted++
	}

	if err := dbTx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("error committing batch: %w", err)
	}
	return inserted, updated, nil
}

// findDuplicate looks for an existing ledger row with the same reservation
// code, a gross amount within tolerance, and a check-in inside the
// preceding two years of the processing date. Runs against the
// (reservation_code, checkin_date, amount_gross) index.
func findDuplicate(dbTx *sql.Tx, b models.ReconciledBooking, processingDate time.Time) (int64, bool, error) {
	windowStart := utils.FormatISODate(processingDate.AddDate(-duplicateWindowYears, 0, 0))

	var id int64
	err := dbTx.QueryRow(`SELECT id FROM bookings
		WHERE administration = ? AND channel = ? AND reservation_code = ?
		AND checkin_date >= ?
		AND amount_gross > ? AND amount_gross < ?
		LIMIT 1`,
		b.Administration, b.Channel, b.ReservationCode, windowStart,
		b.AmountGross-amountTolerance, b.AmountGross+amountTolerance).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("error checking for duplicate of reservation %s: %w", b.ReservationCode, err)
	}
	return id, true, nil
}

func updateBooking(dbTx *sql.Tx, id int64, b models.ReconciledBooking) error {
	_, err := dbTx.Exec(`UPDATE bookings SET source_file = ?, listing = ?, checkin_date = ?,
		checkout_date = ?, nights = ?, guests = ?, amount_gross = ?, amount_channel_fee = ?,
		amount_vat = ?, amount_tourist_tax = ?, amount_nett = ?, price_per_night = ?, guest_name = ?,
		reservation_date = ?, status = ?, add_info = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		b.SourceFile, b.Listing, b.CheckinDate, b.CheckoutDate, b.Nights, b.Guests,
		b.AmountGross, b.AmountChannelFee, b.AmountVat, b.AmountTouristTax, b.AmountNett,
		toNullFloat(b.PricePerNight), b.GuestName, b.ReservationDate, b.Status, b.AddInfo, id)
	if err != nil {
		return fmt.Errorf("error updating booking id %d (reservation %s): %w", id, b.ReservationCode, err)
	}
	return nil
}

func updateByReservationCode(dbTx *sql.Tx, b models.ReconciledBooking) error {
	var id int64
	err := dbTx.QueryRow(`SELECT id FROM bookings WHERE administration = ? AND channel = ? AND reservation_code = ?`,
		b.Administration, b.Channel, b.ReservationCode).Scan(&id)
	if err != nil {
		return fmt.Errorf("error locating booking for reservation %s after constraint hit: %w", b.ReservationCode, err)
	}
	return updateBooking(dbTx, id, b)
}

// FetchBookings returns all ledger rows for one administration, newest
// check-in first.
func FetchBookings(administration string) ([]models.ReconciledBooking, error) {
	logger.L.Debug("Fetching bookings from DB", "administration", administration)
	rows, err := database.DB.Query(`SELECT `+bookingColumns+` FROM bookings
		WHERE administration = ? ORDER BY checkin_date DESC, id DESC`, administration)
	if err != nil {
		return nil, fmt.Errorf("error querying bookings for administration %s: %w", administration, err)
	}
	defer rows.Close()

	var bookings []models.ReconciledBooking
	for rows.Next() {
		var b models.ReconciledBooking
		var pricePerNight sql.NullFloat64
		scanErr := rows.Scan(&b.ID, &b.Administration, &b.SourceFile, &b.Channel, &b.Listing,
			&b.CheckinDate, &b.CheckoutDate, &b.Nights, &b.Guests, &b.AmountGross, &b.AmountChannelFee,
			&b.AmountVat, &b.AmountTouristTax, &b.AmountNett, &pricePerNight, &b.GuestName,
			&b.ReservationCode, &b.ReservationDate, &b.Status, &b.AddInfo)
		if scanErr != nil {
			return nil, fmt.Errorf("error scanning booking row for administration %s: %w", administration, scanErr)
		}
		if pricePerNight.Valid {
			v := pricePerNight.Float64
			b.PricePerNight = &v
		}
		bookings = append(bookings, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over booking rows for administration %s: %w", administration, err)
	}
	logger.L.Info("DB fetch complete.", "administration", administration, "bookingCount", len(bookings))
	return bookings, nil
}

// DeleteAll wipes one administration's partition of the ledger.
func DeleteAll(administration string) (int64, error) {
	res, err := database.DB.Exec(`DELETE FROM bookings WHERE administration = ?`, administration)
	if err != nil {
		return 0, fmt.Errorf("error deleting bookings for administration %s: %w", administration, err)
	}
	deleted, _ := res.RowsAffected()
	logger.L.Info("Deleted bookings", "administration", administration, "count", deleted)
	return deleted, nil
}

func toNullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
