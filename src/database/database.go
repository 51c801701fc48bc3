package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/rentledger/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateBookingsTable()

	// UNIQUE(administration, channel, reservation_code) serializes the
	// duplicate check against concurrent imports: a racing insert collapses
	// into the update path instead of creating a second row. The dedupe
	// index keeps the per-row duplicate lookup under its latency budget.
	createTableStatement := `
	CREATE TABLE IF NOT EXISTS bookings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		administration TEXT NOT NULL,
		source_file TEXT NOT NULL,
		channel TEXT NOT NULL,
		listing TEXT NOT NULL,
		checkin_date TEXT NOT NULL,
		checkout_date TEXT NOT NULL,
		nights INTEGER NOT NULL,
		guests INTEGER NOT NULL DEFAULT 0,
		amount_gross REAL NOT NULL,
		amount_channel_fee REAL NOT NULL,
		amount_vat REAL NOT NULL,
		amount_tourist_tax REAL NOT NULL,
		amount_nett REAL NOT NULL,
		price_per_night REAL,
		guest_name TEXT,
		reservation_code TEXT NOT NULL,
		reservation_date TEXT,
		status TEXT NOT NULL,
		add_info TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(administration, channel, reservation_code)
	);

	CREATE INDEX IF NOT EXISTS idx_bookings_dedupe
		ON bookings(reservation_code, checkin_date, amount_gross);
	CREATE INDEX IF NOT EXISTS idx_bookings_administration
		ON bookings(administration, checkin_date);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

func migrateBookingsTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='bookings'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Info("'bookings' table does not exist, no migration needed as table will be created.")
			} else {
				stdlog.Println("'bookings' table does not exist, no migration needed as table will be created.")
			}
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'bookings' table", "error", err)
		} else {
			stdlog.Printf("Error checking for 'bookings' table: %v", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(bookings)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'bookings'", "error", err)
		} else {
			stdlog.Printf("Error querying table schema for 'bookings': %v", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'bookings'", "error", err)
			} else {
				stdlog.Printf("Error scanning column info for 'bookings': %v", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'bookings'", "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for 'bookings': %v", err)
		}
		return
	}

	// price_per_night and guests arrived after the first ledger deployments.
	if _, ok := columnExists["price_per_night"]; !ok {
		_, err := DB.Exec("ALTER TABLE bookings ADD COLUMN price_per_night REAL")
		if err != nil {
			logger.L.Error("Error adding 'price_per_night' column to 'bookings' table", "error", err)
		} else {
			logger.L.Info("Added 'price_per_night' column to 'bookings' table")
		}
	}
	if _, ok := columnExists["guests"]; !ok {
		_, err := DB.Exec("ALTER TABLE bookings ADD COLUMN guests INTEGER NOT NULL DEFAULT 0")
		if err != nil {
			logger.L.Error("Error adding 'guests' column to 'bookings' table", "error", err)
		} else {
			logger.L.Info("Added 'guests' column to 'bookings' table")
		}
	}
	if _, ok := columnExists["updated_at"]; !ok {
		// SQLite cannot ADD COLUMN with a non-constant default; the update
		// path stamps this column explicitly anyway.
		_, err := DB.Exec("ALTER TABLE bookings ADD COLUMN updated_at TIMESTAMP")
		if err != nil {
			logger.L.Error("Error adding 'updated_at' column to 'bookings' table", "error", err)
		} else {
			logger.L.Info("Added 'updated_at' column to 'bookings' table")
		}
	}
}
