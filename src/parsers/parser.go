// backend/src/parsers/parser.go
package parsers

import (
	"io"

	"github.com/username/rentledger/backend/src/models"
)

// Parser normalizes one channel's export file into canonical bookings.
// A non-nil error means the file itself was unreadable (batch-fatal);
// row-level problems are accounted for in the ParseResult instead.
type Parser interface {
	Parse(file io.Reader) (*models.ParseResult, error)
}
