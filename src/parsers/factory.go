// backend/src/parsers/factory.go
package parsers

import (
	"fmt"

	"github.com/username/rentledger/backend/src/models"
	"github.com/username/rentledger/backend/src/parsers/airbnb"
	"github.com/username/rentledger/backend/src/parsers/bookingcom"
	"github.com/username/rentledger/backend/src/parsers/direct"
)

func GetParser(channel models.Channel) (Parser, error) {
	switch channel {
	case models.ChannelAirbnb:
		return airbnb.NewParser(), nil
	case models.ChannelBooking:
		return bookingcom.NewParser(), nil
	case models.ChannelDirect:
		return direct.NewParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for channel: %s", channel)
	}
}
