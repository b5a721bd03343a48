// Package factory resolves price feed connectors by identifier.
package factory

import (
	"fmt"

	"github.com/voltplan/voltplan/connectors"
	"github.com/voltplan/voltplan/connectors/clients/dayahead"
)

const (
	IDDayAhead = "day_ahead"
)

var errUnknownClient = "unknown connector id: %s"

// NewPriceClient returns the connector registered under id.
func NewPriceClient(id string) (connectors.PriceClient, error) {
	switch id {
	case IDDayAhead:
		return &dayahead.Client{}, nil
	default:
		return nil, fmt.Errorf(errUnknownClient, id)
	}
}
