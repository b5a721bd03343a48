// Package connectors defines the outbound clients that supply day-ahead
// prices to the control plane. The core never forecasts prices; connectors
// fetch them from an external market API.
package connectors

import (
	"github.com/voltplan/voltplan/auth"
	"github.com/voltplan/voltplan/core/model"
)

// PriceClient fetches hour-aligned day-ahead prices for one price area.
type PriceClient interface {
	Fetch(authClient *auth.ClientCred, opts ...Option) ([]model.PriceUpdate, error)
}

// Option configures a client before a fetch.
type Option func(PriceClient) error

// ErrIncompatibleOption formats the error for an option applied to the
// wrong client type.
const ErrIncompatibleOption = "option %s is not compatible with client %s"
