package scheduler

import (
	"errors"

	"github.com/voltplan/voltplan/auth"
)

// Config defines the recurring job parameters loaded from configuration.
type Config struct {
	// PricePollMinutes is the interval between price feed polls; 0 selects
	// the default of 60 and a negative value disables polling.
	PricePollMinutes int `json:"price_poll_minutes"`
	// NightlySweepHour is the UTC hour of the daily full replan sweep; 0
	// selects the default of 3 and a negative value disables the sweep.
	NightlySweepHour int `json:"nightly_sweep_hour"`
	// Connector selects the price client (see connectors/factory).
	Connector string `json:"connector"`
	// PriceAPIURL is the market API endpoint.
	PriceAPIURL string `json:"price_api_url"`
	// PriceAreas lists the price codes to poll.
	PriceAreas []string  `json:"price_areas"`
	Auth       auth.Conf `json:"auth"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.PricePollMinutes == 0 {
		c.PricePollMinutes = 60
	}
	if c.NightlySweepHour == 0 {
		c.NightlySweepHour = 3
	}
	if c.Connector == "" {
		c.Connector = "day_ahead"
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.PricePollMinutes > 0 && len(c.PriceAreas) > 0 && c.PriceAPIURL == "" {
		return errors.New("price_api_url is required when polling is enabled")
	}
	return nil
}
