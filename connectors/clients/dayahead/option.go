package dayahead

import (
	"fmt"
	"time"

	"github.com/voltplan/voltplan/connectors"
)

func with(apply func(*Client)) connectors.Option {
	return func(c connectors.PriceClient) error {
		if d, ok := c.(*Client); ok {
			apply(d)
			return nil
		}
		return fmt.Errorf(connectors.ErrIncompatibleOption, "dayahead option", "day_ahead")
	}
}

// WithBaseURL sets the API endpoint.
func WithBaseURL(url string) connectors.Option {
	return with(func(c *Client) { c.baseURL = url })
}

// WithArea sets the price area code.
func WithArea(area string) connectors.Option {
	return with(func(c *Client) { c.area = area })
}

// WithStartDate sets the window start.
func WithStartDate(t time.Time) connectors.Option {
	return with(func(c *Client) { c.startDate = t })
}

// WithEndDate sets the window end.
func WithEndDate(t time.Time) connectors.Option {
	return with(func(c *Client) { c.endDate = t })
}
