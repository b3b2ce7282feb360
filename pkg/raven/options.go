package raven

import (
	"log/slog"
	"net/http"

	"github.com/camkit/hallbook/pkg/bookings"
)

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithConfig sets custom endpoint and transport configuration.
func WithConfig(cfg Config) Option {
	return func(c *Client) {
		c.config = cfg
	}
}

// WithLogger sets the logger for session lifecycle events.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithHTTPClient replaces the default HTTP client. The client's cookie
// jar, if any, is replaced by the session jar; its transport and
// timeout are kept.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.http = httpClient
		}
	}
}

// WithBookingStore sets the durable store backing the booking cache.
// Defaults to an in-memory store, in which case bookings do not survive
// restarts.
func WithBookingStore(store bookings.Store) Option {
	return func(c *Client) {
		c.bookingStore = store
	}
}
