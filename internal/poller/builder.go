// internal/poller/builder.go
package poller

import (
	"errors"
	"time"

	cfg "github.com/tamzrod/med-dispenser/internal/config"
)

// Build constructs the button poller from the I/O module config.
// The client is shared with the indicator writer and owned by the caller.
func Build(io *cfg.IOConfig, client Client) (*Poller, error) {
	if io == nil {
		return nil, errors.New("poller: io module not configured")
	}
	return New(
		Config{
			UnitID:   io.UnitID,
			Input:    io.ButtonInput,
			Interval: time.Duration(io.ButtonPollMs) * time.Millisecond,
		},
		client,
	)
}
