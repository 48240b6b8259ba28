// internal/config/normalize.go
package config

import (
	"encoding/hex"
	"time"

	"github.com/tamzrod/med-dispenser/internal/packet"
)

const (
	DefaultListen          = ":5001"
	DefaultRecvTimeoutMs   = 10000
	DefaultEventTimeoutMin = 10
	DefaultAckGraceMin     = 1
	DefaultIOTimeoutMs     = 1000
	DefaultButtonPollMs    = 100
	DefaultFrequencyHz     = 880
	DefaultVolume          = 0.3
	DefaultLogLevel        = "info"

	maxDeviceName = 16
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	d := &cfg.Dispenser

	if d.Listen == "" {
		d.Listen = DefaultListen
	}
	if d.RecvTimeoutMs == 0 {
		d.RecvTimeoutMs = DefaultRecvTimeoutMs
	}
	if d.EventTimeoutMin == 0 {
		d.EventTimeoutMin = DefaultEventTimeoutMin
	}
	if d.AckGraceMin == 0 {
		d.AckGraceMin = DefaultAckGraceMin
	}
	if d.Key == "" {
		d.Key = hex.EncodeToString(packet.DefaultKey)
	}
	if d.LogLevel == "" {
		d.LogLevel = DefaultLogLevel
	}

	if d.IO != nil {
		if d.IO.TimeoutMs == 0 {
			d.IO.TimeoutMs = DefaultIOTimeoutMs
		}
		if d.IO.ButtonPollMs == 0 {
			d.IO.ButtonPollMs = DefaultButtonPollMs
		}
	}

	if d.Status != nil {
		if d.Status.TimeoutMs == 0 {
			d.Status.TimeoutMs = DefaultIOTimeoutMs
		}
		// ASCII already validated
		if len(d.Status.DeviceName) > maxDeviceName {
			d.Status.DeviceName = d.Status.DeviceName[:maxDeviceName]
		}
	}

	if d.Sound.FrequencyHz == 0 {
		d.Sound.FrequencyHz = DefaultFrequencyHz
	}
	if d.Sound.Volume == 0 {
		d.Sound.Volume = DefaultVolume
	}
}

// Location resolves the configured timezone. Empty means local time.
// It MUST be called only after Validate().
func (d DispenserConfig) Location() *time.Location {
	if d.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
