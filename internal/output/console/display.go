package console

import (
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/med-dispenser/internal/schedule"
)

// Display renders the dose summary to the log, stamped with the
// 12-hour wall clock.
type Display struct {
	now func() schedule.TimeOfDay

	mu      sync.Mutex
	current string
}

func New(now func() schedule.TimeOfDay) *Display {
	return &Display{now: now}
}

func (d *Display) ShowSummary(text string) error {
	d.mu.Lock()
	d.current = text
	d.mu.Unlock()

	entry := log.WithField("clock", d.now().Clock12())
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		if line != "" {
			entry.Info("take: " + line)
		}
	}
	return nil
}

func (d *Display) ClearSummary() error {
	d.mu.Lock()
	had := d.current != ""
	d.current = ""
	d.mu.Unlock()

	if had {
		log.WithField("clock", d.now().Clock12()).Info("summary cleared")
	}
	return nil
}

// Current returns the text on screen, empty when cleared.
func (d *Display) Current() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}
