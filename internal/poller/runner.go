// internal/poller/runner.go
package poller

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Run starts the ticker loop and calls onPress for every rising edge.
// One goroutine. No overlap. No retries: a failed read is logged once
// per outage and the next tick tries again.
func (p *Poller) Run(ctx context.Context, onPress func()) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	failing := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := p.PollOnce()

			if s.Err != nil {
				if !failing {
					log.WithError(s.Err).Warn("acknowledge button read failed")
				}
				failing = true
				continue
			}
			if failing {
				log.Info("acknowledge button readable again")
				failing = false
			}

			if p.Edge(s) {
				log.Debug("acknowledge button pressed")
				onPress()
			}
		}
	}
}
