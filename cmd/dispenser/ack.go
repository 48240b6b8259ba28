package main

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"
)

// acknowledgeOn calls ack once per received signal until ctx is done.
// It is the local acknowledge path for units without a button input.
func acknowledgeOn(ctx context.Context, sigs <-chan os.Signal, ack func() bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			if ack() {
				log.WithField("signal", sig).Info("acknowledged by signal")
			} else {
				log.WithField("signal", sig).Debug("nothing to acknowledge")
			}
		}
	}
}
