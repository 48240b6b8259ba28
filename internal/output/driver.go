package output

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/med-dispenser/internal/alert"
)

// Indicators drives the per-compartment lights.
type Indicators interface {
	Set(compartment uint8, on bool) error
	AllOff() error
}

// Display shows the dose summary.
type Display interface {
	ShowSummary(text string) error
	ClearSummary() error
}

// Sound drives the audible alert. Start and Stop must be idempotent.
type Sound interface {
	Start() error
	Stop() error
}

// Driver is the peripheral side of the engine. Apply only queues, so it
// is safe to call with the engine lock held; a single goroutine (Run)
// performs the possibly slow I/O in order.
type Driver struct {
	ind  Indicators
	disp Display
	snd  Sound

	mu    sync.Mutex
	queue []alert.Action
	wake  chan struct{}
}

// NewDriver wires the collaborators. Nil collaborators are skipped.
func NewDriver(ind Indicators, disp Display, snd Sound) *Driver {
	return &Driver{
		ind:  ind,
		disp: disp,
		snd:  snd,
		wake: make(chan struct{}, 1),
	}
}

// Apply queues actions for the peripheral goroutine. It never blocks.
func (d *Driver) Apply(actions ...alert.Action) {
	if len(actions) == 0 {
		return
	}

	d.mu.Lock()
	d.queue = append(d.queue, actions...)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run executes queued actions until ctx is done. Actions still queued
// when ctx ends are executed before returning, so outputs are left in
// the last commanded state.
func (d *Driver) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.Flush()
			return
		case <-d.wake:
			d.Flush()
		}
	}
}

// Flush executes everything queued so far on the calling goroutine.
func (d *Driver) Flush() {
	d.mu.Lock()
	batch := d.queue
	d.queue = nil
	d.mu.Unlock()

	for _, a := range batch {
		d.execute(a)
	}
}

func (d *Driver) execute(a alert.Action) {
	log.WithField("action", a).Debug("output")

	var err error

	switch a.Kind {
	case alert.IndicatorOn:
		if d.ind != nil {
			err = d.ind.Set(a.Compartment, true)
		}
	case alert.IndicatorsOff:
		if d.ind != nil {
			err = d.ind.AllOff()
		}
	case alert.ShowSummary:
		if d.disp != nil {
			err = d.disp.ShowSummary(a.Summary.Text())
		}
	case alert.ClearSummary:
		if d.disp != nil {
			err = d.disp.ClearSummary()
		}
	case alert.SoundOn:
		if d.snd != nil {
			err = d.snd.Start()
		}
	case alert.SoundOff:
		if d.snd != nil {
			err = d.snd.Stop()
		}
	default:
		log.WithField("action", a).Warn("unknown output action")
		return
	}

	if err != nil {
		log.WithError(err).WithField("action", a).Warn("output action failed")
	}
}
