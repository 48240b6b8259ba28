package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/med-dispenser/internal/alert"
	"github.com/tamzrod/med-dispenser/internal/schedule"
)

// Alarm is the real-time clock alarm facility.
// Implementations must not block: they are called with the engine lock held.
type Alarm interface {
	ArmAlarm(at schedule.TimeOfDay)
	DisarmAlarm()
}

// Config holds the fixed lifecycle timings, in one-minute ticks.
type Config struct {
	Timeout int // Active -> Idle without acknowledgment
	Grace   int // AcknowledgeDelay -> Idle, minimum 1
}

// Engine owns the schedule, the pending alarm target, the active event and
// the timer. Every exported method takes the single lock exactly once;
// unexported *Locked helpers assume it is held and never call back out
// through an exported method, so no reentrant lock is needed.
type Engine struct {
	mu sync.Mutex

	cfg   Config
	alarm Alarm
	sink  alert.Sink
	newID func() string

	store   schedule.Store
	pending *schedule.TimeOfDay
	active  *ActiveEvent
	timer   TimerState
	count   Counters

	logs logBuffer // emitted by unlock, after the mutex is released
}

// New creates an engine with an empty schedule and a disarmed alarm.
func New(cfg Config, alarm Alarm, sink alert.Sink) (*Engine, error) {
	if cfg.Timeout < 1 {
		return nil, errors.New("engine: timeout must be >= 1 tick")
	}
	if cfg.Grace < 1 {
		return nil, errors.New("engine: grace must be >= 1 tick")
	}
	if alarm == nil || sink == nil {
		return nil, errors.New("engine: alarm and sink required")
	}

	e := &Engine{
		cfg:   cfg,
		alarm: alarm,
		sink:  sink,
		newID: uuid.NewString,
	}
	e.alarm.DisarmAlarm()
	return e, nil
}

// ------------------------------------------------------------
// CONFIGURATION
// ------------------------------------------------------------

// Configure replaces the live schedule and re-arms the alarm for the
// first event after now, in one critical section. On error nothing changes.
// An empty schedule is accepted and disarms the alarm.
func (e *Engine) Configure(s schedule.Schedule, now schedule.TimeOfDay) error {
	e.mu.Lock()
	defer e.unlock()

	if err := e.store.Replace(s); err != nil {
		inc(&e.count.RejectedConfigs)
		return err
	}
	inc(&e.count.Reconfigured)

	e.logs.add(log.InfoLevel, log.Fields{"events": e.store.Len()}, "schedule replaced")

	if err := e.rearmLocked(now); err != nil && !errors.Is(err, schedule.ErrNoEventAvailable) {
		return err
	}
	return nil
}

// Schedule returns a copy of the live table.
func (e *Engine) Schedule() schedule.Schedule {
	e.mu.Lock()
	defer e.unlock()
	return e.store.Snapshot()
}

// NextAfter reports which event would be armed for now, without arming it.
func (e *Engine) NextAfter(now schedule.TimeOfDay) (schedule.MedicationEvent, bool) {
	e.mu.Lock()
	defer e.unlock()
	return e.store.NextAfter(now)
}

// ------------------------------------------------------------
// SIGNALS
// ------------------------------------------------------------

// OnTick advances the timer by one minute.
func (e *Engine) OnTick(now schedule.TimeOfDay) {
	e.mu.Lock()
	defer e.unlock()

	switch e.timer.Phase {
	case Active:
		e.timer.Elapsed++
		if e.timer.Elapsed >= e.cfg.Timeout {
			inc(&e.count.TimedOut)
			e.logActive(log.InfoLevel, log.Fields{"elapsed": e.timer.Elapsed}, "event timed out")
			e.stopLocked()
		}

	case AcknowledgeDelay:
		e.timer.Remaining--
		if e.timer.Remaining <= 0 {
			e.logActive(log.InfoLevel, nil, "grace period over")
			e.stopLocked()
		}
	}
}

// OnAlarmMatch handles the clock alarm firing at the given time.
// A match that does not correspond to the pending target is ignored
// and reported as schedule.ErrSpuriousAlarm.
func (e *Engine) OnAlarmMatch(at schedule.TimeOfDay) error {
	e.mu.Lock()
	defer e.unlock()

	if e.pending == nil || *e.pending != at {
		inc(&e.count.SpuriousAlarms)
		e.logs.add(log.WarnLevel, log.Fields{"at": at, "pending": fmtPending(e.pending)}, "alarm ignored: no matching target")
		return fmt.Errorf("%w at %s", schedule.ErrSpuriousAlarm, at)
	}

	ev, ok := e.store.Lookup(at)
	if !ok {
		inc(&e.count.SpuriousAlarms)
		e.logs.add(log.WarnLevel, log.Fields{"at": at}, "alarm ignored: target no longer scheduled")
		return fmt.Errorf("%w at %s: not in schedule", schedule.ErrSpuriousAlarm, at)
	}

	if e.timer.Phase != Idle {
		inc(&e.count.Preempted)
		e.logActive(log.InfoLevel, log.Fields{"next": at}, "event preempted by new alarm")
		e.stopLocked()
	}

	e.activateLocked(ev)

	// Arm one event ahead regardless of how long this one stays active.
	if err := e.rearmLocked(at); err != nil {
		e.logs.add(log.WarnLevel, log.Fields{log.ErrorKey: err}, "could not schedule next event")
	}
	return nil
}

// OnAcknowledge handles the user acknowledging the alert.
// Returns true if the acknowledgment changed state.
func (e *Engine) OnAcknowledge() bool {
	e.mu.Lock()
	defer e.unlock()

	if e.timer.Phase != Active {
		return false
	}

	inc(&e.count.Acknowledged)
	e.timer = TimerState{Phase: AcknowledgeDelay, Remaining: e.cfg.Grace}
	e.logActive(log.InfoLevel, log.Fields{"grace": e.cfg.Grace}, "event acknowledged")

	e.sink.Apply(alert.Stop(true)...)
	return true
}

// Resync re-arms the alarm for the first event at or after now.
// The clock calls it after a wall-clock jump so an alarm armed for a
// skipped minute does not stall the schedule. An active window is kept.
func (e *Engine) Resync(now schedule.TimeOfDay) {
	e.mu.Lock()
	defer e.unlock()

	e.logs.add(log.WarnLevel, log.Fields{"now": now, "pending": fmtPending(e.pending)}, "clock jumped, re-arming")

	// one minute back so an event due exactly now is still armed
	from := schedule.FromMinutes(now.Minutes() - 1)
	if err := e.rearmLocked(from); err != nil && !errors.Is(err, schedule.ErrNoEventAvailable) {
		e.logs.add(log.WarnLevel, log.Fields{log.ErrorKey: err}, "could not schedule next event")
	}
}

// Status returns a consistent copy of the engine state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.unlock()

	st := Status{
		Timer:      e.timer,
		EventCount: e.store.Len(),
		Counters:   e.count,
	}
	if e.active != nil {
		a := *e.active
		st.Active = &a
	}
	if e.pending != nil {
		p := *e.pending
		st.Pending = &p
	}
	return st
}

// ------------------------------------------------------------
// LOCKED HELPERS
// ------------------------------------------------------------

func (e *Engine) rearmLocked(now schedule.TimeOfDay) error {
	next, ok := e.store.NextAfter(now)
	if !ok {
		e.pending = nil
		e.alarm.DisarmAlarm()
		e.logs.add(log.InfoLevel, nil, "no event available, alarm disarmed")
		return schedule.ErrNoEventAvailable
	}

	at := next.At
	e.pending = &at
	e.alarm.ArmAlarm(at)
	e.logs.add(log.InfoLevel, log.Fields{"event": at}, "next event scheduled")
	return nil
}

func (e *Engine) activateLocked(ev schedule.MedicationEvent) {
	inc(&e.count.Activations)

	e.active = &ActiveEvent{At: ev.At, ID: e.newID()}
	e.timer = TimerState{Phase: Active}

	e.logActive(log.InfoLevel, log.Fields{"compartments": fmt.Sprintf("%06b", ev.Mask())}, "starting event")
	e.sink.Apply(alert.Start(ev)...)
}

// stopLocked ends the active window with a full clear.
func (e *Engine) stopLocked() {
	e.sink.Apply(alert.Stop(false)...)
	e.active = nil
	e.timer = TimerState{Phase: Idle}
}

// logActive queues a log line tagged with the active event, if any.
func (e *Engine) logActive(level log.Level, fields log.Fields, msg string) {
	f := log.Fields{}
	for k, v := range fields {
		f[k] = v
	}
	if e.active != nil {
		f["event"] = e.active.At
		f["activation"] = e.active.ID
	}
	e.logs.add(level, f, msg)
}

// unlock releases the mutex, then writes the log lines queued while it
// was held.
func (e *Engine) unlock() {
	lines := e.logs
	e.logs = nil
	e.mu.Unlock()
	lines.flush()
}

func fmtPending(p *schedule.TimeOfDay) string {
	if p == nil {
		return "none"
	}
	return p.String()
}
