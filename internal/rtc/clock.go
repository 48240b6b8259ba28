package rtc

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/med-dispenser/internal/schedule"
)

// Handler receives clock signals. All calls are made from the clock
// goroutine, in order: tick first, then alarm when the armed time matches.
// Resync follows any forward jump of the wall clock.
type Handler interface {
	OnTick(now schedule.TimeOfDay)
	OnAlarmMatch(at schedule.TimeOfDay) error
	Resync(now schedule.TimeOfDay)
}

// CatchUpMinutes bounds how many skipped wall minutes still get their
// alarm delivered late. It covers DST transitions and small NTP steps;
// alarms lost in longer gaps (host suspend) are dropped and the next
// event is armed instead.
const CatchUpMinutes = 60

// Clock is a minute-resolution real-time clock with one daily alarm.
// It reads the host wall clock in a fixed location; synchronizing that
// clock is left to the host.
type Clock struct {
	mu    sync.Mutex
	loc   *time.Location
	now   func() time.Time
	armed *schedule.TimeOfDay
	last  time.Time
}

// New creates a clock reading wall time in loc (nil means local time).
func New(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.Local
	}
	return &Clock{loc: loc, now: time.Now}
}

// Time returns the current wall time in the clock's location.
func (c *Clock) Time() time.Time {
	return c.now().In(c.loc)
}

// Now returns the current time of day.
func (c *Clock) Now() schedule.TimeOfDay {
	return timeOfDay(c.Time())
}

// ArmAlarm sets the daily alarm. It never blocks.
func (c *Clock) ArmAlarm(at schedule.TimeOfDay) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armed = &at
}

// DisarmAlarm clears the alarm. It never blocks.
func (c *Clock) DisarmAlarm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armed = nil
}

// Armed reports the armed alarm time.
func (c *Clock) Armed() (schedule.TimeOfDay, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.armed == nil {
		return schedule.TimeOfDay{}, false
	}
	return *c.armed, true
}

// Step delivers the signals for the minute containing t.
// A minute that was already delivered is skipped. When the wall clock
// jumped forward since the previous step, an alarm armed inside the
// skipped minutes is delivered late (within CatchUpMinutes) and the
// handler is resynced.
func (c *Clock) Step(t time.Time, h Handler) {
	minute := t.In(c.loc).Truncate(time.Minute)

	c.mu.Lock()
	if !c.last.IsZero() && !minute.After(c.last) {
		c.mu.Unlock()
		return
	}
	prev := c.last
	c.last = minute
	c.mu.Unlock()

	now := timeOfDay(minute)
	h.OnTick(now)

	if skipped := skippedMinutes(prev, minute); skipped > 0 {
		log.WithFields(log.Fields{"from": timeOfDay(prev), "to": now, "skipped": skipped}).Warn("wall clock jumped")
		if skipped <= CatchUpMinutes {
			c.catchUp(timeOfDay(prev), skipped, h)
		}
		h.Resync(now)
	}

	if armed, ok := c.Armed(); ok && armed == now {
		log.WithField("at", now).Debug("alarm match")
		if err := h.OnAlarmMatch(now); err != nil {
			log.WithError(err).Debug("alarm not handled")
		}
	}
}

// catchUp fires, in order, every armed alarm that fell inside the
// skipped minutes after from. Each delivery re-arms the handler.
func (c *Clock) catchUp(from schedule.TimeOfDay, skipped int, h Handler) {
	for i := 0; i < schedule.MaxEvents; i++ {
		armed, ok := c.Armed()
		if !ok || !inGap(from, armed, skipped) {
			return
		}

		log.WithField("at", armed).Warn("alarm minute skipped, delivering late")
		if err := h.OnAlarmMatch(armed); err != nil {
			log.WithError(err).Debug("late alarm not handled")
			return
		}

		if next, ok := c.Armed(); !ok || next == armed {
			return
		}
	}
}

// skippedMinutes counts wall-clock minutes strictly between prev and
// minute that were never delivered. Zero for consecutive minutes and
// for backward wall jumps (DST fall-back repeats an hour instead).
func skippedMinutes(prev, minute time.Time) int {
	if prev.IsZero() {
		return 0
	}
	step := wallMinutes(minute) - wallMinutes(prev)
	if step <= 1 {
		return 0
	}
	return int(step - 1)
}

// wallMinutes reads t's wall clock as if it were UTC, so DST offsets
// show up as jumps.
func wallMinutes(t time.Time) int64 {
	naive := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
	return naive.Unix() / 60
}

// inGap reports whether at lies in the skipped minutes after from.
func inGap(from, at schedule.TimeOfDay, skipped int) bool {
	d := (at.Minutes() - from.Minutes() + 24*60) % (24 * 60)
	return d >= 1 && d <= skipped
}

// Run delivers one Step per minute boundary until ctx is done.
// Ticks missed while the host was suspended are not replayed.
func (c *Clock) Run(ctx context.Context, h Handler) {
	// Prime with the current minute so the first boundary is a fresh one.
	c.mu.Lock()
	c.last = c.Time().Truncate(time.Minute)
	c.mu.Unlock()

	timer := time.NewTimer(untilNextMinute(c.Time()))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			now := c.Time()
			c.Step(now, h)
			timer.Reset(untilNextMinute(now))
		}
	}
}

func untilNextMinute(t time.Time) time.Duration {
	next := t.Truncate(time.Minute).Add(time.Minute)
	d := next.Sub(t)
	if d <= 0 {
		d = time.Minute
	}
	return d
}

func timeOfDay(t time.Time) schedule.TimeOfDay {
	return schedule.At(t.Hour(), t.Minute())
}
