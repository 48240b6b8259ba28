package receiver

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/tamzrod/med-dispenser/internal/packet"
	"github.com/tamzrod/med-dispenser/internal/schedule"
)

type fakeConfigurer struct {
	mu    sync.Mutex
	got   []schedule.Schedule
	nows  []schedule.TimeOfDay
	fail  error
	calls chan struct{}
}

func newFakeConfigurer() *fakeConfigurer {
	return &fakeConfigurer{calls: make(chan struct{}, 10)}
}

func (f *fakeConfigurer) Configure(s schedule.Schedule, now schedule.TimeOfDay) error {
	f.mu.Lock()
	f.got = append(f.got, s)
	f.nows = append(f.nows, now)
	err := f.fail
	f.mu.Unlock()

	f.calls <- struct{}{}
	return err
}

type fixedClock schedule.TimeOfDay

func (c fixedClock) Now() schedule.TimeOfDay { return schedule.TimeOfDay(c) }

func codec(t *testing.T) *packet.Codec {
	t.Helper()
	c, err := packet.NewCodec(packet.DefaultKey)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func oneEvent() schedule.Schedule {
	return schedule.Schedule{{
		At:    schedule.At(8, 15),
		Doses: []schedule.Dose{{Compartment: 1, Pills: 2, Label: "Metformin"}},
	}}
}

func newReceiver(t *testing.T, dst Configurer) *Receiver {
	t.Helper()
	r, err := Listen(
		Config{Listen: "127.0.0.1:0", RecvTimeout: 20 * time.Millisecond},
		codec(t),
		dst,
		fixedClock(schedule.At(6, 0)),
	)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	return r
}

func TestHandle_AcceptsValidPacket(t *testing.T) {
	dst := newFakeConfigurer()
	r := newReceiver(t, dst)
	defer r.conn.Close()

	buf, err := codec(t).Encode(oneEvent())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if err := r.Handle(buf, nil); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(dst.got) != 1 || len(dst.got[0]) != 1 || dst.got[0][0].At != schedule.At(8, 15) {
		t.Fatalf("unexpected configure calls: %+v", dst.got)
	}
	if dst.nows[0] != schedule.At(6, 0) {
		t.Fatalf("now not taken from clock: %s", dst.nows[0])
	}
	if st := r.Stats(); st.Accepted != 1 || st.Rejected != 0 {
		t.Fatalf("stats: %+v", st)
	}
}

func TestHandle_RejectsGarbageWithoutConfiguring(t *testing.T) {
	dst := newFakeConfigurer()
	r := newReceiver(t, dst)
	defer r.conn.Close()

	err := r.Handle([]byte("not a schedule packet"), nil)
	if !errors.Is(err, schedule.ErrInvalidPacket) {
		t.Fatalf("expected invalid packet, got %v", err)
	}
	if len(dst.got) != 0 {
		t.Fatalf("configurer must not be called for a bad packet")
	}
	if st := r.Stats(); st.Rejected != 1 {
		t.Fatalf("stats: %+v", st)
	}
}

func TestHandle_RejectsOversized(t *testing.T) {
	dst := newFakeConfigurer()
	r := newReceiver(t, dst)
	defer r.conn.Close()

	err := r.Handle(make([]byte, packet.MaxPacket+1), nil)
	if !errors.Is(err, schedule.ErrInvalidPacket) {
		t.Fatalf("expected invalid packet, got %v", err)
	}
}

func TestHandle_ConfigureErrorCounted(t *testing.T) {
	dst := newFakeConfigurer()
	dst.fail = schedule.ErrScheduleCapacityExceeded
	r := newReceiver(t, dst)
	defer r.conn.Close()

	buf, _ := codec(t).Encode(oneEvent())
	if err := r.Handle(buf, nil); !errors.Is(err, schedule.ErrScheduleCapacityExceeded) {
		t.Fatalf("expected configure error, got %v", err)
	}
	if st := r.Stats(); st.Accepted != 0 || st.Rejected != 1 {
		t.Fatalf("stats: %+v", st)
	}
}

func TestRun_ReceivesOverUDP(t *testing.T) {
	dst := newFakeConfigurer()
	r := newReceiver(t, dst)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	conn, err := net.Dial("udp", r.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	buf, _ := codec(t).Encode(oneEvent())
	if _, err := conn.Write(buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-dst.calls:
	case <-time.After(2 * time.Second):
		t.Fatalf("datagram not delivered")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestListen_Validation(t *testing.T) {
	if _, err := Listen(Config{Listen: "127.0.0.1:0"}, codec(t), newFakeConfigurer(), fixedClock{}); err == nil {
		t.Fatalf("expected timeout error")
	}
	if _, err := Listen(Config{Listen: "127.0.0.1:0", RecvTimeout: time.Second}, nil, newFakeConfigurer(), fixedClock{}); err == nil {
		t.Fatalf("expected codec error")
	}
}
