package main

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestAcknowledgeOn_OnePerSignal(t *testing.T) {
	sigs := make(chan os.Signal)
	acks := make(chan struct{}, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		acknowledgeOn(ctx, sigs, func() bool {
			acks <- struct{}{}
			return true
		})
		close(done)
	}()

	sigs <- syscall.SIGTERM
	sigs <- syscall.SIGTERM

	for i := 0; i < 2; i++ {
		select {
		case <-acks:
		case <-time.After(2 * time.Second):
			t.Fatalf("acknowledge %d not delivered", i+1)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("acknowledgeOn did not return after cancel")
	}
	if len(acks) != 0 {
		t.Fatalf("unexpected extra acknowledgements: %d", len(acks))
	}
}
