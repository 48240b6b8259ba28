package tone

import (
	"encoding/binary"
	"testing"
)

func sample(buf []byte, i int) int16 {
	return int16(binary.LittleEndian.Uint16(buf[2*i:]))
}

func TestBeepPattern_Shape(t *testing.T) {
	const rate = 8000
	vol := 0.5
	buf := beepPattern(rate, 1000, vol)

	// 0.5s on + 0.5s off, 2 bytes per sample
	if len(buf) != 2*rate {
		t.Fatalf("len: got=%d want=%d", len(buf), 2*rate)
	}

	amp := int16(vol * 32767)

	// 1 kHz at 8 kHz: 8 samples per period, 4 high then 4 low
	for i := 0; i < 4; i++ {
		if s := sample(buf, i); s != amp {
			t.Fatalf("sample %d: got=%d want=%d", i, s, amp)
		}
	}
	for i := 4; i < 8; i++ {
		if s := sample(buf, i); s != -amp {
			t.Fatalf("sample %d: got=%d want=%d", i, s, -amp)
		}
	}

	for i := rate / 2; i < rate; i++ {
		if s := sample(buf, i); s != 0 {
			t.Fatalf("off half sample %d not silent: %d", i, s)
		}
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{FrequencyHz: 0, Volume: 0.5}); err == nil {
		t.Fatalf("expected frequency error")
	}
	if _, err := New(Config{FrequencyHz: 880, Volume: 1.5}); err == nil {
		t.Fatalf("expected volume error")
	}
}

func TestStop_WhenSilentIsNoop(t *testing.T) {
	p, err := New(Config{FrequencyHz: 880, Volume: 0.3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
