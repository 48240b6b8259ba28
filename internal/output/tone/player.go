package tone

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	log "github.com/sirupsen/logrus"
)

const (
	sampleRate   = 44100
	channelCount = 1

	beepOn  = 500 * time.Millisecond
	beepOff = 500 * time.Millisecond
)

// Global audio context singleton; oto allows one per process.
var (
	audioCtx     *oto.Context
	audioCtxOnce sync.Once
	audioCtxErr  error
)

func initAudioContext() (*oto.Context, error) {
	audioCtxOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channelCount,
			Format:       oto.FormatSignedInt16LE,
		}

		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			audioCtxErr = err
			return
		}

		// Wait for the hardware audio device to be ready
		<-ready

		audioCtx = ctx
		log.Debug("audio context initialized")
	})
	return audioCtx, audioCtxErr
}

// Config describes the alert tone.
type Config struct {
	FrequencyHz float64
	Volume      float64 // 0..1
}

// Player beeps a square wave until stopped.
type Player struct {
	pattern []byte

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func New(cfg Config) (*Player, error) {
	if cfg.FrequencyHz <= 0 {
		return nil, errors.New("tone: frequency must be > 0")
	}
	if cfg.Volume <= 0 || cfg.Volume > 1 {
		return nil, errors.New("tone: volume must be within (0, 1]")
	}
	return &Player{pattern: beepPattern(sampleRate, cfg.FrequencyHz, cfg.Volume)}, nil
}

// Start begins the beep loop. Calling Start while playing does nothing.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stop != nil {
		return nil
	}

	ctx, err := initAudioContext()
	if err != nil {
		return err
	}

	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.loop(ctx, p.stop, p.done)
	return nil
}

// Stop silences the tone and waits for the loop to release the device.
// Calling Stop while silent does nothing.
func (p *Player) Stop() error {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return nil
}

func (p *Player) loop(ctx *oto.Context, stop, done chan struct{}) {
	defer close(done)

	for {
		pl := ctx.NewPlayer(bytes.NewReader(p.pattern))
		pl.Play()

		for pl.IsPlaying() {
			select {
			case <-stop:
				pl.Pause()
				if err := pl.Close(); err != nil {
					log.WithError(err).Debug("tone: close player")
				}
				return
			case <-time.After(10 * time.Millisecond):
			}
		}

		if err := pl.Close(); err != nil {
			log.WithError(err).Debug("tone: close player")
		}

		select {
		case <-stop:
			return
		default:
		}
	}
}

// beepPattern renders one on/off cycle of signed 16-bit LE mono PCM.
func beepPattern(rate int, freq, volume float64) []byte {
	onSamples := int(float64(rate) * beepOn.Seconds())
	offSamples := int(float64(rate) * beepOff.Seconds())

	amp := int16(volume * math.MaxInt16)
	period := float64(rate) / freq

	buf := make([]byte, 2*(onSamples+offSamples))
	for i := 0; i < onSamples; i++ {
		v := amp
		if math.Mod(float64(i), period) >= period/2 {
			v = -amp
		}
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(v))
	}
	// off half is already silence
	return buf
}
