// cmd/dispenser/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/tamzrod/med-dispenser/internal/alert"
	"github.com/tamzrod/med-dispenser/internal/config"
	"github.com/tamzrod/med-dispenser/internal/engine"
	"github.com/tamzrod/med-dispenser/internal/output"
	"github.com/tamzrod/med-dispenser/internal/output/console"
	"github.com/tamzrod/med-dispenser/internal/output/tone"
	"github.com/tamzrod/med-dispenser/internal/packet"
	"github.com/tamzrod/med-dispenser/internal/poller"
	"github.com/tamzrod/med-dispenser/internal/receiver"
	"github.com/tamzrod/med-dispenser/internal/rtc"
	"github.com/tamzrod/med-dispenser/internal/schedule"
	"github.com/tamzrod/med-dispenser/internal/status"
	"github.com/tamzrod/med-dispenser/internal/writer"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var (
		cfgPath   string
		exportICS string
		logLevel  string
	)

	flagSet := pflag.NewFlagSet("dispenser", pflag.ContinueOnError)
	flagSet.StringVarP(&cfgPath, "config", "c", "dispenser.yaml", "path to YAML config")
	flagSet.StringVar(&exportICS, "export-ics", "", "write the boot schedule as iCalendar to this file and exit")
	flagSet.StringVar(&logLevel, "log-level", "", "override dispenser.log_level")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)

	d := cfg.Dispenser

	if logLevel == "" {
		logLevel = d.LogLevel
	}
	lvl, err := log.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	boot, err := config.BootSchedule(cfg)
	if err != nil {
		return err
	}

	clock := rtc.New(d.Location())

	if exportICS != "" {
		sorted := boot.Clone()
		sorted.Sort()
		return writeICS(exportICS, sorted, clock.Time())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Outputs
	// --------------------

	plan := writer.BuildPlan(d)

	var ioTimeout time.Duration
	if d.IO != nil {
		ioTimeout = time.Duration(d.IO.TimeoutMs) * time.Millisecond
	} else if d.Status != nil {
		ioTimeout = time.Duration(d.Status.TimeoutMs) * time.Millisecond
	}

	clients, closeClients, err := writer.BuildEndpointClients(plan, ioTimeout)
	if err != nil {
		return fmt.Errorf("modbus clients failed: %w", err)
	}
	defer closeClients()

	var indicators output.Indicators
	if plan.Indicators != nil {
		if w, ok := writer.NewIndicatorWriter(plan, clients[plan.Indicators.Endpoint]); ok {
			indicators = w
		}
	}

	var sound output.Sound
	if d.Sound.Enabled {
		p, err := tone.New(tone.Config{FrequencyHz: d.Sound.FrequencyHz, Volume: d.Sound.Volume})
		if err != nil {
			return fmt.Errorf("sound: %w", err)
		}
		sound = p
	}

	driver := output.NewDriver(indicators, console.New(clock.Now), sound)

	// --------------------
	// Engine
	// --------------------

	eng, err := engine.New(engine.Config{
		Timeout: d.EventTimeoutMin,
		Grace:   d.AckGraceMin,
	}, clock, driver)
	if err != nil {
		return err
	}

	if len(boot) > 0 {
		if err := eng.Configure(boot, clock.Now()); err != nil {
			return fmt.Errorf("boot schedule: %w", err)
		}
	}

	// --------------------
	// Receiver
	// --------------------

	key, err := d.KeyBytes()
	if err != nil {
		return err
	}
	codec, err := packet.NewCodec(key)
	if err != nil {
		return err
	}

	rec, err := receiver.Listen(receiver.Config{
		Listen:      d.Listen,
		RecvTimeout: time.Duration(d.RecvTimeoutMs) * time.Millisecond,
	}, codec, eng, clock)
	if err != nil {
		return err
	}

	// --------------------
	// Goroutines
	// --------------------

	var wg sync.WaitGroup
	spawn := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	spawn(func() { driver.Run(ctx) })
	spawn(func() { rec.Run(ctx) })
	spawn(func() { clock.Run(ctx, eng) })

	if d.IO != nil {
		btn, err := poller.Build(d.IO, clients[d.IO.Endpoint])
		if err != nil {
			return err
		}
		spawn(func() {
			btn.Run(ctx, func() { eng.OnAcknowledge() })
		})
	}

	if len(ackSignals) > 0 {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, ackSignals...)
		defer signal.Stop(sigs)
		spawn(func() { acknowledgeOn(ctx, sigs, eng.OnAcknowledge) })
	}

	if plan.Status != nil {
		if sw, ok := writer.NewDeviceStatusWriter(plan, clients[plan.Status.Endpoint]); ok {
			spawn(func() { publishStatus(ctx, eng, sw) })
		}
	}

	log.WithFields(log.Fields{
		"listen":  d.Listen,
		"events":  len(boot),
		"timeout": d.EventTimeoutMin,
		"grace":   d.AckGraceMin,
	}).Info("dispenser started")

	<-ctx.Done()
	log.Info("shutting down")
	wg.Wait()

	// leave the unit quiet and dark
	driver.Apply(alert.Stop(false)...)
	driver.Flush()

	st := rec.Stats()
	log.WithFields(log.Fields{"accepted": st.Accepted, "rejected": st.Rejected}).Info("stopped")
	return nil
}

// publishStatus mirrors the engine status into the status block at 1 Hz.
// The writer itself skips unchanged slots.
func publishStatus(ctx context.Context, eng *engine.Engine, sw writer.StatusWriter) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	// Full block write on start (identity re-assert).
	if err := sw.WriteStatus(status.FromEngine(eng.Status())); err != nil {
		log.WithError(err).Warn("status write failed on start")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sw.WriteStatus(status.FromEngine(eng.Status())); err != nil {
				log.WithError(err).Warn("status write failed")
			}
		}
	}
}

func writeICS(path string, s schedule.Schedule, now time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := schedule.WriteICal(f, s, now); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.WithFields(log.Fields{"path": path, "events": len(s)}).Info("schedule exported")
	return nil
}
