// cmd/medsend/main.go
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/tamzrod/med-dispenser/internal/config"
	"github.com/tamzrod/med-dispenser/internal/packet"
	"github.com/tamzrod/med-dispenser/internal/schedule"
)

// scheduleFile is the document medsend reads:
//
//	schedule:
//	  - time: "07:30"
//	    doses: [{ compartment: 0, pills: 2, label: Aspirin }]
type scheduleFile struct {
	Schedule []config.EventConfig `yaml:"schedule"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var (
		schedPath string
		to        string
		keyHex    string
		dryRun    bool
	)

	flagSet := pflag.NewFlagSet("medsend", pflag.ContinueOnError)
	flagSet.StringVarP(&schedPath, "schedule", "s", "", "path to schedule YAML (required)")
	flagSet.StringVarP(&to, "to", "t", "", "dispenser address host:port")
	flagSet.StringVar(&keyHex, "key", "", "AES-256 key as 64 hex chars (default: built-in key)")
	flagSet.BoolVar(&dryRun, "dry-run", false, "print the encrypted packet as hex instead of sending")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if schedPath == "" {
		return errors.New("--schedule is required")
	}
	if to == "" && !dryRun {
		return errors.New("--to is required unless --dry-run")
	}

	s, err := loadSchedule(schedPath)
	if err != nil {
		return err
	}

	key := packet.DefaultKey
	if keyHex != "" {
		if key, err = hex.DecodeString(keyHex); err != nil {
			return fmt.Errorf("key: %w", err)
		}
	}

	codec, err := packet.NewCodec(key)
	if err != nil {
		return err
	}
	buf, err := codec.Encode(s)
	if err != nil {
		return err
	}

	if dryRun {
		fmt.Println(hex.EncodeToString(buf))
		return nil
	}

	conn, err := net.DialTimeout("udp", to, 5*time.Second)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.Write(buf); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	for _, ev := range s {
		log.WithFields(log.Fields{"at": ev.At, "clock": ev.At.Clock12(), "compartments": len(ev.Doses)}).Info("event")
	}
	log.WithFields(log.Fields{"to": to, "bytes": len(buf), "events": len(s)}).Info("schedule sent")
	return nil
}

func loadSchedule(path string) (schedule.Schedule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc scheduleFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	s, err := config.ScheduleFrom(doc.Schedule)
	if err != nil {
		return nil, err
	}
	if err := schedule.Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}
