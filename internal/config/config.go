package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Dispenser DispenserConfig `yaml:"dispenser"`
}

type DispenserConfig struct {
	Listen        string `yaml:"listen"`
	RecvTimeoutMs int    `yaml:"recv_timeout_ms"`
	Key           string `yaml:"key"` // 64 hex chars; empty => built-in key
	Timezone      string `yaml:"timezone"`
	LogLevel      string `yaml:"log_level"`

	EventTimeoutMin int `yaml:"event_timeout_min"`
	AckGraceMin     int `yaml:"ack_grace_min"`

	IO       *IOConfig     `yaml:"io"`
	Status   *StatusConfig `yaml:"status"`
	Sound    SoundConfig   `yaml:"sound"`
	Schedule []EventConfig `yaml:"schedule"`
}

// ---- I/O MODULE (indicators + acknowledge button) ----

type IOConfig struct {
	Endpoint      string `yaml:"endpoint"`
	UnitID        uint8  `yaml:"unit_id"`
	TimeoutMs     int    `yaml:"timeout_ms"`
	IndicatorCoil uint16 `yaml:"indicator_coil"` // coil of compartment A
	ButtonInput   uint16 `yaml:"button_input"`   // discrete input
	ButtonPollMs  int    `yaml:"button_poll_ms"`
}

// ---- STATUS BLOCK (optional, opt-in) ----

type StatusConfig struct {
	Endpoint   string `yaml:"endpoint"`
	UnitID     uint8  `yaml:"unit_id"`
	TimeoutMs  int    `yaml:"timeout_ms"`
	BaseSlot   uint16 `yaml:"base_slot"`
	DeviceName string `yaml:"device_name"`
}

// ---- SOUND ----

type SoundConfig struct {
	Enabled     bool    `yaml:"enabled"`
	FrequencyHz float64 `yaml:"frequency_hz"`
	Volume      float64 `yaml:"volume"`
}

// ---- BOOT SCHEDULE ----

type EventConfig struct {
	Time  string       `yaml:"time"` // "HH:MM"
	Doses []DoseConfig `yaml:"doses"`
}

type DoseConfig struct {
	Compartment uint8  `yaml:"compartment"`
	Pills       uint8  `yaml:"pills"`
	Label       string `yaml:"label"`
}

// Load reads and decodes a YAML config file.
// It does not validate; call Validate then Normalize.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes YAML config bytes. Unknown keys are rejected.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
