package edrumulus

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/thijstriemstra/edrumulus/internal/trigger"
)

// Config is the top-level application configuration.
type Config struct {
	SampleRate   int                 `json:"sample_rate"`
	SerialDevice string              `json:"serial_device"`
	SerialBaud   int                 `json:"serial_baud"`
	MidiPort     string              `json:"midi_port"`
	HTTPAddr     string              `json:"http_addr"`
	Pads         []trigger.PadConfig `json:"pads"`
}

// DefaultConfig returns a standard five-piece kit on the usual General MIDI
// drum notes, channel 10.
func DefaultConfig() *Config {
	const drumChannel = 9
	pad := func(id int, name string, t trigger.PadType, sensors int, note, rimNote uint8) trigger.PadConfig {
		return trigger.PadConfig{
			ID:          id,
			Name:        name,
			Type:        t,
			Sensors:     sensors,
			Note:        note,
			RimNote:     rimNote,
			Channel:     drumChannel,
			Calibration: trigger.DefaultCalibration(t),
		}
	}
	return &Config{
		SampleRate:   8000,
		SerialDevice: "/dev/ttyUSB0",
		SerialBaud:   921600,
		HTTPAddr:     ":8000",
		Pads: []trigger.PadConfig{
			pad(0, "snare", trigger.PadPD120, 2, 38, 40),
			pad(1, "kick", trigger.PadKD7, 1, 36, 0),
			pad(2, "hi-hat", trigger.PadPD8, 2, 22, 26),
			pad(3, "crash", trigger.PadCY8, 2, 49, 0),
			pad(4, "tom1", trigger.PadTP80, 1, 48, 0),
			pad(5, "ride", trigger.PadCY8, 2, 51, 0),
			pad(6, "tom2", trigger.PadTP80, 1, 45, 0),
		},
	}
}

// LoadConfig reads the configuration file, falling back to the defaults
// when the path is empty or the file does not exist. Pads that omit their
// calibration get the factory preset for their type.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Str("path", path).Msg("config file not found, using defaults")
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	for i := range cfg.Pads {
		if cfg.Pads[i].Calibration == (trigger.CalibrationProfile{}) {
			cfg.Pads[i].Calibration = trigger.DefaultCalibration(cfg.Pads[i].Type)
		}
		if err := trigger.ValidatePadConfig(cfg.Pads[i]); err != nil {
			return nil, err
		}
	}
	if err := trigger.ValidateSampleRate(cfg.SampleRate); err != nil {
		return nil, err
	}
	return cfg, nil
}
