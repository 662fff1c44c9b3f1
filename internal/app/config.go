package app

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/pulsegrid/internal/eventlist"
	"github.com/specialistvlad/pulsegrid/internal/schedule"
	"github.com/specialistvlad/pulsegrid/internal/topology"
)

// Config holds everything a single compilation needs.
type Config struct {
	ExperimentPath string // hcl file or directory
	OutPath        string // empty writes to the app's output writer
	Format         string

	MaxEvents   int
	ExpandLoops bool
	Validate    bool
	CachePath   string // sqlite file, empty disables the cache

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ExperimentPath == "" {
		return nil, errors.New("ExperimentPath is a required configuration field and cannot be empty")
	}
	switch cfg.Format {
	case eventlist.FormatJSON, eventlist.FormatYAML:
	case "":
		cfg.Format = eventlist.FormatJSON
	default:
		return nil, fmt.Errorf("unsupported output format '%s'", cfg.Format)
	}
	if cfg.MaxEvents < 0 {
		return nil, fmt.Errorf("max events must not be negative, got %d", cfg.MaxEvents)
	}
	return &cfg, nil
}

// Settings returns the engine settings described by the configuration.
func (c *Config) Settings() schedule.Settings {
	s := schedule.DefaultSettings()
	s.TinySample = topology.TinySample
	s.MaxEvents = c.MaxEvents
	s.ExpandLoops = c.ExpandLoops
	return s
}
