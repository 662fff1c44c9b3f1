package app

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/specialistvlad/pulsegrid/internal/eventlist"
	"github.com/specialistvlad/pulsegrid/internal/schedule"
	"github.com/specialistvlad/pulsegrid/internal/topology"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const signalsHCL = `
signal "drive" {
  sampling_rate = 2.4e9
}

signal "measure" {
  sampling_rate   = 2e9
  sample_multiple = 8
}
`

const demoHCL = `
experiment "demo" {
  section "pulse" {
    play "x90" {
      signal = "drive"
      length = 32 * ns
    }
  }
  section "readout" {
    play_after = "pulse"
    acquire "ro" {
      signal = "measure"
      length = 1 * us
    }
  }
  loop "shots" {
    count = 3
    play "x180" {
      signal = "drive"
      length = 64 * ns
    }
  }
}
`

func demoFiles(experiment string) map[string]string {
	return map[string]string{
		"/exp/signals.hcl": signalsHCL,
		"/exp/main.hcl":    experiment,
	}
}

func defaultConfig() *Config {
	cfg, err := NewConfig(Config{
		ExperimentPath: "/exp",
		MaxEvents:      1000,
		ExpandLoops:    true,
		Validate:       true,
		LogFormat:      "text",
	})
	if err != nil {
		panic(err)
	}
	return cfg
}

func decode(t *testing.T, payload string, format string) []eventlist.Event {
	t.Helper()
	events, err := eventlist.Decode(strings.NewReader(payload), format)
	require.NoError(t, err)
	require.NoError(t, eventlist.CheckWellFormed(events))
	return events
}

func TestRun_WritesEventsToOutput(t *testing.T) {
	// --- Arrange ---
	a, _, out, logs := SetupAppTest(t, defaultConfig(), demoFiles(demoHCL))

	// --- Act ---
	err := a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	events := decode(t, out.String(), eventlist.FormatJSON)

	counts := eventlist.CountByType(events)
	assert.Equal(t, 3, counts[eventlist.LoopStepStart])
	assert.Equal(t, 4, counts[eventlist.PlayStart])
	assert.Equal(t, 1, counts[eventlist.AcquireStart])
	assert.Equal(t, "demo", events[0].SectionName)

	assert.Contains(t, logs.String(), "Experiment loaded.")
	assert.Contains(t, logs.String(), "Experiment scheduled.")
}

func TestRun_WritesYAMLFile(t *testing.T) {
	cfg := defaultConfig()
	cfg.Format = eventlist.FormatYAML
	cfg.OutPath = "/out/events.yaml"
	a, fs, out, _ := SetupAppTest(t, cfg, demoFiles(demoHCL))

	require.NoError(t, a.Run(context.Background()))

	assert.Empty(t, out.String())
	payload, err := afero.ReadFile(fs, "/out/events.yaml")
	require.NoError(t, err)
	events := decode(t, string(payload), eventlist.FormatYAML)
	assert.NotEmpty(t, events)
}

func TestRun_CompressedLoops(t *testing.T) {
	cfg := defaultConfig()
	cfg.ExpandLoops = false
	a, _, out, _ := SetupAppTest(t, cfg, demoFiles(demoHCL))

	require.NoError(t, a.Run(context.Background()))

	counts := eventlist.CountByType(decode(t, out.String(), eventlist.FormatJSON))
	assert.Equal(t, 1, counts[eventlist.LoopStepStart])
	assert.Equal(t, 1, counts[eventlist.LoopIterationEnd])
}

func TestRun_Cache(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "schedules.db")
	run := func() (string, string) {
		cfg := defaultConfig()
		cfg.CachePath = cachePath
		a, _, out, logs := SetupAppTest(t, cfg, demoFiles(demoHCL))
		require.NoError(t, a.Run(context.Background()))
		return out.String(), logs.String()
	}

	first, firstLogs := run()
	second, secondLogs := run()

	assert.Equal(t, first, second)
	assert.NotContains(t, firstLogs, "Event list served from cache.")
	assert.Contains(t, secondLogs, "Event list served from cache.")
	assert.NotContains(t, secondLogs, "Experiment scheduled.")

	cfg := defaultConfig()
	cfg.CachePath = cachePath
	cfg.ExpandLoops = false
	a, _, _, logs := SetupAppTest(t, cfg, demoFiles(demoHCL))
	require.NoError(t, a.Run(context.Background()))
	assert.NotContains(t, logs.String(), "Event list served from cache.", "settings are part of the key")
}

func TestRun_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		files   map[string]string
		wantIs  error
		wantErr string
	}{
		{
			name:    "missing experiment",
			files:   map[string]string{"/other/main.hcl": signalsHCL},
			wantErr: "failed to load experiment",
		},
		{
			name: "undeclared signal",
			files: demoFiles(`
experiment "demo" {
  play "x" {
    signal = "flux"
    length = 1 * ns
  }
}
`),
			wantIs:  topology.ErrTopology,
			wantErr: "failed to resolve experiment topology",
		},
		{
			name: "content longer than the section",
			files: demoFiles(`
experiment "demo" {
  section "short" {
    length = 10 * ns
    play "x" {
      signal = "drive"
      length = 32 * ns
    }
  }
}
`),
			wantIs:  schedule.ErrCapacity,
			wantErr: "does not fit",
		},
		{
			name: "undefined play_after",
			files: demoFiles(`
experiment "demo" {
  section "b" {
    play_after = "c"
  }
}
`),
			wantIs:  schedule.ErrReference,
			wantErr: "failed to schedule experiment",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, _, out, _ := SetupAppTest(t, defaultConfig(), tc.files)

			err := a.Run(context.Background())

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
			if tc.wantIs != nil {
				assert.True(t, errors.Is(err, tc.wantIs), "got %v", err)
			}
			assert.Empty(t, out.String(), "nothing is written on failure")
		})
	}
}

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name       string
		cfg        Config
		wantFormat string
		wantErr    string
	}{
		{name: "defaults the format", cfg: Config{ExperimentPath: "x"}, wantFormat: eventlist.FormatJSON},
		{name: "yaml", cfg: Config{ExperimentPath: "x", Format: "yaml"}, wantFormat: eventlist.FormatYAML},
		{name: "no experiment", cfg: Config{}, wantErr: "ExperimentPath"},
		{name: "bad format", cfg: Config{ExperimentPath: "x", Format: "xml"}, wantErr: "unsupported output format 'xml'"},
		{name: "negative budget", cfg: Config{ExperimentPath: "x", MaxEvents: -1}, wantErr: "must not be negative"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.cfg)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantFormat, cfg.Format)
		})
	}
}

func TestConfig_Settings(t *testing.T) {
	cfg := &Config{MaxEvents: 12, ExpandLoops: false}
	s := cfg.Settings()
	assert.Equal(t, 12, s.MaxEvents)
	assert.False(t, s.ExpandLoops)
	assert.Equal(t, topology.TinySample, s.TinySample)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("warn", "json", &buf)
	logger.Info("hidden")
	logger.Warn("shown", "key", 1)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	newLogger("nonsense", "text", &buf).Info("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}
