package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/pulsegrid/internal/app"
	"github.com/specialistvlad/pulsegrid/internal/eventlist"
)

// ExitError is an error that carries the process exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Parse processes command-line arguments. It returns the app configuration, a
// boolean telling the caller to exit cleanly (help was printed), or an *ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("pulsegrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
pulsegrid - compiles a pulse-sequence experiment into a timed event list.

Usage:
  pulsegrid [options] [EXPERIMENT_PATH]

Arguments:
  EXPERIMENT_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	experimentFlag := flagSet.String("experiment", "", "Path to the experiment file or directory.")
	eFlag := flagSet.String("e", "", "Path to the experiment file or directory (shorthand).")
	outFlag := flagSet.String("out", "", "File to write the event list to. Standard output when empty.")
	formatFlag := flagSet.String("format", eventlist.FormatJSON, "Event list format. Options: 'json' or 'yaml'.")
	maxEventsFlag := flagSet.Int("max-events", 1000, "Upper bound on the number of emitted events.")
	expandLoopsFlag := flagSet.Bool("expand-loops", true, "Emit every loop iteration instead of a compressed marker.")
	validateFlag := flagSet.Bool("validate", true, "Validate the event list against its JSON schema.")
	cacheFlag := flagSet.String("cache", "", "Path to a sqlite schedule cache. Empty disables caching.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err.Error())
	}

	path := *experimentFlag
	if path == "" {
		path = *eFlag
	}
	if path == "" && flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	if flagSet.NArg() > 1 {
		return nil, false, usageError("expected a single experiment path, got %d", flagSet.NArg())
	}
	slog.Debug("Experiment path determined.", "path", path)

	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	format := strings.ToLower(*formatFlag)
	if format != eventlist.FormatJSON && format != eventlist.FormatYAML {
		return nil, false, usageError("invalid format: must be 'json' or 'yaml'")
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, usageError("invalid log-format: must be 'text' or 'json'")
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	config, err := app.NewConfig(app.Config{
		ExperimentPath: path,
		OutPath:        *outFlag,
		Format:         format,
		MaxEvents:      *maxEventsFlag,
		ExpandLoops:    *expandLoopsFlag,
		Validate:       *validateFlag,
		CachePath:      *cacheFlag,
		LogFormat:      logFormat,
		LogLevel:       logLevel,
	})
	if err != nil {
		return nil, false, usageError("%s", err.Error())
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
