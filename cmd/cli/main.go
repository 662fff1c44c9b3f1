package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/specialistvlad/pulsegrid/internal/app"
	"github.com/specialistvlad/pulsegrid/internal/cli"
	"github.com/specialistvlad/pulsegrid/internal/hcl"
	"github.com/spf13/afero"
)

// main is the entrypoint for the pulsegrid compiler.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run parses args and compiles the experiment on the host file system. Events go
// to outW, logs and help text to errW.
func run(outW, errW io.Writer, args []string) (err error) {
	appConfig, shouldExit, err := cli.Parse(args, errW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compilation panicked | %v", r)
		}
	}()

	fs := afero.NewOsFs()
	pulsegrid := app.NewApp(outW, errW, appConfig, hcl.NewLoader(fs), fs)
	return pulsegrid.Run(context.Background())
}
