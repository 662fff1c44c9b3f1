package app

import (
	"io"
	"log/slog"

	"github.com/specialistvlad/pulsegrid/internal/config"
	"github.com/spf13/afero"
)

// App compiles one experiment according to its Config.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	loader config.Loader
	fs     afero.Fs
}

// NewApp wires the application. Events go to outW unless the configuration names an
// output file on fs, logs always go to logW.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader, fs afero.Fs) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")
	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		loader: loader,
		fs:     fs,
	}
}

// Config returns the configuration the app was built with.
func (a *App) Config() *Config {
	return a.config
}
