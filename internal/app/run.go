package app

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/specialistvlad/pulsegrid/internal/config"
	"github.com/specialistvlad/pulsegrid/internal/ctxlog"
	"github.com/specialistvlad/pulsegrid/internal/eventlist"
	"github.com/specialistvlad/pulsegrid/internal/schedcache"
	"github.com/specialistvlad/pulsegrid/internal/schedule"
	"github.com/specialistvlad/pulsegrid/internal/topology"
	"github.com/spf13/afero"
)

// Run loads the experiment, compiles it and writes the encoded event list. With a
// cache configured, an unchanged experiment is served from the cache.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	model, err := a.loader.Load(ctx, a.config.ExperimentPath)
	if err != nil {
		return fmt.Errorf("failed to load experiment: %w", err)
	}
	a.logger.Info("Experiment loaded.", "name", model.Name, "files", len(model.Files), "signals", len(model.Signals))

	var cache *schedcache.Cache
	key := a.cacheKey(model)
	if a.config.CachePath != "" {
		cache, err = schedcache.Open(ctx, a.config.CachePath)
		if err != nil {
			return err
		}
		defer cache.Close()

		payload, ok, err := cache.Get(ctx, key)
		if err != nil {
			return err
		}
		if ok {
			a.logger.Info("Event list served from cache.", "bytes", len(payload))
			return a.write(payload)
		}
	}

	payload, err := a.compile(ctx, model)
	if err != nil {
		return err
	}
	if err := a.write(payload); err != nil {
		return err
	}
	if cache != nil {
		if err := cache.Put(ctx, key, payload); err != nil {
			return err
		}
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// cacheKey covers everything the encoded output depends on.
func (a *App) cacheKey(model *config.Model) string {
	return schedcache.Key(
		model.Digest,
		strconv.Itoa(a.config.MaxEvents),
		strconv.FormatBool(a.config.ExpandLoops),
		a.config.Format,
	)
}

func (a *App) compile(ctx context.Context, model *config.Model) ([]byte, error) {
	tree, err := topology.Build(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve experiment topology: %w", err)
	}
	a.logger.Debug("Interval tree built.", "nodes", tree.Len())

	res, err := schedule.Compile(ctx, tree, a.config.Settings())
	if err != nil {
		return nil, fmt.Errorf("failed to schedule experiment: %w", err)
	}
	if err := eventlist.CheckWellFormed(res.Events); err != nil {
		return nil, fmt.Errorf("scheduler produced an invalid event list: %w", err)
	}
	if a.config.Validate {
		v, err := eventlist.NewValidator()
		if err != nil {
			return nil, err
		}
		if err := v.Validate(res.Events); err != nil {
			return nil, fmt.Errorf("scheduler produced an invalid event list: %w", err)
		}
	}

	length := res.Schedule.Timing(tree.Root()).Length
	a.logger.Info("Experiment scheduled.",
		"events", len(res.Events),
		"length", humanize.SIWithDigits(float64(length)*topology.TinySample, 3, "s"),
		"length_ticks", length,
	)

	var buf bytes.Buffer
	if err := eventlist.Encode(&buf, res.Events, a.config.Format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *App) write(payload []byte) error {
	if a.config.OutPath == "" {
		_, err := a.outW.Write(payload)
		return err
	}
	if dir := filepath.Dir(a.config.OutPath); dir != "." {
		if err := a.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create output directory: %w", err)
		}
	}
	if err := afero.WriteFile(a.fs, a.config.OutPath, payload, 0o644); err != nil {
		return fmt.Errorf("cannot write event list: %w", err)
	}
	a.logger.Info("Event list written.", "path", a.config.OutPath, "bytes", len(payload))
	return nil
}
