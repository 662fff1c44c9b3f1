package hcl

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/pulsegrid/internal/config"
	"github.com/specialistvlad/pulsegrid/internal/ctxlog"
	"github.com/specialistvlad/pulsegrid/internal/fsutil"
	"github.com/spf13/afero"
)

// Extension is the file extension of experiment files.
const Extension = ".hcl"

// ErrNoExperiment is returned when none of the loaded files declares an experiment.
var ErrNoExperiment = errors.New("no experiment block found")

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	fs afero.Fs
}

// NewLoader creates a new HCL experiment loader reading from fs.
func NewLoader(fs afero.Fs) *Loader {
	return &Loader{fs: fs}
}

var _ config.Loader = (*Loader)(nil)

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "signal", LabelNames: []string{"name"}},
		{Type: "experiment", LabelNames: []string{"name"}},
	},
}

// signalBlock is the body of a `signal` block.
type signalBlock struct {
	SamplingRate   float64 `hcl:"sampling_rate"`
	SampleMultiple int     `hcl:"sample_multiple,optional"`
	Device         string  `hcl:"device,optional"`
}

// Load parses every .hcl file under paths. Signals from all files are merged;
// exactly one file must declare the experiment.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(l.fs, Extension, paths...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found in %v", Extension, paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	evalCtx := newEvalContext()
	digest := sha256.New()
	model := &config.Model{Files: files}

	for _, file := range files {
		src, err := afero.ReadFile(l.fs, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		digest.Write([]byte(file))
		digest.Write([]byte{0})
		digest.Write(src)
		digest.Write([]byte{0})

		hclFile, diags := parser.ParseHCL(src, file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		content, diags := hclFile.Body.Content(fileSchema)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, block := range content.Blocks {
			switch block.Type {
			case "signal":
				sig, err := l.translateSignal(block, evalCtx)
				if err != nil {
					return nil, err
				}
				if model.Signal(sig.Name) != nil {
					return nil, fmt.Errorf("%s: signal %q is declared twice", block.DefRange, sig.Name)
				}
				model.Signals = append(model.Signals, sig)
			case "experiment":
				if model.Root != nil {
					return nil, fmt.Errorf("%s: experiment %q is declared but %q was already loaded", block.DefRange, block.Labels[0], model.Name)
				}
				root, err := l.translateSection(ctx, block.Labels[0], block.Body, evalCtx)
				if err != nil {
					return nil, err
				}
				model.Name = block.Labels[0]
				model.Root = root
			}
		}
	}
	if model.Root == nil {
		return nil, ErrNoExperiment
	}
	model.Digest = hex.EncodeToString(digest.Sum(nil))

	logger.Debug("HCL loading complete.", "experiment", model.Name, "signals", len(model.Signals), "files", len(files))
	return model, nil
}

func (l *Loader) translateSignal(block *hcl.Block, evalCtx *hcl.EvalContext) (*config.Signal, error) {
	var sb signalBlock
	if diags := gohcl.DecodeBody(block.Body, evalCtx, &sb); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode signal %q: %w", block.Labels[0], diags)
	}
	return &config.Signal{
		Name:           block.Labels[0],
		SamplingRate:   sb.SamplingRate,
		SampleMultiple: sb.SampleMultiple,
		Device:         sb.Device,
	}, nil
}
