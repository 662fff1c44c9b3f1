// Package topology resolves the physical description of an experiment into the
// integer grid the scheduling engine works on.
//
// Every signal gets a sample length in ticks derived from its sampling rate and a
// placement grid of SampleMultiple samples. Times written in seconds are rounded
// to ticks, leaf lengths to whole samples. Build then turns the authoring model
// into a schedule.Tree, deriving the signals and grid of every section.
package topology

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/specialistvlad/pulsegrid/internal/config"
	"github.com/specialistvlad/pulsegrid/internal/schedule"
)

const (
	// TicksPerSecond is the resolution of the scheduling grid.
	TicksPerSecond = schedule.TicksPerSecond
	// TinySample is the duration of one tick in seconds.
	TinySample = schedule.TinySample
	// DefaultSampleMultiple is the placement granularity, in samples, of a signal
	// that does not declare one.
	DefaultSampleMultiple = 16
)

// ErrTopology is matched by every *Error.
var ErrTopology = errors.New("topology error")

// Error reports an experiment that cannot be mapped onto the grid.
type Error struct {
	Section string
	Detail  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("section '%s': %s", e.Section, e.Detail)
}

// Is makes errors.Is(err, ErrTopology) match.
func (e *Error) Is(target error) bool {
	return target == ErrTopology
}

// Ticks converts seconds into grid ticks, rounding to the nearest tick.
func Ticks(seconds float64) int64 {
	return int64(math.Round(seconds * TicksPerSecond))
}

// SignalInfo is a signal resolved onto the grid.
type SignalInfo struct {
	Name   string
	Device string
	// SampleTicks is the length of one sample in ticks.
	SampleTicks int64
	// Grid is the placement grid of the signal in ticks.
	Grid int64
}

// Resolver maps signals and times of one experiment onto the grid.
type Resolver struct {
	signals    map[string]*SignalInfo
	systemGrid int64
}

// NewResolver resolves every signal. A non-positive sampling rate, a rate too
// high for the grid or a negative sample multiple is an error.
func NewResolver(signals []*config.Signal) (*Resolver, error) {
	r := &Resolver{signals: make(map[string]*SignalInfo, len(signals))}
	grids := make([]int64, 0, len(signals))
	for _, sig := range signals {
		if _, dup := r.signals[sig.Name]; dup {
			return nil, fmt.Errorf("%w: signal '%s' is declared twice", ErrTopology, sig.Name)
		}
		if sig.SamplingRate <= 0 || math.IsInf(sig.SamplingRate, 0) || math.IsNaN(sig.SamplingRate) {
			return nil, fmt.Errorf("%w: signal '%s' has invalid sampling rate %g", ErrTopology, sig.Name, sig.SamplingRate)
		}
		sampleTicks := int64(math.Round(TicksPerSecond / sig.SamplingRate))
		if sampleTicks < 1 {
			return nil, fmt.Errorf("%w: sampling rate %g of signal '%s' is finer than the grid", ErrTopology, sig.SamplingRate, sig.Name)
		}
		multiple := sig.SampleMultiple
		if multiple < 0 {
			return nil, fmt.Errorf("%w: signal '%s' has negative sample multiple %d", ErrTopology, sig.Name, multiple)
		}
		if multiple == 0 {
			multiple = DefaultSampleMultiple
		}
		info := &SignalInfo{
			Name:        sig.Name,
			Device:      sig.Device,
			SampleTicks: sampleTicks,
			Grid:        sampleTicks * int64(multiple),
		}
		r.signals[sig.Name] = info
		grids = append(grids, info.Grid)
	}
	r.systemGrid = schedule.LCM(grids...)
	return r, nil
}

// Signal returns the resolved signal, or nil when it is not declared.
func (r *Resolver) Signal(name string) *SignalInfo {
	return r.signals[name]
}

// SystemGrid is the least common multiple of the grids of all signals. Sections
// marked on_system_grid start on a multiple of it.
func (r *Resolver) SystemGrid() int64 {
	return r.systemGrid
}

// Grid returns the least common multiple of the grids of the named signals, or 1
// when there are none. Unknown signals are skipped.
func (r *Resolver) Grid(signals []string) int64 {
	grids := make([]int64, 0, len(signals))
	for _, name := range signals {
		if info := r.signals[name]; info != nil {
			grids = append(grids, info.Grid)
		}
	}
	return schedule.LCM(grids...)
}

// LeafLength converts a leaf duration into ticks rounded up to whole samples of
// the signal.
func (r *Resolver) LeafLength(signal string, seconds float64) int64 {
	info := r.signals[signal]
	return schedule.CeilToGrid(Ticks(seconds), info.SampleTicks)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
