// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package schedule

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/specialistvlad/pulsegrid/internal/ctxlog"
	"github.com/specialistvlad/pulsegrid/internal/eventlist"
)

const (
	// TicksPerSecond is the resolution of the scheduling grid. It is a common
	// multiple of the sampling rates of all supported instruments.
	TicksPerSecond = 3.6e15
	// TinySample is the duration of one tick in seconds.
	TinySample = 1 / TicksPerSecond
)

// Settings are the immutable parameters of one compilation.
type Settings struct {
	// TinySample is the duration of one tick in seconds. It is only used to report
	// durations in physical units.
	TinySample float64
	// MaxEvents caps the number of emitted events.
	MaxEvents int
	// ExpandLoops emits every loop iteration instead of the first one only.
	ExpandLoops bool
}

// DefaultSettings returns the settings used when nothing else is configured.
func DefaultSettings() Settings {
	return Settings{
		TinySample:  TinySample,
		MaxEvents:   1000,
		ExpandLoops: true,
	}
}

// CompileContext carries the state of one compilation through the recursive walk.
type CompileContext struct {
	settings Settings
	ids      *IDSource
	logger   *slog.Logger
}

// NewCompileContext returns a fresh context with its own id source. The logger is
// taken from ctx.
func NewCompileContext(ctx context.Context, settings Settings) *CompileContext {
	return &CompileContext{
		settings: settings,
		ids:      NewIDSource(0),
		logger:   ctxlog.FromContext(ctx),
	}
}

// Settings returns the compilation settings.
func (c *CompileContext) Settings() Settings { return c.settings }

// IDs returns the id source of the compilation.
func (c *CompileContext) IDs() *IDSource { return c.ids }

// Timing is the resolved placement of one interval.
type Timing struct {
	Length        int64
	Grid          int64
	ChildrenStart []int64
	AbsoluteStart int64
	resolved      bool
}

// Resolved reports whether the interval went through timing resolution.
func (t Timing) Resolved() bool { return t.resolved }

// Schedule holds the resolved timing of every node of a Tree.
type Schedule struct {
	tree    *Tree
	timings []Timing
}

// New returns an unresolved schedule for tree.
func New(tree *Tree) *Schedule {
	return &Schedule{
		tree:    tree,
		timings: make([]Timing, tree.Len()),
	}
}

// Tree returns the input tree.
func (s *Schedule) Tree() *Tree { return s.tree }

// Timing returns a copy of the resolved timing of h.
func (s *Schedule) Timing(h Handle) Timing {
	t := s.timings[h]
	t.ChildrenStart = append([]int64(nil), t.ChildrenStart...)
	return t
}

// Result is the output of a compilation.
type Result struct {
	Schedule *Schedule
	Events   []eventlist.Event
}

// Compile validates tree, resolves its timing from tick 0 and generates the event
// list. Nothing is returned when any step fails.
func Compile(ctx context.Context, tree *Tree, settings Settings) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	if err := tree.Validate(); err != nil {
		return nil, err
	}
	c := NewCompileContext(ctx, settings)
	s := New(tree)
	if _, err := s.CalculateTiming(c, 0, true); err != nil {
		return nil, err
	}
	root := s.timings[tree.Root()]
	logger.Debug("Timing resolved.", "root", tree.SectionOf(tree.Root()), "length", root.Length)

	events := s.GenerateEventList(c, root.AbsoluteStart, settings.MaxEvents)
	logger.Debug("Event list generated.", "events", len(events), "max_events", settings.MaxEvents)
	return &Result{Schedule: s, Events: events}, nil
}

// CalculateTiming resolves the whole tree starting at start and returns the effective
// absolute start of the root. It can be called again on a resolved schedule; the
// result only depends on the input tree.
func (s *Schedule) CalculateTiming(c *CompileContext, start int64, startMayChange bool) (int64, error) {
	if !s.tree.valid(s.tree.Root()) {
		return 0, fmt.Errorf("%w: root is not set", ErrInvalidTree)
	}
	return s.resolve(c, s.tree.Root(), start, startMayChange)
}

// resolve runs the timing calculation of h and records its absolute start.
func (s *Schedule) resolve(c *CompileContext, h Handle, start int64, startMayChange bool) (int64, error) {
	node := s.tree.Node(h)
	base := node.Base()
	t := &s.timings[h]
	t.Grid = base.Grid
	t.ChildrenStart = make([]int64, len(base.Children))
	t.resolved = false

	effective, err := node.calculateTiming(s, c, h, start, startMayChange)
	if err != nil {
		return 0, err
	}
	t = &s.timings[h]
	t.AbsoluteStart = effective
	t.resolved = true
	return effective, nil
}

// shift moves the absolute start of h and all its descendants by delta.
func (s *Schedule) shift(h Handle, delta int64) {
	if delta == 0 {
		return
	}
	s.timings[h].AbsoluteStart += delta
	for _, ch := range s.tree.Node(h).Base().Children {
		s.shift(ch, delta)
	}
}

// AdjustLength stretches a resolved interval to newLength without rearranging it.
// Right-aligned sections move every child by the difference so they stay flush with
// the end. No check is done that the new length fits the content.
func (s *Schedule) AdjustLength(h Handle, newLength int64) error {
	t := &s.timings[h]
	if !t.resolved {
		return fmt.Errorf("adjust length of '%s': %w", s.tree.SectionOf(h), ErrNotResolved)
	}
	if t.Length == newLength {
		return nil
	}
	s.resize(h, CeilToGrid(newLength, t.Grid))
	return nil
}

// AdjustGrid moves a resolved interval onto a new grid, growing its length to the
// next multiple of newGrid when needed.
func (s *Schedule) AdjustGrid(h Handle, newGrid int64) error {
	t := &s.timings[h]
	if !t.resolved {
		return fmt.Errorf("adjust grid of '%s': %w", s.tree.SectionOf(h), ErrNotResolved)
	}
	if newGrid <= 0 {
		return fmt.Errorf("adjust grid of '%s': grid must be positive, got %d", s.tree.SectionOf(h), newGrid)
	}
	t.Grid = newGrid
	newLength := CeilToGrid(t.Length, newGrid)
	if newLength == t.Length {
		return nil
	}
	s.resize(h, newLength)
	return nil
}

func (s *Schedule) resize(h Handle, newLength int64) {
	t := &s.timings[h]
	delta := newLength - t.Length
	t.Length = newLength
	sl, ok := s.tree.Node(h).(sectionLike)
	if !ok || !sl.rightAligned() {
		return
	}
	for i, ch := range sl.Base().Children {
		t.ChildrenStart[i] += delta
		s.shift(ch, delta)
	}
}

// calculateLength sets the length of a section-like node from its arranged children
// and enforces its fixed length, if any.
func (s *Schedule) calculateLength(c *CompileContext, h Handle, name string) error {
	node := s.tree.Node(h)
	base := node.Base()
	t := &s.timings[h]

	var length int64
	if len(base.Children) > 0 {
		var end int64
		for i, ch := range base.Children {
			end = max(end, t.ChildrenStart[i]+s.timings[ch].Length)
		}
		length = CeilToGrid(end, t.Grid)
	}

	t.Length = length
	if base.Length == nil {
		return nil
	}
	forced := CeilToGrid(*base.Length, t.Grid)
	if forced < length {
		return &CapacityError{Section: name, Content: length, Limit: forced, TinySample: c.settings.TinySample}
	}
	if forced != length {
		s.resize(h, forced)
	}
	return nil
}
