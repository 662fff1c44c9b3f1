// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the interval variants that make up a schedule tree.
//
// Every node shares the IntervalBase shape (grid, optional declared length, touched
// signals and ordered children). The Interval interface is sealed through its unexported
// methods: sections, loops and the four leaf kinds are the only implementations.
package schedule

import (
	"github.com/specialistvlad/pulsegrid/internal/eventlist"
)

// Handle addresses a node inside a Tree. It is assigned by Tree.Add.
type Handle int

// NoHandle is the zero value for an absent handle.
const NoHandle Handle = -1

// IntervalBase is the shape shared by all intervals.
type IntervalBase struct {
	// Grid is the placement and length quantum of the interval, in ticks.
	Grid int64
	// Length is the declared length. Leaves must declare one; for sections and loops
	// it is a fixed length that content must fit into.
	Length *int64
	// Signals is the set of signals the interval occupies.
	Signals []string
	// Children are the ordered child handles.
	Children []Handle
}

// Interval is implemented by every node of a schedule tree.
type Interval interface {
	Base() *IntervalBase

	// calculateTiming resolves the node into s.timings[h] and returns its effective
	// absolute start, which may be later than start when startMayChange is set.
	calculateTiming(s *Schedule, c *CompileContext, h Handle, start int64, startMayChange bool) (int64, error)
	// generateEvents emits the events of a resolved node starting at start.
	generateEvents(s *Schedule, c *CompileContext, h Handle, start int64, maxEvents int) []eventlist.Event
}

// sectionLike is implemented by named intervals that take part in play_after
// resolution and subsection wrapping.
type sectionLike interface {
	Interval
	sectionName() string
	playAfter() []string
	rightAligned() bool
}

// Trigger is a digital output line held high for the duration of a section.
type Trigger struct {
	Signal string
	Bit    int
}

// Section groups children under an alignment policy.
type Section struct {
	IntervalBase
	Name         string
	RightAligned bool
	PlayAfter    []string
	Triggers     []Trigger
	// StartGrid, when positive, forces the section to start on a multiple of it.
	StartGrid int64
}

// Base returns the shared interval shape.
func (s *Section) Base() *IntervalBase { return &s.IntervalBase }

func (s *Section) sectionName() string { return s.Name }
func (s *Section) playAfter() []string { return s.PlayAfter }
func (s *Section) rightAligned() bool { return s.RightAligned }

// Loop repeats its single child, the iteration body, Iterations times.
type Loop struct {
	IntervalBase
	Name       string
	Iterations int
	// RepetitionLength, when set, is the fixed length of one iteration.
	RepetitionLength *int64
	PlayAfter        []string
}

// Base returns the shared interval shape.
func (l *Loop) Base() *IntervalBase { return &l.IntervalBase }

func (l *Loop) sectionName() string { return l.Name }
func (l *Loop) playAfter() []string { return l.PlayAfter }
func (l *Loop) rightAligned() bool { return false }

// Pulse plays a waveform on one signal.
type Pulse struct {
	IntervalBase
	ID string
}

// Base returns the shared interval shape.
func (p *Pulse) Base() *IntervalBase { return &p.IntervalBase }

// Acquire records data on one signal.
type Acquire struct {
	IntervalBase
	Handle string
}

// Base returns the shared interval shape.
func (a *Acquire) Base() *IntervalBase { return &a.IntervalBase }

// Delay keeps a signal idle.
type Delay struct {
	IntervalBase
}

// Base returns the shared interval shape.
func (d *Delay) Base() *IntervalBase { return &d.IntervalBase }

// FilterReset resets the pre-distortion filter of a signal. It is anchored to the
// start of the pulse it references, which must be its immediately preceding sibling.
type FilterReset struct {
	IntervalBase
	Pulse Handle
}

// Base returns the shared interval shape.
func (f *FilterReset) Base() *IntervalBase { return &f.IntervalBase }

// Int64 returns a pointer to v, for declared lengths.
func Int64(v int64) *int64 {
	return &v
}
