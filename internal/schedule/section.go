// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file holds the arrangement of section children.
//
// A left-aligned section places each child at the earliest tick allowed by the signals
// it shares with earlier siblings and by its play_after edges. A right-aligned section
// mirrors that: it walks the children from last to first, places each one as late as
// possible before the later siblings on the same signals, and finally shifts all offsets
// so that the earliest child starts at zero.
package schedule

import (
	"fmt"
)

func (sec *Section) calculateTiming(s *Schedule, c *CompileContext, h Handle, start int64, startMayChange bool) (int64, error) {
	if sec.StartGrid > 0 {
		aligned := CeilToGrid(start, sec.StartGrid)
		if aligned != start {
			if !startMayChange {
				return 0, &StructuralError{
					Section: sec.Name,
					Detail:  fmt.Sprintf("start %d is not on the start grid %d and may not be moved", start, sec.StartGrid),
				}
			}
			c.logger.Debug("Section start moved onto its start grid.", "section", sec.Name, "requested", start, "start", aligned)
			start = aligned
		}
	}

	byName := sec.siblingIndex(s)
	var err error
	if sec.RightAligned {
		err = sec.arrangeRightAligned(s, c, h, start, byName)
	} else {
		err = sec.arrangeLeftAligned(s, c, h, start, byName, startMayChange)
	}
	if err != nil {
		return 0, err
	}
	if err := s.calculateLength(c, h, sec.Name); err != nil {
		return 0, err
	}
	c.logger.Debug("Section arranged.",
		"section", sec.Name,
		"right_aligned", sec.RightAligned,
		"start", start,
		"length", s.timings[h].Length,
		"children", len(sec.Children),
	)
	return start, nil
}

// siblingIndex maps the names of section-like children to their position.
func (sec *Section) siblingIndex(s *Schedule) map[string]int {
	byName := make(map[string]int)
	for i, ch := range sec.Children {
		if sl, ok := s.tree.Node(ch).(sectionLike); ok {
			byName[sl.sectionName()] = i
		}
	}
	return byName
}

// playAfterIndex resolves one play_after reference of the child at position i.
func playAfterIndex(child sectionLike, ref string, i int, byName map[string]int) (int, error) {
	idx, ok := byName[ref]
	if !ok {
		return 0, &ReferenceError{Section: child.sectionName(), Reference: ref, Reason: "it is not defined at the same level"}
	}
	if idx >= i {
		return 0, &ReferenceError{Section: child.sectionName(), Reference: ref, Reason: "it is defined later"}
	}
	return idx, nil
}

func (sec *Section) arrangeLeftAligned(s *Schedule, c *CompileContext, h Handle, absoluteStart int64, byName map[string]int, startMayChange bool) error {
	signalEnd := make(map[string]int64)
	for i, ch := range sec.Children {
		child := s.tree.Node(ch)
		base := child.Base()

		var start int64
		for _, sig := range base.Signals {
			start = max(start, signalEnd[sig])
		}

		switch v := child.(type) {
		case sectionLike:
			for _, ref := range v.playAfter() {
				idx, err := playAfterIndex(v, ref, i, byName)
				if err != nil {
					return err
				}
				start = max(start, s.timings[h].ChildrenStart[idx]+s.timings[sec.Children[idx]].Length)
			}
		case *FilterReset:
			anchor, err := sec.filterResetAnchor(s, h, v, i)
			if err != nil {
				return err
			}
			start = anchor
		}

		start = CeilToGrid(start, base.Grid)
		effective, err := s.resolve(c, ch, absoluteStart+start, startMayChange)
		if err != nil {
			return err
		}
		start = effective - absoluteStart
		s.timings[h].ChildrenStart[i] = start

		// A filter reset sits at its pulse's start and must not pull the signal
		// end back before the pulse's end.
		end := start + s.timings[ch].Length
		for _, sig := range base.Signals {
			signalEnd[sig] = max(signalEnd[sig], end)
		}
	}
	return nil
}

// filterResetAnchor returns the start offset of the pulse a filter reset refers to.
// The pulse must be the sibling directly before the reset.
func (sec *Section) filterResetAnchor(s *Schedule, h Handle, fr *FilterReset, i int) (int64, error) {
	for j := 0; j < i; j++ {
		if sec.Children[j] != fr.Pulse {
			continue
		}
		if j != i-1 {
			return 0, &StructuralError{Section: sec.Name, Detail: "a filter reset must directly follow the pulse it refers to"}
		}
		return s.timings[h].ChildrenStart[j], nil
	}
	return 0, &StructuralError{Section: sec.Name, Detail: "the filter reset refers to a pulse that could not be found"}
}

func (sec *Section) arrangeRightAligned(s *Schedule, c *CompileContext, h Handle, absoluteStart int64, byName map[string]int) error {
	// play_after edges are checked up front so that an undefined reference is reported
	// even though the reverse walk only looks at the inverted edges.
	playBefore := make(map[string][]string)
	for i, ch := range sec.Children {
		sl, ok := s.tree.Node(ch).(sectionLike)
		if !ok {
			continue
		}
		for _, ref := range sl.playAfter() {
			if _, err := playAfterIndex(sl, ref, i, byName); err != nil {
				return err
			}
			playBefore[ref] = append(playBefore[ref], sl.sectionName())
		}
	}

	t := &s.timings[h]
	signalEnd := make(map[string]int64)
	for i := len(sec.Children) - 1; i >= 0; i-- {
		ch := sec.Children[i]
		child := s.tree.Node(ch)
		base := child.Base()

		if _, ok := child.(*FilterReset); ok {
			return &StructuralError{Section: sec.Name, Detail: "cannot reset the precompensation filter inside a right-aligned section"}
		}

		effective, err := s.resolve(c, ch, absoluteStart, true)
		if err != nil {
			return err
		}
		if effective != absoluteStart {
			return &StructuralError{
				Section: sec.Name,
				Detail:  fmt.Sprintf("child '%s' moved its start by %d ticks; variable-latency children are not supported in right-aligned sections", s.tree.SectionOf(ch), effective-absoluteStart),
			}
		}
		length := s.timings[ch].Length

		var end int64
		for _, sig := range base.Signals {
			end = min(end, signalEnd[sig])
		}
		start := end - length

		if sl, ok := child.(sectionLike); ok {
			for _, later := range playBefore[sl.sectionName()] {
				idx, found := byName[later]
				if !found {
					return &ReferenceError{Section: later, Reference: sl.sectionName(), Reason: "it is not defined at the same level"}
				}
				if idx <= i {
					return &ReferenceError{Section: later, Reference: sl.sectionName(), Reason: "it is defined later"}
				}
				start = min(start, t.ChildrenStart[idx]-length)
			}
		}

		start = FloorToGrid(start, base.Grid)
		t.ChildrenStart[i] = start
		for _, sig := range base.Signals {
			signalEnd[sig] = start
		}
	}

	var earliest int64
	for _, start := range t.ChildrenStart {
		earliest = min(earliest, start)
	}
	sectionStart := FloorToGrid(earliest, t.Grid)
	for i, ch := range sec.Children {
		t.ChildrenStart[i] -= sectionStart
		s.shift(ch, t.ChildrenStart[i])
	}
	return nil
}
