// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file turns a resolved schedule into a flat list of events.
//
// Every section brackets its content with SECTION_START and SECTION_END, its trigger
// lines with SET and CLEAR state changes, and each section-like child with a
// SUBSECTION_START/SUBSECTION_END pair. The event budget is a soft cap: once it is used
// up, triggers and children are dropped, but brackets are always closed and the per-child
// sub-lists stay aligned with the child offsets.
package schedule

import (
	"sort"

	"github.com/specialistvlad/pulsegrid/internal/eventlist"
)

// GenerateEventList emits the events of the resolved tree with the root starting at
// start, using at most roughly maxEvents events.
func (s *Schedule) GenerateEventList(c *CompileContext, start int64, maxEvents int) []eventlist.Event {
	root := s.tree.Root()
	return s.tree.Node(root).generateEvents(s, c, root, start, maxEvents)
}

// ChildrenEvents returns one event sub-list per child of h, in declaration order.
// When the budget runs out the remaining sub-lists are empty, so the result always has
// one entry per child.
func (s *Schedule) ChildrenEvents(c *CompileContext, h Handle, start int64, maxEvents int, subsectionEvents bool) [][]eventlist.Event {
	children := s.tree.Node(h).Base().Children
	t := s.timings[h]

	if subsectionEvents {
		maxEvents -= 2 * len(children)
	}

	nested := make([][]eventlist.Event, 0, len(children))
	for i, ch := range children {
		if maxEvents <= 0 {
			break
		}
		events := s.tree.Node(ch).generateEvents(s, c, ch, start+t.ChildrenStart[i], maxEvents)
		nested = append(nested, events)
		maxEvents -= len(events)
	}
	for len(nested) < len(children) {
		nested = append(nested, []eventlist.Event{})
	}

	if !subsectionEvents {
		return nested
	}
	name := s.tree.SectionOf(h)
	for i, ch := range children {
		sl, ok := s.tree.Node(ch).(sectionLike)
		if !ok {
			continue
		}
		chain := c.ids.Next()
		childStart := start + t.ChildrenStart[i]
		wrapped := make([]eventlist.Event, 0, len(nested[i])+2)
		wrapped = append(wrapped, eventlist.Event{
			EventType:      eventlist.SubsectionStart,
			Time:           childStart,
			ID:             chain,
			ChainElementID: chain,
			SectionName:    name,
			SubsectionName: sl.sectionName(),
		})
		wrapped = append(wrapped, nested[i]...)
		wrapped = append(wrapped, eventlist.Event{
			EventType:      eventlist.SubsectionEnd,
			Time:           childStart + s.timings[ch].Length,
			ID:             c.ids.Next(),
			ChainElementID: chain,
			SectionName:    name,
			SubsectionName: sl.sectionName(),
		})
		nested[i] = wrapped
	}
	return nested
}

// sortedTriggers returns the triggers ordered by signal and bit so that emission does
// not depend on declaration order of the set.
func (sec *Section) sortedTriggers() []Trigger {
	triggers := append([]Trigger(nil), sec.Triggers...)
	sort.Slice(triggers, func(i, j int) bool {
		if triggers[i].Signal != triggers[j].Signal {
			return triggers[i].Signal < triggers[j].Signal
		}
		return triggers[i].Bit < triggers[j].Bit
	})
	return triggers
}

func (sec *Section) generateEvents(s *Schedule, c *CompileContext, h Handle, start int64, maxEvents int) []eventlist.Event {
	t := s.timings[h]

	// START and END of this section.
	maxEvents -= 2

	triggers := sec.sortedTriggers()
	var outputs []eventlist.TriggerRef
	for _, tr := range triggers {
		outputs = append(outputs, eventlist.TriggerRef{SignalID: tr.Signal})
	}

	var setEvents, clearEvents []eventlist.Event
	for _, tr := range triggers {
		if maxEvents < 2 {
			break
		}
		maxEvents -= 2
		bit := tr.Bit
		event := eventlist.Event{
			EventType:   eventlist.DigitalSignalStateChange,
			SectionName: sec.Name,
			Signal:      tr.Signal,
			Bit:         &bit,
		}
		setEvent := event
		setEvent.Change = eventlist.ChangeSet
		setEvent.Time = start
		setEvent.ID = c.ids.Next()
		clearEvent := event
		clearEvent.Change = eventlist.ChangeClear
		clearEvent.Time = start + t.Length
		clearEvent.ID = c.ids.Next()
		setEvents = append(setEvents, setEvent)
		clearEvents = append(clearEvents, clearEvent)
	}

	children := s.ChildrenEvents(c, h, start, maxEvents, true)

	chain := c.ids.Next()
	total := 2 + len(setEvents) + len(clearEvents)
	for _, l := range children {
		total += len(l)
	}
	events := make([]eventlist.Event, 0, total)
	events = append(events, eventlist.Event{
		EventType:      eventlist.SectionStart,
		Time:           start,
		ID:             chain,
		ChainElementID: chain,
		SectionName:    sec.Name,
		TriggerOutput:  outputs,
	})
	events = append(events, setEvents...)
	for _, l := range children {
		events = append(events, l...)
	}
	events = append(events, clearEvents...)
	events = append(events, eventlist.Event{
		EventType:      eventlist.SectionEnd,
		Time:           start + t.Length,
		ID:             c.ids.Next(),
		ChainElementID: chain,
		SectionName:    sec.Name,
		TriggerOutput:  outputs,
	})
	return events
}
