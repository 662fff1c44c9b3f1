package schedule

import (
	"fmt"

	"github.com/specialistvlad/pulsegrid/internal/eventlist"
)

// body returns the handle of the iteration section.
func (l *Loop) body() Handle {
	return l.Children[0]
}

// calculateTiming resolves one iteration and repeats it. Every iteration must look the
// same, so the body is not allowed to move its start.
func (l *Loop) calculateTiming(s *Schedule, c *CompileContext, h Handle, start int64, _ bool) (int64, error) {
	body := l.body()
	effective, err := s.resolve(c, body, start, false)
	if err != nil {
		return 0, err
	}
	if effective != start {
		return 0, &StructuralError{Section: l.Name, Detail: fmt.Sprintf("loop body moved its start by %d ticks", effective-start)}
	}

	if l.RepetitionLength != nil {
		iteration := s.timings[body].Length
		if *l.RepetitionLength < iteration {
			return 0, &CapacityError{Section: l.Name, Content: iteration, Limit: *l.RepetitionLength, TinySample: c.settings.TinySample}
		}
		if err := s.AdjustLength(body, *l.RepetitionLength); err != nil {
			return 0, err
		}
	}
	if err := s.AdjustGrid(body, l.Grid); err != nil {
		return 0, err
	}

	t := &s.timings[h]
	t.ChildrenStart[0] = 0
	t.Length = s.timings[body].Length * int64(l.Iterations)
	if l.Length != nil {
		forced := CeilToGrid(*l.Length, t.Grid)
		if forced < t.Length {
			return 0, &CapacityError{Section: l.Name, Content: t.Length, Limit: forced, TinySample: c.settings.TinySample}
		}
		t.Length = forced
	}
	c.logger.Debug("Loop arranged.",
		"section", l.Name,
		"iterations", l.Iterations,
		"iteration_length", s.timings[body].Length,
		"length", t.Length,
	)
	return start, nil
}

// generateEvents emits every iteration when loops are expanded, otherwise the first
// iteration followed by a compressed LOOP_ITERATION_END marker.
func (l *Loop) generateEvents(s *Schedule, c *CompileContext, h Handle, start int64, maxEvents int) []eventlist.Event {
	t := s.timings[h]
	body := l.body()
	iterationLength := s.timings[body].Length

	maxEvents -= 2
	iterations := 1
	compressed := !c.settings.ExpandLoops && l.Iterations > 1
	if c.settings.ExpandLoops {
		iterations = l.Iterations
	}
	if compressed {
		maxEvents--
	}

	var inner []eventlist.Event
	for i := 0; i < iterations && maxEvents > 0; i++ {
		maxEvents -= 2
		iteration := i
		iterStart := start + int64(i)*iterationLength
		chain := c.ids.Next()
		events := s.tree.Node(body).generateEvents(s, c, body, iterStart, maxEvents)
		maxEvents -= len(events)

		inner = append(inner, eventlist.Event{
			EventType:      eventlist.LoopStepStart,
			Time:           iterStart,
			ID:             chain,
			ChainElementID: chain,
			SectionName:    l.Name,
			Iteration:      &iteration,
		})
		inner = append(inner, events...)
		inner = append(inner, eventlist.Event{
			EventType:      eventlist.LoopStepEnd,
			Time:           iterStart + iterationLength,
			ID:             c.ids.Next(),
			ChainElementID: chain,
			SectionName:    l.Name,
			Iteration:      &iteration,
		})
	}
	if compressed {
		inner = append(inner, eventlist.Event{
			EventType:   eventlist.LoopIterationEnd,
			Time:        start + iterationLength,
			ID:          c.ids.Next(),
			SectionName: l.Name,
			NumRepeats:  l.Iterations,
			Compressed:  true,
		})
	}

	chain := c.ids.Next()
	events := make([]eventlist.Event, 0, len(inner)+2)
	events = append(events, eventlist.Event{
		EventType:      eventlist.SectionStart,
		Time:           start,
		ID:             chain,
		ChainElementID: chain,
		SectionName:    l.Name,
	})
	events = append(events, inner...)
	events = append(events, eventlist.Event{
		EventType:      eventlist.SectionEnd,
		Time:           start + t.Length,
		ID:             c.ids.Next(),
		ChainElementID: chain,
		SectionName:    l.Name,
	})
	return events
}
