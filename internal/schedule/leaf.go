package schedule

import (
	"github.com/specialistvlad/pulsegrid/internal/eventlist"
)

// resolveLeaf gives a leaf its declared length. Leaves never move their start.
func resolveLeaf(s *Schedule, h Handle, base *IntervalBase, start int64) (int64, error) {
	t := &s.timings[h]
	if base.Length != nil {
		t.Length = *base.Length
	} else {
		t.Length = 0
	}
	return start, nil
}

func (p *Pulse) calculateTiming(s *Schedule, _ *CompileContext, h Handle, start int64, _ bool) (int64, error) {
	return resolveLeaf(s, h, &p.IntervalBase, start)
}

func (a *Acquire) calculateTiming(s *Schedule, _ *CompileContext, h Handle, start int64, _ bool) (int64, error) {
	return resolveLeaf(s, h, &a.IntervalBase, start)
}

func (d *Delay) calculateTiming(s *Schedule, _ *CompileContext, h Handle, start int64, _ bool) (int64, error) {
	return resolveLeaf(s, h, &d.IntervalBase, start)
}

func (f *FilterReset) calculateTiming(s *Schedule, _ *CompileContext, h Handle, start int64, _ bool) (int64, error) {
	return resolveLeaf(s, h, &f.IntervalBase, start)
}

// leafSignal returns the signal a leaf acts on.
func leafSignal(base *IntervalBase) string {
	if len(base.Signals) == 0 {
		return ""
	}
	return base.Signals[0]
}

// leafPair emits the start/end pair of a leaf when the budget allows it.
func leafPair(s *Schedule, c *CompileContext, h Handle, start int64, maxEvents int, startType, endType eventlist.Type, decorate func(*eventlist.Event)) []eventlist.Event {
	if maxEvents < 2 {
		return nil
	}
	t := s.timings[h]
	chain := c.ids.Next()
	first := eventlist.Event{
		EventType:      startType,
		Time:           start,
		ID:             chain,
		ChainElementID: chain,
		SectionName:    s.tree.SectionOf(h),
		Signal:         leafSignal(s.tree.Node(h).Base()),
	}
	decorate(&first)
	last := first
	last.EventType = endType
	last.Time = start + t.Length
	last.ID = c.ids.Next()
	return []eventlist.Event{first, last}
}

func (p *Pulse) generateEvents(s *Schedule, c *CompileContext, h Handle, start int64, maxEvents int) []eventlist.Event {
	return leafPair(s, c, h, start, maxEvents, eventlist.PlayStart, eventlist.PlayEnd, func(e *eventlist.Event) {
		e.PlayID = p.ID
	})
}

func (a *Acquire) generateEvents(s *Schedule, c *CompileContext, h Handle, start int64, maxEvents int) []eventlist.Event {
	return leafPair(s, c, h, start, maxEvents, eventlist.AcquireStart, eventlist.AcquireEnd, func(e *eventlist.Event) {
		e.AcquireHandle = a.Handle
	})
}

func (d *Delay) generateEvents(s *Schedule, c *CompileContext, h Handle, start int64, maxEvents int) []eventlist.Event {
	return leafPair(s, c, h, start, maxEvents, eventlist.DelayStart, eventlist.DelayEnd, func(*eventlist.Event) {})
}

func (f *FilterReset) generateEvents(s *Schedule, c *CompileContext, h Handle, start int64, maxEvents int) []eventlist.Event {
	if maxEvents < 1 {
		return nil
	}
	return []eventlist.Event{{
		EventType:   eventlist.ResetPrecompensationFilters,
		Time:        start,
		ID:          c.ids.Next(),
		SectionName: s.tree.SectionOf(h),
		Signal:      leafSignal(&f.IntervalBase),
	}}
}
