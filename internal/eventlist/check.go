package eventlist

import (
	"errors"
	"fmt"
)

// ErrMalformed is wrapped by every error returned from CheckWellFormed.
var ErrMalformed = errors.New("malformed event list")

type openBracket struct {
	index int
	event Event
	// latest is the latest time seen inside the bracket.
	latest int64
}

type triggerKey struct {
	section string
	signal  string
	bit     int
}

// CheckWellFormed verifies that every START event has a matching END with the same
// chain element id, that brackets nest properly, that no event lies outside the bracket
// enclosing it, and that every SET state change is followed by a matching CLEAR within
// the same section.
func CheckWellFormed(events []Event) error {
	var stack []openBracket
	set := make(map[triggerKey]int)
	for i, e := range events {
		if len(stack) > 0 && !e.IsEnd() {
			top := &stack[len(stack)-1]
			if e.Time < top.event.Time {
				return fmt.Errorf("%w: event %d (%s) at %d precedes its enclosing %s at %d", ErrMalformed, i, e.EventType, e.Time, top.event.EventType, top.event.Time)
			}
			top.latest = max(top.latest, e.Time)
		}
		switch {
		case e.IsStart():
			stack = append(stack, openBracket{index: i, event: e, latest: e.Time})
		case e.IsEnd():
			if len(stack) == 0 {
				return fmt.Errorf("%w: event %d (%s) closes nothing", ErrMalformed, i, e.EventType)
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if pairs[open.event.EventType] != e.EventType {
				return fmt.Errorf("%w: event %d (%s) closes %s opened at %d", ErrMalformed, i, e.EventType, open.event.EventType, open.index)
			}
			if open.event.ChainElementID != e.ChainElementID {
				return fmt.Errorf("%w: event %d (%s) has chain element id %d, expected %d", ErrMalformed, i, e.EventType, e.ChainElementID, open.event.ChainElementID)
			}
			if e.Time < open.latest {
				return fmt.Errorf("%w: event %d (%s) at %d ends before the content it encloses, which reaches %d", ErrMalformed, i, e.EventType, e.Time, open.latest)
			}
			if len(stack) > 0 {
				parent := &stack[len(stack)-1]
				parent.latest = max(parent.latest, e.Time)
			}
		case e.EventType == DigitalSignalStateChange:
			if e.Bit == nil {
				return fmt.Errorf("%w: event %d has no bit", ErrMalformed, i)
			}
			key := triggerKey{section: e.SectionName, signal: e.Signal, bit: *e.Bit}
			switch e.Change {
			case ChangeSet:
				set[key]++
			case ChangeClear:
				if set[key] == 0 {
					return fmt.Errorf("%w: event %d clears %s bit %d in '%s' which was never set", ErrMalformed, i, e.Signal, *e.Bit, e.SectionName)
				}
				set[key]--
			default:
				return fmt.Errorf("%w: event %d has unknown change %q", ErrMalformed, i, e.Change)
			}
		}
	}
	if len(stack) > 0 {
		open := stack[len(stack)-1]
		return fmt.Errorf("%w: %s at %d is never closed", ErrMalformed, open.event.EventType, open.index)
	}
	for key, n := range set {
		if n > 0 {
			return fmt.Errorf("%w: %s bit %d in '%s' is never cleared", ErrMalformed, key.signal, key.bit, key.section)
		}
	}
	return nil
}
