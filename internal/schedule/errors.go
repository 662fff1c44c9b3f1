package schedule

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

var (
	// ErrReference marks play_after edges that name an undefined or later sibling.
	ErrReference = errors.New("reference error")
	// ErrCapacity marks content that does not fit into a fixed length.
	ErrCapacity = errors.New("capacity error")
	// ErrStructural marks internal-consistency failures of the arrangement.
	ErrStructural = errors.New("structural error")
	// ErrInvalidTree marks a malformed input tree.
	ErrInvalidTree = errors.New("invalid schedule tree")
	// ErrNotResolved is returned when a resolved timing is required but missing.
	ErrNotResolved = errors.New("interval has not been resolved")
)

// ReferenceError reports a play_after edge that cannot be honored.
type ReferenceError struct {
	Section   string
	Reference string
	Reason    string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("section '%s' should play after section '%s', but %s", e.Section, e.Reference, e.Reason)
}

// Is makes errors.Is(err, ErrReference) match.
func (e *ReferenceError) Is(target error) bool {
	return target == ErrReference
}

// CapacityError reports section content that is longer than its fixed length.
// Durations are in ticks; TinySample converts them to seconds for the message.
type CapacityError struct {
	Section    string
	Content    int64
	Limit      int64
	TinySample float64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("content of section '%s' (%s) does not fit into the requested fixed section length (%s)",
		e.Section, formatDuration(e.Content, e.TinySample), formatDuration(e.Limit, e.TinySample))
}

// Is makes errors.Is(err, ErrCapacity) match.
func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacity
}

// StructuralError reports an arrangement the engine cannot produce. These are
// internal-consistency failures rather than user mistakes in play_after or lengths.
type StructuralError struct {
	Section string
	Detail  string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("internal consistency failure in section '%s': %s", e.Section, e.Detail)
}

// Is makes errors.Is(err, ErrStructural) match.
func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}

func formatDuration(ticks int64, tinySample float64) string {
	if tinySample <= 0 {
		return fmt.Sprintf("%d ticks", ticks)
	}
	return humanize.SIWithDigits(float64(ticks)*tinySample, 3, "s")
}
