// Package eventlist defines the event records produced by the scheduler and the
// contract they fulfil towards code generators and visualizers: bracket
// well-formedness, the JSON schema, and the JSON/YAML encodings.
package eventlist

// Type identifies the kind of an event.
type Type string

const (
	SectionStart                Type = "SECTION_START"
	SectionEnd                  Type = "SECTION_END"
	SubsectionStart             Type = "SUBSECTION_START"
	SubsectionEnd               Type = "SUBSECTION_END"
	DigitalSignalStateChange    Type = "DIGITAL_SIGNAL_STATE_CHANGE"
	PlayStart                   Type = "PLAY_START"
	PlayEnd                     Type = "PLAY_END"
	AcquireStart                Type = "ACQUIRE_START"
	AcquireEnd                  Type = "ACQUIRE_END"
	DelayStart                  Type = "DELAY_START"
	DelayEnd                    Type = "DELAY_END"
	ResetPrecompensationFilters Type = "RESET_PRECOMPENSATION_FILTERS"
	LoopStepStart               Type = "LOOP_STEP_START"
	LoopStepEnd                 Type = "LOOP_STEP_END"
	LoopIterationEnd            Type = "LOOP_ITERATION_END"
)

// Digital state changes.
const (
	ChangeSet   = "SET"
	ChangeClear = "CLEAR"
)

// pairs maps every opening event type to its closing type.
var pairs = map[Type]Type{
	SectionStart:    SectionEnd,
	SubsectionStart: SubsectionEnd,
	PlayStart:       PlayEnd,
	AcquireStart:    AcquireEnd,
	DelayStart:      DelayEnd,
	LoopStepStart:   LoopStepEnd,
}

// closers is the inverse of pairs.
var closers = func() map[Type]Type {
	m := make(map[Type]Type, len(pairs))
	for open, close := range pairs {
		m[close] = open
	}
	return m
}()

// TriggerRef names a trigger line driven by a section.
type TriggerRef struct {
	SignalID string `json:"signal_id" yaml:"signal_id"`
}

// Event is one time-stamped record of the schedule. Time is in grid ticks.
type Event struct {
	EventType      Type         `json:"event_type" yaml:"event_type"`
	Time           int64        `json:"time" yaml:"time"`
	ID             int          `json:"id" yaml:"id"`
	SectionName    string       `json:"section_name" yaml:"section_name"`
	ChainElementID int          `json:"chain_element_id" yaml:"chain_element_id"`
	SubsectionName string       `json:"subsection_name,omitempty" yaml:"subsection_name,omitempty"`
	Signal         string       `json:"signal,omitempty" yaml:"signal,omitempty"`
	Bit            *int         `json:"bit,omitempty" yaml:"bit,omitempty"`
	Change         string       `json:"change,omitempty" yaml:"change,omitempty"`
	TriggerOutput  []TriggerRef `json:"trigger_output,omitempty" yaml:"trigger_output,omitempty"`
	PlayID         string       `json:"play_id,omitempty" yaml:"play_id,omitempty"`
	AcquireHandle  string       `json:"acquire_handle,omitempty" yaml:"acquire_handle,omitempty"`
	Iteration      *int         `json:"iteration,omitempty" yaml:"iteration,omitempty"`
	NumRepeats     int          `json:"num_repeats,omitempty" yaml:"num_repeats,omitempty"`
	Compressed     bool         `json:"compressed,omitempty" yaml:"compressed,omitempty"`
}

// IsStart reports whether e opens a bracket.
func (e Event) IsStart() bool {
	_, ok := pairs[e.EventType]
	return ok
}

// IsEnd reports whether e closes a bracket.
func (e Event) IsEnd() bool {
	_, ok := closers[e.EventType]
	return ok
}

// CountByType returns how many events of each type are in events.
func CountByType(events []Event) map[Type]int {
	counts := make(map[Type]int)
	for _, e := range events {
		counts[e.EventType]++
	}
	return counts
}
