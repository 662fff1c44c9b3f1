package config

// Alignment values of a section.
const (
	AlignLeft  = "left"
	AlignRight = "right"
)

// Model is the unified representation of one experiment and the signals it uses.
type Model struct {
	// Name is the label of the experiment block.
	Name    string
	Signals []*Signal
	Root    *Section
	// Digest fingerprints the source files the model was loaded from.
	Digest string
	Files  []string
}

// Signal returns the signal with the given name, or nil.
func (m *Model) Signal(name string) *Signal {
	for _, s := range m.Signals {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Signal is a logical output or input line.
type Signal struct {
	Name string
	// SamplingRate is in samples per second.
	SamplingRate float64
	// SampleMultiple is the number of samples a placement must be a multiple of.
	// Zero means the default.
	SampleMultiple int
	Device         string
}

// Item is one entry of a section body. It is implemented by *Section, *Loop,
// *Play, *Acquire, *Delay, *Reserve and *FilterReset.
type Item interface {
	item()
}

// Section is the format-agnostic representation of a `section` block.
type Section struct {
	Name      string
	Alignment string
	// Length is a fixed length in seconds.
	Length       *float64
	PlayAfter    []string
	Triggers     []*Trigger
	OnSystemGrid bool
	Items        []Item
}

// Trigger raises one bit of a digital line for the duration of its section.
type Trigger struct {
	Signal string
	Bit    int
}

// Loop is the format-agnostic representation of a `loop` block. Its items form
// the body of one iteration.
type Loop struct {
	Name  string
	Count int
	// RepetitionTime is the fixed length of one iteration in seconds.
	RepetitionTime *float64
	Alignment      string
	PlayAfter      []string
	Items          []Item
}

// Play plays the pulse ID on a signal.
type Play struct {
	ID     string
	Signal string
	Length float64
}

// Acquire records on a signal under a result handle.
type Acquire struct {
	Handle string
	Signal string
	Length float64
}

// Delay keeps a signal idle.
type Delay struct {
	Signal string
	Time   float64
}

// Reserve claims a signal for the enclosing section without playing on it.
type Reserve struct {
	Signal string
}

// FilterReset resets the precompensation filter of a signal at the start of the
// pulse it names.
type FilterReset struct {
	Signal string
	Pulse  string
}

func (*Section) item()     {}
func (*Loop) item()        {}
func (*Play) item()        {}
func (*Acquire) item()     {}
func (*Delay) item()       {}
func (*Reserve) item()     {}
func (*FilterReset) item() {}
