package schedule

// IDSource issues unique, monotonically increasing ids for events and chain elements.
// It is not safe for concurrent use; each compilation owns its own source.
type IDSource struct {
	next int
}

// NewIDSource returns a source whose first id is start.
func NewIDSource(start int) *IDSource {
	return &IDSource{next: start}
}

// Next returns the next id.
func (s *IDSource) Next() int {
	id := s.next
	s.next++
	return id
}

// Peek returns the id the next call to Next will return.
func (s *IDSource) Peek() int {
	return s.next
}
