package lookup

// Class groups requests that supersede each other.
type Class int

const (
	ClassSearch Class = iota
	ClassHistory
	ClassOrder
	ClassResult
	numClasses
)

func (c Class) String() string {
	switch c {
	case ClassSearch:
		return "search"
	case ClassHistory:
		return "history"
	case ClassOrder:
		return "order"
	case ClassResult:
		return "result"
	}
	return "unknown"
}

// Ticket stamps one dispatched request.
type Ticket struct {
	Class Class
	Seq   uint64
}

// Sequencer hands out strictly increasing sequence numbers per class. A
// response is applied only while its ticket is still the latest of its
// class.
type Sequencer struct {
	latest [numClasses]uint64
}

// Next issues the ticket for a new request of class c.
func (s *Sequencer) Next(c Class) Ticket {
	s.latest[c]++
	return Ticket{Class: c, Seq: s.latest[c]}
}

// Current reports whether t is the newest ticket of its class.
func (s *Sequencer) Current(t Ticket) bool {
	return s.latest[t.Class] == t.Seq
}

// Invalidate makes every outstanding ticket of the given classes stale.
func (s *Sequencer) Invalidate(classes ...Class) {
	for _, c := range classes {
		s.latest[c]++
	}
}

// Latest returns the highest sequence number used for c.
func (s *Sequencer) Latest(c Class) uint64 {
	return s.latest[c]
}
