package lookup

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when an operation is not allowed in the
// current navigation state.
var ErrInvalidTransition = errors.New("lookup: invalid navigation transition")

// State is the drill-down depth of a session.
type State int

const (
	StateSearch State = iota
	StateHistoryLoading
	StateHistoryLoaded
	StateOrderDetail
	StateResultDetail
)

func (s State) String() string {
	switch s {
	case StateSearch:
		return "search"
	case StateHistoryLoading:
		return "history_loading"
	case StateHistoryLoaded:
		return "history_loaded"
	case StateOrderDetail:
		return "order_detail"
	case StateResultDetail:
		return "result_detail"
	}
	return "unknown"
}

// Tab selects which list of a history is shown.
type Tab int

const (
	TabOrders Tab = iota
	TabResults
)

func (t Tab) String() string {
	if t == TabResults {
		return "results"
	}
	return "orders"
}

// ParseTab accepts "orders" or "results".
func ParseTab(s string) (Tab, error) {
	switch s {
	case "orders":
		return TabOrders, nil
	case "results":
		return TabResults, nil
	}
	return 0, fmt.Errorf("unknown tab %q", s)
}

// FrameKind names a navigation frame.
type FrameKind string

const (
	FrameSearch  FrameKind = "search"
	FrameHistory FrameKind = "history"
	FrameOrder   FrameKind = "order"
	FrameResult  FrameKind = "result"
)

// Frame is one level of the navigation stack.
type Frame struct {
	Kind FrameKind
	ID   uint
}

// Navigator is the drill-down state machine. The bottom frame is always
// Search and the stack is at most three frames deep.
type Navigator struct {
	state     State
	patientID uint
	detailID  uint
	tab       Tab
}

func (n *Navigator) State() State    { return n.state }
func (n *Navigator) PatientID() uint { return n.patientID }
func (n *Navigator) DetailID() uint  { return n.detailID }
func (n *Navigator) Tab() Tab        { return n.tab }

// Frames returns the stack, bottom first.
func (n *Navigator) Frames() []Frame {
	frames := []Frame{{Kind: FrameSearch}}
	if n.state == StateSearch {
		return frames
	}
	frames = append(frames, Frame{Kind: FrameHistory, ID: n.patientID})
	switch n.state {
	case StateOrderDetail:
		frames = append(frames, Frame{Kind: FrameOrder, ID: n.detailID})
	case StateResultDetail:
		frames = append(frames, Frame{Kind: FrameResult, ID: n.detailID})
	}
	return frames
}

// Current returns the top frame.
func (n *Navigator) Current() Frame {
	f := n.Frames()
	return f[len(f)-1]
}

// BeginHistory pushes the history frame for a selected patient.
func (n *Navigator) BeginHistory(patientID uint) error {
	if n.state != StateSearch {
		return n.invalid("select patient")
	}
	n.state = StateHistoryLoading
	n.patientID = patientID
	return nil
}

// HistoryLoaded completes the pending history load. The tab resets to
// orders.
func (n *Navigator) HistoryLoaded(patientID uint) error {
	if n.state != StateHistoryLoading || n.patientID != patientID {
		return n.invalid("history loaded")
	}
	n.state = StateHistoryLoaded
	n.tab = TabOrders
	return nil
}

// HistoryFailed abandons the pending history load and returns to Search.
func (n *Navigator) HistoryFailed() error {
	if n.state != StateHistoryLoading {
		return n.invalid("history failed")
	}
	n.reset()
	return nil
}

func (n *Navigator) PushOrder(id uint) error {
	return n.push(StateOrderDetail, id, "drill order")
}

func (n *Navigator) PushResult(id uint) error {
	return n.push(StateResultDetail, id, "drill result")
}

func (n *Navigator) push(to State, id uint, op string) error {
	if n.state != StateHistoryLoaded {
		return n.invalid(op)
	}
	n.state = to
	n.detailID = id
	return nil
}

// SelectTab switches the visible history list.
func (n *Navigator) SelectTab(t Tab) error {
	if n.state != StateHistoryLoaded {
		return n.invalid("select tab")
	}
	n.tab = t
	return nil
}

// Back pops one frame and returns the new state. Back from Search stays
// in Search. The tab is kept when returning from a detail.
func (n *Navigator) Back() State {
	switch n.state {
	case StateOrderDetail, StateResultDetail:
		n.state = StateHistoryLoaded
		n.detailID = 0
	case StateHistoryLoading, StateHistoryLoaded:
		n.reset()
	}
	return n.state
}

func (n *Navigator) reset() {
	*n = Navigator{}
}

func (n *Navigator) invalid(op string) error {
	return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, op, n.state)
}
