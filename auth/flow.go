package auth

import "fmt"

// FlowState is the position of one login callback in its state machine.
type FlowState int

const (
	StateAwaitingCallback FlowState = iota
	StateValidating
	StateExchanging
	StateProfileFetching
	StateEstablished
	StateFailed
)

func (s FlowState) String() string {
	switch s {
	case StateAwaitingCallback:
		return "awaiting_callback"
	case StateValidating:
		return "validating"
	case StateExchanging:
		return "exchanging"
	case StateProfileFetching:
		return "profile_fetching"
	case StateEstablished:
		return "established"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("flow_state(%d)", int(s))
	}
}

// Terminal reports whether no further transition can follow s.
func (s FlowState) Terminal() bool {
	return s == StateEstablished || s == StateFailed
}

// CanTransition reports whether from -> to is an edge of the callback state
// machine. Failed is reachable from every non-terminal state.
func CanTransition(from, to FlowState) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return to == from+1
}

// Transition is one step taken by a callback. Err is set when To is StateFailed.
type Transition struct {
	RequestToken string
	From         FlowState
	To           FlowState
	Err          error
}

// StateObserver is told about every transition, in order, on the goroutine
// handling the callback.
type StateObserver func(Transition)

// flow tracks the state of a single callback.
type flow struct {
	requestToken string
	state        FlowState
	observer     StateObserver
}

func (f *flow) advance(to FlowState) {
	f.transition(to, nil)
}

// fail moves the flow to StateFailed and returns err for the caller to surface.
func (f *flow) fail(err error) error {
	f.transition(StateFailed, err)
	return err
}

func (f *flow) transition(to FlowState, err error) {
	if !CanTransition(f.state, to) {
		panic(fmt.Sprintf("auth: illegal flow transition %s -> %s", f.state, to))
	}
	from := f.state
	f.state = to
	if f.observer != nil {
		f.observer(Transition{RequestToken: f.requestToken, From: from, To: to, Err: err})
	}
}
