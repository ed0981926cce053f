package worker

// State is a task's position in its lifecycle
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// ValidTransitions defines all allowed state transitions.
//
//	Queued → Running, Cancelled
//	Running → Completed, Failed, Cancelled
var ValidTransitions = map[State][]State{
	StateQueued:  {StateRunning, StateCancelled},
	StateRunning: {StateCompleted, StateFailed, StateCancelled},
}

// terminalStates are the states without outgoing transitions
var terminalStates = map[State]bool{
	StateCompleted: true,
	StateFailed:    true,
	StateCancelled: true,
}

// IsValidTransition reports whether from may move to to
func IsValidTransition(from, to State) bool {
	for _, target := range ValidTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s is Completed, Failed or Cancelled
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String implements fmt.Stringer
func (s State) String() string {
	return string(s)
}
