package lifecycle

// State is a phase of one invocation.
type State int

const (
	Idle State = iota
	Provisioning
	Executing
	Cleaning
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Provisioning:
		return "provisioning"
	case Executing:
		return "executing"
	case Cleaning:
		return "cleaning"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Observer is called on every state transition of an invocation, in order.
// Observers run synchronously and must not block.
type Observer func(from, to State)
