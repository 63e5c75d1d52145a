package task

// Phase is where a Task sits in the episode lifecycle:
// Reset -> Stepping -> Terminated -> Reset.
type Phase int

const (
	PhaseReset Phase = iota
	PhaseStepping
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseReset:
		return "reset"
	case PhaseStepping:
		return "stepping"
	case PhaseTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
