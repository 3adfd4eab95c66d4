package server

// State is a phase of the poll loop
type State int

const (
	StateIdle State = iota
	StateDraining
	StateApplying
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDraining:
		return "draining"
	case StateApplying:
		return "applying"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
