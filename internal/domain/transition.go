package domain

// Transition defines a valid state change: an event moves an entity from Src to Dst.
// Src and Dst may be equal for events that record something without moving
// the entity on.
type Transition[S ~string, E ~string] struct {
	Event E
	Src   S
	Dst   S
}

// NextState looks the event up in a transition table.
func NextState[S ~string, E ~string](transitions []Transition[S, E], current S, event E) (S, bool) {
	for _, t := range transitions {
		if t.Event == event && t.Src == current {
			return t.Dst, true
		}
	}
	var zero S
	return zero, false
}

// Machine names reported in TransitionError.
const (
	MachineBooking  = "booking"
	MachineSchedule = "schedule"
	MachineVoid     = "void"
)

func applyTransition[S ~string, E ~string](machine string, transitions []Transition[S, E], current S, event E) (S, error) {
	dst, ok := NextState(transitions, current, event)
	if !ok {
		return current, &TransitionError{
			Machine: machine,
			Event:   string(event),
			Current: string(current),
		}
	}
	return dst, nil
}
