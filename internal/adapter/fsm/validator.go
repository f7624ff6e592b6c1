package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/domain"
)

// Compile-time checks: each machine's Validator implements domain.TransitionValidator.
var (
	_ domain.TransitionValidator[domain.BookingStatus, domain.BookingEvent]  = (*Validator[domain.BookingStatus, domain.BookingEvent])(nil)
	_ domain.TransitionValidator[domain.ScheduleState, domain.ScheduleEvent] = (*Validator[domain.ScheduleState, domain.ScheduleEvent])(nil)
	_ domain.TransitionValidator[domain.VoidStatus, domain.VoidEvent]        = (*Validator[domain.VoidStatus, domain.VoidEvent])(nil)
)

// buildEvents converts a domain transition table into looplab/fsm EventDesc
// format. Transitions with the same event+destination are consolidated into
// a single EventDesc with multiple source states (e.g., cancel from
// "provisional" and "confirmed" both go to "cancelled").
func buildEvents[S ~string, E ~string](transitions []domain.Transition[S, E]) []loopfsm.EventDesc {
	type key struct {
		event string
		dst   string
	}
	grouped := make(map[key][]string)
	order := make([]key, 0)

	for _, t := range transitions {
		k := key{event: string(t.Event), dst: string(t.Dst)}
		if _, exists := grouped[k]; !exists {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], string(t.Src))
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, k := range order {
		out = append(out, loopfsm.EventDesc{
			Name: k.event,
			Src:  grouped[k],
			Dst:  k.dst,
		})
	}
	return out
}

// Validator implements domain.TransitionValidator using looplab/fsm.
// It creates a short-lived FSM instance per Apply call, initialized with
// the entity's current state. This is necessary because looplab/fsm is
// stateful (it tracks the current state internally).
type Validator[S ~string, E ~string] struct {
	machine string
	events  []loopfsm.EventDesc
}

// New creates a validator for the named machine's transition table.
func New[S ~string, E ~string](machine string, transitions []domain.Transition[S, E]) *Validator[S, E] {
	return &Validator[S, E]{
		machine: machine,
		events:  buildEvents(transitions),
	}
}

// NewBookingValidator validates the booking workflow.
func NewBookingValidator() *Validator[domain.BookingStatus, domain.BookingEvent] {
	return New(domain.MachineBooking, domain.BookingTransitions)
}

// NewScheduleValidator validates premises and bedspace archive scheduling.
func NewScheduleValidator() *Validator[domain.ScheduleState, domain.ScheduleEvent] {
	return New(domain.MachineSchedule, domain.ScheduleTransitions)
}

// NewVoidValidator validates void updates and cancellation.
func NewVoidValidator() *Validator[domain.VoidStatus, domain.VoidEvent] {
	return New(domain.MachineVoid, domain.VoidTransitions)
}

// Apply checks if the given event is valid from the current state and
// returns the destination state. Returns a domain.TransitionError if
// the transition is not allowed.
func (v *Validator[S, E]) Apply(ctx context.Context, current S, event E) (S, error) {
	machine := loopfsm.NewFSM(string(current), v.events, nil)

	if err := machine.Event(ctx, string(event)); err != nil {
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &noTransition) && noTransition.Err == nil {
			// Events that record something without moving the state on.
			return current, nil
		}
		var invalidEvent loopfsm.InvalidEventError
		var unknownEvent loopfsm.UnknownEventError
		if errors.As(err, &invalidEvent) || errors.As(err, &unknownEvent) {
			return "", &domain.TransitionError{
				Machine: v.machine,
				Event:   string(event),
				Current: string(current),
			}
		}
		return "", err
	}

	return S(machine.Current()), nil
}
