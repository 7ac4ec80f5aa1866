package model

// Status is the lifecycle state of a reservation. The set is closed and
// transitions only move forward:
//
//	CREATED → IN_PROGRESS → FINISHED
//	CREATED → CANCELLED
//
// FINISHED and CANCELLED are terminal. An in-progress reservation cannot be
// cancelled, only finished.
type Status string

const (
	StatusCreated    Status = "CREATED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusFinished   Status = "FINISHED"
	StatusCancelled  Status = "CANCELLED"
)

// Action is a requested status transition.
type Action string

const (
	ActionApprove Action = "approve" // CREATED → IN_PROGRESS
	ActionFinish  Action = "finish"  // IN_PROGRESS → FINISHED
	ActionCancel  Action = "cancel"  // CREATED → CANCELLED
)

// transitions is the full legal transition table. Anything not listed here
// is refused. The state machine lives in this one place rather than in
// if-chains scattered across the service layer.
var transitions = map[Status]map[Action]Status{
	StatusCreated: {
		ActionApprove: StatusInProgress,
		ActionCancel:  StatusCancelled,
	},
	StatusInProgress: {
		ActionFinish: StatusFinished,
	},
}

// Next returns the status reached by applying action to s.
// ok is false when the transition is illegal; s is then returned unchanged.
func (s Status) Next(action Action) (Status, bool) {
	next, ok := transitions[s][action]
	if !ok {
		return s, false
	}
	return next, true
}

// IsActive reports whether the status counts as an active reservation:
// CREATED or IN_PROGRESS. Active reservations block colliding bookings and
// device deletion.
func (s Status) IsActive() bool {
	return s == StatusCreated || s == StatusInProgress
}

// ActiveStatuses lists the statuses considered active, in a form usable as
// SQL IN-clause parameters.
func ActiveStatuses() []Status {
	return []Status{StatusCreated, StatusInProgress}
}
