package registration

import "time"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCheckedIn Status = "CHECKED_IN"
	StatusRewarded  Status = "REWARDED"
	StatusNoShow    Status = "NO_SHOW"
	StatusCanceled  Status = "CANCELED"
)

var statusTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCheckedIn, StatusCanceled, StatusNoShow},
	StatusConfirmed: {StatusCheckedIn, StatusCanceled, StatusNoShow},
	StatusCheckedIn: {StatusRewarded},
}

// CanTransitionTo reports whether s -> next is a legal edge of the
// registration state machine. REWARDED, NO_SHOW and CANCELED are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// Registration is a member's enrollment into an event. The (EventID,
// MemberID) pair is unique; a registration canceled and re-made reuses the
// row with a bumped Revision, which keeps ledger idempotency keys
// deterministic across re-registrations.
type Registration struct {
	EventID         string
	MemberID        string
	Status          Status
	CommittedPoints int64
	Revision        int64
	RegisteredAt    time.Time
	UpdatedAt       time.Time
}
