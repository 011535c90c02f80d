package event

import "time"

// Status is the administrative lifecycle state of an event. Temporal states
// (upcoming, ongoing, finished) are never stored; they are derived on read
// by the status engine.
type Status string

const (
	StatusPendingCoClub   Status = "PENDING_COCLUB"
	StatusPendingUniStaff Status = "PENDING_UNISTAFF"
	StatusApproved        Status = "APPROVED"
	StatusRejected        Status = "REJECTED"
	StatusOngoing         Status = "ONGOING"
	StatusCompleted       Status = "COMPLETED"
	StatusCancelled       Status = "CANCELLED"
)

var statusTransitions = map[Status][]Status{
	StatusPendingCoClub:   {StatusPendingUniStaff, StatusRejected},
	StatusPendingUniStaff: {StatusApproved, StatusRejected},
	StatusApproved:        {StatusOngoing, StatusCompleted, StatusCancelled},
	StatusOngoing:         {StatusCompleted},
}

// CanTransitionTo reports whether the administrative transition s -> next is
// permitted. Terminal states permit nothing.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCompleted || s == StatusCancelled
}

// DisplayStatus is the derived, member-facing temporal status.
type DisplayStatus string

const (
	DisplayFuture    DisplayStatus = "FUTURE"
	DisplaySoon      DisplayStatus = "SOON"
	DisplayNow       DisplayStatus = "NOW"
	DisplayFinished  DisplayStatus = "FINISHED"
	DisplayRejected  DisplayStatus = "REJECTED"
	DisplayCancelled DisplayStatus = "CANCELLED"
)

type Day struct {
	EventID   string
	Date      time.Time
	StartTime string
	EndTime   string
}

// Event carries either a single-day schedule (Date + StartTime/EndTime) or a
// multi-day schedule (Days, ordered by date). Days takes precedence whenever
// it is non-empty.
type Event struct {
	ID                  string
	HostClubID          string
	Name                string
	Description         string
	Status              Status
	Date                *time.Time
	StartTime           string
	EndTime             string
	Days                []Day
	MaxCheckInCount     int64
	CurrentCheckInCount int64
	CommitPointCost     int64
	BudgetPoints        int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (e Event) MultiDay() bool {
	return len(e.Days) > 0
}

// PerAttendanceReward is the points paid to each checked-in member at
// settlement: the budget pool split evenly across the check-in capacity,
// rounded down.
func (e Event) PerAttendanceReward() int64 {
	if e.MaxCheckInCount <= 0 {
		return 0
	}

	return e.BudgetPoints / e.MaxCheckInCount
}
