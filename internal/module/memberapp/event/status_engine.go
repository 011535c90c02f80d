package event

import "time"

// Registration statuses the engine needs to know about for check-in
// eligibility. Kept as plain strings so the registration module stays the
// owner of its own status type.
const (
	registrationPending   = "PENDING"
	registrationConfirmed = "CONFIRMED"
)

// StatusEngine derives temporal status and registration/check-in eligibility
// from an event's schedule. Every method is a pure function of its inputs;
// the same screens that used to reimplement this date math each consume the
// engine instead.
type StatusEngine struct {
	defaultDuration time.Duration
	soonWindow      time.Duration
	checkInGrace    time.Duration
}

func NewStatusEngine(defaultDuration, soonWindow, checkInGrace time.Duration) StatusEngine {
	return StatusEngine{
		defaultDuration: defaultDuration,
		soonWindow:      soonWindow,
		checkInGrace:    checkInGrace,
	}
}

// combineDateTime anchors a "15:04" clock time onto a calendar date. An
// empty or malformed clock time yields midnight of that date.
func combineDateTime(date time.Time, clockTime string) time.Time {
	t, err := time.Parse("15:04", clockTime)
	if err != nil {
		return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	}

	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location())
}

// Window computes the event's [start, end] wall-clock window. ok is false
// when the event has no schedule at all, which callers treat as finished.
// A missing end time means the window runs for the default duration.
func (s StatusEngine) Window(e Event) (start, end time.Time, ok bool) {
	if e.MultiDay() {
		first := e.Days[0]
		last := e.Days[len(e.Days)-1]

		start = combineDateTime(first.Date, first.StartTime)
		end = combineDateTime(last.Date, last.EndTime)
		if last.EndTime == "" {
			end = combineDateTime(last.Date, last.StartTime).Add(s.defaultDuration)
		}

		return start, end, true
	}

	if e.Date == nil {
		return time.Time{}, time.Time{}, false
	}

	start = combineDateTime(*e.Date, e.StartTime)
	if e.EndTime == "" {
		return start, start.Add(s.defaultDuration), true
	}

	return start, combineDateTime(*e.Date, e.EndTime), true
}

// DeriveDisplayStatus maps (event, now) to the member-facing status.
// Administrative terminal states win over any time computation; an
// unscheduled event is reported finished rather than actionable.
func (s StatusEngine) DeriveDisplayStatus(e Event, now time.Time) DisplayStatus {
	switch e.Status {
	case StatusRejected:
		return DisplayRejected
	case StatusCancelled:
		return DisplayCancelled
	case StatusCompleted:
		return DisplayFinished
	}

	start, end, ok := s.Window(e)
	if !ok {
		return DisplayFinished
	}

	if now.Before(start) {
		if start.Sub(now) < s.soonWindow {
			return DisplaySoon
		}
		return DisplayFuture
	}

	if !now.After(end) {
		return DisplayNow
	}

	return DisplayFinished
}

// CanRegister reports whether a member may register right now: the event is
// approved, its window has not closed, and check-in capacity remains.
func (s StatusEngine) CanRegister(e Event, now time.Time) bool {
	if e.Status != StatusApproved {
		return false
	}

	_, end, ok := s.Window(e)
	if !ok || now.After(end) {
		return false
	}

	return e.CurrentCheckInCount < e.MaxCheckInCount
}

// CanCheckIn reports whether a registered member may check in right now.
// registrationStatus is the member's current registration state.
func (s StatusEngine) CanCheckIn(e Event, registrationStatus string, now time.Time) bool {
	if e.Status != StatusApproved && e.Status != StatusOngoing {
		return false
	}

	if registrationStatus != registrationPending && registrationStatus != registrationConfirmed {
		return false
	}

	start, end, ok := s.Window(e)
	if !ok {
		return false
	}

	return !now.Before(start.Add(-s.checkInGrace)) && !now.After(end)
}
