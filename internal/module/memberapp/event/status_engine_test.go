package event

import (
	"testing"
	"time"
)

func newTestEngine() StatusEngine {
	return NewStatusEngine(2*time.Hour, 7*24*time.Hour, 0)
}

func datePtr(t time.Time) *time.Time {
	return &t
}

func TestDeriveDisplayStatus(t *testing.T) {
	engine := newTestEngine()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		event    Event
		expected DisplayStatus
	}{
		{
			name: "approved event far in the future",
			event: Event{
				Status:    StatusApproved,
				Date:      datePtr(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)),
				StartTime: "09:00",
				EndTime:   "17:00",
			},
			expected: DisplayFuture,
		},
		{
			name: "approved event within the soon window",
			event: Event{
				Status:    StatusApproved,
				Date:      datePtr(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)),
				StartTime: "09:00",
				EndTime:   "17:00",
			},
			expected: DisplaySoon,
		},
		{
			name: "approved event currently running",
			event: Event{
				Status:    StatusApproved,
				Date:      datePtr(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)),
				StartTime: "09:00",
				EndTime:   "17:00",
			},
			expected: DisplayNow,
		},
		{
			name: "approved event already over",
			event: Event{
				Status:    StatusApproved,
				Date:      datePtr(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
				StartTime: "09:00",
				EndTime:   "17:00",
			},
			expected: DisplayFinished,
		},
		{
			name: "rejected event ignores its schedule",
			event: Event{
				Status:    StatusRejected,
				Date:      datePtr(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)),
				StartTime: "09:00",
				EndTime:   "17:00",
			},
			expected: DisplayRejected,
		},
		{
			name: "cancelled event ignores its schedule",
			event: Event{
				Status:    StatusCancelled,
				Date:      datePtr(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)),
				StartTime: "09:00",
			},
			expected: DisplayCancelled,
		},
		{
			name: "completed event reports finished",
			event: Event{
				Status:    StatusCompleted,
				Date:      datePtr(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)),
				StartTime: "09:00",
			},
			expected: DisplayFinished,
		},
		{
			name: "event without any schedule reports finished",
			event: Event{
				Status: StatusApproved,
			},
			expected: DisplayFinished,
		},
		{
			name: "event at the exact end boundary is still running",
			event: Event{
				Status:    StatusApproved,
				Date:      datePtr(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)),
				StartTime: "09:00",
				EndTime:   "12:00",
			},
			expected: DisplayNow,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.DeriveDisplayStatus(tc.event, now)
			if got != tc.expected {
				t.Errorf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestWindowDefaultDuration(t *testing.T) {
	engine := newTestEngine()

	e := Event{
		Status:    StatusApproved,
		Date:      datePtr(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)),
		StartTime: "09:00",
	}

	start, end, ok := engine.Window(e)
	if !ok {
		t.Fatal("expected a window")
	}

	if !start.Equal(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start %s", start)
	}
	if !end.Equal(start.Add(2 * time.Hour)) {
		t.Errorf("expected the default duration, got end %s", end)
	}
}

func TestWindowMultiDay(t *testing.T) {
	engine := newTestEngine()

	e := Event{
		Status: StatusApproved,
		Days: []Day{
			{Date: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), StartTime: "09:00", EndTime: "17:00"},
			{Date: time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), StartTime: "10:00", EndTime: "16:00"},
			{Date: time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), StartTime: "10:00", EndTime: "14:00"},
		},
	}

	start, end, ok := engine.Window(e)
	if !ok {
		t.Fatal("expected a window")
	}

	if !start.Equal(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start %s", start)
	}
	if !end.Equal(time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected end %s", end)
	}

	// Days take precedence over the single-day fields.
	e.Date = datePtr(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	start2, _, _ := engine.Window(e)
	if !start2.Equal(start) {
		t.Errorf("expected days to win over the single date, got start %s", start2)
	}
}

func TestWindowMalformedTimeFallsBackToMidnight(t *testing.T) {
	engine := newTestEngine()

	e := Event{
		Status:    StatusApproved,
		Date:      datePtr(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)),
		StartTime: "not-a-time",
		EndTime:   "17:00",
	}

	start, _, ok := engine.Window(e)
	if !ok {
		t.Fatal("expected a window")
	}
	if start.Hour() != 0 || start.Minute() != 0 {
		t.Errorf("expected midnight start, got %s", start)
	}
}

func TestCanRegister(t *testing.T) {
	engine := newTestEngine()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		event    Event
		expected bool
	}{
		{
			name: "approved upcoming event with capacity",
			event: Event{
				Status:          StatusApproved,
				Date:            datePtr(time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)),
				StartTime:       "09:00",
				EndTime:         "17:00",
				MaxCheckInCount: 10,
			},
			expected: true,
		},
		{
			name: "pending event never accepts registrations",
			event: Event{
				Status:          StatusPendingUniStaff,
				Date:            datePtr(time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)),
				StartTime:       "09:00",
				MaxCheckInCount: 10,
			},
			expected: false,
		},
		{
			name: "event past its window",
			event: Event{
				Status:          StatusApproved,
				Date:            datePtr(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
				StartTime:       "09:00",
				EndTime:         "17:00",
				MaxCheckInCount: 10,
			},
			expected: false,
		},
		{
			name: "event at capacity",
			event: Event{
				Status:              StatusApproved,
				Date:                datePtr(time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)),
				StartTime:           "09:00",
				EndTime:             "17:00",
				MaxCheckInCount:     10,
				CurrentCheckInCount: 10,
			},
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.CanRegister(tc.event, now)
			if got != tc.expected {
				t.Errorf("expected %t, got %t", tc.expected, got)
			}
		})
	}
}

func TestCanCheckIn(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	running := Event{
		Status:          StatusApproved,
		Date:            datePtr(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)),
		StartTime:       "09:00",
		EndTime:         "17:00",
		MaxCheckInCount: 10,
	}

	engine := newTestEngine()

	if !engine.CanCheckIn(running, "CONFIRMED", now) {
		t.Error("expected a confirmed registration to be allowed during the window")
	}
	if !engine.CanCheckIn(running, "PENDING", now) {
		t.Error("expected a pending registration to be allowed during the window")
	}
	if engine.CanCheckIn(running, "CHECKED_IN", now) {
		t.Error("expected an already checked-in registration to be refused")
	}
	if engine.CanCheckIn(running, "CONFIRMED", time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)) {
		t.Error("expected check-in before the window to be refused without grace")
	}

	graced := NewStatusEngine(2*time.Hour, 7*24*time.Hour, 90*time.Minute)
	if !graced.CanCheckIn(running, "CONFIRMED", time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)) {
		t.Error("expected the grace period to open check-in early")
	}

	past := running
	past.Date = datePtr(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if engine.CanCheckIn(past, "CONFIRMED", now) {
		t.Error("expected check-in after the window to be refused")
	}
}

func TestStatusTransitions(t *testing.T) {
	testCases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPendingCoClub, StatusPendingUniStaff, true},
		{StatusPendingCoClub, StatusRejected, true},
		{StatusPendingCoClub, StatusApproved, false},
		{StatusPendingUniStaff, StatusApproved, true},
		{StatusApproved, StatusCancelled, true},
		{StatusApproved, StatusCompleted, true},
		{StatusOngoing, StatusCompleted, true},
		{StatusRejected, StatusApproved, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusApproved, false},
	}

	for _, tc := range testCases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: expected %t, got %t", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestPerAttendanceReward(t *testing.T) {
	e := Event{BudgetPoints: 1000, MaxCheckInCount: 30}
	if got := e.PerAttendanceReward(); got != 33 {
		t.Errorf("expected 33, got %d", got)
	}

	empty := Event{BudgetPoints: 1000}
	if got := empty.PerAttendanceReward(); got != 0 {
		t.Errorf("expected 0 without capacity, got %d", got)
	}
}
