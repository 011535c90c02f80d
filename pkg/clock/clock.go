package clock

import "time"

// Clock supplies the current time. Usecases take a Clock instead of calling
// time.Now directly so time-dependent behavior stays testable.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func Real() Clock {
	return realClock{}
}

// Fixed returns a Clock pinned to t.
func Fixed(t time.Time) Clock {
	return fixedClock{t: t}
}

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time {
	return c.t
}
