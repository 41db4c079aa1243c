package clock

import "time"

// Clock is the time source used wherever entities are stamped or compared.
type Clock interface {
	Now() time.Time
	UTCNow() time.Time
}

// System reads the wall clock.
type System struct{}

func (System) Now() time.Time    { return time.Now() }
func (System) UTCNow() time.Time { return time.Now().UTC() }

// Fixed always returns the same instant. Used in tests.
type Fixed struct {
	At time.Time
}

func (f Fixed) Now() time.Time    { return f.At }
func (f Fixed) UTCNow() time.Time { return f.At.UTC() }

// Today truncates t to midnight in its own location.
func Today(c Clock) time.Time {
	n := c.Now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, n.Location())
}
