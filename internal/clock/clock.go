// Package clock abstracts wall time so date-dependent invoice logic (default
// invoice date, overdue status) can be tested at a fixed instant.
package clock

import (
	"time"

	"go.uber.org/fx"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct {
	loc *time.Location
}

// System reads the wall clock in loc (UTC when nil).
func System(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return systemClock{loc: loc}
}

func (c systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

var Module = fx.Module("clock",
	fx.Provide(func() Clock { return System(time.Local) }),
)
