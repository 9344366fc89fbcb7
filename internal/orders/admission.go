package orders

import (
	"fmt"
	"time"
)

// Window is the weekly operating schedule orders are admitted in.
type Window struct {
	Offset  time.Duration
	Open    int
	Close   int
	RestDay time.Weekday
}

// DefaultWindow is Monday to Saturday, 09:00 to 17:00 at the given UTC offset.
func DefaultWindow(offset time.Duration) Window {
	return Window{Offset: offset, Open: 9, Close: 17, RestDay: time.Sunday}
}

// BusinessZone is the fixed zone wall-clock business times are read in.
func BusinessZone(offset time.Duration) *time.Location {
	return time.FixedZone("business", int(offset/time.Second))
}

// Check rejects instants on the rest day or outside opening hours. The closing
// hour itself is admitted only at minute zero.
func (w Window) Check(now time.Time) error {
	local := now.In(BusinessZone(w.Offset))

	if local.Weekday() == w.RestDay {
		return ErrRestDay
	}

	h, m := local.Hour(), local.Minute()
	if h < w.Open || h > w.Close || (h == w.Close && m > 0) {
		return fmt.Errorf("%w: local time %s", ErrOutsideOperatingHours, local.Format("15:04"))
	}
	return nil
}
