package autocomplete

import "time"

// Timer is a pending scheduled action.
type Timer interface {
	// Stop cancels the action, reporting whether it was still pending.
	Stop() bool
}

// Scheduler runs f once after d. Scheduling a new debounce stops the previous Timer.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemScheduler schedules on the runtime timer.
var SystemScheduler Scheduler = systemScheduler{}

type systemScheduler struct{}

func (systemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
