package session

import (
	"sync/atomic"
	"time"
)

// Alarm fires a callback once after a delay unless stopped first.
type Alarm struct {
	timer *time.Timer
	fired atomic.Bool
}

func newAlarm(d time.Duration, fn func()) *Alarm {
	a := &Alarm{}
	a.timer = time.AfterFunc(d, func() {
		a.fired.Store(true)
		fn()
	})
	return a
}

// Stop cancels the alarm. It reports whether the call prevented the callback.
func (a *Alarm) Stop() bool {
	if a == nil {
		return false
	}
	return a.timer.Stop()
}

// Fired reports whether the callback has started.
func (a *Alarm) Fired() bool {
	return a != nil && a.fired.Load()
}
