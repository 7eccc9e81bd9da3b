package lookup

import "time"

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler arms timers. The default uses time.AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clockScheduler struct{}

func (clockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer fires only after the input has been quiet for the delay.
// Arm and Cancel must be called on the session goroutine.
type Debouncer struct {
	delay time.Duration
	sched Scheduler
	rt    Runtime

	timer Timer
	gen   uint64
}

// NewDebouncer creates a Debouncer whose fires are posted to rt.
func NewDebouncer(delay time.Duration, sched Scheduler, rt Runtime) *Debouncer {
	return &Debouncer{delay: delay, sched: sched, rt: rt}
}

// Arm replaces any pending fire with fn, restarting the quiet period.
func (d *Debouncer) Arm(fn func()) {
	d.Cancel()
	gen := d.gen
	d.timer = d.sched.AfterFunc(d.delay, func() {
		d.rt.Post(func() {
			// A timer that fired while being stopped still posts.
			if gen != d.gen {
				return
			}
			d.timer = nil
			fn()
		})
	})
}

// Cancel drops the pending fire, if any.
func (d *Debouncer) Cancel() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Pending reports whether a fire is armed.
func (d *Debouncer) Pending() bool {
	return d.timer != nil
}
