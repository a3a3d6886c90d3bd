package graphics

import "time"

// Timer is a single-shot timer serviced by Engine.Tick.
type Timer struct {
	deadline  time.Time
	fn        func()
	owner     any
	fired     bool
	cancelled bool
}

func (t *Timer) Cancel() { t.cancelled = true }

// StartTimer schedules fn to run once after d. The owner handle lets a panel
// cancel everything it scheduled in one call during teardown.
func (e *Engine) StartTimer(d time.Duration, owner any, fn func()) *Timer {
	t := &Timer{deadline: e.now().Add(d), fn: fn, owner: owner}
	e.timers = append(e.timers, t)
	return t
}

// Animation interpolates an int32 value over a duration, pushing each step
// through onValue and firing onComplete exactly once at the end. The target
// object is only used for staleness detection; a deleted target silently
// drops the animation.
type Animation struct {
	target     *Object
	owner      any
	from, to   int32
	start, end time.Time
	onValue    func(int32)
	onComplete func()
	cancelled  bool
}

func (a *Animation) Cancel() { a.cancelled = true }

func (a *Animation) step(now time.Time) {
	if a.onValue == nil {
		return
	}
	total := a.end.Sub(a.start)
	if total <= 0 {
		a.onValue(a.to)
		return
	}
	elapsed := now.Sub(a.start)
	v := a.from + int32(int64(a.to-a.from)*int64(elapsed)/int64(total))
	a.onValue(v)
}

func (a *Animation) finish() {
	if a.onValue != nil {
		a.onValue(a.to)
	}
	if a.onComplete != nil {
		a.onComplete()
	}
}

// Animate starts a value animation owned by owner and targeting obj. A zero
// duration short-circuits: the final value and the completion callback fire
// on the next Tick.
func (e *Engine) Animate(obj *Object, owner any, from, to int32, d time.Duration, onValue func(int32), onComplete func()) *Animation {
	now := e.now()
	a := &Animation{
		target:     obj,
		owner:      owner,
		from:       from,
		to:         to,
		start:      now,
		end:        now.Add(d),
		onValue:    onValue,
		onComplete: onComplete,
	}
	e.anims = append(e.anims, a)
	return a
}

// CancelOwned cancels every timer and animation scheduled by owner. Panels
// call this from their destructors before freeing graphics objects so no
// callback can touch a freed object.
func (e *Engine) CancelOwned(owner any) {
	for _, t := range e.timers {
		if t.owner == owner {
			t.cancelled = true
		}
	}
	for _, a := range e.anims {
		if a.owner == owner {
			a.cancelled = true
		}
	}
}
