package graphics

import (
	"time"

	"cluster-service/internal/logger"
)

// Provider is the display contract consumed by panels and components. The
// production implementation is Engine; panel tests substitute it freely
// because every method is side-effect free until Tick runs.
type Provider interface {
	CreateScreen() *Object
	CreateObject(parent *Object) *Object
	CreateLabel(parent *Object) *Object
	CreateArc(parent *Object) *Object
	CreateScale(parent *Object) *Object
	CreateImage(parent *Object) *Object
	CreateLine(parent *Object) *Object
	DeleteObject(obj *Object)
	LoadScreen(obj *Object)
	ActiveScreen() *Object
	AddEventCallback(obj *Object, cb EventCallback, code EventCode, userData any)

	StartTimer(d time.Duration, owner any, fn func()) *Timer
	Animate(obj *Object, owner any, from, to int32, d time.Duration, onValue func(int32), onComplete func()) *Animation
	CancelOwned(owner any)
}

// Engine owns the object tree, the timer queue and the animation queue.
// All methods must be called from the UI thread.
type Engine struct {
	logger *logger.Logger
	now    func() time.Time

	nextID uint64
	active *Object

	timers []*Timer
	anims  []*Animation
}

func NewEngine(log *logger.Logger) *Engine {
	return &Engine{
		logger: log.WithTag("Graphics"),
		now:    time.Now,
	}
}

// SetClock replaces the time source. Test hook.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

func (e *Engine) newObject(kind ObjectKind, parent *Object) *Object {
	e.nextID++
	obj := &Object{id: e.nextID, kind: kind, parent: parent}
	if parent != nil {
		parent.children = append(parent.children, obj)
	}
	return obj
}

func (e *Engine) CreateScreen() *Object               { return e.newObject(KindScreen, nil) }
func (e *Engine) CreateObject(parent *Object) *Object { return e.newObject(KindObject, parent) }
func (e *Engine) CreateLabel(parent *Object) *Object  { return e.newObject(KindLabel, parent) }
func (e *Engine) CreateArc(parent *Object) *Object    { return e.newObject(KindArc, parent) }
func (e *Engine) CreateScale(parent *Object) *Object  { return e.newObject(KindScale, parent) }
func (e *Engine) CreateImage(parent *Object) *Object  { return e.newObject(KindImage, parent) }
func (e *Engine) CreateLine(parent *Object) *Object   { return e.newObject(KindLine, parent) }

// DeleteObject removes obj and its subtree. Animations targeting a deleted
// object are dropped on the next Tick without firing their callbacks; owners
// are still expected to cancel their animations first.
func (e *Engine) DeleteObject(obj *Object) {
	if obj == nil || obj.deleted {
		return
	}
	obj.markDeleted()
	obj.detach()
	if e.active == obj {
		e.active = nil
	}
}

func (e *Engine) LoadScreen(obj *Object) {
	if obj == nil || obj.kind != KindScreen {
		e.logger.Warnf("LoadScreen called with a non-screen object")
		return
	}
	e.active = obj
}

func (e *Engine) ActiveScreen() *Object { return e.active }

func (e *Engine) AddEventCallback(obj *Object, cb EventCallback, code EventCode, userData any) {
	if obj == nil {
		return
	}
	obj.handlers = append(obj.handlers, eventHandler{code: code, cb: cb, userData: userData})
}

// Tick services due timers and running animations. Completion callbacks fire
// exactly once, inline, on the calling (UI) thread.
func (e *Engine) Tick() {
	now := e.now()

	// Timers first; a firing timer may start animations observed this tick.
	remaining := e.timers[:0]
	var due []*Timer
	for _, t := range e.timers {
		switch {
		case t.cancelled:
		case !now.Before(t.deadline):
			due = append(due, t)
		default:
			remaining = append(remaining, t)
		}
	}
	e.timers = remaining
	for _, t := range due {
		t.fired = true
		t.fn()
	}

	kept := e.anims[:0]
	var done []*Animation
	for _, a := range e.anims {
		switch {
		case a.cancelled:
		case a.target != nil && a.target.deleted:
		case !now.Before(a.end):
			done = append(done, a)
		default:
			a.step(now)
			kept = append(kept, a)
		}
	}
	e.anims = kept
	for _, a := range done {
		a.finish()
	}
}

// TimerHandler reports the delay until the next timer or animation deadline,
// zero when something is already due, and a negative value when the queues
// are empty. The application loop uses it to size the frame delay.
func (e *Engine) TimerHandler() time.Duration {
	now := e.now()
	next := time.Duration(-1)
	consider := func(deadline time.Time) {
		d := deadline.Sub(now)
		if d < 0 {
			d = 0
		}
		if next < 0 || d < next {
			next = d
		}
	}
	for _, t := range e.timers {
		if !t.cancelled {
			consider(t.deadline)
		}
	}
	for _, a := range e.anims {
		if !a.cancelled {
			consider(a.end)
		}
	}
	return next
}
