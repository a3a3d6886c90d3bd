// Package graphics provides the retained-mode object tree, single-shot
// timers and value animations that panels and components build on. The whole
// package is serviced from the UI thread: Tick advances timers and
// animations and fires their callbacks inline.
package graphics

import "image/color"

type ObjectKind int

const (
	KindScreen ObjectKind = iota
	KindObject
	KindLabel
	KindArc
	KindScale
	KindImage
	KindLine
)

func (k ObjectKind) String() string {
	switch k {
	case KindScreen:
		return "screen"
	case KindObject:
		return "object"
	case KindLabel:
		return "label"
	case KindArc:
		return "arc"
	case KindScale:
		return "scale"
	case KindImage:
		return "image"
	case KindLine:
		return "line"
	default:
		return "unknown"
	}
}

type EventCode int

const (
	EventClicked EventCode = iota
	EventShortPress
	EventLongPress
)

type EventCallback func(obj *Object, code EventCode, userData any)

type eventHandler struct {
	code     EventCode
	cb       EventCallback
	userData any
}

// Object is one node of the retained widget tree. Fields are plain data; the
// renderer interprets them per kind (text for labels, value/range for arcs
// and scales, source for images).
type Object struct {
	id       uint64
	kind     ObjectKind
	parent   *Object
	children []*Object
	deleted  bool

	X, Y          int
	Width, Height int
	Hidden        bool

	Text     string
	Value    int32
	RangeMin int32
	RangeMax int32
	Source   string
	Color    color.RGBA

	handlers []eventHandler
}

func (o *Object) Kind() ObjectKind { return o.kind }

func (o *Object) Children() []*Object { return o.children }

// SendEvent dispatches code to handlers registered on this object.
func (o *Object) SendEvent(code EventCode) {
	for _, h := range o.handlers {
		if h.code == code {
			h.cb(o, code, h.userData)
		}
	}
}

func (o *Object) detach() {
	if o.parent == nil {
		return
	}
	siblings := o.parent.children
	for i, c := range siblings {
		if c == o {
			o.parent.children = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	o.parent = nil
}

// markDeleted flags the subtree so in-flight animation callbacks can detect
// a stale target.
func (o *Object) markDeleted() {
	o.deleted = true
	for _, c := range o.children {
		c.markDeleted()
	}
}
