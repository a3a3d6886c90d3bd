// Package panels owns the panel roster and the panel service: exactly one
// panel is current at any instant after initialization, and every transition
// between panels runs through the service's lifecycle machine.
package panels

import (
	"time"

	"cluster-service/internal/components"
	"cluster-service/internal/graphics"
	"cluster-service/internal/hardware"
	"cluster-service/internal/logger"
	"cluster-service/internal/prefs"
	"cluster-service/internal/sensors"
	"cluster-service/internal/styles"
)

// Core panel roster.
const (
	SplashPanelName = "SplashPanel"
	OemOilPanelName = "OemOilPanel"
	KeyPanelName    = "KeyPanel"
	LockPanelName   = "LockPanel"
	ConfigPanelName = "ConfigPanel"
	ErrorPanelName  = "ErrorPanel"
)

// Iteration controls whether a panel reappears across startups. Only the
// splash flow consumes it.
type Iteration int

const (
	IterationInfinite Iteration = iota
	IterationOnce
	IterationDisabled
)

func IterationFromString(s string) Iteration {
	switch s {
	case "once":
		return IterationOnce
	case "disabled":
		return IterationDisabled
	default:
		return IterationInfinite
	}
}

func (i Iteration) String() string {
	switch i {
	case IterationOnce:
		return "once"
	case IterationDisabled:
		return "disabled"
	default:
		return "infinite"
	}
}

// CompletionFunc signals that an asynchronous Load or Update has finished.
// For every operation in progress it fires exactly once, either from an
// animation completion or from an immediate short-circuit.
type CompletionFunc func()

// Panel is a full-screen unit of display. Load and Update are logically
// asynchronous: they return immediately and invoke the completion callback
// later, driven by the graphics engine's animation timer, or synchronously
// when no animation is needed.
type Panel interface {
	Name() string
	Init(io hardware.IO, display graphics.Provider) error
	Load(onComplete CompletionFunc, io hardware.IO, display graphics.Provider)
	Update(onComplete CompletionFunc, io hardware.IO, display graphics.Provider)
	// Destroy cancels every animation referencing the panel and frees the
	// graphics objects it owns.
	Destroy(display graphics.Provider)
	Screen() *graphics.Object
}

// InputHandler is the optional capability set for panels that consume button
// input (the configuration panel).
type InputHandler interface {
	CanProcessInput() bool
	OnShortPress()
	OnLongPress()
}

// IterationTagged is implemented by panels carrying an iteration tag.
type IterationTagged interface {
	Iteration() Iteration
}

// ThemeAware panels repaint all components when the theme changes, even when
// sensor values are unchanged. The service calls this instead of reloading.
type ThemeAware interface {
	OnThemeChanged(theme string)
}

// Deps are the construction-time dependencies handed to panel creators.
type Deps struct {
	IO         hardware.IO
	Style      *styles.Service
	Components *components.Factory
	Sensors    *sensors.Factory
	Prefs      *prefs.Service
	Logger     *logger.Logger
	Now        func() time.Time
}

func (d Deps) clock() func() time.Time {
	if d.Now != nil {
		return d.Now
	}
	return time.Now
}
