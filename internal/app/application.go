// Package app wires the services together and runs the frame loop. The loop
// is the UI thread: everything that touches graphics, panels or triggers
// happens here, and work arriving from listener goroutines is queued and
// drained at the top of each frame.
package app

import (
	"context"
	"fmt"
	"time"

	"cluster-service/internal/config"
	"cluster-service/internal/container"
	"cluster-service/internal/graphics"
	"cluster-service/internal/hardware"
	"cluster-service/internal/logger"
	"cluster-service/internal/messaging"
	"cluster-service/internal/panels"
	"cluster-service/internal/prefs"
	"cluster-service/internal/sensors"
	"cluster-service/internal/styles"
	"cluster-service/internal/triggers"
)

const (
	commandQueueDepth = 32
	telemetryInterval = time.Second
	// minFrameDelay keeps the loop yielding even when frames overrun.
	minFrameDelay = time.Millisecond
)

// Messenger is the external messaging surface the application consumes. The
// production implementation is messaging.RedisClient; it doubles as the
// preference store.
type Messenger interface {
	prefs.Store

	Connect() error
	SetCallbacks(cb messaging.Callbacks)
	StartListening() error
	PublishPanelState(panel string) error
	PublishThemeState(theme string) error
	PublishBrightness(percent int) error
	SetReading(name, value string) error
	Close() error
}

// App owns the frame loop.
type App struct {
	logger *logger.Logger
	cfg    *config.Config

	io        hardware.IO
	engine    *graphics.Engine
	style     *styles.Service
	prefs     *prefs.Service
	panels    *panels.Service
	triggers  *triggers.Service
	messenger Messenger

	commands chan func()

	sensorFactory  *sensors.Factory
	pressureSensor sensors.Sensor
	tempSensor     sensors.Sensor
	lastTelemetry  time.Time

	brightness int
}

func newApp(c *container.Container) *App {
	log := container.MustResolve[*logger.Logger](c)
	return &App{
		logger:        log.WithTag("App"),
		cfg:           container.MustResolve[*config.Config](c),
		io:            container.MustResolve[hardware.IO](c),
		engine:        container.MustResolve[*graphics.Engine](c),
		style:         container.MustResolve[*styles.Service](c),
		prefs:         container.MustResolve[*prefs.Service](c),
		panels:        container.MustResolve[*panels.Service](c),
		triggers:      container.MustResolve[*triggers.Service](c),
		messenger:     container.MustResolve[Messenger](c),
		sensorFactory: container.MustResolve[*sensors.Factory](c),
		commands:      make(chan func(), commandQueueDepth),
		brightness:    100,
	}
}

// New resolves the application from the container.
func New(c *container.Container) *App {
	return container.MustResolve[*App](c)
}

// enqueue hands work from a listener goroutine to the UI thread. A full
// queue drops the command; the sources are idempotent.
func (a *App) enqueue(fn func()) {
	select {
	case a.commands <- fn:
	default:
		a.logger.Warnf("Command queue full, dropping command")
	}
}

// Initialize brings up hardware, state and the initial panel. The startup
// panel is the trigger override when one is active at boot, otherwise the
// preferred default behind the splash flow.
func (a *App) Initialize(ctx context.Context) error {
	if err := a.io.Initialize(); err != nil {
		return fmt.Errorf("hardware init: %w", err)
	}

	if err := a.messenger.Connect(); err != nil {
		return fmt.Errorf("messaging: %w", err)
	}

	if err := a.prefs.Load(); err != nil {
		a.logger.Warnf("Preferences unavailable, running on defaults: %v", err)
	}
	a.style.SetTheme(a.prefs.Get().Theme)
	a.style.OnThemeChange(func(theme string) {
		if err := a.messenger.PublishThemeState(theme); err != nil {
			a.logger.Warnf("Failed to publish theme state: %v", err)
		}
	})

	a.applyBrightness(a.brightness)

	if err := a.panels.Init(ctx); err != nil {
		return fmt.Errorf("panel service: %w", err)
	}
	a.panels.SetStatePublisher(a.messenger)

	if err := a.triggers.Init(); err != nil {
		return fmt.Errorf("trigger service: %w", err)
	}

	sdeps := sensors.Deps{IO: a.io, Prefs: a.prefs, Logger: a.logger}
	a.pressureSensor = a.sensorFactory.Create(sensors.OilPressureSensor, sdeps)
	a.tempSensor = a.sensorFactory.Create(sensors.OilTemperatureSensor, sdeps)

	a.messenger.SetCallbacks(messaging.Callbacks{
		PanelCallback: func(name string) error {
			a.enqueue(func() { a.panels.CreateAndLoadPanel(name, nil, false) })
			return nil
		},
		ThemeCallback: func(name string) error {
			a.enqueue(func() { a.style.SetTheme(name) })
			return nil
		},
		BrightnessCallback: func(percent int) error {
			a.enqueue(func() { a.applyBrightness(percent) })
			return nil
		},
	})

	if !a.triggers.ApplyStartupOverride() {
		a.panels.CreateAndLoadPanelWithSplash(a.prefs.Get().DefaultPanel)
	}
	a.engine.Tick()

	if err := a.messenger.StartListening(); err != nil {
		return fmt.Errorf("messaging listeners: %w", err)
	}

	a.logger.Infof("Initialized, default panel %s", a.prefs.Get().DefaultPanel)
	return nil
}

// Update runs one frame.
func (a *App) Update() {
	a.drainCommands()
	a.triggers.ProcessTriggerEvents()
	a.panels.UpdatePanel()
	a.engine.Tick()
	a.publishTelemetry()
}

func (a *App) drainCommands() {
	for {
		select {
		case fn := <-a.commands:
			fn()
		default:
			return
		}
	}
}

// publishTelemetry pushes the calibrated oil readings out once per second.
func (a *App) publishTelemetry() {
	now := time.Now()
	if now.Sub(a.lastTelemetry) < telemetryInterval {
		return
	}
	a.lastTelemetry = now

	if a.pressureSensor != nil {
		if err := a.messenger.SetReading("oil_pressure", a.pressureSensor.GetReading().String()); err != nil {
			a.logger.Debugf("Telemetry publish failed: %v", err)
			return
		}
	}
	if a.tempSensor != nil {
		if err := a.messenger.SetReading("oil_temperature", a.tempSensor.GetReading().String()); err != nil {
			a.logger.Debugf("Telemetry publish failed: %v", err)
		}
	}
}

func (a *App) applyBrightness(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	a.brightness = percent
	if err := a.io.DigitalWrite("backlight_enable", percent > 0); err != nil {
		a.logger.Warnf("Failed to switch backlight: %v", err)
	}
	if err := a.messenger.PublishBrightness(percent); err != nil {
		a.logger.Warnf("Failed to publish brightness: %v", err)
	}
}

// frameDelay sizes the sleep until the next frame: the sooner of the next
// animation deadline and the configured frame interval.
func (a *App) frameDelay() time.Duration {
	delay := a.cfg.FrameInterval()
	if next := a.engine.TimerHandler(); next >= 0 && next < delay {
		delay = next
	}
	if delay < minFrameDelay {
		delay = minFrameDelay
	}
	return delay
}

// Run drives the frame loop until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.Initialize(ctx); err != nil {
		return err
	}

	timer := time.NewTimer(a.frameDelay())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			a.Shutdown()
			return nil
		case <-timer.C:
			a.Update()
			timer.Reset(a.frameDelay())
		}
	}
}

// Shutdown tears down in reverse bring-up order.
func (a *App) Shutdown() {
	a.logger.Infof("Shutting down")
	a.panels.DestroyCurrent()
	if err := a.io.DigitalWrite("backlight_enable", false); err != nil {
		a.logger.Debugf("Failed to disable backlight: %v", err)
	}
	if err := a.messenger.Close(); err != nil {
		a.logger.Warnf("Messaging close: %v", err)
	}
	a.io.Cleanup()
}
