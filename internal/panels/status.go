package panels

import (
	"time"

	"cluster-service/internal/components"
	"cluster-service/internal/graphics"
	"cluster-service/internal/hardware"
	"cluster-service/internal/sensors"
)

const statusFadeDuration = 250 * time.Millisecond

// statusPanel is the shared shape of the key and lock panels: one icon, one
// readout, one boolean sensor.
type statusPanel struct {
	deps Deps

	name       string
	sensorName string
	iconName   string
	activeText string
	idleText   string

	screen  *graphics.Object
	icon    components.Component
	readout components.Component
	sensor  sensors.Sensor

	last         sensors.Reading
	forceRefresh bool
}

func (p *statusPanel) Name() string { return p.name }

func (p *statusPanel) Init(io hardware.IO, display graphics.Provider) error {
	sdeps := sensors.Deps{IO: io, Prefs: p.deps.Prefs, Logger: p.deps.Logger}
	p.sensor = p.deps.Sensors.Create(p.sensorName, sdeps)
	if p.sensor != nil {
		if err := p.sensor.Init(); err != nil {
			return err
		}
	}

	cdeps := components.Deps{Style: p.deps.Style, Logger: p.deps.Logger}
	p.icon = p.deps.Components.Create(p.iconName, cdeps)
	p.readout = p.deps.Components.Create(components.StatusReadout, cdeps)
	return nil
}

func (p *statusPanel) Load(onComplete CompletionFunc, io hardware.IO, display graphics.Provider) {
	theme := p.deps.Style.Current()

	p.screen = display.CreateScreen()
	p.screen.Color = theme.Background

	p.icon.Render(p.screen, components.Location{X: 120, Y: 70}, display)
	p.readout.Render(p.screen, components.Location{X: 120, Y: 150}, display)

	p.last = p.sensor.GetReading()
	p.apply()

	display.Animate(p.screen, p, 0, 255, statusFadeDuration, func(v int32) {
		p.screen.Value = v
	}, func() {
		if onComplete != nil {
			onComplete()
		}
	})
}

func (p *statusPanel) Update(onComplete CompletionFunc, io hardware.IO, display graphics.Provider) {
	if r := p.sensor.GetReading(); !r.Equal(p.last) || p.forceRefresh {
		p.forceRefresh = false
		p.last = r
		p.apply()
	}
	if onComplete != nil {
		onComplete()
	}
}

func (p *statusPanel) apply() {
	p.icon.Refresh(p.last)
	text := p.idleText
	if p.last.Kind() == sensors.ReadingBool && p.last.Bool() {
		text = p.activeText
	}
	p.readout.Refresh(sensors.StringReading(text))
}

func (p *statusPanel) OnThemeChanged(theme string) {
	p.forceRefresh = true
}

func (p *statusPanel) Destroy(display graphics.Provider) {
	display.CancelOwned(p)
	if p.screen != nil {
		display.DeleteObject(p.screen)
		p.screen = nil
	}
}

func (p *statusPanel) Screen() *graphics.Object { return p.screen }

// KeyPanel takes over the display while the key is absent.
type KeyPanel struct{ statusPanel }

func NewKeyPanel(deps Deps) *KeyPanel {
	return &KeyPanel{statusPanel{
		deps:       deps,
		name:       KeyPanelName,
		sensorName: sensors.KeyPresentSensor,
		iconName:   components.KeyIcon,
		activeText: "KEY PRESENT",
		idleText:   "KEY NOT PRESENT",
	}}
}

// LockPanel takes over the display while the lock input is asserted.
type LockPanel struct{ statusPanel }

func NewLockPanel(deps Deps) *LockPanel {
	return &LockPanel{statusPanel{
		deps:       deps,
		name:       LockPanelName,
		sensorName: sensors.LockSensor,
		iconName:   components.LockIcon,
		activeText: "LOCKED",
		idleText:   "UNLOCKED",
	}}
}
