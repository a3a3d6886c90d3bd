package panels

import (
	"time"

	"cluster-service/internal/components"
	"cluster-service/internal/graphics"
	"cluster-service/internal/hardware"
	"cluster-service/internal/sensors"
)

// OemOilPanel is the default gauge panel: oil pressure and oil temperature
// side by side, each polled at its own preference-driven rate.
type OemOilPanel struct {
	deps Deps

	screen *graphics.Object

	pressureGauge components.Component
	tempGauge     components.Component

	pressureSensor sensors.Sensor
	tempSensor     sensors.Sensor

	lastPressure sensors.Reading
	lastTemp     sensors.Reading

	pressurePoll time.Time
	tempPoll     time.Time

	forceRefresh bool
}

func NewOemOilPanel(deps Deps) *OemOilPanel {
	return &OemOilPanel{deps: deps}
}

func (p *OemOilPanel) Name() string { return OemOilPanelName }

func (p *OemOilPanel) Init(io hardware.IO, display graphics.Provider) error {
	sdeps := sensors.Deps{IO: io, Prefs: p.deps.Prefs, Logger: p.deps.Logger}
	p.pressureSensor = p.deps.Sensors.Create(sensors.OilPressureSensor, sdeps)
	p.tempSensor = p.deps.Sensors.Create(sensors.OilTemperatureSensor, sdeps)

	for _, s := range []sensors.Sensor{p.pressureSensor, p.tempSensor} {
		if s == nil {
			continue
		}
		if err := s.Init(); err != nil {
			return err
		}
	}

	cdeps := components.Deps{Style: p.deps.Style, Logger: p.deps.Logger}
	p.pressureGauge = p.deps.Components.Create(components.OilPressureGauge, cdeps)
	p.tempGauge = p.deps.Components.Create(components.OilTemperatureGauge, cdeps)
	return nil
}

func (p *OemOilPanel) Load(onComplete CompletionFunc, io hardware.IO, display graphics.Provider) {
	theme := p.deps.Style.Current()

	p.screen = display.CreateScreen()
	p.screen.Color = theme.Background

	p.pressureGauge.Render(p.screen, components.Location{X: 60, Y: 100}, display)
	p.tempGauge.Render(p.screen, components.Location{X: 180, Y: 100}, display)

	p.lastPressure = p.pressureSensor.GetReading()
	p.lastTemp = p.tempSensor.GetReading()
	now := p.deps.clock()()
	p.pressurePoll = now
	p.tempPoll = now

	// Sweep both gauges from the bottom of scale to the live value. The
	// load is complete when the sweeps finish.
	p.pressureGauge.SetValue(0)
	p.tempGauge.SetValue(-40)
	display.Animate(p.screen, p, 0, p.lastPressure.AsInt(), splashFadeDuration, func(v int32) {
		p.pressureGauge.SetValue(v)
	}, nil)
	display.Animate(p.screen, p, -40, p.lastTemp.AsInt(), splashFadeDuration, func(v int32) {
		p.tempGauge.SetValue(v)
	}, func() {
		if onComplete != nil {
			onComplete()
		}
	})
}

func (p *OemOilPanel) Update(onComplete CompletionFunc, io hardware.IO, display graphics.Provider) {
	now := p.deps.clock()()

	if p.due(now, p.pressurePoll, "oil_pressure") {
		p.pressurePoll = now
		if r := p.pressureSensor.GetReading(); !r.Equal(p.lastPressure) {
			p.lastPressure = r
			p.pressureGauge.Refresh(r)
		}
	}
	if p.due(now, p.tempPoll, "oil_temperature") {
		p.tempPoll = now
		if r := p.tempSensor.GetReading(); !r.Equal(p.lastTemp) {
			p.lastTemp = r
			p.tempGauge.Refresh(r)
		}
	}

	if p.forceRefresh {
		p.forceRefresh = false
		p.pressureGauge.Refresh(p.lastPressure)
		p.tempGauge.Refresh(p.lastTemp)
	}

	if onComplete != nil {
		onComplete()
	}
}

func (p *OemOilPanel) due(now, last time.Time, gauge string) bool {
	rate := time.Duration(p.deps.Prefs.GaugeUpdateRate(gauge)) * time.Millisecond
	return now.Sub(last) >= rate
}

// OnThemeChanged repaints every component from the new palette without
// reloading the panel.
func (p *OemOilPanel) OnThemeChanged(theme string) {
	p.forceRefresh = true
}

func (p *OemOilPanel) Destroy(display graphics.Provider) {
	display.CancelOwned(p)
	if p.screen != nil {
		display.DeleteObject(p.screen)
		p.screen = nil
	}
}

func (p *OemOilPanel) Screen() *graphics.Object { return p.screen }
