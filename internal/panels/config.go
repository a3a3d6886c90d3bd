package panels

import (
	"fmt"

	"cluster-service/internal/graphics"
	"cluster-service/internal/hardware"
	"cluster-service/internal/prefs"
	"cluster-service/internal/styles"
)

// configEntry is one editable row. cycle advances the underlying preference
// to its next value and returns the new display string.
type configEntry struct {
	label string
	value func(p *ConfigPanel) string
	cycle func(p *ConfigPanel)
}

var configEntries = []configEntry{
	{
		label: "Default panel",
		value: func(p *ConfigPanel) string { return p.deps.Prefs.Get().DefaultPanel },
		cycle: func(p *ConfigPanel) {
			cfg := p.deps.Prefs.Get()
			switch cfg.DefaultPanel {
			case OemOilPanelName:
				cfg.DefaultPanel = KeyPanelName
			case KeyPanelName:
				cfg.DefaultPanel = LockPanelName
			default:
				cfg.DefaultPanel = OemOilPanelName
			}
			p.savePrefs(cfg)
		},
	},
	{
		label: "Theme",
		value: func(p *ConfigPanel) string { return p.deps.Prefs.Get().Theme },
		cycle: func(p *ConfigPanel) {
			cfg := p.deps.Prefs.Get()
			if cfg.Theme == styles.ThemeDay {
				cfg.Theme = styles.ThemeNight
			} else {
				cfg.Theme = styles.ThemeDay
			}
			p.savePrefs(cfg)
			p.deps.Style.SetTheme(cfg.Theme)
		},
	},
	{
		label: "Splash",
		value: func(p *ConfigPanel) string { return p.deps.Prefs.Get().SplashIteration },
		cycle: func(p *ConfigPanel) {
			cfg := p.deps.Prefs.Get()
			switch IterationFromString(cfg.SplashIteration) {
			case IterationInfinite:
				cfg.SplashIteration = IterationOnce.String()
			case IterationOnce:
				cfg.SplashIteration = IterationDisabled.String()
			default:
				cfg.SplashIteration = IterationInfinite.String()
			}
			p.savePrefs(cfg)
		},
	},
	{
		label: "Pressure rate",
		value: func(p *ConfigPanel) string {
			return fmt.Sprintf("%d ms", p.deps.Prefs.GaugeUpdateRate("oil_pressure"))
		},
		cycle: func(p *ConfigPanel) { p.cycleGaugeRate("oil_pressure") },
	},
	{
		label: "Temp rate",
		value: func(p *ConfigPanel) string {
			return fmt.Sprintf("%d ms", p.deps.Prefs.GaugeUpdateRate("oil_temperature"))
		},
		cycle: func(p *ConfigPanel) { p.cycleGaugeRate("oil_temperature") },
	},
	{
		label: "Pressure unit",
		value: func(p *ConfigPanel) string { return p.deps.Prefs.Calibration("oil_pressure").Unit },
		cycle: func(p *ConfigPanel) { p.cycleSensorUnit("oil_pressure") },
	},
	{
		label: "Temp unit",
		value: func(p *ConfigPanel) string { return p.deps.Prefs.Calibration("oil_temperature").Unit },
		cycle: func(p *ConfigPanel) { p.cycleSensorUnit("oil_temperature") },
	},
}

var gaugeRateSteps = []int{100, 250, 500, 1000}

// sensorUnitPresets holds the full calibration per unit; switching the unit
// swaps offset and scale along with it.
var sensorUnitPresets = map[string][]prefs.SensorCalibration{
	"oil_pressure": {
		{Unit: "bar", Offset: 0, Scale: 1},
		{Unit: "psi", Offset: 0, Scale: 14.5},
	},
	"oil_temperature": {
		{Unit: "C", Offset: -40, Scale: 0.25},
		{Unit: "F", Offset: -40, Scale: 0.45},
	},
}

// ConfigPanel edits the persisted preferences in place. A short press moves
// the selection, a long press cycles the selected value.
type ConfigPanel struct {
	deps Deps

	screen   *graphics.Object
	rows     []*graphics.Object
	selected int

	forceRefresh bool
}

func NewConfigPanel(deps Deps) *ConfigPanel {
	return &ConfigPanel{deps: deps}
}

func (p *ConfigPanel) Name() string { return ConfigPanelName }

func (p *ConfigPanel) Init(io hardware.IO, display graphics.Provider) error { return nil }

func (p *ConfigPanel) Load(onComplete CompletionFunc, io hardware.IO, display graphics.Provider) {
	theme := p.deps.Style.Current()

	p.screen = display.CreateScreen()
	p.screen.Color = theme.Background

	title := display.CreateLabel(p.screen)
	title.X, title.Y = 120, 24
	title.Text = "SETTINGS"
	title.Color = theme.Accent

	p.rows = p.rows[:0]
	for i := range configEntries {
		row := display.CreateLabel(p.screen)
		row.X, row.Y = 40, 60+i*24
		p.rows = append(p.rows, row)
	}
	p.repaint()

	if onComplete != nil {
		onComplete()
	}
}

func (p *ConfigPanel) Update(onComplete CompletionFunc, io hardware.IO, display graphics.Provider) {
	if p.forceRefresh {
		p.forceRefresh = false
		p.repaint()
	}
	if onComplete != nil {
		onComplete()
	}
}

func (p *ConfigPanel) repaint() {
	theme := p.deps.Style.Current()
	p.screen.Color = theme.Background
	for i, row := range p.rows {
		entry := configEntries[i]
		marker := "  "
		row.Color = theme.Foreground
		if i == p.selected {
			marker = "> "
			row.Color = theme.Accent
		}
		row.Text = fmt.Sprintf("%s%s: %s", marker, entry.label, entry.value(p))
	}
}

// cycleGaugeRate advances the gauge's poll interval to the next step. The
// preference maps are shared with the live record, so mutate a copy.
func (p *ConfigPanel) cycleGaugeRate(gauge string) {
	cfg := p.deps.Prefs.Get()
	rates := make(map[string]int, len(cfg.GaugeUpdateRates)+1)
	for k, v := range cfg.GaugeUpdateRates {
		rates[k] = v
	}
	next := gaugeRateSteps[0]
	cur := p.deps.Prefs.GaugeUpdateRate(gauge)
	for i, step := range gaugeRateSteps {
		if step == cur {
			next = gaugeRateSteps[(i+1)%len(gaugeRateSteps)]
			break
		}
	}
	rates[gauge] = next
	cfg.GaugeUpdateRates = rates
	p.savePrefs(cfg)
}

func (p *ConfigPanel) cycleSensorUnit(sensor string) {
	presets := sensorUnitPresets[sensor]
	if len(presets) == 0 {
		return
	}
	cfg := p.deps.Prefs.Get()
	sensors := make(map[string]prefs.SensorCalibration, len(cfg.Sensors)+1)
	for k, v := range cfg.Sensors {
		sensors[k] = v
	}
	next := presets[0]
	cur := p.deps.Prefs.Calibration(sensor).Unit
	for i, preset := range presets {
		if preset.Unit == cur {
			next = presets[(i+1)%len(presets)]
			break
		}
	}
	sensors[sensor] = next
	cfg.Sensors = sensors
	p.savePrefs(cfg)
}

func (p *ConfigPanel) savePrefs(cfg prefs.Config) {
	if err := p.deps.Prefs.Save(cfg); err != nil {
		p.deps.Logger.Warnf("Failed to save preferences: %v", err)
	}
}

func (p *ConfigPanel) CanProcessInput() bool { return true }

func (p *ConfigPanel) OnShortPress() {
	p.selected = (p.selected + 1) % len(configEntries)
	p.repaint()
}

func (p *ConfigPanel) OnLongPress() {
	configEntries[p.selected].cycle(p)
	p.repaint()
}

func (p *ConfigPanel) OnThemeChanged(theme string) {
	p.forceRefresh = true
}

func (p *ConfigPanel) Destroy(display graphics.Provider) {
	display.CancelOwned(p)
	if p.screen != nil {
		display.DeleteObject(p.screen)
		p.screen = nil
	}
}

func (p *ConfigPanel) Screen() *graphics.Object { return p.screen }
