package components

import (
	"testing"

	"cluster-service/internal/graphics"
	"cluster-service/internal/logger"
	"cluster-service/internal/sensors"
	"cluster-service/internal/styles"
)

func testSetup() (*styles.Service, *graphics.Engine, *graphics.Object) {
	l := logger.NewLogger(nil, logger.LogLevelError)
	style := styles.NewService(l)
	engine := graphics.NewEngine(l)
	return style, engine, engine.CreateScreen()
}

func TestArcGaugeClampsValue(t *testing.T) {
	style, engine, screen := testSetup()

	g := NewArcGauge(style, "OIL", "bar", 0, 10)
	g.Render(screen, Location{X: 10, Y: 20}, engine)

	g.SetValue(25)
	if g.value != 10 {
		t.Errorf("Expected clamp to 10, got %d", g.value)
	}
	g.SetValue(-5)
	if g.value != 0 {
		t.Errorf("Expected clamp to 0, got %d", g.value)
	}
}

func TestArcGaugeRefreshFromReading(t *testing.T) {
	style, engine, screen := testSetup()

	g := NewArcGauge(style, "TEMP", "C", -40, 150)
	g.Render(screen, Location{}, engine)
	g.Refresh(sensors.FloatReading(92.4))

	if g.value != 92 {
		t.Errorf("Expected 92, got %d", g.value)
	}
	if g.readout.Text != "92 C" {
		t.Errorf("Expected readout '92 C', got %q", g.readout.Text)
	}
}

func TestArcGaugeRepaintsWithTheme(t *testing.T) {
	style, engine, screen := testSetup()

	g := NewArcGauge(style, "OIL", "bar", 0, 10)
	g.Render(screen, Location{}, engine)

	dayColor := g.arc.Color
	style.SetTheme(styles.ThemeNight)
	g.SetValue(g.value) // repaint with unchanged value

	if g.arc.Color == dayColor {
		t.Error("Expected arc color to follow theme change")
	}
}

func TestIconVisibilityTracksReading(t *testing.T) {
	style, engine, screen := testSetup()

	icon := NewIcon(style, "key.png")
	icon.Render(screen, Location{}, engine)

	if !icon.img.Hidden {
		t.Error("Icon must start hidden")
	}
	icon.Refresh(sensors.BoolReading(true))
	if icon.img.Hidden {
		t.Error("Active reading must show the icon")
	}
	icon.Refresh(sensors.BoolReading(false))
	if !icon.img.Hidden {
		t.Error("Inactive reading must hide the icon")
	}
}

func TestReadoutText(t *testing.T) {
	style, engine, screen := testSetup()

	r := NewReadout(style, "state: ")
	r.Render(screen, Location{}, engine)
	r.Refresh(sensors.StringReading("locked"))

	if r.label.Text != "state: locked" {
		t.Errorf("Unexpected text %q", r.label.Text)
	}
}

func TestFactoryRoster(t *testing.T) {
	l := logger.NewLogger(nil, logger.LogLevelError)
	f := NewFactory(l)
	f.RegisterDefaults()
	deps := Deps{Style: styles.NewService(l), Logger: l}

	for _, name := range []string{OilPressureGauge, OilTemperatureGauge, KeyIcon, LockIcon, StatusReadout} {
		if !f.Has(name) {
			t.Errorf("Missing component %s", name)
		}
		if f.Create(name, deps) == nil {
			t.Errorf("Create(%s) returned nil", name)
		}
	}
	if f.Create("Bogus", deps) != nil {
		t.Error("Unknown component must yield nil")
	}
}
