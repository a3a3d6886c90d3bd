package triggers

import (
	"context"
	"testing"
	"time"

	"cluster-service/internal/components"
	"cluster-service/internal/config"
	"cluster-service/internal/graphics"
	"cluster-service/internal/hardware"
	"cluster-service/internal/logger"
	"cluster-service/internal/panels"
	"cluster-service/internal/prefs"
	"cluster-service/internal/sensors"
	"cluster-service/internal/styles"
)

type mockIO struct {
	digital map[string]bool
	analog  map[string]uint16
}

func newMockIO() *mockIO {
	return &mockIO{digital: make(map[string]bool), analog: make(map[string]uint16)}
}

func (m *mockIO) Initialize() error { return nil }
func (m *mockIO) Cleanup()          {}

func (m *mockIO) PinMode(channel string, mode hardware.PinMode) error { return nil }

func (m *mockIO) DigitalRead(channel string) (bool, error) {
	return m.digital[channel], nil
}

func (m *mockIO) DigitalWrite(channel string, value bool) error { return nil }

func (m *mockIO) AnalogRead(channel string) (uint16, error) {
	return m.analog[channel], nil
}

type mockStore struct{ blob string }

func (m *mockStore) GetSettingsBlob() (string, error) { return m.blob, nil }
func (m *mockStore) SetSettingsBlob(b string) error   { m.blob = b; return nil }

type testRig struct {
	triggers *Service
	panels   *panels.Service
	engine   *graphics.Engine
	io       *mockIO
	prefs    *prefs.Service
	style    *styles.Service
	now      time.Time
}

// frame runs one loop iteration: trigger processing, then enough fake time
// to finish any entrance animation.
func (r *testRig) frame() {
	r.triggers.ProcessTriggerEvents()
	r.now = r.now.Add(time.Second)
	r.engine.Tick()
}

func newTestRig(t *testing.T, mappings func(cfg *config.Config) []Mapping) *testRig {
	t.Helper()
	baseLog := logger.NewLogger(nil, logger.LogLevelError)

	r := &testRig{
		io:  newMockIO(),
		now: time.Unix(1000, 0),
	}

	r.engine = graphics.NewEngine(baseLog)
	r.engine.SetClock(func() time.Time { return r.now })

	r.prefs = prefs.NewService(&mockStore{}, baseLog)
	if err := r.prefs.Load(); err != nil {
		t.Fatalf("prefs load: %v", err)
	}

	r.style = styles.NewService(baseLog)

	sensorFactory := sensors.NewFactory(baseLog)
	sensorFactory.RegisterDefaults()
	componentFactory := components.NewFactory(baseLog)
	componentFactory.RegisterDefaults()

	deps := panels.Deps{
		IO:         r.io,
		Style:      r.style,
		Components: componentFactory,
		Sensors:    sensorFactory,
		Prefs:      r.prefs,
		Logger:     baseLog,
		Now:        func() time.Time { return r.now },
	}

	factory := panels.NewFactory(baseLog)
	factory.RegisterDefaults()

	r.panels = panels.NewService(r.engine, r.io, factory, deps, 3*time.Second)
	if err := r.panels.Init(context.Background()); err != nil {
		t.Fatalf("panel service init: %v", err)
	}

	// Bright ambient light by default so the analog theme trigger starts
	// inactive.
	r.io.analog["light_level"] = 60000

	cfg := config.Default()
	r.triggers = NewService(r.io, r.panels, r.style, r.prefs, baseLog, mappings(cfg))
	if err := r.triggers.Init(); err != nil {
		t.Fatalf("trigger init: %v", err)
	}
	return r
}

func loadDefault(t *testing.T, r *testRig) {
	t.Helper()
	r.panels.CreateAndLoadPanel(panels.OemOilPanelName, nil, false)
	r.now = r.now.Add(time.Second)
	r.engine.Tick()
	if got := r.panels.GetCurrentPanel(); got != panels.OemOilPanelName {
		t.Fatalf("default panel not loaded, got %q", got)
	}
}

func TestPriorityOverrideAndRestore(t *testing.T) {
	r := newTestRig(t, DefaultMappings)
	loadDefault(t, r)

	r.io.digital["lock"] = true
	r.frame()
	if got := r.panels.GetCurrentPanel(); got != panels.LockPanelName {
		t.Fatalf("expected lock panel, got %q", got)
	}

	// Critical key trigger outranks the important lock trigger.
	r.io.digital["key_not_present"] = true
	r.frame()
	if got := r.panels.GetCurrentPanel(); got != panels.KeyPanelName {
		t.Fatalf("expected key panel to outrank lock, got %q", got)
	}

	r.io.digital["key_not_present"] = false
	r.frame()
	if got := r.panels.GetCurrentPanel(); got != panels.LockPanelName {
		t.Fatalf("expected fall back to lock panel, got %q", got)
	}

	r.io.digital["lock"] = false
	r.frame()
	if got := r.panels.GetCurrentPanel(); got != panels.OemOilPanelName {
		t.Fatalf("expected restoration to default, got %q", got)
	}
	if got := r.panels.GetRestorationPanel(); got != panels.OemOilPanelName {
		t.Fatalf("restoration target moved to %q", got)
	}
}

func TestKeyPresentOutranksLock(t *testing.T) {
	r := newTestRig(t, DefaultMappings)
	loadDefault(t, r)

	r.io.digital["lock"] = true
	r.frame()
	if got := r.panels.GetCurrentPanel(); got != panels.LockPanelName {
		t.Fatalf("expected lock panel, got %q", got)
	}

	// The key-present pin is a critical trigger like its counterpart and
	// must preempt the important lock override.
	r.io.digital["key_present"] = true
	r.frame()
	if got := r.panels.GetCurrentPanel(); got != panels.KeyPanelName {
		t.Fatalf("expected key panel over lock, got %q", got)
	}

	r.io.digital["key_present"] = false
	r.frame()
	if got := r.panels.GetCurrentPanel(); got != panels.LockPanelName {
		t.Fatalf("expected fall back to lock panel, got %q", got)
	}

	r.io.digital["lock"] = false
	r.frame()
	if got := r.panels.GetCurrentPanel(); got != panels.OemOilPanelName {
		t.Fatalf("expected restoration to default, got %q", got)
	}
}

func TestBothKeyPinsHighShowKeyPanel(t *testing.T) {
	r := newTestRig(t, DefaultMappings)
	loadDefault(t, r)

	r.io.digital["key_not_present"] = true
	r.frame()
	if got := r.panels.GetCurrentPanel(); got != panels.KeyPanelName {
		t.Fatalf("expected key panel, got %q", got)
	}

	// Both key pins asserted: the later activation wins the equal-priority
	// tie, and both resolve to the key panel.
	r.io.digital["key_present"] = true
	r.frame()
	if got := r.panels.GetCurrentPanel(); got != panels.KeyPanelName {
		t.Fatalf("expected key panel with both pins high, got %q", got)
	}

	r.io.digital["key_present"] = false
	r.frame()
	if got := r.panels.GetCurrentPanel(); got != panels.KeyPanelName {
		t.Fatalf("expected key panel while one pin stays high, got %q", got)
	}

	r.io.digital["key_not_present"] = false
	r.frame()
	if got := r.panels.GetCurrentPanel(); got != panels.OemOilPanelName {
		t.Fatalf("expected restoration after both pins cleared, got %q", got)
	}
}

func TestEqualPriorityNewestWins(t *testing.T) {
	mappings := func(cfg *config.Config) []Mapping {
		return []Mapping{
			{ID: "a", Channel: "in_a", Edge: EdgeHigh, Priority: PriorityImportant,
				Action: ActionLoadPanel, Target: panels.KeyPanelName},
			{ID: "b", Channel: "in_b", Edge: EdgeHigh, Priority: PriorityImportant,
				Action: ActionLoadPanel, Target: panels.LockPanelName},
		}
	}
	r := newTestRig(t, mappings)
	loadDefault(t, r)

	r.io.digital["in_a"] = true
	r.frame()
	if got := r.panels.GetCurrentPanel(); got != panels.KeyPanelName {
		t.Fatalf("expected first trigger's panel, got %q", got)
	}

	r.io.digital["in_b"] = true
	r.frame()
	if got := r.panels.GetCurrentPanel(); got != panels.LockPanelName {
		t.Fatalf("expected newest equal-priority trigger to win, got %q", got)
	}
}

func TestStartupOverride(t *testing.T) {
	r := newTestRig(t, func(cfg *config.Config) []Mapping { return DefaultMappings(cfg) })
	// Simulate the trigger being asserted before Init by re-initializing.
	r.io.digital["key_not_present"] = true
	if err := r.triggers.Init(); err != nil {
		t.Fatalf("trigger init: %v", err)
	}

	if got := r.triggers.GetStartupPanelOverride(); got != panels.KeyPanelName {
		t.Fatalf("expected startup override %s, got %q", panels.KeyPanelName, got)
	}
	if !r.triggers.ApplyStartupOverride() {
		t.Fatal("expected startup override to apply")
	}

	// The override is splash-prefixed like any boot panel.
	r.now = r.now.Add(time.Second)
	r.engine.Tick()
	if got := r.panels.GetCurrentPanel(); got != panels.SplashPanelName {
		t.Fatalf("expected splash before override, got %q", got)
	}
	r.frame()
	r.frame()
	r.frame()
	if got := r.panels.GetCurrentPanel(); got != panels.KeyPanelName {
		t.Fatalf("expected key panel after splash, got %q", got)
	}
	if got := r.panels.GetRestorationPanel(); got != panels.OemOilPanelName {
		t.Fatalf("startup override must not move restoration, got %q", got)
	}

	// When the boot-time override clears, the preferred default loads even
	// though no other panel was ever current.
	r.io.digital["key_not_present"] = false
	r.frame()
	r.frame()
	if got := r.panels.GetCurrentPanel(); got != panels.OemOilPanelName {
		t.Fatalf("expected preference default after override cleared, got %q", got)
	}
}

func TestStartupOverrideFromKeyPresentPin(t *testing.T) {
	r := newTestRig(t, DefaultMappings)
	r.io.digital["key_present"] = true
	if err := r.triggers.Init(); err != nil {
		t.Fatalf("trigger init: %v", err)
	}

	if got := r.triggers.GetStartupPanelOverride(); got != panels.KeyPanelName {
		t.Fatalf("expected startup override %s, got %q", panels.KeyPanelName, got)
	}
	if !r.triggers.ApplyStartupOverride() {
		t.Fatal("expected startup override to apply")
	}

	r.now = r.now.Add(time.Second)
	r.engine.Tick()
	if got := r.panels.GetCurrentPanel(); got != panels.SplashPanelName {
		t.Fatalf("expected splash before override, got %q", got)
	}
	r.frame()
	r.frame()
	r.frame()
	if got := r.panels.GetCurrentPanel(); got != panels.KeyPanelName {
		t.Fatalf("expected key panel after splash, got %q", got)
	}

	r.io.digital["key_present"] = false
	r.frame()
	r.frame()
	if got := r.panels.GetCurrentPanel(); got != panels.OemOilPanelName {
		t.Fatalf("expected preference default after override cleared, got %q", got)
	}
}

func TestNoStartupOverrideWhenInactive(t *testing.T) {
	r := newTestRig(t, DefaultMappings)
	if got := r.triggers.GetStartupPanelOverride(); got != "" {
		t.Fatalf("expected no startup override, got %q", got)
	}
	if r.triggers.ApplyStartupOverride() {
		t.Fatal("expected no startup override to apply")
	}
}

func TestRapidToggleCollapsesToFinalState(t *testing.T) {
	r := newTestRig(t, DefaultMappings)
	loadDefault(t, r)

	// Assert the trigger and start the override load, but do not let the
	// entrance animation finish yet.
	r.io.digital["lock"] = true
	r.triggers.ProcessTriggerEvents()
	if got := r.panels.UiState(); got != panels.StateLoading {
		t.Fatalf("expected load in flight, got %s", got)
	}

	// Toggle while loading; these frames are dropped.
	r.io.digital["lock"] = false
	r.triggers.ProcessTriggerEvents()
	r.io.digital["lock"] = true
	r.triggers.ProcessTriggerEvents()
	r.io.digital["lock"] = false
	r.triggers.ProcessTriggerEvents()

	// Let the load finish, then settle.
	r.now = r.now.Add(time.Second)
	r.engine.Tick()
	r.frame()
	r.frame()

	if got := r.panels.GetCurrentPanel(); got != panels.OemOilPanelName {
		t.Fatalf("expected final stable state after toggle burst, got %q", got)
	}
}

func TestLightsTriggerSwitchesThemeWithoutReload(t *testing.T) {
	r := newTestRig(t, DefaultMappings)
	loadDefault(t, r)
	screen := r.engine.ActiveScreen()

	r.io.digital["lights"] = true
	r.frame()
	if got := r.style.ThemeName(); got != styles.ThemeNight {
		t.Fatalf("expected night theme, got %q", got)
	}
	if r.engine.ActiveScreen() != screen {
		t.Fatal("theme trigger must not reload the panel")
	}
	if got := r.panels.GetCurrentPanel(); got != panels.OemOilPanelName {
		t.Fatalf("theme trigger must not change panel, got %q", got)
	}

	r.io.digital["lights"] = false
	r.frame()
	if got := r.style.ThemeName(); got != styles.ThemeDay {
		t.Fatalf("expected preferred theme restored, got %q", got)
	}
}

func TestAmbientLightHysteresis(t *testing.T) {
	r := newTestRig(t, DefaultMappings)
	loadDefault(t, r)

	cfg := config.Default()
	threshold := int(cfg.LightThreshold)
	hyst := int(cfg.LightHysteresis)

	r.io.analog["light_level"] = uint16(threshold + 2*hyst)
	r.frame()
	if got := r.style.ThemeName(); got != styles.ThemeDay {
		t.Fatalf("bright ambient must keep day theme, got %q", got)
	}

	// Dipping into the hysteresis band must not flip the theme.
	r.io.analog["light_level"] = uint16(threshold - hyst/2)
	r.frame()
	if got := r.style.ThemeName(); got != styles.ThemeDay {
		t.Fatalf("band reading must not flip theme, got %q", got)
	}

	r.io.analog["light_level"] = uint16(threshold - 2*hyst)
	r.frame()
	if got := r.style.ThemeName(); got != styles.ThemeNight {
		t.Fatalf("dark ambient must switch to night, got %q", got)
	}

	// Climbing back into the band keeps night until the exit level.
	r.io.analog["light_level"] = uint16(threshold + hyst/2)
	r.frame()
	if got := r.style.ThemeName(); got != styles.ThemeNight {
		t.Fatalf("band reading must hold night theme, got %q", got)
	}

	r.io.analog["light_level"] = uint16(threshold + 2*hyst)
	r.frame()
	if got := r.style.ThemeName(); got != styles.ThemeDay {
		t.Fatalf("bright ambient must return to day, got %q", got)
	}
}
