package app

import (
	"context"
	"testing"
	"time"

	"cluster-service/internal/config"
	"cluster-service/internal/container"
	"cluster-service/internal/graphics"
	"cluster-service/internal/hardware"
	"cluster-service/internal/logger"
	"cluster-service/internal/messaging"
	"cluster-service/internal/panels"
	"cluster-service/internal/styles"
)

type mockIO struct {
	digital map[string]bool
	analog  map[string]uint16
	writes  map[string]bool
}

func newMockIO() *mockIO {
	return &mockIO{
		digital: make(map[string]bool),
		analog:  make(map[string]uint16),
		writes:  make(map[string]bool),
	}
}

func (m *mockIO) Initialize() error { return nil }
func (m *mockIO) Cleanup()          {}

func (m *mockIO) PinMode(channel string, mode hardware.PinMode) error { return nil }

func (m *mockIO) DigitalRead(channel string) (bool, error) {
	return m.digital[channel], nil
}

func (m *mockIO) DigitalWrite(channel string, value bool) error {
	m.writes[channel] = value
	return nil
}

func (m *mockIO) AnalogRead(channel string) (uint16, error) {
	return m.analog[channel], nil
}

type mockMessenger struct {
	blob      string
	callbacks messaging.Callbacks

	publishedPanels []string
	publishedThemes []string
	brightness      []int
	readings        map[string]string
	closed          bool
}

func newMockMessenger() *mockMessenger {
	return &mockMessenger{readings: make(map[string]string)}
}

func (m *mockMessenger) GetSettingsBlob() (string, error) { return m.blob, nil }
func (m *mockMessenger) SetSettingsBlob(b string) error   { m.blob = b; return nil }

func (m *mockMessenger) Connect() error { return nil }

func (m *mockMessenger) SetCallbacks(cb messaging.Callbacks) { m.callbacks = cb }

func (m *mockMessenger) StartListening() error { return nil }

func (m *mockMessenger) PublishPanelState(panel string) error {
	m.publishedPanels = append(m.publishedPanels, panel)
	return nil
}

func (m *mockMessenger) PublishThemeState(theme string) error {
	m.publishedThemes = append(m.publishedThemes, theme)
	return nil
}

func (m *mockMessenger) PublishBrightness(percent int) error {
	m.brightness = append(m.brightness, percent)
	return nil
}

func (m *mockMessenger) SetReading(name, value string) error {
	m.readings[name] = value
	return nil
}

func (m *mockMessenger) Close() error { m.closed = true; return nil }

type testRig struct {
	app       *App
	engine    *graphics.Engine
	io        *mockIO
	messenger *mockMessenger
	now       time.Time
}

func (r *testRig) frame(advance time.Duration) {
	r.now = r.now.Add(advance)
	r.app.Update()
}

func newTestRig(t *testing.T, prepare func(io *mockIO)) *testRig {
	t.Helper()
	baseLog := logger.NewLogger(nil, logger.LogLevelError)
	cfg := config.Default()

	r := &testRig{
		io:        newMockIO(),
		messenger: newMockMessenger(),
		now:       time.Unix(1000, 0),
	}
	// Bright ambient so the analog theme trigger is inactive unless a test
	// darkens it.
	r.io.analog["light_level"] = 60000
	if prepare != nil {
		prepare(r.io)
	}

	c := Bootstrap(cfg, baseLog)
	container.RegisterSingleton(c, func() hardware.IO { return hardware.IO(r.io) })
	container.RegisterSingleton(c, func() Messenger { return Messenger(r.messenger) })

	r.engine = container.MustResolve[*graphics.Engine](c)
	r.engine.SetClock(func() time.Time { return r.now })

	r.app = New(c)
	if err := r.app.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return r
}

func TestStartupShowsSplashThenDefault(t *testing.T) {
	r := newTestRig(t, nil)

	r.frame(time.Second)
	if got := r.app.panels.GetCurrentPanel(); got != panels.SplashPanelName {
		t.Fatalf("expected splash first, got %q", got)
	}

	// Splash dwell elapses, default panel loads.
	r.frame(2 * time.Second)
	r.frame(time.Second)

	if got := r.app.panels.GetCurrentPanel(); got != panels.OemOilPanelName {
		t.Fatalf("expected default panel after splash, got %q", got)
	}
	if got := r.app.panels.GetRestorationPanel(); got != panels.OemOilPanelName {
		t.Fatalf("expected restoration at default, got %q", got)
	}
}

func TestStartupOverrideReplacesDefaultBehindSplash(t *testing.T) {
	r := newTestRig(t, func(io *mockIO) {
		io.digital["key_not_present"] = true
	})

	r.frame(time.Second)
	if got := r.app.panels.GetCurrentPanel(); got != panels.SplashPanelName {
		t.Fatalf("expected splash first, got %q", got)
	}

	r.frame(2 * time.Second)
	r.frame(time.Second)
	if got := r.app.panels.GetCurrentPanel(); got != panels.KeyPanelName {
		t.Fatalf("expected boot-time override panel, got %q", got)
	}
	if got := r.app.panels.GetRestorationPanel(); got != panels.OemOilPanelName {
		t.Fatalf("override must not move restoration, got %q", got)
	}

	// Override clears: the preference default loads, without the splash.
	r.io.digital["key_not_present"] = false
	r.frame(time.Second)
	r.frame(time.Second)
	if got := r.app.panels.GetCurrentPanel(); got != panels.OemOilPanelName {
		t.Fatalf("expected default after override cleared, got %q", got)
	}
}

func TestKeyPresentAtBootDrivesKeyPanel(t *testing.T) {
	r := newTestRig(t, func(io *mockIO) {
		io.digital["key_present"] = true
	})

	r.frame(time.Second)
	if got := r.app.panels.GetCurrentPanel(); got != panels.SplashPanelName {
		t.Fatalf("expected splash first, got %q", got)
	}

	r.frame(2 * time.Second)
	r.frame(time.Second)
	if got := r.app.panels.GetCurrentPanel(); got != panels.KeyPanelName {
		t.Fatalf("expected key panel from key-present pin, got %q", got)
	}

	r.io.digital["key_present"] = false
	r.frame(time.Second)
	r.frame(time.Second)
	if got := r.app.panels.GetCurrentPanel(); got != panels.OemOilPanelName {
		t.Fatalf("expected default after key removed, got %q", got)
	}
}

func TestPanelCommandFromMessaging(t *testing.T) {
	r := newTestRig(t, nil)
	r.frame(time.Second)
	r.frame(2 * time.Second)
	r.frame(time.Second)

	// Command arrives on a listener goroutine; it must only take effect on
	// the next frame.
	if err := r.messenger.callbacks.PanelCallback(panels.ConfigPanelName); err != nil {
		t.Fatalf("panel callback: %v", err)
	}
	if got := r.app.panels.GetCurrentPanel(); got != panels.OemOilPanelName {
		t.Fatalf("command applied before frame, current %q", got)
	}

	r.frame(time.Second)
	r.frame(time.Second)
	if got := r.app.panels.GetCurrentPanel(); got != panels.ConfigPanelName {
		t.Fatalf("expected config panel after command, got %q", got)
	}
	// A regular load moves the restoration target.
	if got := r.app.panels.GetRestorationPanel(); got != panels.ConfigPanelName {
		t.Fatalf("expected restoration moved, got %q", got)
	}
}

func TestThemeCommandPublishesState(t *testing.T) {
	r := newTestRig(t, nil)
	r.frame(time.Second)
	r.frame(2 * time.Second)
	r.frame(time.Second)

	if err := r.messenger.callbacks.ThemeCallback(styles.ThemeNight); err != nil {
		t.Fatalf("theme callback: %v", err)
	}
	r.frame(time.Second)

	if got := r.app.style.ThemeName(); got != styles.ThemeNight {
		t.Fatalf("expected night theme, got %q", got)
	}
	if len(r.messenger.publishedThemes) == 0 ||
		r.messenger.publishedThemes[len(r.messenger.publishedThemes)-1] != styles.ThemeNight {
		t.Fatalf("expected theme state published, got %v", r.messenger.publishedThemes)
	}
}

func TestBrightnessCommandDrivesBacklight(t *testing.T) {
	r := newTestRig(t, nil)

	if err := r.messenger.callbacks.BrightnessCallback(0); err != nil {
		t.Fatalf("brightness callback: %v", err)
	}
	r.frame(time.Second)

	if r.io.writes["backlight_enable"] {
		t.Fatal("expected backlight disabled at zero brightness")
	}
	if n := len(r.messenger.brightness); n == 0 || r.messenger.brightness[n-1] != 0 {
		t.Fatalf("expected brightness published, got %v", r.messenger.brightness)
	}
}

func TestTriggerOverrideEndToEnd(t *testing.T) {
	r := newTestRig(t, nil)
	r.frame(time.Second)
	r.frame(2 * time.Second)
	r.frame(time.Second)

	r.io.digital["lock"] = true
	r.frame(time.Second)
	r.frame(time.Second)
	if got := r.app.panels.GetCurrentPanel(); got != panels.LockPanelName {
		t.Fatalf("expected lock override, got %q", got)
	}
	if n := len(r.messenger.publishedPanels); n == 0 ||
		r.messenger.publishedPanels[n-1] != panels.LockPanelName {
		t.Fatalf("expected lock panel state published, got %v", r.messenger.publishedPanels)
	}

	r.io.digital["lock"] = false
	r.frame(time.Second)
	r.frame(time.Second)
	if got := r.app.panels.GetCurrentPanel(); got != panels.OemOilPanelName {
		t.Fatalf("expected restoration to default, got %q", got)
	}
}

func TestTelemetryPublished(t *testing.T) {
	r := newTestRig(t, func(io *mockIO) {
		io.analog["oil_pressure"] = 4
	})

	r.frame(time.Second)

	if _, ok := r.messenger.readings["oil_pressure"]; !ok {
		t.Fatalf("expected oil pressure telemetry, got %v", r.messenger.readings)
	}
	if _, ok := r.messenger.readings["oil_temperature"]; !ok {
		t.Fatalf("expected oil temperature telemetry, got %v", r.messenger.readings)
	}
}

func TestShutdownTearsDown(t *testing.T) {
	r := newTestRig(t, nil)
	r.frame(time.Second)

	r.app.Shutdown()

	if !r.messenger.closed {
		t.Fatal("expected messenger closed")
	}
	if r.io.writes["backlight_enable"] {
		t.Fatal("expected backlight disabled on shutdown")
	}
	if got := r.app.panels.GetCurrentPanel(); got != "" {
		t.Fatalf("expected no current panel after shutdown, got %q", got)
	}
}
