// Package prefs persists user preferences across reboots as a single
// namespaced blob in the settings hash. The configuration panel is the only
// runtime writer; everything else consumes the record read-only.
package prefs

import (
	"encoding/json"
	"fmt"
	"sync"

	"cluster-service/internal/logger"
)

// Store is the namespaced key/value backend. The production implementation
// is messaging.RedisClient.
type Store interface {
	GetSettingsBlob() (string, error)
	SetSettingsBlob(blob string) error
}

// SensorCalibration adjusts one sensor's raw reading.
type SensorCalibration struct {
	Unit   string  `json:"unit"`
	Offset float64 `json:"offset"`
	Scale  float64 `json:"scale"`
}

// Config is the flat preference record.
type Config struct {
	DefaultPanel    string `json:"default_panel"`
	Theme           string `json:"theme"`
	SplashEnabled   bool   `json:"splash_enabled"`
	SplashDuration  int    `json:"splash_duration_ms"`
	SplashIteration string `json:"splash_iteration"`

	// GaugeUpdateRates is milliseconds between sensor polls per gauge.
	GaugeUpdateRates map[string]int `json:"gauge_update_ms"`

	Sensors map[string]SensorCalibration `json:"sensors"`
}

func DefaultConfig() Config {
	return Config{
		DefaultPanel:    "OemOilPanel",
		Theme:           "Day",
		SplashEnabled:   true,
		SplashDuration:  2000,
		SplashIteration: "infinite",
		GaugeUpdateRates: map[string]int{
			"oil_pressure":    250,
			"oil_temperature": 500,
		},
		Sensors: map[string]SensorCalibration{
			"oil_pressure":    {Unit: "bar", Offset: 0, Scale: 1},
			"oil_temperature": {Unit: "C", Offset: -40, Scale: 0.25},
		},
	}
}

type Service struct {
	logger *logger.Logger
	store  Store

	mu  sync.RWMutex
	cfg Config
}

func NewService(store Store, log *logger.Logger) *Service {
	return &Service{
		logger: log.WithTag("Prefs"),
		store:  store,
		cfg:    DefaultConfig(),
	}
}

// Load reads the blob from the backend. A missing or corrupted blob falls
// back to defaults and writes them back so the next boot starts clean.
func (s *Service) Load() error {
	blob, err := s.store.GetSettingsBlob()
	if err != nil {
		return fmt.Errorf("failed to load preferences: %w", err)
	}

	if blob == "" {
		s.logger.Infof("No stored preferences, writing defaults")
		return s.Save(DefaultConfig())
	}

	var cfg Config
	if err := json.Unmarshal([]byte(blob), &cfg); err != nil {
		s.logger.Warnf("Corrupted preference blob, restoring defaults: %v", err)
		return s.Save(DefaultConfig())
	}

	s.normalize(&cfg)
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	s.logger.Infof("Loaded preferences: default panel %s, theme %s", cfg.DefaultPanel, cfg.Theme)
	return nil
}

// normalize fills holes left by older blobs so consumers never see zero
// values where a default exists.
func (s *Service) normalize(cfg *Config) {
	def := DefaultConfig()
	if cfg.DefaultPanel == "" {
		cfg.DefaultPanel = def.DefaultPanel
	}
	if cfg.Theme == "" {
		cfg.Theme = def.Theme
	}
	if cfg.SplashDuration <= 0 {
		cfg.SplashDuration = def.SplashDuration
	}
	if cfg.SplashIteration == "" {
		cfg.SplashIteration = def.SplashIteration
	}
	if cfg.GaugeUpdateRates == nil {
		cfg.GaugeUpdateRates = def.GaugeUpdateRates
	}
	if cfg.Sensors == nil {
		cfg.Sensors = def.Sensors
	}
}

// Save persists cfg and makes it current.
func (s *Service) Save(cfg Config) error {
	s.normalize(&cfg)
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	if err := s.store.SetSettingsBlob(string(data)); err != nil {
		return fmt.Errorf("failed to store preferences: %w", err)
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the current configuration.
func (s *Service) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// GaugeUpdateRate returns the poll interval for gauge in milliseconds.
func (s *Service) GaugeUpdateRate(gauge string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ms, ok := s.cfg.GaugeUpdateRates[gauge]; ok && ms > 0 {
		return ms
	}
	return 250
}

// Calibration returns the calibration record for sensor, identity if none.
func (s *Service) Calibration(sensor string) SensorCalibration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cal, ok := s.cfg.Sensors[sensor]; ok {
		if cal.Scale == 0 {
			cal.Scale = 1
		}
		return cal
	}
	return SensorCalibration{Scale: 1}
}

// SetSplashIteration persists the splash iteration tag. The splash panel
// flips Once to Disabled after its first showing.
func (s *Service) SetSplashIteration(iteration string) error {
	cfg := s.Get()
	cfg.SplashIteration = iteration
	return s.Save(cfg)
}
