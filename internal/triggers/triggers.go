// Package triggers turns GPIO and analog input changes into panel overrides
// and theme switches. Trigger-driven panel loads never move the restoration
// target; when the last override clears, the previous panel comes back.
package triggers

import (
	"fmt"

	"cluster-service/internal/config"
	"cluster-service/internal/hardware"
	"cluster-service/internal/logger"
	"cluster-service/internal/panels"
	"cluster-service/internal/prefs"
	"cluster-service/internal/styles"
)

// Priority orders concurrent overrides. Higher wins.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityImportant
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityImportant:
		return "important"
	default:
		return "normal"
	}
}

// Edge is the digital level that activates a trigger.
type Edge int

const (
	EdgeHigh Edge = iota
	EdgeLow
)

// Action is what an active trigger does.
type Action int

const (
	ActionLoadPanel Action = iota
	ActionChangeTheme
)

// Mapping binds one input channel to an action. For analog mappings the
// threshold plus hysteresis band decides activation; ActiveLow inverts the
// comparison so low readings activate.
type Mapping struct {
	ID       string
	Channel  string
	Edge     Edge
	Priority Priority
	Action   Action
	// Target is a panel name for ActionLoadPanel, a theme name for
	// ActionChangeTheme.
	Target string

	Analog     bool
	ActiveLow  bool
	Threshold  int
	Hysteresis int
}

type runtime struct {
	active bool
	seq    uint64
}

// Service polls the trigger inputs once per frame. All methods run on the
// UI thread.
type Service struct {
	logger   *logger.Logger
	io       hardware.IO
	panels   *panels.Service
	style    *styles.Service
	prefs    *prefs.Service
	mappings []Mapping

	state map[string]*runtime
	seq   uint64

	overrideApplied bool
}

func NewService(io hardware.IO, panelSvc *panels.Service, style *styles.Service, prefsSvc *prefs.Service, log *logger.Logger, mappings []Mapping) *Service {
	s := &Service{
		logger:   log.WithTag("Triggers"),
		io:       io,
		panels:   panelSvc,
		style:    style,
		prefs:    prefsSvc,
		mappings: mappings,
		state:    make(map[string]*runtime),
	}
	for _, m := range mappings {
		s.state[m.ID] = &runtime{}
	}
	return s
}

// DefaultMappings is the reference board's trigger table.
func DefaultMappings(cfg *config.Config) []Mapping {
	return []Mapping{
		// The key status panel is driven from both key pins; when both are
		// high the later activation wins the seq tie-break.
		{
			ID:       "key_present",
			Channel:  "key_present",
			Edge:     EdgeHigh,
			Priority: PriorityCritical,
			Action:   ActionLoadPanel,
			Target:   panels.KeyPanelName,
		},
		{
			ID:       "key_absent",
			Channel:  "key_not_present",
			Edge:     EdgeHigh,
			Priority: PriorityCritical,
			Action:   ActionLoadPanel,
			Target:   panels.KeyPanelName,
		},
		{
			ID:       "locked",
			Channel:  "lock",
			Edge:     EdgeHigh,
			Priority: PriorityImportant,
			Action:   ActionLoadPanel,
			Target:   panels.LockPanelName,
		},
		{
			ID:       "lights_on",
			Channel:  "lights",
			Edge:     EdgeHigh,
			Priority: PriorityNormal,
			Action:   ActionChangeTheme,
			Target:   styles.ThemeNight,
		},
		{
			ID:         "ambient_dark",
			Channel:    "light_level",
			Priority:   PriorityNormal,
			Action:     ActionChangeTheme,
			Target:     styles.ThemeNight,
			Analog:     true,
			ActiveLow:  true,
			Threshold:  int(cfg.LightThreshold),
			Hysteresis: int(cfg.LightHysteresis),
		},
	}
}

// Init configures the input pins, seeds every trigger's level from the
// current hardware state and registers the panel targets. Triggers active
// at boot contribute a startup override instead of a panel load.
func (s *Service) Init() error {
	for _, m := range s.mappings {
		if !m.Analog {
			if err := s.io.PinMode(m.Channel, hardware.ModeInputPullDown); err != nil {
				return fmt.Errorf("trigger %s: %w", m.ID, err)
			}
		}
		if m.Action == ActionLoadPanel {
			s.panels.RegisterTriggerTarget(m.ID, m.Target)
		}
	}

	// Seed activation state without firing any action.
	for _, m := range s.mappings {
		rt := s.state[m.ID]
		active, err := s.evaluate(m, rt.active)
		if err != nil {
			s.logger.Warnf("Trigger %s: initial read failed: %v", m.ID, err)
			continue
		}
		if active {
			s.seq++
			rt.active = true
			rt.seq = s.seq
			s.logger.Infof("Trigger %s active at startup", m.ID)
		}
	}
	return nil
}

// evaluate reads the mapping's input and folds it through the hysteresis
// band for analog channels.
func (s *Service) evaluate(m Mapping, wasActive bool) (bool, error) {
	if !m.Analog {
		level, err := s.io.DigitalRead(m.Channel)
		if err != nil {
			return false, err
		}
		if m.Edge == EdgeLow {
			level = !level
		}
		return level, nil
	}

	raw, err := s.io.AnalogRead(m.Channel)
	if err != nil {
		return false, err
	}
	v := int(raw)
	enter, exit := m.Threshold-m.Hysteresis, m.Threshold+m.Hysteresis
	if !m.ActiveLow {
		enter, exit = m.Threshold+m.Hysteresis, m.Threshold-m.Hysteresis
		if wasActive {
			return v > exit, nil
		}
		return v >= enter, nil
	}
	if wasActive {
		return v < exit, nil
	}
	return v <= enter, nil
}

// GetStartupPanelOverride returns the panel demanded by the highest-ranked
// trigger already active at boot, or "" when none is.
func (s *Service) GetStartupPanelOverride() string {
	if m := s.winner(); m != nil {
		return m.Target
	}
	return ""
}

// ApplyStartupOverride loads the startup override panel, behind the splash
// flow like any boot panel, if one exists.
func (s *Service) ApplyStartupOverride() bool {
	m := s.winner()
	if m == nil {
		return false
	}
	s.logger.Infof("Startup override: trigger %s -> %s", m.ID, m.Target)
	s.overrideApplied = true
	s.panels.LoadStartupOverride(m.Target)
	return true
}

// winner is the active panel trigger with the highest (priority, activation
// order) rank. Between equal priorities the most recent activation wins.
func (s *Service) winner() *Mapping {
	var best *Mapping
	var bestSeq uint64
	for i := range s.mappings {
		m := &s.mappings[i]
		if m.Action != ActionLoadPanel {
			continue
		}
		rt := s.state[m.ID]
		if !rt.active {
			continue
		}
		if best == nil || m.Priority > best.Priority ||
			(m.Priority == best.Priority && rt.seq > bestSeq) {
			best = m
			bestSeq = rt.seq
		}
	}
	return best
}

// ProcessTriggerEvents runs once per frame: sample every input, apply theme
// transitions immediately, then reconcile the panel override. While a panel
// load is in flight the reconciliation is dropped; the next frame retries
// from the then-current input state, so a rapid toggle burst collapses into
// its final stable state.
func (s *Service) ProcessTriggerEvents() {
	for i := range s.mappings {
		m := &s.mappings[i]
		rt := s.state[m.ID]
		active, err := s.evaluate(*m, rt.active)
		if err != nil {
			// A failed read reports an inactive level; the service
			// keeps running.
			s.logger.Warnf("Trigger %s: read failed: %v", m.ID, err)
			active = false
		}
		if active == rt.active {
			continue
		}
		rt.active = active
		if active {
			s.seq++
			rt.seq = s.seq
			s.logger.Debugf("Trigger %s activated", m.ID)
		} else {
			s.logger.Debugf("Trigger %s deactivated", m.ID)
		}
		if m.Action == ActionChangeTheme {
			s.applyThemeTrigger(*m, active)
		}
	}

	if s.panels.UiState() == panels.StateLoading {
		return
	}
	// The splash dwell owns the display until its timer hands over.
	if s.panels.GetCurrentPanel() == panels.SplashPanelName {
		return
	}

	if m := s.winner(); m != nil {
		s.overrideApplied = true
		if s.panels.GetCurrentPanel() != m.Target {
			s.panels.TriggerPanelSwitchCallback(m.ID)
		}
		return
	}

	if s.overrideApplied {
		if s.panels.GetCurrentPanel() == s.panels.GetRestorationPanel() {
			s.overrideApplied = false
			return
		}
		s.panels.RestorePrevious()
	}
}

// applyThemeTrigger switches the theme on activation and falls back to the
// preferred theme on deactivation. Panels repaint in place; no reload.
func (s *Service) applyThemeTrigger(m Mapping, active bool) {
	if active {
		s.style.SetTheme(m.Target)
		return
	}
	// Another theme trigger may still hold the override.
	for i := range s.mappings {
		o := &s.mappings[i]
		if o.ID == m.ID || o.Action != ActionChangeTheme {
			continue
		}
		if s.state[o.ID].active {
			s.style.SetTheme(o.Target)
			return
		}
	}
	s.style.SetTheme(s.prefs.Get().Theme)
}
