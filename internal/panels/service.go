package panels

import (
	"context"
	"sync"
	"time"

	"github.com/librescoot/librefsm"

	"cluster-service/internal/graphics"
	"cluster-service/internal/hardware"
	"cluster-service/internal/logger"
)

// StatePublisher pushes the current panel name to external observers.
type StatePublisher interface {
	PublishPanelState(panel string) error
}

// Service orchestrates the panel lifecycle. Exactly one panel is current at
// any instant after initialization; at most one load is in flight, and load
// requests arriving while one is in flight are dropped.
//
// All methods except the FSM timeout action must be called from the UI
// thread.
type Service struct {
	logger  *logger.Logger
	engine  *graphics.Engine
	io      hardware.IO
	factory *Factory
	deps    Deps

	loadTimeout time.Duration
	machine     *librefsm.Machine
	publisher   StatePublisher

	mu             sync.Mutex
	current        Panel
	currentName    string
	restoration    string
	pending        Panel
	pendingName    string
	pendingDone    func()
	pendingTrigger bool
	abandoned      []Panel

	lastTheme      string
	triggerTargets map[string]string
}

func NewService(engine *graphics.Engine, io hardware.IO, factory *Factory, deps Deps, loadTimeout time.Duration) *Service {
	return &Service{
		logger:         deps.Logger.WithTag("Panels"),
		engine:         engine,
		io:             io,
		factory:        factory,
		deps:           deps,
		loadTimeout:    loadTimeout,
		triggerTargets: make(map[string]string),
	}
}

// SetStatePublisher wires an external panel-state sink. Optional.
func (s *Service) SetStatePublisher(p StatePublisher) { s.publisher = p }

// Init builds and starts the lifecycle machine and seeds the restoration
// target from the preferred default panel.
func (s *Service) Init(ctx context.Context) error {
	def := NewUiDefinition(s.loadTimeout, s)
	machine, err := def.Build()
	if err != nil {
		return err
	}
	s.machine = machine

	s.machine.OnStateChange(func(from, to librefsm.StateID) {
		s.logger.Debugf("UI state: %s -> %s", from, to)
	})

	if err := s.machine.Start(ctx); err != nil {
		return err
	}

	s.lastTheme = s.deps.Style.ThemeName()
	s.mu.Lock()
	s.restoration = s.deps.Prefs.Get().DefaultPanel
	s.mu.Unlock()
	return nil
}

// OnLoadTimeout abandons a load whose completion callback never fired. Runs
// on the machine goroutine; graphics teardown is deferred to the UI thread.
func (s *Service) OnLoadTimeout(c *librefsm.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	s.logger.Warnf("Panel %s load timed out, abandoning", s.pendingName)
	s.abandoned = append(s.abandoned, s.pending)
	s.pending = nil
	s.pendingDone = nil
	return nil
}

// UiState reports the lifecycle state.
func (s *Service) UiState() librefsm.StateID {
	if s.machine == nil {
		return StateIdle
	}
	return s.machine.CurrentState()
}

// SetUiState forces the lifecycle state. Informational override; it does not
// cancel an in-flight load's callback bookkeeping.
func (s *Service) SetUiState(state librefsm.StateID) {
	if s.machine == nil {
		return
	}
	if err := s.machine.SetState(state); err != nil {
		s.logger.Warnf("Failed to set UI state %s: %v", state, err)
	}
}

func (s *Service) GetCurrentPanel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentName
}

// GetRestorationPanel is the panel to return to once all trigger overrides
// clear. Only non-trigger loads move it.
func (s *Service) GetRestorationPanel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.restoration == "" {
		return s.deps.Prefs.Get().DefaultPanel
	}
	return s.restoration
}

// CreateAndLoadPanel creates the named panel and makes it current when its
// load completes. While a load is in flight, further requests are dropped.
// A request naming the already-current panel is absorbed without a reload,
// but its completion and restoration bookkeeping still run.
func (s *Service) CreateAndLoadPanel(name string, onDone func(), triggerDriven bool) {
	if s.UiState() == StateLoading {
		s.logger.Debugf("Dropping load of %s: another load in flight", name)
		return
	}

	s.mu.Lock()
	if name == s.currentName && s.current != nil {
		if !triggerDriven {
			s.restoration = name
		}
		s.mu.Unlock()
		if onDone != nil {
			onDone()
		}
		return
	}
	s.mu.Unlock()

	panel := s.factory.Create(name, s.deps)
	if panel == nil {
		return
	}

	if err := s.machine.SendSync(librefsm.Event{ID: EvLoadStarted}); err != nil {
		s.logger.Warnf("Failed to enter loading state for %s: %v", name, err)
		return
	}

	if err := panel.Init(s.io, s.engine); err != nil {
		s.logger.Errorf("Panel %s init failed: %v", name, err)
		panel = s.errorFallback(name)
		if panel == nil {
			if err := s.machine.SendSync(librefsm.Event{ID: EvLoadAborted}); err != nil {
				s.logger.Warnf("Failed to abort load: %v", err)
			}
			return
		}
		name = ErrorPanelName
	}

	s.mu.Lock()
	s.pending = panel
	s.pendingName = name
	s.pendingDone = onDone
	s.pendingTrigger = triggerDriven
	s.mu.Unlock()

	captured := panel
	panel.Load(func() { s.finishLoad(captured) }, s.io, s.engine)
}

func (s *Service) errorFallback(failed string) Panel {
	if failed == ErrorPanelName {
		return nil
	}
	fallback := s.factory.Create(ErrorPanelName, s.deps)
	if fallback == nil {
		return nil
	}
	if ep, ok := fallback.(*ErrorPanel); ok {
		ep.SetMessage("PANEL FAILED: " + failed)
	}
	if err := fallback.Init(s.io, s.engine); err != nil {
		s.logger.Errorf("Error panel init failed: %v", err)
		return nil
	}
	return fallback
}

// finishLoad runs on the UI thread, from the panel's completion callback.
// The old panel is destroyed only after the new one is fully loaded.
func (s *Service) finishLoad(p Panel) {
	s.mu.Lock()
	if s.pending != p {
		// Abandoned by the watchdog, or superseded. The callback fires
		// exactly once either way; there is nothing left to commit.
		s.mu.Unlock()
		return
	}
	old := s.current
	s.current = p
	s.currentName = s.pendingName
	if !s.pendingTrigger {
		s.restoration = s.pendingName
	}
	done := s.pendingDone
	s.pending = nil
	s.pendingName = ""
	s.pendingDone = nil
	name := s.currentName
	s.mu.Unlock()

	s.engine.LoadScreen(p.Screen())
	if old != nil {
		old.Destroy(s.engine)
	}

	if err := s.machine.SendSync(librefsm.Event{ID: EvLoadDone}); err != nil {
		s.logger.Warnf("Failed to leave loading state: %v", err)
	}

	s.logger.Infof("Panel loaded: %s", name)
	if s.publisher != nil {
		if err := s.publisher.PublishPanelState(name); err != nil {
			s.logger.Warnf("Failed to publish panel state: %v", err)
		}
	}

	if done != nil {
		done()
	}
}

// CreateAndLoadPanelWithSplash loads the splash panel first when the splash
// preference allows it, then the target once the splash dwell elapses. A
// "once" iteration is downgraded to "disabled" before the target loads.
func (s *Service) CreateAndLoadPanelWithSplash(target string) {
	s.loadWithSplash(target, false)
}

// LoadStartupOverride shows a trigger-demanded boot panel behind the splash
// flow without moving the restoration target.
func (s *Service) LoadStartupOverride(target string) {
	s.loadWithSplash(target, true)
}

func (s *Service) loadWithSplash(target string, triggerDriven bool) {
	cfg := s.deps.Prefs.Get()
	iter := IterationFromString(cfg.SplashIteration)
	if !cfg.SplashEnabled || iter == IterationDisabled || !s.factory.Has(SplashPanelName) {
		s.CreateAndLoadPanel(target, nil, triggerDriven)
		return
	}

	dwell := time.Duration(cfg.SplashDuration) * time.Millisecond
	s.CreateAndLoadPanel(SplashPanelName, func() {
		s.engine.StartTimer(dwell, s, func() {
			if iter == IterationOnce {
				if err := s.deps.Prefs.SetSplashIteration(IterationDisabled.String()); err != nil {
					s.logger.Warnf("Failed to persist splash iteration: %v", err)
				}
			}
			s.CreateAndLoadPanel(target, nil, triggerDriven)
		})
	}, true)
}

// UpdatePanel runs one frame of panel maintenance: reap abandoned loads,
// propagate a theme change, then tick the current panel's update cycle.
func (s *Service) UpdatePanel() {
	s.reapAbandoned()

	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()
	if cur == nil {
		return
	}

	if theme := s.deps.Style.ThemeName(); theme != s.lastTheme {
		s.lastTheme = theme
		if ta, ok := cur.(ThemeAware); ok {
			ta.OnThemeChanged(theme)
		}
	}

	if s.UiState() != StateIdle {
		return
	}
	if err := s.machine.SendSync(librefsm.Event{ID: EvUpdateStarted}); err != nil {
		s.logger.Warnf("Failed to enter updating state: %v", err)
		return
	}
	cur.Update(func() {
		if s.machine.CurrentState() == StateUpdating {
			if err := s.machine.SendSync(librefsm.Event{ID: EvUpdateDone}); err != nil {
				s.logger.Warnf("Failed to leave updating state: %v", err)
			}
		}
	}, s.io, s.engine)
}

func (s *Service) reapAbandoned() {
	s.mu.Lock()
	stale := s.abandoned
	s.abandoned = nil
	s.mu.Unlock()
	for _, p := range stale {
		p.Destroy(s.engine)
	}
}

// RegisterTriggerTarget associates a trigger identifier with the panel it
// loads.
func (s *Service) RegisterTriggerTarget(triggerID, panel string) {
	s.triggerTargets[triggerID] = panel
}

// TriggerPanelSwitchCallback loads the panel registered for the trigger.
// Trigger-driven loads never move the restoration target.
func (s *Service) TriggerPanelSwitchCallback(triggerID string) {
	target, ok := s.triggerTargets[triggerID]
	if !ok {
		s.logger.Warnf("No panel registered for trigger %s", triggerID)
		return
	}
	s.CreateAndLoadPanel(target, nil, true)
}

// RestorePrevious returns to the restoration target, typically after the
// last trigger override clears. The restoration load is a regular load; it
// re-commits the target as its own restoration panel.
func (s *Service) RestorePrevious() {
	s.CreateAndLoadPanel(s.GetRestorationPanel(), nil, false)
}

// OnShortPress forwards button input to the current panel when it accepts
// input.
func (s *Service) OnShortPress() {
	if h, ok := s.inputHandler(); ok {
		h.OnShortPress()
	}
}

func (s *Service) OnLongPress() {
	if h, ok := s.inputHandler(); ok {
		h.OnLongPress()
	}
}

func (s *Service) inputHandler() (InputHandler, bool) {
	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()
	h, ok := cur.(InputHandler)
	if !ok || !h.CanProcessInput() {
		return nil, false
	}
	return h, true
}

// DestroyCurrent tears down the current panel and any load still in flight.
// Shutdown path.
func (s *Service) DestroyCurrent() {
	s.mu.Lock()
	if s.pending != nil {
		s.abandoned = append(s.abandoned, s.pending)
		s.pending = nil
		s.pendingDone = nil
	}
	s.mu.Unlock()

	s.reapAbandoned()
	s.engine.CancelOwned(s)
	s.mu.Lock()
	cur := s.current
	s.current = nil
	s.currentName = ""
	s.mu.Unlock()
	if cur != nil {
		cur.Destroy(s.engine)
	}
}
