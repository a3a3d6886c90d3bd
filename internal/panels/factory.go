package panels

import (
	"cluster-service/internal/logger"
)

type Creator func(deps Deps) Panel

// Factory creates panels by name. Unknown names yield nil plus a warning,
// never a panic: a bad panel name over the wire must not take the UI down.
type Factory struct {
	logger   *logger.Logger
	creators map[string]Creator
}

func NewFactory(log *logger.Logger) *Factory {
	return &Factory{
		logger:   log.WithTag("PanelFactory"),
		creators: make(map[string]Creator),
	}
}

func (f *Factory) Register(name string, creator Creator) {
	f.creators[name] = creator
}

func (f *Factory) Has(name string) bool {
	_, ok := f.creators[name]
	return ok
}

func (f *Factory) Create(name string, deps Deps) Panel {
	creator, ok := f.creators[name]
	if !ok {
		f.logger.Warnf("Unknown panel: %s", name)
		return nil
	}
	return creator(deps)
}

func (f *Factory) RegisterDefaults() {
	f.Register(SplashPanelName, func(d Deps) Panel { return NewSplashPanel(d) })
	f.Register(OemOilPanelName, func(d Deps) Panel { return NewOemOilPanel(d) })
	f.Register(KeyPanelName, func(d Deps) Panel { return NewKeyPanel(d) })
	f.Register(LockPanelName, func(d Deps) Panel { return NewLockPanel(d) })
	f.Register(ConfigPanelName, func(d Deps) Panel { return NewConfigPanel(d) })
	f.Register(ErrorPanelName, func(d Deps) Panel { return NewErrorPanel(d) })
}
