package components

import (
	"cluster-service/internal/logger"
	"cluster-service/internal/styles"
)

// Core component roster.
const (
	OilPressureGauge    = "OilPressureGauge"
	OilTemperatureGauge = "OilTemperatureGauge"
	KeyIcon             = "KeyIcon"
	LockIcon            = "LockIcon"
	StatusReadout       = "StatusReadout"
)

type Deps struct {
	Style  *styles.Service
	Logger *logger.Logger
}

type Creator func(deps Deps) Component

type Factory struct {
	logger   *logger.Logger
	creators map[string]Creator
}

func NewFactory(log *logger.Logger) *Factory {
	return &Factory{
		logger:   log.WithTag("ComponentFactory"),
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

// Create returns a new component, or nil for an unknown name.
func (f *Factory) Create(name string, deps Deps) Component {
	creator, ok := f.creators[name]
	if !ok {
		f.logger.Warnf("Unknown component: %s", name)
		return nil
	}
	return creator(deps)
}

func (f *Factory) RegisterDefaults() {
	f.Register(OilPressureGauge, func(d Deps) Component {
		return NewArcGauge(d.Style, "OIL", "bar", 0, 10)
	})
	f.Register(OilTemperatureGauge, func(d Deps) Component {
		return NewArcGauge(d.Style, "TEMP", "C", -40, 150)
	})
	f.Register(KeyIcon, func(d Deps) Component {
		return NewIcon(d.Style, "key.png")
	})
	f.Register(LockIcon, func(d Deps) Component {
		return NewIcon(d.Style, "lock.png")
	})
	f.Register(StatusReadout, func(d Deps) Component {
		return NewReadout(d.Style, "")
	})
}
