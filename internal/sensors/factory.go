package sensors

import (
	"cluster-service/internal/hardware"
	"cluster-service/internal/logger"
	"cluster-service/internal/prefs"
)

// Core sensor roster.
const (
	OilPressureSensor    = "OilPressureSensor"
	OilTemperatureSensor = "OilTemperatureSensor"
	LightLevelSensor     = "LightLevelSensor"
	KeyPresentSensor     = "KeyPresentSensor"
	LockSensor           = "LockSensor"
)

// Deps are the construction-time dependencies injected into every creator.
type Deps struct {
	IO     hardware.IO
	Prefs  *prefs.Service
	Logger *logger.Logger
}

type Creator func(deps Deps) Sensor

// Factory creates sensors by name. Registration happens once at bootstrap;
// the factory is immutable afterwards in production.
type Factory struct {
	logger   *logger.Logger
	creators map[string]Creator
}

func NewFactory(log *logger.Logger) *Factory {
	return &Factory{
		logger:   log.WithTag("SensorFactory"),
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

// Create returns a new sensor, or nil for an unknown name.
func (f *Factory) Create(name string, deps Deps) Sensor {
	creator, ok := f.creators[name]
	if !ok {
		f.logger.Warnf("Unknown sensor: %s", name)
		return nil
	}
	return creator(deps)
}

// RegisterDefaults installs the core roster.
func (f *Factory) RegisterDefaults() {
	f.Register(OilPressureSensor, func(d Deps) Sensor {
		return NewAnalogSensor(d.IO, d.Prefs, d.Logger, "oil_pressure", 0, 10)
	})
	f.Register(OilTemperatureSensor, func(d Deps) Sensor {
		return NewAnalogSensor(d.IO, d.Prefs, d.Logger, "oil_temperature", -40, 150)
	})
	f.Register(LightLevelSensor, func(d Deps) Sensor {
		return NewAnalogSensor(d.IO, d.Prefs, d.Logger, "light_level", 0, 65535)
	})
	f.Register(KeyPresentSensor, func(d Deps) Sensor {
		return NewDigitalSensor(d.IO, d.Logger, "key_present")
	})
	f.Register(LockSensor, func(d Deps) Sensor {
		return NewDigitalSensor(d.IO, d.Logger, "lock")
	})
}
