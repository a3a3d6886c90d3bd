// Package sensors provides the polled input sources feeding gauge
// components. Sensors never touch graphics; they only yield Readings.
package sensors

import (
	"cluster-service/internal/hardware"
	"cluster-service/internal/logger"
	"cluster-service/internal/prefs"
)

type Sensor interface {
	Init() error
	GetReading() Reading
}

// AnalogSensor reads a raw ADC channel and applies the preference
// calibration (offset, scale) before clamping to its declared range.
// Out-of-range and failed reads clamp instead of propagating.
type AnalogSensor struct {
	logger   *logger.Logger
	io       hardware.IO
	prefs    *prefs.Service
	channel  string
	min, max float64
}

func NewAnalogSensor(io hardware.IO, p *prefs.Service, log *logger.Logger, channel string, min, max float64) *AnalogSensor {
	return &AnalogSensor{
		logger:  log.WithTag("Sensor:" + channel),
		io:      io,
		prefs:   p,
		channel: channel,
		min:     min,
		max:     max,
	}
}

func (s *AnalogSensor) Init() error { return nil }

func (s *AnalogSensor) GetReading() Reading {
	raw, err := s.io.AnalogRead(s.channel)
	if err != nil {
		s.logger.Debugf("Analog read failed, clamping to minimum: %v", err)
		return FloatReading(s.min)
	}

	cal := s.prefs.Calibration(s.channel)
	v := float64(raw)*cal.Scale + cal.Offset
	if v < s.min {
		v = s.min
	}
	if v > s.max {
		v = s.max
	}
	return FloatReading(v)
}

// DigitalSensor reads a discrete input level. Read failures report inactive.
type DigitalSensor struct {
	logger  *logger.Logger
	io      hardware.IO
	channel string
}

func NewDigitalSensor(io hardware.IO, log *logger.Logger, channel string) *DigitalSensor {
	return &DigitalSensor{
		logger:  log.WithTag("Sensor:" + channel),
		io:      io,
		channel: channel,
	}
}

func (s *DigitalSensor) Init() error {
	return s.io.PinMode(s.channel, hardware.ModeInputPullDown)
}

func (s *DigitalSensor) GetReading() Reading {
	v, err := s.io.DigitalRead(s.channel)
	if err != nil {
		s.logger.Debugf("Digital read failed, reporting inactive: %v", err)
		return BoolReading(false)
	}
	return BoolReading(v)
}
