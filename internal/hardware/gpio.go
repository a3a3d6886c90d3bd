package hardware

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"cluster-service/internal/config"
	"cluster-service/internal/logger"
)

type PinMode int

const (
	ModeInput PinMode = iota
	ModeInputPullDown
	ModeInputPullUp
	ModeOutput
)

// IO is the GPIO/ADC abstraction consumed by the trigger service and the
// sensors. Channels are logical names resolved through the deployment
// configuration.
type IO interface {
	Initialize() error
	Cleanup()

	PinMode(channel string, mode PinMode) error
	DigitalRead(channel string) (bool, error)
	DigitalWrite(channel string, value bool) error
	AnalogRead(channel string) (uint16, error)
}

// LinuxIO drives GPIO lines through the character device and analog channels
// through sysfs IIO. Inputs wired to the gpio-keys device are read from the
// kernel's key-state cache instead of a requested line; the device tree owns
// those lines and requesting them again would fail with EBUSY.
type LinuxIO struct {
	logger *logger.Logger
	cfg    *config.Config

	chips map[int]*gpiocdev.Chip
	lines map[string]*gpiocdev.Line
	keys  *keyReader

	mu sync.RWMutex
}

func NewLinuxIO(cfg *config.Config, log *logger.Logger) *LinuxIO {
	return &LinuxIO{
		logger: log.WithTag("HardwareIO"),
		cfg:    cfg,
		chips:  make(map[int]*gpiocdev.Chip),
		lines:  make(map[string]*gpiocdev.Line),
	}
}

func (io *LinuxIO) Initialize() error {
	io.logger.Infof("Initializing hardware IO")

	needKeys := false
	for _, pin := range io.cfg.Inputs {
		if pin.Keycode != 0 {
			needKeys = true
			break
		}
	}
	if needKeys {
		keys, err := newKeyReader(io.cfg.InputDevice, io.logger)
		if err != nil {
			// Fall back to direct line access; reads of key-backed
			// channels will report inactive.
			io.logger.Warnf("Input device unavailable: %v", err)
		} else {
			io.keys = keys
		}
	}

	return nil
}

func (io *LinuxIO) chip(num int) (*gpiocdev.Chip, error) {
	if chip, ok := io.chips[num]; ok {
		return chip, nil
	}
	chip, err := gpiocdev.NewChip(fmt.Sprintf("gpiochip%d", num))
	if err != nil {
		return nil, fmt.Errorf("failed to open GPIO chip %d: %w", num, err)
	}
	io.chips[num] = chip
	return chip, nil
}

// PinMode requests the line backing channel with the given mode. Channels
// served by the gpio-keys device need no line request and are accepted as-is.
func (io *LinuxIO) PinMode(channel string, mode PinMode) error {
	io.mu.Lock()
	defer io.mu.Unlock()

	if _, ok := io.lines[channel]; ok {
		return nil
	}

	var pin config.PinConfig
	var ok bool
	if mode == ModeOutput {
		pin, ok = io.cfg.Outputs[channel]
	} else {
		pin, ok = io.cfg.Inputs[channel]
	}
	if !ok {
		return fmt.Errorf("unknown channel: %s", channel)
	}
	if mode != ModeOutput && pin.Keycode != 0 {
		return nil
	}

	chip, err := io.chip(pin.Chip)
	if err != nil {
		return err
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.WithConsumer("cluster-service")}
	switch mode {
	case ModeInput:
		opts = append(opts, gpiocdev.AsInput)
	case ModeInputPullDown:
		opts = append(opts, gpiocdev.AsInput, gpiocdev.WithPullDown)
	case ModeInputPullUp:
		opts = append(opts, gpiocdev.AsInput, gpiocdev.WithPullUp)
	case ModeOutput:
		opts = append(opts, gpiocdev.AsOutput(0))
	}

	line, err := chip.RequestLine(pin.Line, opts...)
	if err != nil {
		return fmt.Errorf("failed to request GPIO line %d on chip %d: %w", pin.Line, pin.Chip, err)
	}
	io.lines[channel] = line
	io.logger.Debugf("Configured channel %s: chip=%d, line=%d, mode=%d", channel, pin.Chip, pin.Line, mode)
	return nil
}

// DigitalRead returns the current level of channel. Failures degrade to an
// inactive level with an error so callers can keep polling.
func (io *LinuxIO) DigitalRead(channel string) (bool, error) {
	io.mu.RLock()
	line, hasLine := io.lines[channel]
	keys := io.keys
	io.mu.RUnlock()

	if hasLine {
		v, err := line.Value()
		if err != nil {
			return false, fmt.Errorf("failed to read %s: %w", channel, err)
		}
		return v != 0, nil
	}

	if pin, ok := io.cfg.Inputs[channel]; ok && pin.Keycode != 0 {
		if keys == nil {
			return false, fmt.Errorf("input device not available for %s", channel)
		}
		return keys.isActive(pin.Keycode), nil
	}

	return false, fmt.Errorf("unknown input channel: %s", channel)
}

func (io *LinuxIO) DigitalWrite(channel string, value bool) error {
	io.mu.RLock()
	line, ok := io.lines[channel]
	io.mu.RUnlock()

	if !ok {
		return fmt.Errorf("unknown output channel: %s", channel)
	}

	val := 0
	if value {
		val = 1
	}
	if err := line.SetValue(val); err != nil {
		return fmt.Errorf("failed to set %s=%v: %w", channel, value, err)
	}
	io.logger.Debugf("Set %s=%v", channel, value)
	return nil
}

// AnalogRead reads the configured IIO channel, clamped to 16 bits.
func (io *LinuxIO) AnalogRead(channel string) (uint16, error) {
	adc, ok := io.cfg.Adc[channel]
	if !ok {
		return 0, fmt.Errorf("unknown analog channel: %s", channel)
	}
	raw, err := readAdcValue(adc.Device, adc.Channel)
	if err != nil {
		return 0, err
	}
	if raw < 0 {
		raw = 0
	}
	if raw > 0xFFFF {
		raw = 0xFFFF
	}
	return uint16(raw), nil
}

func (io *LinuxIO) Cleanup() {
	io.mu.Lock()
	defer io.mu.Unlock()

	io.logger.Infof("Cleaning up hardware resources")

	if io.keys != nil {
		io.keys.close()
		io.keys = nil
	}
	for name, line := range io.lines {
		line.Close()
		io.logger.Debugf("Closed GPIO line for %s", name)
	}
	io.lines = make(map[string]*gpiocdev.Line)
	for id, chip := range io.chips {
		chip.Close()
		io.logger.Debugf("Closed GPIO chip %d", id)
	}
	io.chips = make(map[int]*gpiocdev.Chip)
}
