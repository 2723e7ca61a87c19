package indicator

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"go.uber.org/zap"
)

// GPIOIndicators drives one periph.io output pin per logical LED name.
// Hardware PWM duty cycling is not uniformly available across periph's
// supported boards, so sustained/blinking LEDs are driven by toggling
// gpio.PinOut directly from the caller's own blink-phase ticker rather
// than a hardware PWM channel — this supersedes
// original_source/Looper.py's RPi.GPIO.PWM usage.
type GPIOIndicators struct {
	log  *zap.Logger
	pins map[string]gpio.PinOut
}

// NewGPIOIndicators initializes periph's host drivers and opens the
// pins named in pinsByName (logical LED name -> GPIO pin name).
func NewGPIOIndicators(log *zap.Logger, pinsByName map[string]string) (*GPIOIndicators, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initialize periph host: %w", err)
	}

	ind := &GPIOIndicators{log: log, pins: make(map[string]gpio.PinOut, len(pinsByName))}
	for name, pinName := range pinsByName {
		pin := gpioreg.ByName(pinName)
		if pin == nil {
			return nil, fmt.Errorf("GPIO pin %q not found for LED %q", pinName, name)
		}
		if err := pin.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("configure GPIO pin %q as output: %w", pinName, err)
		}
		ind.pins[name] = pin
	}
	return ind, nil
}

// SetLED drives the named pin high or low. An unknown name is logged
// and ignored rather than treated as fatal: a missing LED must never
// take down the engine.
func (ind *GPIOIndicators) SetLED(name string, on bool) {
	pin, ok := ind.pins[name]
	if !ok {
		ind.log.Warn("SetLED on unconfigured LED", zap.String("led", name))
		return
	}
	level := gpio.Low
	if on {
		level = gpio.High
	}
	if err := pin.Out(level); err != nil {
		ind.log.Warn("failed to drive LED pin", zap.String("led", name), zap.Error(err))
	}
}
