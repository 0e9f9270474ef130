package hal

import (
	"errors"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// ErrNoPin is returned when an adapter is built without a pin.
var ErrNoPin = errors.New("hal: no interrupt pin")

// ActiveLowPin adapts a periph.io input pin driven low by the device when
// an interrupt is pending, which is how the TPS6699x drives its IRQ output.
type ActiveLowPin struct {
	pin gpio.PinIn
}

// ActiveLow configures pin as an input with pull-up and falling edge
// detection and returns it as an EdgeLine.
func ActiveLow(pin gpio.PinIn) (*ActiveLowPin, error) {
	if pin == nil {
		return nil, ErrNoPin
	}
	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, err
	}
	return &ActiveLowPin{pin: pin}, nil
}

// Asserted returns true while the line is held low.
func (p *ActiveLowPin) Asserted() (bool, error) {
	return p.pin.Read() == gpio.Low, nil
}

// WaitForEdge implements EdgeLine.
func (p *ActiveLowPin) WaitForEdge(timeout time.Duration) bool {
	return p.pin.WaitForEdge(timeout)
}

func (p *ActiveLowPin) String() string {
	return p.pin.String()
}
