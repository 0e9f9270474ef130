// Package controller coordinates access to a multi-port TPS6699x shared by
// two goroutines: one issuing commands through a Commander and one servicing
// the interrupt line through an Interrupt.
//
// Commands complete asynchronously. A Commander sends the command while
// holding the device lock, releases it, waits for the Interrupt to publish an
// event snapshot showing completion, then takes the lock again to read the
// result. The lock is never held across a wait, so the two sides cannot
// deadlock each other.
package controller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/oxplot/go-tps6699x"
	"github.com/oxplot/go-tps6699x/device"
	"github.com/oxplot/go-tps6699x/hal"
	"github.com/oxplot/go-tps6699x/pdo"
)

// ErrPartsTaken is returned by MakeParts when it has already been called.
var ErrPartsTaken = errors.New("controller: parts already taken")

// Device is the register layer the controller drives. All calls are made
// while holding the controller's device lock, so implementations need not be
// safe for concurrent use. device.Device is the implementation for real
// hardware.
type Device interface {
	NumPorts() int
	SendCommand(port tps6699x.PortID, cmd tps6699x.Command, in []byte) error
	ReadCommandResult(port tps6699x.PortID, out []byte) (tps6699x.ReturnValue, error)
	ClearInterrupt(port tps6699x.PortID) (tps6699x.IntEvent, error)
	PortStatus(port tps6699x.PortID) (tps6699x.Status, error)
	ActivePDOContract(port tps6699x.PortID) (pdo.PDO, error)
	ActiveRDOContract(port tps6699x.PortID) (pdo.RequestDO, error)
	Mode() (tps6699x.Mode, error)
	FirmwareVersion() (uint32, error)
	CustomerUse() (uint64, error)
}

var _ Device = (*device.Device)(nil)

// Events is a snapshot of the interrupt causes of every port slot. Slots of
// disabled or unconfigured ports are always zero.
type Events [tps6699x.MaxSupportedPorts]tps6699x.IntEvent

// Mask holds one interrupt enable flag per port slot.
type Mask [tps6699x.MaxSupportedPorts]bool

// Controller owns the device, the interrupt mask and the event signal. Use
// MakeParts to obtain the handles that operate on it.
type Controller struct {
	dev  Device
	lock *semaphore.Weighted

	interruptWaker    *signal[Events]
	interruptsEnabled [tps6699x.MaxSupportedPorts]atomic.Bool
	numPorts          int

	parted atomic.Bool

	log          *slog.Logger
	pollInterval time.Duration
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithPollInterval sets how long Interrupt.Run waits for an edge before
// sampling the line anyway. Defaults to 100ms.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

const defaultPollInterval = 100 * time.Millisecond

// New creates a controller for a chip with numPorts ports at the given
// per-port I2C addresses. All interrupts start enabled.
func New(bus hal.I2C, addr [tps6699x.MaxSupportedPorts]uint8, numPorts int, opts ...Option) (*Controller, error) {
	dev, err := device.New(bus, addr, numPorts)
	if err != nil {
		return nil, err
	}
	return NewWithDevice(dev, opts...), nil
}

// NewTPS66993 creates a controller for the single port TPS66993.
func NewTPS66993(bus hal.I2C, addr uint8, opts ...Option) (*Controller, error) {
	return New(bus, [tps6699x.MaxSupportedPorts]uint8{addr, 0}, tps6699x.TPS66993NumPorts, opts...)
}

// NewTPS66994 creates a controller for the dual port TPS66994.
func NewTPS66994(bus hal.I2C, addr [tps6699x.TPS66994NumPorts]uint8, opts ...Option) (*Controller, error) {
	return New(bus, addr, tps6699x.TPS66994NumPorts, opts...)
}

// NewWithDevice creates a controller around an existing register layer.
func NewWithDevice(dev Device, opts ...Option) *Controller {
	c := &Controller{
		dev:            dev,
		lock:           semaphore.NewWeighted(1),
		interruptWaker: newSignal[Events](),
		numPorts:       dev.NumPorts(),
		log:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		pollInterval:   defaultPollInterval,
	}
	for i := range c.interruptsEnabled {
		c.interruptsEnabled[i].Store(true)
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// MakeParts splits the controller into its command and interrupt handles.
// It succeeds only once per controller, so there is never more than one of
// each.
func (c *Controller) MakeParts() (*Commander, *Interrupt, error) {
	if !c.parted.CompareAndSwap(false, true) {
		return nil, nil, ErrPartsTaken
	}
	return &Commander{controller: c}, &Interrupt{controller: c}, nil
}

// NumPorts returns the number of ports configured.
func (c *Controller) NumPorts() int {
	return c.numPorts
}

func (c *Controller) enableInterrupts(enabled Mask) {
	for i := range enabled {
		c.interruptsEnabled[i].Store(enabled[i])
	}
}

func (c *Controller) interruptsEnabledMask() Mask {
	var m Mask
	for i := range m {
		m[i] = c.interruptsEnabled[i].Load()
	}
	return m
}

// withDevice runs fn while holding the device lock. Waiting for the lock
// honours ctx; fn itself always runs to completion once started so a bus
// transaction is never abandoned halfway.
func (c *Controller) withDevice(ctx context.Context, fn func(Device) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.lock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.lock.Release(1)
	return fn(c.dev)
}
