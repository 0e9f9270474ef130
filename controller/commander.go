package controller

import (
	"context"
	"errors"
	"time"

	"github.com/oxplot/go-tps6699x"
	"github.com/oxplot/go-tps6699x/pdo"
)

// Commander issues commands and reads device state. Every bus access happens
// under the device lock, and the lock is released before any wait.
//
// A Commander is meant to be driven by a single goroutine.
type Commander struct {
	controller *Controller
}

// PortStatus returns the status register of port.
func (c *Commander) PortStatus(ctx context.Context, port tps6699x.PortID) (s tps6699x.Status, err error) {
	err = c.controller.withDevice(ctx, func(d Device) error {
		s, err = d.PortStatus(port)
		return err
	})
	return
}

// ActivePDOContract returns the PDO of the active contract of port.
func (c *Commander) ActivePDOContract(ctx context.Context, port tps6699x.PortID) (p pdo.PDO, err error) {
	err = c.controller.withDevice(ctx, func(d Device) error {
		p, err = d.ActivePDOContract(port)
		return err
	})
	return
}

// ActiveRDOContract returns the RDO of the active contract of port.
func (c *Commander) ActiveRDOContract(ctx context.Context, port tps6699x.PortID) (r pdo.RequestDO, err error) {
	err = c.controller.withDevice(ctx, func(d Device) error {
		r, err = d.ActiveRDOContract(port)
		return err
	})
	return
}

// Mode returns the firmware operating mode.
func (c *Commander) Mode(ctx context.Context) (m tps6699x.Mode, err error) {
	err = c.controller.withDevice(ctx, func(d Device) error {
		m, err = d.Mode()
		return err
	})
	return
}

// FirmwareVersion returns the firmware version word.
func (c *Commander) FirmwareVersion(ctx context.Context) (v uint32, err error) {
	err = c.controller.withDevice(ctx, func(d Device) error {
		v, err = d.FirmwareVersion()
		return err
	})
	return
}

// CustomerUse returns the customer use word.
func (c *Commander) CustomerUse(ctx context.Context) (v uint64, err error) {
	err = c.controller.withDevice(ctx, func(d Device) error {
		v, err = d.CustomerUse()
		return err
	})
	return
}

// NumPorts returns the number of ports configured.
func (c *Commander) NumPorts() int {
	return c.controller.numPorts
}

// InterruptsEnabled returns the current interrupt mask.
func (c *Commander) InterruptsEnabled() Mask {
	return c.controller.interruptsEnabledMask()
}

// WaitInterrupt waits for an event snapshot in which f returns true for at
// least one port, and returns that snapshot. Snapshots that don't satisfy f
// are dropped. If clearCurrent is true, a snapshot published before the call
// and not yet received is discarded first.
//
// WaitInterrupt only returns early if ctx is done.
func (c *Commander) WaitInterrupt(ctx context.Context, clearCurrent bool, f func(tps6699x.PortID, tps6699x.IntEvent) bool) (Events, error) {
	if clearCurrent {
		c.controller.interruptWaker.Reset()
	}
	return c.waitInterrupt(ctx, f)
}

func (c *Commander) waitInterrupt(ctx context.Context, f func(tps6699x.PortID, tps6699x.IntEvent) bool) (Events, error) {
	for {
		flags, err := c.controller.interruptWaker.Wait(ctx)
		if err != nil {
			return Events{}, err
		}
		for port, flag := range flags {
			if f(tps6699x.PortID(port), flag) {
				return flags, nil
			}
		}
	}
}

// EnableInterruptsGuarded installs enabled as the interrupt mask until the
// returned guard is released.
func (c *Commander) EnableInterruptsGuarded(enabled Mask) *InterruptGuard {
	return newInterruptGuard(c.controller, enabled)
}

// EnableInterruptGuarded sets the interrupt state of port alone until the
// returned guard is released. Other ports keep their current state.
func (c *Commander) EnableInterruptGuarded(port tps6699x.PortID, enabled bool) (*InterruptGuard, error) {
	if port.Index() >= c.controller.numPorts {
		return nil, tps6699x.ErrInvalidPort
	}
	state := c.controller.interruptsEnabledMask()
	state[port] = enabled
	return c.EnableInterruptsGuarded(state), nil
}

// DisableAllInterruptsGuarded disables interrupts of every port until the
// returned guard is released.
func (c *Commander) DisableAllInterruptsGuarded() *InterruptGuard {
	return c.EnableInterruptsGuarded(Mask{})
}

// ExecuteCommandNoTimeout sends cmd to port and waits for the device to
// report its completion through the interrupt line, then reads the result.
// in, if not nil, is written as the command input; out, if not nil, receives
// the command output.
//
// The wait only ends early if ctx is done. The bus stays available to the
// interrupt side throughout the wait.
func (c *Commander) ExecuteCommandNoTimeout(ctx context.Context, port tps6699x.PortID, cmd tps6699x.Command, in []byte, out []byte) (tps6699x.ReturnValue, error) {
	err := c.controller.withDevice(ctx, func(d Device) error {
		// Drop stale snapshots. Snapshots are published under the lock, so
		// the completion of this command can only arrive after this point.
		c.controller.interruptWaker.Reset()
		return d.SendCommand(port, cmd, in)
	})
	if err != nil {
		return 0, err
	}

	if _, err := c.waitInterrupt(ctx, func(p tps6699x.PortID, flags tps6699x.IntEvent) bool {
		return p == port && flags.Cmd1Completed()
	}); err != nil {
		return 0, err
	}

	var rv tps6699x.ReturnValue
	err = c.controller.withDevice(ctx, func(d Device) error {
		rv, err = d.ReadCommandResult(port, out)
		return err
	})
	return rv, err
}

// ExecuteCommand is like ExecuteCommandNoTimeout but fails with
// tps6699x.ErrTimeout if the command has not completed within timeout. A
// timed out command is not retried, and its effect on the device is unknown:
// check the port status before issuing it again.
func (c *Commander) ExecuteCommand(ctx context.Context, port tps6699x.PortID, cmd tps6699x.Command, timeout time.Duration, in []byte, out []byte) (tps6699x.ReturnValue, error) {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	rv, err := c.ExecuteCommandNoTimeout(tctx, port, cmd, in, out)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		c.controller.log.Error("command timed out", "port", port, "cmd", cmd, "timeout", timeout)
		return 0, tps6699x.ErrTimeout
	}
	return rv, err
}
