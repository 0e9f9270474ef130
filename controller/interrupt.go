package controller

import (
	"context"
	"fmt"

	"github.com/oxplot/go-tps6699x"
	"github.com/oxplot/go-tps6699x/hal"
)

// Interrupt services the interrupt line shared by all ports and publishes
// what it finds to the Commander.
//
// An Interrupt is meant to be driven by a single goroutine.
type Interrupt struct {
	controller *Controller
}

// ProcessInterrupt reads and clears the pending interrupt causes of every
// enabled port and publishes the resulting snapshot, which is also returned.
// The snapshot is published even if it is empty.
//
// The line is sampled again before each port, since clearing a port's causes
// may release the shared line, in which case the remaining ports are left
// alone.
func (i *Interrupt) ProcessInterrupt(ctx context.Context, line hal.InterruptLine) (Events, error) {
	var flags Events

	interruptsEnabled := i.controller.interruptsEnabledMask()
	err := i.controller.withDevice(ctx, func(d Device) error {
		for port := 0; port < i.controller.numPorts; port++ {
			if !interruptsEnabled[port] {
				continue
			}

			asserted, err := line.Asserted()
			if err != nil {
				i.controller.log.Error("failed to read interrupt line", "err", err)
				return fmt.Errorf("%w: %w", tps6699x.ErrInterruptLine, err)
			}

			// Clearing the previous port may have released the line
			if !asserted {
				continue
			}

			flags[port], err = d.ClearInterrupt(tps6699x.PortID(port))
			if err != nil {
				return err
			}
		}

		// Published before unlocking so that a Commander resetting the
		// signal under the lock never receives a snapshot read before it.
		i.controller.interruptWaker.Signal(flags)
		return nil
	})
	if err != nil {
		return Events{}, err
	}

	i.controller.log.Debug("interrupt processed", "events", flags)
	return flags, nil
}

// Run services line until ctx is done, calling ProcessInterrupt whenever the
// line is asserted. Between interrupts it waits for an edge, sampling the
// line at least once per poll interval so a missed edge is not fatal. Errors
// are logged and servicing continues. Run always returns ctx.Err().
//
// Cancellation is noticed within one poll interval.
func (i *Interrupt) Run(ctx context.Context, line hal.EdgeLine) error {
	poll := i.controller.pollInterval
	for ctx.Err() == nil {
		asserted, err := line.Asserted()
		if err != nil {
			i.controller.log.Warn("interrupt line unreadable", "err", err)
			line.WaitForEdge(poll)
			continue
		}
		if !asserted {
			line.WaitForEdge(poll)
			continue
		}
		flags, err := i.ProcessInterrupt(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			i.controller.log.Warn("interrupt processing failed", "err", err)
			line.WaitForEdge(poll)
			continue
		}
		// Line held only by masked ports, don't spin on it.
		if flags == (Events{}) {
			line.WaitForEdge(poll)
		}
	}
	return ctx.Err()
}
