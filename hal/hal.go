// Package hal defines the narrow hardware interfaces the driver is built on,
// so a single implementation works across microcontrollers and host
// platforms.
package hal

import "time"

// I2C is the minimum interface to I2C hardware, with a single Tx method. It
// is satisfied by periph.io's i2c.Bus on hosts and TinyGo's machine.I2C on
// microcontrollers.
type I2C interface {

	// Tx performs a write and then a read transfer placing the result in r.
	//
	// Passing a nil value for w or r skips the transfer corresponding to write
	// or read, respectively.
	//
	//  i2c.Tx(addr, nil, r)
	// Performs only a read transfer.
	//
	//  i2c.Tx(addr, w, nil)
	// Performs only a write transfer.
	Tx(addr uint16, w, r []byte) error
}

// InterruptLine is a digital input carrying an interrupt request. Polarity is
// handled by the implementation: Asserted reports the logical state.
type InterruptLine interface {
	Asserted() (bool, error)
}

// EdgeLine is an InterruptLine that can block until its level changes.
type EdgeLine interface {
	InterruptLine

	// WaitForEdge waits up to timeout for an edge and returns true if one was
	// seen. A negative timeout waits forever.
	WaitForEdge(timeout time.Duration) bool
}
