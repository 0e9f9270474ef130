// Package tps6699x defines the types shared by the layers of a driver for the
// TI TPS6699x family of multi-port USB Power Delivery controllers.
//
// The chip is reached over I2C with one target address per port, and signals
// all ports' pending events through a single shared, active-low interrupt
// line. The controller package builds the command and interrupt machinery on
// top of these types, and the device package implements the register layer.
package tps6699x

import "errors"

// MaxSupportedPorts is the largest number of ports any chip of the family
// has. Per-port arrays are always this wide regardless of the chip variant.
const MaxSupportedPorts = 2

// Number of ports of each chip variant.
const (
	TPS66993NumPorts = 1
	TPS66994NumPorts = 2
)

// PortID identifies a logical port of a controller, starting at 0.
type PortID uint8

// Index returns the port as a slice index.
func (p PortID) Index() int {
	return int(p)
}

var (
	// ErrInvalidPort is returned when a port is outside of the range configured
	// for the controller.
	ErrInvalidPort = errors.New("tps6699x: invalid port")

	// ErrFailed is returned when the device reports a generic failure, such as
	// rejecting an unknown command.
	ErrFailed = errors.New("tps6699x: operation failed")

	// ErrTimeout is returned when a command does not complete in time. It is
	// distinct from any transport error: the bus worked but the device never
	// reported completion.
	ErrTimeout = errors.New("tps6699x: command timed out")

	// ErrInterruptLine is returned when sampling the interrupt input fails.
	ErrInterruptLine = errors.New("tps6699x: failed to read interrupt line")
)

// Mode is the operating mode reported by the firmware.
type Mode uint8

// Operating modes.
const (
	ModeUnknown Mode = iota
	ModeBoot         // Boot loader, "BOOT"
	ModeApp          // Normal operation, "APP "
	ModePatch        // Waiting for a patch bundle, "PTCH"
	ModeLimited      // Limited functionality after a failed boot, "LMTD"
)

// ParseMode decodes the 4 ASCII characters of the mode register.
func ParseMode(b [4]byte) Mode {
	switch string(b[:]) {
	case "BOOT":
		return ModeBoot
	case "APP ":
		return ModeApp
	case "PTCH":
		return ModePatch
	case "LMTD":
		return ModeLimited
	default:
		return ModeUnknown
	}
}

func (m Mode) String() string {
	switch m {
	case ModeBoot:
		return "Boot"
	case ModeApp:
		return "App"
	case ModePatch:
		return "Patch"
	case ModeLimited:
		return "Limited"
	default:
		return "Unknown"
	}
}

// Status is the content of a port's status register.
type Status uint64

// PlugPresent returns true if something is attached to the port.
func (s Status) PlugPresent() bool {
	return s&1 != 0
}

// ConnectionState returns the raw 3 bit connection state.
func (s Status) ConnectionState() uint8 {
	return uint8((s >> 1) & 0b111)
}

// PlugOrientationFlipped returns true if the plug is upside down, ie CC2 is
// the active CC line.
func (s Status) PlugOrientationFlipped() bool {
	return s&(1<<4) != 0
}

// IsSource returns true if the port is currently the power source.
func (s Status) IsSource() bool {
	return s&(1<<5) != 0
}

// IsDFP returns true if the port is currently the downstream facing port.
func (s Status) IsDFP() bool {
	return s&(1<<6) != 0
}

// VBusStatus returns the raw 2 bit VBUS status.
func (s Status) VBusStatus() uint8 {
	return uint8((s >> 20) & 0b11)
}
