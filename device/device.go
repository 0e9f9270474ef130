// Package device implements the register layer of the TPS6699x family of USB
// Power Delivery controllers.
//
// Device is not safe for concurrent use. It is meant to sit behind the lock of
// a controller.Controller, which serializes every call.
package device

import (
	"encoding/binary"
	"errors"

	"github.com/oxplot/go-tps6699x"
	"github.com/oxplot/go-tps6699x/hal"
	"github.com/oxplot/go-tps6699x/pdo"
)

// ErrBadPortCount is returned by New when the number of ports is outside
// [1, tps6699x.MaxSupportedPorts].
var ErrBadPortCount = errors.New("device: port count must be between 1 and 2")

// Device talks to a TPS6699x over I2C. Each port has its own I2C target
// address; registers global to the chip are accessed through port 0.
type Device struct {
	bus      hal.I2C
	addr     [tps6699x.MaxSupportedPorts]uint16
	numPorts int

	// Buffer used for all transfers, defined once here to avoid heap
	// allocations in each method. Room for register, length and payload.
	buf [2 + maxRegisterBytes]byte
}

// New creates a new device with the given per-port addresses. Addresses of
// ports at or past numPorts are ignored.
func New(bus hal.I2C, addr [tps6699x.MaxSupportedPorts]uint8, numPorts int) (*Device, error) {
	if numPorts < 1 || numPorts > tps6699x.MaxSupportedPorts {
		return nil, ErrBadPortCount
	}
	d := &Device{bus: bus, numPorts: numPorts}
	for i := 0; i < numPorts; i++ {
		d.addr[i] = uint16(addr[i])
	}
	return d, nil
}

// NumPorts returns the number of ports configured.
func (d *Device) NumPorts() int {
	return d.numPorts
}

func (d *Device) portAddr(port tps6699x.PortID) (uint16, error) {
	if port.Index() >= d.numPorts {
		return 0, tps6699x.ErrInvalidPort
	}
	return d.addr[port], nil
}

// read reads len(p) bytes of register r. The device prefixes the payload
// with a byte count which is dropped.
func (d *Device) read(port tps6699x.PortID, r uint8, p []byte) error {
	addr, err := d.portAddr(port)
	if err != nil {
		return err
	}
	if len(p) > maxRegisterBytes {
		return tps6699x.ErrFailed
	}
	d.buf[0] = r
	if err := d.bus.Tx(addr, d.buf[:1], d.buf[1:len(p)+2]); err != nil {
		return err
	}
	copy(p, d.buf[2:len(p)+2])
	return nil
}

// write writes p to register r, prefixed with its length.
func (d *Device) write(port tps6699x.PortID, r uint8, p []byte) error {
	addr, err := d.portAddr(port)
	if err != nil {
		return err
	}
	if len(p) > maxRegisterBytes {
		return tps6699x.ErrFailed
	}
	d.buf[0] = r
	d.buf[1] = uint8(len(p))
	copy(d.buf[2:], p)
	return d.bus.Tx(addr, d.buf[:len(p)+2], nil)
}

// SendCommand writes the optional input to the data register of the port
// and then the opcode to its command register, which starts the command.
func (d *Device) SendCommand(port tps6699x.PortID, cmd tps6699x.Command, in []byte) error {
	if len(in) > regData1Len {
		return tps6699x.ErrFailed
	}
	if in != nil {
		if err := d.write(port, regData1, in); err != nil {
			return err
		}
	}
	b := cmd.Bytes()
	return d.write(port, regCmd1, b[:])
}

// ReadCommandResult reads the outcome of the last command sent to the port.
// out, if not nil, receives the bytes following the return code.
func (d *Device) ReadCommandResult(port tps6699x.PortID, out []byte) (tps6699x.ReturnValue, error) {
	if len(out) >= regData1Len {
		return 0, tps6699x.ErrFailed
	}
	var c [regCmd1Len]byte
	if err := d.read(port, regCmd1, c[:]); err != nil {
		return 0, err
	}
	if tps6699x.CommandFromBytes(c) == tps6699x.CmdInvalid {
		return 0, tps6699x.ErrFailed
	}
	var data [regData1Len]byte
	n := 1 + len(out)
	if err := d.read(port, regData1, data[:n]); err != nil {
		return 0, err
	}
	copy(out, data[1:n])
	return tps6699x.ReturnValue(data[0] & 0xf), nil
}

// ClearInterrupt reads the pending interrupt causes of the port and clears
// exactly those, so causes raised in between are not lost.
func (d *Device) ClearInterrupt(port tps6699x.PortID) (tps6699x.IntEvent, error) {
	var ev [regIntEventLen]byte
	if err := d.read(port, regIntEvent1, ev[:]); err != nil {
		return tps6699x.IntEventNone, err
	}
	if err := d.write(port, regIntClear1, ev[:]); err != nil {
		return tps6699x.IntEventNone, err
	}
	return tps6699x.IntEvent(binary.LittleEndian.Uint64(ev[:8])), nil
}

// PortStatus returns the status register of the port.
func (d *Device) PortStatus(port tps6699x.PortID) (tps6699x.Status, error) {
	var b [8]byte
	if err := d.read(port, regStatus, b[:regStatusLen]); err != nil {
		return 0, err
	}
	return tps6699x.Status(binary.LittleEndian.Uint64(b[:])), nil
}

// ActivePDOContract returns the PDO the current contract of the port was
// negotiated against.
func (d *Device) ActivePDOContract(port tps6699x.PortID) (pdo.PDO, error) {
	var b [regActivePDOLen]byte
	if err := d.read(port, regActivePDO, b[:]); err != nil {
		return 0, err
	}
	return pdo.PDO(binary.LittleEndian.Uint32(b[:4])), nil
}

// ActiveRDOContract returns the RDO of the current contract of the port.
func (d *Device) ActiveRDOContract(port tps6699x.PortID) (pdo.RequestDO, error) {
	var b [regActiveRDOLen]byte
	if err := d.read(port, regActiveRDO, b[:]); err != nil {
		return 0, err
	}
	return pdo.RequestDO(binary.LittleEndian.Uint32(b[:4])), nil
}

// Mode returns the firmware operating mode.
func (d *Device) Mode() (tps6699x.Mode, error) {
	var b [regModeLen]byte
	if err := d.read(0, regMode, b[:]); err != nil {
		return tps6699x.ModeUnknown, err
	}
	return tps6699x.ParseMode(b), nil
}

// FirmwareVersion returns the firmware version word.
func (d *Device) FirmwareVersion() (uint32, error) {
	var b [regVersionLen]byte
	if err := d.read(0, regVersion, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// CustomerUse returns the customer use word programmed in the firmware
// configuration.
func (d *Device) CustomerUse() (uint64, error) {
	var b [regCustUseLen]byte
	if err := d.read(0, regCustUse, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

const (
	regMode    = 0x03
	regModeLen = 4

	regCustUse    = 0x06
	regCustUseLen = 8

	regCmd1    = 0x08
	regCmd1Len = 4

	regData1    = 0x09
	regData1Len = 64

	regVersion    = 0x0F
	regVersionLen = 4

	regIntEvent1   = 0x14
	regIntClear1   = 0x18
	regIntEventLen = 11

	regStatus    = 0x1A
	regStatusLen = 5

	regActivePDO    = 0x34
	regActivePDOLen = 6

	regActiveRDO    = 0x35
	regActiveRDOLen = 12

	maxRegisterBytes = regData1Len
)
