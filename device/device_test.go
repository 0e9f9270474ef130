package device_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/oxplot/go-tps6699x"
	"github.com/oxplot/go-tps6699x/device"
	"github.com/oxplot/go-tps6699x/pdo"
)

var addrs = [tps6699x.MaxSupportedPorts]uint8{0x20, 0x24}

func newDevice(t *testing.T, ops ...i2ctest.IO) (*device.Device, *i2ctest.Playback) {
	t.Helper()
	bus := &i2ctest.Playback{Ops: ops, DontPanic: true}
	d, err := device.New(bus, addrs, 2)
	require.NoError(t, err)
	return d, bus
}

func TestNewPortCount(t *testing.T) {
	for _, n := range []int{0, 3} {
		_, err := device.New(nil, addrs, n)
		assert.ErrorIs(t, err, device.ErrBadPortCount, "ports %d", n)
	}
	d, err := device.New(nil, addrs, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, d.NumPorts())
}

func TestSendCommandWithInput(t *testing.T) {
	d, bus := newDevice(t,
		i2ctest.IO{Addr: 0x20, W: []byte{0x09, 2, 0xaa, 0xbb}},
		i2ctest.IO{Addr: 0x20, W: []byte{0x08, 4, 'A', 'N', 'e', 'g'}},
	)
	require.NoError(t, d.SendCommand(0, tps6699x.CmdAutoNegotiate, []byte{0xaa, 0xbb}))
	require.NoError(t, bus.Close())
}

func TestSendCommandSecondPort(t *testing.T) {
	d, bus := newDevice(t,
		i2ctest.IO{Addr: 0x24, W: []byte{0x08, 4, 'H', 'R', 'S', 'T'}},
	)
	require.NoError(t, d.SendCommand(1, tps6699x.CmdHardReset, nil))
	require.NoError(t, bus.Close())
}

func TestSendCommandInputTooLong(t *testing.T) {
	d, bus := newDevice(t)
	err := d.SendCommand(0, tps6699x.CmdAutoNegotiate, make([]byte, 65))
	assert.ErrorIs(t, err, tps6699x.ErrFailed)
	require.NoError(t, bus.Close())
}

func TestInvalidPort(t *testing.T) {
	bus := &i2ctest.Playback{DontPanic: true}
	d, err := device.New(bus, addrs, 1)
	require.NoError(t, err)

	assert.ErrorIs(t, d.SendCommand(1, tps6699x.CmdHardReset, nil), tps6699x.ErrInvalidPort)
	_, err = d.ClearInterrupt(1)
	assert.ErrorIs(t, err, tps6699x.ErrInvalidPort)
	_, err = d.PortStatus(1)
	assert.ErrorIs(t, err, tps6699x.ErrInvalidPort)
	require.NoError(t, bus.Close())
}

func TestReadCommandResult(t *testing.T) {
	d, bus := newDevice(t,
		i2ctest.IO{Addr: 0x24, W: []byte{0x08}, R: []byte{4, 0, 0, 0, 0}},
		i2ctest.IO{Addr: 0x24, W: []byte{0x09}, R: []byte{64, 0x03, 0x12, 0x34}},
	)
	out := make([]byte, 2)
	rv, err := d.ReadCommandResult(1, out)
	require.NoError(t, err)
	assert.Equal(t, tps6699x.ReturnRejected, rv)
	assert.Equal(t, []byte{0x12, 0x34}, out)
	require.NoError(t, bus.Close())
}

func TestReadCommandResultNoOutput(t *testing.T) {
	d, bus := newDevice(t,
		i2ctest.IO{Addr: 0x20, W: []byte{0x08}, R: []byte{4, 0, 0, 0, 0}},
		i2ctest.IO{Addr: 0x20, W: []byte{0x09}, R: []byte{64, 0xf0}},
	)
	rv, err := d.ReadCommandResult(0, nil)
	require.NoError(t, err)
	assert.Equal(t, tps6699x.ReturnSuccess, rv)
	require.NoError(t, bus.Close())
}

func TestReadCommandResultUnknownCommand(t *testing.T) {
	d, bus := newDevice(t,
		i2ctest.IO{Addr: 0x20, W: []byte{0x08}, R: []byte{4, '!', 'C', 'M', 'D'}},
	)
	_, err := d.ReadCommandResult(0, nil)
	assert.ErrorIs(t, err, tps6699x.ErrFailed)
	require.NoError(t, bus.Close())
}

func TestClearInterrupt(t *testing.T) {
	ev := []byte{0x08, 0, 0, 0x40, 0, 0, 0, 0, 0, 0, 0x01}
	d, bus := newDevice(t,
		i2ctest.IO{Addr: 0x24, W: []byte{0x14}, R: append([]byte{11}, ev...)},
		i2ctest.IO{Addr: 0x24, W: append([]byte{0x18, 11}, ev...)},
	)
	flags, err := d.ClearInterrupt(1)
	require.NoError(t, err)
	assert.True(t, flags.Cmd1Completed())
	assert.True(t, flags.PlugEvent())
	assert.Equal(t, tps6699x.IntEventCmd1Completed|tps6699x.IntEventPlug, flags)
	require.NoError(t, bus.Close())
}

func TestGetters(t *testing.T) {
	d, bus := newDevice(t,
		i2ctest.IO{Addr: 0x20, W: []byte{0x03}, R: []byte{4, 'A', 'P', 'P', ' '}},
		i2ctest.IO{Addr: 0x20, W: []byte{0x0f}, R: []byte{4, 0x03, 0x01, 0x02, 0x00}},
		i2ctest.IO{Addr: 0x20, W: []byte{0x06}, R: []byte{8, 1, 0, 0, 0, 0, 0, 0, 0x80}},
		i2ctest.IO{Addr: 0x24, W: []byte{0x1a}, R: []byte{5, 0x21, 0, 0x10, 0, 0}},
		i2ctest.IO{Addr: 0x24, W: []byte{0x34}, R: []byte{6, 0x2c, 0x91, 0x01, 0x00, 0, 0}},
		i2ctest.IO{Addr: 0x24, W: []byte{0x35}, R: []byte{12, 0x2c, 0xb1, 0x04, 0x10, 0, 0, 0, 0, 0, 0, 0, 0}},
	)

	m, err := d.Mode()
	require.NoError(t, err)
	assert.Equal(t, tps6699x.ModeApp, m)

	v, err := d.FirmwareVersion()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x00020103), v)

	cu, err := d.CustomerUse()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x8000000000000001), cu)

	s, err := d.PortStatus(1)
	require.NoError(t, err)
	assert.True(t, s.PlugPresent())
	assert.True(t, s.IsSource())
	assert.Equal(t, uint8(1), s.VBusStatus())

	p, err := d.ActivePDOContract(1)
	require.NoError(t, err)
	assert.Equal(t, "Fixed 5.0V @ max. 3.0A", pdo.Describe(p))

	r, err := d.ActiveRDOContract(1)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), r.SelectedObjectPosition())
	assert.Equal(t, uint16(3000), r.FixedOperatingCurrent())
	assert.Equal(t, uint16(3000), r.FixedMaxOperatingCurrent())

	require.NoError(t, bus.Close())
}

type failingBus struct{ err error }

func (b failingBus) Tx(uint16, []byte, []byte) error { return b.err }

func TestBusErrorPassesThrough(t *testing.T) {
	errNack := errors.New("i2c: nack")
	d, err := device.New(failingBus{errNack}, addrs, 2)
	require.NoError(t, err)

	assert.Equal(t, errNack, d.SendCommand(0, tps6699x.CmdHardReset, nil))
	_, err = d.ReadCommandResult(0, nil)
	assert.Equal(t, errNack, err)
	_, err = d.ClearInterrupt(1)
	assert.Equal(t, errNack, err)
	_, err = d.Mode()
	assert.Equal(t, errNack, err)
}
