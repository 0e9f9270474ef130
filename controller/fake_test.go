package controller_test

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oxplot/go-tps6699x"
	"github.com/oxplot/go-tps6699x/pdo"
)

var errBus = errors.New("i2c: nack")

// fakeDevice is an in-memory register layer. Its pending causes drive the
// shared interrupt line returned by line().
type fakeDevice struct {
	mu       sync.Mutex
	numPorts int
	causes   [tps6699x.MaxSupportedPorts]tps6699x.IntEvent
	ops      []string
	inputs   [][]byte

	status   tps6699x.Status
	result   tps6699x.ReturnValue
	output   []byte
	sendErr  error
	clearErr error

	// onSend is called with mu held.
	onSend func(f *fakeDevice, port tps6699x.PortID, cmd tps6699x.Command)

	raised chan struct{}
}

func newFakeDevice(numPorts int) *fakeDevice {
	return &fakeDevice{numPorts: numPorts, raised: make(chan struct{}, 1)}
}

// completeOnSend makes every command complete as soon as it is sent.
func completeOnSend(f *fakeDevice, port tps6699x.PortID, _ tps6699x.Command) {
	f.raiseLocked(port, tps6699x.IntEventCmd1Completed)
}

func (f *fakeDevice) raiseLocked(port tps6699x.PortID, ev tps6699x.IntEvent) {
	f.causes[port].Add(ev)
	select {
	case f.raised <- struct{}{}:
	default:
	}
}

func (f *fakeDevice) raise(port tps6699x.PortID, ev tps6699x.IntEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raiseLocked(port, ev)
}

func (f *fakeDevice) record(op string) {
	f.ops = append(f.ops, op)
}

func (f *fakeDevice) Ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

func (f *fakeDevice) NumPorts() int {
	return f.numPorts
}

func (f *fakeDevice) SendCommand(port tps6699x.PortID, cmd tps6699x.Command, in []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(fmt.Sprintf("send%d:%s", port, cmd))
	if f.sendErr != nil {
		return f.sendErr
	}
	f.inputs = append(f.inputs, append([]byte(nil), in...))
	if f.onSend != nil {
		f.onSend(f, port, cmd)
	}
	return nil
}

func (f *fakeDevice) ReadCommandResult(port tps6699x.PortID, out []byte) (tps6699x.ReturnValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(fmt.Sprintf("read%d", port))
	copy(out, f.output)
	return f.result, nil
}

func (f *fakeDevice) ClearInterrupt(port tps6699x.PortID) (tps6699x.IntEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(fmt.Sprintf("clear%d", port))
	if f.clearErr != nil {
		return 0, f.clearErr
	}
	ev := f.causes[port]
	f.causes[port] = 0
	return ev, nil
}

func (f *fakeDevice) PortStatus(port tps6699x.PortID) (tps6699x.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(fmt.Sprintf("status%d", port))
	return f.status, nil
}

func (f *fakeDevice) ActivePDOContract(tps6699x.PortID) (pdo.PDO, error) {
	return pdo.PDO(100<<10 | 300), nil
}

func (f *fakeDevice) ActiveRDOContract(tps6699x.PortID) (pdo.RequestDO, error) {
	return pdo.RequestDO(1<<28 | 300<<10 | 300), nil
}

func (f *fakeDevice) Mode() (tps6699x.Mode, error) {
	return tps6699x.ModeApp, nil
}

func (f *fakeDevice) FirmwareVersion() (uint32, error) {
	return 0x00020103, nil
}

func (f *fakeDevice) CustomerUse() (uint64, error) {
	return 0, errBus
}

// line returns the shared interrupt line of the device, asserted while any
// port has a pending cause.
func (f *fakeDevice) line() *deviceLine {
	return &deviceLine{f: f}
}

type deviceLine struct {
	f *fakeDevice
}

func (l *deviceLine) Asserted() (bool, error) {
	l.f.mu.Lock()
	defer l.f.mu.Unlock()
	for _, c := range l.f.causes {
		if c != 0 {
			return true, nil
		}
	}
	return false, nil
}

func (l *deviceLine) WaitForEdge(timeout time.Duration) bool {
	select {
	case <-l.f.raised:
		return true
	case <-time.After(timeout):
		return false
	}
}

// scriptedLine returns the given levels in order, repeating the last one.
type scriptedLine struct {
	levels  []bool
	err     error
	samples int
}

func (l *scriptedLine) Asserted() (bool, error) {
	l.samples++
	if l.err != nil {
		return false, l.err
	}
	i := l.samples - 1
	if i >= len(l.levels) {
		i = len(l.levels) - 1
	}
	return l.levels[i], nil
}
