package tps6699x

import (
	"strconv"
	"strings"
)

// IntEvent holds the interrupt causes of a single port, as read from its
// event register. Only the low 64 bits of the register are represented.
type IntEvent uint64

// Add adds the events v to the set.
func (e *IntEvent) Add(v IntEvent) {
	*e |= v
}

// Has returns true if any of the events in v is set.
func (e IntEvent) Has(v IntEvent) bool {
	return e&v != 0
}

// IsZero returns true if no event is set.
func (e IntEvent) IsZero() bool {
	return e == 0
}

// Cmd1Completed returns true if the command written to the CMD1 register has
// been processed by the device.
func (e IntEvent) Cmd1Completed() bool {
	return e.Has(IntEventCmd1Completed)
}

// PlugEvent returns true if a plug was inserted or removed.
func (e IntEvent) PlugEvent() bool {
	return e.Has(IntEventPlug)
}

// NewContract returns true if a new explicit contract was established in
// either power role.
func (e IntEvent) NewContract() bool {
	return e.Has(IntEventNewContractAsConsumer | IntEventNewContractAsProvider)
}

// IntEventNone represents no event.
const IntEventNone IntEvent = 0

// Interrupt causes in the event register.
const (
	IntEventHardReset             IntEvent = 1 << 1  // PD hard reset received or sent
	IntEventPlug                  IntEvent = 1 << 3  // Plug inserted or removed
	IntEventPowerSwapComplete     IntEvent = 1 << 4  // Power role swap completed
	IntEventDataSwapComplete      IntEvent = 1 << 5  // Data role swap completed
	IntEventNewContractAsProvider IntEvent = 1 << 12 // Contract established as source
	IntEventNewContractAsConsumer IntEvent = 1 << 13 // Contract established as sink
	IntEventSourceCapsReceived    IntEvent = 1 << 14 // Source capabilities received from partner
	IntEventStatusUpdate          IntEvent = 1 << 26 // Status register changed
	IntEventDataStatusUpdate      IntEvent = 1 << 27 // Data status register changed
	IntEventPowerStatusUpdate     IntEvent = 1 << 28 // Power status register changed
	IntEventPDStatusUpdate        IntEvent = 1 << 29 // PD status register changed
	IntEventCmd1Completed         IntEvent = 1 << 30 // CMD1 processed
)

var intEventNames = []struct {
	e    IntEvent
	name string
}{
	{IntEventHardReset, "HardReset"},
	{IntEventPlug, "Plug"},
	{IntEventPowerSwapComplete, "PowerSwapComplete"},
	{IntEventDataSwapComplete, "DataSwapComplete"},
	{IntEventNewContractAsProvider, "NewContractAsProvider"},
	{IntEventNewContractAsConsumer, "NewContractAsConsumer"},
	{IntEventSourceCapsReceived, "SourceCapsReceived"},
	{IntEventStatusUpdate, "StatusUpdate"},
	{IntEventDataStatusUpdate, "DataStatusUpdate"},
	{IntEventPowerStatusUpdate, "PowerStatusUpdate"},
	{IntEventPDStatusUpdate, "PDStatusUpdate"},
	{IntEventCmd1Completed, "Cmd1Completed"},
}

// String returns the names of the set events joined with "|". Bits without a
// name are reported together as a hex value.
func (e IntEvent) String() string {
	if e == IntEventNone {
		return "None"
	}
	var sb strings.Builder
	rest := e
	for _, n := range intEventNames {
		if e&n.e == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(n.name)
		rest &^= n.e
	}
	if rest != 0 {
		if sb.Len() > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString("0x")
		sb.WriteString(strconv.FormatUint(uint64(rest), 16))
	}
	return sb.String()
}
