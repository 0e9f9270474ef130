package tps6699x

import "fmt"

// Command is a 4 character opcode written to a port's command register.
type Command uint32

// NewCommand builds a command from its 4 character name. Names shorter than
// 4 characters are padded with spaces and longer ones are truncated.
func NewCommand(name string) Command {
	var b [4]byte
	for i := range b {
		if i < len(name) {
			b[i] = name[i]
		} else {
			b[i] = ' '
		}
	}
	return CommandFromBytes(b)
}

// CommandFromBytes decodes the little endian register content of a command
// register.
func CommandFromBytes(b [4]byte) Command {
	return Command(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
}

// Bytes returns the command as written to the command register.
func (c Command) Bytes() [4]byte {
	return [4]byte{byte(c), byte(c >> 8), byte(c >> 16), byte(c >> 24)}
}

func (c Command) String() string {
	b := c.Bytes()
	for _, ch := range b {
		if ch < 0x20 || ch > 0x7e {
			return fmt.Sprintf("0x%08x", uint32(c))
		}
	}
	return string(b[:])
}

// Commonly used commands.
var (
	CmdColdReset       = NewCommand("GAID") // Cold reset of the whole chip
	CmdHardReset       = NewCommand("HRST") // Send a PD hard reset on the port
	CmdSourceEnable    = NewCommand("SRDY") // Enable the sink path
	CmdSourceDisable   = NewCommand("SRYR") // Disable the sink path
	CmdAutoNegotiate   = NewCommand("ANeg") // Re-run sink auto negotiation
	CmdGetSourceCaps   = NewCommand("GSrC") // Request source capabilities from partner
	CmdPatchBurstStart = NewCommand("PBMs") // Start a patch bundle burst
	CmdPatchBurstEnd   = NewCommand("PBMe") // End a patch bundle burst

	// CmdInvalid is what the device writes back into the command register when
	// it does not recognise a command.
	CmdInvalid = NewCommand("!CMD")
)

// ReturnValue is the task return code the device leaves in the first byte of
// the data register once a command completes.
type ReturnValue uint8

// Task return codes.
const (
	ReturnSuccess      ReturnValue = 0x0
	ReturnAbort        ReturnValue = 0x1 // Timed out or aborted by the device
	ReturnRejected     ReturnValue = 0x3
	ReturnRxLocked     ReturnValue = 0x4
	ReturnTaskSpecific ReturnValue = 0x5 // Values from here up are command specific
)

// IsSuccess returns true if the command succeeded.
func (r ReturnValue) IsSuccess() bool {
	return r == ReturnSuccess
}

func (r ReturnValue) String() string {
	switch {
	case r == ReturnSuccess:
		return "Success"
	case r == ReturnAbort:
		return "Abort"
	case r == ReturnRejected:
		return "Rejected"
	case r == ReturnRxLocked:
		return "RxLocked"
	case r >= ReturnTaskSpecific:
		return fmt.Sprintf("TaskSpecific(%d)", uint8(r))
	default:
		return fmt.Sprintf("Reserved(%d)", uint8(r))
	}
}
