// Package pdo decodes the Power and Request Data Objects describing the
// active power contract of a port.
package pdo

import "fmt"

// PDO is a generic Power Data Object. Based on its type, it should be
// converted to specific PDO type to allow extracting various fields.
type PDO uint32

// Type returns the type of the power data object.
func (o PDO) Type() Type {
	h := (o >> 30) & 0b11
	if h == 0b11 {
		return Type((((o >> 28) & 0b11) << 3) | 0b100 | h)
	}
	return Type(h)
}

// Type represents the type of a power data object.
type Type uint8

// Power data object types. Augmented types carry the 2 bit APDO subtype
// above the 3 marker bits so all types fit one enumeration.
const (
	TypeFixedSupply    Type = 0b00
	TypeBattery        Type = 0b01
	TypeVariableSupply Type = 0b10
	TypePPS            Type = 0b00111
	TypeEPRAVS         Type = 0b01111
)

func (t Type) String() string {
	switch t {
	case TypeFixedSupply:
		return "Fixed"
	case TypeBattery:
		return "Battery"
	case TypeVariableSupply:
		return "Variable"
	case TypePPS:
		return "PPS"
	case TypeEPRAVS:
		return "EPRAVS"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// FixedSupply represents a Fixed Supply Power Data Object.
type FixedSupply uint32

// Voltage returns voltage in millivolts.
func (o FixedSupply) Voltage() uint16 {
	return uint16(((o >> 10) & (1<<10 - 1)) * 50)
}

// MaxCurrent returns maximum current in milliamps.
func (o FixedSupply) MaxCurrent() uint16 {
	return uint16((o & (1<<10 - 1)) * 10)
}

// PPS represents a Programmable Power Supply Power Data Object.
type PPS uint32

// MinVoltage returns minimum voltage in millivolts.
func (o PPS) MinVoltage() uint16 {
	return uint16((o>>8)&(1<<8-1)) * 100
}

// MaxVoltage returns maximum voltage in millivolts.
func (o PPS) MaxVoltage() uint16 {
	return uint16((o>>17)&(1<<8-1)) * 100
}

// MaxCurrent returns maximum current in milliamps.
func (o PPS) MaxCurrent() uint16 {
	return uint16(o&(1<<7-1)) * 50
}

// IsPowerLimited returns true if the source cannot supply max voltage and
// current at the same time.
func (o PPS) IsPowerLimited() bool {
	return o&(1<<27) != 0
}

// RequestDO represents a Request Data Object.
type RequestDO uint32

// EmptyRequestDO is an RDO that selects no PDO, which is what a port without
// an explicit contract reports.
const EmptyRequestDO RequestDO = 0

// SelectedObjectPosition returns the position of the selected PDO in the
// source capabilities, starting at 1.
func (o RequestDO) SelectedObjectPosition() uint8 {
	return uint8(o >> 28)
}

// CapabilityMismatch returns true if the sink flagged that none of the
// offered PDOs satisfied it.
func (o RequestDO) CapabilityMismatch() bool {
	return o&(1<<26) != 0
}

// FixedOperatingCurrent returns current in milliamps for fixed request
// objects.
func (o RequestDO) FixedOperatingCurrent() uint16 {
	return uint16(((o >> 10) & (1<<10 - 1)) * 10)
}

// FixedMaxOperatingCurrent returns current in milliamps for fixed request
// objects without GiveBack support.
func (o RequestDO) FixedMaxOperatingCurrent() uint16 {
	return uint16((o & (1<<10 - 1)) * 10)
}

// PPSOutputVoltage returns voltage in millivolts for PPS request objects.
func (o RequestDO) PPSOutputVoltage() uint16 {
	return uint16(((o >> 9) & (1<<12 - 1)) * 20)
}

// PPSOutputCurrent returns current in milliamps for PPS request objects.
func (o RequestDO) PPSOutputCurrent() uint16 {
	return uint16((o & (1<<7 - 1)) * 50)
}

// Describe returns a short human readable description of a PDO.
func Describe(p PDO) string {
	switch p.Type() {
	case TypeFixedSupply:
		fs := FixedSupply(p)
		return fmt.Sprintf("Fixed %.1fV @ max. %.1fA", float32(fs.Voltage())/1000, float32(fs.MaxCurrent())/1000)
	case TypePPS:
		pps := PPS(p)
		var powerLimited string
		if pps.IsPowerLimited() {
			powerLimited = " (power limited)"
		}
		minV, maxV, maxC := float32(pps.MinVoltage())/1000, float32(pps.MaxVoltage())/1000, float32(pps.MaxCurrent())/1000
		return fmt.Sprintf("Programmable %.1f-%.1fV @ max. %.1fA%s", minV, maxV, maxC, powerLimited)
	case TypeVariableSupply, TypeBattery, TypeEPRAVS:
		return p.Type().String()
	default:
		return "INVALID"
	}
}

// DescribeContract describes an active contract given the PDO it was
// negotiated against and the RDO that selected it.
func DescribeContract(p PDO, r RequestDO) string {
	if r == EmptyRequestDO {
		return "No contract"
	}
	switch p.Type() {
	case TypeFixedSupply:
		return fmt.Sprintf("%s, operating %.2fA", Describe(p), float32(r.FixedOperatingCurrent())/1000)
	case TypePPS:
		return fmt.Sprintf("%s, requested %.2fV %.2fA", Describe(p), float32(r.PPSOutputVoltage())/1000, float32(r.PPSOutputCurrent())/1000)
	default:
		return Describe(p)
	}
}
