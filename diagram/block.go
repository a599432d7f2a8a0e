package diagram

import (
	"sort"
	"strings"
	"unicode"
)

// Kind identifies the behaviour of a block inside the generated step function.
type Kind uint8

const (
	// KindUnsupported marks a block type outside the catalogue. Such blocks
	// still own a storage slot but never produce an equation.
	KindUnsupported Kind = iota
	// KindSum adds or subtracts its inputs according to the Inputs sign pattern.
	KindSum
	// KindGain multiplies its single input by a constant factor.
	KindGain
	// KindUnitDelay outputs the input it received one step earlier.
	KindUnitDelay
	// KindInport is a value written by the host before each step.
	KindInport
	// KindOutport exposes the value of the block feeding it.
	KindOutport
)

// Kinds lists every catalogued kind in declaration order.
var Kinds = []Kind{KindUnsupported, KindSum, KindGain, KindUnitDelay, KindInport, KindOutport}

// ParseKind maps a BlockType attribute onto the catalogue.
func ParseKind(blockType string) Kind {
	switch blockType {
	case "Sum":
		return KindSum
	case "Gain":
		return KindGain
	case "UnitDelay":
		return KindUnitDelay
	case "Inport":
		return KindInport
	case "Outport":
		return KindOutport
	default:
		return KindUnsupported
	}
}

func (k Kind) String() string {
	switch k {
	case KindSum:
		return "Sum"
	case KindGain:
		return "Gain"
	case KindUnitDelay:
		return "UnitDelay"
	case KindInport:
		return "Inport"
	case KindOutport:
		return "Outport"
	default:
		return "Unsupported"
	}
}

// Well-known parameter names.
const (
	ParamSumInputs = "Inputs"
	ParamGain      = "Gain"
	ParamPortName  = "PortName"
)

const (
	defaultSumSigns = "++"
	defaultGain     = "1.0"
)

// Block is a single node of the diagram.
type Block struct {
	SID    int
	Kind   Kind
	Type   string
	Name   string
	Params map[string]string
	// Inputs maps an input port to the SID of the block feeding it.
	Inputs map[int]int
}

// NewBlock creates a block with a sanitised name.
func NewBlock(sid int, name, blockType string) *Block {
	return &Block{
		SID:    sid,
		Kind:   ParseKind(blockType),
		Type:   blockType,
		Name:   SanitizeName(name),
		Params: make(map[string]string),
		Inputs: make(map[int]int),
	}
}

// SanitizeName replaces whitespace so the name can be used as a C identifier.
func SanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, name)
}

// Param returns a parameter value and whether it was declared.
func (b *Block) Param(name string) (string, bool) {
	v, ok := b.Params[name]
	return v, ok
}

// Signs returns the Sum sign pattern, including the ignored leading character.
func (b *Block) Signs() string {
	if v, ok := b.Params[ParamSumInputs]; ok {
		return v
	}
	return defaultSumSigns
}

// GainLiteral returns the textual Gain factor.
func (b *Block) GainLiteral() string {
	if v, ok := b.Params[ParamGain]; ok {
		return v
	}
	return defaultGain
}

// PortName is the external name of an Inport.
func (b *Block) PortName() string {
	if v, ok := b.Params[ParamPortName]; ok && v != "" {
		return v
	}
	return b.Name
}

// InputPorts returns the connected input ports in ascending order.
func (b *Block) InputPorts() []int {
	ports := make([]int, 0, len(b.Inputs))
	for port := range b.Inputs {
		ports = append(ports, port)
	}
	sort.Ints(ports)
	return ports
}

// HasStorage reports whether the block owns a slot in the state struct.
func (b *Block) HasStorage() bool {
	return b.Kind != KindOutport
}
