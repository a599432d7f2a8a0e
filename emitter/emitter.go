// Package emitter renders a scheduled diagram as a C step function.
package emitter

import (
	"fmt"
	"strings"

	"github.com/timzifer/stepgen/diagram"
)

// Options control naming of the generated symbols.
type Options struct {
	// Prefix names the state struct and prefixes every exported symbol.
	Prefix string
	// Header is included first; defaults to "<prefix>_run.h".
	Header string
	// Includes lists system headers included after Header.
	Includes []string
}

// DefaultPrefix is used when Options.Prefix is empty.
const DefaultPrefix = "nwocg"

// DefaultOptions returns the settings used by the reference runtime.
func DefaultOptions() Options {
	return Options{Prefix: DefaultPrefix, Includes: []string{"math.h"}}
}

func (o Options) normalized() Options {
	if o.Prefix == "" {
		o.Prefix = DefaultPrefix
	}
	if o.Header == "" {
		o.Header = o.Prefix + "_run.h"
	}
	return o
}

// Port direction flags in the external port table.
const (
	DirectionOutput = 0
	DirectionInput  = 1
)

// ExtPort is one entry of the external port table.
type ExtPort struct {
	Name      string
	Slot      string
	Direction int
}

type emitter struct {
	graph *diagram.Graph
	opts  Options
	out   *Artifact
}

// Generate renders g in the given order. Nothing is returned on error, so a
// failed generation never yields a partial artifact.
func Generate(g *diagram.Graph, order []int, opts Options) (*Artifact, error) {
	e := &emitter{graph: g, opts: opts.normalized(), out: &Artifact{}}

	blocks := make([]*diagram.Block, 0, len(order))
	var delays []*diagram.Block
	for _, sid := range order {
		block, ok := g.Block(sid)
		if !ok {
			return nil, fmt.Errorf("schedule references unknown block %d", sid)
		}
		blocks = append(blocks, block)
		if block.Kind == diagram.KindUnitDelay {
			delays = append(delays, block)
		}
	}

	ports, err := ExtPorts(g)
	if err != nil {
		return nil, err
	}

	e.header()
	e.state(blocks)
	e.init(delays)
	if err := e.step(blocks, delays); err != nil {
		return nil, err
	}
	e.extPorts(ports)
	return e.out, nil
}

func (e *emitter) slot(name string) string {
	return e.opts.Prefix + "." + name
}

func (e *emitter) header() {
	e.out.Append(fmt.Sprintf("#include \"%s\"", e.opts.Header), "")
	for _, inc := range e.opts.Includes {
		e.out.Append(fmt.Sprintf("#include <%s>", inc))
	}
	if len(e.opts.Includes) > 0 {
		e.out.Append("")
	}
}

func (e *emitter) state(blocks []*diagram.Block) {
	e.out.Append("static struct", "{")
	for _, block := range blocks {
		if block.HasStorage() {
			e.out.Append("    double " + block.Name + ";")
		}
	}
	e.out.Append("} "+e.opts.Prefix+";", "")
}

func (e *emitter) init(delays []*diagram.Block) {
	e.out.Append("void "+e.opts.Prefix+"_generated_init()", "{")
	for _, block := range delays {
		e.out.Append("    " + e.slot(block.Name) + " = 0.0;")
	}
	e.out.Append("}", "")
}

func (e *emitter) step(blocks, delays []*diagram.Block) error {
	e.out.Append("void "+e.opts.Prefix+"_generated_step()", "{")
	for _, block := range blocks {
		expr, ok, err := e.equation(block)
		if err != nil {
			return err
		}
		if ok {
			e.out.Append("    " + e.slot(block.Name) + " = " + expr + ";")
		}
	}

	e.out.Append("", "    // Update delay blocks state")
	for _, block := range delays {
		src, err := e.input(block, 1)
		if err != nil {
			return err
		}
		e.out.Append("    " + e.slot(block.Name) + " = " + src + ";")
	}
	e.out.Append("}", "")
	return nil
}

// equation returns the right-hand side computed for block during a step.
// Blocks without an equation of their own report ok == false.
func (e *emitter) equation(block *diagram.Block) (string, bool, error) {
	switch block.Kind {
	case diagram.KindSum:
		expr, err := e.sum(block)
		return expr, err == nil, err
	case diagram.KindGain:
		src, err := e.input(block, 1)
		if err != nil {
			return "", false, err
		}
		return src + " * " + block.GainLiteral(), true, nil
	case diagram.KindUnitDelay, diagram.KindInport, diagram.KindOutport, diagram.KindUnsupported:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("block %q (SID %d): no emitter for kind %s", block.Name, block.SID, block.Kind)
	}
}

func (e *emitter) sum(block *diagram.Block) (string, error) {
	first, err := e.input(block, 1)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(first)
	signs := block.Signs()
	for i := 1; i < len(signs); i++ {
		operand, err := e.input(block, i+1)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, " %c %s", signs[i], operand)
	}
	return b.String(), nil
}

func (e *emitter) input(block *diagram.Block, port int) (string, error) {
	name, err := InputSlot(e.graph, block, port)
	if err != nil {
		return "", err
	}
	return e.slot(name), nil
}

// InputSlot resolves the storage slot feeding the given input port.
func InputSlot(g *diagram.Graph, block *diagram.Block, port int) (string, error) {
	src, ok := block.Inputs[port]
	if !ok {
		return "", &diagram.UnresolvedInputError{Block: block.Name, SID: block.SID, Port: port}
	}
	source, ok := g.Block(src)
	if !ok {
		return "", &diagram.DanglingSourceError{Block: block.Name, SID: block.SID, Source: src}
	}
	return source.Name, nil
}

// ExtPorts builds the external port table: every Outport (ascending SID),
// then every Inport.
func ExtPorts(g *diagram.Graph) ([]ExtPort, error) {
	var outputs, inputs []ExtPort
	for _, block := range g.Blocks() {
		switch block.Kind {
		case diagram.KindOutport:
			if _, ok := block.Inputs[1]; !ok {
				return nil, &diagram.MissingConnectionError{Block: block.Name, SID: block.SID}
			}
			slot, err := InputSlot(g, block, 1)
			if err != nil {
				return nil, err
			}
			outputs = append(outputs, ExtPort{Name: block.Name, Slot: slot, Direction: DirectionOutput})
		case diagram.KindInport:
			inputs = append(inputs, ExtPort{Name: block.PortName(), Slot: block.Name, Direction: DirectionInput})
		}
	}
	return append(outputs, inputs...), nil
}

func (e *emitter) extPorts(ports []ExtPort) {
	p := e.opts.Prefix
	e.out.Append("static const " + p + "_ExtPort ext_ports[] = {")
	for _, port := range ports {
		e.out.Append(fmt.Sprintf("    { \"%s\", &%s, %d },", port.Name, e.slot(port.Slot), port.Direction))
	}
	e.out.Append(
		"    { 0, 0, 0 }",
		"};",
		"",
		"const "+p+"_ExtPort* const "+p+"_generated_ext_ports = ext_ports;",
		"const size_t "+p+"_generated_ext_ports_size = sizeof(ext_ports);",
	)
}
