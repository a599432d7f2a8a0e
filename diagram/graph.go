package diagram

import (
	"fmt"
	"sort"
)

// Destination is the receiving end of a connection.
type Destination struct {
	SID  int
	Port int
}

// Warning describes input that was tolerated instead of rejected.
type Warning struct {
	Code    string
	SID     int
	Message string
}

func (w Warning) String() string {
	if w.SID >= 0 {
		return fmt.Sprintf("%s: block %d: %s", w.Code, w.SID, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// Warning codes recorded while building a graph.
const (
	WarnBlockSkipped      = "block.skipped"
	WarnConnectionDropped = "connection.dropped"
	WarnInputReassigned   = "input.reassigned"
)

// Graph owns all blocks of a diagram, indexed by SID.
type Graph struct {
	blocks  []*Block
	outputs []map[int][]Destination

	Warnings []Warning
}

// NewGraph creates a graph able to hold SIDs 0..maxSID.
func NewGraph(maxSID int) *Graph {
	if maxSID < 0 {
		return &Graph{}
	}
	return &Graph{
		blocks:  make([]*Block, maxSID+1),
		outputs: make([]map[int][]Destination, maxSID+1),
	}
}

// Add stores a block in its slot, replacing any previous occupant.
func (g *Graph) Add(b *Block) error {
	if b == nil {
		return fmt.Errorf("block must not be nil")
	}
	if b.SID < 0 || b.SID >= len(g.blocks) {
		return fmt.Errorf("block %d outside graph capacity %d", b.SID, len(g.blocks))
	}
	g.blocks[b.SID] = b
	return nil
}

// Block returns the block stored under sid.
func (g *Graph) Block(sid int) (*Block, bool) {
	if sid < 0 || sid >= len(g.blocks) || g.blocks[sid] == nil {
		return nil, false
	}
	return g.blocks[sid], true
}

// Cap is the size of the SID index.
func (g *Graph) Cap() int { return len(g.blocks) }

// Blocks returns the non-empty slots in ascending SID order.
func (g *Graph) Blocks() []*Block {
	out := make([]*Block, 0, len(g.blocks))
	for _, b := range g.blocks {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}

// Len counts the non-empty slots.
func (g *Graph) Len() int {
	n := 0
	for _, b := range g.blocks {
		if b != nil {
			n++
		}
	}
	return n
}

// Connect wires src:srcPort to dst:dstPort. Connections touching an unknown
// block are dropped and reported as a warning.
func (g *Graph) Connect(src, srcPort, dst, dstPort int) bool {
	if _, ok := g.Block(src); !ok {
		g.warn(WarnConnectionDropped, -1, fmt.Sprintf("source block %d of connection %d:%d -> %d:%d does not exist", src, src, srcPort, dst, dstPort))
		return false
	}
	target, ok := g.Block(dst)
	if !ok {
		g.warn(WarnConnectionDropped, -1, fmt.Sprintf("destination block %d of connection %d:%d -> %d:%d does not exist", dst, src, srcPort, dst, dstPort))
		return false
	}
	if prev, exists := target.Inputs[dstPort]; exists {
		g.unlink(prev, dst, dstPort)
		g.warn(WarnInputReassigned, dst, fmt.Sprintf("input port %d re-assigned from block %d to block %d", dstPort, prev, src))
	}
	if g.outputs[src] == nil {
		g.outputs[src] = make(map[int][]Destination)
	}
	g.outputs[src][srcPort] = append(g.outputs[src][srcPort], Destination{SID: dst, Port: dstPort})
	target.Inputs[dstPort] = src
	return true
}

func (g *Graph) unlink(src, dst, dstPort int) {
	ports := g.outputs[src]
	for port, dests := range ports {
		kept := dests[:0]
		for _, d := range dests {
			if d.SID == dst && d.Port == dstPort {
				continue
			}
			kept = append(kept, d)
		}
		if len(kept) == 0 {
			delete(ports, port)
			continue
		}
		ports[port] = kept
	}
}

// OutputPorts lists the output ports of sid that carry at least one connection.
func (g *Graph) OutputPorts(sid int) []int {
	if sid < 0 || sid >= len(g.outputs) {
		return nil
	}
	ports := make([]int, 0, len(g.outputs[sid]))
	for port := range g.outputs[sid] {
		ports = append(ports, port)
	}
	sort.Ints(ports)
	return ports
}

// Destinations returns the fan-out list of sid:port in insertion order.
func (g *Graph) Destinations(sid, port int) []Destination {
	if sid < 0 || sid >= len(g.outputs) {
		return nil
	}
	return g.outputs[sid][port]
}

// Fanout returns every destination of sid, ordered by output port and then
// by insertion order.
func (g *Graph) Fanout(sid int) []Destination {
	var out []Destination
	for _, port := range g.OutputPorts(sid) {
		out = append(out, g.outputs[sid][port]...)
	}
	return out
}

// Connections counts recorded connections.
func (g *Graph) Connections() int {
	n := 0
	for _, b := range g.blocks {
		if b != nil {
			n += len(b.Inputs)
		}
	}
	return n
}

func (g *Graph) warn(code string, sid int, message string) {
	g.Warnings = append(g.Warnings, Warning{Code: code, SID: sid, Message: message})
}
