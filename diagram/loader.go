package diagram

import (
	"fmt"
	"strconv"
	"strings"
)

// Element is the read-only view of a schematic tree node consumed by Load.
type Element interface {
	Attr(name string) (string, bool)
	Children(tag string) []Element
	Text() string
}

// Schematic element and attribute names.
const (
	tagSystem = "System"
	tagBlock  = "Block"
	tagLine   = "Line"
	tagBranch = "Branch"
	tagPort   = "Port"
	tagParam  = "P"

	attrSID  = "SID"
	attrType = "BlockType"
	attrName = "Name"

	paramSrc  = "Src"
	paramDst  = "Dst"
	paramName = "Name"
)

// Load builds a Graph from a schematic document whose root holds a System
// element. Blocks missing a required attribute and connections referencing
// unknown blocks are skipped and recorded in Graph.Warnings.
func Load(doc Element) (*Graph, error) {
	if doc == nil {
		return nil, &FormatError{Message: "missing <System> tag"}
	}
	systems := doc.Children(tagSystem)
	if len(systems) == 0 {
		return nil, &FormatError{Message: "missing <System> tag"}
	}
	system := systems[0]
	blocks := system.Children(tagBlock)

	maxSID := -1
	for _, el := range blocks {
		raw, ok := el.Attr(attrSID)
		if !ok {
			continue
		}
		sid, err := parseSID(raw)
		if err != nil {
			return nil, err
		}
		if sid > maxSID {
			maxSID = sid
		}
	}

	graph := NewGraph(maxSID)
	if maxSID < 0 {
		return graph, nil
	}

	for idx, el := range blocks {
		rawSID, hasSID := el.Attr(attrSID)
		blockType, hasType := el.Attr(attrType)
		name, hasName := el.Attr(attrName)
		if !hasSID || !hasType || !hasName {
			graph.warn(WarnBlockSkipped, -1, fmt.Sprintf("block element #%d misses one of SID, BlockType, Name", idx+1))
			continue
		}
		sid, err := parseSID(rawSID)
		if err != nil {
			return nil, err
		}
		block := NewBlock(sid, name, blockType)
		for _, p := range el.Children(tagParam) {
			key, ok := p.Attr(attrName)
			if !ok {
				continue
			}
			if text := p.Text(); text != "" {
				block.Params[key] = text
			}
		}
		if ports := el.Children(tagPort); len(ports) > 0 {
			if portName, ok := findParam(ports[0], paramName); ok {
				block.Params[ParamPortName] = portName
			}
		}
		if err := graph.Add(block); err != nil {
			return nil, err
		}
	}

	for _, line := range system.Children(tagLine) {
		src, ok := findParam(line, paramSrc)
		if !ok {
			continue
		}
		srcSID, srcPort, err := ParseEndpoint(src)
		if err != nil {
			return nil, err
		}
		dsts, err := lineDestinations(line)
		if err != nil {
			return nil, err
		}
		for _, dst := range dsts {
			graph.Connect(srcSID, srcPort, dst.SID, dst.Port)
		}
	}
	return graph, nil
}

// lineDestinations collects Dst endpoints of a line. Branch children take
// precedence over a line-level Dst and may themselves branch again.
func lineDestinations(el Element) ([]Destination, error) {
	branches := el.Children(tagBranch)
	if len(branches) == 0 {
		raw, ok := findParam(el, paramDst)
		if !ok {
			return nil, nil
		}
		sid, port, err := ParseEndpoint(raw)
		if err != nil {
			return nil, err
		}
		return []Destination{{SID: sid, Port: port}}, nil
	}
	var out []Destination
	for _, br := range branches {
		dsts, err := lineDestinations(br)
		if err != nil {
			return nil, err
		}
		out = append(out, dsts...)
	}
	return out, nil
}

func findParam(el Element, name string) (string, bool) {
	for _, p := range el.Children(tagParam) {
		if key, ok := p.Attr(attrName); ok && key == name {
			text := p.Text()
			return text, text != ""
		}
	}
	return "", false
}

// ParseEndpoint splits "<sid>#<segment>:<port>" into block and port numbers.
func ParseEndpoint(text string) (int, int, error) {
	hash := strings.IndexByte(text, '#')
	colon := strings.IndexByte(text, ':')
	if hash < 0 || colon < 0 || hash > colon {
		return 0, 0, &FormatError{Message: "Src/Dst: " + text}
	}
	sid, err := strconv.Atoi(strings.TrimSpace(text[:hash]))
	if err != nil {
		return 0, 0, &FormatError{Message: "Src/Dst block: " + text, Err: err}
	}
	port, err := strconv.Atoi(strings.TrimSpace(text[colon+1:]))
	if err != nil {
		return 0, 0, &FormatError{Message: "Src/Dst port: " + text, Err: err}
	}
	return sid, port, nil
}

func parseSID(raw string) (int, error) {
	sid, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &FormatError{Message: fmt.Sprintf("block SID %q", raw), Err: err}
	}
	if sid < 0 {
		return 0, &FormatError{Message: fmt.Sprintf("block SID %d is negative", sid)}
	}
	return sid, nil
}
