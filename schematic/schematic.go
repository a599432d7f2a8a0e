// Package schematic reads XML block diagrams into the tree view consumed by
// diagram.Load.
package schematic

import (
	"fmt"
	"io"

	"github.com/beevik/etree"

	"github.com/timzifer/stepgen/diagram"
)

// Node adapts an etree element to diagram.Element.
type Node struct {
	el *etree.Element
}

var _ diagram.Element = Node{}

// Attr returns the value of the named attribute.
func (n Node) Attr(name string) (string, bool) {
	if n.el == nil {
		return "", false
	}
	attr := n.el.SelectAttr(name)
	if attr == nil {
		return "", false
	}
	return attr.Value, true
}

// Children returns the direct child elements with the given tag.
func (n Node) Children(tag string) []diagram.Element {
	if n.el == nil {
		return nil
	}
	children := n.el.SelectElements(tag)
	out := make([]diagram.Element, 0, len(children))
	for _, child := range children {
		out = append(out, Node{el: child})
	}
	return out
}

// Text returns the character data of the element.
func (n Node) Text() string {
	if n.el == nil {
		return ""
	}
	return n.el.Text()
}

// ReadFile parses the schematic stored at path.
func ReadFile(path string) (diagram.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, &diagram.FormatError{Message: "can not open XML file: " + path, Err: err}
	}
	return Node{el: &doc.Element}, nil
}

// Read parses a schematic from r.
func Read(r io.Reader) (diagram.Element, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, &diagram.FormatError{Message: "can not parse XML", Err: err}
	}
	return Node{el: &doc.Element}, nil
}

// Parse parses a schematic held in memory.
func Parse(data []byte) (diagram.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &diagram.FormatError{Message: "can not parse XML", Err: err}
	}
	return Node{el: &doc.Element}, nil
}

// LoadFile reads and loads a schematic in one call.
func LoadFile(path string) (*diagram.Graph, error) {
	root, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	graph, err := diagram.Load(root)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return graph, nil
}
