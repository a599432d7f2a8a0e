// Package diagram holds the in-memory model of a block diagram.
//
// A Graph owns every Block in a slice indexed by the block SID, so lookups
// during scheduling and emission are plain index operations. Unused SIDs are
// nil slots. Connections are stored twice: as the destination's input map and
// as the source's per-port fan-out list. Graph.Connect keeps both views in
// sync.
//
// Load builds a Graph from any tree that implements Element; the schematic
// package provides the XML implementation.
package diagram
