package diagram

import (
	"fmt"
	"strings"
)

// FormatError reports malformed or missing structural elements of a schematic.
type FormatError struct {
	Message string
	Err     error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid format: %s: %v", e.Message, e.Err)
	}
	return "invalid format: " + e.Message
}

func (e *FormatError) Unwrap() error { return e.Err }

// CycleError reports a dependency cycle not broken by a UnitDelay.
type CycleError struct {
	Scheduled int
	Total     int
	// Blocked lists the SIDs that never became ready.
	Blocked []int
}

func (e *CycleError) Error() string {
	ids := make([]string, 0, len(e.Blocked))
	for _, sid := range e.Blocked {
		ids = append(ids, fmt.Sprint(sid))
	}
	return fmt.Sprintf("graph contains a cycle: scheduled %d of %d blocks, blocked: [%s]", e.Scheduled, e.Total, strings.Join(ids, " "))
}

// UnresolvedInputError reports an input port without a recorded source.
type UnresolvedInputError struct {
	Block string
	SID   int
	Port  int
}

func (e *UnresolvedInputError) Error() string {
	return fmt.Sprintf("block %q (SID %d) has no connection to input port %d", e.Block, e.SID, e.Port)
}

// DanglingSourceError reports an input whose source block does not exist.
type DanglingSourceError struct {
	Block  string
	SID    int
	Source int
}

func (e *DanglingSourceError) Error() string {
	return fmt.Sprintf("source block with SID %d feeding %q (SID %d) not found", e.Source, e.Block, e.SID)
}

// MissingConnectionError reports an Outport with nothing connected to it.
type MissingConnectionError struct {
	Block string
	SID   int
}

func (e *MissingConnectionError) Error() string {
	return fmt.Sprintf("outport %q (SID %d) has no input connection", e.Block, e.SID)
}
