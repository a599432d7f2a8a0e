// Package scheduler orders the blocks of a diagram so every block follows the
// blocks feeding it.
package scheduler

import (
	"github.com/timzifer/stepgen/diagram"
)

// Order returns the SIDs of all blocks in evaluation order using Kahn's
// algorithm. UnitDelay blocks start ready because their output is last
// step's input. Ready blocks are taken first-in first-out; the initial queue
// follows ascending SID and fan-out is walked by ascending output port.
func Order(g *diagram.Graph) ([]int, error) {
	blocks := g.Blocks()
	inDegree := make([]int, g.Cap())
	queue := make([]int, 0, len(blocks))

	for _, block := range blocks {
		if block.Kind != diagram.KindUnitDelay {
			inDegree[block.SID] = len(block.Inputs)
		}
		if inDegree[block.SID] == 0 {
			queue = append(queue, block.SID)
		}
	}

	ordered := make([]int, 0, len(blocks))
	for len(queue) > 0 {
		sid := queue[0]
		queue = queue[1:]
		ordered = append(ordered, sid)
		for _, dst := range g.Fanout(sid) {
			inDegree[dst.SID]--
			if inDegree[dst.SID] == 0 {
				queue = append(queue, dst.SID)
			}
		}
	}

	if len(ordered) < len(blocks) {
		return nil, cycleError(blocks, ordered)
	}
	return ordered, nil
}

func cycleError(blocks []*diagram.Block, ordered []int) error {
	done := make(map[int]struct{}, len(ordered))
	for _, sid := range ordered {
		done[sid] = struct{}{}
	}
	blocked := make([]int, 0, len(blocks)-len(ordered))
	for _, block := range blocks {
		if _, ok := done[block.SID]; !ok {
			blocked = append(blocked, block.SID)
		}
	}
	return &diagram.CycleError{Scheduled: len(ordered), Total: len(blocks), Blocked: blocked}
}
