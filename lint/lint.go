// Package lint reports diagram constructs that load and schedule fine but
// are likely to produce C code that does not behave as drawn.
package lint

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/shopspring/decimal"

	"github.com/timzifer/stepgen/config"
	"github.com/timzifer/stepgen/diagram"
)

// Lint codes.
const (
	CodeNameCollision    = "name.collision"
	CodeBlockUnsupported = "block.unsupported"
	CodeSumSigns         = "sum.signs"
	CodeGainLiteral      = "gain.literal"
	CodeInportUnused     = "inport.unused"
)

// LintError aborts a strict run that produced warnings.
type LintError struct {
	Warnings []diagram.Warning
}

func (e *LintError) Error() string {
	if len(e.Warnings) == 1 {
		return "lint: " + e.Warnings[0].String()
	}
	return fmt.Sprintf("lint: %d warnings, first: %s", len(e.Warnings), e.Warnings[0])
}

// Check returns the warnings recorded while loading g followed by the lint
// findings, in ascending SID order per check. Codes disabled in cfg are
// left out.
func Check(g *diagram.Graph, cfg *config.Config) []diagram.Warning {
	var found []diagram.Warning
	found = append(found, g.Warnings...)
	found = append(found, nameCollisions(g)...)
	for _, block := range g.Blocks() {
		switch block.Kind {
		case diagram.KindUnsupported:
			found = append(found, diagram.Warning{
				Code:    CodeBlockUnsupported,
				SID:     block.SID,
				Message: fmt.Sprintf("block type %q has no equation, %q keeps its initial value", block.Type, block.Name),
			})
		case diagram.KindSum:
			found = append(found, sumSigns(block)...)
		case diagram.KindGain:
			if w, ok := gainLiteral(block); ok {
				found = append(found, w)
			}
		case diagram.KindInport:
			if len(g.Fanout(block.SID)) == 0 {
				found = append(found, diagram.Warning{
					Code:    CodeInportUnused,
					SID:     block.SID,
					Message: fmt.Sprintf("inport %q feeds no block", block.Name),
				})
			}
		}
	}

	result := found[:0]
	for _, w := range found {
		if cfg.LintDisabled(w.Code) {
			continue
		}
		result = append(result, w)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// Enforce turns warnings into a LintError when strict is set.
func Enforce(warnings []diagram.Warning, strict bool) error {
	if !strict || len(warnings) == 0 {
		return nil
	}
	return &LintError{Warnings: append([]diagram.Warning(nil), warnings...)}
}

func nameCollisions(g *diagram.Graph) []diagram.Warning {
	var found []diagram.Warning
	owners := make(map[string]int)
	for _, block := range g.Blocks() {
		if !block.HasStorage() {
			continue
		}
		if owner, ok := owners[block.Name]; ok {
			found = append(found, diagram.Warning{
				Code:    CodeNameCollision,
				SID:     block.SID,
				Message: fmt.Sprintf("name %q is already used by block %d", block.Name, owner),
			})
			continue
		}
		owners[block.Name] = block.SID
	}
	return found
}

func sumSigns(block *diagram.Block) []diagram.Warning {
	var found []diagram.Warning
	signs := block.Signs()
	if idx := strings.IndexFunc(signs, func(r rune) bool { return r != '+' && r != '-' }); idx >= 0 {
		found = append(found, diagram.Warning{
			Code:    CodeSumSigns,
			SID:     block.SID,
			Message: fmt.Sprintf("sign pattern %q contains %q at position %d", signs, signs[idx], idx),
		})
	} else if strings.HasPrefix(signs, "-") {
		found = append(found, diagram.Warning{
			Code:    CodeSumSigns,
			SID:     block.SID,
			Message: fmt.Sprintf("leading '-' of sign pattern %q is not applied to input 1", signs),
		})
	}
	if len(signs) != len(block.Inputs) {
		found = append(found, diagram.Warning{
			Code:    CodeSumSigns,
			SID:     block.SID,
			Message: fmt.Sprintf("sign pattern %q expects %d inputs, %d connected", signs, len(signs), len(block.Inputs)),
		})
	}
	return found
}

func gainLiteral(block *diagram.Block) (diagram.Warning, bool) {
	literal := strings.TrimSpace(block.GainLiteral())
	if _, err := decimal.NewFromString(literal); err == nil {
		return diagram.Warning{}, false
	}

	warn := func(format string, args ...interface{}) (diagram.Warning, bool) {
		return diagram.Warning{
			Code:    CodeGainLiteral,
			SID:     block.SID,
			Message: fmt.Sprintf("gain %q ", literal) + fmt.Sprintf(format, args...),
		}, true
	}
	if literal == "" {
		return warn("is empty")
	}

	env := map[string]interface{}{}
	program, err := expr.Compile(literal, expr.Env(env))
	if err != nil {
		return warn("is not a constant expression: %v", err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return warn("cannot be evaluated: %v", err)
	}
	switch out.(type) {
	case int, int64, float64:
		return diagram.Warning{}, false
	default:
		return warn("evaluates to %T, want a number", out)
	}
}
