package lint

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timzifer/stepgen/config"
	"github.com/timzifer/stepgen/diagram"
)

type blockDef struct {
	sid       int
	blockType string
	name      string
	params    map[string]string
}

func graphOf(t *testing.T, defs []blockDef, wires ...[3]int) *diagram.Graph {
	t.Helper()
	maxSID := -1
	for _, def := range defs {
		if def.sid > maxSID {
			maxSID = def.sid
		}
	}
	g := diagram.NewGraph(maxSID)
	for _, def := range defs {
		block := diagram.NewBlock(def.sid, def.name, def.blockType)
		for k, v := range def.params {
			block.Params[k] = v
		}
		require.NoError(t, g.Add(block))
	}
	for _, w := range wires {
		require.True(t, g.Connect(w[0], 1, w[1], w[2]))
	}
	return g
}

func codes(warnings []diagram.Warning) []string {
	out := make([]string, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, w.Code)
	}
	return out
}

func TestCheckCleanDiagram(t *testing.T) {
	g := graphOf(t, []blockDef{
		{sid: 1, blockType: "Inport", name: "a"},
		{sid: 2, blockType: "Inport", name: "b"},
		{sid: 3, blockType: "Sum", name: "sum", params: map[string]string{diagram.ParamSumInputs: "+-"}},
		{sid: 4, blockType: "Gain", name: "k", params: map[string]string{diagram.ParamGain: "2.5"}},
		{sid: 5, blockType: "Outport", name: "y"},
	}, [3]int{1, 3, 1}, [3]int{2, 3, 2}, [3]int{3, 4, 1}, [3]int{4, 5, 1})

	require.Empty(t, Check(g, config.Default()))
}

func TestCheckNameCollision(t *testing.T) {
	g := graphOf(t, []blockDef{
		{sid: 1, blockType: "Inport", name: "Unit Delay"},
		{sid: 2, blockType: "UnitDelay", name: "Unit_Delay"},
		{sid: 3, blockType: "Outport", name: "Unit_Delay"},
	}, [3]int{1, 2, 1}, [3]int{2, 3, 1})

	warnings := Check(g, config.Default())
	require.Equal(t, []string{CodeNameCollision}, codes(warnings))
	require.Equal(t, 2, warnings[0].SID)
	require.Contains(t, warnings[0].Message, "block 1")
}

func TestCheckUnsupportedAndUnusedInport(t *testing.T) {
	g := graphOf(t, []blockDef{
		{sid: 1, blockType: "Inport", name: "idle"},
		{sid: 2, blockType: "Product", name: "mul"},
	})

	warnings := Check(g, config.Default())
	require.Equal(t, []string{CodeInportUnused, CodeBlockUnsupported}, codes(warnings))
	require.Contains(t, warnings[1].Message, `"Product"`)
}

func TestCheckSumSigns(t *testing.T) {
	g := graphOf(t, []blockDef{
		{sid: 1, blockType: "Inport", name: "a"},
		{sid: 2, blockType: "Sum", name: "bad_char", params: map[string]string{diagram.ParamSumInputs: "+|-"}},
		{sid: 3, blockType: "Sum", name: "leading", params: map[string]string{diagram.ParamSumInputs: "-+"}},
		{sid: 4, blockType: "Sum", name: "short"},
	},
		[3]int{1, 2, 1}, [3]int{1, 2, 2}, [3]int{1, 2, 3},
		[3]int{1, 3, 1}, [3]int{1, 3, 2},
		[3]int{1, 4, 1},
	)

	warnings := Check(g, config.Default())
	require.Equal(t, []string{CodeSumSigns, CodeSumSigns, CodeSumSigns}, codes(warnings))
	require.Equal(t, 2, warnings[0].SID)
	require.Contains(t, warnings[0].Message, "position 1")
	require.Equal(t, 3, warnings[1].SID)
	require.Contains(t, warnings[1].Message, "leading '-'")
	require.Equal(t, 4, warnings[2].SID)
	require.Contains(t, warnings[2].Message, "expects 2 inputs, 1 connected")
}

func TestCheckGainLiteral(t *testing.T) {
	cases := []struct {
		literal string
		warn    bool
	}{
		{literal: "0.01", warn: false},
		{literal: "-3", warn: false},
		{literal: "1e-3", warn: false},
		{literal: "2 * 0.5", warn: false},
		{literal: "(1 + 1) * 4", warn: false},
		{literal: "Kp", warn: true},
		{literal: `"fast"`, warn: true},
		{literal: "1 +", warn: true},
		{literal: "true", warn: true},
	}
	for _, tc := range cases {
		t.Run(tc.literal, func(t *testing.T) {
			g := graphOf(t, []blockDef{
				{sid: 1, blockType: "Inport", name: "u"},
				{sid: 2, blockType: "Gain", name: "k", params: map[string]string{diagram.ParamGain: tc.literal}},
			}, [3]int{1, 2, 1})

			warnings := Check(g, config.Default())
			if !tc.warn {
				require.Empty(t, warnings)
				return
			}
			require.Equal(t, []string{CodeGainLiteral}, codes(warnings))
			require.Equal(t, 2, warnings[0].SID)
		})
	}
}

func TestCheckIncludesLoaderWarningsAndHonoursDisabled(t *testing.T) {
	g := graphOf(t, []blockDef{
		{sid: 1, blockType: "Inport", name: "idle"},
		{sid: 2, blockType: "Outport", name: "y"},
	})
	require.False(t, g.Connect(7, 1, 2, 1))

	warnings := Check(g, config.Default())
	require.Equal(t, []string{diagram.WarnConnectionDropped, CodeInportUnused}, codes(warnings))

	cfg := config.Default()
	cfg.Lint.Disabled = []string{CodeInportUnused, diagram.WarnConnectionDropped}
	require.Nil(t, Check(g, cfg))
	require.Len(t, g.Warnings, 1)
}

func TestEnforce(t *testing.T) {
	warnings := []diagram.Warning{
		{Code: CodeInportUnused, SID: 1, Message: "inport \"idle\" feeds no block"},
		{Code: CodeGainLiteral, SID: 4, Message: "gain \"Kp\" is not a constant expression"},
	}
	require.NoError(t, Enforce(warnings, false))
	require.NoError(t, Enforce(nil, true))

	err := Enforce(warnings, true)
	var lintErr *LintError
	require.True(t, errors.As(err, &lintErr))
	require.Len(t, lintErr.Warnings, 2)
	require.Contains(t, err.Error(), "2 warnings")

	err = Enforce(warnings[:1], true)
	require.Equal(t, "lint: inport.unused: block 1: inport \"idle\" feeds no block", err.Error())
}
