package schematic

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timzifer/stepgen/diagram"
)

func TestLoadFilePIController(t *testing.T) {
	g, err := LoadFile(filepath.Join("testdata", "pi_controller.xml"))
	require.NoError(t, err)
	require.Equal(t, 10, g.Len())
	require.Equal(t, 11, g.Connections())

	delay, ok := g.Block(7)
	require.True(t, ok)
	require.Equal(t, "Unit_Delay1", delay.Name)
	require.Equal(t, diagram.KindUnitDelay, delay.Kind)
	require.Equal(t, map[int]int{1: 8}, delay.Inputs)

	add1, _ := g.Block(3)
	require.Equal(t, "+-", add1.Signs())

	require.Len(t, g.Warnings, 1)
	require.Equal(t, diagram.WarnConnectionDropped, g.Warnings[0].Code)
}

func TestParsePortName(t *testing.T) {
	root, err := Parse([]byte(`<System>
  <Block BlockType="Inport" Name="In1" SID="1">
    <Port>
      <P Name="PortNumber">1</P>
      <P Name="Name">speed</P>
    </Port>
  </Block>
</System>`))
	require.NoError(t, err)

	g, err := diagram.Load(root)
	require.NoError(t, err)
	in, ok := g.Block(1)
	require.True(t, ok)
	require.Equal(t, "speed", in.PortName())
}

func TestReadMissingSystem(t *testing.T) {
	root, err := Read(strings.NewReader(`<Model><Block SID="1"/></Model>`))
	require.NoError(t, err)
	_, err = diagram.Load(root)
	var formatErr *diagram.FormatError
	require.ErrorAs(t, err, &formatErr)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.xml"))
	var formatErr *diagram.FormatError
	require.ErrorAs(t, err, &formatErr)
}

func TestNodeAttributes(t *testing.T) {
	root, err := Parse([]byte(`<System><Block SID="4" Name="x">text</Block></System>`))
	require.NoError(t, err)
	system := root.Children("System")
	require.Len(t, system, 1)
	blocks := system[0].Children("Block")
	require.Len(t, blocks, 1)

	sid, ok := blocks[0].Attr("SID")
	require.True(t, ok)
	require.Equal(t, "4", sid)
	_, ok = blocks[0].Attr("BlockType")
	require.False(t, ok)
	require.Equal(t, "text", blocks[0].Text())
}
