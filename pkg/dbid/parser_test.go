package dbid

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const unitFixture = `OVPT_FORMAT=2.1
(TYPE="System" NAME="SYSTEM"
 []
 (TYPE="Network" NAME="NET"
  []
  (TYPE="Unit" NAME="UNIT1"
   []
   (TYPE="Drop" NAME="DROP11/DROP61"
    [DESCRIPTION="boiler feed"]
    (TYPE="IoDevice" NAME="I/O Device 0 IOIC"
     []
     (TYPE="IoDevice" NAME="I/O Interface 1"
      []
      (TYPE="Branch" NAME="Branch 1"
       []
       (TYPE="RSlot" NAME="Slot 3"
        []
        (TYPE="RModule" NAME="Module 3"
         [POINT_NAME="MP_11_1_1_3"
         EVENT_TAGGING_ENABLE="0x0001"]
        )
       )
      )
     )
     (TYPE="IoDevice" NAME="I/O Interface 3"
      []
      (TYPE="Branch" NAME="Branch 1"
       []
       (TYPE="RSlot" NAME="Slot 1"
        []
        (TYPE="RModule" NAME="Module 1"
         [POINT_NAME="ignored"]
        )
       )
      )
     )
    )
    (TYPE="ConfigController" NAME="Controller"
     []
     (TYPE="ConfigDPUCtrlTask" NAME="Control Task 1"
      [periodtime="100"]
     )
     (TYPE="ConfigDPUCtrlTask" NAME="Control Task 2"
      [periodtime="1000"]
     )
    )
    (TYPE="DigitalPoint" NAME="10LAB01CP001XQ01"
     [IO_LOCATION="1.1.3"
     IO_CHANNEL="2"
     SOE_POINT="1"
     SOE_ENABLED="1"]
    )
    (TYPE="AnalogPoint" NAME="10LAB01CP002XQ01"
     [OPERATING_RANGE_LOW="0"
     LOW_ENGINEERING_LIMIT="5"]
    )
   )
  )
 )
)
`

func TestParseUnitLayout(t *testing.T) {
	tree, err := Parse(unitFixture)
	require.NoError(t, err)

	unit := tree.Unit()
	require.NotEqual(t, NoNode, unit)
	assert.Equal(t, "UNIT1", tree.Node(unit).Name)

	drops := tree.Drops(unit)
	require.Len(t, drops, 1)
	drop := drops[0]
	assert.Equal(t, "DROP11/DROP61", tree.Node(drop).Name)
	assert.Equal(t, "11", DropNumber(tree.Node(drop).Name))

	description, ok := tree.Param(drop, "DESCRIPTION")
	require.True(t, ok)
	assert.Equal(t, "boiler feed", description)

	modules := tree.Modules(drop)
	require.Len(t, modules, 1, "interface 3 is not scanned")
	assert.Equal(t, "1.1.3", modules[0].Location())
	assert.Equal(t, "MP_11_1_1_3", ModulePointName("11", modules[0]))

	tasks := tree.ControlTasks(drop)
	require.Len(t, tasks, 2)
	assert.Equal(t, "1", tasks[0].Index)
	period, ok := tree.Param(tasks[1].Node, PeriodTimeParam)
	require.True(t, ok)
	assert.Equal(t, "1000", period)
}

func TestParseWithoutHeaderNewline(t *testing.T) {
	tree, err := Parse("OVPT_FORMAT=2.1")
	require.NoError(t, err)
	assert.Equal(t, 1, tree.Len())
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
		line    int
	}{
		{
			name:    "unterminated quote",
			input:   "H\n(TYPE=\"Drop\" NAME=\"D\n[]\n)\n",
			message: "unterminated quoted value",
			line:    2,
		},
		{
			name:    "missing assign",
			input:   "H\n(TYPE=\"Drop\" NAME \"D\" [])",
			message: "expected '='",
			line:    2,
		},
		{
			name:    "empty keyword",
			input:   "H\n(TYPE=\"Drop\" NAME=\"D\"\n [=\"x\"])",
			message: "empty keyword",
			line:    3,
		},
		{
			name:    "missing object end",
			input:   "H\n(TYPE=\"Drop\" NAME=\"D\" []",
			message: "end of input",
			line:    2,
		},
		{
			name:    "trailing garbage",
			input:   "H\n(TYPE=\"Drop\" NAME=\"D\" [])\n\nxyz",
			message: "expected '('",
			line:    4,
		},
		{
			name:    "unquoted value",
			input:   "H\n(TYPE=Drop NAME=\"D\" [])",
			message: "expected quoted value",
			line:    2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := Parse(tt.input)
			require.Error(t, err)
			assert.Nil(t, tree)
			assert.True(t, errors.Is(err, ErrMalformedInput))

			var syntaxErr *SyntaxError
			require.True(t, errors.As(err, &syntaxErr))
			assert.Contains(t, syntaxErr.Msg, tt.message)
			assert.Equal(t, tt.line, syntaxErr.Line)
		})
	}
}

func TestParseMaxDepth(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("H\n")
	for i := 0; i < 5; i++ {
		sb.WriteString(`(TYPE="T" NAME="N" `)
	}
	for i := 0; i < 5; i++ {
		sb.WriteString(")")
	}

	_, err := Parse(sb.String(), WithMaxDepth(4))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedInput))

	tree, err := Parse(sb.String(), WithMaxDepth(5))
	require.NoError(t, err)
	assert.Equal(t, 6, tree.Len())
}

func TestParseProgress(t *testing.T) {
	var reported []int
	_, err := Parse(unitFixture, WithProgress(func(percent int) {
		reported = append(reported, percent)
	}))
	require.NoError(t, err)
	require.NotEmpty(t, reported)
	assert.Equal(t, 100, reported[len(reported)-1])
	for i := 1; i < len(reported); i++ {
		assert.Greater(t, reported[i], reported[i-1])
	}
}

func TestParseUnicodeKeyword(t *testing.T) {
	tree, err := Parse("H\n(TYPE=\"Drop\" NAME=\"D\" [ОПИСАНИЕ=\"насос\" a.b-c_d=\"1\"])")
	require.NoError(t, err)
	obj := tree.Children(tree.Root())[0]
	value, ok := tree.Param(obj, "ОПИСАНИЕ")
	require.True(t, ok)
	assert.Equal(t, "насос", value)
	value, ok = tree.Param(obj, "a.b-c_d")
	require.True(t, ok)
	assert.Equal(t, "1", value)
}
