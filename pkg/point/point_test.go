package point

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameterNamesRoundTrip(t *testing.T) {
	for _, p := range Parameters() {
		parsed, ok := ParseParameter(p.String())
		require.True(t, ok, p.String())
		assert.Equal(t, p, parsed)
	}
	_, ok := ParseParameter("NOT_A_PARAMETER")
	assert.False(t, ok)
	assert.Equal(t, "Parameter(-1)", Parameter(-1).String())
}

func TestParameterTextMarshaling(t *testing.T) {
	text, err := IOChannel.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "IO_CHANNEL", string(text))

	var p Parameter
	require.NoError(t, p.UnmarshalText([]byte("ANC_5")))
	assert.Equal(t, Anc5, p)
	assert.Error(t, p.UnmarshalText([]byte("ANC_9")))
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("DigitalPoint")
	require.True(t, ok)
	assert.Equal(t, DigitalPoint, k)

	_, ok = ParseKind("Digital")
	assert.False(t, ok)
}

func TestMergeOverwritesFields(t *testing.T) {
	p := New(Batch{KKS: "X", Type: "AnalogPoint"})
	p.Merge(Batch{KKS: "X", OperatingRangeLow: "10"})

	assert.Equal(t, "AnalogPoint", p.Get(Type))
	assert.Equal(t, "10", p.Get(OperatingRangeLow))
	assert.True(t, p.Is(AnalogPoint))

	p.Merge(Batch{KKS: "X", OperatingRangeLow: "20"})
	assert.Equal(t, "20", p.Get(OperatingRangeLow))
}

func TestProvenanceOrdering(t *testing.T) {
	p := New(Batch{KKS: "X", AppearInFiles: "b.src"})
	p.Merge(Batch{KKS: "X", AppearInFiles: "a.xml"})
	p.Merge(Batch{KKS: "X", AppearInFiles: DbidFileName})
	p.Merge(Batch{KKS: "X", AppearInFiles: "a.xml"})

	assert.Equal(t, []string{DbidFileName, "a.xml", "b.src"}, p.Files())
	assert.Equal(t, "DBID.imp, a.xml, b.src", p.Get(AppearInFiles))
}

func TestProvenanceFlags(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		dbid      bool
		src       bool
		xml       bool
		historian bool
	}{
		{name: "dbid", file: "DBID.imp", dbid: true},
		{name: "graphics", file: "screen.src", src: true},
		{name: "graphics upper case", file: "PANEL.SRC", src: true},
		{name: "logic", file: "logic/sheet1.xml", xml: true},
		{name: "logic upper case", file: "logic/SHEET2.XML", xml: true},
		{name: "historian", file: "HistorianConfig.xml", historian: true},
		{name: "other", file: "notes.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(Batch{KKS: "X", AppearInFiles: tt.file})
			assert.Equal(t, tt.dbid, p.InDBID())
			assert.Equal(t, tt.src, p.InSource())
			assert.Equal(t, tt.xml, p.InLogic())
			assert.Equal(t, tt.historian, p.InHistorian())
		})
	}
}

func TestFlagsNeverUnset(t *testing.T) {
	p := New(Batch{KKS: "X", AppearInFiles: "DBID.imp"})
	p.Merge(Batch{KKS: "X", AppearInFiles: "a.src"})
	p.Merge(Batch{KKS: "X", Drop: "DROP1/DROP51"})
	assert.True(t, p.InDBID())
	assert.True(t, p.InSource())
}

func TestValuesCopy(t *testing.T) {
	p := New(Batch{KKS: "X", Drop: "DROP1/DROP51"})
	v := p.Values()
	v[Drop] = "changed"
	assert.Equal(t, "DROP1/DROP51", p.Get(Drop))
	assert.Equal(t, "X", v.KKS())
}
