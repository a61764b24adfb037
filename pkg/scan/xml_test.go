package scan

import (
	"testing"

	"github.com/pointaudit/pointaudit/pkg/point"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanLogic(t *testing.T) {
	text := `<sheet>
  <block point="TAG1" pin="IN1"/>
  <block point="" />
  <block point="OCB1234"/>
  <block point="TAG2"/>
  <block point="TAG1"/>
</sheet>`
	batches := ScanLogic("sheet.xml", text)
	assert.Equal(t, []string{"TAG1", "TAG2"}, kksOf(batches))
	for _, b := range batches {
		assert.Equal(t, "sheet.xml", b[point.AppearInFiles])
	}
}

func TestScanLogicUnterminatedValue(t *testing.T) {
	assert.Empty(t, ScanLogic("x.xml", `<block point="TAG`))
}

func TestScanHistorianSingle(t *testing.T) {
	batches := ScanHistorian("HistorianConfig.xml", `ScanGroup_Frequency="1" Point_Name="ABC.PV"`)
	require.Len(t, batches, 1)
	assert.Equal(t, point.Batch{
		point.KKS:                "ABC",
		point.ScangroupFrequency: "1",
		point.AppearInFiles:      "HistorianConfig.xml",
	}, batches[0])
}

func TestScanHistorianDocumentOrder(t *testing.T) {
	text := `<Point Point_Name="EARLY.PV"/>
<ScanGroup ScanGroup_Frequency="0.1">
  <Point Point_Name="A.PV"/>
  <Point Point_Name="B"/>
</ScanGroup>
<ScanGroup ScanGroup_Frequency="1">
  <Point Point_Name="C.PV"/>
  <Point Point_Name="A.PV"/>
</ScanGroup>`
	batches := ScanHistorian("HistorianConfig.xml", text)
	require.Len(t, batches, 4)

	got := map[string]string{}
	for _, b := range batches {
		got[b.KKS()] = b[point.ScangroupFrequency]
	}
	assert.Equal(t, []string{"EARLY", "A", "B", "C"}, kksOf(batches))
	assert.Equal(t, map[string]string{"EARLY": "", "A": "1", "B": "0.1", "C": "1"}, got)
}
