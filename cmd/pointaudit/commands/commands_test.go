package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dbidText = `OVPT_FORMAT=2.1
(TYPE="Unit" NAME="UNIT1"
 []
 (TYPE="Drop" NAME="DROP11/DROP61"
  []
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
       EVENT_TAGGING_ENABLE="0x0000"]
      )
     )
    )
   )
  )
  (TYPE="DigitalPoint" NAME="10LAB01CP001XQ01"
   [IO_LOCATION="1.1.3"
   IO_CHANNEL="1"
   SOE_POINT="1"
   SOE_ENABLED="1"]
  )
 )
)
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, verbose, jsonOutput, metricsAddr = "", false, false, ""
	cmd := newRootCommand("test", "none", "today")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeUnit(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "DBID.imp"), []byte(dbidText), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "graphics"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "graphics", "a.src"),
		[]byte("\\10LAB01CP001XQ01\\\n\\10LAB01CP009XQ01\\\nBACKGROUND\n Macro 12\n"), 0o644))
	return dir
}

func TestRulesCommand(t *testing.T) {
	out, err := run(t, "rules", "--json")
	require.NoError(t, err)

	var rules []ruleOutput
	require.NoError(t, json.Unmarshal([]byte(out), &rules))
	require.Len(t, rules, 12)
	assert.Equal(t, "NOT_IN_SRC_XML", rules[1].ID)
	assert.Equal(t, "dbid && (src || xml)", rules[1].Gate)

	out, err = run(t, "rules", "--details")
	require.NoError(t, err)
	assert.Contains(t, out, "SOE_INPUT_ERRORS")
	assert.Contains(t, out, "fields: KKS")
}

func TestValidateCommand(t *testing.T) {
	dir := writeUnit(t)
	db := filepath.Join(dir, "runs.db")

	out, err := run(t, "validate", "--json", "--save", "--db", db,
		"--dbid", filepath.Join(dir, "DBID.imp"),
		"--graphics", filepath.Join(dir, "graphics"),
		"--rules", "not_in_dbid")
	require.NoError(t, err)

	var result validateOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 2, result.Run.Points)
	require.Len(t, result.Rules, 1)
	assert.Equal(t, "NOT_IN_DBID", result.Rules[0].Rule)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "10LAB01CP009XQ01", result.Diagnostics[0].KKS)
	require.Len(t, result.Background, 1)

	out, err = run(t, "history", "--db", db, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, result.Run.ID)

	out, err = run(t, "history", "show", "latest", "--db", db, "--rule", "NOT_IN_DBID")
	require.NoError(t, err)
	assert.Contains(t, out, "10LAB01CP009XQ01")
	assert.Contains(t, out, "point is absent from DBID")
}

func TestValidateCommandErrors(t *testing.T) {
	_, err := run(t, "validate", "--rules", "NOPE")
	assert.ErrorContains(t, err, "unknown rule")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "DBID.imp"), []byte("OVPT_FORMAT=2.1\n(TYPE=\"Unit\""), 0o644))
	_, err = run(t, "validate", "--dbid", filepath.Join(dir, "DBID.imp"))
	assert.Error(t, err)
}

func TestExportDbidCommand(t *testing.T) {
	dir := writeUnit(t)
	output := filepath.Join(dir, "out.imp")

	_, err := run(t, "export-dbid", "--dbid", filepath.Join(dir, "DBID.imp"))
	assert.ErrorContains(t, err, "--output is required")

	_, err = run(t, "export-dbid", "--dbid", filepath.Join(dir, "DBID.imp"), "-o", output)
	require.NoError(t, err)
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), `EVENT_TAGGING_ENABLE="0x0001"`)
}

func TestBackgroundCommand(t *testing.T) {
	dir := writeUnit(t)
	graphics := filepath.Join(dir, "graphics")

	out, err := run(t, "background", "--graphics", graphics)
	require.NoError(t, err)
	assert.Contains(t, out, "Macro 12")

	out, err = run(t, "background", "--graphics", graphics, "--ignore", "Macro 12")
	require.NoError(t, err)
	assert.Contains(t, out, "No background issues")
}
