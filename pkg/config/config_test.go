package config

import (
	"bytes"
	"context"
	"testing"

	"github.com/pointaudit/pointaudit/pkg/point"
	"github.com/pointaudit/pointaudit/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

func TestDefaultMatchesFactorySettings(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	settings, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, validation.DefaultSettings(), settings)
}

func TestParseMergesWithDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
inputs:
  dbid: /export/DBID.imp
  encoding: windows-1251
rules:
  characteristics:
    mask: "A*"
    compare_equal: true
  ancillary:
    DROP: {enabled: false, field: ANC_3}
  alarm_priorities:
    HIGH_ALARM_PRIORITY_USER: {enabled: true, value: 4}
  background:
    ignored_issues: ["Macro 12"]
telemetry:
  logging:
    level: debug
`))
	require.NoError(t, err)

	settings, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, validation.Characteristics{Mask: "A*", CompareEqual: true}, settings.Characteristics)
	assert.Equal(t, validation.AncillaryField{Enabled: false, Field: point.Anc3}, settings.Ancillary[point.Drop])
	assert.Equal(t, validation.AncillaryField{Enabled: true, Field: point.Anc6}, settings.Ancillary[point.IOLocation])
	assert.Equal(t, validation.Priority{Enabled: true, Value: 4}, settings.AlarmPriorities[point.HighAlarmPriorityUser])
	assert.Equal(t, validation.Priority{Enabled: true, Value: 2}, settings.AlarmPriorities[point.LowAlarmPriority1])
	assert.Len(t, settings.AlarmPriorities, len(validation.PriorityFields))

	assert.Equal(t, []string{"Macro 12"}, cfg.Rules.Background.IgnoredIssues)
	assert.Equal(t, "debug", cfg.Telemetry.Logging.Level)
	assert.Equal(t, "console", cfg.Telemetry.Logging.Format, "unset telemetry values keep defaults")

	codec, err := cfg.Codec()
	require.NoError(t, err)
	assert.Equal(t, "windows-1251", codec.Name())
	assert.Equal(t, "/export/DBID.imp", cfg.IngestInputs().Dbid)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		msg  string
	}{
		{name: "bad yaml", yaml: "rules: [", msg: "failed to parse config"},
		{name: "unknown ancillary source", yaml: "rules:\n  ancillary:\n    KKS: {enabled: true, field: ANC_5}\n", msg: "must be one of"},
		{name: "unknown ancillary field", yaml: "rules:\n  ancillary:\n    DROP: {enabled: true, field: ANC_99}\n", msg: `unknown parameter "ANC_99"`},
		{name: "missing ancillary field", yaml: "rules:\n  ancillary:\n    DROP: {enabled: true}\n", msg: "is required"},
		{name: "unknown priority", yaml: "rules:\n  alarm_priorities:\n    DROP: {enabled: true, value: 1}\n", msg: "is not an alarm priority parameter"},
		{name: "negative priority", yaml: "rules:\n  alarm_priorities:\n    LOW_ALARM_PRIORITY_1: {enabled: true, value: -1}\n", msg: "failed min validation"},
		{name: "bad mask", yaml: "rules:\n  characteristics: {mask: \"[a\"}\n", msg: "invalid mask"},
		{name: "empty mask", yaml: "rules:\n  characteristics: {mask: \"\"}\n", msg: "is required"},
		{name: "bad encoding", yaml: "inputs:\n  encoding: ebcdic\n", msg: "unsupported encoding"},
		{name: "empty ignored issue", yaml: "rules:\n  background:\n    ignored_issues: [\"\"]\n", msg: "is required"},
		{name: "bad telemetry", yaml: "telemetry:\n  logging:\n    level: loud\n", msg: "invalid log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadResolvesRelativePaths(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	URL := "mem://localhost/site/pointaudit.yaml"
	doc := "inputs:\n  dbid: DBID.imp\n  graphics_dir: graphics\n  historian: /abs/HistorianConfig.xml\nreport:\n  database: runs.db\n"
	require.NoError(t, fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader([]byte(doc))))

	cfg, err := Load(ctx, fs, URL)
	require.NoError(t, err)
	assert.Equal(t, "mem://localhost/site/DBID.imp", cfg.Inputs.Dbid)
	assert.Equal(t, "mem://localhost/site/graphics", cfg.Inputs.GraphicsDir)
	assert.Equal(t, "/abs/HistorianConfig.xml", cfg.Inputs.Historian)
	assert.Equal(t, "mem://localhost/site/runs.db", cfg.Report.Database)
	assert.Empty(t, cfg.Inputs.LogicDir)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), afs.New(), "mem://localhost/none/pointaudit.yaml")
	assert.Error(t, err)
}
