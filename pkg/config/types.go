package config

import (
	"github.com/pointaudit/pointaudit/pkg/telemetry"
)

// Config is the root of the configuration file.
type Config struct {
	// Inputs lists the exported files of the unit.
	Inputs InputsConfig `yaml:"inputs"`

	// Rules configures the validation rules.
	Rules RulesConfig `yaml:"rules"`

	// Report configures validation run persistence.
	Report ReportConfig `yaml:"report"`

	// Telemetry configures logging, tracing, metrics and events.
	Telemetry *telemetry.Config `yaml:"telemetry"`
}

// InputsConfig names the exported files. Paths may be local or any URL
// the file service understands.
type InputsConfig struct {
	Dbid        string `yaml:"dbid"`
	GraphicsDir string `yaml:"graphics_dir"`
	LogicDir    string `yaml:"logic_dir"`
	Historian   string `yaml:"historian"`

	// Encoding is the text encoding of every input file.
	Encoding string `yaml:"encoding" validate:"omitempty,encoding"`
}

// RulesConfig holds the user-adjustable rule settings.
type RulesConfig struct {
	Characteristics CharacteristicsConfig `yaml:"characteristics"`

	// Ancillary is keyed by DROP, IO_LOCATION and IO_CHANNEL. Entries
	// that are not listed keep their defaults.
	Ancillary map[string]AncillaryConfig `yaml:"ancillary" validate:"dive,keys,oneof=DROP IO_LOCATION IO_CHANNEL,endkeys"`

	// AlarmPriorities is keyed by the alarm priority parameters. Entries
	// that are not listed keep their defaults.
	AlarmPriorities map[string]PriorityConfig `yaml:"alarm_priorities" validate:"dive,keys,priority,endkeys"`

	Background BackgroundConfig `yaml:"background"`
}

// CharacteristicsConfig configures the CHARACTERISTICS mask.
type CharacteristicsConfig struct {
	Mask         string `yaml:"mask" validate:"required,glob"`
	CompareEqual bool   `yaml:"compare_equal"`
}

// AncillaryConfig names the ancillary field mirroring an addressing field.
type AncillaryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Field   string `yaml:"field" validate:"required,parameter"`
}

// PriorityConfig is the expected value of an alarm priority.
type PriorityConfig struct {
	Enabled bool `yaml:"enabled"`
	Value   int  `yaml:"value" validate:"min=0"`
}

// BackgroundConfig controls background-integrity reporting.
type BackgroundConfig struct {
	// IgnoredIssues hides issues by their exact text, e.g. "Macro 12".
	IgnoredIssues []string `yaml:"ignored_issues" validate:"dive,required"`
}

// ReportConfig configures run history.
type ReportConfig struct {
	// Database is the SQLite file runs are saved to. Empty disables
	// persistence.
	Database string `yaml:"database"`
}
