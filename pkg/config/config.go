package config

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gobwas/glob"
	"github.com/pointaudit/pointaudit/pkg/ingest"
	"github.com/pointaudit/pointaudit/pkg/point"
	"github.com/pointaudit/pointaudit/pkg/scan"
	"github.com/pointaudit/pointaudit/pkg/telemetry"
	"github.com/pointaudit/pointaudit/pkg/validation"
	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the working directory when no file is
// given on the command line.
const DefaultFileName = "pointaudit.yaml"

// Default returns the factory configuration.
func Default() *Config {
	defaults := validation.DefaultSettings()
	cfg := &Config{
		Rules: RulesConfig{
			Characteristics: CharacteristicsConfig{
				Mask:         defaults.Characteristics.Mask,
				CompareEqual: defaults.Characteristics.CompareEqual,
			},
			Ancillary:       make(map[string]AncillaryConfig, len(defaults.Ancillary)),
			AlarmPriorities: make(map[string]PriorityConfig, len(defaults.AlarmPriorities)),
		},
		Telemetry: telemetry.DefaultConfig(),
	}
	for k, v := range defaults.Ancillary {
		cfg.Rules.Ancillary[k.String()] = AncillaryConfig{Enabled: v.Enabled, Field: v.Field.String()}
	}
	for k, v := range defaults.AlarmPriorities {
		cfg.Rules.AlarmPriorities[k.String()] = PriorityConfig{Enabled: v.Enabled, Value: v.Value}
	}
	return cfg
}

// Load reads and validates the configuration at URL.
func Load(ctx context.Context, fs afs.Service, URL string) (*Config, error) {
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %v: %w", URL, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", URL, err)
	}
	cfg.resolve(parentURL(URL))
	return cfg, nil
}

// Parse decodes and validates a configuration document. Values it does
// not mention keep their defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct tags and the telemetry section.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, describe(fe))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Telemetry != nil {
		if err := c.Telemetry.Validate(); err != nil {
			return fmt.Errorf("invalid telemetry config: %w", err)
		}
	}
	return nil
}

// Settings converts the rule section.
func (c *Config) Settings() (validation.Settings, error) {
	s := validation.Settings{
		Characteristics: validation.Characteristics{
			Mask:         c.Rules.Characteristics.Mask,
			CompareEqual: c.Rules.Characteristics.CompareEqual,
		},
		Ancillary:       make(map[point.Parameter]validation.AncillaryField, len(c.Rules.Ancillary)),
		AlarmPriorities: make(map[point.Parameter]validation.Priority, len(c.Rules.AlarmPriorities)),
	}
	for name, v := range c.Rules.Ancillary {
		key, ok := point.ParseParameter(name)
		if !ok {
			return s, fmt.Errorf("unknown ancillary source %q", name)
		}
		field, ok := point.ParseParameter(v.Field)
		if !ok {
			return s, fmt.Errorf("unknown ancillary field %q", v.Field)
		}
		s.Ancillary[key] = validation.AncillaryField{Enabled: v.Enabled, Field: field}
	}
	for name, v := range c.Rules.AlarmPriorities {
		key, ok := point.ParseParameter(name)
		if !ok {
			return s, fmt.Errorf("unknown alarm priority %q", name)
		}
		s.AlarmPriorities[key] = validation.Priority{Enabled: v.Enabled, Value: v.Value}
	}
	return s, nil
}

// IngestInputs converts the inputs section.
func (c *Config) IngestInputs() ingest.Inputs {
	return ingest.Inputs{
		Dbid:        c.Inputs.Dbid,
		GraphicsDir: c.Inputs.GraphicsDir,
		LogicDir:    c.Inputs.LogicDir,
		Historian:   c.Inputs.Historian,
	}
}

// Codec returns the configured input encoding.
func (c *Config) Codec() (*scan.Codec, error) {
	return scan.NewCodec(c.Inputs.Encoding)
}

func (c *Config) resolve(base string) {
	if base == "" {
		return
	}
	for _, p := range []*string{&c.Inputs.Dbid, &c.Inputs.GraphicsDir, &c.Inputs.LogicDir, &c.Inputs.Historian, &c.Report.Database} {
		if *p != "" && url.IsRelative(*p) {
			*p = url.Join(base, *p)
		}
	}
}

func parentURL(URL string) string {
	i := strings.LastIndex(URL, "/")
	if i < 0 {
		return ""
	}
	return URL[:i]
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("parameter", func(fl validator.FieldLevel) bool {
		_, ok := point.ParseParameter(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		p, ok := point.ParseParameter(fl.Field().String())
		return ok && slices.Contains(validation.PriorityFields, p)
	})
	_ = v.RegisterValidation("glob", func(fl validator.FieldLevel) bool {
		_, err := glob.Compile(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("encoding", func(fl validator.FieldLevel) bool {
		_, err := scan.NewCodec(fl.Field().String())
		return err == nil
	})
	return v
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "parameter":
		return fmt.Sprintf("%s: unknown parameter %q", field, fe.Value())
	case "priority":
		return fmt.Sprintf("%s: %q is not an alarm priority parameter", field, fe.Value())
	case "glob":
		return fmt.Sprintf("%s: invalid mask %q", field, fe.Value())
	case "encoding":
		return fmt.Sprintf("%s: unsupported encoding %q", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s: %q must be one of %s", field, fe.Value(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
