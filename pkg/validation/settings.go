package validation

import (
	"fmt"

	"github.com/gobwas/glob"
	"github.com/pointaudit/pointaudit/pkg/point"
)

// DefaultCharacteristicsMask is the wildcard applied to CHARACTERISTICS.
const DefaultCharacteristicsMask = "?-------"

// Characteristics configures the characteristics rule. Mask uses `?` for
// one character, `*` for any run and `[abc]` for a character class. A point
// is flagged when the outcome of matching equals CompareEqual.
type Characteristics struct {
	Mask         string
	CompareEqual bool
}

// AncillaryField maps an addressing field to the ancillary field that must
// mirror it.
type AncillaryField struct {
	Enabled bool
	Field   point.Parameter
}

// Priority is the expected value of an alarm priority field.
type Priority struct {
	Enabled bool
	Value   int
}

// Settings holds the user-configurable parts of the rule catalogue.
type Settings struct {
	Characteristics Characteristics
	// Ancillary is keyed by DROP, IO_LOCATION and IO_CHANNEL.
	Ancillary map[point.Parameter]AncillaryField
	// AlarmPriorities is keyed by the ten alarm priority parameters.
	AlarmPriorities map[point.Parameter]Priority
}

// AncillarySources lists the addressing fields checked by the ancillary rule.
var AncillarySources = []point.Parameter{point.Drop, point.IOLocation, point.IOChannel}

// PriorityFields lists the alarm priority parameters in display order.
var PriorityFields = []point.Parameter{
	point.LowAlarmPriority1, point.LowAlarmPriority2, point.LowAlarmPriority3, point.LowAlarmPriority4, point.LowAlarmPriorityUser,
	point.HighAlarmPriority1, point.HighAlarmPriority2, point.HighAlarmPriority3, point.HighAlarmPriority4, point.HighAlarmPriorityUser,
}

// DefaultSettings returns the factory configuration.
func DefaultSettings() Settings {
	return Settings{
		Characteristics: Characteristics{Mask: DefaultCharacteristicsMask},
		Ancillary: map[point.Parameter]AncillaryField{
			point.Drop:       {Enabled: true, Field: point.Anc5},
			point.IOLocation: {Enabled: true, Field: point.Anc6},
			point.IOChannel:  {Enabled: true, Field: point.Anc7},
		},
		AlarmPriorities: map[point.Parameter]Priority{
			point.LowAlarmPriority1:     {Enabled: true, Value: 2},
			point.LowAlarmPriority2:     {Enabled: true, Value: 2},
			point.LowAlarmPriority3:     {Enabled: true, Value: 1},
			point.LowAlarmPriority4:     {Enabled: true, Value: 1},
			point.LowAlarmPriorityUser:  {Enabled: true, Value: 8},
			point.HighAlarmPriority1:    {Enabled: true, Value: 2},
			point.HighAlarmPriority2:    {Enabled: true, Value: 2},
			point.HighAlarmPriority3:    {Enabled: true, Value: 1},
			point.HighAlarmPriority4:    {Enabled: true, Value: 1},
			point.HighAlarmPriorityUser: {Enabled: true, Value: 8},
		},
	}
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	c := s
	c.Ancillary = make(map[point.Parameter]AncillaryField, len(s.Ancillary))
	for k, v := range s.Ancillary {
		c.Ancillary[k] = v
	}
	c.AlarmPriorities = make(map[point.Parameter]Priority, len(s.AlarmPriorities))
	for k, v := range s.AlarmPriorities {
		c.AlarmPriorities[k] = v
	}
	return c
}

// compiledSettings is the read-only form used by the checkers.
type compiledSettings struct {
	Settings
	mask glob.Glob
}

func compileSettings(s Settings) (*compiledSettings, error) {
	for key, anc := range s.Ancillary {
		if !isOneOf(key, AncillarySources) {
			return nil, fmt.Errorf("ancillary mapping for %v is not supported", key)
		}
		if !anc.Field.Valid() {
			return nil, fmt.Errorf("ancillary mapping for %v targets an unknown field", key)
		}
	}
	for key := range s.AlarmPriorities {
		if !isOneOf(key, PriorityFields) {
			return nil, fmt.Errorf("%v is not an alarm priority field", key)
		}
	}
	c := &compiledSettings{Settings: s.Clone()}
	if s.Characteristics.Mask != "" {
		g, err := glob.Compile(s.Characteristics.Mask)
		if err != nil {
			return nil, fmt.Errorf("invalid characteristics mask %q: %w", s.Characteristics.Mask, err)
		}
		c.mask = g
	}
	return c, nil
}

func isOneOf(p point.Parameter, set []point.Parameter) bool {
	for _, candidate := range set {
		if candidate == p {
			return true
		}
	}
	return false
}
