package point

import "fmt"

// Parameter is one of the recognized point parameter keys.
type Parameter int

// Recognized parameters, in display order.
const (
	KKS Parameter = iota
	Drop
	Type
	ScangroupFrequency
	BroadcastFrequency
	OperatingRangeLow
	OperatingRangeHigh
	LowEngineeringLimit
	HighEngineeringLimit
	MinimumScale
	MaximumScale
	LowAlarmPriority1
	LowAlarmPriority2
	LowAlarmPriority3
	LowAlarmPriority4
	LowAlarmPriorityUser
	HighAlarmPriority1
	HighAlarmPriority2
	HighAlarmPriority3
	HighAlarmPriority4
	HighAlarmPriorityUser
	LowAlarmLimit1Type
	LowAlarmLimit1Value
	LowAlarmLimit2Type
	LowAlarmLimit2Value
	LowAlarmLimit3Type
	LowAlarmLimit3Value
	LowAlarmLimit4Type
	LowAlarmLimit4Value
	HighAlarmLimit1Type
	HighAlarmLimit1Value
	HighAlarmLimit2Type
	HighAlarmLimit2Value
	HighAlarmLimit3Type
	HighAlarmLimit3Value
	HighAlarmLimit4Type
	HighAlarmLimit4Value
	IOLocation
	IOChannel
	IOTaskIndex
	Characteristics
	Anc1
	Anc2
	Anc3
	Anc4
	Anc5
	Anc6
	Anc7
	SOEPoint
	SOEEnabled
	AppearInFiles

	parameterCount
)

var parameterNames = [...]string{
	KKS:                   "KKS",
	Drop:                  "DROP",
	Type:                  "TYPE",
	ScangroupFrequency:    "SCANGROUP_FREQUENCY",
	BroadcastFrequency:    "BROADCAST_FREQUENCY",
	OperatingRangeLow:     "OPERATING_RANGE_LOW",
	OperatingRangeHigh:    "OPERATING_RANGE_HIGH",
	LowEngineeringLimit:   "LOW_ENGINEERING_LIMIT",
	HighEngineeringLimit:  "HIGH_ENGINEERING_LIMIT",
	MinimumScale:          "MINIMUM_SCALE",
	MaximumScale:          "MAXIMUM_SCALE",
	LowAlarmPriority1:     "LOW_ALARM_PRIORITY_1",
	LowAlarmPriority2:     "LOW_ALARM_PRIORITY_2",
	LowAlarmPriority3:     "LOW_ALARM_PRIORITY_3",
	LowAlarmPriority4:     "LOW_ALARM_PRIORITY_4",
	LowAlarmPriorityUser:  "LOW_ALARM_PRIORITY_USER",
	HighAlarmPriority1:    "HIGH_ALARM_PRIORITY_1",
	HighAlarmPriority2:    "HIGH_ALARM_PRIORITY_2",
	HighAlarmPriority3:    "HIGH_ALARM_PRIORITY_3",
	HighAlarmPriority4:    "HIGH_ALARM_PRIORITY_4",
	HighAlarmPriorityUser: "HIGH_ALARM_PRIORITY_USER",
	LowAlarmLimit1Type:    "LOW_ALARM_LIMIT_1_TYPE",
	LowAlarmLimit1Value:   "LOW_ALARM_LIMIT_1_VALUE",
	LowAlarmLimit2Type:    "LOW_ALARM_LIMIT_2_TYPE",
	LowAlarmLimit2Value:   "LOW_ALARM_LIMIT_2_VALUE",
	LowAlarmLimit3Type:    "LOW_ALARM_LIMIT_3_TYPE",
	LowAlarmLimit3Value:   "LOW_ALARM_LIMIT_3_VALUE",
	LowAlarmLimit4Type:    "LOW_ALARM_LIMIT_4_TYPE",
	LowAlarmLimit4Value:   "LOW_ALARM_LIMIT_4_VALUE",
	HighAlarmLimit1Type:   "HIGH_ALARM_LIMIT_1_TYPE",
	HighAlarmLimit1Value:  "HIGH_ALARM_LIMIT_1_VALUE",
	HighAlarmLimit2Type:   "HIGH_ALARM_LIMIT_2_TYPE",
	HighAlarmLimit2Value:  "HIGH_ALARM_LIMIT_2_VALUE",
	HighAlarmLimit3Type:   "HIGH_ALARM_LIMIT_3_TYPE",
	HighAlarmLimit3Value:  "HIGH_ALARM_LIMIT_3_VALUE",
	HighAlarmLimit4Type:   "HIGH_ALARM_LIMIT_4_TYPE",
	HighAlarmLimit4Value:  "HIGH_ALARM_LIMIT_4_VALUE",
	IOLocation:            "IO_LOCATION",
	IOChannel:             "IO_CHANNEL",
	IOTaskIndex:           "IO_TASK_INDEX",
	Characteristics:       "CHARACTERISTICS",
	Anc1:                  "ANC_1",
	Anc2:                  "ANC_2",
	Anc3:                  "ANC_3",
	Anc4:                  "ANC_4",
	Anc5:                  "ANC_5",
	Anc6:                  "ANC_6",
	Anc7:                  "ANC_7",
	SOEPoint:              "SOE_POINT",
	SOEEnabled:            "SOE_ENABLED",
	AppearInFiles:         "APPEAR_IN_FILES",
}

var parametersByName map[string]Parameter

func init() {
	if len(parameterNames) != int(parameterCount) {
		panic(fmt.Sprintf("point: %d parameter names for %d parameters", len(parameterNames), parameterCount))
	}
	parametersByName = make(map[string]Parameter, parameterCount)
	for p, name := range parameterNames {
		if name == "" {
			panic(fmt.Sprintf("point: parameter %d has no name", p))
		}
		if _, dup := parametersByName[name]; dup {
			panic(fmt.Sprintf("point: duplicate parameter name %q", name))
		}
		parametersByName[name] = Parameter(p)
	}
}

// String returns the canonical export name of the parameter.
func (p Parameter) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Parameter(%d)", int(p))
	}
	return parameterNames[p]
}

// Valid reports whether p is a recognized parameter.
func (p Parameter) Valid() bool {
	return p >= 0 && p < parameterCount
}

// MarshalText implements encoding.TextMarshaler.
func (p Parameter) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid parameter %d", int(p))
	}
	return []byte(parameterNames[p]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Parameter) UnmarshalText(text []byte) error {
	parsed, ok := ParseParameter(string(text))
	if !ok {
		return fmt.Errorf("unknown parameter %q", string(text))
	}
	*p = parsed
	return nil
}

// ParseParameter looks a parameter up by its canonical name.
func ParseParameter(name string) (Parameter, bool) {
	p, ok := parametersByName[name]
	return p, ok
}

// Parameters returns every recognized parameter in display order.
func Parameters() []Parameter {
	result := make([]Parameter, parameterCount)
	for i := range result {
		result[i] = Parameter(i)
	}
	return result
}
