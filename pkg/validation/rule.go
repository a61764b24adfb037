package validation

import (
	"fmt"

	"github.com/pointaudit/pointaudit/pkg/point"
)

// RuleID identifies one rule of the fixed catalogue.
type RuleID int

// Rules, in catalogue order.
const (
	RuleAll RuleID = iota
	RuleNotInSrcXML
	RuleNotInDbid
	RuleScale
	RuleLimits
	RuleSingleModuleMultitask
	RuleCharacteristics
	RuleAncillary
	RuleScangroupBroadcast
	RuleBroadcastTask
	RuleLimitsPriority
	RuleSOEInput

	ruleCount
)

var ruleNames = [...]string{
	RuleAll:                   "ALL",
	RuleNotInSrcXML:           "NOT_IN_SRC_XML",
	RuleNotInDbid:             "NOT_IN_DBID",
	RuleScale:                 "SCALE_ERRORS",
	RuleLimits:                "LIMITS_ERRORS",
	RuleSingleModuleMultitask: "SINGLE_MODULE_MULTITASK_ERRORS",
	RuleCharacteristics:       "CHARACTERISTICS_ERRORS",
	RuleAncillary:             "ANCILLARY_ERRORS",
	RuleScangroupBroadcast:    "SCANGROUP_BROADCAST_FREQUENCY_MISSMATCH",
	RuleBroadcastTask:         "BROADCAST_FREQUENCY_TASK_UPDATETIME_MISSMATCH",
	RuleLimitsPriority:        "LIMITS_PRIORITY_ERRORS",
	RuleSOEInput:              "SOE_INPUT_ERRORS",
}

var rulesByName map[string]RuleID

func init() {
	if len(ruleNames) != int(ruleCount) || len(catalogue) != int(ruleCount) {
		panic("validation: rule tables do not cover every rule")
	}
	rulesByName = make(map[string]RuleID, ruleCount)
	for id, name := range ruleNames {
		if name == "" {
			panic(fmt.Sprintf("validation: rule %d has no name", id))
		}
		if catalogue[id].ID != RuleID(id) {
			panic(fmt.Sprintf("validation: catalogue entry %d holds rule %d", id, catalogue[id].ID))
		}
		rulesByName[name] = RuleID(id)
	}
}

func (r RuleID) String() string {
	if !r.Valid() {
		return fmt.Sprintf("RuleID(%d)", int(r))
	}
	return ruleNames[r]
}

// Valid reports whether r is part of the catalogue.
func (r RuleID) Valid() bool {
	return r >= 0 && r < ruleCount
}

// MarshalText implements encoding.TextMarshaler.
func (r RuleID) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid rule %d", int(r))
	}
	return []byte(ruleNames[r]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *RuleID) UnmarshalText(text []byte) error {
	id, ok := ParseRuleID(string(text))
	if !ok {
		return fmt.Errorf("unknown rule %q", string(text))
	}
	*r = id
	return nil
}

// ParseRuleID looks a rule up by name.
func ParseRuleID(name string) (RuleID, bool) {
	id, ok := rulesByName[name]
	return id, ok
}

// Sources tells which input categories were loaded. Rule gates are
// predicates over it.
type Sources struct {
	DBID      bool `json:"dbid"`
	Source    bool `json:"src"`
	Logic     bool `json:"xml"`
	Historian bool `json:"ophxml"`
}

// Rule is one catalogue entry.
type Rule struct {
	ID          RuleID
	Title       string
	Description string
	// Shown lists the parameters relevant to the rule's diagnostics.
	Shown []point.Parameter
	// Gate reports whether the rule applies to the loaded sources.
	Gate  func(Sources) bool
	check checkFunc
}

// GateText renders the gate as a source expression.
func (r Rule) GateText() string {
	return gateTexts[r.ID]
}

type checkFunc func(c *checkContext, p *point.Point, rec *Recorder)

func always(Sources) bool { return true }

func dbidOnly(s Sources) bool { return s.DBID }

func dbidAndSourceOrLogic(s Sources) bool {
	return (s.DBID && s.Source) || (s.DBID && s.Logic)
}

func dbidAndHistorian(s Sources) bool { return s.DBID && s.Historian }

var gateTexts = [...]string{
	RuleAll:                   "always",
	RuleNotInSrcXML:           "dbid && (src || xml)",
	RuleNotInDbid:             "dbid && (src || xml)",
	RuleScale:                 "dbid",
	RuleLimits:                "dbid",
	RuleSingleModuleMultitask: "dbid",
	RuleCharacteristics:       "dbid",
	RuleAncillary:             "dbid",
	RuleScangroupBroadcast:    "dbid && ophxml",
	RuleBroadcastTask:         "dbid",
	RuleLimitsPriority:        "dbid",
	RuleSOEInput:              "dbid",
}

var catalogue = [...]Rule{
	{
		ID:          RuleAll,
		Title:       "All points",
		Description: "Every point, unfiltered.",
		Gate:        always,
	},
	{
		ID:          RuleNotInSrcXML,
		Title:       "Missing from SRC and XML",
		Description: "Points present in DBID but absent from every graphics source and logic file.\nThe historian configuration is not taken into account.",
		Shown:       []point.Parameter{point.KKS},
		Gate:        dbidAndSourceOrLogic,
		check:       checkNotInSrcXML,
	},
	{
		ID:          RuleNotInDbid,
		Title:       "Missing from DBID",
		Description: "Points referenced by graphics sources or logic files but absent from DBID.\nThe historian configuration is not taken into account.",
		Shown:       []point.Parameter{point.KKS, point.AppearInFiles},
		Gate:        dbidAndSourceOrLogic,
		check:       checkNotInDbid,
	},
	{
		ID:    RuleScale,
		Title: "Scale errors",
		Description: "Points whose\nOPERATING_RANGE_(LOW|HIGH)\n(LOW|HIGH)_ENGINEERING_LIMIT\n(MINIMUM|MAXIMUM)_SCALE\n" +
			"are not identical.",
		Shown: []point.Parameter{point.KKS, point.OperatingRangeLow, point.OperatingRangeHigh,
			point.LowEngineeringLimit, point.HighEngineeringLimit, point.MinimumScale, point.MaximumScale},
		Gate:  dbidOnly,
		check: checkScale,
	},
	{
		ID:    RuleLimits,
		Title: "Alarm limit errors",
		Description: "Points with alarm limits\n(LOW|HIGH)_ALARM_LIMIT_(1|2|3|4)_TYPE = \"V\"\nwhose values\n" +
			"(LOW|HIGH)_ALARM_LIMIT_(1|2|3|4)_VALUE\nfall outside\n[OPERATING_RANGE_LOW, OPERATING_RANGE_HIGH].",
		Shown: []point.Parameter{point.KKS, point.OperatingRangeLow, point.OperatingRangeHigh,
			point.LowAlarmLimit1Value, point.LowAlarmLimit2Value, point.LowAlarmLimit3Value, point.LowAlarmLimit4Value,
			point.HighAlarmLimit1Value, point.HighAlarmLimit2Value, point.HighAlarmLimit3Value, point.HighAlarmLimit4Value},
		Gate:  dbidOnly,
		check: checkLimits,
	},
	{
		ID:          RuleSingleModuleMultitask,
		Title:       "Module points in different tasks",
		Description: "Every point of a module that holds points of at least two different tasks.",
		Shown:       []point.Parameter{point.KKS, point.Drop, point.IOLocation, point.IOChannel, point.IOTaskIndex},
		Gate:        dbidOnly,
		check:       checkSingleModuleMultitask,
	},
	{
		ID:          RuleCharacteristics,
		Title:       "Characteristics",
		Description: "Points whose characteristics do not fit the mask.\nPoints with empty characteristics are not checked.",
		Shown:       []point.Parameter{point.KKS, point.Characteristics},
		Gate:        dbidOnly,
		check:       checkCharacteristics,
	},
	{
		ID:    RuleAncillary,
		Title: "Ancillary consistency",
		Description: "Points whose\nDROP - IO_LOCATION - IO_CHANNEL\ndo not match the configured ANC fields,\n" +
			"by default\nANC_5 - ANC_6 - ANC_7.\nModule points are not checked.",
		Shown: []point.Parameter{point.KKS, point.Drop, point.IOLocation, point.IOChannel,
			point.Anc1, point.Anc2, point.Anc3, point.Anc4, point.Anc5, point.Anc6, point.Anc7},
		Gate:  dbidOnly,
		check: checkAncillary,
	},
	{
		ID:    RuleScangroupBroadcast,
		Title: "Broadcast and archiving frequency mismatch",
		Description: "Points whose DBID broadcast frequency\nBROADCAST_FREQUENCY\ndoes not match the historian scan group\n" +
			"SCANGROUP_FREQUENCY\nBROADCAST_FREQUENCY == \"A\" is ignored.",
		Shown: []point.Parameter{point.KKS, point.ScangroupFrequency, point.BroadcastFrequency},
		Gate:  dbidAndHistorian,
		check: checkScangroupBroadcast,
	},
	{
		ID:    RuleBroadcastTask,
		Title: "Broadcast frequency and task period mismatch",
		Description: "Analog points whose broadcast frequency\nBROADCAST_FREQUENCY\ndoes not match the period of their control task\n" +
			"IO_TASK_INDEX\nTasks of 100 ms or less are fast.",
		Shown: []point.Parameter{point.KKS, point.BroadcastFrequency, point.IOTaskIndex},
		Gate:  dbidOnly,
		check: checkBroadcastTask,
	},
	{
		ID:          RuleLimitsPriority,
		Title:       "Alarm priorities",
		Description: "Analog points whose alarm priorities differ from the configured values.",
		Shown: []point.Parameter{point.KKS,
			point.LowAlarmPriority1, point.LowAlarmPriority2, point.LowAlarmPriority3, point.LowAlarmPriority4, point.LowAlarmPriorityUser,
			point.HighAlarmPriority1, point.HighAlarmPriority2, point.HighAlarmPriority3, point.HighAlarmPriority4, point.HighAlarmPriorityUser},
		Gate:  dbidOnly,
		check: checkLimitsPriority,
	},
	{
		ID:    RuleSOEInput,
		Title: "SOE input errors",
		Description: "Digital points whose\nSOE_POINT and SOE_ENABLED\ndo not match the module's\n" +
			"EVENT_TAGGING_ENABLE bitmap.",
		Shown: []point.Parameter{point.KKS, point.Drop, point.IOLocation, point.IOChannel, point.IOTaskIndex,
			point.SOEPoint, point.SOEEnabled},
		Gate:  dbidOnly,
		check: checkSOEInput,
	},
}

// Catalogue returns every rule in catalogue order.
func Catalogue() []Rule {
	return append([]Rule(nil), catalogue[:]...)
}

// Lookup returns the catalogue entry of id.
func Lookup(id RuleID) (Rule, bool) {
	if !id.Valid() {
		return Rule{}, false
	}
	return catalogue[id], true
}

// AllRules returns every rule id in catalogue order.
func AllRules() []RuleID {
	ids := make([]RuleID, ruleCount)
	for i := range ids {
		ids[i] = RuleID(i)
	}
	return ids
}
