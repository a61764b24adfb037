package validation

import (
	"fmt"
	"strings"

	"github.com/pointaudit/pointaudit/pkg/point"
)

var scaleFields = []point.Parameter{
	point.OperatingRangeLow, point.OperatingRangeHigh,
	point.LowEngineeringLimit, point.HighEngineeringLimit,
	point.MinimumScale, point.MaximumScale,
}

var scalePairs = [][2]point.Parameter{
	{point.OperatingRangeLow, point.LowEngineeringLimit},
	{point.OperatingRangeHigh, point.HighEngineeringLimit},
	{point.OperatingRangeLow, point.MinimumScale},
	{point.OperatingRangeHigh, point.MaximumScale},
	{point.LowEngineeringLimit, point.MinimumScale},
	{point.HighEngineeringLimit, point.MaximumScale},
}

func checkScale(_ *checkContext, p *point.Point, rec *Recorder) {
	kks := p.KKS()
	consistent := true
	for _, pair := range scalePairs[:4] {
		if !sameValue(p.Get(pair[0]), p.Get(pair[1])) {
			consistent = false
			break
		}
	}
	if consistent {
		return
	}
	missing := false
	for _, pair := range scalePairs {
		first, second := p.Get(pair[0]), p.Get(pair[1])
		if first == "" || second == "" {
			missing = true
			continue
		}
		if !sameValue(first, second) {
			rec.Info(kks, fmt.Sprintf("%v and %v do not match", pair[0], pair[1]))
			rec.Info(kks, first+" != "+second)
			rec.Error(kks, pair[0], pair[1])
		}
	}
	if !missing {
		return
	}
	var names []string
	for _, field := range scaleFields {
		if p.Get(field) == "" {
			names = append(names, field.String())
			rec.Warning(kks, field)
		}
	}
	rec.Info(kks, "some scale fields are missing:")
	rec.Info(kks, strings.Join(names, ", "))
}

type alarmSlot struct {
	lowType, lowValue, highType, highValue point.Parameter
}

var alarmSlots = []alarmSlot{
	{point.LowAlarmLimit1Type, point.LowAlarmLimit1Value, point.HighAlarmLimit1Type, point.HighAlarmLimit1Value},
	{point.LowAlarmLimit2Type, point.LowAlarmLimit2Value, point.HighAlarmLimit2Type, point.HighAlarmLimit2Value},
	{point.LowAlarmLimit3Type, point.LowAlarmLimit3Value, point.HighAlarmLimit3Type, point.HighAlarmLimit3Value},
	{point.LowAlarmLimit4Type, point.LowAlarmLimit4Value, point.HighAlarmLimit4Type, point.HighAlarmLimit4Value},
}

// rangeBound is an operating range limit as seen by the limits rule.
type rangeBound struct {
	field   point.Parameter
	raw     string
	value   float64
	usable  bool
	flagged bool
}

func newRangeBound(p *point.Point, field point.Parameter) *rangeBound {
	raw := p.Get(field)
	v, ok := number(raw)
	return &rangeBound{field: field, raw: raw, value: v, usable: ok}
}

// unusable records, once per point, why the bound cannot be compared.
func (b *rangeBound) unusable(kks string, rec *Recorder) {
	if b.flagged {
		return
	}
	b.flagged = true
	if b.raw == "" {
		rec.Info(kks, fmt.Sprintf("%v is missing although one or more alarm limits are set", b.field))
	} else {
		rec.Info(kks, fmt.Sprintf("%v (%s) is not a number", b.field, b.raw))
	}
	rec.Error(kks, b.field)
}

func checkLimits(_ *checkContext, p *point.Point, rec *Recorder) {
	kks := p.KKS()
	low := newRangeBound(p, point.OperatingRangeLow)
	high := newRangeBound(p, point.OperatingRangeHigh)

	for _, slot := range alarmSlots {
		for _, side := range [][2]point.Parameter{{slot.lowType, slot.lowValue}, {slot.highType, slot.highValue}} {
			typeField, valueField := side[0], side[1]
			typ, value := p.Get(typeField), p.Get(valueField)
			switch {
			case typ == "V" && value == "":
				rec.Info(kks, fmt.Sprintf("%v = \"V\" but %v is missing", typeField, valueField))
				rec.Warning(kks, typeField, valueField)
			case typ == "" && value != "":
				rec.Info(kks, fmt.Sprintf("%v is missing but %v is set", typeField, valueField))
				rec.Warning(kks, typeField, valueField)
			}
			if value == "" {
				continue
			}
			v, ok := number(value)
			if !ok {
				rec.Info(kks, fmt.Sprintf("%v (%s) is not a number", valueField, value))
				rec.Error(kks, valueField)
				continue
			}
			if !low.usable {
				low.unusable(kks, rec)
			} else if v < low.value {
				rec.Info(kks, fmt.Sprintf("%v is below %v", valueField, low.field))
				rec.Info(kks, value+" < "+low.raw)
				rec.Error(kks, valueField)
			}
			if !high.usable {
				high.unusable(kks, rec)
			} else if v > high.value {
				rec.Info(kks, fmt.Sprintf("%v is above %v", valueField, high.field))
				rec.Info(kks, value+" > "+high.raw)
				rec.Error(kks, valueField)
			}
		}

		lowRaw, highRaw := p.Get(slot.lowValue), p.Get(slot.highValue)
		lv, okLow := number(lowRaw)
		hv, okHigh := number(highRaw)
		if okLow && okHigh && lv >= hv {
			rec.Info(kks, fmt.Sprintf("%v is greater than or equal to %v", slot.lowValue, slot.highValue))
			rec.Info(kks, lowRaw+" >= "+highRaw)
			rec.Error(kks, slot.lowValue, slot.highValue)
		}
	}
}
