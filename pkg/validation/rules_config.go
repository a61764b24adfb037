package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pointaudit/pointaudit/pkg/point"
)

func checkCharacteristics(c *checkContext, p *point.Point, rec *Recorder) {
	value := p.Get(point.Characteristics)
	if value == "" || c.settings.mask == nil {
		return
	}
	mode := c.settings.Characteristics
	if c.settings.mask.Match(value) != mode.CompareEqual {
		return
	}
	verb := "does not match"
	if mode.CompareEqual {
		verb = "matches"
	}
	rec.Info(p.KKS(), fmt.Sprintf("characteristics (%s) %s mask (%s)", value, verb, mode.Mask))
}

// channelTwoSuffix marks the second input of a paired signal; its
// addressing is checked against the first input when that one exists.
const channelTwoSuffix = "XQ02"

// channelOneSibling derives the tag of the first input: 10ABC01_XQ02 and
// 10ABC01XQ02 both map to 10ABC01XQ01.
func channelOneSibling(kks string) string {
	if !strings.HasSuffix(kks, channelTwoSuffix) {
		return kks
	}
	sibling := kks
	if n := len(sibling); n > len(channelTwoSuffix) && sibling[n-len(channelTwoSuffix)-1] == '_' {
		sibling = sibling[:n-len(channelTwoSuffix)-1] + sibling[n-len(channelTwoSuffix):]
	}
	return sibling[:len(sibling)-1] + "1"
}

type ancillaryCheck struct {
	failed    bool
	field     point.Parameter
	value     string
	ancillary point.Parameter
	ancValue  string
}

func checkAncillary(c *checkContext, p *point.Point, rec *Recorder) {
	if p.Is(point.ModulePoint) {
		return
	}
	kks := p.KKS()
	addressed := p
	if sibling := channelOneSibling(kks); sibling != kks {
		if sp, ok := c.source.Point(sibling); ok {
			addressed = sp
		}
	}

	checks := make([]ancillaryCheck, 0, len(AncillarySources))
	anyValue := false
	for _, field := range AncillarySources {
		mapping, ok := c.settings.Ancillary[field]
		check := ancillaryCheck{field: field, ancillary: mapping.Field}
		if field == point.Drop {
			check.value = p.Get(field)
		} else {
			check.value = addressed.Get(field)
			anyValue = anyValue || check.value != ""
		}
		if ok {
			check.ancValue = p.Get(mapping.Field)
			anyValue = anyValue || check.ancValue != ""
		}
		if ok && mapping.Enabled {
			if field == point.Drop {
				check.failed = !dropMatches(check.value, check.ancValue)
			} else {
				check.failed = check.value != check.ancValue
			}
		}
		checks = append(checks, check)
	}
	if !anyValue {
		return
	}

	failed := false
	for _, check := range checks {
		failed = failed || check.failed
	}
	if failed && addressed != p {
		rec.Info(kks, "checked against channel-1 sibling "+addressed.KKS())
	}
	for _, check := range checks {
		if !check.failed {
			continue
		}
		rec.Info(kks, fmt.Sprintf("%v (%s) does not match %v (%s)", check.field, check.value, check.ancillary, check.ancValue))
		rec.Mark(kks, presence(p.Get(check.field)), check.field)
		rec.Mark(kks, presence(p.Get(check.ancillary)), check.ancillary)
	}
}

// dropMatches reports whether a redundant drop pair such as DROP11/DROP61
// is mirrored by the ancillary drop number 11.
func dropMatches(drop, anc string) bool {
	if !allDigits(anc) {
		return false
	}
	n, err := strconv.Atoi(anc)
	if err != nil {
		return false
	}
	return drop == fmt.Sprintf("DROP%s/DROP%d", anc, n+50)
}

// presence grades a mismatch: an empty field is a warning, a wrong one an
// error.
func presence(value string) Severity {
	if value == "" {
		return SeverityWarning
	}
	return SeverityError
}

func checkLimitsPriority(c *checkContext, p *point.Point, rec *Recorder) {
	if !p.Is(point.AnalogPoint) {
		return
	}
	kks := p.KKS()
	for _, field := range PriorityFields {
		expected, ok := c.settings.AlarmPriorities[field]
		if !ok || !expected.Enabled {
			continue
		}
		if actual, ok := integer(p.Get(field)); ok && actual == expected.Value {
			continue
		}
		rec.Info(kks, fmt.Sprintf("%v != %d", field, expected.Value))
		rec.Warning(kks, field)
	}
}
