package validation

import (
	"fmt"

	"github.com/pointaudit/pointaudit/pkg/point"
)

const (
	broadcastAutomatic = "A"
	broadcastSlow      = "S"
	broadcastFast      = "F"

	scangroupFast = "0.1"
	scangroupSlow = "1"

	// fastTaskPeriod is the longest period, in milliseconds, of a fast task.
	fastTaskPeriod = 100
)

func checkScangroupBroadcast(_ *checkContext, p *point.Point, rec *Recorder) {
	kks := p.KKS()
	sg, bf := p.Get(point.ScangroupFrequency), p.Get(point.BroadcastFrequency)
	if sg == "" || bf == broadcastAutomatic {
		return
	}
	switch {
	case bf == broadcastSlow && sg == scangroupFast:
		rec.Info(kks, "fast scan group does not match slow broadcast frequency")
		rec.Error(kks, point.BroadcastFrequency, point.ScangroupFrequency)
	case bf == broadcastFast && sg == scangroupSlow:
		rec.Info(kks, "slow scan group does not match fast broadcast frequency")
		rec.Warning(kks, point.BroadcastFrequency, point.ScangroupFrequency)
	case sg != scangroupFast && sg != scangroupSlow:
		rec.Info(kks, "non-standard scan group "+sg)
		rec.Error(kks, point.ScangroupFrequency)
	}
}

// taskPeriod returns the period of the task a point runs in.
func (c *checkContext) taskPeriod(p *point.Point) (string, int, bool) {
	raw, ok := c.drop(p.Get(point.Drop)).TaskPeriod(p.Get(point.IOTaskIndex))
	if !ok {
		return "", 0, false
	}
	period, ok := integer(raw)
	return raw, period, ok
}

func checkBroadcastTask(c *checkContext, p *point.Point, rec *Recorder) {
	if !p.Is(point.AnalogPoint) {
		return
	}
	kks := p.KKS()
	task, bf := p.Get(point.IOTaskIndex), p.Get(point.BroadcastFrequency)
	if task == "" || bf == "" {
		return
	}
	raw, period, ok := c.taskPeriod(p)
	if !ok {
		if bf == broadcastSlow || bf == broadcastFast {
			rec.Info(kks, fmt.Sprintf("period of task %s in %s is unknown", task, p.Get(point.Drop)))
			rec.Warning(kks, point.IOTaskIndex)
		}
		return
	}
	detail := fmt.Sprintf("\nIO_TASK_INDEX: %s (periodtime: %s)", task, raw)
	switch {
	case bf == broadcastSlow && period <= fastTaskPeriod:
		rec.Info(kks, "slow broadcast frequency does not match fast task"+detail)
		rec.Warning(kks, point.IOTaskIndex, point.BroadcastFrequency)
	case bf == broadcastFast && period > fastTaskPeriod:
		rec.Info(kks, "fast broadcast frequency does not match slow task"+detail)
		rec.Error(kks, point.IOTaskIndex, point.BroadcastFrequency)
	}
}

const soeChannels = 16

func checkSOEInput(c *checkContext, p *point.Point, rec *Recorder) {
	if !p.Is(point.DigitalPoint) {
		return
	}
	location, channel := p.Get(point.IOLocation), p.Get(point.IOChannel)
	if location == "" || channel == "" {
		return
	}
	kks := p.KKS()
	soePoint, soeEnabled := p.Get(point.SOEPoint), p.Get(point.SOEEnabled)

	raw, haveBitmap := c.drop(p.Get(point.Drop)).EventTagging(location)
	bitmap, validBitmap := hexBitmap(raw)
	ch, validChannel := integer(channel)
	if !validChannel || ch < 1 || ch > soeChannels {
		rec.Info(kks, fmt.Sprintf("IO_CHANNEL (%s) is outside 1..%d", channel, soeChannels))
		rec.Error(kks, point.IOChannel)
		validChannel = false
	}

	var info, bit string
	switch {
	case !haveBitmap:
		info = "SOE input (EVENT_TAGGING_ENABLE) is not set"
	case !validBitmap:
		info = fmt.Sprintf("SOE input (EVENT_TAGGING_ENABLE) %q is not a hex bitmap", raw)
	case !validChannel:
		info = fmt.Sprintf("SOE input (EVENT_TAGGING_ENABLE): %s\n(%016b)", raw, bitmap)
	default:
		bit = fmt.Sprint((bitmap >> (ch - 1)) & 1)
		info = fmt.Sprintf("SOE input (EVENT_TAGGING_ENABLE): %s\n(%016b) (bit %s: %s)", raw, bitmap, channel, bit)
	}
	info += fmt.Sprintf("\nSOE_POINT: %q\nSOE_ENABLED: %q", soePoint, soeEnabled)

	switch {
	case soePoint != soeEnabled:
		rec.Info(kks, info)
		rec.Error(kks, point.SOEPoint, point.SOEEnabled)
	case !haveBitmap || !validBitmap:
		rec.Info(kks, info)
		rec.Mark(kks, zeroIsWarning(soePoint), point.SOEPoint)
		rec.Mark(kks, zeroIsWarning(soeEnabled), point.SOEEnabled)
	case bit != "" && bit != soePoint:
		severity := SeverityError
		if bit == "1" {
			severity = SeverityWarning
		}
		rec.Info(kks, info)
		rec.Mark(kks, severity, point.SOEPoint, point.SOEEnabled)
	}

	if soePoint == "1" && soeEnabled == "1" {
		if periodRaw, period, ok := c.taskPeriod(p); ok && period > fastTaskPeriod {
			rec.Info(kks, fmt.Sprintf("SOE point in a slow task (>%dms)\nIO_TASK_INDEX: %s (periodtime: %s)",
				fastTaskPeriod, p.Get(point.IOTaskIndex), periodRaw))
			rec.Warning(kks, point.IOTaskIndex, point.SOEPoint, point.SOEEnabled)
		}
	}
}

func zeroIsWarning(value string) Severity {
	if value == "0" {
		return SeverityWarning
	}
	return SeverityError
}
