package dbid

import (
	"fmt"
	"strconv"

	"github.com/pointaudit/pointaudit/pkg/point"
)

// DeriveEventTagging returns a copy of t in which every module's
// EVENT_TAGGING_ENABLE parameter is recomputed from the digital points of
// its drop: bit (channel-1) is set when the point has SOE_POINT and
// SOE_ENABLED both equal to "1". The value is written as "0x" followed by
// four hex digits. The input tree is never modified.
func DeriveEventTagging(t *Tree) (*Tree, error) {
	out := t.Clone()
	unit := out.Unit()
	if unit == NoNode {
		return nil, fmt.Errorf("derive event tagging: no %s object found", unitType)
	}
	for _, drop := range out.Drops(unit) {
		if DropNumber(out.nodes[drop].Name) == "" {
			continue
		}
		if err := out.deriveDrop(drop); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (t *Tree) deriveDrop(drop NodeID) error {
	dropName := t.nodes[drop].Name
	modules := make(map[string]NodeID)
	bitmaps := make(map[string]uint16)
	var order []string
	for _, m := range t.Modules(drop) {
		loc := m.Location()
		if _, seen := modules[loc]; !seen {
			order = append(order, loc)
		}
		modules[loc] = m.Node
		bitmaps[loc] = 0
	}

	for _, pt := range t.FindChildren(drop, "", point.DigitalPoint.String()) {
		loc, ok := t.Param(pt, point.IOLocation.String())
		if !ok {
			continue
		}
		kks := t.nodes[pt].Name
		if _, known := modules[loc]; !known {
			return fmt.Errorf("derive event tagging: %s %s: %s %q does not refer to a module",
				dropName, kks, point.IOLocation, loc)
		}
		rawChannel, ok := t.Param(pt, point.IOChannel.String())
		if !ok {
			return fmt.Errorf("derive event tagging: %s %s: missing %s", dropName, kks, point.IOChannel)
		}
		soePoint, _ := t.Param(pt, point.SOEPoint.String())
		soeEnabled, _ := t.Param(pt, point.SOEEnabled.String())
		if soePoint != "1" || soeEnabled != "1" {
			continue
		}
		channel, err := strconv.Atoi(rawChannel)
		if err != nil || channel < 1 || channel > 16 {
			return fmt.Errorf("derive event tagging: %s %s: %s %q is not within 1..16",
				dropName, kks, point.IOChannel, rawChannel)
		}
		bitmaps[loc] |= 1 << (channel - 1)
	}

	for _, loc := range order {
		t.SetParam(modules[loc], EventTaggingParam, fmt.Sprintf("0x%04x", bitmaps[loc]))
	}
	return nil
}
