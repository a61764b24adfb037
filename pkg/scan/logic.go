package scan

import (
	"strings"

	"github.com/pointaudit/pointaudit/pkg/point"
)

const (
	logicPointAttr = `point="`
	// logicSentinelPrefix marks connection blocks rather than tags.
	logicSentinelPrefix = "OCB"
)

// ScanLogic extracts the distinct `point="..."` attribute values of a logic
// XML file. Empty values and values starting with OCB are skipped.
func ScanLogic(name, text string) []point.Batch {
	tags := newDedupe()
	for pos := strings.Index(text, logicPointAttr); pos >= 0; pos = indexFrom(text, logicPointAttr, pos) {
		pos += len(logicPointAttr)
		end := indexFrom(text, `"`, pos)
		if end < 0 {
			break
		}
		value := text[pos:end]
		if value != "" && !strings.HasPrefix(value, logicSentinelPrefix) {
			tags.add(value)
		}
	}
	batches := make([]point.Batch, 0, len(tags.order))
	for _, tag := range tags.order {
		batches = append(batches, point.Batch{point.KKS: tag, point.AppearInFiles: name})
	}
	return batches
}
