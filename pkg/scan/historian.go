package scan

import (
	"github.com/pointaudit/pointaudit/pkg/point"
)

const (
	scanGroupFrequencyAttr = `ScanGroup_Frequency="`
	pointNameAttr          = `Point_Name="`
)

// ScanHistorian walks a historian configuration in document order,
// remembering the latest ScanGroup_Frequency and attaching it to every
// following Point_Name. The tag is the point name up to its first '.'.
// A tag listed more than once keeps its first position and its last
// frequency.
func ScanHistorian(name, text string) []point.Batch {
	var (
		frequency string
		tags      = newDedupe()
		freqs     []string
	)
	pos := 0
	for {
		freqPos := indexFrom(text, scanGroupFrequencyAttr, pos)
		namePos := indexFrom(text, pointNameAttr, pos)
		switch {
		case freqPos >= 0 && (namePos < 0 || freqPos < namePos):
			pos = freqPos + len(scanGroupFrequencyAttr)
			end := indexFrom(text, `"`, pos)
			if end < 0 {
				end = len(text)
			}
			frequency = text[pos:end]
		case namePos >= 0:
			pos = namePos + len(pointNameAttr)
			end := pos
			for end < len(text) && text[end] != '.' && text[end] != '"' {
				end++
			}
			tag := text[pos:end]
			if tag == "" {
				continue
			}
			i := tags.add(tag)
			if i == len(freqs) {
				freqs = append(freqs, frequency)
			} else {
				freqs[i] = frequency
			}
		default:
			batches := make([]point.Batch, 0, len(tags.order))
			for i, tag := range tags.order {
				batches = append(batches, point.Batch{
					point.KKS:                tag,
					point.AppearInFiles:      name,
					point.ScangroupFrequency: freqs[i],
				})
			}
			return batches
		}
	}
}
