package store

import "sort"

// DropInfo holds the per-drop auxiliary data read from the DBID unit tree.
// It is immutable once the tree has been loaded.
type DropInfo struct {
	Name string
	// eventTagging maps a module location (interface.branch.slot) to its
	// EVENT_TAGGING_ENABLE value.
	eventTagging map[string]string
	// taskPeriod maps a control task index to its period in milliseconds.
	taskPeriod map[string]string
}

func newDropInfo(name string) *DropInfo {
	return &DropInfo{
		Name:         name,
		eventTagging: make(map[string]string),
		taskPeriod:   make(map[string]string),
	}
}

// EventTagging returns the event tagging bitmap declared by the module at
// location.
func (d *DropInfo) EventTagging(location string) (string, bool) {
	if d == nil {
		return "", false
	}
	v, ok := d.eventTagging[location]
	return v, ok
}

// TaskPeriod returns the period, in milliseconds, of a control task.
func (d *DropInfo) TaskPeriod(task string) (string, bool) {
	if d == nil {
		return "", false
	}
	v, ok := d.taskPeriod[task]
	return v, ok
}

// Modules returns the module locations with a declared bitmap, sorted.
func (d *DropInfo) Modules() []string {
	return sortedKeys(d.eventTagging)
}

// Tasks returns the control task indexes with a declared period, sorted.
func (d *DropInfo) Tasks() []string {
	return sortedKeys(d.taskPeriod)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
