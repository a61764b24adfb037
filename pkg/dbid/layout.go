package dbid

import "strings"

// Structural name and type prefixes of the DBID unit layout.
const (
	unitName        = "UNIT"
	unitType        = "Unit"
	dropType        = "Drop"
	dropPrefix      = "DROP"
	ioDeviceName    = "I/O Device 0 IOIC"
	ioDeviceType    = "IoDevice"
	interfacePrefix = "I/O Interface "
	branchPrefix    = "Branch "
	branchType      = "Branch"
	slotPrefix      = "Slot "
	slotType        = "RSlot"
	moduleType      = "RModule"
	controllerName  = "Controller"
	controllerType  = "ConfigController"
	taskPrefix      = "Control Task "
	taskType        = "ConfigDPUCtrlTask"

	// PointNameParam holds a module's declared module point name.
	PointNameParam = "POINT_NAME"
	// EventTaggingParam holds a module's 16-bit SOE input bitmap.
	EventTaggingParam = "EVENT_TAGGING_ENABLE"
	// PeriodTimeParam holds a control task's period in milliseconds.
	PeriodTimeParam = "periodtime"
)

// ModuleRef addresses one I/O module inside a drop.
type ModuleRef struct {
	Node      NodeID
	Interface string
	Branch    string
	Slot      string
}

// Location returns the module address as used by IO_LOCATION.
func (m ModuleRef) Location() string {
	return m.Interface + "." + m.Branch + "." + m.Slot
}

// TaskRef addresses one control task inside a drop controller.
type TaskRef struct {
	Node  NodeID
	Index string
}

// Unit returns the first Unit object of the tree, or NoNode.
func (t *Tree) Unit() NodeID {
	return t.Find(t.Root(), unitName, unitType)
}

// Drops returns the drop objects directly under unit.
func (t *Tree) Drops(unit NodeID) []NodeID {
	return t.FindChildren(unit, "", dropType)
}

// DropNumber extracts the controller number from a drop name such as
// "DROP12/DROP62".
func DropNumber(dropName string) string {
	if !strings.HasPrefix(dropName, dropPrefix) {
		return ""
	}
	return leadingDigits(dropName[len(dropPrefix):])
}

// Modules lists every module reachable through I/O interfaces 1 and 2 of
// the drop, in tree order.
func (t *Tree) Modules(drop NodeID) []ModuleRef {
	device := t.Find(drop, ioDeviceName, ioDeviceType)
	var result []ModuleRef
	for _, iface := range t.FindChildren(device, interfacePrefix, ioDeviceType) {
		ifaceNumber := leadingDigits(strings.TrimPrefix(t.nodes[iface].Name, interfacePrefix))
		if ifaceNumber != "1" && ifaceNumber != "2" {
			continue
		}
		for _, branch := range t.FindChildren(iface, branchPrefix, branchType) {
			branchNumber := leadingDigits(strings.TrimPrefix(t.nodes[branch].Name, branchPrefix))
			for _, slot := range t.FindChildren(branch, slotPrefix, slotType) {
				slotNumber := leadingDigits(strings.TrimPrefix(t.nodes[slot].Name, slotPrefix))
				for _, module := range t.FindChildren(slot, "", moduleType) {
					result = append(result, ModuleRef{
						Node:      module,
						Interface: ifaceNumber,
						Branch:    branchNumber,
						Slot:      slotNumber,
					})
				}
			}
		}
	}
	return result
}

// ControlTasks lists the control tasks configured on the drop controller.
func (t *Tree) ControlTasks(drop NodeID) []TaskRef {
	controller := t.Find(drop, controllerName, controllerType)
	var result []TaskRef
	for _, task := range t.FindChildren(controller, taskPrefix, taskType) {
		result = append(result, TaskRef{
			Node:  task,
			Index: leadingDigits(strings.TrimPrefix(t.nodes[task].Name, taskPrefix)),
		})
	}
	return result
}

// ModulePointName returns the POINT_NAME a module at the given address must
// declare.
func ModulePointName(dropNumber string, m ModuleRef) string {
	return "MP_" + dropNumber + "_" + m.Interface + "_" + m.Branch + "_" + m.Slot
}

func leadingDigits(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i]
}
