package point

import "fmt"

// Kind classifies a point by the DBID object type that declares it.
type Kind int

const (
	AnalogPoint Kind = iota
	DigitalPoint
	AlgorithmPoint
	PackedPoint
	ModulePoint
	DropPoint

	kindCount
)

var kindNames = [...]string{
	AnalogPoint:    "AnalogPoint",
	DigitalPoint:   "DigitalPoint",
	AlgorithmPoint: "AlgorithmPoint",
	PackedPoint:    "PackedPoint",
	ModulePoint:    "ModulePoint",
	DropPoint:      "DropPoint",
}

var kindsByName map[string]Kind

func init() {
	if len(kindNames) != int(kindCount) {
		panic(fmt.Sprintf("point: %d kind names for %d kinds", len(kindNames), kindCount))
	}
	kindsByName = make(map[string]Kind, kindCount)
	for k, name := range kindNames {
		if name == "" {
			panic(fmt.Sprintf("point: kind %d has no name", k))
		}
		kindsByName[name] = Kind(k)
	}
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind resolves an exact DBID type name such as "AnalogPoint".
func ParseKind(name string) (Kind, bool) {
	k, ok := kindsByName[name]
	return k, ok
}
