package point

import (
	"path"
	"sort"
	"strings"
)

// Point is the canonical record for one tag, merged across all sources.
type Point struct {
	values [parameterCount]string
	// files holds every contributing file except the DBID export, sorted.
	files []string
	dbid  bool
	src   bool
	xml   bool
	hist  bool
}

// New creates a point from its first batch.
func New(b Batch) *Point {
	p := &Point{}
	p.values[KKS] = b[KKS]
	p.Merge(b)
	return p
}

// Get returns the value of a parameter, or "" when it was never set.
func (p *Point) Get(param Parameter) string {
	if !param.Valid() {
		return ""
	}
	return p.values[param]
}

// KKS returns the tag identifier.
func (p *Point) KKS() string {
	return p.values[KKS]
}

// Kind returns the point type when TYPE holds a recognized type name.
func (p *Point) Kind() (Kind, bool) {
	return ParseKind(p.values[Type])
}

// Is reports whether the point's TYPE equals k.
func (p *Point) Is(k Kind) bool {
	return p.values[Type] == k.String()
}

// Merge overwrites every parameter present in b, except KKS which is the
// identity and APPEAR_IN_FILES which accumulates.
func (p *Point) Merge(b Batch) {
	for param, value := range b {
		switch param {
		case KKS:
		case AppearInFiles:
			for _, name := range strings.Split(value, ",") {
				p.addFile(strings.TrimSpace(name))
			}
		default:
			if param.Valid() {
				p.values[param] = value
			}
		}
	}
	p.values[AppearInFiles] = p.renderFiles()
}

func (p *Point) addFile(name string) {
	if name == "" {
		return
	}
	base := path.Base(name)
	ext := path.Ext(base)
	switch {
	case name == DbidFileName:
		p.dbid = true
		return
	case base == HistorianFileName:
		p.hist = true
	case strings.EqualFold(ext, ".src"):
		p.src = true
	case strings.EqualFold(ext, ".xml"):
		p.xml = true
	}
	i := sort.SearchStrings(p.files, name)
	if i < len(p.files) && p.files[i] == name {
		return
	}
	p.files = append(p.files, "")
	copy(p.files[i+1:], p.files[i:])
	p.files[i] = name
}

func (p *Point) renderFiles() string {
	return strings.Join(p.Files(), ", ")
}

// Files returns the provenance list: the DBID export first when present,
// followed by every other contributing file in lexicographic order.
func (p *Point) Files() []string {
	result := make([]string, 0, len(p.files)+1)
	if p.dbid {
		result = append(result, DbidFileName)
	}
	return append(result, p.files...)
}

// InDBID reports whether the tag was seen in the DBID export.
func (p *Point) InDBID() bool { return p.dbid }

// InSource reports whether the tag was seen in a graphics source file.
func (p *Point) InSource() bool { return p.src }

// InLogic reports whether the tag was seen in a logic XML file.
func (p *Point) InLogic() bool { return p.xml }

// InHistorian reports whether the tag was seen in the historian configuration.
func (p *Point) InHistorian() bool { return p.hist }

// Values returns a copy of every non-empty parameter.
func (p *Point) Values() Batch {
	b := make(Batch)
	for i, v := range p.values {
		if v != "" {
			b[Parameter(i)] = v
		}
	}
	return b
}
