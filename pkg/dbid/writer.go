package dbid

import (
	"strings"
)

// Header is the format line written at the top of every export.
const Header = "OVPT_FORMAT=2.1"

// Serialize renders the tree in DBID syntax. Each object is written as
//
//	(TYPE="t" NAME="n"
//	 [p1="v1"
//	 p2="v2"]
//	 (nested ...)
//	)
//
// indented one space per depth. Parameters that follow nested objects are
// emitted as an additional array, so child order survives a re-parse.
func Serialize(t *Tree) string {
	var sb strings.Builder
	sb.WriteString(Header)
	sb.WriteByte('\n')
	for _, child := range t.Children(t.Root()) {
		if t.nodes[child].Kind == ObjectNode {
			writeObject(&sb, t, child, 0)
		}
	}
	return sb.String()
}

func writeObject(sb *strings.Builder, t *Tree, id NodeID, depth int) {
	n := &t.nodes[id]
	indent := strings.Repeat(" ", depth)
	inner := indent + " "

	sb.WriteString(indent)
	sb.WriteString(`(TYPE="`)
	sb.WriteString(n.Value)
	sb.WriteString(`" NAME="`)
	sb.WriteString(n.Name)
	sb.WriteString("\"\n")

	children := n.Children
	// the leading parameter run is always written, even when empty
	i := writeArray(sb, t, children, 0, inner)
	for i < len(children) {
		child := children[i]
		if t.nodes[child].Kind == ObjectNode {
			writeObject(sb, t, child, depth+1)
			i++
			continue
		}
		i = writeArray(sb, t, children, i, inner)
	}
	sb.WriteString(indent)
	sb.WriteString(")\n")
}

// writeArray writes the run of parameters starting at children[i] and
// returns the index of the first child after the run.
func writeArray(sb *strings.Builder, t *Tree, children []NodeID, i int, indent string) int {
	sb.WriteString(indent)
	sb.WriteByte('[')
	first := true
	for ; i < len(children) && t.nodes[children[i]].Kind == ParamNode; i++ {
		p := &t.nodes[children[i]]
		if !first {
			sb.WriteByte('\n')
			sb.WriteString(indent)
		}
		first = false
		sb.WriteString(p.Name)
		sb.WriteString(`="`)
		sb.WriteString(p.Value)
		sb.WriteByte('"')
	}
	sb.WriteString("]\n")
	return i
}
