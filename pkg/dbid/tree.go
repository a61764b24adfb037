package dbid

import "strings"

// NodeID addresses a node inside a Tree.
type NodeID int

// NoNode is returned by lookups that found nothing.
const NoNode NodeID = -1

// NodeKind distinguishes objects from leaf parameters.
type NodeKind uint8

const (
	// ObjectNode is a `( TYPE=.. NAME=.. ... )` entity. Name holds the NAME
	// value and Value holds the TYPE value.
	ObjectNode NodeKind = iota
	// ParamNode is a `keyword="value"` leaf read from an array.
	ParamNode
)

// Node is one entry of the tree arena.
type Node struct {
	Name     string
	Value    string
	Kind     NodeKind
	Parent   NodeID
	Children []NodeID
}

// Tree is an ordered DBID object tree stored as an arena of nodes. Node 0
// is a synthetic root object holding the top-level objects.
type Tree struct {
	nodes []Node
}

// NewTree returns a tree holding only the root.
func NewTree() *Tree {
	return &Tree{nodes: []Node{{Kind: ObjectNode, Parent: NoNode}}}
}

// Root returns the synthetic root node.
func (t *Tree) Root() NodeID { return 0 }

// Len returns the number of nodes, root included.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node stored under id.
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// Children returns the ordered children of id.
func (t *Tree) Children(id NodeID) []NodeID {
	return t.nodes[id].Children
}

// Add appends a new child under parent and returns its id.
func (t *Tree) Add(parent NodeID, kind NodeKind, name, value string) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Node{Name: name, Value: value, Kind: kind, Parent: parent})
	t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	return id
}

// AddObject appends an object node of the given type and name.
func (t *Tree) AddObject(parent NodeID, typ, name string) NodeID {
	return t.Add(parent, ObjectNode, name, typ)
}

// AddParam appends a parameter leaf.
func (t *Tree) AddParam(parent NodeID, name, value string) NodeID {
	return t.Add(parent, ParamNode, name, value)
}

// Clone returns a deep copy of the tree. Node ids are preserved.
func (t *Tree) Clone() *Tree {
	nodes := make([]Node, len(t.nodes))
	for i, n := range t.nodes {
		n.Children = append([]NodeID(nil), n.Children...)
		nodes[i] = n
	}
	return &Tree{nodes: nodes}
}

func (t *Tree) matches(id NodeID, namePrefix, valuePrefix string) bool {
	n := &t.nodes[id]
	return strings.HasPrefix(n.Name, namePrefix) && strings.HasPrefix(n.Value, valuePrefix)
}

// Find searches the subtree rooted at from, in depth-first pre-order and
// including from itself, for the first object whose name and type start
// with the given prefixes.
func (t *Tree) Find(from NodeID, namePrefix, valuePrefix string) NodeID {
	if from == NoNode {
		return NoNode
	}
	if t.nodes[from].Kind == ObjectNode && t.matches(from, namePrefix, valuePrefix) {
		return from
	}
	for _, child := range t.nodes[from].Children {
		if found := t.Find(child, namePrefix, valuePrefix); found != NoNode {
			return found
		}
	}
	return NoNode
}

// FindChildren returns the direct object children of id whose name and
// type start with the given prefixes.
func (t *Tree) FindChildren(id NodeID, namePrefix, valuePrefix string) []NodeID {
	if id == NoNode {
		return nil
	}
	var result []NodeID
	for _, child := range t.nodes[id].Children {
		if t.nodes[child].Kind == ObjectNode && t.matches(child, namePrefix, valuePrefix) {
			result = append(result, child)
		}
	}
	return result
}

// Param returns the value of the first direct parameter child named name.
func (t *Tree) Param(id NodeID, name string) (string, bool) {
	for _, child := range t.nodes[id].Children {
		n := &t.nodes[child]
		if n.Kind == ParamNode && n.Name == name {
			return n.Value, true
		}
	}
	return "", false
}

// Params returns the direct parameter children of id in order.
func (t *Tree) Params(id NodeID) []NodeID {
	var result []NodeID
	for _, child := range t.nodes[id].Children {
		if t.nodes[child].Kind == ParamNode {
			result = append(result, child)
		}
	}
	return result
}

// SetParam overwrites the first parameter named name under id, or
// appends it after the last existing parameter when absent.
func (t *Tree) SetParam(id NodeID, name, value string) {
	children := t.nodes[id].Children
	last := -1
	for i, child := range children {
		n := &t.nodes[child]
		if n.Kind != ParamNode {
			continue
		}
		if n.Name == name {
			n.Value = value
			return
		}
		last = i
	}
	param := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Node{Name: name, Value: value, Kind: ParamNode, Parent: id})
	children = t.nodes[id].Children
	updated := make([]NodeID, 0, len(children)+1)
	updated = append(updated, children[:last+1]...)
	updated = append(updated, param)
	updated = append(updated, children[last+1:]...)
	t.nodes[id].Children = updated
}

// Equal reports whether two trees hold the same nodes in the same order.
// Node ids are not compared.
func Equal(a, b *Tree) bool {
	return equalNodes(a, a.Root(), b, b.Root())
}

func equalNodes(a *Tree, x NodeID, b *Tree, y NodeID) bool {
	nx, ny := &a.nodes[x], &b.nodes[y]
	if nx.Kind != ny.Kind || nx.Name != ny.Name || nx.Value != ny.Value {
		return false
	}
	if len(nx.Children) != len(ny.Children) {
		return false
	}
	for i := range nx.Children {
		if !equalNodes(a, nx.Children[i], b, ny.Children[i]) {
			return false
		}
	}
	return true
}
