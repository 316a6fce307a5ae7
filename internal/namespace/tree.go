// Package namespace models a wiki's directory hierarchy as a tree of namespaces.
//
// Nodes live in a flat arena and refer to each other by ID, so a node can
// reach its parent without an owning back-pointer.
package namespace

import (
	"path"
	"strings"
)

// ID addresses a node in a Tree.
type ID int

// Root is the ID of the root namespace of every Tree.
const Root ID = 0

const noParent ID = -1

// PageEntry is a page file that belongs directly to a namespace.
type PageEntry struct {
	Name string `json:"name"`
	Path string `json:"path"` // slash-separated, relative to the page tree root
}

type node struct {
	name     string
	parent   ID
	children []ID
	byName   map[string]ID
	pages    []PageEntry
	files    int // every file in the directory, templates included
}

// Tree is a namespace hierarchy. It is built once and read-only afterwards.
type Tree struct {
	nodes   []node
	skipped []PageEntry
}

// New returns a tree holding only the root namespace.
func New() *Tree {
	return &Tree{nodes: []node{{parent: noParent, byName: map[string]ID{}}}}
}

// Len returns the number of namespaces including the root.
func (t *Tree) Len() int {
	return len(t.nodes)
}

func (t *Tree) valid(id ID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

// Ensure returns the namespace for a slash-separated directory path,
// creating missing nodes on the way. "" and "." name the root.
func (t *Tree) Ensure(dir string) ID {
	id := Root
	for _, seg := range segments(dir) {
		id = t.child(id, seg)
	}
	return id
}

// Lookup finds an existing namespace by directory path.
func (t *Tree) Lookup(dir string) (ID, bool) {
	id := Root
	for _, seg := range segments(dir) {
		next, ok := t.nodes[id].byName[seg]
		if !ok {
			return 0, false
		}
		id = next
	}
	return id, true
}

func (t *Tree) child(parent ID, name string) ID {
	if id, ok := t.nodes[parent].byName[name]; ok {
		return id
	}
	id := ID(len(t.nodes))
	t.nodes = append(t.nodes, node{name: name, parent: parent, byName: map[string]ID{}})
	t.nodes[parent].children = append(t.nodes[parent].children, id)
	t.nodes[parent].byName[name] = id
	return id
}

func segments(dir string) []string {
	dir = strings.Trim(path.Clean("/"+dir), "/")
	if dir == "" {
		return nil
	}
	return strings.Split(dir, "/")
}

// Name returns the folder segment of a namespace; the root's name is empty.
func (t *Tree) Name(id ID) string {
	if !t.valid(id) {
		return ""
	}
	return t.nodes[id].name
}

// Parent returns the parent of id. The root has none.
func (t *Tree) Parent(id ID) (ID, bool) {
	if !t.valid(id) || t.nodes[id].parent == noParent {
		return 0, false
	}
	return t.nodes[id].parent, true
}

// Children returns the child namespaces of id in insertion order.
func (t *Tree) Children(id ID) []ID {
	if !t.valid(id) {
		return nil
	}
	return append([]ID(nil), t.nodes[id].children...)
}

// Pages returns the pages directly inside id.
func (t *Tree) Pages(id ID) []PageEntry {
	if !t.valid(id) {
		return nil
	}
	return append([]PageEntry(nil), t.nodes[id].pages...)
}

// Skipped returns the template files left out while building.
func (t *Tree) Skipped() []PageEntry {
	return append([]PageEntry(nil), t.skipped...)
}

// Segments returns the folder names from the root down to id.
func (t *Tree) Segments(id ID) []string {
	var segs []string
	for t.valid(id) && t.nodes[id].parent != noParent {
		segs = append(segs, t.nodes[id].name)
		id = t.nodes[id].parent
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return segs
}

// Dir returns the slash-separated directory path of id.
func (t *Tree) Dir(id ID) string {
	return strings.Join(t.Segments(id), "/")
}

// Namespace returns the canonical prefix pages in id share:
// ":" for the root and ":a:b:" for nested namespaces.
func (t *Tree) Namespace(id ID) string {
	segs := t.Segments(id)
	if len(segs) == 0 {
		return ":"
	}
	return ":" + strings.Join(segs, ":") + ":"
}

// Walk visits every namespace in pre-order, stopping at the first error.
func (t *Tree) Walk(fn func(id ID) error) error {
	return t.walk(Root, fn)
}

func (t *Tree) walk(id ID, fn func(ID) error) error {
	if err := fn(id); err != nil {
		return err
	}
	for _, c := range t.nodes[id].children {
		if err := t.walk(c, fn); err != nil {
			return err
		}
	}
	return nil
}

// Empty returns the namespaces, the root included, whose directory holds no
// files at all. A directory containing only templates is not empty.
func (t *Tree) Empty() []ID {
	var out []ID
	_ = t.Walk(func(id ID) error {
		if t.nodes[id].files == 0 {
			out = append(out, id)
		}
		return nil
	})
	return out
}

// PageCount returns the number of pages across all namespaces.
func (t *Tree) PageCount() int {
	n := 0
	for _, nd := range t.nodes {
		n += len(nd.pages)
	}
	return n
}
