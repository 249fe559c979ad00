package lens

import (
	"strings"
	"sync"
	"unicode/utf8"
)

// Display markers for nodes which are not a resolved variable.
const (
	CyclicType       = "<cyclic>"
	CyclicHashMarker = "cyclic reference"
	WatchErrorType   = "<error>"
	WatchErrorMarker = "watch error"
	noVariableIndex  = -1
	watchScopePrefix = "watch:"
	frameScopePrefix = "frame:"
)

// NodeKind classifies a tree node.
type NodeKind int

const (
	// NodeVariable is a resolved variable, expandable when it has children.
	NodeVariable NodeKind = iota
	// NodeNull is a reference to an empty record.
	NodeNull
	// NodeNotFound is a reference which could not be resolved.
	NodeNotFound
	// NodeCyclic is a reference to a variable already open on the path from the root.
	NodeCyclic
	// NodeWatchError is a watch expression which failed to evaluate.
	NodeWatchError
)

func (k NodeKind) String() string {
	switch k {
	case NodeVariable:
		return "variable"
	case NodeNull:
		return "null"
	case NodeNotFound:
		return "not_found"
	case NodeCyclic:
		return "cyclic"
	case NodeWatchError:
		return "watch_error"
	default:
		return "unknown"
	}
}

// CyclicReferenceValue is the value displayed for a reference which would re-enter its own path.
func CyclicReferenceValue(id string) string {
	return "Cyclic reference: #" + id
}

// DisplayName returns the name shown for a reference, including the original name when the agent renamed it.
func DisplayName(ref VariableID) string {
	if ref.OriginalName != "" {
		return ref.Name + " (" + ref.OriginalName + ")"
	}
	return ref.Name
}

// ModifierPrefix returns the compact modifier prefix, built from the first character of each modifier.
func ModifierPrefix(modifiers []string) string {
	var sb strings.Builder
	for _, m := range modifiers {
		if r, size := utf8.DecodeRuneInString(m); size > 0 {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Tree is the lazily materialized display tree for one scope of a snapshot, for example the variables of a
// frame or a single watch result.
type Tree struct {
	// Scope is the path prefix of the roots.
	Scope string
	// Roots are the top level nodes, materialized on construction.
	Roots []*Node
	// NoVariableData is set when the source had no variable data at all, as opposed to zero variables.
	NoVariableData bool

	resolver Resolver
	state    *DisplayState
}

// NewTree builds the roots for the references. Children are only resolved once a node is open and its
// children are requested.
func NewTree(scope string, resolver Resolver, state *DisplayState, refs []VariableID) *Tree {
	t := &Tree{
		Scope:          scope,
		NoVariableData: refs == nil,
		resolver:       resolver,
		state:          state,
	}
	t.Roots = make([]*Node, len(refs))
	for i, ref := range refs {
		t.Roots[i] = t.newNode(ref, nil, i)
	}
	return t
}

// newWatchErrorTree builds a tree holding a single watch error leaf, the resolver is not consulted.
func newWatchErrorTree(scope string, state *DisplayState, expression, message string) *Tree {
	t := &Tree{Scope: scope, state: state}
	t.Roots = []*Node{{
		Name:  expression,
		Kind:  NodeWatchError,
		Type:  WatchErrorType,
		Hash:  WatchErrorMarker,
		Value: message,
		Path:  RootPath(scope, 0),
		index: noVariableIndex,
		tree:  t,
	}}
	return t
}

// State returns the display state backing the tree.
func (t *Tree) State() *DisplayState {
	return t.state
}

func (t *Tree) newNode(ref VariableID, parent *Node, position int) *Node {
	n := &Node{
		Name:           DisplayName(ref),
		Modifiers:      ModifierPrefix(ref.Modifiers),
		ModifiersTitle: strings.Join(ref.Modifiers, " "),
		Ref:            ref,
		index:          noVariableIndex,
		parent:         parent,
		tree:           t,
	}
	if parent == nil {
		n.Path = RootPath(t.Scope, position)
	} else {
		n.Depth = parent.Depth + 1
		n.Path = parent.Path.Child(position)
	}

	if index, ok := ParseVariableIndex(ref.ID); ok && parent != nil && parent.onPath(index) {
		n.Kind = NodeCyclic
		n.Type = CyclicType
		n.Hash = CyclicHashMarker
		n.Value = CyclicReferenceValue(ref.ID)
		return n
	}

	resolved := t.resolver.Resolve(ref)
	switch resolved.Status {
	case NotFound:
		n.Kind = NodeNotFound
		n.Type = NotFoundType
		n.Hash = NotFoundHashMarker
		n.Value = MissingReferenceValue(resolved.AttemptedID)
	case NullValue:
		n.Kind = NodeNull
		n.Value = resolved.Variable.Value
	default:
		v := resolved.Variable
		n.Kind = NodeVariable
		n.Type = v.Type
		n.Value = v.Value
		n.Hash = v.Hash
		n.Truncated = v.Truncated
		n.Expandable = len(v.Children) > 0
		n.childRefs = v.Children
		n.index, _ = ParseVariableIndex(ref.ID)
	}
	return n
}

// Node is a single displayed variable slot.
type Node struct {
	// Name is the display name, see DisplayName.
	Name string
	// Modifiers is the compact modifier prefix, ModifiersTitle the full list joined by spaces.
	Modifiers      string
	ModifiersTitle string
	// Ref is the reference this node was built from, zero for watch errors.
	Ref   VariableID
	Kind  NodeKind
	Type  string
	Value string
	Hash  string
	// Truncated is set when the agent truncated the variable content.
	Truncated bool
	// Depth is zero for roots.
	Depth int
	Path  NodePath
	// Expandable is true only for resolved variables with children.
	Expandable bool

	index     int
	parent    *Node
	tree      *Tree
	childRefs []VariableID
	once      sync.Once
	children  []*Node
}

// onPath reports if the variable index is this node or one of its ancestors.
func (n *Node) onPath(index int) bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.index == index && cur.index != noVariableIndex {
			return true
		}
	}
	return false
}

// Parent returns the parent node, or nil for roots.
func (n *Node) Parent() *Node {
	return n.parent
}

// Open reports the current open state from the tree's display state.
func (n *Node) Open() bool {
	if n.tree == nil || n.tree.state == nil {
		return false
	}
	return n.tree.state.IsOpen(n.Path, n.Depth)
}

// Toggle flips the open state of this node only, returning the new state.
func (n *Node) Toggle() bool {
	if n.tree == nil || n.tree.state == nil {
		return false
	}
	return n.tree.state.Toggle(n.Path, n.Depth)
}

// ChildCount returns the number of child references, without resolving them.
func (n *Node) ChildCount() int {
	return len(n.childRefs)
}

// Children returns the child nodes when the node is expandable and open, otherwise nil. Children are
// resolved on the first call and retained for the life of the tree.
func (n *Node) Children() []*Node {
	if !n.Expandable || !n.Open() {
		return nil
	}
	return n.materialize()
}

func (n *Node) materialize() []*Node {
	n.once.Do(func() {
		n.children = make([]*Node, len(n.childRefs))
		for i, ref := range n.childRefs {
			n.children[i] = n.tree.newNode(ref, n, i)
		}
	})
	return n.children
}

// Walk visits the visible nodes depth first, descending only into open nodes. Returning false from fn
// skips the children of that node.
func Walk(nodes []*Node, fn func(n *Node) bool) {
	for _, n := range nodes {
		if fn(n) {
			Walk(n.Children(), fn)
		}
	}
}

// WalkAll visits every node reachable from the roots regardless of display state, up to maxDepth (a
// negative value disables the limit). Cyclic references are leaves, so traversal always terminates.
func WalkAll(nodes []*Node, maxDepth int, fn func(n *Node)) {
	for _, n := range nodes {
		fn(n)
		if n.Expandable && (maxDepth < 0 || n.Depth < maxDepth) {
			WalkAll(n.materialize(), maxDepth, fn)
		}
	}
}
