package lens

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingResolver(table VariableTable, count *atomic.Int32) Resolver {
	return ResolverFunc(func(ref VariableID) ResolvedVariable {
		count.Add(1)
		return Resolve(table, ref)
	})
}

func TestNewTree(t *testing.T) {
	t.Parallel()

	table := VariableTable{
		{Type: "Order", Value: "Order#1", Hash: "a1", Children: []VariableID{
			{ID: "1", Name: "id", Modifiers: []string{"private", "final"}},
			{ID: "2", Name: "customer"},
			{ID: "9", Name: "missing"},
		}},
		{Type: "int", Value: "17"},
		{},
	}

	t.Run("roots", func(t *testing.T) {
		tree := NewTree("frame:0", table, NewDisplayState(1), []VariableID{
			{ID: "0", Name: "order", OriginalName: "o"},
			{ID: "2", Name: "nothing"},
			{ID: "x", Name: "bad"},
		})
		require.Len(t, tree.Roots, 3)
		assert.False(t, tree.NoVariableData)

		order := tree.Roots[0]
		assert.Equal(t, "order (o)", order.Name)
		assert.Equal(t, NodeVariable, order.Kind)
		assert.Equal(t, "Order", order.Type)
		assert.Equal(t, "Order#1", order.Value)
		assert.Equal(t, "a1", order.Hash)
		assert.Equal(t, 0, order.Depth)
		assert.Equal(t, NodePath("frame:0/0"), order.Path)
		assert.True(t, order.Expandable)
		assert.True(t, order.Open())
		assert.Equal(t, 3, order.ChildCount())
		assert.Nil(t, order.Parent())

		null := tree.Roots[1]
		assert.Equal(t, NodeNull, null.Kind)
		assert.Equal(t, NullValueString, null.Value)
		assert.False(t, null.Expandable)

		bad := tree.Roots[2]
		assert.Equal(t, NodeNotFound, bad.Kind)
		assert.Equal(t, NotFoundType, bad.Type)
		assert.Equal(t, NotFoundHashMarker, bad.Hash)
		assert.Equal(t, "Cannot find variable: #x", bad.Value)
		assert.Nil(t, bad.Children())
	})

	t.Run("children", func(t *testing.T) {
		tree := NewTree("frame:0", table, NewDisplayState(1), []VariableID{{ID: "0", Name: "order"}})
		children := tree.Roots[0].Children()
		require.Len(t, children, 3)

		id := children[0]
		assert.Equal(t, "id", id.Name)
		assert.Equal(t, "pf", id.Modifiers)
		assert.Equal(t, "private final", id.ModifiersTitle)
		assert.Equal(t, 1, id.Depth)
		assert.Equal(t, NodePath("frame:0/0/0"), id.Path)
		assert.Same(t, tree.Roots[0], id.Parent())
		assert.False(t, id.Open())

		assert.Equal(t, NodeNull, children[1].Kind)
		assert.Equal(t, NodeNotFound, children[2].Kind)
		assert.Equal(t, MissingReferenceValue("9"), children[2].Value)
	})

	t.Run("nil_refs", func(t *testing.T) {
		tree := NewTree("frame:1", table, NewDisplayState(1), nil)
		assert.True(t, tree.NoVariableData)
		assert.Empty(t, tree.Roots)
	})

	t.Run("empty_refs", func(t *testing.T) {
		tree := NewTree("frame:1", table, NewDisplayState(1), []VariableID{})
		assert.False(t, tree.NoVariableData)
		assert.Empty(t, tree.Roots)
	})
}

func TestTreeOpenDepth(t *testing.T) {
	t.Parallel()

	// chain 0 -> 1 -> 2 -> 3 -> 4
	table := make(VariableTable, 5)
	for i := range table {
		table[i] = Variable{Type: "Node", Value: "n"}
		if i < len(table)-1 {
			table[i].Children = []VariableID{{ID: string(rune('1' + i)), Name: "next"}}
		}
	}

	for depth := 0; depth <= 5; depth++ {
		tree := NewTree("frame:0", table, NewDisplayState(depth), []VariableID{{ID: "0", Name: "head"}})
		WalkAll(tree.Roots, -1, func(n *Node) {
			assert.Equal(t, n.Depth < depth, n.Open(), "depth %d with auto expand %d", n.Depth, depth)
		})

		var visible int
		Walk(tree.Roots, func(n *Node) bool {
			visible++
			return true
		})
		assert.Equal(t, min(depth+1, len(table)), visible)
	}
}

func TestTreeToggle(t *testing.T) {
	t.Parallel()

	table := VariableTable{
		{Type: "Pair", Value: "pair", Children: []VariableID{{ID: "1", Name: "left"}, {ID: "1", Name: "right"}}},
		{Type: "Box", Value: "box", Children: []VariableID{{ID: "2", Name: "v"}}},
		{Type: "int", Value: "3"},
	}
	state := NewDisplayState(1)
	tree := NewTree("frame:0", table, state, []VariableID{{ID: "0", Name: "p"}})

	children := tree.Roots[0].Children()
	require.Len(t, children, 2)
	left, right := children[0], children[1]
	assert.False(t, left.Open())
	assert.Nil(t, left.Children())

	assert.True(t, left.Toggle())
	assert.True(t, left.Open())
	assert.False(t, right.Open(), "shared variable toggled independently")
	require.Len(t, left.Children(), 1)
	assert.Nil(t, right.Children())

	assert.False(t, tree.Roots[0].Toggle())
	assert.Nil(t, tree.Roots[0].Children())
	assert.True(t, left.Open(), "descendant state retained while ancestor is closed")

	state.Reset()
	assert.True(t, tree.Roots[0].Open())
	assert.False(t, left.Open())
}

func TestTreeCycles(t *testing.T) {
	t.Parallel()

	t.Run("self_reference", func(t *testing.T) {
		table := VariableTable{
			{Type: "Node", Value: "self", Children: []VariableID{{ID: "0", Name: "me"}}},
		}
		tree := NewTree("frame:0", table, NewDisplayState(10), []VariableID{{ID: "0", Name: "root"}})
		children := tree.Roots[0].Children()
		require.Len(t, children, 1)
		assert.Equal(t, NodeCyclic, children[0].Kind)
		assert.Equal(t, CyclicType, children[0].Type)
		assert.Equal(t, CyclicHashMarker, children[0].Hash)
		assert.Equal(t, "Cyclic reference: #0", children[0].Value)
		assert.False(t, children[0].Expandable)
		assert.Nil(t, children[0].Children())
	})

	t.Run("indirect_cycle", func(t *testing.T) {
		table := VariableTable{
			{Type: "A", Value: "a", Children: []VariableID{{ID: "1", Name: "b"}}},
			{Type: "B", Value: "b", Children: []VariableID{{ID: "2", Name: "c"}}},
			{Type: "C", Value: "c", Children: []VariableID{{ID: "0", Name: "a"}}},
		}
		tree := NewTree("frame:0", table, NewDisplayState(100), []VariableID{{ID: "0", Name: "a"}})

		var kinds []NodeKind
		Walk(tree.Roots, func(n *Node) bool {
			kinds = append(kinds, n.Kind)
			return true
		})
		assert.Equal(t, []NodeKind{NodeVariable, NodeVariable, NodeVariable, NodeCyclic}, kinds)
	})

	t.Run("shared_not_cyclic", func(t *testing.T) {
		table := VariableTable{
			{Type: "Holder", Value: "h", Children: []VariableID{{ID: "1", Name: "x"}, {ID: "1", Name: "y"}}},
			{Type: "String", Value: "shared"},
		}
		tree := NewTree("frame:0", table, NewDisplayState(2), []VariableID{{ID: "0", Name: "h"}, {ID: "1", Name: "s"}})
		var count int
		WalkAll(tree.Roots, -1, func(n *Node) {
			count++
			assert.Equal(t, NodeVariable, n.Kind)
		})
		assert.Equal(t, 4, count)
	})

	t.Run("walk_all_terminates", func(t *testing.T) {
		table := VariableTable{
			{Type: "A", Value: "a", Children: []VariableID{{ID: "0", Name: "a"}, {ID: "1", Name: "b"}}},
			{Type: "B", Value: "b", Children: []VariableID{{ID: "0", Name: "a"}, {ID: "1", Name: "b"}}},
		}
		tree := NewTree("frame:0", table, NewDisplayState(0), []VariableID{{ID: "0", Name: "a"}})
		var cyclic int
		WalkAll(tree.Roots, -1, func(n *Node) {
			if n.Kind == NodeCyclic {
				cyclic++
			}
		})
		// a -> [a (cyclic), b -> [a (cyclic), b (cyclic)]]
		assert.Equal(t, 3, cyclic)
	})
}

func TestTreeLazyMaterialization(t *testing.T) {
	t.Parallel()

	table := VariableTable{
		{Type: "List", Value: "size=3", Children: []VariableID{{ID: "1", Name: "[0]"}, {ID: "1", Name: "[1]"}, {ID: "1", Name: "[2]"}}},
		{Type: "int", Value: "1"},
	}
	var count atomic.Int32
	tree := NewTree("frame:0", countingResolver(table, &count), NewDisplayState(0), []VariableID{{ID: "0", Name: "list"}})
	assert.Equal(t, int32(1), count.Load())

	root := tree.Roots[0]
	assert.Nil(t, root.Children())
	assert.Equal(t, 3, root.ChildCount())
	assert.Equal(t, int32(1), count.Load(), "closed node must not resolve children")

	root.Toggle()
	require.Len(t, root.Children(), 3)
	assert.Equal(t, int32(4), count.Load())
	require.Len(t, root.Children(), 3)
	assert.Equal(t, int32(4), count.Load(), "children are retained")
}

func TestWatchErrorTree(t *testing.T) {
	t.Parallel()

	tree := newWatchErrorTree("watch:0", NewDisplayState(1), "a.b", "NullPointerException")
	require.Len(t, tree.Roots, 1)
	n := tree.Roots[0]
	assert.Equal(t, NodeWatchError, n.Kind)
	assert.Equal(t, "a.b", n.Name)
	assert.Equal(t, WatchErrorType, n.Type)
	assert.Equal(t, WatchErrorMarker, n.Hash)
	assert.Equal(t, "NullPointerException", n.Value)
	assert.False(t, n.Expandable)
	assert.Nil(t, n.Children())
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "x", DisplayName(VariableID{Name: "x"}))
	assert.Equal(t, "x (_x)", DisplayName(VariableID{Name: "x", OriginalName: "_x"}))
}

func TestModifierPrefix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", ModifierPrefix(nil))
	assert.Equal(t, "psf", ModifierPrefix([]string{"public", "static", "final"}))
	assert.Equal(t, "pé", ModifierPrefix([]string{"private", "", "étrange"}))
}

func TestNodeKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "variable", NodeVariable.String())
	assert.Equal(t, "null", NodeNull.String())
	assert.Equal(t, "not_found", NodeNotFound.String())
	assert.Equal(t, "cyclic", NodeCyclic.String())
	assert.Equal(t, "watch_error", NodeWatchError.String())
}
