package lens

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		ID: "snap-1",
		Tracepoint: Tracepoint{
			ID: "tp-1", Path: "com/example/App.java", LineNumber: 22,
			Args:    Attributes{{Key: FireCountArg, Value: "-1"}, {Key: "condition", Value: "x > 1"}, {Key: FirePeriodArg, Value: "500"}},
			Watches: []string{"req.id", "missing.field"},
		},
		VarLookup: VariableTable{
			{Type: "Request", Value: "Request@1", Hash: "r1", Children: []VariableID{{ID: "1", Name: "id"}, {ID: "2", Name: "body"}}},
			{Type: "int", Value: "42"},
			{},
			{Type: "String[]", Value: "[]"},
		},
		Frames: []Frame{
			{FileName: "Lib.java", MethodName: "call", LineNumber: 10, ClassName: "org.lib.Lib"},
			{FileName: "App.java", MethodName: "handle", LineNumber: 22, ClassName: "com.example.App", AppFrame: true,
				Variables: []VariableID{{ID: "0", Name: "req"}, {ID: "7", Name: "lost"}}},
			{FileName: "Main.java", MethodName: "main", LineNumber: 3, ClassName: "com.example.Main", AppFrame: true,
				Variables: []VariableID{}},
		},
		Watches: []WatchResult{
			{Expression: "req.id", Result: GoodResult{Ref: VariableID{ID: "1", Name: "req.id"}}},
			{Expression: "missing.field", Result: ErrorResult{Message: "NullPointerException"}},
		},
		Attributes: Attributes{{Key: SnapshotPathKey, Value: "App.java"}, {Key: SnapshotLineKey, Value: "22"}},
		Resource:   Attributes{{Key: ResourceServiceNameKey, Value: "checkout"}, {Key: "host", Value: "h1"}},
		LogMsg:     "request handled",
	}
}

func TestNewView(t *testing.T) {
	t.Parallel()

	v := NewView(testSnapshot(), DefaultOptions())
	assert.Equal(t, "snap-1", v.SnapshotID)
	assert.Equal(t, 3, v.Frames.Len())
	assert.Len(t, v.Selection().View(), 3)
	assert.Equal(t, 4, v.Table.Len())
	assert.Equal(t, "request handled", v.LogMessage)

	service, ok := v.ServiceName()
	assert.True(t, ok)
	assert.Equal(t, "checkout", service)
	path, line := v.SnapshotLocation()
	assert.Equal(t, "App.java", path)
	assert.Equal(t, "22", line)

	displays := v.FrameDisplays()
	require.Len(t, displays, 3)
	assert.False(t, displays[0].Selectable)
	assert.True(t, displays[1].Selectable)
	assert.False(t, displays[2].Selectable)
}

func TestNewViewNilSnapshot(t *testing.T) {
	t.Parallel()

	v := NewView(nil, DefaultOptions())
	assert.Equal(t, 0, v.Frames.Len())
	assert.Empty(t, v.Tags())
	assert.Empty(t, v.WatchTrees())
	tree := v.SelectedTree()
	assert.Empty(t, tree.Roots)
	assert.True(t, tree.NoVariableData)
}

func TestViewFrameTrees(t *testing.T) {
	t.Parallel()

	v := NewView(testSnapshot(), Options{OnlyAppFrames: true, AutoExpandDepth: 1})
	require.Len(t, v.Selection().View(), 2)

	selected := v.SelectedTree()
	assert.Equal(t, "frame:1", selected.Scope)
	require.Len(t, selected.Roots, 2)
	assert.Equal(t, "req", selected.Roots[0].Name)
	assert.Equal(t, NodeNotFound, selected.Roots[1].Kind)
	children := selected.Roots[0].Children()
	require.Len(t, children, 2)
	assert.Equal(t, "42", children[0].Value)
	assert.Equal(t, NodeNull, children[1].Kind)

	require.True(t, v.Selection().Select(1))
	empty := v.SelectedTree()
	assert.Equal(t, "frame:2", empty.Scope)
	assert.Empty(t, empty.Roots)
	assert.False(t, empty.NoVariableData)

	noData := v.FrameTree(0)
	assert.True(t, noData.NoVariableData)
	assert.Empty(t, noData.Roots)

	invalid := v.FrameTree(10)
	assert.Empty(t, invalid.Roots)
}

func TestViewWatchTrees(t *testing.T) {
	t.Parallel()

	v := NewView(testSnapshot(), DefaultOptions())
	var resolves atomic.Int32
	v.resolver = countingResolver(v.Table, &resolves)

	trees := v.WatchTrees()
	require.Len(t, trees, 2)
	assert.Equal(t, int32(1), resolves.Load(), "only the good result is resolved")

	good := trees[0].Roots[0]
	assert.Equal(t, NodeVariable, good.Kind)
	assert.Equal(t, "42", good.Value)
	assert.Equal(t, 0, good.Depth)
	assert.Equal(t, NodePath("watch:0/0"), good.Path)

	bad := trees[1].Roots[0]
	assert.Equal(t, NodeWatchError, bad.Kind)
	assert.Equal(t, "missing.field", bad.Name)
	assert.Equal(t, "NullPointerException", bad.Value)
	assert.Equal(t, WatchErrorType, bad.Type)
	assert.Equal(t, NodePath("watch:1/0"), bad.Path)
}

func TestViewTags(t *testing.T) {
	t.Parallel()

	v := NewView(testSnapshot(), DefaultOptions())
	assert.Equal(t, []string{"service.name:checkout", "host:h1", "path:App.java", "line:22"}, v.Tags())

	assert.Equal(t, []string{"a:null", "b:1"},
		SnapshotTags(nil, Attributes{{Key: "a", Value: nil}, {Key: "b", Value: 1}}))

	// integer-like keys are not moved ahead of the others
	assert.Equal(t, []string{"b:null", "2:null", "10:null", "1:null"},
		SnapshotTags(nil, Attributes{{Key: "b"}, {Key: "2"}, {Key: "10"}, {Key: "1"}}))
}

func TestViewIsolation(t *testing.T) {
	t.Parallel()

	snap := testSnapshot()
	first := NewView(snap, DefaultOptions())
	assert.False(t, first.FrameTree(1).Roots[0].Toggle())
	assert.False(t, first.FrameTree(1).Roots[0].Open())
	require.True(t, first.Selection().Select(1))

	second := NewView(snap, DefaultOptions())
	assert.Equal(t, 0, second.Selection().Index())
	assert.True(t, second.FrameTree(1).Roots[0].Open(), "display state is not shared between views")
}

func TestNewTracepointDisplay(t *testing.T) {
	t.Parallel()

	t.Run("configured", func(t *testing.T) {
		d := NewTracepointDisplay(testSnapshot().Tracepoint)
		assert.Equal(t, "com/example/App.java", d.File)
		assert.Equal(t, "22", d.Line)
		assert.Equal(t, "-1", d.FireCount)
		assert.True(t, d.InfiniteFireCount())
		assert.Equal(t, "500", d.FirePeriod)
		assert.True(t, d.WatchesConfigured())
		assert.Equal(t, []string{"condition"}, d.Args.Keys())
	})

	t.Run("defaults", func(t *testing.T) {
		d := NewTracepointDisplay(Tracepoint{})
		assert.Equal(t, "0", d.Line)
		assert.Equal(t, "1", d.FireCount)
		assert.False(t, d.InfiniteFireCount())
		assert.Equal(t, "1000", d.FirePeriod)
		assert.False(t, d.WatchesConfigured())
		assert.Empty(t, d.Args)
	})

	t.Run("numeric_args", func(t *testing.T) {
		d := NewTracepointDisplay(Tracepoint{Args: Attributes{{Key: FireCountArg, Value: int64(5)}}})
		assert.Equal(t, "5", d.FireCount)
	})
}
