package lens

import (
	"strconv"
)

// View is the render ready form of a single snapshot. It is built once per snapshot and discarded when a
// different snapshot is selected, together with its display state.
type View struct {
	SnapshotID string
	Options    Options
	Frames     FrameIndex
	Table      VariableTable
	Tracepoint TracepointDisplay
	Watches    []WatchResult
	Resource   Attributes
	Attributes Attributes
	LogMessage string

	selection *FrameSelection
	state     *DisplayState
	resolver  Resolver
}

// NewView splits the snapshot into its frame index, variable table and metadata. A nil snapshot produces an
// empty view.
func NewView(snap *Snapshot, opts Options) *View {
	if snap == nil {
		snap = &Snapshot{}
	}
	frames := NewFrameIndex(snap.Frames)
	v := &View{
		SnapshotID: snap.ID,
		Options:    opts,
		Frames:     frames,
		Table:      snap.VarLookup,
		Tracepoint: NewTracepointDisplay(snap.Tracepoint),
		Watches:    snap.Watches,
		Resource:   snap.Resource,
		Attributes: snap.Attributes,
		LogMessage: snap.LogMsg,
		selection:  NewFrameSelection(frames.Filter(opts.OnlyAppFrames)),
		state:      NewDisplayState(opts.AutoExpandDepth),
	}
	v.resolver = v.Table
	return v
}

// State returns the display state shared by every tree of this view.
func (v *View) State() *DisplayState {
	return v.state
}

// Selection returns the frame selection over the filtered frames.
func (v *View) Selection() *FrameSelection {
	return v.selection
}

// FrameDisplays returns the display form of every frame in the filtered view.
func (v *View) FrameDisplays() []FrameDisplay {
	view := v.selection.View()
	result := make([]FrameDisplay, len(view))
	for i, f := range view {
		result[i] = NewFrameDisplay(f.Frame, v.Options.ShowTranspiled)
	}
	return result
}

// FrameTree builds the variable tree for the frame at the original frame index. The tree has no roots when
// the index is invalid or the frame has no variables.
func (v *View) FrameTree(frameIndex int) *Tree {
	scope := frameScopePrefix + strconv.Itoa(frameIndex)
	f, ok := v.Frames.At(frameIndex)
	if !ok {
		return NewTree(scope, v.resolver, v.state, nil)
	}
	return NewTree(scope, v.resolver, v.state, f.Variables)
}

// SelectedTree builds the variable tree for the currently selected frame.
func (v *View) SelectedTree() *Tree {
	f, ok := v.selection.Current()
	if !ok {
		return NewTree(frameScopePrefix, v.resolver, v.state, nil)
	}
	return v.FrameTree(f.Index)
}

// WatchTrees builds one tree per watch result. Good results are resolved and expanded from depth 0, error
// results become a single watch error leaf without consulting the resolver.
func (v *View) WatchTrees() []*Tree {
	trees := make([]*Tree, len(v.Watches))
	for i, w := range v.Watches {
		scope := watchScopePrefix + strconv.Itoa(i)
		switch r := w.Result.(type) {
		case GoodResult:
			trees[i] = NewTree(scope, v.resolver, v.state, []VariableID{r.Ref})
		case ErrorResult:
			trees[i] = newWatchErrorTree(scope, v.state, w.Expression, r.Message)
		default:
			trees[i] = newWatchErrorTree(scope, v.state, w.Expression, NoWatchResultMessage)
		}
	}
	return trees
}

// Tags returns "key:value" entries of the resource attributes followed by the snapshot attributes.
func (v *View) Tags() []string {
	return SnapshotTags(v.Resource, v.Attributes)
}

// SnapshotTags flattens the resource and snapshot attributes into "key:value" entries, resource first.
func SnapshotTags(resource, attributes Attributes) []string {
	tags := make([]string, 0, len(resource)+len(attributes))
	for _, attr := range resource {
		tags = append(tags, attr.Key+":"+AttributeString(attr.Value))
	}
	for _, attr := range attributes {
		tags = append(tags, attr.Key+":"+AttributeString(attr.Value))
	}
	return tags
}

// ServiceName returns the service.name resource attribute.
func (v *View) ServiceName() (string, bool) {
	return v.Resource.GetString(ResourceServiceNameKey)
}

// SnapshotLocation returns the path and line snapshot attributes.
func (v *View) SnapshotLocation() (string, string) {
	path, _ := v.Attributes.GetString(SnapshotPathKey)
	line, _ := v.Attributes.GetString(SnapshotLineKey)
	return path, line
}
