package lens

import (
	"crypto/sha1"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/mtraver/base91"
	"github.com/pmezard/go-difflib/difflib"
)

// HashValuePrefix marks a value which was replaced by its digest because it exceeded the size limit.
const HashValuePrefix = "sha1:"

// diffValueSizeLimit is the length above which values are compared by digest.
const diffValueSizeLimit = 1024

// DefaultDiffDepth bounds the depth FlattenTree descends to when comparing snapshots.
const DefaultDiffDepth = 8

// SharedReferenceValue is the flattened value of a variable already expanded under another path.
func SharedReferenceValue(id string) string {
	return "Shared reference: #" + id
}

// FlattenTree converts the tree into dot separated name paths mapped to node values, descending into
// expandable nodes regardless of display state up to maxDepth (negative for no limit). Nodes are visited
// breadth first and each variable is expanded only at its shallowest path, later paths to the same variable
// are recorded as a SharedReferenceValue, so the result is bounded by the table size rather than the number
// of paths through it. Sibling name collisions are disambiguated with the child position.
func FlattenTree(tree *Tree, maxDepth int) map[string]string {
	type pending struct {
		prefix string
		nodes  []*Node
	}
	flat := make(map[string]string)
	expanded := make(map[int]bool)
	queue := []pending{{nodes: tree.Roots}}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for i, n := range next.nodes {
			key := n.Name
			if next.prefix != "" {
				key = next.prefix + "." + n.Name
			}
			if _, exists := flat[key]; exists {
				key += "#" + strconv.Itoa(i)
			}
			if !n.Expandable || (maxDepth >= 0 && n.Depth >= maxDepth) {
				flat[key] = n.Value
			} else if expanded[n.index] {
				flat[key] = SharedReferenceValue(n.Ref.ID)
			} else {
				expanded[n.index] = true
				flat[key] = n.Value
				queue = append(queue, pending{prefix: key, nodes: n.materialize()})
			}
		}
	}
	return flat
}

// FieldDiff describes a value present in both snapshots which changed.
type FieldDiff struct {
	Path   string `json:"path"`
	Before string `json:"before"`
	After  string `json:"after"`
	Diff   string `json:"diff"`
}

// SnapshotDiff lists the variable differences of one frame between two snapshots.
type SnapshotDiff struct {
	FrameIndex int         `json:"frame_index"`
	SameCount  int         `json:"same_count"`
	Changes    []FieldDiff `json:"changes"`
	Added      []string    `json:"added"`
	Removed    []string    `json:"removed"`
}

// HasChanges reports if any variable changed, appeared or disappeared.
func (d SnapshotDiff) HasChanges() bool {
	return len(d.Changes) > 0 || len(d.Added) > 0 || len(d.Removed) > 0
}

// DiffSnapshots compares the variables of the frame at frameIndex between two snapshots, typically two fires
// of the same tracepoint.
func DiffSnapshots(before, after *Snapshot, frameIndex, maxDepth int) SnapshotDiff {
	beforeFlat := FlattenTree(NewView(before, DefaultOptions()).FrameTree(frameIndex), maxDepth)
	afterFlat := FlattenTree(NewView(after, DefaultOptions()).FrameTree(frameIndex), maxDepth)

	result := SnapshotDiff{FrameIndex: frameIndex}
	for _, key := range slices.Sorted(maps.Keys(beforeFlat)) {
		v1 := beforeFlat[key]
		v2, ok := afterFlat[key]
		if !ok {
			result.Removed = append(result.Removed, key)
		} else if compactValue(v1) == compactValue(v2) {
			result.SameCount++
		} else {
			result.Changes = append(result.Changes, FieldDiff{
				Path:   key,
				Before: compactValue(v1),
				After:  compactValue(v2),
				Diff:   DiffValues(v1, v2),
			})
		}
	}
	for _, key := range slices.Sorted(maps.Keys(afterFlat)) {
		if _, ok := beforeFlat[key]; !ok {
			result.Added = append(result.Added, key)
		}
	}
	return result
}

// compactValue replaces values larger than the size limit with a digest.
func compactValue(v string) string {
	if len(v) <= diffValueSizeLimit {
		return v
	}
	sha := sha1.Sum([]byte(v))
	return HashValuePrefix + base91.StdEncoding.EncodeToString(sha[:])
}

// DiffValues describes the difference between two values, using a unified diff for multi-line values.
func DiffValues(v1, v2 string) string {
	c1, c2 := compactValue(v1), compactValue(v2)
	pre, post := c1 != v1, c2 != v2
	if pre || post {
		return fmt.Sprintf("%s != %s", tooLargeLabel(c1, pre), tooLargeLabel(c2, post))
	} else if !strings.Contains(v1, "\n") && !strings.Contains(v2, "\n") {
		return fmt.Sprintf("%q != %q", v1, v2)
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(v1),
		B:        difflib.SplitLines(v2),
		FromFile: "before",
		ToFile:   "after",
		Context:  2,
	}
	if text, err := difflib.GetUnifiedDiffString(diff); err == nil && text != "" {
		return text
	} else { // fallback to basic format if unexpected diff error
		return fmt.Sprintf("\t'%v'\n!=\n\t'%v'", v1, v2)
	}
}

func tooLargeLabel(v string, hashed bool) string {
	if !hashed {
		return strconv.Quote(v)
	}
	suffix := v
	if len(v) >= 4 {
		suffix = v[len(v)-4:]
	}
	return "<VALUE TOO LARGE ..." + suffix + ">"
}
