package lens

import (
	"github.com/go-analyze/bulk"
)

// GraphStats summarizes the variable graph of a snapshot.
type GraphStats struct {
	FrameCount    int `json:"frame_count"`
	AppFrameCount int `json:"app_frame_count"`
	// VariableCount is the size of the variable table, NullCount the number of empty records within it.
	VariableCount int `json:"variable_count"`
	NullCount     int `json:"null_count"`
	// ReferenceCount counts every reference from frames, watches and variable children.
	ReferenceCount    int `json:"reference_count"`
	MissingReferences int `json:"missing_reference_count"`
	// SharedVariables counts variables referenced by more than one slot.
	SharedVariables int `json:"shared_variable_count"`
	// CyclicReferences counts references which point back to a variable on the current path.
	CyclicReferences   int `json:"cyclic_reference_count"`
	ReachableVariables int `json:"reachable_variable_count"`
	// MaxDepth is the largest shortest-path depth of any reachable variable, roots being depth 0.
	MaxDepth        int            `json:"max_depth"`
	WatchCount      int            `json:"watch_count"`
	WatchErrorCount int            `json:"watch_error_count"`
	TypeCounts      map[string]int `json:"type_counts"`
}

// AnalyzeGraph walks the variable graph of the snapshot once per variable, so cost is linear in the size of
// the table and its references regardless of sharing or cycles.
func AnalyzeGraph(snap *Snapshot) GraphStats {
	if snap == nil {
		snap = &Snapshot{}
	}
	table := snap.VarLookup
	frames := NewFrameIndex(snap.Frames)
	stats := GraphStats{
		FrameCount:    frames.Len(),
		AppFrameCount: frames.AppFrameCount(),
		VariableCount: table.Len(),
		WatchCount:    len(snap.Watches),
	}

	var types []string
	for _, v := range table {
		if v.IsEmpty() {
			stats.NullCount++
		} else {
			types = append(types, v.Type)
		}
	}
	stats.TypeCounts = bulk.SliceToCounts(types)

	refCounts := make(map[int]int)
	// countRef returns the table index of a resolvable, non empty reference
	countRef := func(ref VariableID) (int, bool) {
		stats.ReferenceCount++
		index, ok := ParseVariableIndex(ref.ID)
		if !ok || index >= table.Len() {
			stats.MissingReferences++
			return 0, false
		}
		refCounts[index]++
		return index, !table[index].IsEmpty()
	}

	var roots []int
	for _, f := range snap.Frames {
		for _, ref := range f.Variables {
			if index, ok := countRef(ref); ok {
				roots = append(roots, index)
			}
		}
	}
	for _, w := range snap.Watches {
		switch r := w.Result.(type) {
		case GoodResult:
			if index, ok := countRef(r.Ref); ok {
				roots = append(roots, index)
			}
		case ErrorResult:
			stats.WatchErrorCount++
		}
	}
	edges := make([][]int, table.Len())
	for i, v := range table {
		for _, ref := range v.Children {
			if index, ok := countRef(ref); ok {
				edges[i] = append(edges[i], index)
			}
		}
	}
	for _, c := range refCounts {
		if c > 1 {
			stats.SharedVariables++
		}
	}

	stats.CyclicReferences = countBackEdges(roots, edges)
	stats.ReachableVariables, stats.MaxDepth = reachableDepth(roots, edges)
	return stats
}

// countBackEdges performs an iterative depth first search from each root, counting edges which return to a
// node still on the search stack.
func countBackEdges(roots []int, edges [][]int) int {
	const (
		white = iota
		gray
		black
	)
	type stackEntry struct {
		node, next int
	}
	color := make([]uint8, len(edges))
	var backEdges int
	var stack []stackEntry
	for _, root := range roots {
		if color[root] != white {
			continue
		}
		color[root] = gray
		stack = append(stack[:0], stackEntry{node: root})
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next >= len(edges[top.node]) {
				color[top.node] = black
				stack = stack[:len(stack)-1]
				continue
			}
			child := edges[top.node][top.next]
			top.next++
			switch color[child] {
			case gray:
				backEdges++
			case white:
				color[child] = gray
				stack = append(stack, stackEntry{node: child})
			}
		}
	}
	return backEdges
}

// reachableDepth performs a breadth first search from the roots returning the reachable count and the
// maximum depth at which a variable is first reached.
func reachableDepth(roots []int, edges [][]int) (int, int) {
	depth := make([]int, len(edges))
	for i := range depth {
		depth[i] = -1
	}
	queue := make([]int, 0, len(roots))
	for _, r := range roots {
		if depth[r] == -1 {
			depth[r] = 0
			queue = append(queue, r)
		}
	}
	var reachable, maxDepth int
	for head := 0; head < len(queue); head++ {
		node := queue[head]
		reachable++
		maxDepth = max(maxDepth, depth[node])
		for _, child := range edges[node] {
			if depth[child] == -1 {
				depth[child] = depth[node] + 1
				queue = append(queue, child)
			}
		}
	}
	return reachable, maxDepth
}
