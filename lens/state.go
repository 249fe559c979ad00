package lens

import (
	"strconv"
	"sync"
)

// NodePath identifies a node position within a snapshot view, for example "frame:2/0/3" for the fourth
// child of the first variable in frame 2. Paths are positional so that two slots sharing one Variable
// keep independent display state.
type NodePath string

// RootPath returns the path for the root at the index within the scope.
func RootPath(scope string, index int) NodePath {
	return NodePath(scope + "/" + strconv.Itoa(index))
}

// Child returns the path of the child at the index.
func (p NodePath) Child(index int) NodePath {
	return NodePath(string(p) + "/" + strconv.Itoa(index))
}

// DisplayState holds the open or closed state of tree nodes. Nodes without an explicit toggle default to
// open when their depth is below the auto expand depth. A DisplayState belongs to a single snapshot view
// and must be discarded when the snapshot changes.
type DisplayState struct {
	mu              sync.RWMutex
	autoExpandDepth int
	overrides       map[NodePath]bool
}

// NewDisplayState creates a DisplayState with the given auto expand depth.
func NewDisplayState(autoExpandDepth int) *DisplayState {
	return &DisplayState{
		autoExpandDepth: autoExpandDepth,
		overrides:       make(map[NodePath]bool),
	}
}

// AutoExpandDepth returns the configured depth below which nodes default to open.
func (s *DisplayState) AutoExpandDepth() int {
	return s.autoExpandDepth
}

// IsOpen reports if the node at the path and depth is open.
func (s *DisplayState) IsOpen(path NodePath, depth int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if open, ok := s.overrides[path]; ok {
		return open
	}
	return depth < s.autoExpandDepth
}

// Toggle flips the state of a single node and returns the new state.
func (s *DisplayState) Toggle(path NodePath, depth int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	open, ok := s.overrides[path]
	if !ok {
		open = depth < s.autoExpandDepth
	}
	s.overrides[path] = !open
	return !open
}

// Reset discards all explicit toggles.
func (s *DisplayState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.overrides)
}
