package lens

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-analyze/bulk"
)

// UnknownSourceFile is displayed in place of an empty frame file name.
const UnknownSourceFile = "<unknown source file>"

// FrameIndex is the ordered, immutable sequence of captured stack frames.
type FrameIndex struct {
	frames []Frame
}

// NewFrameIndex creates a FrameIndex over the frames, the slice must not be modified afterwards.
func NewFrameIndex(frames []Frame) FrameIndex {
	return FrameIndex{frames: frames}
}

// Len returns the total number of frames.
func (fi FrameIndex) Len() int {
	return len(fi.frames)
}

// At returns the frame at the original position.
func (fi FrameIndex) At(index int) (Frame, bool) {
	if index < 0 || index >= len(fi.frames) {
		return Frame{}, false
	}
	return fi.frames[index], true
}

// IndexedFrame is a frame along with its position in the FrameIndex.
type IndexedFrame struct {
	Index int
	Frame Frame
}

// FrameView is an ordered subsequence of a FrameIndex.
type FrameView []IndexedFrame

// Filter returns a view of the frames, restricted to application frames when onlyAppFrames is set. The
// relative order of frames is preserved and the index is not modified.
func (fi FrameIndex) Filter(onlyAppFrames bool) FrameView {
	all := make([]IndexedFrame, len(fi.frames))
	for i, f := range fi.frames {
		all[i] = IndexedFrame{Index: i, Frame: f}
	}
	if !onlyAppFrames {
		return all
	}
	return bulk.SliceFilter(func(f IndexedFrame) bool {
		return f.Frame.AppFrame
	}, all)
}

// AppFrameCount returns the number of application frames.
func (fi FrameIndex) AppFrameCount() int {
	var count int
	for _, f := range fi.frames {
		if f.AppFrame {
			count++
		}
	}
	return count
}

// FrameSelection tracks the single current frame within a FrameView.
type FrameSelection struct {
	view    FrameView
	current int
}

// NewFrameSelection starts a selection on the first frame of the view.
func NewFrameSelection(view FrameView) *FrameSelection {
	return &FrameSelection{view: view}
}

// View returns the frames the selection is made from.
func (s *FrameSelection) View() FrameView {
	return s.view
}

// Index returns the selected position within the view.
func (s *FrameSelection) Index() int {
	return s.current
}

// Current returns the selected frame, or false if the view is empty.
func (s *FrameSelection) Current() (IndexedFrame, bool) {
	if s.current < 0 || s.current >= len(s.view) {
		return IndexedFrame{}, false
	}
	return s.view[s.current], true
}

// Select changes the current frame to the position within the view, returning false when out of range.
func (s *FrameSelection) Select(viewIndex int) bool {
	if viewIndex < 0 || viewIndex >= len(s.view) {
		return false
	}
	s.current = viewIndex
	return true
}

// Location is a file position.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	var sb strings.Builder
	sb.WriteString(l.File)
	if l.Line > 0 {
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(l.Line))
	}
	if l.Column > 0 {
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(l.Column))
	}
	return sb.String()
}

// FrameDisplay is the display form of a Frame.
type FrameDisplay struct {
	Method string
	// File is the source file, or UnknownSourceFile when the frame has no file name.
	File string
	// Line and Column are zero when unknown.
	Line      int
	Column    int
	ClassName string
	// ShortClassName abbreviates every package segment to a single character.
	ShortClassName string
	AppFrame       bool
	Async          bool
	// Selectable is false for frames without variables.
	Selectable bool
	Tooltip    string
	// Transpiled is only set when transpiled locations are shown and the frame has one.
	Transpiled *Location
}

// Location returns the file position of the frame.
func (d FrameDisplay) Location() Location {
	return Location{File: d.File, Line: d.Line, Column: d.Column}
}

// NewFrameDisplay creates the display form of a frame.
func NewFrameDisplay(f Frame, showTranspiled bool) FrameDisplay {
	d := FrameDisplay{
		Method:         f.MethodName,
		File:           f.FileName,
		Line:           f.LineNumber,
		Column:         f.ColumnNumber,
		ClassName:      f.ClassName,
		ShortClassName: ShortClassName(f.ClassName),
		AppFrame:       f.AppFrame,
		Async:          f.IsAsync,
		Selectable:     len(f.Variables) > 0,
		Tooltip:        FrameTooltip(f),
	}
	if d.File == "" {
		d.File = UnknownSourceFile
	}
	if showTranspiled && f.TranspiledFileName != "" {
		d.Transpiled = &Location{
			File:   f.TranspiledFileName,
			Line:   f.TranspiledLineNumber,
			Column: f.TranspiledColumnNumber,
		}
	}
	return d
}

// ShortClassName reduces each package segment of a dotted class name to its first character, for example
// "com.example.Service" becomes "c.e.Service".
func ShortClassName(className string) string {
	if !strings.Contains(className, ".") {
		return className
	}
	parts := strings.Split(className, ".")
	last := parts[len(parts)-1]
	var sb strings.Builder
	for _, p := range parts[:len(parts)-1] {
		if r, size := utf8.DecodeRuneInString(p); size > 0 {
			sb.WriteRune(r)
		}
		sb.WriteByte('.')
	}
	sb.WriteString(last)
	return sb.String()
}

// FrameTooltip describes the frame location in a single sentence.
func FrameTooltip(f Frame) string {
	var location string
	if f.LineNumber != 0 {
		location += "on line " + strconv.Itoa(f.LineNumber) + " "
	}
	if f.FileName != "" {
		if location != "" {
			location += "of file " + f.FileName + ","
		} else {
			location += "in file " + f.FileName + ","
		}
	}
	return "Frame " + location + " in " + f.ClassName + "#" + f.MethodName
}
