package lens

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

const (
	// DefaultValueWidth is the default display width of a variable value.
	DefaultValueWidth = 120
	truncatedTail     = "..."
	logMessageWidth   = 100
	treeIndent        = "  "
)

// RenderConfig controls the text output of a TreeWriter.
type RenderConfig struct {
	// NoColor disables ANSI colors regardless of the terminal.
	NoColor bool
	// ValueWidth truncates displayed values to this width, 0 disables truncation.
	ValueWidth int
}

type renderStyles struct {
	header     func(a ...interface{}) string
	selected   func(a ...interface{}) string
	dim        func(a ...interface{}) string
	name       func(a ...interface{}) string
	method     func(a ...interface{}) string
	file       func(a ...interface{}) string
	line       func(a ...interface{}) string
	typeName   func(a ...interface{}) string
	null       func(a ...interface{}) string
	notFound   func(a ...interface{}) string
	cyclic     func(a ...interface{}) string
	added      func(a ...interface{}) string
	removed    func(a ...interface{}) string
	changed    func(a ...interface{}) string
	modifiers  func(a ...interface{}) string
	truncation func(a ...interface{}) string
}

func newRenderStyles(noColor bool) renderStyles {
	styled := func(attrs ...color.Attribute) func(a ...interface{}) string {
		c := color.New(attrs...)
		if noColor {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return renderStyles{
		header:     styled(color.FgBlue, color.Bold),
		selected:   styled(color.FgGreen, color.Bold),
		dim:        styled(color.Faint),
		name:       styled(color.FgBlue),
		method:     styled(color.FgRed),
		file:       styled(color.FgGreen),
		line:       styled(color.FgMagenta),
		typeName:   styled(color.FgCyan),
		null:       styled(color.FgMagenta),
		notFound:   styled(color.FgRed),
		cyclic:     styled(color.FgYellow),
		added:      styled(color.FgGreen),
		removed:    styled(color.FgRed),
		changed:    styled(color.FgYellow),
		modifiers:  styled(color.FgHiBlack),
		truncation: styled(color.FgYellow, color.Italic),
	}
}

// TreeWriter renders snapshot views as indented text. The first write error is retained and returned from
// every subsequent call.
type TreeWriter struct {
	w      io.Writer
	cfg    RenderConfig
	styles renderStyles
	err    error
}

// NewTreeWriter creates a TreeWriter writing to w.
func NewTreeWriter(w io.Writer, cfg RenderConfig) *TreeWriter {
	return &TreeWriter{
		w:      w,
		cfg:    cfg,
		styles: newRenderStyles(cfg.NoColor),
	}
}

func (tw *TreeWriter) printf(format string, a ...interface{}) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.w, format, a...)
}

func (tw *TreeWriter) println(s string) {
	tw.printf("%s\n", s)
}

// WriteView renders every section of the view. When allFrames is set the variables of every frame in the
// view are rendered, otherwise only the selected frame.
func (tw *TreeWriter) WriteView(v *View, allFrames bool) error {
	title := "Snapshot " + v.SnapshotID
	if service, ok := v.ServiceName(); ok {
		title += " (" + service + ")"
	}
	tw.println(tw.styles.header(title))
	if path, line := v.SnapshotLocation(); path != "" {
		tw.println(tw.styles.dim(Location{File: path, Line: atoiOrZero(line)}.String()))
	}
	tw.println("")

	tw.WriteTracepoint(v.Tracepoint)
	tw.WriteFrames(v)
	if allFrames {
		for _, f := range v.Selection().View() {
			tw.WriteTree(frameTitle(f), v.FrameTree(f.Index))
		}
	} else if f, ok := v.Selection().Current(); ok {
		tw.WriteTree(frameTitle(f), v.SelectedTree())
	}
	tw.WriteWatches(v)
	tw.WriteAttributes(v.Resource, v.Attributes)
	if tags := v.Tags(); len(tags) > 0 {
		tw.println(tw.styles.header("Tags"))
		tw.println(indent.String(strings.Join(tags, "\n"), 2))
		tw.println("")
	}
	if v.LogMessage != "" {
		tw.println(tw.styles.header("Log Message"))
		tw.println(indent.String(wordwrap.String(v.LogMessage, logMessageWidth), 2))
		tw.println("")
	}
	return tw.err
}

func frameTitle(f IndexedFrame) string {
	return "Variables (frame " + strconv.Itoa(f.Index) + ": " + f.Frame.MethodName + ")"
}

func atoiOrZero(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

// WriteTracepoint renders the tracepoint configuration.
func (tw *TreeWriter) WriteTracepoint(d TracepointDisplay) error {
	tw.println(tw.styles.header("Tracepoint"))
	tw.printf("  File: %s\n", d.File)
	tw.printf("  Line: %s\n", d.Line)
	if d.InfiniteFireCount() {
		tw.println("  Fire count: (infinite)")
	} else {
		tw.printf("  Fire count: %s\n", d.FireCount)
	}
	tw.printf("  Fire period: %s ms\n", d.FirePeriod)
	if d.WatchesConfigured() {
		tw.println("  Watches:")
		for _, w := range d.Watches {
			tw.printf("    %s\n", w)
		}
	} else {
		tw.println("  " + tw.styles.dim("No watches configured"))
	}
	if len(d.Args) > 0 {
		tw.println("  Args:")
		for _, attr := range d.Args {
			tw.printf("    %s: %s\n", attr.Key, AttributeString(attr.Value))
		}
	} else {
		tw.println("  " + tw.styles.dim("No additional args"))
	}
	tw.println("")
	return tw.err
}

// WriteFrames renders the filtered frame list, marking the selected frame.
func (tw *TreeWriter) WriteFrames(v *View) error {
	selection := v.Selection()
	tw.printf("%s\n", tw.styles.header(fmt.Sprintf("Frames (%d of %d)", len(selection.View()), v.Frames.Len())))
	if len(selection.View()) == 0 {
		tw.println("  " + tw.styles.dim("No frames"))
	}
	for i, d := range v.FrameDisplays() {
		tw.println(tw.frameLine(selection.View()[i].Index, d, i == selection.Index()))
	}
	tw.println("")
	return tw.err
}

func (tw *TreeWriter) frameLine(index int, d FrameDisplay, selected bool) string {
	var sb strings.Builder
	if selected {
		sb.WriteString(tw.styles.selected("> "))
	} else {
		sb.WriteString("  ")
	}
	if d.AppFrame {
		sb.WriteString(tw.styles.selected("✓ "))
	} else {
		sb.WriteString("  ")
	}
	sb.WriteString(strconv.Itoa(index) + ": ")
	if d.ShortClassName != "" {
		sb.WriteString(tw.styles.dim(d.ShortClassName + "."))
	}
	sb.WriteString(tw.styles.method(d.Method))
	sb.WriteByte(' ')
	sb.WriteString(tw.styles.file(d.File))
	if d.Line > 0 {
		sb.WriteString(tw.styles.line(":" + strconv.Itoa(d.Line)))
		if d.Column > 0 {
			sb.WriteString(tw.styles.line(":" + strconv.Itoa(d.Column)))
		}
	}
	if d.Async {
		sb.WriteString(tw.styles.dim(" [async]"))
	}
	if d.Transpiled != nil {
		sb.WriteString(tw.styles.dim(" (transpiled " + d.Transpiled.String() + ")"))
	}
	if !d.Selectable {
		sb.WriteString(tw.styles.dim(" (no variables)"))
	}
	return sb.String()
}

// WriteTree renders the visible nodes of the tree under the title.
func (tw *TreeWriter) WriteTree(title string, t *Tree) error {
	tw.println(tw.styles.header(title))
	if t.NoVariableData {
		tw.println("  " + tw.styles.dim("No variable data"))
	} else if len(t.Roots) == 0 {
		tw.println("  " + tw.styles.dim("No variables"))
	}
	Walk(t.Roots, func(n *Node) bool {
		tw.println(tw.nodeLine(n))
		return true
	})
	tw.println("")
	return tw.err
}

// WriteWatches renders one tree per watch result.
func (tw *TreeWriter) WriteWatches(v *View) error {
	tw.println(tw.styles.header("Watches"))
	trees := v.WatchTrees()
	if len(trees) == 0 {
		tw.println("  " + tw.styles.dim("No watch results"))
	}
	for i, t := range trees {
		tw.printf("  %s\n", tw.styles.dim(v.Watches[i].Expression))
		Walk(t.Roots, func(n *Node) bool {
			tw.println(treeIndent + tw.nodeLine(n))
			return true
		})
	}
	tw.println("")
	return tw.err
}

func (tw *TreeWriter) nodeLine(n *Node) string {
	var sb strings.Builder
	sb.WriteString(strings.Repeat(treeIndent, n.Depth+1))
	if n.Expandable {
		if n.Open() {
			sb.WriteString("- ")
		} else {
			sb.WriteString("+ ")
		}
	} else {
		sb.WriteString("  ")
	}
	if n.Modifiers != "" {
		sb.WriteString(tw.styles.modifiers("[" + n.Modifiers + "]"))
		sb.WriteByte(' ')
	}
	sb.WriteString(tw.styles.name(n.Name))
	if n.Type != "" {
		sb.WriteByte(' ')
		sb.WriteString(tw.styles.typeName("(" + n.Type + ")"))
	}
	sb.WriteString(" = ")

	value := tw.displayValue(n.Value)
	switch n.Kind {
	case NodeNull:
		sb.WriteString(tw.styles.null(value))
	case NodeNotFound, NodeWatchError:
		sb.WriteString(tw.styles.notFound(value))
	case NodeCyclic:
		sb.WriteString(tw.styles.cyclic(value))
	default:
		sb.WriteString(value)
	}
	if n.Kind == NodeVariable && n.Hash != "" {
		sb.WriteString(tw.styles.dim(" @" + n.Hash))
	}
	if n.Expandable && !n.Open() {
		sb.WriteString(tw.styles.dim(" {" + strconv.Itoa(n.ChildCount()) + "}"))
	}
	if n.Truncated {
		sb.WriteString(tw.styles.truncation(" (truncated)"))
	}
	return sb.String()
}

// displayValue reduces the value to its first line and the configured width.
func (tw *TreeWriter) displayValue(value string) string {
	value, limited := limitStringLines(value, 1, true)
	if limited {
		value += truncatedTail
	}
	if tw.cfg.ValueWidth > 0 && ansi.PrintableRuneWidth(value) > tw.cfg.ValueWidth {
		value = truncate.StringWithTail(value, uint(tw.cfg.ValueWidth), truncatedTail)
	}
	return value
}

// WriteAttributes renders the resource and snapshot attributes in wire order.
func (tw *TreeWriter) WriteAttributes(resource, attributes Attributes) error {
	tw.writeAttributeSection("Resource", resource)
	tw.writeAttributeSection("Attribute", attributes)
	return tw.err
}

func (tw *TreeWriter) writeAttributeSection(name string, attrs Attributes) {
	tw.println(tw.styles.header(name + "s"))
	if len(attrs) == 0 {
		tw.println("  " + tw.styles.dim("No "+name+" values"))
	}
	for _, attr := range attrs {
		tw.printf("  %s: %s\n", attr.Key, tw.displayValue(AttributeString(attr.Value)))
	}
	tw.println("")
}

// WriteDiff renders the variable differences between two snapshots.
func (tw *TreeWriter) WriteDiff(d SnapshotDiff) error {
	tw.println(tw.styles.header(fmt.Sprintf("Diff (frame %d): %d same, %d changed, %d added, %d removed",
		d.FrameIndex, d.SameCount, len(d.Changes), len(d.Added), len(d.Removed))))
	if !d.HasChanges() {
		tw.println("  " + tw.styles.dim("No differences"))
	}
	for _, c := range d.Changes {
		tw.println(tw.styles.changed("~ " + c.Path))
		tw.println(indent.String(strings.TrimRight(c.Diff, "\n"), 4))
	}
	for _, path := range d.Added {
		tw.println(tw.styles.added("+ " + path))
	}
	for _, path := range d.Removed {
		tw.println(tw.styles.removed("- " + path))
	}
	tw.println("")
	return tw.err
}
