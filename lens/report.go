package lens

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-analyze/charts"
)

const bottomTableMaxRecords = 10

// chart color constants
var greenTextColor = charts.ColorGreenAlt3
var orangeTextColor = charts.ColorOrangeAlt1.WithAdjustHSL(0, .2, 0)
var redTextColor = charts.ColorRed.WithAdjustHSL(0, .1, -.1)

// ReportMetrics contains the graph statistics for a snapshot, and optionally the diff against another fire.
type ReportMetrics struct {
	GeneratedAt    time.Time     `json:"generated_at"`
	RenderDuration int64         `json:"render_ms"`
	SnapshotID     string        `json:"snapshot_id"`
	TracepointID   string        `json:"tracepoint_id"`
	ServiceName    string        `json:"service_name"`
	Graph          GraphStats    `json:"graph"`
	Diff           *SnapshotDiff `json:"diff,omitempty"`
}

// ReportMap represents a report as an extensible map structure.
// Custom implementations can add additional fields before writing to JSON.
type ReportMap map[string]interface{}

// NewReportMetrics builds the report for the snapshot, diff may be nil.
func NewReportMetrics(startTime time.Time, snap *Snapshot, diff *SnapshotDiff) ReportMetrics {
	if snap == nil {
		snap = &Snapshot{}
	}
	serviceName, _ := snap.Resource.GetString(ResourceServiceNameKey)
	return ReportMetrics{
		GeneratedAt:    startTime,
		RenderDuration: time.Since(startTime).Milliseconds(),
		SnapshotID:     snap.ID,
		TracepointID:   snap.Tracepoint.ID,
		ServiceName:    serviceName,
		Graph:          AnalyzeGraph(snap),
		Diff:           diff,
	}
}

// BuildReportMap creates the report as a ReportMap that can be extended
// by custom implementations before writing to JSON.
func BuildReportMap(report ReportMetrics) (ReportMap, error) {
	// Convert struct to map for extensibility
	reportBytes, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal report to bytes failed: %w", err)
	}

	var reportMap ReportMap
	if err := json.Unmarshal(reportBytes, &reportMap); err != nil {
		return nil, fmt.Errorf("unmarshal report to map failed: %w", err)
	}

	return reportMap, nil
}

// WriteToFile writes the report map to a JSON file.
// This method allows custom implementations to write extended reports.
func (rm ReportMap) WriteToFile(path string) error {
	if path == "" {
		return nil
	}

	encodedReport, err := json.MarshalIndent(rm, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report map failed: %w", err)
	}
	if err := os.WriteFile(path, encodedReport, 0644); err != nil {
		return fmt.Errorf("write report file failed: %w", err)
	}
	return nil
}

func writeReportJSON(path string, report ReportMetrics) error {
	reportMap, err := BuildReportMap(report)
	if err != nil {
		return err
	}
	return reportMap.WriteToFile(path)
}

// RenderReportChartsFromJson takes a ReportMetrics and renders the report to a png.
func RenderReportChartsFromJson(report ReportMetrics) ([]byte, error) {
	painterOpt := charts.PainterOptions{
		OutputFormat: charts.ChartOutputPNG,
		Width:        1024,
		Height:       768,
	}
	return renderReportCharts(painterOpt, report)
}

func chartOutputForPath(path string) (string, error) {
	if strings.HasSuffix(path, ".png") {
		return charts.ChartOutputPNG, nil
	} else if strings.HasSuffix(path, ".jpg") || strings.HasSuffix(path, ".jpeg") {
		return charts.ChartOutputJPG, nil
	} else if strings.HasSuffix(path, ".svg") {
		return charts.ChartOutputSVG, nil
	}
	return "", fmt.Errorf("unhandled chart file type: %s", path)
}

func writeReportCharts(path string, report ReportMetrics) error {
	outputType, err := chartOutputForPath(path)
	if err != nil {
		return err
	}

	painterOpt := charts.PainterOptions{
		OutputFormat: outputType,
		Width:        1024,
		Height:       1024,
	}
	if buf, err := renderReportCharts(painterOpt, report); err != nil {
		return fmt.Errorf("render charts failed: %w", err)
	} else if err = os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("write chart file failed: %w", err)
	}
	return nil
}

func renderReportCharts(painterOpt charts.PainterOptions, report ReportMetrics) ([]byte, error) {
	p := charts.NewPainter(painterOpt)
	if chartBox, err := renderChartsToPainter(p, report); err != nil {
		return nil, err
	} else if chartBox.Height() < p.Height()-128 || chartBox.Height() > p.Height() {
		// re-render with a smaller painter to better fit the charts
		painterOpt.Height = chartBox.Height()
		p = charts.NewPainter(painterOpt)
		if _, err := renderChartsToPainter(p, report); err != nil {
			return nil, err
		}
	}
	return p.Bytes()
}

func renderChartsToPainter(p *charts.Painter, report ReportMetrics) (charts.Box, error) {
	stats := report.Graph

	const chartPadding = 10
	resultBox := charts.NewBoxEqual(0)
	resultBox.Right = p.Width()
	p.FilledRect(0, 0, p.Width(), p.Height(), charts.ColorWhite, charts.ColorWhite, 0)
	p = p.Child(charts.PainterPaddingOption(charts.NewBox(0, chartPadding, chartPadding, chartPadding)))

	var title string
	var titleBox charts.Box
	var titleBottom int
	titleFont := charts.FontStyle{
		FontSize:  16,
		FontColor: charts.ColorBlack,
		Font:      charts.GetDefaultFont(),
	}
	if report.SnapshotID != "" {
		title = "Snapshot " + report.SnapshotID
		if report.ServiceName != "" {
			title = report.ServiceName + ": " + title
		}
		titleBox = p.MeasureText(title, 0, titleFont)
		// title rendered after the charts to ensure it does not get clipped
		titleBottom = titleBox.Height()
		resultBox.Bottom += titleBottom
	}

	const middleUpShift = "-40" // overlap amount between rows
	layoutBuilder := p.LayoutByRows()
	if titleBottom > 0 {
		layoutBuilder = layoutBuilder.RowGap(strconv.Itoa(titleBottom))
	}
	painters, err := layoutBuilder.
		Row().Height("128").Columns("topLeft", "topRight").
		Row().Height("120").RowOffset(middleUpShift).Columns("middle").
		Row().Columns("bottom"). // single large painter at the bottom with all remaining space
		Build()
	if err != nil {
		return resultBox, fmt.Errorf("error building chart layout: %w", err)
	}
	topLeft := painters["topLeft"]
	topRight := painters["topRight"]
	middle := painters["middle"]
	bottom := painters["bottom"]

	barGaugeThemeGreenRed := charts.GetTheme(charts.ThemeLight).
		WithBackgroundColor(charts.ColorTransparent).
		WithSeriesColors([]charts.Color{
			charts.ColorGreenAlt1,
			charts.ColorRed,
		})
	barGaugeThemeGreenYellow := charts.GetTheme(charts.ThemeLight).
		WithBackgroundColor(charts.ColorTransparent).
		WithSeriesColors([]charts.Color{
			charts.ColorGreenAlt1,
			{ /* Golden yellow */ R: 220, G: 210, B: 100, A: 255},
		})

	resolvedRefs := stats.ReferenceCount - stats.MissingReferences
	topLeftOpt := charts.NewHorizontalBarChartOptionWithData([][]float64{
		{float64(resolvedRefs)}, {float64(stats.MissingReferences)},
	})
	topLeftOpt.StackSeries = charts.Ptr(true)
	topLeftOpt.Theme = barGaugeThemeGreenRed
	topLeftOpt.Title.Text = "Reference Resolution"
	topLeftOpt.XAxis.Unit = axisUnitForMax(stats.ReferenceCount)
	topLeftOpt.YAxis.Show = charts.Ptr(false)
	topLeftOpt.SeriesList[1].Label.Show = charts.Ptr(true)
	topLeftOpt.SeriesList[1].Label.FontStyle.FontColor = firstValueSeriesRankColor(topLeftOpt.Theme, topLeftOpt.SeriesList)
	topLeftOpt.SeriesList[1].Label.ValueFormatter = func(f float64) string {
		return percentOf(float64(stats.ReferenceCount)-f, float64(stats.ReferenceCount))
	}
	if err := topLeft.HorizontalBarChart(topLeftOpt); err != nil {
		return resultBox, fmt.Errorf("error rendering chart: %w", err)
	}
	// subtext is added after due to a desire for custom formatting
	topLeft.Text("(References found in table)", 210, 37, 0, charts.FontStyle{
		FontSize:  8,
		FontColor: topLeftOpt.Theme.GetTitleTextColor(),
		Font:      charts.GetDefaultFont(),
	})

	topRightOpt := charts.NewHorizontalBarChartOptionWithData([][]float64{
		{float64(stats.ReachableVariables)},
		{float64(max(stats.VariableCount-stats.NullCount-stats.ReachableVariables, 0))}, // unreferenced records
	})
	topRightOpt.StackSeries = charts.Ptr(true)
	topRightOpt.Theme = barGaugeThemeGreenYellow
	topRightOpt.Title.Text = "Variable Reachability"
	topRightOpt.XAxis.Unit = axisUnitForMax(stats.VariableCount)
	topRightOpt.YAxis.Show = charts.Ptr(false)
	topRightOpt.SeriesList[1].Label.Show = charts.Ptr(true)
	topRightOpt.SeriesList[1].Label.ValueFormatter = func(f float64) string {
		total := float64(stats.VariableCount - stats.NullCount)
		return percentOf(total-f, total)
	}
	if err := topRight.HorizontalBarChart(topRightOpt); err != nil {
		return resultBox, fmt.Errorf("error rendering chart: %w", err)
	}
	resultBox.Bottom += max(topLeft.Height(), topRight.Height())

	middleOpt := charts.NewHorizontalBarChartOptionWithData([][]float64{
		{float64(resolvedRefs - stats.CyclicReferences)}, {float64(stats.CyclicReferences)},
	})
	middleOpt.StackSeries = charts.Ptr(true)
	middleOpt.Theme = barGaugeThemeGreenYellow
	middleOpt.Title.Text = "Cyclic References (max depth " + strconv.Itoa(stats.MaxDepth) + ")"
	middleOpt.XAxis.Show = charts.Ptr(false)
	middleOpt.YAxis.Show = charts.Ptr(false)
	middleOpt.SeriesList[1].Label.Show = charts.Ptr(true)
	middleOpt.SeriesList[1].Label.ValueFormatter = func(f float64) string {
		return strconv.Itoa(int(f)) + " cyclic"
	}
	if err := middle.HorizontalBarChart(middleOpt); err != nil {
		return resultBox, fmt.Errorf("error rendering chart: %w", err)
	}
	resultBox.Bottom += middle.Height()

	if len(stats.TypeCounts) > 0 {
		types := slices.Collect(maps.Keys(stats.TypeCounts))
		slices.SortFunc(types, func(a, b string) int {
			if diff := stats.TypeCounts[b] - stats.TypeCounts[a]; diff != 0 { // highest count first
				return diff
			}
			return strings.Compare(a, b)
		})
		if len(types) > bottomTableMaxRecords {
			types = types[:bottomTableMaxRecords]
		}
		rows := make([][]string, len(types))
		for i, typ := range types {
			rows[i] = []string{typ, strconv.Itoa(stats.TypeCounts[typ])}
		}

		tableTitle := "Most Common Types"
		tableTitleFont := charts.FontStyle{
			FontSize:  12,
			FontColor: barGaugeThemeGreenRed.GetTitleTextColor(),
			Font:      charts.GetDefaultFont(),
		}
		tableTitleBox := bottom.MeasureText(tableTitle, 0, tableTitleFont)
		bottom.Text(tableTitle, 10, tableTitleBox.Height(), 0, tableTitleFont)
		rowColors := []charts.Color{
			{R: 240, G: 240, B: 240, A: 255},
			charts.ColorTransparent,
		}
		if len(rows)%2 == 0 {
			// reverse row colors so table end is opposite of transparent
			rowColors[0], rowColors[1] = rowColors[1], rowColors[0]
		}
		defaultCellFontStyle := charts.FontStyle{
			FontSize:  12,
			FontColor: charts.Color{R: 50, G: 50, B: 50, A: 255},
			Font:      charts.GetDefaultFont(),
		}
		bottomOpt := charts.TableChartOption{
			Header:                []string{"Type", "Variables"},
			Data:                  rows,
			HeaderBackgroundColor: charts.Color{R: 210, G: 210, B: 210, A: 255},
			RowBackgroundColors:   rowColors,
			Padding:               charts.NewBoxEqual(10),
			Spans:                 []int{40, 10},
			TextAligns:            []string{charts.AlignLeft, charts.AlignCenter},
			CellModifier: func(cell charts.TableCell) charts.TableCell {
				if cell.Row == 0 {
					return cell
				}
				cell.FontStyle = defaultCellFontStyle // reset on each call to prevent prior changes persisting
				if cell.Column == 1 && stats.VariableCount > 0 {
					if count, _ := strconv.Atoi(cell.Text); count*2 > stats.VariableCount {
						cell.FontStyle.FontColor = orangeTextColor
					} else {
						cell.FontStyle.FontColor = greenTextColor
					}
				}
				return cell
			},
		}
		tablePainter := bottom.Child(charts.PainterPaddingOption(charts.NewBox(10, tableTitleBox.Height()+8, 0, 0)))
		if err := tablePainter.TableChart(bottomOpt); err != nil {
			return resultBox, fmt.Errorf("error rendering table: %w", err)
		}
		// re-render just so we can calculate the height of the table, charts does not return the table sizes
		bottomOpt.Width = bottom.Width()
		if p, _ := charts.TableOptionRenderDirect(bottomOpt); p != nil {
			resultBox.Bottom += tableTitleBox.Height() + p.Height()
		} else {
			resultBox.Bottom += bottom.Height()
		}
	}

	// render the final chart extras
	if title != "" {
		p.Text(title, (p.Width()/2)-(titleBox.Width()/2), titleBox.Height(), 0, titleFont)
	}
	return resultBox, nil
}

func percentOf(part, total float64) string {
	if total <= 0 {
		return "0%"
	}
	return charts.FormatValueHumanize(100.0*part/total, 1, false) + "%"
}

func firstValueSeriesRankColor(theme charts.ColorPalette, sl charts.HorizontalBarSeriesList) charts.Color {
	sum := sl.SumSeriesValues()
	if sl[0].Values[0] < sum[0]/2 {
		return redTextColor
	} else if sl[0].Values[0] < sum[0]*.8 {
		return orangeTextColor
	} else {
		return theme.GetLabelTextColor()
	}
}

func axisUnitForMax(val int) float64 {
	if val >= 8000 {
		return 2000
	} else if val > 2000 {
		return 1000
	} else if val >= 800 {
		return 200
	} else if val > 200 {
		return 100
	} else if val >= 80 {
		return 20
	} else if val > 20 {
		return 10
	} else if val >= 10 {
		return 2
	} else {
		return 1
	}
}
