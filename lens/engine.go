package lens

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Config holds settings and state for a RenderEngine.
type Config struct {
	SnapshotFiles []string
	OptionsFile   string
	// OnlyAppFrames, ShowTranspiled and AutoExpandDepth override the loaded options when set.
	OnlyAppFrames   *bool
	ShowTranspiled  *bool
	AutoExpandDepth *int
	// FrameIndex selects the frame by position within the filtered frame list.
	FrameIndex     int
	AllFrames      bool
	Diff           bool
	NoColor        bool
	ValueWidth     int
	OutputFile     string
	ReportJsonFile string
	// ReportChartsFile is rendered as png, jpg or svg depending on the extension.
	ReportChartsFile string
	// Custom flags support - all stored as strings for ease of use
	CustomFlags map[string]string
	// Computed fields
	Options Options
	// Internal state tracking
	prepared bool
}

// SnapshotLoader reads a snapshot from a source path.
type SnapshotLoader interface {
	// LoadSnapshot reads and decodes the snapshot at path.
	LoadSnapshot(path string) (*Snapshot, error)
}

// ReportWriter generates the snapshot graph report in JSON and chart form.
type ReportWriter interface {
	// WriteReportFiles writes the report to the JSON and chart paths, an empty path skips that output.
	WriteReportFiles(reportJsonFile, reportChartsFile string, report ReportMetrics) error
}

// DefaultSnapshotLoader loads snapshot files with LoadSnapshotFile.
type DefaultSnapshotLoader struct{}

func (d *DefaultSnapshotLoader) LoadSnapshot(path string) (*Snapshot, error) {
	return LoadSnapshotFile(path)
}

// DefaultReportWriter provides the standard implementation of ReportWriter.
type DefaultReportWriter struct{}

func (d *DefaultReportWriter) WriteReportFiles(jsonPath, chartPath string, report ReportMetrics) error {
	if err := writeReportJSON(jsonPath, report); err != nil {
		return err
	} else if chartPath == "" {
		return nil
	}
	return writeReportCharts(chartPath, report)
}

// RenderEngine loads snapshots, renders them as text, and optionally diffs and reports on them.
type RenderEngine struct {
	Config         *Config
	SnapshotLoader SnapshotLoader
	ReportWriter   ReportWriter
	// Out receives the rendered text, os.Stdout by default.
	Out io.Writer
}

// NewRenderEngine creates a RenderEngine with default providers.
func NewRenderEngine(config *Config) *RenderEngine {
	return &RenderEngine{
		Config:         config,
		SnapshotLoader: &DefaultSnapshotLoader{},
		ReportWriter:   &DefaultReportWriter{},
		Out:            os.Stdout,
	}
}

// NewRenderEngineWithProviders creates a RenderEngine using the supplied providers, nil values use the default.
func NewRenderEngineWithProviders(config *Config, loader SnapshotLoader, reportWriter ReportWriter) *RenderEngine {
	engine := NewRenderEngine(config)
	if loader != nil {
		engine.SnapshotLoader = loader
	}
	if reportWriter != nil {
		engine.ReportWriter = reportWriter
	}
	return engine
}

// Run loads and renders every configured snapshot. Snapshots are rendered concurrently and written in the
// order they were configured.
func (e *RenderEngine) Run(ctx context.Context) error {
	startTime := time.Now()

	if err := e.Config.Prepare(); err != nil {
		return err
	}

	out := e.Out
	if e.Config.OutputFile != "" {
		f, err := os.Create(e.Config.OutputFile)
		if err != nil {
			return fmt.Errorf("create output file failed: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Printf("%sFailed to close output file: %v", ErrorLogPrefix, err)
			}
		}()
		out = TeeWriter(e.Out, f)
	}

	renderConfig := RenderConfig{
		NoColor:    e.Config.NoColor,
		ValueWidth: e.Config.ValueWidth,
	}
	snapshots := make([]*Snapshot, len(e.Config.SnapshotFiles))
	frameIndexes := make([]int, len(e.Config.SnapshotFiles))
	buffers := make([]*bytes.Buffer, len(e.Config.SnapshotFiles))
	errGroup := ErrGroupLimitCPU()
	for i, path := range e.Config.SnapshotFiles {
		errGroup.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			snap, err := e.SnapshotLoader.LoadSnapshot(path)
			if err != nil {
				return fmt.Errorf("load snapshot failed: %w", err)
			}
			view := NewView(snap, e.Config.Options)
			if !view.Selection().Select(e.Config.FrameIndex) && e.Config.FrameIndex != 0 {
				log.Printf("WARN: Frame %d out of range for %s, showing frame 0", e.Config.FrameIndex, path)
			}
			if f, ok := view.Selection().Current(); ok {
				frameIndexes[i] = f.Index
			}
			buf := &bytes.Buffer{}
			if err := NewTreeWriter(buf, renderConfig).WriteView(view, e.Config.AllFrames); err != nil {
				return fmt.Errorf("render %s failed: %w", path, err)
			}
			snapshots[i] = snap
			buffers[i] = buf
			return nil
		})
	}
	if err := errGroup.Wait(); err != nil {
		return err
	}

	multiple := len(buffers) > 1
	for i, buf := range buffers {
		if multiple {
			if _, err := fmt.Fprintf(out, "== %s ==\n", e.Config.SnapshotFiles[i]); err != nil {
				return fmt.Errorf("write output failed: %w", err)
			}
		}
		if _, err := out.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("write output failed: %w", err)
		}
	}

	var diff *SnapshotDiff
	if e.Config.Diff {
		d := DiffSnapshots(snapshots[0], snapshots[1], frameIndexes[0], DefaultDiffDepth)
		diff = &d
		if err := NewTreeWriter(out, renderConfig).WriteDiff(d); err != nil {
			return fmt.Errorf("write diff failed: %w", err)
		}
	}

	if e.Config.ReportJsonFile != "" || e.Config.ReportChartsFile != "" {
		if multiple && !e.Config.Diff {
			log.Printf("WARN: Report only includes the first snapshot: %s", e.Config.SnapshotFiles[0])
		}
		report := NewReportMetrics(startTime, snapshots[0], diff)
		if err := e.ReportWriter.WriteReportFiles(e.Config.ReportJsonFile, e.Config.ReportChartsFile, report); err != nil {
			return fmt.Errorf("write report failed: %w", err)
		}
		log.Printf("Report written for snapshot %s, variables: %d, missing references: %d, cyclic references: %d",
			report.SnapshotID, report.Graph.VariableCount, report.Graph.MissingReferences, report.Graph.CyclicReferences)
	}
	return nil
}

// Prepare validates the configuration and resolves the presentation options.
func (c *Config) Prepare() error {
	if c.prepared {
		return errors.New("config has already been prepared")
	}

	if len(c.SnapshotFiles) == 0 {
		return errors.New("at least one snapshot file is required")
	} else if c.Diff && len(c.SnapshotFiles) != 2 {
		return fmt.Errorf("diff requires exactly two snapshot files, got %d", len(c.SnapshotFiles))
	} else if c.FrameIndex < 0 {
		return fmt.Errorf("frame index must not be negative, got %d", c.FrameIndex)
	} else if c.ValueWidth < 0 {
		return fmt.Errorf("value width must not be negative, got %d", c.ValueWidth)
	}

	for _, path := range c.SnapshotFiles {
		if err := c.validateFilePath(path, "snapshot"); err != nil {
			return fmt.Errorf("invalid snapshot file %s: %w", path, err)
		}
	}
	if c.OptionsFile != "" {
		if err := c.validateFilePath(c.OptionsFile, "options"); err != nil {
			return fmt.Errorf("invalid options file: %w", err)
		}
	}

	opts, err := LoadOptions(c.OptionsFile)
	if err != nil {
		return fmt.Errorf("load options failed: %w", err)
	}
	if c.OnlyAppFrames != nil {
		opts.OnlyAppFrames = *c.OnlyAppFrames
	}
	if c.ShowTranspiled != nil {
		opts.ShowTranspiled = *c.ShowTranspiled
	}
	if c.AutoExpandDepth != nil {
		opts.AutoExpandDepth = *c.AutoExpandDepth
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	c.Options = opts

	if c.ReportChartsFile != "" {
		if _, err := chartOutputForPath(c.ReportChartsFile); err != nil {
			return err
		}
	}
	for _, path := range []string{c.OutputFile, c.ReportJsonFile, c.ReportChartsFile} {
		if path == "" {
			continue
		} else if err := c.validateOutputPath(path); err != nil {
			return fmt.Errorf("invalid output file path: %w", err)
		}
	}

	c.prepared = true
	return nil
}

// validateFilePath validates that a file path exists and is readable
func (c *Config) validateFilePath(path, expectedType string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("file does not exist or is not accessible: %w", err)
	} else if info.IsDir() {
		return fmt.Errorf("path is a directory, expected a %s file", expectedType)
	}

	// Try to open the file to check readability
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file is not readable: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	return nil
}

// validateOutputPath validates that an output file path can be written to
func (c *Config) validateOutputPath(path string) error {
	dir := filepath.Dir(path)

	// Check if directory exists, if not try to create it
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("cannot create output directory '%s': %w", dir, err)
		}
	}

	// Check if we can write to the directory
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		return fmt.Errorf("cannot write to output directory '%s': %w", dir, err)
	}
	_ = file.Close()
	return os.Remove(testFile)
}
