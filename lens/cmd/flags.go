package cmd

import (
	"errors"
	"flag"
	"strconv"
	"strings"

	"github.com/PatchLens/go-snapshot-lens/lens"
)

// CustomFlag defines a custom CLI option.
type CustomFlag struct {
	Name         string
	DefaultValue any
	Usage        string
	Type         string // "string", "int", "bool"
}

// ParseFlags builds Config from standard and custom flags.
func ParseFlags(customFlags []CustomFlag) (*lens.Config, error) {
	config := &lens.Config{CustomFlags: make(map[string]string)}

	// Define all standard flags
	snapshotFiles := flag.String("snapshot", "", "Snapshot file(s) to render, comma separated (.json or .msgpack, optionally .zst or .sz compressed)")
	optionsFile := flag.String("options", "", "YAML file with presentation options")
	frameIndex := flag.Int("frame", 0, "Position of the frame to show variables for, within the (filtered) frame list")
	allFrames := flag.Bool("all", false, "Show the variables of every frame")
	reportJsonFile := flag.String("json", "", "File to output snapshot graph details")
	reportChartsFile := flag.String("charts", "", "File to output snapshot graph overview chart image (png, jpg or svg)")
	diff := flag.Bool("diff", false, "Show variable differences between two snapshots of the same tracepoint")
	noColor := flag.Bool("nocolor", false, "Disable colored output")
	valueWidth := flag.Int("valuewidth", lens.DefaultValueWidth, "Maximum display width of a value, 0 for unlimited")
	outputFile := flag.String("out", "", "File to additionally write the rendered output to")
	onlyAppFrames := flag.Bool("apponly", false, "Only show application frames")
	showTranspiled := flag.Bool("transpiled", false, "Show transpiled frame locations")
	autoExpandDepth := flag.Int("expand", lens.DefaultAutoExpandDepth, "Depth below which variables are expanded")

	// Define custom flags
	customPtrs := make(map[string]interface{})
	for _, cf := range customFlags {
		switch cf.Type {
		case "string":
			customPtrs[cf.Name] = flag.String(cf.Name, cf.DefaultValue.(string), cf.Usage)
		case "int":
			customPtrs[cf.Name] = flag.Int(cf.Name, cf.DefaultValue.(int), cf.Usage)
		case "bool":
			customPtrs[cf.Name] = flag.Bool(cf.Name, cf.DefaultValue.(bool), cf.Usage)
		}
	}

	flag.Parse()

	// Validate standard flags
	if *snapshotFiles == "" {
		return nil, errors.New("usage: -snapshot snapshot.json\ndiff usage: -diff -snapshot first.json,second.json")
	}

	// Populate config
	for _, path := range strings.Split(*snapshotFiles, ",") {
		if path = strings.TrimSpace(path); path != "" {
			config.SnapshotFiles = append(config.SnapshotFiles, path)
		}
	}
	config.OptionsFile = *optionsFile
	config.FrameIndex = *frameIndex
	config.AllFrames = *allFrames
	config.ReportJsonFile = *reportJsonFile
	config.ReportChartsFile = *reportChartsFile
	config.Diff = *diff
	config.NoColor = *noColor
	config.ValueWidth = *valueWidth
	config.OutputFile = *outputFile

	// presentation options only override the options file and environment when explicitly set
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "apponly":
			config.OnlyAppFrames = onlyAppFrames
		case "transpiled":
			config.ShowTranspiled = showTranspiled
		case "expand":
			config.AutoExpandDepth = autoExpandDepth
		}
	})

	// Populate custom flags - convert all to strings for ease of use
	for name, ptr := range customPtrs {
		switch v := ptr.(type) {
		case *string:
			config.CustomFlags[name] = *v
		case *int:
			config.CustomFlags[name] = strconv.Itoa(*v)
		case *bool:
			config.CustomFlags[name] = strconv.FormatBool(*v)
		}
	}

	return config, nil
}
