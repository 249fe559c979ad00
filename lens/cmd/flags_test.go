package cmd

import (
	"flag"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PatchLens/go-snapshot-lens/lens"
)

func parseTestFlags(t *testing.T, customFlags []CustomFlag, args ...string) (*lens.Config, error) {
	t.Helper()

	oldArgs := os.Args
	oldCommandLine := flag.CommandLine
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	os.Args = append([]string{os.Args[0]}, args...)
	defer func() {
		os.Args = oldArgs
		flag.CommandLine = oldCommandLine
	}()

	return ParseFlags(customFlags)
}

func TestParseFlags(t *testing.T) {
	t.Run("single_snapshot", func(t *testing.T) {
		cfg, err := parseTestFlags(t, nil, "-snapshot", "snap.json")
		require.NoError(t, err)

		assert.Equal(t, []string{"snap.json"}, cfg.SnapshotFiles)
		assert.Equal(t, 0, cfg.FrameIndex)
		assert.Equal(t, lens.DefaultValueWidth, cfg.ValueWidth)
		assert.False(t, cfg.AllFrames)
		assert.False(t, cfg.Diff)
		assert.Empty(t, cfg.ReportJsonFile)
		assert.Empty(t, cfg.ReportChartsFile)
		// Options are resolved by Config.Prepare(), not ParseFlags
		assert.Equal(t, lens.Options{}, cfg.Options)
	})

	t.Run("multiple_snapshots", func(t *testing.T) {
		cfg, err := parseTestFlags(t, nil, "-snapshot", "a.json, b.msgpack.zst,", "-diff")
		require.NoError(t, err)

		assert.Equal(t, []string{"a.json", "b.msgpack.zst"}, cfg.SnapshotFiles)
		assert.True(t, cfg.Diff)
	})

	t.Run("render_flags", func(t *testing.T) {
		cfg, err := parseTestFlags(t, nil, "-snapshot", "s.json", "-frame", "2", "-all", "-nocolor",
			"-valuewidth", "40", "-json", "r.json", "-charts", "r.svg", "-out", "out.txt", "-options", "o.yaml")
		require.NoError(t, err)

		assert.Equal(t, 2, cfg.FrameIndex)
		assert.True(t, cfg.AllFrames)
		assert.True(t, cfg.NoColor)
		assert.Equal(t, 40, cfg.ValueWidth)
		assert.Equal(t, "r.json", cfg.ReportJsonFile)
		assert.Equal(t, "r.svg", cfg.ReportChartsFile)
		assert.Equal(t, "out.txt", cfg.OutputFile)
		assert.Equal(t, "o.yaml", cfg.OptionsFile)
	})

	t.Run("option_overrides_only_when_set", func(t *testing.T) {
		cfg, err := parseTestFlags(t, nil, "-snapshot", "s.json")
		require.NoError(t, err)
		assert.Nil(t, cfg.OnlyAppFrames)
		assert.Nil(t, cfg.ShowTranspiled)
		assert.Nil(t, cfg.AutoExpandDepth)

		cfg, err = parseTestFlags(t, nil, "-snapshot", "s.json", "-apponly", "-transpiled=false", "-expand", "3")
		require.NoError(t, err)
		require.NotNil(t, cfg.OnlyAppFrames)
		require.NotNil(t, cfg.ShowTranspiled)
		require.NotNil(t, cfg.AutoExpandDepth)
		assert.True(t, *cfg.OnlyAppFrames)
		assert.False(t, *cfg.ShowTranspiled)
		assert.Equal(t, 3, *cfg.AutoExpandDepth)
	})

	t.Run("missing_required", func(t *testing.T) {
		_, err := parseTestFlags(t, nil, "-all")
		require.Error(t, err)
	})

	t.Run("custom_flags", func(t *testing.T) {
		cfs := []CustomFlag{
			{Name: "str", DefaultValue: "", Usage: "", Type: "string"},
			{Name: "num", DefaultValue: 0, Usage: "", Type: "int"},
			{Name: "ok", DefaultValue: false, Usage: "", Type: "bool"},
		}
		cfg, err := parseTestFlags(t, cfs, "-snapshot", "s.json", "-str", "val", "-num", "2", "-ok")
		require.NoError(t, err)

		assert.Equal(t, "val", cfg.CustomFlags["str"])
		assert.Equal(t, "2", cfg.CustomFlags["num"])
		assert.Equal(t, "true", cfg.CustomFlags["ok"])
	})

	t.Run("custom_flags_with_defaults", func(t *testing.T) {
		cfs := []CustomFlag{
			{Name: "defaultstr", DefaultValue: "default", Usage: "test string", Type: "string"},
			{Name: "defaultnum", DefaultValue: 42, Usage: "test int", Type: "int"},
			{Name: "defaultbool", DefaultValue: true, Usage: "test bool", Type: "bool"},
		}
		cfg, err := parseTestFlags(t, cfs, "-snapshot", "s.json")
		require.NoError(t, err)

		assert.Equal(t, "default", cfg.CustomFlags["defaultstr"])
		assert.Equal(t, "42", cfg.CustomFlags["defaultnum"])
		assert.Equal(t, "true", cfg.CustomFlags["defaultbool"])
	})

	t.Run("nil_custom_flags", func(t *testing.T) {
		cfg, err := parseTestFlags(t, nil, "-snapshot", "s.json")
		require.NoError(t, err)

		assert.NotNil(t, cfg.CustomFlags)
		assert.Empty(t, cfg.CustomFlags)
	})
}
