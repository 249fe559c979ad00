package lens

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultAutoExpandDepth is the depth below which variables are expanded when no option is configured.
const DefaultAutoExpandDepth = 1

// Options control how a snapshot is presented.
type Options struct {
	// OnlyAppFrames limits the frame list to frames from the application.
	OnlyAppFrames bool `yaml:"onlyAppFrames" env:"SNAPLENS_ONLY_APP_FRAMES"`
	// ShowTranspiled shows the transpiled location of a frame in addition to the mapped location.
	ShowTranspiled bool `yaml:"showTranspiled" env:"SNAPLENS_SHOW_TRANSPILED"`
	// AutoExpandDepth is the depth below which variable nodes start open.
	AutoExpandDepth int `yaml:"autoExpandDepth" env:"SNAPLENS_AUTO_EXPAND_DEPTH"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{AutoExpandDepth: DefaultAutoExpandDepth}
}

// Validate checks the option values.
func (o Options) Validate() error {
	if o.AutoExpandDepth < 0 {
		return fmt.Errorf("autoExpandDepth must not be negative: %d", o.AutoExpandDepth)
	}
	return nil
}

// LoadOptions starts from DefaultOptions, applies the YAML file at path when path is not empty, and then
// applies any SNAPLENS_ environment variables.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return opts, fmt.Errorf("read options file failed: %w", err)
		} else if opts, err = ParseOptionsYAML(data); err != nil {
			return opts, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := env.Parse(&opts); err != nil {
		return opts, fmt.Errorf("parse env: %w", err)
	}
	return opts, opts.Validate()
}

// ParseOptionsYAML decodes options from YAML content on top of the defaults.
func ParseOptionsYAML(data []byte) (Options, error) {
	opts := DefaultOptions()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parse options failed: %w", err)
	}
	return opts, opts.Validate()
}
