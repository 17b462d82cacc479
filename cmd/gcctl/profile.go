package main

import (
	"fmt"
	"os"

	"github.com/inhies/go-bytesize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/joshuapare/gckit/heap"
)

// Profile is the on-disk shape of a heap profile. Sizes accept human
// readable suffixes ("4MB", "64KB").
type Profile struct {
	SegmentSize    string `yaml:"segment_size"`
	LargeSpaceSize string `yaml:"large_space_size"`
	LargeObjectMin string `yaml:"large_object_min"`
	MaxGeneration  int    `yaml:"max_generation"`
}

// loadProfile reads a profile file into a heap config. An empty path
// yields the zero config, which heap.New fills with defaults.
func loadProfile(path string) (heap.Config, error) {
	var cfg heap.Config
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return cfg, fmt.Errorf("failed to parse profile: %w", err)
	}

	if cfg.SegmentSize, err = parseSize(p.SegmentSize); err != nil {
		return cfg, fmt.Errorf("segment_size: %w", err)
	}
	if cfg.LargeSpaceSize, err = parseSize(p.LargeSpaceSize); err != nil {
		return cfg, fmt.Errorf("large_space_size: %w", err)
	}
	if cfg.LargeObjectMin, err = parseSize(p.LargeObjectMin); err != nil {
		return cfg, fmt.Errorf("large_object_min: %w", err)
	}
	cfg.MaxGeneration = p.MaxGeneration

	return cfg, nil
}

func parseSize(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	b, err := bytesize.Parse(s)
	if err != nil {
		return 0, err
	}
	return int(b), nil
}

func newProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the effective heap profile",
		Long: `Show the heap configuration that the other commands would run with,
after applying the --profile file (if any) and the built-in defaults.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProfile(profilePath)
			if err != nil {
				return err
			}

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			eff := rt.Heap().Config()
			printInfo("Heap profile:\n")
			printInfo("  Segment size:      %s\n", bytesize.New(float64(eff.SegmentSize)))
			printInfo("  Large space size:  %s\n", bytesize.New(float64(eff.LargeSpaceSize)))
			printInfo("  Large object min:  %s\n", bytesize.New(float64(eff.LargeObjectMin)))
			printInfo("  Max generation:    %d\n", eff.MaxGeneration)
			if cfg.MaxGeneration != 0 {
				printVerbose("  (max generation overridden by profile)\n")
			}
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(newProfileCmd())
}
