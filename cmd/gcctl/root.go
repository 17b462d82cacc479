package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/gckit/gc"
)

var (
	// Global flags
	verbose     bool
	quiet       bool
	jsonOut     bool
	debugLog    bool
	profilePath string
)

var rootCmd = &cobra.Command{
	Use:   "gcctl",
	Short: "Exercise and inspect gckit managed heaps",
	Long: `gcctl drives workloads against a gckit managed heap and reports on the
collector's behavior: pass counts, promotion, reclamation, weak reference
and finalization traffic, and heap integrity.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Log collector passes to stderr")
	rootCmd.PersistentFlags().
		StringVar(&profilePath, "profile", "", "Heap profile YAML file (see 'gcctl profile')")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRuntime builds a runtime from the profile flag and wires pass logging
// when --debug is set.
func newRuntime() (*gc.Runtime, error) {
	cfg, err := loadProfile(profilePath)
	if err != nil {
		return nil, err
	}

	var opts []gc.Option
	if debugLog {
		opts = append(opts, gc.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))))
	}

	return gc.NewRuntime(cfg, opts...)
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
