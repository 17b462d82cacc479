package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/gckit/cmd/heapscope/logger"
	"github.com/joshuapare/gckit/gc"
	"github.com/joshuapare/gckit/heap"
)

var (
	version = "0.1.0"
)

func main() {
	var (
		debugMode   = flag.Bool("debug", false, "Enable debug logging to ~/.heapscope/logs/")
		segmentSize = flag.Int("segment", 1<<20, "Segment size in bytes")
		largeSize   = flag.Int("large", 4<<20, "Large object space size in bytes")
		rate        = flag.Duration("rate", 2*time.Millisecond, "Workload allocation interval")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Usage = printHelp
	flag.Parse()

	if *showVersion {
		fmt.Printf("heapscope %s\n", version)
		os.Exit(0)
	}

	// Initialize logger (must be before any logging calls)
	if err := logger.Init(logger.Options{
		Enabled: *debugMode,
		Level:   slog.LevelDebug,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logging: %v\n", err)
	}

	rt, err := gc.NewRuntime(heap.Config{
		SegmentSize:    *segmentSize,
		LargeSpaceSize: *largeSize,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create heap: %v\n", err)
		os.Exit(1)
	}
	defer rt.Close()

	logger.Info("starting heapscope",
		"segment", *segmentSize,
		"large", *largeSize,
		"rate", *rate,
	)

	work := newWorkload(rt, *rate)
	work.start()
	defer work.stop()

	p := tea.NewProgram(
		NewModel(rt, work),
		tea.WithAltScreen(), // Use alternate screen buffer
	)
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}

	logger.Info("heapscope exited normally")
}

func printHelp() {
	fmt.Println("heapscope - Live terminal view of a gckit managed heap")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  heapscope [options]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Runs a synthetic allocation workload against a managed heap and")
	fmt.Println("  displays live occupancy, generation counts, and collector activity.")
	fmt.Println()
	fmt.Println("  Keys:")
	fmt.Println("    p    Pause/resume the workload")
	fmt.Println("    y    Run a young (generation 0) collection pass")
	fmt.Println("    c    Run a full collection pass")
	fmt.Println("    f    Drain the finalizer queue")
	fmt.Println("    i    Verify heap integrity")
	fmt.Println("    q    Quit")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
}
