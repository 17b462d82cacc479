package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/gckit/heap"
)

type stressOptions struct {
	objects    int
	size       int
	surviveN   int
	passes     int
	finalizers bool
	links      bool
}

func newStressCmd() *cobra.Command {
	opts := stressOptions{}

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Drive an allocation workload through the collector",
		Long: `Allocate a stream of objects, keep a fraction of them rooted, and let
the collector keep up. Reports allocation, reclamation, promotion and
pause figures when the run completes.

Every Nth object (--survive) is rooted and linked to its predecessor so
the heap carries a live graph across passes, not just isolated cells.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress(opts)
		},
	}

	cmd.Flags().IntVar(&opts.objects, "objects", 100000, "Number of objects to allocate")
	cmd.Flags().IntVar(&opts.size, "size", 64, "Payload size of each object in bytes")
	cmd.Flags().IntVar(&opts.surviveN, "survive", 16, "Root one object in every N (0 = none)")
	cmd.Flags().IntVar(&opts.passes, "passes", 8, "Explicit collection passes spread over the run")
	cmd.Flags().BoolVar(&opts.finalizers, "finalizers", false, "Attach a finalizer to surviving objects")
	cmd.Flags().BoolVar(&opts.links, "links", true, "Link survivors into a chain via the write barrier")

	return cmd
}

func runStress(opts stressOptions) error {
	if opts.objects <= 0 || opts.size <= 0 {
		return fmt.Errorf("objects and size must be positive")
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	printInfo("Stressing heap: %d objects x %d bytes\n", opts.objects, opts.size)

	finalized := 0
	collectEvery := 0
	if opts.passes > 0 {
		collectEvery = opts.objects / opts.passes
	}

	start := time.Now()
	var prev heap.ObjectID
	var survivors []heap.ObjectID
	for i := 0; i < opts.objects; i++ {
		var allocOpts []heap.AllocOption
		keep := opts.surviveN > 0 && i%opts.surviveN == 0
		if keep && opts.finalizers {
			allocOpts = append(allocOpts, heap.WithFinalizer(func() { finalized++ }))
		}

		id, err := rt.Allocate(opts.size, allocOpts...)
		if err != nil {
			return fmt.Errorf("allocation %d failed: %w", i, err)
		}

		if keep {
			rt.AddRoot(id)
			survivors = append(survivors, id)
			if opts.links && prev != 0 {
				if err := rt.AddReference(prev, id); err != nil {
					return fmt.Errorf("linking survivors: %w", err)
				}
			}
			prev = id
		}

		if collectEvery > 0 && i > 0 && i%collectEvery == 0 {
			rep := rt.Collect(0)
			printVerbose(
				"pass at %d: reclaimed=%d promoted=%d relocated=%d pause=%s\n",
				i, rep.Reclaimed, rep.Promoted, rep.Relocated, rep.Pause,
			)
		}
	}

	// Tear the survivors back down and run everything to completion.
	for _, id := range survivors {
		rt.RemoveRoot(id)
	}
	rt.Collect(rt.MaxGeneration())
	if opts.finalizers {
		if _, err := rt.RunFinalizers(context.Background()); err != nil {
			printInfo("Warning: finalizer errors: %v\n", err)
		}
		rt.Collect(rt.MaxGeneration())
	}
	elapsed := time.Since(start)

	if err := rt.CheckIntegrity(); err != nil {
		return fmt.Errorf("heap integrity check failed after stress: %w", err)
	}

	if quiet {
		return nil
	}

	stats := rt.Stats()
	snap := rt.Snapshot()
	p := message.NewPrinter(language.English)
	p.Fprintf(os.Stdout, "\nStress run complete in %v\n", elapsed.Round(time.Millisecond))
	p.Fprintf(os.Stdout, "  Objects allocated:   %d\n", opts.objects)
	p.Fprintf(os.Stdout, "  Collections:         %d (%d full)\n", stats.Collections, stats.FullCollections)
	p.Fprintf(os.Stdout, "  Objects reclaimed:   %d\n", stats.ObjectsReclaimed)
	p.Fprintf(os.Stdout, "  Bytes reclaimed:     %d\n", stats.BytesReclaimed)
	p.Fprintf(os.Stdout, "  Objects promoted:    %d\n", stats.ObjectsPromoted)
	p.Fprintf(os.Stdout, "  Cells relocated:     %d\n", stats.CellsRelocated)
	p.Fprintf(os.Stdout, "  Finalizers run:      %d\n", finalized)
	p.Fprintf(os.Stdout, "  Objects remaining:   %d\n", snap.Objects)

	return nil
}

func init() {
	rootCmd.AddCommand(newStressCmd())
}
