// Command tscns demonstrates the calibrated TSC clock.
//
// Usage:
//
//	tscns now                    print a timestamp from the calibrated clock
//	tscns ghz                    print the calibrated counter frequency
//	tscns bench -n 10000000      compare per-read cost against time.Now
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	tscns "github.com/randomizedcoder/go-tscns"
)

type opts struct {
	initCalibrate time.Duration
	interval      time.Duration
}

func main() {
	var o opts

	root := &cobra.Command{
		Use:   "tscns",
		Short: "Cycle-counter-based nanosecond clock",
		Long: `The tscns tool exercises the calibrated cycle-counter clock: it seeds the
cycle-to-nanosecond model against the OS clock, keeps it drift-corrected in
the background, and reads timestamps without a system call.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().DurationVar(&o.initCalibrate, "init-calibrate", 20*time.Millisecond, "initial calibration sampling window")
	root.PersistentFlags().DurationVar(&o.interval, "interval", 3*time.Second, "recalibration period")

	root.AddCommand(nowCmd(&o), ghzCmd(&o), benchCmd(&o))

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

// initClock seeds the clock and starts background calibration.
func initClock(ctx context.Context, o *opts) {
	tscns.Init(uint64(o.initCalibrate.Nanoseconds()), uint64(o.interval.Nanoseconds()))
	go tscns.Run(ctx)
}

func nowCmd(o *opts) *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Print a timestamp read from the calibrated clock",
		RunE: func(cmd *cobra.Command, args []string) error {
			initClock(cmd.Context(), o)

			ns := tscns.ReadNanos()
			ts := time.Unix(0, int64(ns)).Local()

			fmt.Printf("%d\n", ns)
			fmt.Printf("%s\n", ts.Format("2006-01-02 15:04:05.000000"))
			return nil
		},
	}
}

func ghzCmd(o *opts) *cobra.Command {
	return &cobra.Command{
		Use:   "ghz",
		Short: "Print the calibrated counter frequency",
		RunE: func(cmd *cobra.Command, args []string) error {
			initClock(cmd.Context(), o)

			fmt.Printf("cpu %.6f GHz (%s/%s)\n", tscns.TSCGHz(), runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}

func benchCmd(o *opts) *cobra.Command {
	var iterations int

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Compare per-read cost against the OS clock",
		RunE: func(cmd *cobra.Command, args []string) error {
			initClock(cmd.Context(), o)

			fmt.Printf("Benchmarking clock reads (%d iterations, %s/%s)\n",
				iterations, runtime.GOOS, runtime.GOARCH)

			sources := []struct {
				name string
				read func() uint64
			}{
				{"time.Now", func() uint64 { return uint64(time.Now().UnixNano()) }},
				{"tscns.ReadNanos", tscns.ReadNanos},
			}

			var sink uint64
			results := make([]time.Duration, len(sources))

			for i, src := range sources {
				start := time.Now()
				for j := 0; j < iterations; j++ {
					sink = src.read()
				}
				results[i] = time.Since(start)
			}
			_ = sink

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
			baseline := float64(results[0].Nanoseconds()) / float64(iterations)

			for i, src := range sources {
				perOp := float64(results[i].Nanoseconds()) / float64(iterations)
				fmt.Fprintf(w, "%s\t%v\t%.2f ns/op\t%.2fx\t\n",
					src.name, results[i], perOp, baseline/perOp)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Printf("\nclock drift vs OS: %d ns\n",
				int64(tscns.ReadNanos())-time.Now().UnixNano())
			return nil
		},
	}

	cmd.Flags().IntVarP(&iterations, "iterations", "n", 10_000_000, "number of reads per source")
	return cmd
}
