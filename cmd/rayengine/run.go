package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/rayengine"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the frame loop.",
		Long:  "Run the frame loop until interrupted or until --frames frames are drawn.",
		Args:  cobra.NoArgs,
		RunE:  runFrames,
	}
	addEngineFlags(cmd)
	flags := cmd.Flags()
	flags.Uint64P("frames", "n", 0, "stop after this many frames, 0 runs until interrupted")
	flags.Int("fps", 0, "frame rate cap, 0 runs frames back to back")
	flags.Bool("vsync", true, "request vsync presentation")
	flags.StringP("backend", "b", "", "renderer backend: cpu, noop, vulkan, metal, dx12, gl or auto")
	flags.Bool("no-progress", false, "never draw the progress bar")
	return cmd
}

func runFrames(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	opts := cfg.Options()

	noProgress, _ := cmd.Flags().GetBool("no-progress")
	var bar *pb.ProgressBar
	if cfg.Frames > 0 && !noProgress && isTerminal(out) {
		bar = pb.New64(int64(cfg.Frames))
		bar.SetWriter(out)
		bar.Start()
		opts = append(opts, rayengine.WithFrameHook(func(rayengine.FrameInfo) {
			bar.Increment()
		}))
	}

	engine, err := rayengine.New(opts...)
	if err != nil {
		if bar != nil {
			bar.Finish()
		}
		return err
	}

	runErr := engine.Run(ctx)
	if bar != nil {
		bar.Finish()
	}
	stats := engine.Stats()
	if err := engine.Close(); err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	printSummary(out, stats)
	return nil
}

// printSummary writes one line of frame statistics.
func printSummary(w io.Writer, s rayengine.Stats) {
	p := message.NewPrinter(language.English)
	fmt.Fprint(w, p.Sprintf("%d frames in %v, avg %v, %d workers, %d jobs, %d panics\n",
		s.Frames, s.Total.Round(time.Microsecond), s.Average().Round(time.Microsecond), s.Workers, s.JobsRun, s.JobPanics))
}
