package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/rayengine"
	"github.com/gogpu/rayengine/internal/config"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render frames on the CPU and save the last one as PNG.",
		Args:  cobra.NoArgs,
		RunE:  runSnapshot,
	}
	addEngineFlags(cmd)
	flags := cmd.Flags()
	flags.StringP("output", "o", "", "PNG file to write, defaults to snapshot.path")
	flags.Uint64P("frames", "n", 1, "frames to render before saving")
	return cmd
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// Only the CPU renderer keeps its frame in memory.
	cfg.Renderer.Backend = config.BackendCPU

	path := cfg.Snapshot.Path
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		path = out
	}
	frames := cfg.Frames
	if frames == 0 {
		frames = 1
	}

	engine, err := rayengine.New(cfg.Options()...)
	if err != nil {
		return err
	}
	defer engine.Close()

	for i := uint64(0); i < frames; i++ {
		if err := engine.Frame(); err != nil {
			return err
		}
	}
	if err := engine.Snapshot(path); err != nil {
		return err
	}
	w, h := engine.Context().Size()
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d, %d frames)\n", path, w, h, frames)
	return nil
}
