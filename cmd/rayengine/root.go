package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/rayengine/internal/config"
)

// Version is set at build time with
// -ldflags="-X 'main.Version=v0.1.0'".
var Version = "development"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rayengine",
		Short:         "Frame-synchronized ray marching engine.",
		Long:          "Runs script and camera updates on a worker pool each frame, then draws the scene on the CPU or a wgpu HAL backend.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "path to a YAML config file")
	flags.BoolP("quiet", "q", false, "if set disable all logs")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-format", "", "log format: auto, text or json")

	root.AddCommand(newRunCmd(), newSnapshotCmd(), newBackendsCmd())
	return root
}

// loadConfig reads --config, or the defaults when it is empty, then applies
// every engine flag the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Log.Format, _ = flags.GetString("log-format")
	}
	if flags.Lookup("workers") != nil && flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Lookup("width") != nil && flags.Changed("width") {
		cfg.Window.Width, _ = flags.GetInt("width")
	}
	if flags.Lookup("height") != nil && flags.Changed("height") {
		cfg.Window.Height, _ = flags.GetInt("height")
	}
	if flags.Lookup("frames") != nil && flags.Changed("frames") {
		cfg.Frames, _ = flags.GetUint64("frames")
	}
	if flags.Lookup("fps") != nil && flags.Changed("fps") {
		cfg.FPS, _ = flags.GetInt("fps")
	}
	if flags.Lookup("vsync") != nil && flags.Changed("vsync") {
		cfg.Window.VSync, _ = flags.GetBool("vsync")
	}
	if flags.Lookup("backend") != nil && flags.Changed("backend") {
		cfg.Renderer.Backend, _ = flags.GetString("backend")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	quiet, _ := flags.GetBool("quiet")
	if err := setupLogger(cfg, quiet, cmd.ErrOrStderr()); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, nil
}

// addEngineFlags registers the per-command engine overrides.
func addEngineFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.IntP("workers", "w", 0, "worker count, 0 means GOMAXPROCS")
	flags.Int("width", 0, "surface width in pixels")
	flags.Int("height", 0, "surface height in pixels")
}
