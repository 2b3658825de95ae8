package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/rayengine/internal/gpu"
)

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the wgpu HAL backends registered in this build.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "cpu")
			for _, b := range gpu.AvailableBackends() {
				fmt.Fprintln(out, b.String())
			}
			return nil
		},
	}
}
