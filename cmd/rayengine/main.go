// Command rayengine drives the ray marching engine from the command line.
//
// Usage:
//
//	rayengine run --frames 600 --workers 8
//	rayengine snapshot --output frame.png
//	rayengine backends
package main

import (
	"fmt"
	"os"

	// Registers every HAL backend this platform supports.
	_ "github.com/gogpu/wgpu/hal/allbackends"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rayengine:", err)
		os.Exit(1)
	}
}
