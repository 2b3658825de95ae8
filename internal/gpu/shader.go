package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"

	"github.com/gogpu/rayengine/internal/cache"
)

// Embedded WGSL shader sources.

//go:embed shaders/main.wgsl
var mainShaderSource string

// Entry points of main.wgsl.
const (
	mainVertexEntry   = "vs_main"
	mainFragmentEntry = "fs_main"

	// mainVertexCount is two triangles covering the target.
	mainVertexCount = 6
)

// MainShaderSource returns the WGSL source of the ray-march shader.
func MainShaderSource() string {
	return mainShaderSource
}

// spirvCache holds compiled SPIR-V keyed by WGSL source.
var spirvCache = cache.New[string, []uint32](16)

// CompileWGSL compiles WGSL source to SPIR-V words with naga. Results are
// cached per source; the returned slice must not be modified.
func CompileWGSL(source string) ([]uint32, error) {
	return spirvCache.GetOrCreate(source, func() ([]uint32, error) {
		return compileWGSL(source)
	})
}

// ShaderCacheStats returns the compiled shader cache counters.
func ShaderCacheStats() cache.Stats {
	return spirvCache.Stats()
}

func compileWGSL(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("gpu: compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("gpu: compile shader: SPIR-V size %d is not word aligned", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// ValidateMainShader runs main.wgsl through the naga front end and SPIR-V
// back end without creating any GPU object.
func ValidateMainShader() error {
	_, err := CompileWGSL(mainShaderSource)
	return err
}
