// Package shader holds pre-compiled shader programs keyed by name and stage.
//
// Programs are opaque binaries produced by a build step (cmd/shaderc) or WGSL sources the device
// compiles itself. The engine never compiles shader source.
package shader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
)

// ShaderType identifies the pipeline stage a shader program runs in.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex stage.
	ShaderTypeVertex ShaderType = iota
	// ShaderTypeFragment is the fragment stage.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vert"
	case ShaderTypeFragment:
		return "frag"
	}
	return fmt.Sprintf("ShaderType(%d)", int(t))
}

// parseShaderType maps a file name stage suffix to a ShaderType.
func parseShaderType(s string) (ShaderType, bool) {
	switch s {
	case "vert", "vs", "vertex":
		return ShaderTypeVertex, true
	case "frag", "fs", "fragment":
		return ShaderTypeFragment, true
	}
	return 0, false
}

// DefaultEntryPoint returns the entry point a program of format and type is expected to export.
// WGSL sources carry both stages in one module; SPIR-V binaries are one stage each.
func DefaultEntryPoint(format gpu.ShaderFormat, t ShaderType) string {
	if format == gpu.ShaderFormatSPIRV {
		return "main"
	}
	if t == ShaderTypeVertex {
		return "vs_main"
	}
	return "fs_main"
}

// shader is the implementation of the Shader interface.
type shader struct {
	name       string
	shaderType ShaderType
	format     gpu.ShaderFormat
	entryPoint string
	code       []byte
}

// Shader is one compiled program for one stage.
type Shader interface {
	// Key returns "<name>.<stage>", unique within a Library.
	Key() string
	Name() string
	Type() ShaderType
	Format() gpu.ShaderFormat
	EntryPoint() string
	Code() []byte

	// Program returns the device-facing description of the shader.
	Program() gpu.ShaderProgram
}

var _ Shader = &shader{}

// NewShader creates a Shader. An empty entryPoint selects DefaultEntryPoint.
//
// Parameters:
//   - name: the program name, e.g. "opaque"
//   - t: the pipeline stage
//   - format: the code encoding
//   - entryPoint: the exported function name, or ""
//   - code: the program bytes
//
// Returns:
//   - Shader: the shader
func NewShader(name string, t ShaderType, format gpu.ShaderFormat, entryPoint string, code []byte) Shader {
	if entryPoint == "" {
		entryPoint = DefaultEntryPoint(format, t)
	}
	return &shader{name: name, shaderType: t, format: format, entryPoint: entryPoint, code: code}
}

func Key(name string, t ShaderType) string {
	return name + "." + t.String()
}

func (s *shader) Key() string              { return Key(s.name, s.shaderType) }
func (s *shader) Name() string             { return s.name }
func (s *shader) Type() ShaderType         { return s.shaderType }
func (s *shader) Format() gpu.ShaderFormat { return s.format }
func (s *shader) EntryPoint() string       { return s.entryPoint }
func (s *shader) Code() []byte             { return s.code }

func (s *shader) Program() gpu.ShaderProgram {
	return gpu.ShaderProgram{Label: s.Key(), Format: s.format, EntryPoint: s.entryPoint, Code: s.code}
}
