package shader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const triangleWGSL = `
@vertex
fn vs_main(@builtin(vertex_index) i: u32) -> @builtin(position) vec4<f32> {
    let x = f32(i32(i) - 1);
    let y = f32(i32(i & 1u) * 2 - 1);
    return vec4<f32>(x, y, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.5, 0.0, 1.0);
}
`

func TestCompileWGSL(t *testing.T) {
	code, err := CompileWGSL([]byte(triangleWGSL))
	require.NoError(t, err)

	eps, err := EntryPoints(code)
	require.NoError(t, err)
	assert.Equal(t, "vs_main", eps[ShaderTypeVertex])
	assert.Equal(t, "fs_main", eps[ShaderTypeFragment])

	_, err = CompileWGSL([]byte("fn broken( {"))
	assert.Error(t, err)
}

func TestCompileDirRoundTrip(t *testing.T) {
	in, out := t.TempDir(), filepath.Join(t.TempDir(), "spv")
	require.NoError(t, os.WriteFile(filepath.Join(in, "triangle.wgsl"), []byte(triangleWGSL), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("ignored"), 0o644))

	names, err := CompileDir(in, out, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"triangle"}, names)

	l := NewLibrary()
	require.NoError(t, l.LoadDir(out, 2))
	assert.Equal(t, []string{"triangle.frag", "triangle.vert"}, l.Keys())
	vs, ok := l.Get("triangle", ShaderTypeVertex)
	require.True(t, ok)
	assert.Equal(t, "vs_main", vs.EntryPoint())

	_, err = CompileDir(out, t.TempDir(), 1)
	assert.Error(t, err)
}
