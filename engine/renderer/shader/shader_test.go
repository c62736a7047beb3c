package shader

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	c, ok := classify("shaders/opaque.wgsl")
	require.True(t, ok)
	assert.Equal(t, "opaque", c.name)
	assert.Equal(t, []ShaderType{ShaderTypeVertex, ShaderTypeFragment}, c.stages)
	assert.Equal(t, gpu.ShaderFormatWGSL, c.format)

	c, ok = classify("shaders/opaque.frag.spv")
	require.True(t, ok)
	assert.Equal(t, "opaque", c.name)
	assert.Equal(t, []ShaderType{ShaderTypeFragment}, c.stages)
	assert.Equal(t, gpu.ShaderFormatSPIRV, c.format)

	_, ok = classify("shaders/opaque.spv")
	assert.False(t, ok)
	_, ok = classify("shaders/readme.md")
	assert.False(t, ok)
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"sh/opaque.wgsl":     {Data: []byte("wgsl source")},
		"sh/opaque.vert.spv": {Data: spirvModule(entry{execModelVertex, "main"})},
		"sh/line.vs.wgsl":    {Data: []byte("line vs")},
		"sh/notes.txt":       {Data: []byte("ignored")},
	}
	l := NewLibrary()
	require.NoError(t, l.LoadFS(fsys, "sh", 4))

	assert.Equal(t, []string{"line.vert", "opaque.frag", "opaque.vert"}, l.Keys())

	vs, ok := l.Get("opaque", ShaderTypeVertex)
	require.True(t, ok)
	assert.Equal(t, gpu.ShaderFormatSPIRV, vs.Format(), "spir-v wins over wgsl")
	assert.Equal(t, "main", vs.EntryPoint())

	fs, ok := l.Get("opaque", ShaderTypeFragment)
	require.True(t, ok)
	assert.Equal(t, gpu.ShaderFormatWGSL, fs.Format())
	assert.Equal(t, "fs_main", fs.EntryPoint())
	assert.Equal(t, "wgsl source", string(fs.Code()))

	p := fs.Program()
	assert.Equal(t, "opaque.frag", p.Label)
	assert.Equal(t, "fs_main", p.EntryPoint)
}

func TestLoadFSRepeated(t *testing.T) {
	fsys := fstest.MapFS{}
	for _, n := range []string{"a", "b", "c", "d", "e", "f"} {
		fsys["sh/"+n+".wgsl"] = &fstest.MapFile{Data: []byte(n)}
	}
	for range 32 {
		l := NewLibrary()
		require.NoError(t, l.LoadFS(fsys, "sh", 3))
		require.Len(t, l.Keys(), 12)
		s, ok := l.Get("f", ShaderTypeFragment)
		require.True(t, ok)
		assert.Equal(t, "f", string(s.Code()))
	}
}

func TestLoadFSErrors(t *testing.T) {
	l := NewLibrary()
	assert.Error(t, l.LoadFS(fstest.MapFS{}, "missing", 1))
	assert.Error(t, l.LoadFS(fstest.MapFS{"d/a.txt": {}}, "d", 1))
}

func TestDefault(t *testing.T) {
	l, err := Default()
	require.NoError(t, err)
	for _, name := range []string{"opaque", "line", "present", "normal", "depth"} {
		for _, st := range []ShaderType{ShaderTypeVertex, ShaderTypeFragment} {
			s, ok := l.Get(name, st)
			require.True(t, ok, "%s.%s", name, st)
			assert.NotEmpty(t, s.Code())
		}
	}
	assert.Equal(t, 10, l.Len())
}

type entry struct {
	model uint32
	name  string
}

// spirvModule assembles a SPIR-V header followed by one OpEntryPoint per entry.
func spirvModule(entries ...entry) []byte {
	words := []uint32{spirvMagic, 0x00010300, 0, 16, 0}
	for _, e := range entries {
		name := append([]byte(e.name), 0)
		for len(name)%4 != 0 {
			name = append(name, 0)
		}
		count := uint32(3 + len(name)/4)
		words = append(words, count<<16|opEntryPoint, e.model, 1)
		for i := 0; i < len(name); i += 4 {
			words = append(words, binary.LittleEndian.Uint32(name[i:]))
		}
	}
	out := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

func TestEntryPoints(t *testing.T) {
	eps, err := EntryPoints(spirvModule(entry{execModelVertex, "vs_main"}, entry{execModelFragment, "fs_main"}, entry{5, "cs_main"}))
	require.NoError(t, err)
	assert.Equal(t, map[ShaderType]string{ShaderTypeVertex: "vs_main", ShaderTypeFragment: "fs_main"}, eps)

	eps, err = EntryPoints(spirvModule(entry{execModelFragment, "main"}))
	require.NoError(t, err)
	assert.Equal(t, "main", eps[ShaderTypeFragment])

	_, err = EntryPoints([]byte("fn vs_main() {}  "))
	assert.ErrorIs(t, err, ErrNotSPIRV)

	truncated := spirvModule(entry{execModelVertex, "vs_main"})
	_, err = EntryPoints(truncated[:len(truncated)-4])
	assert.Error(t, err)
}

func TestLoadDirSPIRVEntryPoints(t *testing.T) {
	dir := t.TempDir()
	module := spirvModule(entry{execModelVertex, "vs_main"}, entry{execModelFragment, "fs_main"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "opaque.vert.spv"), module, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "opaque.frag.spv"), module, 0o644))

	l := NewLibrary()
	require.NoError(t, l.LoadDir(dir, 2))
	vs, ok := l.Get("opaque", ShaderTypeVertex)
	require.True(t, ok)
	assert.Equal(t, "vs_main", vs.EntryPoint())
	fs, ok := l.Get("opaque", ShaderTypeFragment)
	require.True(t, ok)
	assert.Equal(t, "fs_main", fs.EntryPoint())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.frag.spv"), []byte("nope"), 0o644))
	assert.ErrorIs(t, NewLibrary().LoadDir(dir, 1), ErrNotSPIRV)
}
