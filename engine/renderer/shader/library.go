package shader

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
)

//go:embed assets/*.wgsl
var assets embed.FS

// Library is a set of shaders keyed by name and stage.
type Library struct {
	mu      sync.RWMutex
	shaders map[string]Shader
}

// NewLibrary creates an empty Library.
func NewLibrary() *Library {
	return &Library{shaders: make(map[string]Shader)}
}

// Add stores s, replacing any shader with the same key.
func (l *Library) Add(s Shader) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.shaders[s.Key()] = s
}

// Get returns the shader for name and stage.
func (l *Library) Get(name string, t ShaderType) (Shader, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.shaders[Key(name, t)]
	return s, ok
}

// Keys returns the sorted keys of every shader.
func (l *Library) Keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.shaders))
	for k := range l.shaders {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of shaders.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.shaders)
}

// Default returns a library holding the bundled WGSL programs: opaque, line, present, normal and depth.
func Default() (*Library, error) {
	l := NewLibrary()
	if err := l.LoadFS(assets, "assets", 1); err != nil {
		return nil, err
	}
	return l, nil
}

// candidate is one file the loader recognised.
type candidate struct {
	file   string
	name   string
	stages []ShaderType
	format gpu.ShaderFormat
}

// classify recognises "<name>.wgsl" (both stages) and "<name>.<stage>.spv" or "<name>.<stage>.wgsl".
func classify(file string) (candidate, bool) {
	base := path.Base(file)
	var format gpu.ShaderFormat
	var stem string
	switch {
	case strings.HasSuffix(base, ".spv"):
		format, stem = gpu.ShaderFormatSPIRV, strings.TrimSuffix(base, ".spv")
	case strings.HasSuffix(base, ".wgsl"):
		format, stem = gpu.ShaderFormatWGSL, strings.TrimSuffix(base, ".wgsl")
	default:
		return candidate{}, false
	}
	if i := strings.LastIndexByte(stem, '.'); i > 0 {
		if t, ok := parseShaderType(stem[i+1:]); ok {
			return candidate{file: file, name: stem[:i], stages: []ShaderType{t}, format: format}, true
		}
	}
	if format == gpu.ShaderFormatSPIRV {
		// a SPIR-V binary without a stage suffix is ambiguous
		return candidate{}, false
	}
	return candidate{file: file, name: stem, stages: []ShaderType{ShaderTypeVertex, ShaderTypeFragment}, format: format}, true
}

// LoadFS reads every recognised shader file in dir of fsys using a pool of workers.
// SPIR-V binaries win over WGSL sources for the same name and stage.
//
// Parameters:
//   - fsys: the file system to read from
//   - dir: the directory inside fsys
//   - workers: the maximum number of concurrent readers; values below 1 mean 1
//
// Returns:
//   - error: the first read error, if any
func (l *Library) LoadFS(fsys fs.FS, dir string, workers int) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read shader dir %q: %w", dir, err)
	}
	var cands []candidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if c, ok := classify(path.Join(dir, e.Name())); ok {
			cands = append(cands, c)
		}
	}
	if len(cands) == 0 {
		return fmt.Errorf("no shaders in %q", dir)
	}

	pool := worker.NewDynamicWorkerPool(max(workers, 1), len(cands), time.Second)
	defer pool.Stop()
	codes := make([][]byte, len(cands))
	errs := make([]error, len(cands))
	var wg sync.WaitGroup
	for i, c := range cands {
		wg.Add(1)
		id, cand := i, c
		pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				codes[id], errs[id] = fs.ReadFile(fsys, cand.file)
				return nil, errs[id]
			},
		})
	}
	wg.Wait()

	for i, c := range cands {
		if errs[i] != nil {
			return fmt.Errorf("read shader %q: %w", c.file, errs[i])
		}
		var entries map[ShaderType]string
		if c.format == gpu.ShaderFormatSPIRV {
			if entries, err = EntryPoints(codes[i]); err != nil {
				return fmt.Errorf("shader %q: %w", c.file, err)
			}
		}
		for _, t := range c.stages {
			if prev, ok := l.Get(c.name, t); ok && prev.Format() == gpu.ShaderFormatSPIRV && c.format != gpu.ShaderFormatSPIRV {
				continue
			}
			l.Add(NewShader(c.name, t, c.format, entries[t], codes[i]))
		}
	}
	return nil
}

// LoadDir is LoadFS over the host directory dir.
func (l *Library) LoadDir(dir string, workers int) error {
	return l.LoadFS(os.DirFS(dir), ".", workers)
}
