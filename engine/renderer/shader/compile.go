package shader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/gogpu/naga"
)

// CompileWGSL translates a WGSL program to a SPIR-V module. The module keeps the WGSL entry point names.
func CompileWGSL(src []byte) ([]byte, error) {
	code, err := naga.Compile(string(src))
	if err != nil {
		return nil, err
	}
	if _, err := EntryPoints(code); err != nil {
		return nil, fmt.Errorf("compiled module: %w", err)
	}
	return code, nil
}

// CompileDir compiles every "<name>.wgsl" in in and writes "<name>.vert.spv" and "<name>.frag.spv" to out,
// which LoadDir reads back as SPIR-V programs.
//
// Parameters:
//   - in: the directory holding WGSL sources
//   - out: the destination directory, created if missing
//   - workers: the maximum number of concurrent compilations; values below 1 mean 1
//
// Returns:
//   - []string: the names of the compiled programs, in directory order
//   - error: the first compile or write error, if any
func CompileDir(in, out string, workers int) ([]string, error) {
	entries, err := os.ReadDir(in)
	if err != nil {
		return nil, fmt.Errorf("read shader dir %q: %w", in, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".wgsl") && strings.Count(e.Name(), ".") == 1 {
			names = append(names, strings.TrimSuffix(e.Name(), ".wgsl"))
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no WGSL programs in %q", in)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return nil, err
	}

	pool := worker.NewDynamicWorkerPool(max(workers, 1), len(names), time.Second)
	defer pool.Stop()
	errs := make([]error, len(names))
	var wg sync.WaitGroup
	for i, n := range names {
		wg.Add(1)
		id, name := i, n
		pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				errs[id] = compileOne(in, out, name)
				return nil, errs[id]
			},
		})
	}
	wg.Wait()

	for i, n := range names {
		if errs[i] != nil {
			return nil, fmt.Errorf("compile %q: %w", n, errs[i])
		}
	}
	return names, nil
}

func compileOne(in, out, name string) error {
	src, err := os.ReadFile(filepath.Join(in, name+".wgsl"))
	if err != nil {
		return err
	}
	code, err := CompileWGSL(src)
	if err != nil {
		return err
	}
	for _, t := range []ShaderType{ShaderTypeVertex, ShaderTypeFragment} {
		if err := os.WriteFile(filepath.Join(out, name+"."+t.String()+".spv"), code, 0o644); err != nil {
			return err
		}
	}
	return nil
}
