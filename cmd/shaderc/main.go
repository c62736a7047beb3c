// shaderc compiles a directory of WGSL programs to SPIR-V modules the viewer can load with -shaders.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-core/engine/logging"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"go.uber.org/zap"
)

var (
	inDir   string
	outDir  string
	workers int
	verbose bool
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -in <dir> -out <dir>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.StringVar(&inDir, "in", "", "Directory of <name>.wgsl sources")
	flag.StringVar(&outDir, "out", "", "Directory receiving <name>.vert.spv and <name>.frag.spv")
	flag.IntVar(&workers, "workers", runtime.NumCPU(), "Concurrent compilations")
	flag.BoolVar(&verbose, "v", false, "Verbose development logging")
}

func main() {
	flag.Parse()
	if inDir == "" || outDir == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := logging.New(verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	start := time.Now()
	names, err := shader.CompileDir(inDir, outDir, workers)
	if err != nil {
		logger.Fatal("compile shaders", zap.String("in", inDir), zap.Error(err))
	}
	logger.Info("compiled shaders",
		zap.Strings("programs", names),
		zap.String("out", outDir),
		zap.Duration("took", time.Since(start)),
	)
}
