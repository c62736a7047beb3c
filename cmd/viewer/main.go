// viewer renders a small demo scene with the standard dispatcher, in a window or headless.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine"
	"github.com/Carmen-Shannon/oxy-core/engine/arena"
	"github.com/Carmen-Shannon/oxy-core/engine/camera"
	"github.com/Carmen-Shannon/oxy-core/engine/frame"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu/headless"
	"github.com/Carmen-Shannon/oxy-core/engine/logging"
	"github.com/Carmen-Shannon/oxy-core/engine/model"
	"github.com/Carmen-Shannon/oxy-core/engine/profiler"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-core/engine/window"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	moveSpeed = 2.5 // units per second
	fov       = math.Pi / 4
	near      = 0.1
	far       = 100
)

var (
	width       int
	height      int
	backendName string
	maxFrames   int
	metricsAddr string
	postName    string
	shaderDir   string
	verbose     bool
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.IntVar(&width, "width", 1280, "Initial surface width")
	flag.IntVar(&height, "height", 720, "Initial surface height")
	flag.StringVar(&backendName, "backend", "wgpu", "Device backend: wgpu or headless")
	flag.IntVar(&maxFrames, "frames", 0, "Stop after this many frames, 0 runs until the window closes")
	flag.StringVar(&metricsAddr, "metrics", "", "Serve Prometheus metrics on this address, e.g. :9100")
	flag.StringVar(&postName, "post", "present", "Initial post-process: present, normal or depth")
	flag.StringVar(&shaderDir, "shaders", "", "Load shaders from this directory instead of the embedded set")
	flag.BoolVar(&verbose, "v", false, "Verbose development logging")
}

func main() {
	flag.Parse()

	logger, err := logging.New(verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logging.SetRoot(logger)

	if err := run(logger); err != nil {
		logger.Fatal("viewer stopped", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	backend, err := renderer.ParseBackendType(backendName)
	if err != nil {
		return err
	}
	post, err := pass.ParsePostKind(postName)
	if err != nil {
		return err
	}
	if backend == renderer.BackendTypeHeadless && maxFrames == 0 {
		maxFrames = 120
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := profiler.NewMetrics(reg)
	if metricsAddr != "" {
		srv := serveMetrics(logger, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	var (
		win     window.Window
		surface frame.Surface
		dev     gpu.Device
	)
	switch backend {
	case renderer.BackendTypeHeadless:
		surface = headless.NewSurface(width, height)
		dev, err = renderer.NewDevice(backend, renderer.WithSize(width, height))
	default:
		win = window.NewWindow(
			window.WithTitle("oxy viewer"),
			window.WithSize(width, height),
		)
		defer win.Close()
		surface = win
		dev, err = renderer.NewDevice(backend,
			renderer.WithSurfaceDescriptor(win.SurfaceDescriptor()),
			renderer.WithSize(width, height),
		)
	}
	if err != nil {
		return fmt.Errorf("create device: %w", err)
	}
	defer dev.Release()

	m, cam := demoScene(width, height)
	defer m.ReleaseGPU()

	options := []engine.EngineBuilderOption{
		engine.WithDevice(dev),
		engine.WithSurface(surface),
		engine.WithModel(m),
		engine.WithMetrics(metrics),
		engine.WithLogger(logger),
		engine.WithProfiling(verbose),
		engine.WithMaxFrames(maxFrames),
	}
	if win != nil {
		options = append(options, engine.WithWindow(win))
	}

	if shaderDir != "" {
		lib := shader.NewLibrary()
		if err := lib.LoadDir(shaderDir, 4); err != nil {
			return fmt.Errorf("load shaders from %s: %w", shaderDir, err)
		}
		options = append(options, engine.WithShaderLibrary(lib))
	}

	c := &controller{model: m, camera: cam, logger: logger, post: post, surface: surface}
	options = append(options, engine.WithUpdateCallback(c.update))

	eng := engine.NewEngine(options...)
	c.engine = eng
	if win != nil {
		win.SetKeyDownCallback(c.keyDown)
		win.SetKeyUpCallback(c.keyUp)
	}

	err = eng.Run(ctx)
	logger.Info("viewer finished", zap.Int("frames", eng.Frames()))
	return err
}

// serveMetrics exposes reg on /metrics until the returned server is shut down.
func serveMetrics(logger *zap.Logger, reg *prometheus.Registry) *http.Server {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	srv := &http.Server{Addr: metricsAddr, Handler: router}
	go func() {
		logger.Info("serving metrics", zap.String("addr", metricsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
	return srv
}

// demoScene builds a camera, a checkered quad and a set of axis lines.
func demoScene(w, h int) (model.Model, arena.Handle[model.Node]) {
	m := model.NewModel()
	aspect := float32(w) / float32(max(h, 1))

	camNode := model.NewNode("camera")
	camNode.Trs = model.TranslationTrs(0, 0, 3.2)
	camNode.Camera = m.PushCamera(camera.InfinitePerspective(aspect, fov, near))
	cam := m.PushNode(camNode)
	m.PushToScene(cam)

	tex := m.PushTexture(model.Texture{
		Image:   m.PushImage(model.Image{Staging: checkerboard(64, 8)}),
		Sampler: m.PushSampler(model.Sampler{Staging: common.DefaultSampler()}),
	})
	quadMat := m.PushMaterial(model.Material{Name: "checker", BaseColor: mgl32.Vec4{1, 1, 1, 1}, Texture: tex})
	quad := model.NewNode("quad")
	quad.Mesh = m.PushMesh(model.Mesh{Name: "quad", Primitives: []arena.Handle[model.Primitive]{m.PushPrimitive(model.QuadPrimitive(quadMat))}})
	m.PushToScene(m.PushNode(quad))

	lineMat := m.PushMaterial(model.Material{Name: "axes", BaseColor: mgl32.Vec4{1, 1, 1, 1}, Pipeline: model.PipelineLine})
	axes := model.NewNode("axes")
	axes.Mesh = m.PushMesh(model.Mesh{Name: "axes", Primitives: []arena.Handle[model.Primitive]{m.PushPrimitive(model.AxisLinesPrimitive(lineMat, 1.5))}})
	m.PushToScene(m.PushNode(axes))

	return m, cam
}

// checkerboard returns a size x size RGBA image of cells x cells alternating squares.
func checkerboard(size, cells int) common.TextureStagingData {
	px := make([]byte, size*size*4)
	cell := size / cells
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := byte(60)
			if (x/cell+y/cell)%2 == 0 {
				v = 220
			}
			i := (y*size + x) * 4
			px[i], px[i+1], px[i+2], px[i+3] = v, v, v, 255
		}
	}
	return common.TextureStagingData{Pixels: px, Width: uint32(size), Height: uint32(size)}
}

// controller turns key state into camera motion and dispatcher settings. Key callbacks fire from
// PollEvents, on the same goroutine as the update callback.
type controller struct {
	engine  engine.Engine
	model   model.Model
	camera  arena.Handle[model.Node]
	surface frame.Surface
	logger  *zap.Logger

	post    pass.PostKind
	applied *pass.Dispatcher
	held    map[uint32]bool
}

func (c *controller) keyDown(key uint32) {
	if c.held == nil {
		c.held = make(map[uint32]bool)
	}
	c.held[key] = true

	switch key {
	case common.KeyEsc:
		c.engine.Quit()
	case common.Key1:
		c.setPost(pass.PostPresent)
	case common.Key2:
		c.setPost(pass.PostNormal)
	case common.Key3:
		c.setPost(pass.PostDepth)
	case common.KeyC:
		c.toggleFarPlane()
	case common.KeyT:
		var buf bytes.Buffer
		if err := c.model.Dump(&buf); err != nil {
			c.logger.Warn("dump scene", zap.Error(err))
			return
		}
		c.logger.Info("scene tree\n" + buf.String())
	}
}

func (c *controller) keyUp(key uint32) {
	delete(c.held, key)
}

func (c *controller) setPost(k pass.PostKind) {
	c.post = k
	c.applied = nil
}

func (c *controller) toggleFarPlane() {
	node, ok := c.model.Nodes().Get(c.camera)
	if !ok {
		return
	}
	cam, ok := c.model.Cameras().GetMut(node.Camera)
	if !ok {
		return
	}
	if cam.Kind == camera.KindInfinitePerspective {
		*cam = camera.FinitePerspective(cam.Aspect, fov, near, far)
	} else {
		*cam = camera.InfinitePerspective(cam.Aspect, fov, near)
	}
	c.logger.Info("camera projection", zap.Stringer("kind", cam.Kind))
}

func (c *controller) update(_ *frame.Frame, dt float32) {
	// the engine may rebuild its dispatcher, which resets the selection
	if d := c.engine.Dispatcher(); d != nil && d != c.applied {
		if err := d.SetPostKind(c.post); err != nil {
			c.logger.Warn("post-process unavailable", zap.Stringer("kind", c.post), zap.Error(err))
		}
		c.applied = d
	}

	node, ok := c.model.Nodes().GetMut(c.camera)
	if !ok {
		return
	}
	if w, h := c.surface.Size(); w > 0 && h > 0 {
		if cam, ok := c.model.Cameras().GetMut(node.Camera); ok {
			*cam = cam.WithAspect(float32(w) / float32(h))
		}
	}

	var dir mgl32.Vec3
	for key, axis := range map[uint32]mgl32.Vec3{
		common.KeyW: {0, 0, -1},
		common.KeyS: {0, 0, 1},
		common.KeyA: {-1, 0, 0},
		common.KeyD: {1, 0, 0},
		common.KeyQ: {0, -1, 0},
		common.KeyE: {0, 1, 0},
	} {
		if c.held[key] {
			dir = dir.Add(axis)
		}
	}
	if dir.Len() > 0 {
		node.Trs.Translate(node.Trs.Rotation.Rotate(dir.Normalize()).Mul(moveSpeed * dt))
	}
}
