// Command imdemo draws a test pattern with imdraw on a headless hal device
// and writes the result as PNG.
//
//	imdemo -config imdemo.yaml -output demo.png
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/allbackends"

	"github.com/gogpu/imdraw"
	"github.com/gogpu/imdraw/backend"
	"github.com/gogpu/imdraw/backend/cmdlist"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file")
		api        = flag.String("backend", "", "imdraw backend (vulkan or d3d12); overrides the config")
		device     = flag.String("device", "software", "hal device: software, vulkan, dx12 or gl")
		width      = flag.Int("width", 0, "image width; overrides the config viewport")
		height     = flag.Int("height", 0, "image height; overrides the config viewport")
		output     = flag.String("output", "demo.png", "output file")
		verbose    = flag.Bool("v", false, "log debug output")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	imdraw.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *api != "" {
		cfg.Backend = *api
	}
	if cfg.Backend == "" {
		cfg.Backend = "vulkan"
	}
	if *width > 0 {
		cfg.Viewport.Width = float32(*width)
	}
	if *height > 0 {
		cfg.Viewport.Height = float32(*height)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	img, err := run(cfg, *device)
	if err != nil {
		log.Fatalf("Failed to render: %v", err)
	}
	if err := savePNG(*output, img); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Demo saved to %s (%dx%d)\n", *output, img.Rect.Dx(), img.Rect.Dy())
}

func loadConfig(path string) (imdraw.Config, error) {
	if path == "" {
		return imdraw.DefaultConfig(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return imdraw.Config{}, err
	}
	defer f.Close()
	return imdraw.LoadConfig(f)
}

// halVariant maps a -device name to a registered hal backend.
func halVariant(name string) (gputypes.Backend, error) {
	switch strings.ToLower(name) {
	case "software", "":
		return gputypes.BackendEmpty, nil
	case "vulkan", "vk":
		return gputypes.BackendVulkan, nil
	case "dx12", "d3d12":
		return gputypes.BackendDX12, nil
	case "gl", "gles":
		return gputypes.BackendGL, nil
	default:
		return 0, fmt.Errorf("unknown device %q", name)
	}
}

// headlessDevice holds an opened hal device and the objects to destroy with it.
type headlessDevice struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	name     string
}

func openDevice(name string) (*headlessDevice, error) {
	variant, err := halVariant(name)
	if err != nil {
		return nil, err
	}
	b, ok := hal.GetBackend(variant)
	if !ok {
		return nil, fmt.Errorf("hal backend %v not available", variant)
	}
	instance, err := b.CreateInstance(&hal.InstanceDescriptor{})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("no adapters found")
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}
	return &headlessDevice{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		name:     selected.Info.Name,
	}, nil
}

func (d *headlessDevice) Destroy() {
	d.device.Destroy()
	d.instance.Destroy()
}

func run(cfg imdraw.Config, deviceName string) (*image.RGBA, error) {
	api, err := cfg.API()
	if err != nil {
		return nil, err
	}
	if api != backend.APIVulkan && api != backend.APID3D12 {
		return nil, fmt.Errorf("backend %s needs a native window; imdemo drives vulkan or d3d12 headless", api)
	}

	dev, err := openDevice(deviceName)
	if err != nil {
		return nil, err
	}
	defer dev.Destroy()
	imdraw.Logger().Info("imdemo: device opened", "device", dev.name)

	r := imdraw.New(imdraw.WithConfig(cfg))
	handle := cmdlist.Handle{
		Device: dev.device,
		Queue:  dev.queue,
		Width:  uint32(cfg.Viewport.Width),
		Height: uint32(cfg.Viewport.Height),
	}
	if err := r.Init(api, handle); err != nil {
		return nil, err
	}
	defer r.Shutdown()

	if err := drawScene(r, int(cfg.Viewport.Width), int(cfg.Viewport.Height)); err != nil {
		return nil, err
	}

	bb, err := r.GetBackBuffer(0)
	if err != nil {
		return nil, err
	}
	return r.ReadPixels(bb)
}

func drawScene(r *imdraw.Renderer, w, h int) error {
	r.SetProjectionMode(backend.ProjectionOrthographic)
	if err := r.SetRenderState(backend.StateBlendEnable, 1); err != nil {
		return err
	}

	drawGradientBackground(r, float32(w), float32(h))
	drawShapes(r)

	checker, err := r.CreateTextureFromImage(checkerboard(64, 8))
	if err != nil {
		return err
	}
	defer checker.Release()

	r.SetTexture(checker, nil)
	r.SetColor4f(1, 1, 1, 1)
	r.DrawRect(float32(w)-220, 40, float32(w)-40, 220)
	r.SetTexture(nil, nil)

	drawLines(r, float32(w), float32(h))
	return r.FrameErr()
}

func drawGradientBackground(r *imdraw.Renderer, w, h float32) {
	r.Begin(backend.TopologyTriangle)
	r.SetColor3f(0.1, 0.2, 0.4)
	r.SetVertex2f(0, 0)
	r.SetVertex2f(w, 0)
	r.SetColor3f(0.5, 0.5, 0.6)
	r.SetVertex2f(w, h)
	r.SetVertex2f(0, h)
	r.SetIndices([]uint16{0, 1, 2, 2, 3, 0}, 6)
	r.End()
}

func drawShapes(r *imdraw.Renderer) {
	colors := [][4]float32{
		{1, 0.3, 0.3, 0.8},
		{0.3, 1, 0.3, 0.8},
		{0.3, 0.3, 1, 0.8},
	}
	for i, c := range colors {
		x := float32(60 + i*50)
		y := float32(80 + i*40)
		r.SetColor4f(c[0], c[1], c[2], c[3])
		r.DrawRect(x, y, x+120, y+90)
	}
}

func drawLines(r *imdraw.Renderer, w, h float32) {
	r.Begin(backend.TopologyLine)
	r.SetColor3f(1, 1, 0)
	for x := float32(0); x <= w; x += 40 {
		r.SetVertex2f(x, h-40)
		r.SetVertex2f(x+20, h-10)
	}
	r.End()
}

func checkerboard(size, cells int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	cell := size / cells
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.NRGBA{R: 240, G: 240, B: 240, A: 255}
			if (x/cell+y/cell)%2 == 1 {
				c = color.NRGBA{R: 30, G: 30, B: 30, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
