//go:build wgpu

package compute

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/jaxs-ribs/arena-sub001/internal/logging"
)

//go:embed shaders/*.wgsl
var shaderFS embed.FS

// WGPUBackend runs the elementwise and per-body kernels as WebGPU compute
// shaders. Reductions, matrix products, random fills, instance expansion and
// the joint solver stay on the CPU reference; Supports reports which is
// which. Compiled pipelines are cached per kernel.
type WGPUBackend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	log      logging.Logger

	mu        sync.Mutex
	pipelines map[Kernel]*wgpu.ComputePipeline
}

// shaderSources maps each GPU kernel to its shader file and, for the
// templated elementwise shaders, the expression substituted for EXPR.
var shaderSources = map[Kernel]struct{ file, expr string }{
	KernelAdd:     {"binary.wgsl", "x + y"},
	KernelSub:     {"binary.wgsl", "x - y"},
	KernelMul:     {"binary.wgsl", "x * y"},
	KernelDiv:     {"binary.wgsl", "x / y"},
	KernelMax:     {"binary.wgsl", "max(x, y)"},
	KernelMin:     {"binary.wgsl", "min(x, y)"},
	KernelNeg:     {"unary.wgsl", "-x"},
	KernelAbs:     {"unary.wgsl", "abs(x)"},
	KernelExp:     {"unary.wgsl", "exp(x)"},
	KernelLog:     {"unary.wgsl", "log(x)"},
	KernelSqrt:    {"unary.wgsl", "sqrt(x)"},
	KernelTanh:    {"unary.wgsl", "tanh(x)"},
	KernelRelu:    {"unary.wgsl", "max(x, 0.0)"},
	KernelSigmoid: {"unary.wgsl", "1.0 / (1.0 + exp(-x))"},
	KernelScale:   {"scale.wgsl", ""},

	KernelIntegrateBodies:   {"integrate.wgsl", ""},
	KernelDetectContactsSDF: {"detect.wgsl", ""},
	KernelSolveContactsPBD:  {"solve_contacts.wgsl", ""},
}

// NewWGPUBackend acquires an adapter and device. It blocks until the
// driver answers.
func NewWGPUBackend(log logging.Logger) (*WGPUBackend, error) {
	log = logging.OrNop(log)
	instance := wgpu.CreateInstance(nil)

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: request adapter: %v", ErrBackendUnavailable, err)
	}

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: request device: %v", ErrBackendUnavailable, err)
	}

	info := adapter.GetInfo()
	log.Infof("wgpu adapter %q (%s)", info.Name, info.BackendType.String())

	return &WGPUBackend{
		instance:  instance,
		adapter:   adapter,
		device:    device,
		queue:     device.GetQueue(),
		log:       log,
		pipelines: make(map[Kernel]*wgpu.ComputePipeline),
	}, nil
}

func (g *WGPUBackend) Name() string    { return "wgpu" }
func (g *WGPUBackend) Available() bool { return g != nil && g.device != nil }

func (g *WGPUBackend) Supports(k Kernel) bool {
	_, ok := shaderSources[k]
	return ok
}

func (g *WGPUBackend) pipeline(k Kernel) (*wgpu.ComputePipeline, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if p, ok := g.pipelines[k]; ok {
		return p, nil
	}

	src, ok := shaderSources[k]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrUnsupportedKernel, k, g.Name())
	}
	code, err := shaderFS.ReadFile("shaders/" + src.file)
	if err != nil {
		return nil, fmt.Errorf("compute: load shader %s: %w", src.file, err)
	}
	wgsl := strings.ReplaceAll(string(code), "EXPR", src.expr)
	if strings.Contains(wgsl, "STRIDE") {
		common, err := shaderFS.ReadFile("shaders/body.wgsl")
		if err != nil {
			return nil, fmt.Errorf("compute: load shader body.wgsl: %w", err)
		}
		wgsl = string(common) + "\n" + wgsl
	}

	module, err := g.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          k.String(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: wgsl},
	})
	if err != nil {
		return nil, fmt.Errorf("compute: compile %s: %w", k, err)
	}
	defer module.Release()

	p, err := g.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: k.String(),
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("compute: pipeline %s: %w", k, err)
	}
	g.pipelines[k] = p
	g.log.Debugf("compiled pipeline %s", k)
	return p, nil
}

// Dispatch uploads the bindings, runs the kernel and reads the output back.
// A zero workgroup count is derived from the output size.
func (g *WGPUBackend) Dispatch(k Kernel, bindings []View, workgroups [3]uint32) ([][]byte, error) {
	spec, err := validate(k, bindings)
	if err != nil {
		return nil, err
	}
	size := outputSize(spec, bindings)
	if size == 0 {
		return [][]byte{{}}, nil
	}
	p, err := g.pipeline(k)
	if err != nil {
		return nil, err
	}

	used := bindings[:spec.minBindings]
	buffers := make([]*wgpu.Buffer, 0, len(used)+1)
	sizes := make([]uint64, 0, len(used)+1)
	defer func() {
		for _, b := range buffers {
			b.Release()
		}
	}()

	outIndex := spec.output
	for i, v := range used {
		usage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
		if i == outIndex {
			usage |= wgpu.BufferUsageCopySrc
		}
		contents := v.data
		if len(contents) == 0 {
			contents = make([]byte, 4)
		}
		buf, err := g.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    fmt.Sprintf("%s_%d", k, i),
			Contents: contents,
			Usage:    usage,
		})
		if err != nil {
			return nil, fmt.Errorf("compute: upload binding %d: %w", i, err)
		}
		buffers = append(buffers, buf)
		sizes = append(sizes, uint64(len(contents)))
	}
	if outIndex == appendedOutput {
		buf, err := g.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: k.String() + "_out",
			Size:  uint64(size),
			Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
		})
		if err != nil {
			return nil, fmt.Errorf("compute: allocate output: %w", err)
		}
		outIndex = len(buffers)
		buffers = append(buffers, buf)
		sizes = append(sizes, uint64(size))
	}

	entries := make([]wgpu.BindGroupEntry, len(buffers))
	for i, b := range buffers {
		entries[i] = wgpu.BindGroupEntry{Binding: uint32(i), Buffer: b, Size: sizes[i]}
	}
	layout := p.GetBindGroupLayout(0)
	defer layout.Release()
	bindGroup, err := g.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   k.String(),
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("compute: bind group: %w", err)
	}
	defer bindGroup.Release()

	if workgroups[0] == 0 {
		n := size / 4
		if spec.output == appendedOutput || k == KernelDetectContactsSDF {
			n = bindings[0].Len() / BodyStride
		}
		workgroups = Workgroups(n)
	}
	for i := 1; i < 3; i++ {
		if workgroups[i] == 0 {
			workgroups[i] = 1
		}
	}

	encoder, err := g.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("compute: command encoder: %w", err)
	}
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(p)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(workgroups[0], workgroups[1], workgroups[2])
	pass.End()
	pass.Release()

	staging, err := g.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: k.String() + "_staging",
		Size:  uint64(size),
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("compute: staging buffer: %w", err)
	}
	defer staging.Release()
	encoder.CopyBufferToBuffer(buffers[outIndex], 0, staging, 0, uint64(size))

	commands, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("compute: finish encoder: %w", err)
	}
	g.queue.Submit(commands)
	commands.Release()

	out, err := g.read(staging, size)
	if err != nil {
		return nil, err
	}
	return [][]byte{out}, nil
}

func (g *WGPUBackend) read(staging *wgpu.Buffer, size int) ([]byte, error) {
	done := make(chan error, 1)
	err := staging.MapAsync(wgpu.MapModeRead, 0, uint64(size), func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			done <- fmt.Errorf("compute: map buffer: %v", status)
			return
		}
		done <- nil
	})
	if err != nil {
		return nil, fmt.Errorf("compute: map buffer: %w", err)
	}
	g.device.Poll(true, nil)
	if err := <-done; err != nil {
		return nil, err
	}

	mapped := staging.GetMappedRange(0, uint(size))
	out := make([]byte, len(mapped))
	copy(out, mapped)
	staging.Unmap()
	return out, nil
}

func (g *WGPUBackend) Close() {
	if g == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, p := range g.pipelines {
		p.Release()
	}
	g.pipelines = nil
	if g.device == nil {
		return
	}
	g.queue.Release()
	g.device.Release()
	g.adapter.Release()
	g.instance.Release()
	g.device = nil
}
