package compute

import (
	"fmt"

	"github.com/jaxs-ribs/arena-sub001/internal/logging"
)

// Backend executes catalog kernels over views. Dispatch blocks until the
// outputs are ready; outputs are freshly allocated and never alias an input.
type Backend interface {
	Name() string
	Available() bool
	Dispatch(k Kernel, bindings []View, workgroups [3]uint32) ([][]byte, error)
	Close()
}

// Partial is implemented by backends that only carry part of the catalog.
type Partial interface {
	Supports(k Kernel) bool
}

// Supports reports whether b implements k. Backends without a Partial
// implementation carry the whole catalog.
func Supports(b Backend, k Kernel) bool {
	if p, ok := b.(Partial); ok {
		return p.Supports(k)
	}
	return k >= 0 && k < kernelCount
}

// Names lists the selectable backend names.
func Names() []string {
	return []string{"auto", "cpu", "wgpu"}
}

// New returns the named backend. "auto" prefers the GPU and falls back to
// the CPU reference.
func New(name string, log logging.Logger) (Backend, error) {
	log = logging.OrNop(log)
	switch name {
	case "", "auto":
		return AutoSelect(log), nil
	case "cpu":
		return NewCPUBackend(), nil
	case "wgpu", "gpu":
		b, err := NewWGPUBackend(log)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrBackendUnavailable, name)
	}
}

func AutoSelect(log logging.Logger) Backend {
	log = logging.OrNop(log)
	gpu, err := NewWGPUBackend(log)
	if err == nil && gpu.Available() {
		return gpu
	}
	log.Debugf("gpu backend unavailable, using cpu: %v", err)
	return NewCPUBackend()
}

// Workgroups sizes a one-dimensional dispatch of n invocations.
func Workgroups(n int) [3]uint32 {
	return [3]uint32{uint32((n + workgroupSize - 1) / workgroupSize), 1, 1}
}

const workgroupSize = 64
