//go:build !wgpu

package compute

import (
	"fmt"

	"github.com/jaxs-ribs/arena-sub001/internal/logging"
)

// WGPUBackend is unavailable in builds without the wgpu tag.
type WGPUBackend struct{}

func NewWGPUBackend(_ logging.Logger) (*WGPUBackend, error) {
	return nil, fmt.Errorf("%w: built without the wgpu tag", ErrBackendUnavailable)
}

func (g *WGPUBackend) Name() string           { return "wgpu (not available)" }
func (g *WGPUBackend) Available() bool        { return false }
func (g *WGPUBackend) Supports(_ Kernel) bool { return false }
func (g *WGPUBackend) Close()                 {}

func (g *WGPUBackend) Dispatch(k Kernel, _ []View, _ [3]uint32) ([][]byte, error) {
	return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, k)
}
