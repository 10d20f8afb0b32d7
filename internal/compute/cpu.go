package compute

// CPUBackend is the reference implementation of the catalog. It is
// deterministic: identical views give byte-identical outputs. Kernels whose
// elements are independent are chunked over goroutines; reductions and the
// joint solver run in order.
type CPUBackend struct {
	minChunk int
}

func NewCPUBackend() *CPUBackend {
	return &CPUBackend{minChunk: 1024}
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Close()          {}

// Dispatch validates the bindings and runs the kernel. Workgroup counts are
// ignored on the CPU.
func (c *CPUBackend) Dispatch(k Kernel, bindings []View, _ [3]uint32) ([][]byte, error) {
	spec, err := validate(k, bindings)
	if err != nil {
		return nil, err
	}
	return [][]byte{spec.cpu(c, k, bindings)}, nil
}

// each runs fn over [0, n), in parallel when n is large enough.
func (c *CPUBackend) each(n int, fn func(i int)) {
	ParallelFor(n, c.minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}
