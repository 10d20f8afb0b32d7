package sim

import "sync"

// bufferPool recycles the f32 scratch used to pack body and joint records
// for kernel dispatch.
type bufferPool struct {
	pool sync.Pool
}

// get returns a zeroed slice of length n.
func (p *bufferPool) get(n int) []float32 {
	if v, ok := p.pool.Get().(*[]float32); ok && cap(*v) >= n {
		buf := (*v)[:n]
		clear(buf)
		return buf
	}
	return make([]float32, n)
}

func (p *bufferPool) put(buf []float32) {
	if cap(buf) == 0 {
		return
	}
	p.pool.Put(&buf)
}
