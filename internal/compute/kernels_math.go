package compute

import (
	"math"
)

func cpuBinary(c *CPUBackend, k Kernel, b []View) []byte {
	x, y := b[0].Float32s(), b[1].Float32s()
	out := make([]float32, len(x))
	var op func(p, q float32) float32
	switch k {
	case KernelAdd:
		op = func(p, q float32) float32 { return p + q }
	case KernelSub:
		op = func(p, q float32) float32 { return p - q }
	case KernelMul:
		op = func(p, q float32) float32 { return p * q }
	case KernelDiv:
		op = func(p, q float32) float32 { return p / q }
	case KernelMax:
		op = func(p, q float32) float32 { return max(p, q) }
	case KernelMin:
		op = func(p, q float32) float32 { return min(p, q) }
	}
	c.each(len(out), func(i int) { out[i] = op(x[i], y[i]) })
	return Float32Bytes(out)
}

func cpuUnary(c *CPUBackend, k Kernel, b []View) []byte {
	x := b[0].Float32s()
	out := make([]float32, len(x))
	var op func(p float32) float32
	switch k {
	case KernelNeg:
		op = func(p float32) float32 { return -p }
	case KernelAbs:
		op = func(p float32) float32 { return float32(math.Abs(float64(p))) }
	case KernelExp:
		op = func(p float32) float32 { return float32(math.Exp(float64(p))) }
	case KernelLog:
		op = func(p float32) float32 { return float32(math.Log(float64(p))) }
	case KernelSqrt:
		op = func(p float32) float32 { return float32(math.Sqrt(float64(p))) }
	case KernelTanh:
		op = func(p float32) float32 { return float32(math.Tanh(float64(p))) }
	case KernelRelu:
		op = func(p float32) float32 { return max(p, 0) }
	case KernelSigmoid:
		op = func(p float32) float32 { return float32(1 / (1 + math.Exp(-float64(p)))) }
	case KernelScale:
		s := b[2].Float32s()[0]
		op = func(p float32) float32 { return p * s }
	}
	c.each(len(out), func(i int) { out[i] = op(x[i]) })
	return Float32Bytes(out)
}

// cpuReduce folds the last axis. Each row is summed left to right so the
// result does not depend on chunking.
func cpuReduce(c *CPUBackend, k Kernel, b []View) []byte {
	x := b[0].Float32s()
	cols := b[0].Cols()
	rows := len(x) / cols
	out := make([]float32, rows)
	c.each(rows, func(r int) {
		row := x[r*cols : (r+1)*cols]
		acc := row[0]
		for _, v := range row[1:] {
			if k == KernelReduceMax {
				acc = max(acc, v)
			} else {
				acc += v
			}
		}
		if k == KernelReduceMean {
			acc /= float32(cols)
		}
		out[r] = acc
	})
	return Float32Bytes(out)
}

func cpuMatMul(c *CPUBackend, _ Kernel, b []View) []byte {
	a, m := b[0].Float32s(), b[1].Float32s()
	rows, inner, cols := b[0].shape[0], b[0].shape[1], b[1].shape[1]
	out := make([]float32, rows*cols)
	c.each(rows, func(i int) {
		for j := 0; j < cols; j++ {
			var acc float32
			for p := 0; p < inner; p++ {
				acc += a[i*inner+p] * m[p*cols+j]
			}
			out[i*cols+j] = acc
		}
	})
	return Float32Bytes(out)
}

// pcgHash is the PCG output permutation used as a stateless counter RNG.
func pcgHash(v uint32) uint32 {
	state := v*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return (word >> 22) ^ word
}

// unitFloat maps a hash to [0, 1) using its top 24 bits.
func unitFloat(h uint32) float32 {
	return float32(h>>8) / 16777216
}

func cpuRandom(c *CPUBackend, k Kernel, b []View) []byte {
	cfg := b[1].Float32s()
	seed := pcgHash(math.Float32bits(cfg[0]))
	p, q := cfg[1], cfg[2]
	out := make([]float32, b[0].Len())
	c.each(len(out), func(i int) {
		h := pcgHash(uint32(i) ^ seed)
		if k == KernelRandomUniform {
			out[i] = p + unitFloat(h)*(q-p)
			return
		}
		u1 := 1 - unitFloat(h)
		u2 := unitFloat(pcgHash(h))
		z := math.Sqrt(-2*math.Log(float64(u1))) * math.Cos(2*math.Pi*float64(u2))
		out[i] = p + q*float32(z)
	})
	return Float32Bytes(out)
}

// cpuExpand replicates the template records count times, shifting the
// first three fields of every record by instance*spacing.
func cpuExpand(c *CPUBackend, _ Kernel, b []View) []byte {
	tpl := b[0].Float32s()
	cfg := b[2].Float32s()
	count := int(cfg[0])
	stride := b[0].Cols()
	out := make([]float32, count*len(tpl))
	c.each(count, func(inst int) {
		dst := out[inst*len(tpl) : (inst+1)*len(tpl)]
		copy(dst, tpl)
		f := float32(inst)
		for r := 0; r < len(tpl); r += stride {
			dst[r] += f * cfg[1]
			dst[r+1] += f * cfg[2]
			dst[r+2] += f * cfg[3]
		}
	})
	return Float32Bytes(out)
}
