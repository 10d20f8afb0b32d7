// Package analysis extracts frequency content from recorded trajectories.
package analysis

import (
	"math"
	"math/bits"
	"math/cmplx"
)

// FFT is a radix-2 transform. Input shorter than a power of two is
// zero-padded.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n > 1 && n&(n-1) != 0 {
		n = 1 << bits.Len(uint(n))
	}
	in := make([]complex128, n)
	for i, v := range data {
		in[i] = complex(v, 0)
	}
	return fft(in)
}

func fft(data []complex128) []complex128 {
	n := len(data)
	if n <= 1 {
		return data
	}

	even := make([]complex128, n/2)
	odd := make([]complex128, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}
	feven := fft(even)
	fodd := fft(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}
	return result
}

// PowerSpectrum returns the magnitude of each non-negative frequency bin.
func PowerSpectrum(data []float64) []float64 {
	f := FFT(data)
	ps := make([]float64, len(f)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(f[i])
	}
	return ps
}

// DominantFrequency returns the strongest non-zero frequency, in Hz, of a
// signal sampled every dt seconds. The mean is removed first; a constant
// or too-short signal yields 0.
func DominantFrequency(data []float64, dt float64) float64 {
	if len(data) < 4 || dt <= 0 {
		return 0
	}
	var mean float64
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))
	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	ps := PowerSpectrum(centered)
	peak, bin := 0.0, 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > peak {
			peak, bin = ps[i], i
		}
	}
	if peak < 1e-12 {
		return 0
	}
	n := 2 * len(ps)
	return float64(bin) / (float64(n) * dt)
}
