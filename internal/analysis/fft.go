package analysis

import (
	"math"
	"math/cmplx"
)

// FFT computes the discrete Fourier transform with an iterative
// radix-2 butterfly. The input length must be a power of two.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n&(n-1) != 0 {
		panic("fft requires power of 2 length")
	}

	result := make([]complex128, n)
	// bit-reversal permutation
	for i, rev := 0, 0; i < n; i++ {
		result[rev] = complex(data[i], 0)
		bit := n >> 1
		for ; rev&bit != 0; bit >>= 1 {
			rev &^= bit
		}
		rev |= bit
	}

	for size := 2; size <= n; size *= 2 {
		step := cmplx.Exp(complex(0, -2*math.Pi/float64(size)))
		for start := 0; start < n; start += size {
			w := complex(1, 0)
			for k := 0; k < size/2; k++ {
				a := result[start+k]
				b := w * result[start+k+size/2]
				result[start+k] = a + b
				result[start+k+size/2] = a - b
				w *= step
			}
		}
	}

	return result
}

// PowerSpectrum returns the magnitudes of the positive-frequency half
// of the FFT.
func PowerSpectrum(data []float64) []float64 {
	fft := FFT(data)
	ps := make([]float64, len(fft)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}
	return ps
}

// Tune estimates the fractional betatron tune from a turn-by-turn
// centroid signal: the mean is removed, the signal is zero-padded to a
// power of two and the dominant spectral line is returned as a
// fraction of the revolution frequency, in [0, 0.5].
func Tune(signal []float64) float64 {
	if len(signal) < 2 {
		return 0
	}

	mean := 0.0
	for _, v := range signal {
		mean += v
	}
	mean /= float64(len(signal))

	n := 1
	for n < len(signal) {
		n *= 2
	}
	padded := make([]float64, n)
	for i, v := range signal {
		padded[i] = v - mean
	}

	ps := PowerSpectrum(padded)

	maxPower := 0.0
	maxIdx := 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > maxPower {
			maxPower = ps[i]
			maxIdx = i
		}
	}

	return float64(maxIdx) / float64(n)
}
