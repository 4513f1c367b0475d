// Package dsp turns decoded PCM into the landmark list the hasher consumes:
// a short-time Fourier transform followed by adaptive-threshold peak
// picking, per spec §4.1/§4.2.
package dsp

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// transform computes the discrete Fourier transform of real-valued input,
// returning the full complex spectrum. It uses the library radix-2 FFT when
// the input length is a power of two (the common case, since fft_size is
// always configured that way) and falls back to a hand-rolled transform
// otherwise; recursiveFFT hands any non-power-of-two length straight to the
// O(n^2) dft, so that fallback is a direct DFT.
func transform(frame []float64) []complex128 {
	if isPowerOfTwo(len(frame)) {
		return fft.FFTReal(frame)
	}
	return fallbackFFT(frame)
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func fallbackFFT(input []float64) []complex128 {
	c := make([]complex128, len(input))
	for i, v := range input {
		c[i] = complex(v, 0)
	}
	return recursiveFFT(c)
}

func recursiveFFT(input []complex128) []complex128 {
	n := len(input)
	if n <= 1 {
		return input
	}
	if n&(n-1) != 0 {
		return dft(input)
	}

	even := make([]complex128, n/2)
	odd := make([]complex128, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = input[2*i]
		odd[i] = input[2*i+1]
	}

	even = recursiveFFT(even)
	odd = recursiveFFT(odd)

	out := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		angle := -2 * math.Pi * float64(k) / float64(n)
		twiddle := complex(math.Cos(angle), math.Sin(angle)) * odd[k]
		out[k] = even[k] + twiddle
		out[k+n/2] = even[k] - twiddle
	}
	return out
}

// dft is the O(n^2) base case used when n isn't a power of two.
func dft(input []complex128) []complex128 {
	n := len(input)
	out := make([]complex128, n)
	for k := 0; k < n; k++ {
		var sum complex128
		for j := 0; j < n; j++ {
			angle := -2 * math.Pi * float64(k) * float64(j) / float64(n)
			sum += input[j] * complex(math.Cos(angle), math.Sin(angle))
		}
		out[k] = sum
	}
	return out
}
