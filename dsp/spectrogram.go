package dsp

import (
	"math"
	"math/cmplx"

	"shazoom/config"
)

// floorDB is substituted for cells whose magnitude is exactly zero, in
// place of -Inf.
const floorDB = -120.0

// Spectrogram builds a real matrix S[t][f] in log-amplitude units from mono
// PCM at the configured sample rate, per spec §4.1. f ranges over the
// retained frequency band only: FFT bins from FreqLo's bin up to, but not
// including, FreqHi's bin (capped at N/2). Returns an empty matrix
// when there are fewer samples than one window (L < N) — the caller is
// expected to treat that as "unfingerprintable".
func Spectrogram(pcm []float64, cfg config.ExtractorConfig) [][]float64 {
	n := cfg.FFTSize
	hop := cfg.Hop
	if len(pcm) < n {
		return nil
	}

	window := hannWindow(n)

	loBin := freqToBin(cfg.FreqLo, cfg.SampleRate, n)
	hiBin := freqToBin(cfg.FreqHi, cfg.SampleRate, n)
	if hiBin > n/2 {
		hiBin = n / 2
	}
	if loBin < 0 {
		loBin = 0
	}
	if hiBin <= loBin {
		hiBin = loBin + 1
	}

	numFrames := (len(pcm)-n)/hop + 1
	mags := make([][]float64, numFrames)

	maxMag := 0.0
	frameBuf := make([]float64, n)
	for t := 0; t < numFrames; t++ {
		start := t * hop
		for i := 0; i < n; i++ {
			frameBuf[i] = pcm[start+i] * window[i]
		}

		spectrum := transform(frameBuf)
		row := make([]float64, hiBin-loBin)
		for f := loBin; f < hiBin; f++ {
			m := cmplx.Abs(spectrum[f])
			row[f-loBin] = m
			if m > maxMag {
				maxMag = m
			}
		}
		mags[t] = row
	}

	S := make([][]float64, numFrames)
	for t := range S {
		S[t] = make([]float64, len(mags[t]))
		for f, m := range mags[t] {
			if m <= 0 || maxMag <= 0 {
				S[t][f] = floorDB
				continue
			}
			S[t][f] = 20 * math.Log10(m/maxMag)
		}
	}
	return S
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

func freqToBin(freqHz, sampleRate, n int) int {
	return int(math.Round(float64(freqHz) * float64(n) / float64(sampleRate)))
}
