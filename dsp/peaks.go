package dsp

import (
	"sort"

	"shazoom/config"
)

// Peak is a landmark: a spectrogram cell that is a local maximum above the
// adaptive amplitude floor. Time is a frame index (not seconds); Freq is an
// absolute FFT bin index (not Hz), so that two recordings analyzed with the
// same ExtractorConfig produce directly comparable peaks.
type Peak struct {
	Time int
	Freq int
}

// Peaks implements spec §4.2: a global percentile(90) amplitude floor, a
// P-radius local-maximum test, border exclusion, and a lexicographic
// tie-break for plateaus. The result is sorted by Time ascending then Freq
// ascending.
func Peaks(S [][]float64, cfg config.ExtractorConfig) []Peak {
	rows := len(S)
	if rows < 3 {
		return nil
	}
	cols := len(S[0])
	if cols < 3 {
		return nil
	}

	threshold := percentile(S, cfg.AmpPercentile)
	loBin := freqToBin(cfg.FreqLo, cfg.SampleRate, cfg.FFTSize)
	radius := cfg.PeakRadius
	if radius < 1 {
		radius = 1
	}

	type candidate struct {
		t, f int
		val  float64
	}
	var candidates []candidate

	for t := 1; t < rows-1; t++ {
		for f := 1; f < cols-1; f++ {
			v := S[t][f]
			if v < threshold {
				continue
			}
			if v == neighborhoodMax(S, t, f, radius) {
				candidates = append(candidates, candidate{t, f, v})
			}
		}
	}

	// candidates are already produced in (t,f) ascending order by the scan
	// above; dedupe plateaus by keeping only the first accepted peak within
	// radius of an equal-valued neighbor.
	var accepted []candidate
	for _, c := range candidates {
		dup := false
		for _, a := range accepted {
			if a.val == c.val && abs(a.t-c.t) <= radius && abs(a.f-c.f) <= radius {
				dup = true
				break
			}
		}
		if !dup {
			accepted = append(accepted, c)
		}
	}

	peaks := make([]Peak, 0, len(accepted))
	for _, c := range accepted {
		peaks = append(peaks, Peak{Time: c.t, Freq: loBin + c.f})
	}
	sort.Slice(peaks, func(i, j int) bool {
		if peaks[i].Time != peaks[j].Time {
			return peaks[i].Time < peaks[j].Time
		}
		return peaks[i].Freq < peaks[j].Freq
	})
	return peaks
}

func neighborhoodMax(S [][]float64, t, f, radius int) float64 {
	rows, cols := len(S), len(S[0])
	max := S[t][f]
	for dt := -radius; dt <= radius; dt++ {
		tt := t + dt
		if tt < 0 || tt >= rows {
			continue
		}
		for df := -radius; df <= radius; df++ {
			ff := f + df
			if ff < 0 || ff >= cols {
				continue
			}
			if S[tt][ff] > max {
				max = S[tt][ff]
			}
		}
	}
	return max
}

// percentile returns the p-th percentile (0..100) of all values in S using
// linear interpolation between closest ranks.
func percentile(S [][]float64, p float64) float64 {
	var flat []float64
	for _, row := range S {
		flat = append(flat, row...)
	}
	if len(flat) == 0 {
		return 0
	}
	sort.Float64s(flat)
	if p <= 0 {
		return flat[0]
	}
	if p >= 100 {
		return flat[len(flat)-1]
	}
	rank := p / 100 * float64(len(flat)-1)
	lo := int(rank)
	hi := lo + 1
	if hi >= len(flat) {
		return flat[lo]
	}
	frac := rank - float64(lo)
	return flat[lo]*(1-frac) + flat[hi]*frac
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
