package audio

import "math"

// silenceFloorDB is spec §4.7's leading/trailing trim threshold, relative
// to the clip's own peak amplitude.
const silenceFloorDB = -20.0

// Preprocess trims leading/trailing silence below silenceFloorDB (relative
// to the clip's own peak) and peak-normalizes the remainder to unit
// amplitude, per spec §4.7. Applied only on the query side; ingest must
// remain un-preprocessed.
func Preprocess(pcm PCM) PCM {
	samples := pcm.Samples
	peak := maxAbs(samples)
	if peak == 0 {
		return PCM{Samples: nil, SampleRate: pcm.SampleRate}
	}

	thresholdLinear := peak * math.Pow(10, silenceFloorDB/20)

	start := 0
	for start < len(samples) && math.Abs(samples[start]) < thresholdLinear {
		start++
	}
	end := len(samples) - 1
	for end >= start && math.Abs(samples[end]) < thresholdLinear {
		end--
	}
	if end < start {
		return PCM{Samples: nil, SampleRate: pcm.SampleRate}
	}

	trimmed := append([]float64(nil), samples[start:end+1]...)
	trimmedPeak := maxAbs(trimmed)
	if trimmedPeak > 0 {
		scale := 1 / trimmedPeak
		for i := range trimmed {
			trimmed[i] *= scale
		}
	}

	return PCM{Samples: trimmed, SampleRate: pcm.SampleRate}
}

func maxAbs(samples []float64) float64 {
	max := 0.0
	for _, s := range samples {
		a := math.Abs(s)
		if a > max {
			max = a
		}
	}
	return max
}
