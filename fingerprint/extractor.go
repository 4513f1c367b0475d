package fingerprint

import (
	"shazoom/config"
	"shazoom/dsp"
	"shazoom/models"
)

// HashPoint is a (hash, anchor_time) tuple before a recording id has been
// assigned to it.
type HashPoint struct {
	Hash       uint64
	AnchorTime uint32
}

// Extract implements spec §4.3: for each landmark, fan out to up to F
// partners within the target zone (τ₀, τ_w), emitting one hash per pair.
// peaks must already be sorted by Time ascending then Freq ascending (as
// dsp.Peaks returns them).
func Extract(peaks []dsp.Peak, cfg config.ExtractorConfig) []HashPoint {
	var out []HashPoint

	tau0 := cfg.TargetZoneStart
	if tau0 < 1 {
		tau0 = 1
	}
	tauW := cfg.TargetZoneWidth

	for i, anchor := range peaks {
		paired := 0
		for j := i + tau0; j < len(peaks) && j <= i+tauW; j++ {
			if paired >= cfg.FanSize {
				break
			}
			target := peaks[j]
			delta := target.Time - anchor.Time
			if delta > tauW {
				delta = tauW
			}
			h := Hash(anchor.Freq, target.Freq, delta)
			out = append(out, HashPoint{Hash: h, AnchorTime: uint32(anchor.Time)})
			paired++
		}
	}
	return out
}

// Tuples attaches a recording id to every hash point, producing the
// storage-ready tuples spec §3 defines.
func Tuples(points []HashPoint, recordingID uint64) []models.Tuple {
	out := make([]models.Tuple, len(points))
	for i, p := range points {
		out[i] = models.Tuple{
			Hash:        p.Hash,
			AnchorTime:  p.AnchorTime,
			RecordingID: recordingID,
		}
	}
	return out
}
