package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shazoom/config"
	"shazoom/dsp"
)

func TestExtractRespectsFanSizeAndTargetZone(t *testing.T) {
	cfg := config.DefaultExtractorConfig()
	cfg.FanSize = 2
	cfg.TargetZoneStart = 1
	cfg.TargetZoneWidth = 3

	peaks := []dsp.Peak{
		{Time: 0, Freq: 10},
		{Time: 1, Freq: 20},
		{Time: 2, Freq: 30},
		{Time: 3, Freq: 40},
		{Time: 10, Freq: 50}, // outside the target zone of peak 0
	}

	points := Extract(peaks, cfg)
	require.NotEmpty(t, points)

	// peak 0 can pair with at most 2 of {1,2,3} (peak at time 10 is out of zone).
	count := 0
	for _, p := range points {
		if p.AnchorTime == 0 {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestExtractDeterministic(t *testing.T) {
	cfg := config.DefaultExtractorConfig()
	peaks := []dsp.Peak{{0, 10}, {2, 12}, {5, 9}, {7, 30}}

	a := Extract(peaks, cfg)
	b := Extract(peaks, cfg)
	assert.Equal(t, a, b)
}

func TestTuplesAttachRecordingID(t *testing.T) {
	points := []HashPoint{{Hash: 1, AnchorTime: 5}}
	tuples := Tuples(points, 42)
	require.Len(t, tuples, 1)
	assert.Equal(t, uint64(42), tuples[0].RecordingID)
	assert.Equal(t, uint32(5), tuples[0].AnchorTime)
}
