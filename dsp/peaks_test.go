package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shazoom/config"
)

func TestPeaksSortedAndBorderExcluded(t *testing.T) {
	cfg := config.DefaultExtractorConfig()
	pcm := sineWave(1500, cfg.SampleRate, cfg.SampleRate*3)

	S := Spectrogram(pcm, cfg)
	require.NotEmpty(t, S)

	peaks := Peaks(S, cfg)
	require.NotEmpty(t, peaks)

	for i := 1; i < len(peaks); i++ {
		prev, cur := peaks[i-1], peaks[i]
		assert.True(t, cur.Time > prev.Time || (cur.Time == prev.Time && cur.Freq >= prev.Freq))
	}

	for _, p := range peaks {
		assert.NotEqual(t, 0, p.Time)
		assert.NotEqual(t, len(S)-1, p.Time)
	}
}

func TestPeaksEmptyOnTooSmallMatrix(t *testing.T) {
	cfg := config.DefaultExtractorConfig()
	assert.Nil(t, Peaks([][]float64{{1}, {2}}, cfg))
}

func TestPercentileBasic(t *testing.T) {
	S := [][]float64{{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}}
	p := percentile(S, 90)
	assert.InDelta(t, 90, p, 0.5)
}
