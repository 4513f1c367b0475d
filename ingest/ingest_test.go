package ingest

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shazoom/config"
	"shazoom/store/memtest"
)

func writeSineWAV(t *testing.T, path string, freqHz float64, sampleRate, seconds int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	numSamples := sampleRate * seconds
	data := make([]int, numSamples)
	for i := range data {
		data[i] = int(math.Sin(2*math.Pi*freqHz*float64(i)/float64(sampleRate)) * 30000)
	}
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:   data,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

func TestIngestProducesTuplesAndDedupes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	writeSineWAV(t, path, 1000, 22050, 10)

	s := memtest.New()
	ecfg := config.DefaultExtractorConfig()
	ctx := context.Background()

	res, err := Ingest(ctx, s, ecfg, Request{Path: path, Title: "Tone", Artist: "Test"})
	require.NoError(t, err)
	assert.NotZero(t, res.RecordingID)
	assert.Greater(t, res.TupleCount, 0)
	assert.False(t, res.Duplicate)

	res2, err := Ingest(ctx, s, ecfg, Request{Path: path, Title: "Tone", Artist: "Test"})
	require.NoError(t, err)
	assert.True(t, res2.Duplicate)
	assert.Equal(t, res.RecordingID, res2.RecordingID)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.RecordingCount)
}

func TestIngestUnsupportedFormatRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.xyz")
	require.NoError(t, os.WriteFile(path, []byte("not audio"), 0o644))

	s := memtest.New()
	ecfg := config.DefaultExtractorConfig()

	_, err := Ingest(context.Background(), s, ecfg, Request{Path: path})
	require.Error(t, err)
}
