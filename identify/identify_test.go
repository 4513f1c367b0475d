package identify

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
	"shazoom/ingest"
	"shazoom/store/memtest"
)

func writeSweepWAV(t *testing.T, path string, sampleRate, seconds int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	numSamples := sampleRate * seconds
	data := make([]int, numSamples)
	for i := range data {
		// a sweep gives the spectrogram plenty of distinct peaks across time.
		freq := 200 + 4000*float64(i)/float64(numSamples)
		data[i] = int(math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)) * 30000)
	}
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:   data,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

func TestIdentifySelfIdentification(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sweep.wav")
	writeSweepWAV(t, path, 22050, 15)

	s := memtest.New()
	ecfg := config.DefaultExtractorConfig()
	mcfg := config.DefaultMatcherConfig()
	mcfg.MinPeak = 1
	mcfg.MinConfidencePct = 0
	ctx := context.Background()

	res, err := ingest.Ingest(ctx, s, ecfg, ingest.Request{Path: path, Title: "Sweep", Artist: "Test"})
	require.NoError(t, err)

	m, err := Identify(ctx, s, ecfg, mcfg, path)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, res.RecordingID, m.RecordingID)
}

func TestIdentifyUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.xyz")
	require.NoError(t, os.WriteFile(path, []byte("nope"), 0o644))

	s := memtest.New()
	ecfg := config.DefaultExtractorConfig()
	mcfg := config.DefaultMatcherConfig()

	_, err := Identify(context.Background(), s, ecfg, mcfg, path)
	require.Error(t, err)
}
