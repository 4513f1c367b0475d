package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shazoom/config"
	"shazoom/models"
	"shazoom/store/memtest"
)

func TestMatchEmptyQueryIsNoMatch(t *testing.T) {
	s := memtest.New()
	mcfg := config.DefaultMatcherConfig()

	_, err := Match(context.Background(), s, nil, mcfg)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestMatchFindsStrongAlignment(t *testing.T) {
	s := memtest.New()
	mcfg := config.DefaultMatcherConfig()
	mcfg.MinPeak = 5
	mcfg.MinConfidencePct = 0
	ctx := context.Background()

	// Recording stores 20 hashes at anchor times 100..119.
	var tuples []models.Tuple
	for i := 0; i < 20; i++ {
		tuples = append(tuples, models.Tuple{Hash: uint64(1000 + i), AnchorTime: uint32(100 + i)})
	}
	rid, err := s.PutRecording(ctx, models.Recording{ContentDigest: "d"}, tuples)
	require.NoError(t, err)

	// Query offers the same hashes shifted by a constant delta of 10.
	var query []QueryItem
	for i := 0; i < 20; i++ {
		query = append(query, QueryItem{Hash: uint64(1000 + i), QueryTime: uint32(90 + i)})
	}

	m, err := Match(ctx, s, query, mcfg)
	require.NoError(t, err)
	assert.Equal(t, rid, m.RecordingID)
	assert.Equal(t, int32(10), m.AlignmentOffset)
	assert.Equal(t, 20, m.Score)
}

func TestMatchRejectsBelowMinPeak(t *testing.T) {
	s := memtest.New()
	mcfg := config.DefaultMatcherConfig()
	ctx := context.Background()

	rid, err := s.PutRecording(ctx, models.Recording{ContentDigest: "d"}, []models.Tuple{{Hash: 1, AnchorTime: 0}})
	require.NoError(t, err)
	_ = rid

	_, err = Match(ctx, s, []QueryItem{{Hash: 1, QueryTime: 0}}, mcfg)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestMatchTiesBreakOnSmallestRecordingID(t *testing.T) {
	s := memtest.New()
	mcfg := config.DefaultMatcherConfig()
	mcfg.MinPeak = 1
	mcfg.MinConfidencePct = 0
	ctx := context.Background()

	ridA, err := s.PutRecording(ctx, models.Recording{ContentDigest: "a"}, []models.Tuple{{Hash: 5, AnchorTime: 0}})
	require.NoError(t, err)
	ridB, err := s.PutRecording(ctx, models.Recording{ContentDigest: "b"}, []models.Tuple{{Hash: 5, AnchorTime: 0}})
	require.NoError(t, err)
	require.Less(t, ridA, ridB)

	m, err := Match(ctx, s, []QueryItem{{Hash: 5, QueryTime: 0}}, mcfg)
	require.NoError(t, err)
	assert.Equal(t, ridA, m.RecordingID)
}

func TestSubsampleStride(t *testing.T) {
	query := make([]QueryItem, 1000)
	for i := range query {
		query[i] = QueryItem{Hash: uint64(i)}
	}
	out := subsample(query, 400)
	assert.LessOrEqual(t, len(out), 400)
}
