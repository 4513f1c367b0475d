package memtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shazoom/errs"
	"shazoom/models"
	"shazoom/store"
)

func TestPutDuplicateReturnsExistingID(t *testing.T) {
	s := New()
	ctx := context.Background()

	meta := models.Recording{Title: "A", ContentDigest: "digest-1"}
	id1, err := s.PutRecording(ctx, meta, nil)
	require.NoError(t, err)

	_, err = s.PutRecording(ctx, meta, nil)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.DuplicateContent))

	var dupErr *store.DuplicateError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, id1, dupErr.ExistingID)
}

func TestDeleteCascadesTuples(t *testing.T) {
	s := New()
	ctx := context.Background()

	meta := models.Recording{Title: "A", ContentDigest: "digest-2"}
	id, err := s.PutRecording(ctx, meta, []models.Tuple{{Hash: 1, AnchorTime: 0}, {Hash: 2, AnchorTime: 1}})
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TupleCount)

	require.NoError(t, s.DeleteRecording(ctx, id))

	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, stats.TupleCount)
	assert.EqualValues(t, 0, stats.RecordingCount)

	postings, err := s.Lookup(ctx, []uint64{1, 2})
	require.NoError(t, err)
	assert.Empty(t, postings)
}

func TestDeleteMissingIsNotFound(t *testing.T) {
	s := New()
	err := s.DeleteRecording(context.Background(), 999)
	assert.True(t, errs.Is(err, errs.NotFound))
}

func TestLookupReturnsAllMatchingPostings(t *testing.T) {
	s := New()
	ctx := context.Background()

	id1, err := s.PutRecording(ctx, models.Recording{ContentDigest: "d1"}, []models.Tuple{{Hash: 7, AnchorTime: 3}})
	require.NoError(t, err)
	id2, err := s.PutRecording(ctx, models.Recording{ContentDigest: "d2"}, []models.Tuple{{Hash: 7, AnchorTime: 9}})
	require.NoError(t, err)

	postings, err := s.Lookup(ctx, []uint64{7})
	require.NoError(t, err)
	require.Len(t, postings, 2)

	ids := map[uint64]bool{postings[0].RecordingID: true, postings[1].RecordingID: true}
	assert.True(t, ids[id1])
	assert.True(t, ids[id2])
}
