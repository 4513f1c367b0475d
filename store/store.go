// Package store defines the fingerprint store interface required by the
// core pipeline (spec §4.4). Implementations live in subpackages:
// store/postgres for production, store/memtest for hermetic tests.
package store

import (
	"context"
	"fmt"

	"shazoom/models"
)

// FingerprintStore is the external collaborator the extractor and matcher
// depend on. Implementations must guarantee that lookup sees all committed
// tuples and that deletes are visible immediately to subsequent lookups in
// the same process.
type FingerprintStore interface {
	// PutRecording atomically creates a Recording and its tuple set. If
	// meta.ContentDigest already exists, it returns the existing recording's
	// id wrapped in a *DuplicateError of kind errs.DuplicateContent instead
	// of inserting anything.
	PutRecording(ctx context.Context, meta models.Recording, tuples []models.Tuple) (uint64, error)

	// DeleteRecording atomically removes a Recording and cascades to all of
	// its tuples.
	DeleteRecording(ctx context.Context, recordingID uint64) error

	// Lookup returns every posting whose hash is in hashes. Ordering is
	// unspecified.
	Lookup(ctx context.Context, hashes []uint64) ([]models.Posting, error)

	// Get fetches one recording's metadata (no tuples) by id.
	Get(ctx context.Context, recordingID uint64) (models.Recording, error)

	// List returns all recordings' metadata (no tuples).
	List(ctx context.Context) ([]models.Recording, error)

	// Stats reports aggregate catalogue size.
	Stats(ctx context.Context) (models.Stats, error)

	// ConfigHash returns the extractor configuration hash recorded against
	// this catalogue, or "" if none has been recorded yet (spec §9,
	// parameter-drift guard).
	ConfigHash(ctx context.Context) (string, error)

	// SetConfigHash records the extractor configuration hash this
	// catalogue was built with.
	SetConfigHash(ctx context.Context, hash string) error

	Close() error
}

// DuplicateError is the payload carried by an errs.DuplicateContent error
// returned from PutRecording: it names the recording id the content digest
// already resolves to.
type DuplicateError struct {
	ExistingID uint64
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("content digest already catalogued as recording %d", e.ExistingID)
}
