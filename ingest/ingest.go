// Package ingest implements the ingest orchestrator, spec §4.6:
// decode -> (no preprocessing) -> spectrogram -> peaks -> hashes ->
// store.PutRecording. Failure at any step aborts with no partial write.
package ingest

import (
	"context"
	"errors"

	"shazoom/audio"
	"shazoom/config"
	"shazoom/dsp"
	"shazoom/errs"
	"shazoom/fingerprint"
	"shazoom/models"
	"shazoom/store"
)

// Request is the metadata accompanying an ingest, per spec §6's ingest
// endpoint.
type Request struct {
	Path   string
	Title  string
	Artist string
	Album  string
}

// Result mirrors spec §6's ingest response shape.
type Result struct {
	RecordingID uint64
	TupleCount  int
	Duplicate   bool
}

// Ingest runs the full pipeline and writes the resulting tuple set
// atomically via fp.PutRecording. Ingest audio is never preprocessed, so
// catalogue hashes match the widest range of queries (spec §4.7).
func Ingest(ctx context.Context, fp store.FingerprintStore, ecfg config.ExtractorConfig, req Request) (Result, error) {
	digest, err := audio.Digest(req.Path)
	if err != nil {
		return Result{}, err
	}

	pcm, err := audio.Decode(ctx, req.Path, ecfg.SampleRate)
	if err != nil {
		return Result{}, err
	}
	if len(pcm.Samples) == 0 {
		return Result{}, errs.New(errs.Unfingerprintable, "decoded zero samples", nil)
	}

	S := dsp.Spectrogram(pcm.Samples, ecfg)
	if S == nil {
		return Result{}, errs.New(errs.Unfingerprintable, "clip shorter than one analysis window", nil)
	}

	peaks := dsp.Peaks(S, ecfg)
	if len(peaks) == 0 {
		return Result{}, errs.New(errs.Unfingerprintable, "no landmarks extracted", nil)
	}

	points := fingerprint.Extract(peaks, ecfg)
	if len(points) == 0 {
		return Result{}, errs.New(errs.Unfingerprintable, "no hashes produced", nil)
	}

	meta := models.Recording{
		Title:         req.Title,
		Artist:        req.Artist,
		Album:         req.Album,
		DurationSec:   float64(len(pcm.Samples)) / float64(pcm.SampleRate),
		ContentDigest: digest,
	}
	tuples := fingerprint.Tuples(points, 0)

	id, err := fp.PutRecording(ctx, meta, tuples)
	if err != nil {
		var dupErr *store.DuplicateError
		if errors.As(err, &dupErr) {
			return Result{RecordingID: dupErr.ExistingID, Duplicate: true}, nil
		}
		return Result{}, err
	}

	return Result{RecordingID: id, TupleCount: len(tuples)}, nil
}
