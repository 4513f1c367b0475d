// Package identify implements the identify orchestrator, spec §4.7:
// decode -> preprocess (query-only) -> spectrogram -> peaks -> hashes ->
// matcher.
package identify

import (
	"context"
	"errors"

	"shazoom/audio"
	"shazoom/config"
	"shazoom/dsp"
	"shazoom/errs"
	"shazoom/fingerprint"
	"shazoom/match"
	"shazoom/models"
	"shazoom/store"
)

// Identify runs the full query-side pipeline. A nil *models.Match with a
// nil error means "no match" — per spec §7, a non-match is a normal result,
// not an error. A non-nil error means a genuine failure (bad format,
// undecodable file, unfingerprintable clip, or a store fault).
func Identify(ctx context.Context, fp store.FingerprintStore, ecfg config.ExtractorConfig, mcfg config.MatcherConfig, path string) (*models.Match, error) {
	pcm, err := audio.Decode(ctx, path, ecfg.SampleRate)
	if err != nil {
		return nil, err
	}
	if len(pcm.Samples) == 0 {
		return nil, errs.New(errs.Unfingerprintable, "decoded zero samples", nil)
	}

	pre := audio.Preprocess(pcm)
	if len(pre.Samples) == 0 {
		return nil, errs.New(errs.Unfingerprintable, "clip is entirely silence", nil)
	}

	S := dsp.Spectrogram(pre.Samples, ecfg)
	if S == nil {
		return nil, errs.New(errs.Unfingerprintable, "clip shorter than one analysis window", nil)
	}

	peaks := dsp.Peaks(S, ecfg)
	if len(peaks) == 0 {
		return nil, errs.New(errs.Unfingerprintable, "no landmarks extracted", nil)
	}

	points := fingerprint.Extract(peaks, ecfg)
	if len(points) == 0 {
		return nil, errs.New(errs.Unfingerprintable, "no hashes produced", nil)
	}

	query := match.FromHashPoints(points)
	m, err := match.Match(ctx, fp, query, mcfg)
	if err != nil {
		if errors.Is(err, match.ErrNoMatch) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}
