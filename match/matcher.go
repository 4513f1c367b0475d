// Package match implements the time-coherent histogram matcher, spec §4.5
// (Wang 2003): true matches concentrate all query-catalogue offsets at a
// single Δt, producing a sharp histogram mode that serves as both a
// presence and an alignment estimator.
//
// Grounded on the distilled Python reference's find_matches routine — the
// one complete implementation of this step anywhere in the retrieval pack;
// the Go corpus's own attempts at this component are unfinished drafts.
package match

import (
	"context"
	"sort"

	"shazoom/config"
	"shazoom/errs"
	"shazoom/fingerprint"
	"shazoom/models"
	"shazoom/store"
)

// QueryItem is one hash emitted by the extractor for the query clip.
type QueryItem struct {
	Hash      uint64
	QueryTime uint32
}

// FromHashPoints adapts fingerprint.HashPoint into QueryItem.
func FromHashPoints(points []fingerprint.HashPoint) []QueryItem {
	out := make([]QueryItem, len(points))
	for i, p := range points {
		out[i] = QueryItem{Hash: p.Hash, QueryTime: p.AnchorTime}
	}
	return out
}

// ErrNoMatch is returned by Match when no recording clears the acceptance
// thresholds. It is not a failure: the matcher's job is exactly to decide
// between Match and NoMatch.
var ErrNoMatch = errs.New(errs.Unfingerprintable, "no recording matched", nil)

// Match runs the full spec §4.5 algorithm against fp. It returns
// (*models.Match, nil) on acceptance and (nil, ErrNoMatch) when no recording
// clears the thresholds; a cancelled ctx returns ctx.Err(), and a failed
// lookup returns a StoreUnavailable error.
func Match(ctx context.Context, fp store.FingerprintStore, query []QueryItem, mcfg config.MatcherConfig) (*models.Match, error) {
	if len(query) == 0 {
		return nil, ErrNoMatch
	}

	sampled := subsample(query, mcfg.MaxQuery)

	byHash := make(map[uint64][]uint32, len(sampled))
	for _, q := range sampled {
		byHash[q.Hash] = append(byHash[q.Hash], q.QueryTime)
	}

	hashes := make([]uint64, 0, len(byHash))
	for h := range byHash {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })

	counts := make(map[uint64]map[int32]int) // recordingID -> delta -> count

	for start := 0; start < len(hashes); start += mcfg.BatchSize {
		end := start + mcfg.BatchSize
		if end > len(hashes) {
			end = len(hashes)
		}
		batch := hashes[start:end]

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		postings, err := fp.Lookup(ctx, batch)
		if err != nil {
			return nil, errs.New(errs.StoreUnavailable, "matcher lookup", err)
		}

		for _, p := range postings {
			queryTimes, ok := byHash[p.Hash]
			if !ok {
				continue
			}
			for _, qt := range queryTimes {
				delta := int32(p.StoredTime) - int32(qt)
				if counts[p.RecordingID] == nil {
					counts[p.RecordingID] = make(map[int32]int)
				}
				counts[p.RecordingID][delta]++
			}
		}

		if best(counts) > mcfg.EarlyExit {
			break
		}
	}

	if len(counts) == 0 {
		return nil, ErrNoMatch
	}

	rid, peak, align := rank(counts)

	confidence := float64(peak) * 100 / float64(mcfg.GoodMatchBaseline)
	if confidence > 100 {
		confidence = 100
	}

	if peak < mcfg.MinPeak || confidence < mcfg.MinConfidencePct {
		return nil, ErrNoMatch
	}

	return &models.Match{
		RecordingID:     rid,
		Score:           peak,
		AlignmentOffset: align,
		ConfidencePct:   confidence,
	}, nil
}

// subsample picks a uniform stride over query so at most max items remain,
// per spec §4.5 step 1.
func subsample(query []QueryItem, max int) []QueryItem {
	if max <= 0 || len(query) <= max {
		return query
	}
	stride := len(query) / max
	if stride < 1 {
		stride = 1
	}
	out := make([]QueryItem, 0, max)
	for i := 0; i < len(query) && len(out) < max; i += stride {
		out = append(out, query[i])
	}
	return out
}

// best returns the current maximum histogram bucket across all recordings.
func best(counts map[uint64]map[int32]int) int {
	max := 0
	for _, deltas := range counts {
		for _, c := range deltas {
			if c > max {
				max = c
			}
		}
	}
	return max
}

// rank picks the recording with the tallest histogram mode, breaking ties
// on the smallest delta then the smallest recording id, per spec §4.5
// step 5.
func rank(counts map[uint64]map[int32]int) (rid uint64, peak int, align int32) {
	rids := make([]uint64, 0, len(counts))
	for r := range counts {
		rids = append(rids, r)
	}
	sort.Slice(rids, func(i, j int) bool { return rids[i] < rids[j] })

	bestPeak := -1
	var bestRid uint64
	var bestAlign int32

	for _, r := range rids {
		p, a := peakAndAlign(counts[r])
		if p > bestPeak {
			bestPeak = p
			bestRid = r
			bestAlign = a
		}
	}
	return bestRid, bestPeak, bestAlign
}

func peakAndAlign(deltas map[int32]int) (int, int32) {
	ds := make([]int32, 0, len(deltas))
	for d := range deltas {
		ds = append(ds, d)
	}
	sort.Slice(ds, func(i, j int) bool { return ds[i] < ds[j] })

	best := -1
	var align int32
	for _, d := range ds {
		if deltas[d] > best {
			best = deltas[d]
			align = d
		}
	}
	return best, align
}
