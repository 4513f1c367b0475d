// Package config loads the frozen extractor configuration and matcher
// tuning parameters from the environment, with the defaults from spec §6.
package config

import (
	"fmt"
	"hash/fnv"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ExtractorConfig is the set of parameters that MUST be identical at ingest
// and query time: changing any one invalidates the catalogue.
type ExtractorConfig struct {
	SampleRate      int     // R
	FFTSize         int     // N
	Hop             int     // H
	FreqLo          int     // f_lo
	FreqHi          int     // f_hi
	PeakRadius      int     // P
	AmpPercentile   float64 // θ, 0..100
	FanSize         int     // F
	TargetZoneStart int     // τ₀
	TargetZoneWidth int     // τ_w
}

// MatcherConfig tunes the matcher's batching, early-exit, and acceptance
// thresholds.
type MatcherConfig struct {
	MaxQuery          int // M_max
	BatchSize         int // B
	EarlyExit         int
	MinPeak           int
	GoodMatchBaseline int
	MinConfidencePct  float64
}

// DefaultExtractorConfig returns the spec §6 defaults.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		SampleRate:      22050,
		FFTSize:         2048,
		Hop:             512,
		FreqLo:          0,
		FreqHi:          8000,
		PeakRadius:      10,
		AmpPercentile:   90,
		FanSize:         5,
		TargetZoneStart: 1,
		TargetZoneWidth: 75,
	}
}

// DefaultMatcherConfig returns the spec §6 defaults.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		MaxQuery:          400,
		BatchSize:         100,
		EarlyExit:         80,
		MinPeak:           5,
		GoodMatchBaseline: 100,
		MinConfidencePct:  5,
	}
}

// Load reads a .env file if present (ignored when absent) then overlays
// environment variables on top of the defaults.
func Load() (ExtractorConfig, MatcherConfig, error) {
	_ = godotenv.Load()

	ec := DefaultExtractorConfig()
	mc := DefaultMatcherConfig()

	if err := overlayInt(&ec.SampleRate, "SHAZOOM_SAMPLE_RATE"); err != nil {
		return ec, mc, err
	}
	if err := overlayInt(&ec.FFTSize, "SHAZOOM_FFT_SIZE"); err != nil {
		return ec, mc, err
	}
	if err := overlayInt(&ec.Hop, "SHAZOOM_HOP"); err != nil {
		return ec, mc, err
	}
	if err := overlayInt(&ec.FreqLo, "SHAZOOM_FREQ_LO"); err != nil {
		return ec, mc, err
	}
	if err := overlayInt(&ec.FreqHi, "SHAZOOM_FREQ_HI"); err != nil {
		return ec, mc, err
	}
	if err := overlayInt(&ec.PeakRadius, "SHAZOOM_PEAK_RADIUS"); err != nil {
		return ec, mc, err
	}
	if err := overlayFloat(&ec.AmpPercentile, "SHAZOOM_AMP_PERCENTILE"); err != nil {
		return ec, mc, err
	}
	if err := overlayInt(&ec.FanSize, "SHAZOOM_FAN_SIZE"); err != nil {
		return ec, mc, err
	}
	if err := overlayInt(&ec.TargetZoneStart, "SHAZOOM_TARGET_ZONE_START"); err != nil {
		return ec, mc, err
	}
	if err := overlayInt(&ec.TargetZoneWidth, "SHAZOOM_TARGET_ZONE_WIDTH"); err != nil {
		return ec, mc, err
	}

	if err := overlayInt(&mc.MaxQuery, "SHAZOOM_MAX_QUERY"); err != nil {
		return ec, mc, err
	}
	if err := overlayInt(&mc.BatchSize, "SHAZOOM_BATCH_SIZE"); err != nil {
		return ec, mc, err
	}
	if err := overlayInt(&mc.EarlyExit, "SHAZOOM_EARLY_EXIT"); err != nil {
		return ec, mc, err
	}
	if err := overlayInt(&mc.MinPeak, "SHAZOOM_MIN_PEAK"); err != nil {
		return ec, mc, err
	}
	if err := overlayInt(&mc.GoodMatchBaseline, "SHAZOOM_GOOD_MATCH_BASELINE"); err != nil {
		return ec, mc, err
	}
	if err := overlayFloat(&mc.MinConfidencePct, "SHAZOOM_MIN_CONFIDENCE_PCT"); err != nil {
		return ec, mc, err
	}

	return ec, mc, nil
}

func overlayInt(dst *int, env string) error {
	v, ok := os.LookupEnv(env)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", env, err)
	}
	*dst = n
	return nil
}

func overlayFloat(dst *float64, env string) error {
	v, ok := os.LookupEnv(env)
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("config: %s: %w", env, err)
	}
	*dst = f
	return nil
}

// Hash returns a stable fingerprint of the extractor configuration, used to
// detect parameter drift between the running process and the catalogue it
// is about to query (spec §9). Two configs with identical field values
// always hash identically, regardless of process or platform.
func (c ExtractorConfig) Hash() string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%d|%d|%d|%d|%d|%f|%d|%d|%d",
		c.SampleRate, c.FFTSize, c.Hop, c.FreqLo, c.FreqHi,
		c.PeakRadius, c.AmpPercentile, c.FanSize,
		c.TargetZoneStart, c.TargetZoneWidth)
	return strconv.FormatUint(h.Sum64(), 16)
}
