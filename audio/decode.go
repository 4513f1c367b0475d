// Package audio is the concrete decoder, content-digest, and query
// preprocessing implementation behind the core pipeline's external
// collaborator boundary (spec §2, §4.7, §6).
package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"

	"shazoom/errs"
	"shazoom/fileformat"
)

// PCM is mono audio in float range [-1, 1] at SampleRate.
type PCM struct {
	Samples    []float64
	SampleRate int
}

// allowedExt is the cheap reject list from spec §6.
var allowedExt = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
	".m4a":  true,
}

// Decode produces mono PCM resampled to targetSampleRate from any supported
// container. WAV and MP3 are decoded natively in Go; everything else is
// converted to an intermediate WAV via ffmpeg first, mirroring the corpus's
// universal fallback for formats without a ready Go decoder. Resampling to
// a single fixed rate here is what lets ingest and query PCM share one
// spectrogram/hash configuration regardless of each source file's native
// rate (spec.md §3's "R must be identical at ingest and query" invariant).
func Decode(ctx context.Context, path string, targetSampleRate int) (PCM, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !allowedExt[ext] {
		return PCM{}, errs.New(errs.UnsupportedFormat, fmt.Sprintf("extension %q not supported", ext), nil)
	}

	switch ext {
	case ".wav":
		return decodeWAV(path, targetSampleRate)
	case ".mp3":
		return decodeMP3(path, targetSampleRate)
	default:
		wavPath, err := fileformat.ConvertToWAV(ctx, path, 1, targetSampleRate)
		if err != nil {
			return PCM{}, errs.New(errs.DecodeFailed, "ffmpeg conversion failed", err)
		}
		defer os.Remove(wavPath)
		return decodeWAV(wavPath, targetSampleRate)
	}
}

func decodeWAV(path string, targetSampleRate int) (PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return PCM{}, errs.New(errs.DecodeFailed, "opening wav file", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return PCM{}, errs.New(errs.DecodeFailed, "invalid wav file", nil)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return PCM{}, errs.New(errs.DecodeFailed, "reading wav pcm", err)
	}

	samples := intBufferToMono(buf)
	samples = resample(samples, buf.Format.SampleRate, targetSampleRate)
	return PCM{Samples: samples, SampleRate: targetSampleRate}, nil
}

func intBufferToMono(buf *goaudio.IntBuffer) []float64 {
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	fullScale := float64(int64(1) << (bitDepth - 1))

	n := len(buf.Data) / channels
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		out[i] = (sum / float64(channels)) / fullScale
	}
	return out
}

func decodeMP3(path string, targetSampleRate int) (PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return PCM{}, errs.New(errs.DecodeFailed, "opening mp3 file", err)
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return PCM{}, errs.New(errs.DecodeFailed, "creating mp3 decoder", err)
	}

	var interleaved []int16
	buf := make([]byte, 8192)
	for {
		n, err := dec.Read(buf)
		for i := 0; i+1 < n; i += 2 {
			interleaved = append(interleaved, int16(binary.LittleEndian.Uint16(buf[i:i+2])))
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return PCM{}, errs.New(errs.DecodeFailed, "reading mp3 frames", err)
		}
	}

	// go-mp3 always decodes to 2-channel interleaved 16-bit PCM.
	n := len(interleaved) / 2
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		left := float64(interleaved[i*2])
		right := float64(interleaved[i*2+1])
		samples[i] = (left + right) / 2 / 32768.0
	}

	samples = resample(samples, dec.SampleRate(), targetSampleRate)
	return PCM{Samples: samples, SampleRate: targetSampleRate}, nil
}

// resample linearly interpolates samples from srcRate to dstRate, generalizing
// main/pipeline/spectogram.go's Downsample (which only handled srcRate >=
// dstRate) to both directions — the interpolation math is identical either
// way, only the teacher's explicit guard ruled out upsampling.
func resample(samples []float64, srcRate, dstRate int) []float64 {
	if srcRate <= 0 || dstRate <= 0 || srcRate == dstRate || len(samples) == 0 {
		return samples
	}

	ratio := float64(srcRate) / float64(dstRate)
	outLen := int(float64(len(samples)) / ratio)
	out := make([]float64, outLen)

	for i := 0; i < outLen; i++ {
		srcIdx := float64(i) * ratio
		lo := int(srcIdx)
		hi := lo + 1
		if hi >= len(samples) {
			out[i] = samples[lo]
			continue
		}
		frac := srcIdx - float64(lo)
		out[i] = samples[lo]*(1-frac) + samples[hi]*frac
	}

	return out
}
