package fileformat

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// channels => Mono(1) or Stereo(2)
// ConvertToWAV takes any ffmpeg-readable input file and writes a sibling
// pcm_s16le WAV at sampleRate next to it, honoring ctx cancellation.
func ConvertToWAV(ctx context.Context, inputFilePath string, channels, sampleRate int) (wavFilePath string, err error) {
	if _, err := os.Stat(inputFilePath); err != nil {
		return "", fmt.Errorf("input file does not exist: %v", err)
	}

	if channels < 1 || channels > 2 {
		channels = 1
	}
	if sampleRate <= 0 {
		sampleRate = 44100
	}

	fileExt := filepath.Ext(inputFilePath)
	outputFile := strings.TrimSuffix(inputFilePath, fileExt) + ".wav"

	cmd := exec.CommandContext(ctx,
		"ffmpeg",
		"-y",
		"-i", inputFilePath,
		"-c", "pcm_s16le",
		"-ar", fmt.Sprint(sampleRate),
		"-ac", fmt.Sprint(channels),
		outputFile,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to convert into wav, err : %v, output: %v", err, string(output))
	}

	return outputFile, nil
}

// ReformatWav re-encodes an existing WAV to pcm_s16le/44100/channels, used
// to normalize a freshly captured clip before it reaches the decoder.
func ReformatWav(filePath string, channels int) (reformatedFilePath string, err error) {
	if channels < 1 || channels > 2 {
		channels = 1
	}

	fileExt := filepath.Ext(filePath)
	outputFile := strings.TrimSuffix(filePath, fileExt) + "rfm.wav"

	cmd := exec.Command(
		"ffmpeg",
		"-y",
		"-i", filePath,
		"-c", "pcm_s16le",
		"-ar", "44100",
		"-ac", fmt.Sprint(channels),
		outputFile,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to convert to WAV: %v, output %v", err, string(output))
	}

	return outputFile, nil
}

