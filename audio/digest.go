package audio

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"shazoom/errs"
)

// Digest computes the SHA-256 content digest of the raw file bytes at path,
// via chunked reads, per spec §6. Used only to deduplicate ingestion;
// independent of whether the file can actually be decoded.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errs.New(errs.DecodeFailed, "opening file for digest", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errs.New(errs.DecodeFailed, "hashing file", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
