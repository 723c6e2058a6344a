// Package archive packages an evidence bundle as a zip download.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/klauspost/compress/flate"

	"tribultz/internal/evidence/bundle"
)

const compressionLevel = 6

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Filename builds the download name: the sanitized job id plus a compact UTC
// timestamp, e.g. job_1_20260226T170239Z.zip.
func Filename(jobID string, generatedAt time.Time) string {
	safe := unsafeFilenameChars.ReplaceAllString(jobID, "_")
	return safe + "_" + generatedAt.UTC().Format("20060102T150405") + "Z.zip"
}

// Pack writes the bundle artifacts, in order, into a deflate level 6 zip.
func Pack(b bundle.Bundle) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, compressionLevel)
	})

	for _, artifact := range b.Artifacts {
		w, err := zw.Create(artifact.Filename)
		if err != nil {
			return nil, fmt.Errorf("create zip entry %s: %w", artifact.Filename, err)
		}
		if _, err := w.Write(artifact.Content); err != nil {
			return nil, fmt.Errorf("write zip entry %s: %w", artifact.Filename, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize zip: %w", err)
	}
	return buf.Bytes(), nil
}
