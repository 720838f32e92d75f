package studio

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/toonana/toonana/errors"
)

// sniffImageExt picks a file extension from the image's magic bytes.
// Unknown formats default to png, which is what the renderer emits when
// it does not say otherwise.
func sniffImageExt(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}):
		return "png"
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "jpg"
	case len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "webp"
	default:
		return "png"
	}
}

// saveImage writes a decoded panel image under imagesDir/<entryID>/ and
// returns the absolute path.
func saveImage(imagesDir, entryID string, index int, data []byte) (string, error) {
	dir := filepath.Join(imagesDir, entryID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create image dir")
	}

	path := filepath.Join(dir, fmt.Sprintf("panel_%02d.%s", index, sniffImageExt(data)))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err, "write panel image")
	}
	return path, nil
}
