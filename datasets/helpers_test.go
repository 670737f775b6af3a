package datasets

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"advstage/imgio"
)

// writePNG saves a small deterministic image and returns its pixel array.
// Integer-valued pixels round-trip exactly through PNG, so tests can
// compare decoded content against the returned array.
func writePNG(t *testing.T, path string, width, height, seed int) imgio.Image {
	t.Helper()
	img := imgio.Image{
		Pix:      make([]float64, height*width*imgio.Channels),
		Height:   height,
		Width:    width,
		Channels: imgio.Channels,
	}
	for i := range img.Pix {
		img.Pix[i] = float64((seed + i*7) % 256)
	}
	require.NoError(t, imgio.Save(img, path))
	return img
}

// flatImageDir creates a directory of 4x3 PNGs with the given names and
// returns the directory plus the written pixel arrays keyed by absolute
// path.
func flatImageDir(t *testing.T, names ...string) (string, map[string]imgio.Image) {
	t.Helper()
	dir := t.TempDir()
	written := make(map[string]imgio.Image, len(names))
	for i, name := range names {
		path := filepath.Join(dir, name)
		written[path] = writePNG(t, path, 4, 3, 10+i*31)
	}
	return dir, written
}
