package datasets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advstage/imgio"
)

func TestSaveImagesRoundTrip(t *testing.T) {
	outDir := t.TempDir()
	images := []imgio.Image{
		writePNG(t, filepath.Join(t.TempDir(), "seed0.png"), 4, 3, 0),
		writePNG(t, filepath.Join(t.TempDir(), "seed1.png"), 4, 3, 50),
	}
	filenames := []string{"out0.png", "out1.png"}

	require.NoError(t, SaveImages(images, filenames, outDir))

	for i, name := range filenames {
		got, err := imgio.DecodeFloat(filepath.Join(outDir, name))
		require.NoError(t, err)
		assert.Equal(t, images[i].Pix, got.Pix)
	}
}

func TestSaveImagesTruncatesToFilenames(t *testing.T) {
	outDir := t.TempDir()
	images := make([]imgio.Image, 4)
	for i := range images {
		images[i] = writePNG(t, filepath.Join(t.TempDir(), "src.png"), 4, 3, i*17)
	}

	require.NoError(t, SaveImages(images, []string{"a.png", "b.png"}, outDir))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "only the first len(filenames) images are written")
}

func TestSaveImagesNoFilenames(t *testing.T) {
	outDir := t.TempDir()
	images := []imgio.Image{writePNG(t, filepath.Join(t.TempDir(), "src.png"), 4, 3, 9)}

	require.NoError(t, SaveImages(images, nil, outDir))
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveImagesFailurePropagates(t *testing.T) {
	images := []imgio.Image{writePNG(t, filepath.Join(t.TempDir(), "src.png"), 4, 3, 9)}

	err := SaveImages(images, []string{"a.png"}, filepath.Join(t.TempDir(), "missing", "deeper"))
	require.Error(t, err)
}

func TestSaveBatchImages(t *testing.T) {
	m := imageManifest(t, 3, false)
	batches, err := AssembleBatches(m, 3, AssembleOptions{})
	require.NoError(t, err)
	require.Len(t, batches, 1)

	outDir := t.TempDir()
	names := []string{"r0.png", "r1.png", "r2.png"}
	require.NoError(t, SaveImages(batches[0].Images.Split(), names, outDir))

	for i, name := range names {
		got, err := imgio.DecodeFloat(filepath.Join(outDir, name))
		require.NoError(t, err)
		assert.Equal(t, batches[0].Images.Image(i).Pix, got.Pix)
	}
}
