package datasets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamCyclesAndResetsTotal(t *testing.T) {
	m := imageManifest(t, 5, false)
	dir := filepath.Dir(m.Samples[0].Path)

	stream, err := NewStream(m, 2, dir, StreamOptions{})
	require.NoError(t, err)

	wantTotals := []int{2, 4, 5, 2, 4, 5, 2}
	wantSizes := []int{2, 2, 1, 2, 2, 1, 2}
	for i := range wantTotals {
		step, err := stream.Next()
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, wantTotals[i], step.Total, "step %d total", i)
		assert.Equal(t, wantSizes[i], step.Batch.Len(), "step %d size", i)
		assert.Nil(t, step.Adversarial)
	}

	// The second cycle re-reads the same files in the same order.
	stream.Reset()
	step, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, m.Samples[0].Path, step.Batch.Names[0])
	assert.Equal(t, 2, step.Total)
}

func TestStreamMaxSamplesWindow(t *testing.T) {
	m := imageManifest(t, 5, false)
	dir := filepath.Dir(m.Samples[0].Path)

	stream, err := NewStream(m, 2, dir, StreamOptions{MaxSamples: 3})
	require.NoError(t, err)

	wantTotals := []int{2, 3, 2, 3}
	for i, want := range wantTotals {
		step, err := stream.Next()
		require.NoError(t, err)
		assert.Equal(t, want, step.Total, "step %d", i)
	}
	// Only the first three records are ever visited.
	step, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, m.Samples[0].Path, step.Batch.Names[0])
	assert.Equal(t, m.Samples[1].Path, step.Batch.Names[1])
}

func TestStreamTargeted(t *testing.T) {
	m := imageManifest(t, 3, true)
	dir := filepath.Dir(m.Samples[0].Path)

	stream, err := NewStream(m, 2, dir, StreamOptions{})
	require.NoError(t, err)

	step, err := stream.Next()
	require.NoError(t, err)
	require.NotNil(t, step.Batch.Targets)
	require.Equal(t, 2, step.Batch.Targets.N)
	row := step.Batch.Targets.Row(0)
	assert.Equal(t, 0.99001, row[m.Samples[0].Target])
	assert.Equal(t, 1e-5, row[0])
}

func TestStreamAdversarialPairing(t *testing.T) {
	m := imageManifest(t, 4, false)
	cleanDir := filepath.Dir(m.Samples[0].Path)

	// Mirror the clean tree with different pixel content.
	advDir := t.TempDir()
	advWritten := make(map[string][]float64)
	for _, s := range m.Samples {
		rel, err := filepath.Rel(cleanDir, s.Path)
		require.NoError(t, err)
		img := writePNG(t, filepath.Join(advDir, rel), 4, 3, 200)
		advWritten[rel] = img.Pix
	}

	stream, err := NewStream(m, 2, cleanDir, StreamOptions{AdvDir: advDir})
	require.NoError(t, err)

	step, err := stream.Next()
	require.NoError(t, err)
	require.NotNil(t, step.Adversarial)
	require.Equal(t, step.Batch.Len(), step.Adversarial.N)
	for i, name := range step.Batch.Names {
		rel, err := filepath.Rel(cleanDir, name)
		require.NoError(t, err)
		assert.Equal(t, advWritten[rel], step.Adversarial.Image(i).Pix,
			"adversarial image %d must come from the mirrored tree", i)
	}
}

func TestStreamAdversarialMissingFile(t *testing.T) {
	m := imageManifest(t, 2, false)
	cleanDir := filepath.Dir(m.Samples[0].Path)

	stream, err := NewStream(m, 2, cleanDir, StreamOptions{AdvDir: t.TempDir()})
	require.NoError(t, err)

	_, err = stream.Next()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewStreamValidation(t *testing.T) {
	m := imageManifest(t, 2, false)
	dir := filepath.Dir(m.Samples[0].Path)

	_, err := NewStream(m, 0, dir, StreamOptions{})
	assert.Error(t, err, "zero batch size")
	_, err = NewStream(&Manifest{}, 2, dir, StreamOptions{})
	assert.Error(t, err, "empty manifest")
}
