package datasets

import (
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"advstage/imgio"
)

// saveWorkers bounds the encode pool, fresh for every SaveImages call.
const saveWorkers = 2

// SaveImages writes images[i] to outputDir/filenames[i] concurrently.
// When filenames is shorter than images only the first len(filenames)
// images are written; the surplus is dropped silently. The first
// encode or write failure fails the call.
func SaveImages(images []imgio.Image, filenames []string, outputDir string) error {
	n := min(len(images), len(filenames))
	var g errgroup.Group
	g.SetLimit(saveWorkers)
	for i := 0; i < n; i++ {
		img, dest := images[i], filepath.Join(outputDir, filenames[i])
		g.Go(func() error {
			return imgio.Save(img, dest)
		})
	}
	return g.Wait()
}
