package datasets

import (
	"golang.org/x/sync/errgroup"

	"advstage/imgio"
)

// loadWorkers bounds the decode pool. Fixed and small regardless of input
// size; a fresh pool is spun up for every LoadImages call.
const loadWorkers = 4

// LoadImages decodes every path into a float pixel array, dispatching the
// decodes across loadWorkers goroutines. Results match the input order
// regardless of completion order. The first decode failure fails the
// whole call; there is no partial success.
func LoadImages(paths []string) ([]imgio.Image, error) {
	images := make([]imgio.Image, len(paths))
	var g errgroup.Group
	g.SetLimit(loadWorkers)
	for i, path := range paths {
		g.Go(func() error {
			img, err := imgio.DecodeFloat(path)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}
