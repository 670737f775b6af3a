// Command stage resolves an image dataset directory, loads it into
// batches and reports what the downstream evaluation run will consume.
// It can also initialize a hierarchy-mode output tree and render a
// histogram of the true-label distribution.
//
// Label CSVs have rows of the form `name,label` (targets: `name,target`)
// where name is relative to the image directory; a header row is
// tolerated. The CSV parsing lives here on purpose: the datasets package
// only ever consumes ready-made label maps.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/must"
	"github.com/schollz/progressbar/v3"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"advstage/datasets"
)

func main() {
	dirFlag := flag.String("dir", "", "image dataset directory to resolve")
	modeFlag := flag.String("mode", "test", "directory layout: flat, flat_targeted, test, test_targeted or hierarchy")
	labelsFlag := flag.String("labels", "", "CSV with name,label rows (required for flat modes)")
	targetsFlag := flag.String("targets", "", "CSV with name,target rows (required for targeted modes)")
	batchSize := flag.Int("batch-size", 16, "number of samples per batch")
	maxSamples := flag.Int("max-samples", 0, "cap on samples to load (0 = all)")
	shared := flag.Bool("shared", false, "also stage batches into shared float64 tensors")
	streamSteps := flag.Int("stream", 0, "if >0, pull this many steps from the cyclic stream instead of bulk assembly")
	advDir := flag.String("adv-dir", "", "adversarial image directory mirrored on the clean tree (stream mode only)")
	initDir := flag.String("init-hierarchy", "", "initialize this directory with one subdirectory per class and exit if -dir is unset")
	plotPath := flag.String("plot", "", "write a histogram of true labels to this file (e.g. labels.png)")
	flag.Parse()

	if *initDir != "" {
		must.M(datasets.InitializeHierarchy(*initDir))
		log.Printf("initialized %s with %d class directories", *initDir, datasets.NumClasses)
		if *dirFlag == "" {
			return
		}
	}
	if *dirFlag == "" {
		flag.Usage()
		log.Fatal("-dir is required")
	}

	var labels, targets datasets.LabelMap
	if *labelsFlag != "" {
		labels = must.M1(loadLabelCSV(*labelsFlag, *dirFlag))
	}
	if *targetsFlag != "" {
		targets = must.M1(loadLabelCSV(*targetsFlag, *dirFlag))
	}

	manifest := must.M1(datasets.Resolve(*dirFlag, datasets.Mode(*modeFlag), labels, targets))
	log.Printf("resolved %d samples from %s (mode=%s targeted=%v)",
		manifest.Len(), *dirFlag, *modeFlag, manifest.Targeted)

	if *streamSteps > 0 {
		runStream(manifest, *batchSize, *dirFlag, *maxSamples, *advDir, *streamSteps)
	} else {
		runAssemble(manifest, *batchSize, *maxSamples, *shared)
	}

	if *plotPath != "" {
		must.M(plotLabelHistogram(manifest, *plotPath))
		log.Printf("wrote label histogram to %s", *plotPath)
	}
}

func runAssemble(manifest *datasets.Manifest, batchSize, maxSamples int, shared bool) {
	batches := must.M1(datasets.AssembleBatches(manifest, batchSize, datasets.AssembleOptions{
		MaxSamples: maxSamples,
		Shared:     shared,
	}))

	bar := progressbar.NewOptions(len(batches),
		progressbar.OptionSetDescription("staging"),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("batches"),
	)
	var values int
	for _, b := range batches {
		values += len(b.Images.Pix)
		if b.Targets != nil {
			values += len(b.Targets.Rows)
		}
		_ = bar.Add(1)
	}
	_ = bar.Close()
	fmt.Println()

	log.Printf("assembled %d batches, %s of staged float data (shared=%v)",
		len(batches), humanize.Bytes(uint64(values*8)), shared)
	if len(batches) > 0 {
		img := batches[0].Images
		log.Printf("batch image shape: [%d %d %d %d]", img.N, img.Height, img.Width, img.Channels)
	}
}

func runStream(manifest *datasets.Manifest, batchSize int, inputDir string, maxSamples int, advDir string, steps int) {
	stream := must.M1(datasets.NewStream(manifest, batchSize, inputDir, datasets.StreamOptions{
		MaxSamples: maxSamples,
		AdvDir:     advDir,
	}))

	bar := progressbar.NewOptions(steps,
		progressbar.OptionSetDescription("streaming"),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("steps"),
	)
	prevTotal := 0
	for i := 0; i < steps; i++ {
		step := must.M1(stream.Next())
		_ = bar.Add(1)
		if step.Total <= prevTotal {
			log.Printf("cycle wrapped at step %d", i+1)
		}
		prevTotal = step.Total
	}
	_ = bar.Close()
	fmt.Println()
	log.Printf("pulled %d stream steps of up to %d samples", steps, batchSize)
}

// loadLabelCSV reads name,label rows and keys them by absolute path under
// baseDir, the form the resolver looks labels up in.
func loadLabelCSV(path, baseDir string) (datasets.LabelMap, error) {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	m := make(datasets.LabelMap)
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(record) < 2 {
			return nil, fmt.Errorf("%s:%d: want at least 2 columns, got %d", path, line, len(record))
		}
		label, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			if line == 1 {
				// Header row.
				continue
			}
			return nil, fmt.Errorf("%s:%d: bad label %q: %w", path, line, record[1], err)
		}
		m[filepath.Join(absBase, strings.TrimSpace(record[0]))] = label
	}
	return m, nil
}

func plotLabelHistogram(manifest *datasets.Manifest, path string) error {
	values := make(plotter.Values, 0, manifest.Len())
	for _, label := range manifest.Labels() {
		if label != datasets.NoLabel {
			values = append(values, float64(label))
		}
	}
	if len(values) == 0 {
		return fmt.Errorf("manifest has no true labels to plot")
	}

	p := plot.New()
	p.Title.Text = "True label distribution"
	p.X.Label.Text = "class index"
	p.Y.Label.Text = "count"
	hist, err := plotter.NewHist(values, 50)
	if err != nil {
		return err
	}
	p.Add(hist)
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
