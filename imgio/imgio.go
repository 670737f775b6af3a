// Package imgio decodes image files into float pixel arrays and writes
// float pixel arrays back to image files.
//
// Pixel values are carried as float64 in [0, 255], row-major HWC layout
// with 3 channels (RGB). Decoding does no resizing and no normalization;
// it is a straight numeric conversion of the file contents.
package imgio

import (
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Channels is the number of color channels produced by DecodeFloat.
const Channels = 3

// Image is a decoded image: flat float64 pixel values in [0, 255],
// row-major, Height x Width x Channels.
type Image struct {
	Pix      []float64
	Height   int
	Width    int
	Channels int
}

// Size returns the number of float values in the image.
func (img Image) Size() int { return img.Height * img.Width * img.Channels }

// At returns the value of channel c at pixel (x, y).
func (img Image) At(x, y, c int) float64 {
	return img.Pix[(y*img.Width+x)*img.Channels+c]
}

// DecodeFloat reads the image file at path and converts it to a float64
// pixel array. The format is detected from the file contents (PNG and
// JPEG are registered). Alpha is dropped.
func DecodeFloat(path string) (Image, error) {
	src, err := imaging.Open(path)
	if err != nil {
		return Image{}, errors.Wrapf(err, "decoding %s", path)
	}
	bounds := src.Bounds()
	out := Image{
		Pix:      make([]float64, bounds.Dy()*bounds.Dx()*Channels),
		Height:   bounds.Dy(),
		Width:    bounds.Dx(),
		Channels: Channels,
	}
	pos := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := src.At(x, y).RGBA()
			out.Pix[pos] = float64(r >> 8)
			out.Pix[pos+1] = float64(g >> 8)
			out.Pix[pos+2] = float64(b >> 8)
			pos += Channels
		}
	}
	return out, nil
}

// Save encodes img and writes it to path. The encoder is chosen from the
// file extension (.png, .jpg, ...). Values are rounded and clamped to
// [0, 255] before encoding.
func Save(img Image, path string) error {
	if img.Channels != Channels {
		return errors.Errorf("cannot encode %d-channel image to %s, want %d channels", img.Channels, path, Channels)
	}
	if len(img.Pix) != img.Size() {
		return errors.Errorf("image for %s has %d values, dimensions %dx%dx%d require %d",
			path, len(img.Pix), img.Height, img.Width, img.Channels, img.Size())
	}
	dst := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	pos := 0
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			dst.SetNRGBA(x, y, color.NRGBA{
				R: clampByte(img.Pix[pos]),
				G: clampByte(img.Pix[pos+1]),
				B: clampByte(img.Pix[pos+2]),
				A: 0xFF,
			})
			pos += Channels
		}
	}
	if err := imaging.Save(dst, path); err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}
	return nil
}

func clampByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
