package engine

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/nfnt/resize"
)

// decodeImage decodes raw encoded image bytes carried in a string.
func decodeImage(raw string) (image.Image, error) {
	img, _, err := image.Decode(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// fillCHW resizes img to width x height and writes normalized RGB planes
// (channel-major, values in [0,1]) into dst, which must hold 3*width*height values.
func fillCHW(dst []float32, img image.Image, width, height int) error {
	plane := width * height
	if len(dst) < 3*plane {
		return fmt.Errorf("input tensor holds %d values, need %d", len(dst), 3*plane)
	}
	resized := resize.Resize(uint(width), uint(height), img, resize.Lanczos3)
	b := resized.Bounds()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, bl, _ := resized.At(b.Min.X+x, b.Min.Y+y).RGBA()
			i := y*width + x
			dst[i] = float32(r) / 65535.0
			dst[plane+i] = float32(g) / 65535.0
			dst[2*plane+i] = float32(bl) / 65535.0
		}
	}
	return nil
}
