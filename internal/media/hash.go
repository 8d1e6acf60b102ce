package media

import (
	"fmt"
	"image"
	"image/color"

	"github.com/nfnt/resize"
)

// PerceptualHash computes a 64-bit average hash: downscale to 8x8
// grayscale, threshold each pixel against the mean luminance, and pack
// the 64 bits into a 16-hex-digit string. No perceptual-hash library
// appears anywhere in the retrieval pack, so this is hand-rolled over the
// stdlib image types, with nfnt/resize for the downscale.
func PerceptualHash(img image.Image) string {
	small := resize.Resize(8, 8, img, resize.Lanczos3)

	var values [64]float64
	var sum float64
	i := 0
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			gray := grayValue(small.At(x, y))
			values[i] = gray
			sum += gray
			i++
		}
	}
	mean := sum / 64

	var bits uint64
	for i, v := range values {
		if v >= mean {
			bits |= 1 << uint(63-i)
		}
	}
	return fmt.Sprintf("%016x", bits)
}

func grayValue(c color.Color) float64 {
	gray := color.GrayModel.Convert(c).(color.Gray)
	return float64(gray.Y)
}

// HammingDistance counts differing bits between two 16-hex-digit
// perceptual hashes, for near-duplicate detection. Malformed input
// returns 64 (maximally different).
func HammingDistance(a, b string) int {
	av, aerr := parseHash(a)
	bv, berr := parseHash(b)
	if aerr != nil || berr != nil {
		return 64
	}
	xor := av ^ bv
	count := 0
	for xor != 0 {
		count++
		xor &= xor - 1
	}
	return count
}

func parseHash(s string) (uint64, error) {
	var v uint64
	_, err := fmt.Sscanf(s, "%016x", &v)
	return v, err
}
