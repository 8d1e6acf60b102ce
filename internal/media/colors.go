package media

import (
	"fmt"
	"image"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"

	"mwi/internal/model"
)

// DominantColors quantizes img's palette into k swatches via a k-means
// pass over a thumbnail (nfnt/resize keeps the clustering cost
// bounded), converting centroids with go-colorful for hex/HSV and
// nearest-named-color lookup.
func DominantColors(img image.Image, k int) []model.ColorSwatch {
	if k <= 0 {
		k = 5
	}
	thumb := resize.Thumbnail(100, 100, img, resize.Lanczos3)
	samples := collectSamples(thumb)
	if len(samples) == 0 {
		return nil
	}
	if k > len(samples) {
		k = len(samples)
	}

	centroids := kMeans(samples, k, 12)

	total := len(samples)
	swatches := make([]model.ColorSwatch, 0, len(centroids))
	for _, c := range centroids {
		if c.count == 0 {
			continue
		}
		cc := colorful.Color{R: c.r / 255, G: c.g / 255, B: c.b / 255}
		h, s, v := cc.Hsv()
		swatches = append(swatches, model.ColorSwatch{
			RGB:        [3]uint8{uint8(c.r), uint8(c.g), uint8(c.b)},
			Hex:        cc.Hex(),
			H:          h,
			S:          s,
			V:          v,
			Name:       nearestWebSafeName(cc),
			Percentage: float64(c.count) / float64(total) * 100,
		})
	}

	sort.Slice(swatches, func(i, j int) bool { return swatches[i].Percentage > swatches[j].Percentage })
	return swatches
}

type sample struct{ r, g, b float64 }

func collectSamples(img image.Image) []sample {
	b := img.Bounds()
	samples := make([]sample, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			samples = append(samples, sample{
				r: float64(r >> 8),
				g: float64(g >> 8),
				b: float64(bl >> 8),
			})
		}
	}
	return samples
}

type centroid struct {
	r, g, b float64
	count   int
}

// kMeans runs a fixed number of Lloyd's-algorithm iterations over pixel
// samples, seeding centroids evenly across the sample slice.
func kMeans(samples []sample, k, iterations int) []centroid {
	centroids := make([]centroid, k)
	step := len(samples) / k
	for i := range centroids {
		s := samples[i*step]
		centroids[i] = centroid{r: s.r, g: s.g, b: s.b}
	}

	assignments := make([]int, len(samples))
	for iter := 0; iter < iterations; iter++ {
		for i, s := range samples {
			best, bestDist := 0, -1.0
			for ci, c := range centroids {
				d := sqDist(s, c)
				if bestDist < 0 || d < bestDist {
					best, bestDist = ci, d
				}
			}
			assignments[i] = best
		}

		sums := make([]centroid, k)
		for i, s := range samples {
			c := assignments[i]
			sums[c].r += s.r
			sums[c].g += s.g
			sums[c].b += s.b
			sums[c].count++
		}
		for i := range centroids {
			if sums[i].count == 0 {
				continue
			}
			centroids[i] = centroid{
				r:     sums[i].r / float64(sums[i].count),
				g:     sums[i].g / float64(sums[i].count),
				b:     sums[i].b / float64(sums[i].count),
				count: sums[i].count,
			}
		}
	}
	return centroids
}

func sqDist(s sample, c centroid) float64 {
	dr, dg, db := s.r-c.r, s.g-c.g, s.b-c.b
	return dr*dr + dg*dg + db*db
}

var webSafePalette = map[string][3]uint8{
	"black":   {0, 0, 0},
	"white":   {255, 255, 255},
	"red":     {255, 0, 0},
	"green":   {0, 128, 0},
	"blue":    {0, 0, 255},
	"yellow":  {255, 255, 0},
	"cyan":    {0, 255, 255},
	"magenta": {255, 0, 255},
	"gray":    {128, 128, 128},
	"orange":  {255, 165, 0},
	"brown":   {165, 42, 42},
	"pink":    {255, 192, 203},
}

func nearestWebSafeName(c colorful.Color) string {
	best, bestDist := "", -1.0
	for name, rgb := range webSafePalette {
		other := colorful.Color{R: float64(rgb[0]) / 255, G: float64(rgb[1]) / 255, B: float64(rgb[2]) / 255}
		d := c.DistanceCIE94(other)
		if bestDist < 0 || d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

// WebSafePalette maps each named color to its canonical hex value, for
// the Media.WebSafePalette field.
func WebSafePalette() map[string]string {
	out := make(map[string]string, len(webSafePalette))
	for name, rgb := range webSafePalette {
		out[name] = fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2])
	}
	return out
}

// colorModeOf reports a short color-mode label for img's concrete pixel
// format and whether any sampled pixel carries partial transparency.
func colorModeOf(img image.Image) (mode string, hasTransparency bool) {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		mode = "grayscale"
	case *image.Paletted:
		mode = "indexed"
	case *image.CMYK:
		mode = "cmyk"
	default:
		mode = "rgb"
	}

	b := img.Bounds()
	stepX, stepY := sampleStep(b.Dx()), sampleStep(b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y += stepY {
		for x := b.Min.X; x < b.Max.X; x += stepX {
			_, _, _, a := img.At(x, y).RGBA()
			if a < 0xffff {
				hasTransparency = true
				if mode == "rgb" {
					mode = "rgba"
				}
				return
			}
		}
	}
	return
}

func sampleStep(dim int) int {
	if dim <= 1 {
		return 1
	}
	step := dim / 32
	if step < 1 {
		step = 1
	}
	return step
}
