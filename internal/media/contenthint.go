package media

import (
	"image"
	"math"
)

// ContentHintThresholds are the deterministic cutoffs used to classify
// an image's likely content, configurable but defaulted here.
type ContentHintThresholds struct {
	LogoMaxEntropy      float64
	ScreenshotMinEdges  float64
	TextMinEdgeDensity  float64
}

// DefaultContentHintThresholds mirrors the spec's suggested starting
// points for the entropy/edge-density heuristics.
func DefaultContentHintThresholds() ContentHintThresholds {
	return ContentHintThresholds{
		LogoMaxEntropy:     3.5,
		ScreenshotMinEdges: 0.15,
		TextMinEdgeDensity: 0.25,
	}
}

// ContentHints classifies an image deterministically via grayscale
// histogram entropy and Sobel-magnitude edge density — no ML model,
// purely arithmetic thresholds.
func ContentHints(img image.Image, th ContentHintThresholds) []string {
	gray := toGray(img)
	entropy := grayscaleEntropy(gray)
	edgeDensity := sobelEdgeDensity(gray)

	var hints []string
	if entropy <= th.LogoMaxEntropy {
		hints = append(hints, "logo")
	}
	if edgeDensity >= th.TextMinEdgeDensity {
		hints = append(hints, "text")
	} else if edgeDensity >= th.ScreenshotMinEdges {
		hints = append(hints, "screenshot")
	}
	if len(hints) == 0 {
		hints = append(hints, "photo")
	}
	return hints
}

func toGray(img image.Image) [][]float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([][]float64, h)
	for y := 0; y < h; y++ {
		out[y] = make([]float64, w)
		for x := 0; x < w; x++ {
			out[y][x] = grayValue(img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}

func grayscaleEntropy(gray [][]float64) float64 {
	var histogram [256]int
	total := 0
	for _, row := range gray {
		for _, v := range row {
			bucket := int(v)
			if bucket > 255 {
				bucket = 255
			}
			histogram[bucket]++
			total++
		}
	}
	if total == 0 {
		return 0
	}

	entropy := 0.0
	for _, count := range histogram {
		if count == 0 {
			continue
		}
		p := float64(count) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// sobelEdgeDensity returns the fraction of pixels whose Sobel gradient
// magnitude exceeds a fixed threshold.
func sobelEdgeDensity(gray [][]float64) float64 {
	h := len(gray)
	if h < 3 {
		return 0
	}
	w := len(gray[0])
	if w < 3 {
		return 0
	}

	const threshold = 80.0
	edges := 0
	total := 0

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := gray[y-1][x+1] + 2*gray[y][x+1] + gray[y+1][x+1] -
				(gray[y-1][x-1] + 2*gray[y][x-1] + gray[y+1][x-1])
			gy := gray[y+1][x-1] + 2*gray[y+1][x] + gray[y+1][x+1] -
				(gray[y-1][x-1] + 2*gray[y-1][x] + gray[y-1][x+1])
			magnitude := math.Sqrt(gx*gx + gy*gy)
			if magnitude >= threshold {
				edges++
			}
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(edges) / float64(total)
}
