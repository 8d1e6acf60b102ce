package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mwi/internal/model"
	"mwi/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir() + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// checkerboardPNG builds a small synthetic image with sharp edges (for
// edge-density classification) and encodes it as PNG bytes.
func checkerboardPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/4+y/4)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func flatPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecode_PNG(t *testing.T) {
	data := flatPNG(t, 16, 16, color.RGBA{R: 200, G: 50, B: 50, A: 255})
	img, format, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 16, img.Bounds().Dx())
}

func TestDecode_UnrecognizedFormat(t *testing.T) {
	_, _, err := Decode([]byte("not an image"))
	assert.Error(t, err)
}

func TestPerceptualHash_IdenticalImagesMatch(t *testing.T) {
	img1 := image.NewRGBA(image.Rect(0, 0, 32, 32))
	img2 := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			c := color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 0, A: 255}
			img1.Set(x, y, c)
			img2.Set(x, y, c)
		}
	}
	h1 := PerceptualHash(img1)
	h2 := PerceptualHash(img2)
	assert.Equal(t, h1, h2)
	assert.Equal(t, 0, HammingDistance(h1, h2))
}

func TestPerceptualHash_DifferentImagesDiffer(t *testing.T) {
	// An average hash of any flat image is all ones whatever its shade, so
	// the two images differ in layout: dark left half versus dark right half.
	leftDark := image.NewRGBA(image.Rect(0, 0, 32, 32))
	rightDark := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			if x < 16 {
				leftDark.Set(x, y, color.Black)
				rightDark.Set(x, y, color.White)
			} else {
				leftDark.Set(x, y, color.White)
				rightDark.Set(x, y, color.Black)
			}
		}
	}
	h1 := PerceptualHash(leftDark)
	h2 := PerceptualHash(rightDark)
	assert.NotEqual(t, h1, h2)
	assert.True(t, HammingDistance(h1, h2) > 0)
}

func TestHammingDistance_MalformedInputIsMaximallyDifferent(t *testing.T) {
	assert.Equal(t, 64, HammingDistance("not-a-hash", "0000000000000000"))
}

func TestDominantColors_FlatImageYieldsSingleSwatch(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 200, B: 10, A: 255})
		}
	}
	swatches := DominantColors(img, 3)
	require.NotEmpty(t, swatches)
	assert.InDelta(t, 100, swatches[0].Percentage, 1.0)
	assert.Equal(t, "#0ac80a", swatches[0].Hex)
}

func TestWebSafePalette_ContainsNamedColors(t *testing.T) {
	palette := WebSafePalette()
	assert.Equal(t, "#000000", palette["black"])
	assert.Equal(t, "#ffffff", palette["white"])
}

func TestColorModeOf_OpaqueRGBAReportsRGB(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, color.RGBA{R: 1, G: 2, B: 3, A: 255})
		}
	}
	mode, transparent := colorModeOf(img)
	assert.Equal(t, "rgb", mode)
	assert.False(t, transparent)
}

func TestColorModeOf_TransparentPixelReportsRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, color.RGBA{R: 1, G: 2, B: 3, A: 0})
		}
	}
	mode, transparent := colorModeOf(img)
	assert.Equal(t, "rgba", mode)
	assert.True(t, transparent)
}

func TestColorModeOf_GrayImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	mode, transparent := colorModeOf(img)
	assert.Equal(t, "grayscale", mode)
	assert.False(t, transparent)
}

func TestContentHints_FlatImageLooksLikeLogo(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.Gray{Y: 128})
		}
	}
	hints := ContentHints(img, DefaultContentHintThresholds())
	assert.Contains(t, hints, "logo")
}

func TestContentHints_HighEdgeDensityLooksLikeText(t *testing.T) {
	// 2x2-pixel squares: a 1-pixel checkerboard cancels out under the 3x3
	// Sobel kernel (both sides of every pixel have the same shade).
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			if (x/2+y/2)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	hints := ContentHints(img, DefaultContentHintThresholds())
	assert.Contains(t, hints, "text")
}

func TestIsDenied(t *testing.T) {
	cases := map[string]bool{
		"https://example.com/photo.jpg":                   false,
		"https://pagead2.googlesyndication.com/pixel.gif": true,
		"https://doubleclick.net/ad":                       true,
		"https://example.com/track/open.gif":               true,
		"https://example.com/ads/banner.png":                true,
	}
	for url, want := range cases {
		assert.Equal(t, want, IsDenied(url), url)
	}
}

func TestExtractEXIF_NonImageReturnsNil(t *testing.T) {
	assert.Nil(t, ExtractEXIF([]byte("garbage")))
}

func TestAnalyzer_AnalyzeLand_HappyPath(t *testing.T) {
	data := checkerboardPNG(t, 64, 64)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer server.Close()

	s := newTestStore(t)
	land, err := s.CreateLand("test", "desc", "en")
	require.NoError(t, err)
	expr, err := s.UpsertExpression(land.ID, "https://example.com/page", 0)
	require.NoError(t, err)
	_, err = s.UpsertMedia(expr.ID, server.URL+"/image.png", model.MediaImage)
	require.NoError(t, err)

	a := NewAnalyzer(s, Config{
		MaxFileSizeBytes: 1 << 20,
		MinWidth:         1,
		MinHeight:        1,
		Retries:          1,
		DominantColorsK:  3,
		Thresholds:       DefaultContentHintThresholds(),
	})

	processed, errored, err := a.AnalyzeLand(context.Background(), land.ID, false, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 0, errored)

	media, err := s.ListMedia(expr.ID, false)
	require.NoError(t, err)
	require.Len(t, media, 1)
	assert.Equal(t, 64, media[0].Width)
	assert.Equal(t, "png", media[0].Format)
	assert.NotEmpty(t, media[0].PerceptualHash)
	assert.NotNil(t, media[0].AnalyzedAt)
}

func TestAnalyzer_AnalyzeLand_RejectsTooSmall(t *testing.T) {
	data := flatPNG(t, 4, 4, color.White)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer server.Close()

	s := newTestStore(t)
	land, err := s.CreateLand("test", "desc", "en")
	require.NoError(t, err)
	expr, err := s.UpsertExpression(land.ID, "https://example.com/page", 0)
	require.NoError(t, err)
	_, err = s.UpsertMedia(expr.ID, server.URL+"/tiny.png", model.MediaImage)
	require.NoError(t, err)

	a := NewAnalyzer(s, Config{
		MaxFileSizeBytes: 1 << 20,
		MinWidth:         100,
		MinHeight:        100,
		Retries:          0,
		DominantColorsK:  3,
		Thresholds:       DefaultContentHintThresholds(),
	})

	processed, errored, err := a.AnalyzeLand(context.Background(), land.ID, false, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, errored)

	media, err := s.ListMedia(expr.ID, false)
	require.NoError(t, err)
	require.Len(t, media, 1)
	assert.NotEmpty(t, media[0].AnalysisError)
	require.NotNil(t, media[0].AnalyzedAt, "a failed analysis must still set analyzed_at so it isn't re-downloaded every run")

	unanalyzed, err := s.ListMedia(expr.ID, true)
	require.NoError(t, err)
	assert.Empty(t, unanalyzed, "a row with analyzed_at set must not be re-selected as unanalyzed")
}

func TestAnalyzer_AnalyzeLand_SkipsDeniedURL(t *testing.T) {
	s := newTestStore(t)
	land, err := s.CreateLand("test", "desc", "en")
	require.NoError(t, err)
	expr, err := s.UpsertExpression(land.ID, "https://example.com/page", 0)
	require.NoError(t, err)
	_, err = s.UpsertMedia(expr.ID, "https://doubleclick.net/pixel.gif", model.MediaImage)
	require.NoError(t, err)

	a := NewAnalyzer(s, Config{MinWidth: 1, MinHeight: 1, DominantColorsK: 3, Thresholds: DefaultContentHintThresholds()})
	processed, errored, err := a.AnalyzeLand(context.Background(), land.ID, false, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, errored)
}
