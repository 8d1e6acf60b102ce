package media

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"mwi/internal/logging"
	"mwi/internal/model"
	"mwi/internal/store"
)

// Config controls the Analyzer's download and classification behavior.
type Config struct {
	MaxFileSizeBytes int64
	MinWidth         int
	MinHeight        int
	Retries          int
	InitialBackoff   time.Duration // defaults to 1s when unset
	MaxBackoff       time.Duration // defaults to 8s when unset
	DominantColorsK  int
	Thresholds       ContentHintThresholds
	UserAgent        string
}

// Analyzer downloads and analyzes Media rows discovered by the content
// pipeline.
type Analyzer struct {
	Store  *store.Store
	Config Config
	client *http.Client
}

// NewAnalyzer builds an Analyzer with a download client that times out
// each request after 30 seconds.
func NewAnalyzer(s *store.Store, cfg Config) *Analyzer {
	return &Analyzer{
		Store:  s,
		Config: cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// ErrTooSmall indicates an image falls below the configured minimum
// dimensions and was rejected rather than stored as analyzed.
var ErrTooSmall = fmt.Errorf("media: image below minimum dimensions")

// Options narrows which Expressions' Media `land medianalyse` considers.
type Options struct {
	MaxDepth     *int
	MinRelevance *int
}

// AnalyzeLand runs analysis over every unanalyzed Media row belonging to
// the Land's Expressions. reanalyze, when true, re-runs analysis over
// rows that already carry an analyzed_at timestamp.
func (a *Analyzer) AnalyzeLand(ctx context.Context, landID int64, reanalyze bool, opts Options) (int, int, error) {
	exprs, err := a.Store.ListExpressions(store.ExpressionFilter{LandID: landID, MaxDepth: opts.MaxDepth, MinRelevance: opts.MinRelevance})
	if err != nil {
		return 0, 0, err
	}

	processed, errored := 0, 0
	for _, expr := range exprs {
		mediaRows, err := a.Store.ListMedia(expr.ID, !reanalyze)
		if err != nil {
			return processed, errored, err
		}
		for _, m := range mediaRows {
			if m.Kind != model.MediaImage {
				continue
			}
			processed++
			if err := a.analyzeOne(ctx, m); err != nil {
				errored++
				now := time.Now().UTC()
				m.AnalyzedAt = &now
				m.AnalysisError = err.Error()
				if saveErr := a.Store.SaveMedia(m); saveErr != nil {
					logging.MediaError("failed to persist analysis error for media %d: %v", m.ID, saveErr)
				}
				logging.MediaError("analysis failed for media %d (%s): %v", m.ID, m.URL, err)
			}
		}
	}
	return processed, errored, nil
}

func (a *Analyzer) analyzeOne(ctx context.Context, m *model.Media) error {
	if IsDenied(m.URL) {
		return fmt.Errorf("url matches deny pattern")
	}

	data, err := a.download(ctx, m.URL)
	if err != nil {
		return err
	}

	img, format, err := Decode(data)
	if err != nil {
		return err
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < a.Config.MinWidth || height < a.Config.MinHeight {
		return ErrTooSmall
	}

	m.Width = width
	m.Height = height
	m.Format = format
	m.FileSize = int64(len(data))
	m.AspectRatio = float64(width) / float64(height)
	m.ColorMode, m.HasTransparency = colorModeOf(img)
	m.PerceptualHash = PerceptualHash(img)
	m.DominantColors = DominantColors(img, a.Config.DominantColorsK)
	m.WebSafePalette = WebSafePalette()
	m.ContentTags = ContentHints(img, a.Config.Thresholds)
	m.EXIF = ExtractEXIF(data)

	now := time.Now().UTC()
	m.AnalyzedAt = &now
	m.AnalysisError = ""

	return a.Store.SaveMedia(m)
}

// download fetches image bytes, capping response size at
// MaxFileSizeBytes and retrying transient failures up to Retries times
// with exponential backoff.
func (a *Analyzer) download(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= a.Config.Retries; attempt++ {
		data, err := a.downloadOnce(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		logging.MediaDebug("download attempt %d/%d failed for %s: %v", attempt+1, a.Config.Retries+1, url, err)

		if attempt < a.Config.Retries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(a.backoff(attempt)):
			}
		}
	}
	return nil, lastErr
}

func (a *Analyzer) backoff(attempt int) time.Duration {
	initial := a.Config.InitialBackoff
	if initial <= 0 {
		initial = time.Second
	}
	max := a.Config.MaxBackoff
	if max <= 0 {
		max = 8 * time.Second
	}
	d := float64(initial) * math.Pow(2, float64(attempt))
	if d > float64(max) {
		d = float64(max)
	}
	return time.Duration(d)
}

func (a *Analyzer) downloadOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if a.Config.UserAgent != "" {
		req.Header.Set("User-Agent", a.Config.UserAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("non-2xx status %d", resp.StatusCode)
	}

	limit := a.Config.MaxFileSizeBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

