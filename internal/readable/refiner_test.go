package readable

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mwi/internal/dictionary"
	"mwi/internal/store"
)

type fakeExtractor struct {
	result    *Extraction
	err       error
	failTimes int
	calls     int
}

func (f *fakeExtractor) Extract(ctx context.Context, pageURL, html string) (*Extraction, error) {
	f.calls++
	if f.calls <= f.failTimes {
		return nil, errors.New("simulated extractor failure")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		AttemptTimeout: time.Second,
	}
}

func TestRefineLand_MergesAndSetsReadableAt(t *testing.T) {
	s := newTestStore(t)
	land, err := s.CreateLand("climat", "", "fr")
	require.NoError(t, err)

	expr, err := s.UpsertExpression(land.ID, "https://example.com/a", 0)
	require.NoError(t, err)
	now := time.Now().UTC()
	expr.FetchedAt = &now
	expr.Title = "Short"
	require.NoError(t, s.SaveExpression(expr))

	extractor := &fakeExtractor{result: &Extraction{Title: "A Much Better Title", Markdown: "le climat est important"}}
	r := &Refiner{Store: s, Extractor: extractor, Strategy: MergeSmart, Retry: fastRetryConfig(), BatchSize: 10}

	dict := dictionary.Build([]string{"climat"}, "fr")
	summary, err := r.RefineLand(context.Background(), land.ID, dict, "fr", Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Changed)
	assert.Equal(t, 0, summary.Errors)

	got, err := s.GetExpression(expr.ID)
	require.NoError(t, err)
	assert.Equal(t, "A Much Better Title", got.Title)
	assert.NotNil(t, got.ReadableAt)
	assert.Greater(t, got.Relevance, 0)
}

func TestRefineLand_RetriesThenSucceeds(t *testing.T) {
	s := newTestStore(t)
	land, err := s.CreateLand("climat", "", "fr")
	require.NoError(t, err)
	expr, err := s.UpsertExpression(land.ID, "https://example.com/a", 0)
	require.NoError(t, err)
	now := time.Now().UTC()
	expr.FetchedAt = &now
	require.NoError(t, s.SaveExpression(expr))

	extractor := &fakeExtractor{failTimes: 2, result: &Extraction{Title: "Recovered"}}
	r := &Refiner{Store: s, Extractor: extractor, Strategy: MergeSmart, Retry: fastRetryConfig(), BatchSize: 10}

	dict := dictionary.Build(nil, "fr")
	summary, err := r.RefineLand(context.Background(), land.ID, dict, "fr", Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Changed)
	assert.Equal(t, 3, extractor.calls)
}

func TestRefineLand_ExhaustedRetriesCountsAsError(t *testing.T) {
	s := newTestStore(t)
	land, err := s.CreateLand("climat", "", "fr")
	require.NoError(t, err)
	expr, err := s.UpsertExpression(land.ID, "https://example.com/a", 0)
	require.NoError(t, err)
	now := time.Now().UTC()
	expr.FetchedAt = &now
	require.NoError(t, s.SaveExpression(expr))

	extractor := &fakeExtractor{failTimes: 99}
	r := &Refiner{Store: s, Extractor: extractor, Strategy: MergeSmart, Retry: fastRetryConfig(), BatchSize: 10}

	dict := dictionary.Build(nil, "fr")
	summary, err := r.RefineLand(context.Background(), land.ID, dict, "fr", Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Errors)
}

func TestRefineLand_HarvestsMediaAndPreservesLinksWhenEmpty(t *testing.T) {
	s := newTestStore(t)
	land, err := s.CreateLand("climat", "", "fr")
	require.NoError(t, err)
	expr, err := s.UpsertExpression(land.ID, "https://example.com/a", 0)
	require.NoError(t, err)
	now := time.Now().UTC()
	expr.FetchedAt = &now
	require.NoError(t, s.SaveExpression(expr))

	other, err := s.UpsertExpression(land.ID, "https://example.com/existing-link", 1)
	require.NoError(t, err)
	require.NoError(t, s.AddLink(expr.ID, other.ID))

	extractor := &fakeExtractor{result: &Extraction{
		Title:  "Updated",
		Images: []string{"https://example.com/photo.jpg"},
		// Outlinks intentionally empty.
	}}
	r := &Refiner{Store: s, Extractor: extractor, Strategy: MergeSmart, Retry: fastRetryConfig(), BatchSize: 10}

	dict := dictionary.Build(nil, "fr")
	_, err = r.RefineLand(context.Background(), land.ID, dict, "fr", Options{})
	require.NoError(t, err)

	media, err := s.ListMedia(expr.ID, false)
	require.NoError(t, err)
	require.Len(t, media, 1)
	assert.Equal(t, "https://example.com/photo.jpg", media[0].URL)

	outlinks, err := s.Outlinks(expr.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{other.ID}, outlinks, "existing link graph survives an empty outlink harvest")
}
