package crawl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mwi/internal/fetch"
)

func TestDomainEnricher_EnrichDomains_FillsMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(examplePage))
	}))
	defer server.Close()

	s := newTestStore(t)
	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	dom, err := s.GetOrCreateDomain(u.Host)
	require.NoError(t, err)

	e := &DomainEnricher{
		Store:   s,
		Fetcher: fetch.New(fetch.Config{Parallelism: 2, UserAgent: "test", TotalTimeout: 5 * time.Second, ConnectTimeout: time.Second}),
	}

	summary, err := e.EnrichDomains(context.Background(), DomainOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 0, summary.Errors)

	got, err := s.GetDomain(dom.ID)
	require.NoError(t, err)
	assert.Equal(t, "Glacier Report", got.Title)
	assert.NotNil(t, got.FetchedAt)
}

func TestDomainEnricher_EnrichDomains_RecordsFailureStatus(t *testing.T) {
	s := newTestStore(t)
	dom, err := s.GetOrCreateDomain("unroutable.invalid.test")
	require.NoError(t, err)

	e := &DomainEnricher{
		Store:   s,
		Fetcher: fetch.New(fetch.Config{Parallelism: 2, UserAgent: "test", TotalTimeout: time.Second, ConnectTimeout: time.Second}),
	}

	summary, err := e.EnrichDomains(context.Background(), DomainOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)

	got, err := s.GetDomain(dom.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.FetchedAt)
	assert.Empty(t, got.Title)
}
