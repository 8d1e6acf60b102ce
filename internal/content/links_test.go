package content

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestCrawlable(t *testing.T) {
	assert.True(t, Crawlable(mustParseURL(t, "https://example.com/page")))
	assert.False(t, Crawlable(mustParseURL(t, "mailto:a@b.com")))
	assert.False(t, Crawlable(mustParseURL(t, "javascript:void(0)")))
	assert.False(t, Crawlable(mustParseURL(t, "data:text/plain;base64,abc")))
	assert.False(t, Crawlable(mustParseURL(t, "tel:+1234")))
	assert.False(t, Crawlable(nil))
}

func TestNormalize_StripsFragmentAndLowersSchemeHost(t *testing.T) {
	got := Normalize(mustParseURL(t, "HTTPS://Example.COM/Path#section"))
	assert.Equal(t, "https://example.com/Path", got)
}

func TestOutlinks_DedupesAndFiltersUncrawlable(t *testing.T) {
	html := `<html><body>
		<a href="/page1">one</a>
		<a href="/page1">dup</a>
		<a href="https://other.com/x">two</a>
		<a href="mailto:a@b.com">mail</a>
		<a href="javascript:void(0)">js</a>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	base := mustParseURL(t, "https://example.com/")
	links := Outlinks(doc, base)

	assert.ElementsMatch(t, []string{
		"https://example.com/page1",
		"https://other.com/x",
	}, links)
}

func TestMediaRefs_WhitelistsExtensionsByKind(t *testing.T) {
	html := `<html><body>
		<img src="/cat.jpg">
		<img src="/icon.ico">
		<video src="/clip.mp4"></video>
		<audio src="/song.mp3"></audio>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	base := mustParseURL(t, "https://example.com/")
	refs := MediaRefs(doc, base)

	assert.ElementsMatch(t, []MediaRef{
		{URL: "https://example.com/cat.jpg", Kind: "img"},
		{URL: "https://example.com/clip.mp4", Kind: "video"},
		{URL: "https://example.com/song.mp3", Kind: "audio"},
	}, refs)
}
