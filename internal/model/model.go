// Package model defines the persistent entities of the crawl engine per the
// data model: Land, Word, LandDictionary, Domain, Expression, ExpressionLink,
// and Media. Tag/TaggedContent are read-only to the core and are represented
// here only by the foreign keys the core must preserve on cascade delete.
package model

import "time"

// Land is a bounded research project: a name, language, dictionary, and
// seed URLs.
type Land struct {
	ID          int64
	Name        string
	Description string
	Lang        string // ISO language code, default "fr"
	CreatedAt   time.Time
}

// Word is a global vocabulary entry shared across Lands.
type Word struct {
	ID    int64
	Term  string // original surface form, unique
	Lemma string // stemmed form, indexed
}

// LandDictionary associates a Word with a Land, forming the weighted term
// set used to score that Land's Expressions.
type LandDictionary struct {
	LandID int64
	WordID int64
}

// Domain is a unique host with cached metadata.
type Domain struct {
	ID          int64
	Name        string // host, e.g. "example.com"
	FetchedAt   *time.Time
	HTTPStatus  string
	Title       string
	Keywords    string
	Description string
}

// Expression is a single crawled page URL within exactly one Land.
type Expression struct {
	ID          int64
	LandID      int64
	URL         string
	Depth       int
	Lang        string
	Title       string
	Description string
	Keywords    string
	Author      string
	PublishedAt *time.Time
	HTML        string // optional raw archive
	Readable    string // cleaned body, markdown-preferred
	Relevance   int
	DomainID    int64

	CreatedAt  time.Time
	FetchedAt  *time.Time
	ApprovedAt *time.Time
	ReadableAt *time.Time

	HTTPStatus string
}

// ExpressionLink is a directed edge between two Expressions of the same
// Land.
type ExpressionLink struct {
	ID       int64
	SourceID int64
	TargetID int64
}

// MediaKind enumerates the kinds of media the content pipeline discovers.
type MediaKind string

const (
	MediaImage MediaKind = "img"
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
)

// ColorSwatch is one entry of a Media's dominant-color palette.
type ColorSwatch struct {
	RGB        [3]uint8
	Hex        string
	H, S, V    float64
	Name       string
	Percentage float64
}

// Media is an image/video/audio reference discovered inside an Expression.
type Media struct {
	ID           int64
	ExpressionID int64
	URL          string
	Kind         MediaKind

	Width            int
	Height           int
	FileSize         int64
	Format           string
	ColorMode        string
	DominantColors   []ColorSwatch
	AspectRatio      float64
	HasTransparency  bool
	EXIF             map[string]string
	PerceptualHash   string
	WebSafePalette   map[string]string
	ContentTags      []string
	NSFWScore        float64
	AnalyzedAt       *time.Time
	AnalysisError    string
}
