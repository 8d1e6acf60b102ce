// Package content parses a fetched page into an Expression's scalar
// fields, cleans its DOM, computes relevance, and discovers outlinks and
// media.
package content

// Denylist is the fixed set of tags stripped from the DOM before readable
// text extraction. Implementers MUST NOT narrow this list.
var Denylist = []string{
	"script", "style", "noscript", "nav", "footer", "header", "aside", "form", "iframe", "svg",
}

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true, "bmp": true, "svg": true,
}

var videoExtensions = map[string]bool{
	"mp4": true, "webm": true, "ogg": true, "ogv": true, "mov": true, "avi": true, "mkv": true,
}

var audioExtensions = map[string]bool{
	"mp3": true, "wav": true, "aac": true, "flac": true, "m4a": true,
}
