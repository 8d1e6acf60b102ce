package media

import "regexp"

// DenyPatterns matches URLs that are almost certainly ads, trackers, or
// tracking pixels rather than meaningful content images.
var DenyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)doubleclick\.net`),
	regexp.MustCompile(`(?i)googlesyndication\.com`),
	regexp.MustCompile(`(?i)/ads?[/._-]`),
	regexp.MustCompile(`(?i)/pixel\.(gif|png|jpg)`),
	regexp.MustCompile(`(?i)/(track|beacon|analytics)[/._-]`),
	regexp.MustCompile(`(?i)facebook\.com/tr`),
}

// IsDenied reports whether url matches a known ad/tracker/pixel pattern.
func IsDenied(url string) bool {
	for _, p := range DenyPatterns {
		if p.MatchString(url) {
			return true
		}
	}
	return false
}
