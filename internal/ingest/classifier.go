package ingest

import "strings"

// Classify infers a coarse source type from a URL. It is total and
// deterministic: rules are checked in order, the first match wins, and
// anything unmatched is an article.
func Classify(url string) SourceType {
	lower := strings.ToLower(url)

	switch {
	case strings.Contains(lower, "arxiv.org"):
		return SourceTypePaper
	case strings.Contains(lower, "youtube.com"), strings.Contains(lower, "youtu.be"):
		return SourceTypeVideo
	case strings.Contains(lower, "podcast"), strings.Contains(lower, "podcasts."):
		return SourceTypePodcast
	default:
		return SourceTypeArticle
	}
}
