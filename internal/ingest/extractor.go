package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extractor pulls normalized metadata out of an HTML document.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses the document and returns its title, description and author.
// Fields the document does not declare stay nil; absence is not an error.
func (Extractor) Extract(html []byte) (Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return Metadata{}, fmt.Errorf("parse document: %w", err)
	}

	var meta Metadata
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		meta.Title = &title
	}
	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		meta.Description = &desc
	}
	if author, ok := doc.Find(`meta[name="author"]`).First().Attr("content"); ok {
		meta.Author = &author
	}
	return meta, nil
}
