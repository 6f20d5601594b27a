package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// DefaultISBNLookupURL resolves ISBN lookups against Open Library.
const DefaultISBNLookupURL = "https://openlibrary.org/isbn/%s"

// Scraper fetches a URL or ISBN and turns the response into a normalized
// metadata record. It owns the fetcher's lifecycle: callers must release it
// with Close on every exit path, success or failure.
type Scraper struct {
	fetcher       Fetcher
	extractor     *Extractor
	isbnLookupURL string
	logger        *zap.Logger
}

// ScraperOption customizes a Scraper.
type ScraperOption func(*Scraper)

// WithISBNLookupURL overrides the bibliographic lookup template. The template
// must contain one %s verb for the ISBN.
func WithISBNLookupURL(template string) ScraperOption {
	return func(s *Scraper) { s.isbnLookupURL = template }
}

// NewScraper builds a Scraper around the given fetcher.
func NewScraper(fetcher Fetcher, logger *zap.Logger, opts ...ScraperOption) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scraper{
		fetcher:       fetcher,
		extractor:     NewExtractor(),
		isbnLookupURL: DefaultISBNLookupURL,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScrapeURL fetches the page and returns its metadata, annotated with the
// originating URL and a classified source type.
func (s *Scraper) ScrapeURL(ctx context.Context, url string) (Metadata, error) {
	s.logger.Info("scraping url", zap.String("url", url))

	meta, err := s.scrape(ctx, url)
	if err != nil {
		ScrapeErrors.Inc()
		return Metadata{}, fmt.Errorf("scrape url %s: %w", url, err)
	}
	meta.URL = url
	meta.SourceType = Classify(url)
	ScrapesTotal.Inc()
	return meta, nil
}

// ScrapeISBN resolves the ISBN via the configured bibliographic source and
// returns its metadata. ISBN lookups are always books.
func (s *Scraper) ScrapeISBN(ctx context.Context, isbn string) (Metadata, error) {
	s.logger.Info("scraping isbn", zap.String("isbn", isbn))

	meta, err := s.scrape(ctx, fmt.Sprintf(s.isbnLookupURL, isbn))
	if err != nil {
		ScrapeErrors.Inc()
		return Metadata{}, fmt.Errorf("scrape isbn %s: %w", isbn, err)
	}
	meta.ISBN = isbn
	meta.SourceType = SourceTypeBook
	ScrapesTotal.Inc()
	return meta, nil
}

func (s *Scraper) scrape(ctx context.Context, url string) (Metadata, error) {
	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return Metadata{}, err
	}
	return s.extractor.Extract(body)
}

// Close releases the fetcher's transport.
func (s *Scraper) Close() {
	s.fetcher.Close()
}
