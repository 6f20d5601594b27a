package ingest

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsIncrement(t *testing.T) {
	before := testutil.ToFloat64(ScrapesTotal)
	ScrapesTotal.Inc()
	if got := testutil.ToFloat64(ScrapesTotal); got != before+1 {
		t.Fatalf("expected scrapes counter %f, got %f", before+1, got)
	}

	hybrid := RecommendationQueries.WithLabelValues("hybrid")
	before = testutil.ToFloat64(hybrid)
	hybrid.Inc()
	if got := testutil.ToFloat64(hybrid); got != before+1 {
		t.Fatalf("expected hybrid counter %f, got %f", before+1, got)
	}
}
