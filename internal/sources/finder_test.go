package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ppiankov/wikimend/internal/model"
)

const crossrefPayload = `{
	"message": {
		"items": [
			{
				"title": ["On Noodle Soups"],
				"DOI": "10.1000/182",
				"URL": "https://publisher.example/paper",
				"type": "journal-article",
				"publisher": "Journal of Food Studies",
				"author": [{"given": "Jane", "family": "Smith"}],
				"published": {"date-parts": [[2019, 3, 4]]}
			}
		]
	}
}`

const semanticPayload = `{
	"data": [
		{
			"title": "Tabloid Findings",
			"url": "https://dailymail.co.uk/science/article",
			"year": 2020,
			"venue": "Misc",
			"authors": [{"name": "Bob Jones"}],
			"externalIds": {}
		}
	]
}`

func newTestFinder(crossrefURL, semanticURL string, reliabilityCheck bool) *Finder {
	f := NewFinder(
		model.SourcesConfig{
			SearchAPIs:       []string{"crossref", "semantic_scholar"},
			ReliabilityCheck: reliabilityCheck,
		},
		model.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "wikimend-test"},
		NewRegistry(nil),
	)
	f.crossrefURL = crossrefURL
	f.semanticURL = semanticURL
	return f
}

func TestFinder_CrossrefResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") == "" {
			t.Error("Expected a query parameter")
		}
		_, _ = w.Write([]byte(crossrefPayload))
	}))
	defer server.Close()

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer empty.Close()

	f := newTestFinder(server.URL, empty.URL, true)

	found, err := f.FindForClaim(context.Background(), "noodle soup history", 5)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("Expected 1 source, got %d", len(found))
	}

	src := found[0]
	if src.Title != "On Noodle Soups" {
		t.Errorf("Expected title from payload, got %q", src.Title)
	}
	if src.DOI != "10.1000/182" {
		t.Errorf("Expected DOI, got %q", src.DOI)
	}
	if src.URL != "https://doi.org/10.1000/182" {
		t.Errorf("Expected DOI link preferred over publisher URL, got %q", src.URL)
	}
	if src.Type != model.SourceJournal {
		t.Errorf("Expected journal type, got %s", src.Type)
	}
	if len(src.Authors) != 1 || src.Authors[0] != "Jane Smith" {
		t.Errorf("Expected joined author name, got %v", src.Authors)
	}
	if src.Date != "2019" {
		t.Errorf("Expected publication year, got %q", src.Date)
	}
	if src.Reliability != model.ReliabilityGenerally {
		t.Errorf("Expected DOI-bearing work rated generally reliable, got %s", src.Reliability)
	}
}

func TestFinder_FiltersDeprecatedOrigins(t *testing.T) {
	crossref := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message": {"items": []}}`))
	}))
	defer crossref.Close()

	semantic := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(semanticPayload))
	}))
	defer semantic.Close()

	strict := newTestFinder(crossref.URL, semantic.URL, true)
	found, err := strict.FindForClaim(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(found) != 0 {
		t.Errorf("Expected deprecated origin filtered out, got %v", found)
	}

	lax := newTestFinder(crossref.URL, semantic.URL, false)
	found, err = lax.FindForClaim(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(found) != 1 {
		t.Errorf("Expected result kept without the reliability check, got %d", len(found))
	}
}

func TestFinder_RanksMostReliableFirst(t *testing.T) {
	crossref := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(crossrefPayload))
	}))
	defer crossref.Close()

	semantic := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"data": [
				{
					"title": "Blog Summary",
					"url": "https://someone.medium.com/post",
					"year": 2021,
					"authors": [{"name": "Anon"}],
					"externalIds": {}
				}
			]
		}`))
	}))
	defer semantic.Close()

	f := newTestFinder(crossref.URL, semantic.URL, true)

	found, err := f.FindForClaim(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("Expected 2 sources, got %d", len(found))
	}
	if found[0].Reliability > found[1].Reliability {
		t.Errorf("Expected most reliable first, got %s then %s", found[0].Reliability, found[1].Reliability)
	}
	if found[0].Title != "On Noodle Soups" {
		t.Errorf("Expected the DOI-bearing journal ranked first, got %q", found[0].Title)
	}
}

func TestFinder_AllBackendsFailing(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	f := newTestFinder(broken.URL, broken.URL, true)

	if _, err := f.FindForClaim(context.Background(), "anything", 5); err == nil {
		t.Error("Expected an error when every backend fails")
	}
}

func TestFinder_CapsResults(t *testing.T) {
	crossref := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(crossrefPayload))
	}))
	defer crossref.Close()

	semantic := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"data": [
				{"title": "A", "url": "https://a.example/1", "year": 2020, "externalIds": {}},
				{"title": "B", "url": "https://b.example/2", "year": 2020, "externalIds": {}}
			]
		}`))
	}))
	defer semantic.Close()

	f := newTestFinder(crossref.URL, semantic.URL, true)

	found, err := f.FindForClaim(context.Background(), "anything", 2)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(found) != 2 {
		t.Errorf("Expected results capped at 2, got %d", len(found))
	}
}
