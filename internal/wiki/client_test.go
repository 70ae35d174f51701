package wiki

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ppiankov/wikimend/internal/model"
)

func newTestClient(endpoint string) *Client {
	return NewClient(
		model.WikipediaConfig{APIEndpoint: endpoint},
		model.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "wikimend-test"},
	)
}

func TestClient_FetchPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("titles"); got != "Laksa" {
			t.Errorf("Expected titles=Laksa, got %q", got)
		}
		_, _ = w.Write([]byte(`{
			"query": {
				"pages": [
					{
						"title": "Laksa",
						"categories": [{"title": "Category:Soups"}, {"title": "Category:Malaysian cuisine"}],
						"protection": [{"type": "edit"}],
						"revisions": [
							{"revid": 12345, "slots": {"main": {"content": "Laksa is a spicy noodle soup."}}}
						]
					}
				]
			}
		}`))
	}))
	defer server.Close()

	page, err := newTestClient(server.URL).FetchPage(context.Background(), "Laksa")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if page.Title != "Laksa" {
		t.Errorf("Expected title Laksa, got %q", page.Title)
	}
	if page.Wikitext != "Laksa is a spicy noodle soup." {
		t.Errorf("Expected wikitext, got %q", page.Wikitext)
	}
	if page.RevisionID != "12345" {
		t.Errorf("Expected revision 12345, got %q", page.RevisionID)
	}
	if len(page.Categories) != 2 || page.Categories[0] != "Soups" {
		t.Errorf("Expected category prefixes trimmed, got %v", page.Categories)
	}
	if !page.Protected {
		t.Error("Expected edit protection detected")
	}
	if page.Missing || page.Redirect {
		t.Errorf("Expected neither missing nor redirect, got %+v", page)
	}
}

func TestClient_FetchPageMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"query": {"pages": [{"title": "Nonexistent", "missing": true}]}}`))
	}))
	defer server.Close()

	page, err := newTestClient(server.URL).FetchPage(context.Background(), "Nonexistent")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !page.Missing {
		t.Error("Expected missing flag set")
	}
}

func TestClient_CategoryMembers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("cmtitle"); got != "Category:Articles lacking sources" {
			t.Errorf("Expected prefixed category title, got %q", got)
		}
		if got := q.Get("cmnamespace"); got != "0" {
			t.Errorf("Expected article namespace only, got %q", got)
		}
		_, _ = w.Write([]byte(`{"query": {"categorymembers": [{"title": "Laksa"}, {"title": "Rendang"}]}}`))
	}))
	defer server.Close()

	// The Category: prefix must not double up when the caller includes it.
	titles, err := newTestClient(server.URL).CategoryMembers(context.Background(), "Category:Articles lacking sources", 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(titles) != 2 || titles[0] != "Laksa" {
		t.Errorf("Expected member titles, got %v", titles)
	}
}

func TestClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).FetchPage(context.Background(), "Laksa"); err == nil {
		t.Error("Expected an error for a 503 response")
	}
}
