package wiki

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/wikimend/internal/model"
	"github.com/ppiankov/wikimend/internal/ratelimit"
)

// fakeWiki is a minimal MediaWiki API double: it hands out CSRF tokens,
// reports a fixed current revision, and records saved edits.
type fakeWiki struct {
	revID       string
	edits       int32
	lastTitle   string
	lastText    string
	lastSummary string
	failQuery   bool
	failEdit    bool
}

func (f *fakeWiki) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		switch {
		case r.Form.Get("meta") == "tokens":
			_, _ = w.Write([]byte(`{"query":{"tokens":{"csrftoken":"token+\\"}}}`))
		case r.Form.Get("action") == "query":
			if f.failQuery {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(`{"query":{"pages":[{"revisions":[{"revid":` + f.revID + `}]}]}}`))
		case r.Form.Get("action") == "edit":
			atomic.AddInt32(&f.edits, 1)
			f.lastTitle = r.Form.Get("title")
			f.lastText = r.Form.Get("text")
			f.lastSummary = r.Form.Get("summary")
			if f.failEdit {
				_, _ = w.Write([]byte(`{"edit":{"result":"Failure"}}`))
				return
			}
			_, _ = w.Write([]byte(`{"edit":{"result":"Success"}}`))
		default:
			http.NotFound(w, r)
		}
	})
}

func newTestPushService(endpoint string, perHour int) *PushService {
	cfg := model.WikipediaConfig{
		APIEndpoint:       endpoint,
		EditSummarySuffix: "([[User:WikimendBot|bot]])",
	}
	client := NewClient(cfg, model.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "wikimend-test"})
	s := NewPushService(client, ratelimit.NewSubmissionLimiter(perHour), cfg)
	s.nowFunc = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func testArticle() model.Article {
	return model.Article{
		Title:      "Laksa",
		Wikitext:   "Laksa is a spicy noodle soup.",
		RevisionID: "42",
	}
}

func TestPush_Success(t *testing.T) {
	fake := &fakeWiki{revID: "42"}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	s := newTestPushService(server.URL, 10)
	accepted := []model.ProposedEdit{{Kind: model.EditCitationAdd}}

	err := s.Push(context.Background(), testArticle(), "Laksa is a spicy noodle soup.<ref>x</ref>", accepted)
	if err != nil {
		t.Fatalf("Expected push to succeed, got %v", err)
	}
	if atomic.LoadInt32(&fake.edits) != 1 {
		t.Fatalf("Expected one save, got %d", fake.edits)
	}
	if fake.lastTitle != "Laksa" {
		t.Errorf("Expected edit to target Laksa, got %q", fake.lastTitle)
	}
	if !strings.Contains(fake.lastText, "<ref>") {
		t.Errorf("Expected composed text submitted verbatim, got %q", fake.lastText)
	}
	if !strings.HasPrefix(fake.lastSummary, "Copyedit:") {
		t.Errorf("Expected a copyedit summary, got %q", fake.lastSummary)
	}
}

func TestPush_NoAcceptedEdits(t *testing.T) {
	s := newTestPushService("http://unused.invalid", 10)

	if err := s.Push(context.Background(), testArticle(), "text", nil); err == nil {
		t.Error("Expected an error with no accepted edits")
	}
}

func TestPush_RateLimited(t *testing.T) {
	fake := &fakeWiki{revID: "42"}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	s := newTestPushService(server.URL, 1)
	accepted := []model.ProposedEdit{{Kind: model.EditGrammarFix}}

	if err := s.Push(context.Background(), testArticle(), "text", accepted); err != nil {
		t.Fatalf("Expected first push to succeed, got %v", err)
	}
	err := s.Push(context.Background(), testArticle(), "text", accepted)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited, got %v", err)
	}
	if atomic.LoadInt32(&fake.edits) != 1 {
		t.Errorf("Expected the second push stopped before saving, got %d saves", fake.edits)
	}
}

func TestPush_Conflict(t *testing.T) {
	fake := &fakeWiki{revID: "43"}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	s := newTestPushService(server.URL, 10)
	accepted := []model.ProposedEdit{{Kind: model.EditGrammarFix}}

	err := s.Push(context.Background(), testArticle(), "text", accepted)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict when the revision moved, got %v", err)
	}
	if atomic.LoadInt32(&fake.edits) != 0 {
		t.Errorf("Expected no save on conflict, got %d", fake.edits)
	}
	if got := s.limiter.Remaining(s.nowFunc()); got != 10 {
		t.Errorf("Expected a conflicted push to leave every slot open, got %d remaining", got)
	}
}

func TestPush_FailedSaveReturnsSlot(t *testing.T) {
	fake := &fakeWiki{revID: "42", failEdit: true}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	s := newTestPushService(server.URL, 1)
	accepted := []model.ProposedEdit{{Kind: model.EditGrammarFix}}

	if err := s.Push(context.Background(), testArticle(), "text", accepted); err == nil {
		t.Fatal("Expected the failed save to surface an error")
	}
	if got := s.limiter.Remaining(s.nowFunc()); got != 1 {
		t.Errorf("Expected the slot returned after a failed save, got %d remaining", got)
	}

	fake.failEdit = false
	if err := s.Push(context.Background(), testArticle(), "text", accepted); err != nil {
		t.Errorf("Expected the retry to succeed on the returned slot, got %v", err)
	}
}

func TestHasConflict_ErrorCountsAsConflict(t *testing.T) {
	fake := &fakeWiki{revID: "42", failQuery: true}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	s := newTestPushService(server.URL, 10)

	if !s.HasConflict(context.Background(), "Laksa", "42") {
		t.Error("Expected an unreadable revision to count as a conflict")
	}
}

func TestEditSummary(t *testing.T) {
	s := newTestPushService("http://unused.invalid", 10)

	accepted := []model.ProposedEdit{
		{Kind: model.EditCitationAdd},
		{Kind: model.EditCitationAdd},
		{Kind: model.EditGrammarFix},
		{Kind: model.EditWikilinkAdd},
	}
	summary := s.EditSummary(accepted)

	if !strings.Contains(summary, "added 2 citations") {
		t.Errorf("Expected pluralized citation count, got %q", summary)
	}
	if !strings.Contains(summary, "1 wikilink") || strings.Contains(summary, "wikilinks") {
		t.Errorf("Expected singular wikilink, got %q", summary)
	}
	if !strings.Contains(summary, "fixed grammar") {
		t.Errorf("Expected grammar mention, got %q", summary)
	}
	if !strings.HasSuffix(summary, "([[User:WikimendBot|bot]])") {
		t.Errorf("Expected the configured suffix, got %q", summary)
	}
}

func TestPreviewDiff(t *testing.T) {
	article := testArticle()
	diff := PreviewDiff(article, "Laksa is a spicy noodle soup.<ref>x</ref>")

	if diff == "" {
		t.Fatal("Expected a non-empty diff")
	}
	if !strings.Contains(diff, "-Laksa is a spicy noodle soup.") {
		t.Errorf("Expected the original line marked removed, got %q", diff)
	}
	if !strings.Contains(diff, "+Laksa is a spicy noodle soup.<ref>x</ref>") {
		t.Errorf("Expected the modified line marked added, got %q", diff)
	}
	if diff := PreviewDiff(article, article.Wikitext); diff != "" {
		t.Errorf("Expected empty diff for identical text, got %q", diff)
	}
}
