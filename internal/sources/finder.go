package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/wikimend/internal/model"
	"github.com/ppiankov/wikimend/internal/util"
)

const (
	crossrefEndpoint        = "https://api.crossref.org/works"
	semanticScholarEndpoint = "https://api.semanticscholar.org/graph/v1/paper/search"
)

// Finder searches bibliographic APIs for sources that might verify an
// existing claim. Results are ranked by registry reliability; the
// guardrail engine treats them as untrusted until resolved.
type Finder struct {
	httpClient  *http.Client
	registry    *Registry
	config      model.SourcesConfig
	userAgent   string
	crossrefURL string
	semanticURL string
}

// NewFinder creates a source finder
func NewFinder(cfg model.SourcesConfig, httpCfg model.HTTPConfig, registry *Registry) *Finder {
	return &Finder{
		httpClient:  util.NewHTTPClient(httpCfg.Timeout, httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
		registry:    registry,
		config:      cfg,
		userAgent:   httpCfg.UserAgent,
		crossrefURL: crossrefEndpoint,
		semanticURL: semanticScholarEndpoint,
	}
}

// FindForClaim queries the configured search APIs for sources matching
// a claim, filters deprecated origins, and returns up to maxResults
// ranked most-reliable first.
func (f *Finder) FindForClaim(ctx context.Context, claim string, maxResults int) ([]model.Source, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	var all []model.Source
	var errs []string
	for _, api := range f.config.SearchAPIs {
		var (
			found []model.Source
			err   error
		)
		switch api {
		case "crossref":
			found, err = f.searchCrossref(ctx, claim, maxResults)
		case "semantic_scholar":
			found, err = f.searchSemanticScholar(ctx, claim, maxResults)
		default:
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", api, err))
			continue
		}
		all = append(all, found...)
	}

	if len(all) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("source search failed: %s", strings.Join(errs, "; "))
	}

	if f.config.ReliabilityCheck {
		kept := all[:0]
		for _, s := range all {
			if s.Reliability != model.ReliabilityDeprecated {
				kept = append(kept, s)
			}
		}
		all = kept
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Reliability < all[j].Reliability
	})

	if len(all) > maxResults {
		all = all[:maxResults]
	}
	return all, nil
}

// searchCrossref queries the Crossref works API
func (f *Finder) searchCrossref(ctx context.Context, query string, rows int) ([]model.Source, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("rows", strconv.Itoa(rows))
	if f.config.CrossrefEmail != "" {
		params.Set("mailto", f.config.CrossrefEmail)
	}

	var payload struct {
		Message struct {
			Items []struct {
				Title     []string `json:"title"`
				DOI       string   `json:"DOI"`
				URL       string   `json:"URL"`
				Type      string   `json:"type"`
				Publisher string   `json:"publisher"`
				Author    []struct {
					Given  string `json:"given"`
					Family string `json:"family"`
				} `json:"author"`
				Published struct {
					DateParts [][]int `json:"date-parts"`
				} `json:"published"`
			} `json:"items"`
		} `json:"message"`
	}
	if err := f.getJSON(ctx, f.crossrefURL+"?"+params.Encode(), nil, &payload); err != nil {
		return nil, err
	}

	var out []model.Source
	for _, item := range payload.Message.Items {
		var authors []string
		for _, a := range item.Author {
			switch {
			case a.Given != "" && a.Family != "":
				authors = append(authors, a.Given+" "+a.Family)
			case a.Family != "":
				authors = append(authors, a.Family)
			}
		}

		srcType := model.SourceWeb
		if strings.Contains(strings.ToLower(item.Type), "journal") {
			srcType = model.SourceJournal
		} else if strings.Contains(strings.ToLower(item.Type), "book") {
			srcType = model.SourceBook
		}

		date := ""
		if len(item.Published.DateParts) > 0 && len(item.Published.DateParts[0]) > 0 {
			date = strconv.Itoa(item.Published.DateParts[0][0])
		}

		link := item.URL
		if item.DOI != "" {
			link = "https://doi.org/" + item.DOI
		}

		title := ""
		if len(item.Title) > 0 {
			title = item.Title[0]
		}

		out = append(out, model.Source{
			Title:       title,
			URL:         link,
			Authors:     authors,
			Date:        date,
			DOI:         item.DOI,
			Publisher:   item.Publisher,
			Type:        srcType,
			Reliability: f.reliability(item.DOI, link),
		})
	}
	return out, nil
}

// searchSemanticScholar queries the Semantic Scholar paper search API
func (f *Finder) searchSemanticScholar(ctx context.Context, query string, limit int) ([]model.Source, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("fields", "title,authors,year,externalIds,url,venue")

	headers := map[string]string{}
	if f.config.SemanticScholarAPIKey != "" {
		headers["x-api-key"] = f.config.SemanticScholarAPIKey
	}

	var payload struct {
		Data []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Year    int    `json:"year"`
			Venue   string `json:"venue"`
			Authors []struct {
				Name string `json:"name"`
			} `json:"authors"`
			ExternalIDs struct {
				DOI string `json:"DOI"`
			} `json:"externalIds"`
		} `json:"data"`
	}
	if err := f.getJSON(ctx, f.semanticURL+"?"+params.Encode(), headers, &payload); err != nil {
		return nil, err
	}

	var out []model.Source
	for _, paper := range payload.Data {
		var authors []string
		for _, a := range paper.Authors {
			authors = append(authors, a.Name)
		}

		year := ""
		if paper.Year > 0 {
			year = strconv.Itoa(paper.Year)
		}

		out = append(out, model.Source{
			Title:       paper.Title,
			URL:         paper.URL,
			Authors:     authors,
			Date:        year,
			DOI:         paper.ExternalIDs.DOI,
			Publisher:   paper.Venue,
			Type:        model.SourceJournal,
			Reliability: f.reliability(paper.ExternalIDs.DOI, paper.URL),
		})
	}
	return out, nil
}

// reliability rates a search hit: anything with a DOI is a published
// work, everything else is judged by its origin domain.
func (f *Finder) reliability(doi, link string) model.Reliability {
	if doi != "" {
		return model.ReliabilityGenerally
	}
	return f.registry.Classify(link)
}

func (f *Finder) getJSON(ctx context.Context, rawURL string, headers map[string]string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")
	for k, val := range headers {
		req.Header.Set(k, val)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
