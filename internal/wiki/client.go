// Package wiki talks to a MediaWiki instance: fetching articles and
// screening facts for the picker, and submitting composed edits for the
// push service. It is the only package that writes to the live site.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/wikimend/internal/model"
	"github.com/ppiankov/wikimend/internal/util"
)

// Client is a minimal MediaWiki API client
type Client struct {
	endpoint   string
	httpClient *http.Client
	userAgent  string
	username   string
	password   string
	csrfToken  string
	loggedIn   bool
}

// NewClient creates a client for the given api.php endpoint. Credentials
// may be empty for read-only use.
func NewClient(cfg model.WikipediaConfig, httpCfg model.HTTPConfig) *Client {
	client := util.NewHTTPClient(httpCfg.Timeout, httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy)
	// The edit flow needs login cookies to survive across requests.
	if jar, err := cookiejar.New(nil); err == nil {
		client.Jar = jar
	}
	return &Client{
		endpoint:   cfg.APIEndpoint,
		httpClient: client,
		userAgent:  httpCfg.UserAgent,
		username:   cfg.Username,
		password:   cfg.Password,
	}
}

// Page carries the fields of one page the picker and push service need
type Page struct {
	Title      string
	Wikitext   string
	RevisionID string
	Categories []string
	Protected  bool
	Redirect   bool
	Missing    bool
}

// FetchPage retrieves a page's current wikitext, revision, categories,
// and protection status in one query.
func (c *Client) FetchPage(ctx context.Context, title string) (*Page, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "revisions|categories|info")
	params.Set("rvprop", "content|ids")
	params.Set("rvslots", "main")
	params.Set("inprop", "protection")
	params.Set("cllimit", "100")
	params.Set("titles", title)

	var payload struct {
		Query struct {
			Pages []struct {
				Title      string `json:"title"`
				Missing    bool   `json:"missing"`
				Redirect   bool   `json:"redirect"`
				Categories []struct {
					Title string `json:"title"`
				} `json:"categories"`
				Protection []struct {
					Type string `json:"type"`
				} `json:"protection"`
				Revisions []struct {
					RevID int `json:"revid"`
					Slots struct {
						Main struct {
							Content string `json:"content"`
						} `json:"main"`
					} `json:"slots"`
				} `json:"revisions"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := c.get(ctx, params, &payload); err != nil {
		return nil, fmt.Errorf("fetch page %q: %w", title, err)
	}
	if len(payload.Query.Pages) == 0 {
		return nil, fmt.Errorf("fetch page %q: empty response", title)
	}

	p := payload.Query.Pages[0]
	page := &Page{
		Title:    p.Title,
		Missing:  p.Missing,
		Redirect: p.Redirect,
	}
	for _, cat := range p.Categories {
		page.Categories = append(page.Categories, strings.TrimPrefix(cat.Title, "Category:"))
	}
	for _, prot := range p.Protection {
		if prot.Type == "edit" || prot.Type == "move" {
			page.Protected = true
		}
	}
	if len(p.Revisions) > 0 {
		page.Wikitext = p.Revisions[0].Slots.Main.Content
		page.RevisionID = fmt.Sprintf("%d", p.Revisions[0].RevID)
	}
	return page, nil
}

// CategoryMembers lists article titles in a category, up to limit
func (c *Client) CategoryMembers(ctx context.Context, category string, limit int) ([]string, error) {
	category = strings.TrimPrefix(category, "Category:")
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "categorymembers")
	params.Set("cmtitle", "Category:"+category)
	params.Set("cmnamespace", "0")
	params.Set("cmlimit", fmt.Sprintf("%d", limit))

	var payload struct {
		Query struct {
			CategoryMembers []struct {
				Title string `json:"title"`
			} `json:"categorymembers"`
		} `json:"query"`
	}
	if err := c.get(ctx, params, &payload); err != nil {
		return nil, fmt.Errorf("list category %q: %w", category, err)
	}

	titles := make([]string, 0, len(payload.Query.CategoryMembers))
	for _, m := range payload.Query.CategoryMembers {
		titles = append(titles, m.Title)
	}
	return titles, nil
}

// CurrentRevision returns the page's latest revision ID
func (c *Client) CurrentRevision(ctx context.Context, title string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "revisions")
	params.Set("rvprop", "ids")
	params.Set("titles", title)

	var payload struct {
		Query struct {
			Pages []struct {
				Revisions []struct {
					RevID int `json:"revid"`
				} `json:"revisions"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := c.get(ctx, params, &payload); err != nil {
		return "", fmt.Errorf("current revision of %q: %w", title, err)
	}
	if len(payload.Query.Pages) == 0 || len(payload.Query.Pages[0].Revisions) == 0 {
		return "", fmt.Errorf("current revision of %q: no revisions", title)
	}
	return fmt.Sprintf("%d", payload.Query.Pages[0].Revisions[0].RevID), nil
}

// SaveEdit writes new wikitext to a page as a minor bot edit. Callers
// must have passed the guardrail composer and the submission limiter
// before reaching this.
func (c *Client) SaveEdit(ctx context.Context, title, text, summary string) error {
	if err := c.ensureLogin(ctx); err != nil {
		return err
	}

	form := url.Values{}
	form.Set("action", "edit")
	form.Set("title", title)
	form.Set("text", text)
	form.Set("summary", summary)
	form.Set("minor", "1")
	form.Set("bot", "1")
	form.Set("token", c.csrfToken)

	var payload struct {
		Edit struct {
			Result string `json:"result"`
		} `json:"edit"`
		Error *apiError `json:"error"`
	}
	if err := c.post(ctx, form, &payload); err != nil {
		return fmt.Errorf("save edit to %q: %w", title, err)
	}
	if payload.Error != nil {
		return fmt.Errorf("save edit to %q: api error %s: %s", title, payload.Error.Code, payload.Error.Info)
	}
	if payload.Edit.Result != "Success" {
		return fmt.Errorf("save edit to %q: result %q", title, payload.Edit.Result)
	}
	return nil
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

// ensureLogin performs the login handshake and fetches a CSRF token
func (c *Client) ensureLogin(ctx context.Context) error {
	if c.loggedIn && c.csrfToken != "" {
		return nil
	}

	if c.username != "" && c.password != "" {
		loginToken, err := c.token(ctx, "login")
		if err != nil {
			return fmt.Errorf("login token: %w", err)
		}

		form := url.Values{}
		form.Set("action", "login")
		form.Set("lgname", c.username)
		form.Set("lgpassword", c.password)
		form.Set("lgtoken", loginToken)

		var payload struct {
			Login struct {
				Result string `json:"result"`
			} `json:"login"`
		}
		if err := c.post(ctx, form, &payload); err != nil {
			return fmt.Errorf("login: %w", err)
		}
		if payload.Login.Result != "Success" {
			return fmt.Errorf("login: result %q", payload.Login.Result)
		}
	}

	csrf, err := c.token(ctx, "csrf")
	if err != nil {
		return fmt.Errorf("csrf token: %w", err)
	}
	c.csrfToken = csrf
	c.loggedIn = true
	return nil
}

func (c *Client) token(ctx context.Context, kind string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("meta", "tokens")
	params.Set("type", kind)

	var payload struct {
		Query struct {
			Tokens map[string]string `json:"tokens"`
		} `json:"query"`
	}
	if err := c.get(ctx, params, &payload); err != nil {
		return "", err
	}
	token := payload.Query.Tokens[kind+"token"]
	if token == "" {
		return "", fmt.Errorf("no %s token in response", kind)
	}
	return token, nil
}

func (c *Client) get(ctx context.Context, params url.Values, v any) error {
	params.Set("format", "json")
	params.Set("formatversion", "2")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, v)
}

func (c *Client) post(ctx context.Context, form url.Values, v any) error {
	form.Set("format", "json")
	form.Set("formatversion", "2")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, v)
}

func (c *Client) do(req *http.Request, v any) error {
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8*1024*1024))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ArticleURL builds the canonical page URL from the API endpoint
func (c *Client) ArticleURL(title string) string {
	base := strings.TrimSuffix(c.endpoint, "/w/api.php")
	return base + "/wiki/" + strings.ReplaceAll(title, " ", "_")
}

// FetchArticle wraps FetchPage into the model type used downstream
func (c *Client) FetchArticle(ctx context.Context, title string) (*model.Article, error) {
	page, err := c.FetchPage(ctx, title)
	if err != nil {
		return nil, err
	}
	if page.Missing {
		return nil, fmt.Errorf("article %q does not exist", title)
	}
	return &model.Article{
		Title:      page.Title,
		URL:        c.ArticleURL(page.Title),
		Wikitext:   page.Wikitext,
		RevisionID: page.RevisionID,
		FetchedAt:  time.Now().UTC(),
	}, nil
}
