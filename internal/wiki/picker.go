package wiki

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/wikimend/internal/model"
	"github.com/ppiankov/wikimend/internal/wikitext"
)

// blpCategories and blpTemplates mark biographies of living people
var (
	blpCategories = []string{
		"living people",
		"year of birth missing (living people)",
		"possibly living people",
	}
	blpTemplates     = []string{"blp", "living", "bio-living"}
	disputeTemplates = []string{"pov", "disputed", "contradict", "controversial"}
	deleteTemplates  = []string{"afd", "article for deletion", "proposed deletion", "prod", "db-", "speedy deletion"}

	templateNameRe = regexp.MustCompile(`\{\{\s*([^|}]+)`)
)

// Picker selects articles worth attempting and derives the policy
// context the guardrail engine needs for each.
type Picker struct {
	client *Client
	config model.SelectionConfig
}

// NewPicker creates a picker over the given client
func NewPicker(client *Client, cfg model.SelectionConfig) *Picker {
	return &Picker{client: client, config: cfg}
}

// PolicyContextFor derives the document-level exclusion flags from a
// fetched page. These are facts about the article, independent of any
// particular edit.
func PolicyContextFor(page *Page) model.PolicyContext {
	return model.PolicyContext{
		IsBiographyOfLivingPerson: IsBLP(page.Wikitext, page.Categories),
		IsProtected:               page.Protected,
		UnderDispute:              hasTemplate(page.Wikitext, disputeTemplates),
		FlaggedForDeletion:        hasTemplate(page.Wikitext, deleteTemplates),
	}
}

// IsBLP reports whether an article is a biography of a living person,
// by category membership or maintenance template.
func IsBLP(text string, categories []string) bool {
	for _, cat := range categories {
		lower := strings.ToLower(cat)
		for _, blpCat := range blpCategories {
			if strings.Contains(lower, blpCat) {
				return true
			}
		}
	}
	return hasTemplate(text, blpTemplates)
}

func hasTemplate(text string, names []string) bool {
	for _, match := range templateNameRe.FindAllStringSubmatch(text, -1) {
		name := strings.ToLower(strings.TrimSpace(match[1]))
		for _, want := range names {
			// A trailing dash marks a template family ("db-" covers db-a7).
			if strings.HasSuffix(want, "-") {
				if strings.HasPrefix(name, want) {
					return true
				}
				continue
			}
			if name == want || strings.HasPrefix(name, want+" ") ||
				strings.HasPrefix(name, want+"-") || strings.HasPrefix(name, want+"/") {
				return true
			}
		}
	}
	return false
}

// CountBodyLines counts lines of actual prose: markup stripped, section
// headers and trailing sections (references, external links, see also)
// excluded. Short counts identify stub articles.
func CountBodyLines(text string) int {
	for _, section := range []string{"References", "External links", "See also"} {
		re := regexp.MustCompile(`(?is)==\s*` + section + `\s*==.*`)
		text = re.ReplaceAllString(text, "")
	}
	text = wikitext.StripHeaders(wikitext.Strip(text))

	count := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "==") {
			count++
		}
	}
	return count
}

// Screen decides whether a fetched page is a cleanup candidate.
// Returns the disqualifying reason when it is not.
func (p *Picker) Screen(page *Page) (bool, string) {
	if page.Missing {
		return false, "page does not exist"
	}
	if page.Redirect {
		return false, "redirect"
	}
	if p.config.ExcludeProtected && page.Protected {
		return false, "protected"
	}
	if page.Wikitext == "" {
		return false, "empty page"
	}
	if p.config.ExcludeBLP && IsBLP(page.Wikitext, page.Categories) {
		return false, "biography of a living person"
	}

	bodyLines := CountBodyLines(page.Wikitext)
	if bodyLines == 0 {
		return false, "no body text"
	}
	if bodyLines > p.config.MaxBodyLines {
		return false, fmt.Sprintf("too long (%d body lines)", bodyLines)
	}
	return true, ""
}

// FetchCandidates walks the configured cleanup category and returns up
// to limit articles that pass screening.
func (p *Picker) FetchCandidates(ctx context.Context, limit int) ([]model.CandidateArticle, error) {
	// Over-fetch titles: most category members fail screening.
	titles, err := p.client.CategoryMembers(ctx, p.config.Category, limit*5)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	var candidates []model.CandidateArticle
	for _, title := range titles {
		if len(candidates) >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return candidates, err
		}

		page, err := p.client.FetchPage(ctx, title)
		if err != nil {
			continue
		}
		if ok, _ := p.Screen(page); !ok {
			continue
		}

		candidates = append(candidates, model.CandidateArticle{
			Article: model.Article{
				Title:      page.Title,
				URL:        p.client.ArticleURL(page.Title),
				Wikitext:   page.Wikitext,
				RevisionID: page.RevisionID,
				FetchedAt:  time.Now().UTC(),
			},
			BodyLines:  CountBodyLines(page.Wikitext),
			Categories: page.Categories,
			HasInfobox: hasInfobox(page.Wikitext),
			Policy:     PolicyContextFor(page),
		})
	}
	return candidates, nil
}

func hasInfobox(text string) bool {
	for _, match := range templateNameRe.FindAllStringSubmatch(text, -1) {
		if strings.Contains(strings.ToLower(match[1]), "infobox") {
			return true
		}
	}
	return false
}
