package wikitext

import (
	"strconv"
	"strings"

	"github.com/ppiankov/wikimend/internal/model"
)

// CitationTemplate renders a {{cite ...}} template for a source. The
// template kind follows the source type; fields are emitted only when
// present so the output stays minimal.
func CitationTemplate(s *model.Source) string {
	if s == nil {
		return ""
	}

	var parts []string
	add := func(field, value string) {
		if value != "" {
			parts = append(parts, "|"+field+"="+value)
		}
	}
	addAuthors := func() {
		if len(s.Authors) == 1 {
			names := strings.Fields(s.Authors[0])
			if len(names) > 0 {
				add("last", names[len(names)-1])
			}
			if len(names) > 1 {
				add("first", strings.Join(names[:len(names)-1], " "))
			}
			return
		}
		for i, author := range s.Authors {
			add("author"+strconv.Itoa(i+1), author)
		}
	}

	switch s.Type {
	case model.SourceBook:
		parts = append(parts, "{{cite book")
		addAuthors()
		add("title", s.Title)
		add("year", s.Date)
		add("publisher", s.Publisher)
		add("isbn", s.ISBN)
	case model.SourceNews:
		parts = append(parts, "{{cite news")
		addAuthors()
		add("title", s.Title)
		add("work", s.Publisher)
		add("date", s.Date)
		add("url", s.URL)
	case model.SourceJournal:
		parts = append(parts, "{{cite journal")
		addAuthors()
		add("title", s.Title)
		add("journal", s.Publisher)
		add("date", s.Date)
		add("doi", s.DOI)
		add("url", s.URL)
	default:
		parts = append(parts, "{{cite web")
		addAuthors()
		add("title", s.Title)
		add("url", s.URL)
		add("website", s.Publisher)
		add("date", s.Date)
	}

	return strings.Join(parts, " ") + "}}"
}

// RefTag wraps a citation template in a <ref> element ready to append
// after prose.
func RefTag(s *model.Source) string {
	tmpl := CitationTemplate(s)
	if tmpl == "" {
		return ""
	}
	return "<ref>" + tmpl + "</ref>"
}
