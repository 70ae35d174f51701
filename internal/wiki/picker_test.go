package wiki

import (
	"strings"
	"testing"

	"github.com/ppiankov/wikimend/internal/model"
)

func testSelectionConfig() model.SelectionConfig {
	return model.SelectionConfig{
		Category:         "Articles lacking sources",
		MaxBodyLines:     4,
		ExcludeBLP:       true,
		ExcludeProtected: true,
	}
}

func TestIsBLP(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		categories []string
		want       bool
	}{
		{"living people category", "Some bio.", []string{"Living people", "1970 births"}, true},
		{"possibly living", "Some bio.", []string{"Possibly living people"}, true},
		{"blp template", "{{BLP sources}}\nSome bio.", nil, true},
		{"plain article", "An oak is a tree.", []string{"Trees"}, false},
	}
	for _, tt := range tests {
		if got := IsBLP(tt.text, tt.categories); got != tt.want {
			t.Errorf("%s: IsBLP = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPolicyContextFor(t *testing.T) {
	page := &Page{
		Wikitext:   "{{POV|date=May 2024}}\nDisputed prose here.",
		Categories: []string{"Living people"},
		Protected:  true,
	}

	ctx := PolicyContextFor(page)

	if !ctx.IsBiographyOfLivingPerson {
		t.Error("Expected BLP flag from category")
	}
	if !ctx.IsProtected {
		t.Error("Expected protected flag")
	}
	if !ctx.UnderDispute {
		t.Error("Expected dispute flag from POV template")
	}
	if ctx.FlaggedForDeletion {
		t.Error("Expected no deletion flag")
	}
}

func TestPolicyContextFor_DeletionTemplates(t *testing.T) {
	page := &Page{Wikitext: "{{Db-a7}}\nShort article."}

	if ctx := PolicyContextFor(page); !ctx.FlaggedForDeletion {
		t.Error("Expected speedy deletion template to set the deletion flag")
	}
}

func TestCountBodyLines(t *testing.T) {
	text := strings.Join([]string{
		"{{Unreferenced|date=June 2024}}",
		"'''Laksa''' is a spicy noodle soup.",
		"It is popular in [[Malaysia]] and [[Singapore]].",
		"",
		"== References ==",
		"{{reflist}}",
		"",
		"[[Category:Soups]]",
	}, "\n")

	if got := CountBodyLines(text); got != 2 {
		t.Errorf("Expected 2 body lines, got %d", got)
	}
}

func TestCountBodyLines_TemplateOnly(t *testing.T) {
	if got := CountBodyLines("{{Unreferenced}}\n{{stub}}"); got != 0 {
		t.Errorf("Expected 0 body lines for template-only text, got %d", got)
	}
}

func TestPicker_Screen(t *testing.T) {
	p := NewPicker(nil, testSelectionConfig())

	stub := &Page{
		Title:    "Laksa",
		Wikitext: "'''Laksa''' is a spicy noodle soup.\nIt is popular in Southeast Asia.",
	}
	if ok, reason := p.Screen(stub); !ok {
		t.Errorf("Expected a short stub to pass screening, got %q", reason)
	}

	tests := []struct {
		name string
		page *Page
		want string
	}{
		{"missing", &Page{Missing: true}, "page does not exist"},
		{"redirect", &Page{Redirect: true, Wikitext: "#REDIRECT [[Laksa]]"}, "redirect"},
		{"protected", &Page{Protected: true, Wikitext: "Some text."}, "protected"},
		{"empty", &Page{}, "empty page"},
		{"blp", &Page{Wikitext: "A person.", Categories: []string{"Living people"}}, "biography of a living person"},
		{"template only", &Page{Wikitext: "{{Unreferenced}}"}, "no body text"},
	}
	for _, tt := range tests {
		ok, reason := p.Screen(tt.page)
		if ok {
			t.Errorf("%s: expected screening to fail", tt.name)
			continue
		}
		if reason != tt.want {
			t.Errorf("%s: expected reason %q, got %q", tt.name, tt.want, reason)
		}
	}
}

func TestPicker_ScreenTooLong(t *testing.T) {
	p := NewPicker(nil, testSelectionConfig())

	lines := make([]string, 10)
	for i := range lines {
		lines[i] = "A full line of article prose that counts toward the body."
	}
	page := &Page{Wikitext: strings.Join(lines, "\n")}

	ok, reason := p.Screen(page)
	if ok {
		t.Fatal("Expected a long article to fail screening")
	}
	if !strings.Contains(reason, "too long") {
		t.Errorf("Expected a too-long reason, got %q", reason)
	}
}

func TestHasInfobox(t *testing.T) {
	if !hasInfobox("{{Infobox food|name=Laksa}}\nLaksa is a soup.") {
		t.Error("Expected infobox detected")
	}
	if hasInfobox("{{Unreferenced}}\nPlain text.") {
		t.Error("Expected no infobox")
	}
}
