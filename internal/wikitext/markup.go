// Package wikitext implements the small slice of wiki markup handling the
// guardrail engine needs: stripping templates and references before word
// counting, recognizing citation markup, and structural well-formedness
// checks on reference templates.
package wikitext

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	templateRe = regexp.MustCompile(`\{\{[^{}]*\}\}`)
	refPairRe  = regexp.MustCompile(`(?is)<ref[^>/]*>.*?</ref>`)
	refSelfRe  = regexp.MustCompile(`(?i)<ref[^>]*/>`)
	refOpenRe  = regexp.MustCompile(`(?i)<ref[^>/]*>`)
	wikilinkRe = regexp.MustCompile(`\[\[(?:[^|\]]+\|)?([^\]]+)\]\]`)
	categoryRe = regexp.MustCompile(`(?i)\[\[Category:[^\]]*\]\]`)
	citeRe     = regexp.MustCompile(`(?i)\{\{\s*cite`)
	headerRe   = regexp.MustCompile(`(?m)^==+[^=]+=+\s*$`)
)

// Strip removes templates, reference tags, and categories from text and
// unwraps wikilinks to their display text. The result is the prose that
// word counting operates on.
func Strip(text string) string {
	out := text
	out = refPairRe.ReplaceAllString(out, "")
	out = refSelfRe.ReplaceAllString(out, "")
	// Templates can nest; peel from the inside out until stable.
	for {
		next := templateRe.ReplaceAllString(out, "")
		if next == out {
			break
		}
		out = next
	}
	out = categoryRe.ReplaceAllString(out, "")
	out = wikilinkRe.ReplaceAllString(out, "$1")
	return out
}

// StripHeaders additionally removes section headers. Used by the picker
// when counting body lines.
func StripHeaders(text string) string {
	return headerRe.ReplaceAllString(text, "")
}

// Words tokenizes stripped prose into words. Leading and trailing
// punctuation is trimmed so "sleeping." and "sleeping" count as the
// same token.
func Words(text string) []string {
	fields := strings.Fields(Strip(text))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.Trim(f, `.,;:!?"'()[]{}`)
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

// CountWords counts prose words with markup excluded
func CountWords(text string) int {
	return len(Words(text))
}

// IsCitationMarkup reports whether text is primarily reference markup:
// a <ref> tag, a {{cite ...}} template, or text that is mostly templates.
func IsCitationMarkup(text string) bool {
	if refOpenRe.MatchString(text) || refSelfRe.MatchString(text) {
		return true
	}
	if citeRe.MatchString(text) {
		return true
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	stripped := strings.TrimSpace(Strip(trimmed))
	// Mostly-template text: over 70% of it disappears when markup is removed.
	return float64(len(stripped)) < 0.3*float64(len(trimmed))
}

// AppendedReference reports whether proposed equals original with only
// reference markup appended: the defining shape of a citation-add that
// leaves prose untouched. Returns the appended markup when it matches.
func AppendedReference(original, proposed string) (string, bool) {
	if !strings.HasPrefix(proposed, original) {
		return "", false
	}
	appended := proposed[len(original):]
	if strings.TrimSpace(appended) == "" {
		return "", false
	}
	if !IsCitationMarkup(appended) {
		return "", false
	}
	// The appendix must contain no prose of its own.
	if CountWords(appended) != 0 {
		return "", false
	}
	return appended, true
}

// CheckStructure verifies that reference markup in text is well formed
// enough to render without corrupting the article: balanced template
// braces, terminated <ref> tags, and a title on every cite template.
func CheckStructure(text string) error {
	if open, close := strings.Count(text, "{{"), strings.Count(text, "}}"); open != close {
		return fmt.Errorf("unbalanced template braces: %d opening, %d closing", open, close)
	}
	opens := len(refOpenRe.FindAllString(text, -1))
	pairs := len(refPairRe.FindAllString(text, -1))
	if opens != pairs {
		return fmt.Errorf("unterminated <ref> tag")
	}
	for _, tmpl := range citeTemplates(text) {
		if !strings.Contains(strings.ToLower(tmpl), "|title=") {
			return fmt.Errorf("cite template missing title field")
		}
	}
	return nil
}

// citeTemplates returns each {{cite ...}} span in text, including nested
// braces, by scanning for balanced delimiters.
func citeTemplates(text string) []string {
	var out []string
	lower := strings.ToLower(text)
	for i := 0; i+2 < len(text); i++ {
		if !strings.HasPrefix(lower[i:], "{{") {
			continue
		}
		rest := strings.TrimLeft(lower[i+2:], " ")
		if !strings.HasPrefix(rest, "cite") {
			continue
		}
		depth := 0
		for j := i; j+1 < len(text); j++ {
			if text[j] == '{' && text[j+1] == '{' {
				depth++
				j++
			} else if text[j] == '}' && text[j+1] == '}' {
				depth--
				j++
				if depth == 0 {
					out = append(out, text[i:j+1])
					i = j
					break
				}
			}
		}
	}
	return out
}
