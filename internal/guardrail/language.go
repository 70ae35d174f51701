package guardrail

import (
	"fmt"
	"strings"
)

// Term lists for the advisory language screen. These flag text for
// reviewer attention; they never reject an edit on their own.
var (
	promotionalWords = []string{
		"best", "greatest", "leading", "premier", "top-rated",
		"award-winning", "world-class", "cutting-edge", "revolutionary",
	}
	peacockTerms = []string{
		"clearly", "obviously", "undoubtedly", "of course",
		"naturally", "essentially", "basically",
	}
	weaselPhrases = []string{
		"some say", "many believe", "it is said", "critics say",
		"experts claim", "arguably",
	}
)

// ScanLanguage checks text for promotional language, peacock terms, and
// weasel phrasing. Returns human-readable annotations, one per finding.
func ScanLanguage(text string) []string {
	var findings []string
	lower := strings.ToLower(text)

	for _, word := range promotionalWords {
		if containsWord(lower, word) {
			findings = append(findings, fmt.Sprintf("potential promotional language: %q", word))
		}
	}
	for _, term := range peacockTerms {
		if containsWord(lower, term) {
			findings = append(findings, fmt.Sprintf("peacock term: %q", term))
		}
	}
	for _, phrase := range weaselPhrases {
		if strings.Contains(lower, phrase) {
			findings = append(findings, fmt.Sprintf("weasel wording: %q", phrase))
		}
	}

	return findings
}

// containsWord matches a term on word boundaries so "bestseller" does
// not trip the "best" check.
func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordByte(text[start-1])
		afterOK := end == len(text) || !isWordByte(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '-'
}
