package agent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/wikimend/internal/model"
)

var (
	fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	rawArrayRe   = regexp.MustCompile(`(?s)\[\s*\{.*\}\s*\]`)
)

// rawEdit mirrors the JSON shape the prompt demands
type rawEdit struct {
	EditType     string `json:"edit_type"`
	OriginalText string `json:"original_text"`
	ProposedText string `json:"proposed_text"`
	Rationale    string `json:"rationale"`
	PolicyRef    string `json:"policy_reference"`
	Confidence   string `json:"confidence"`
}

// ParseEdits extracts the JSON edit array from a model completion,
// tolerating fenced code blocks and surrounding chatter. Elements with
// unknown edit kinds are skipped, not errored: the output is untrusted
// and partial salvage beats total loss.
func ParseEdits(completion string) ([]model.ProposedEdit, error) {
	jsonText := completion
	if m := fencedJSONRe.FindStringSubmatch(completion); m != nil {
		jsonText = m[1]
	} else if m := rawArrayRe.FindString(completion); m != "" {
		jsonText = m
	}

	var raw []rawEdit
	if err := json.Unmarshal([]byte(strings.TrimSpace(jsonText)), &raw); err != nil {
		return nil, fmt.Errorf("parse edit proposals: %w", err)
	}

	edits := make([]model.ProposedEdit, 0, len(raw))
	for _, r := range raw {
		kind, ok := model.ParseEditKind(r.EditType)
		if !ok {
			continue
		}
		confidence := model.Confidence(r.Confidence)
		if confidence.Rank() == 0 {
			confidence = model.ConfidenceMedium
		}
		edits = append(edits, model.ProposedEdit{
			Kind:         kind,
			OriginalText: r.OriginalText,
			ProposedText: r.ProposedText,
			Rationale:    r.Rationale,
			PolicyRef:    r.PolicyRef,
			Confidence:   confidence,
		})
	}
	return edits, nil
}
