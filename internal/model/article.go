package model

import "time"

// Article is the full representation of a wiki article at a known revision
type Article struct {
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	Wikitext   string    `json:"wikitext"`
	RevisionID string    `json:"revision_id"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// CandidateArticle is an article selected for cleanup, with the screening
// facts the picker derived during selection
type CandidateArticle struct {
	Article
	BodyLines  int           `json:"body_line_count"`
	Categories []string      `json:"categories,omitempty"`
	HasInfobox bool          `json:"has_infobox"`
	Policy     PolicyContext `json:"policy"`
}

// PolicyContext carries the document-level exclusion flags the guardrail
// engine needs but cannot derive from the text of a single edit. It is
// supplied by the picker and read-only to the engine.
type PolicyContext struct {
	IsBiographyOfLivingPerson bool `json:"is_blp"`
	IsProtected               bool `json:"is_protected"`
	UnderDispute              bool `json:"under_dispute"`
	FlaggedForDeletion        bool `json:"flagged_for_deletion"`
}
