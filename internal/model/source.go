package model

// SourceType classifies the kind of publication being cited
type SourceType string

const (
	SourceJournal    SourceType = "journal"
	SourceNews       SourceType = "news"
	SourceBook       SourceType = "book"
	SourceWeb        SourceType = "web"
	SourceGovernment SourceType = "government"
)

// Reliability represents the registry classification of a source's origin
type Reliability int

const (
	ReliabilityUnknown     Reliability = 0 // Not yet classified
	ReliabilityGenerally   Reliability = 1 // Major publishers, journals, .gov/.edu
	ReliabilitySituational Reliability = 2 // Usable with attribution or context
	ReliabilityQuestonable Reliability = 3 // Self-published, user-generated
	ReliabilityDeprecated  Reliability = 4 // Disallowed outright
)

func (r Reliability) String() string {
	switch r {
	case ReliabilityGenerally:
		return "generally_reliable"
	case ReliabilitySituational:
		return "situationally_reliable"
	case ReliabilityQuestonable:
		return "potentially_unreliable"
	case ReliabilityDeprecated:
		return "deprecated"
	default:
		return "unknown"
	}
}

// Source is a citation payload attached to a citation-add edit
type Source struct {
	Title       string      `json:"title"`
	URL         string      `json:"url,omitempty"`
	Authors     []string    `json:"authors,omitempty"`
	Date        string      `json:"date,omitempty"` // Publication date or year
	DOI         string      `json:"doi,omitempty"`
	ISBN        string      `json:"isbn,omitempty"`
	Publisher   string      `json:"publisher,omitempty"`
	Type        SourceType  `json:"source_type"`
	Reliability Reliability `json:"reliability,omitempty"`
}

// Identifier returns the resolvable identifier for reachability checks:
// the DOI URL when a DOI is present, otherwise the plain URL.
func (s *Source) Identifier() string {
	if s == nil {
		return ""
	}
	if s.DOI != "" {
		return "https://doi.org/" + s.DOI
	}
	return s.URL
}

// Resolution is the pre-resolved reachability and registry status of a
// source identifier. It is produced by the resolver before validation so
// the source-validity rule stays synchronous and free of I/O.
type Resolution struct {
	URL        string      `json:"url"`
	Reachable  bool        `json:"reachable"`
	Transient  bool        `json:"transient"`   // Timeout or 5xx: retryable, not a dead link
	StatusCode int         `json:"status_code,omitempty"`
	Registry   Reliability `json:"registry"`
	Error      string      `json:"error,omitempty"`
}
