// Package sources finds candidate citations and pre-resolves their
// reachability and registry status, so the guardrail rule set never
// performs network I/O of its own.
package sources

import (
	"net/url"
	"strings"

	"github.com/ppiankov/wikimend/internal/model"
)

// defaultRegistry is a trimmed perennial-sources table. Unlisted
// domains default to situationally reliable; a production deployment
// would sync this from the live registry.
var defaultRegistry = map[string]model.Reliability{
	"nytimes.com":        model.ReliabilityGenerally,
	"theguardian.com":    model.ReliabilityGenerally,
	"bbc.com":            model.ReliabilityGenerally,
	"bbc.co.uk":          model.ReliabilityGenerally,
	"washingtonpost.com": model.ReliabilityGenerally,
	"reuters.com":        model.ReliabilityGenerally,
	"apnews.com":         model.ReliabilityGenerally,
	"nature.com":         model.ReliabilityGenerally,
	"science.org":        model.ReliabilityGenerally,
	"doi.org":            model.ReliabilityGenerally,

	"forbes.com": model.ReliabilitySituational,

	"medium.com":    model.ReliabilityQuestonable,
	"wordpress.com": model.ReliabilityQuestonable,
	"blogspot.com":  model.ReliabilityQuestonable,

	"dailymail.co.uk": model.ReliabilityDeprecated,
}

// Registry classifies source origins by domain
type Registry struct {
	domains map[string]model.Reliability
}

// NewRegistry creates a registry with the built-in table plus any
// overrides (domain → rating name, as in the config file).
func NewRegistry(overrides map[string]string) *Registry {
	domains := make(map[string]model.Reliability, len(defaultRegistry)+len(overrides))
	for d, r := range defaultRegistry {
		domains[d] = r
	}
	for d, name := range overrides {
		domains[strings.ToLower(d)] = parseReliability(name)
	}
	return &Registry{domains: domains}
}

// Classify returns the registry rating for a URL's origin
func (r *Registry) Classify(rawURL string) model.Reliability {
	if rawURL == "" {
		return model.ReliabilityQuestonable
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return model.ReliabilityQuestonable
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")

	if rating, ok := r.domains[host]; ok {
		return rating
	}

	// Government and academic domains are reliable by default.
	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") || strings.HasSuffix(host, ".ac.uk") {
		return model.ReliabilityGenerally
	}

	// Walk up to the registrable parent (blog.example.com → example.com).
	parts := strings.Split(host, ".")
	if len(parts) > 2 {
		parent := strings.Join(parts[len(parts)-2:], ".")
		if rating, ok := r.domains[parent]; ok {
			return rating
		}
	}

	return model.ReliabilitySituational
}

// Disallowed reports whether a URL's origin is rejected outright
func (r *Registry) Disallowed(rawURL string) bool {
	return r.Classify(rawURL) == model.ReliabilityDeprecated
}

func parseReliability(name string) model.Reliability {
	switch strings.ToLower(name) {
	case "generally_reliable", "generally", "1":
		return model.ReliabilityGenerally
	case "situationally_reliable", "situational", "2":
		return model.ReliabilitySituational
	case "potentially_unreliable", "questionable", "3":
		return model.ReliabilityQuestonable
	case "deprecated", "disallowed", "4":
		return model.ReliabilityDeprecated
	default:
		return model.ReliabilityUnknown
	}
}
