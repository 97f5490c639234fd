// Package filter decides which normalized postings are worth delivering.
// All rules are substring based and stateless; an Engine is safe for
// concurrent use once built.
package filter

import (
	"fmt"
	"strings"

	"github.com/NoaVaturi/JobBot/internal/config"
	"github.com/NoaVaturi/JobBot/internal/domain"
)

// Decision explains what the engine did with one posting.
type Decision struct {
	Accept       bool
	SkillMatches []string
	Reason       string // set when rejected
}

// Engine applies the configured rules in a fixed order: exclusion terms,
// role terms, experience terms, then the skill-keyword threshold. An empty
// term list disables its rule rather than rejecting everything.
type Engine struct {
	excludeEN  []string
	excludeHE  []string
	roleTerms  []string
	expEN      []string
	expHE      []string
	skills     []string
	minMatches int
}

func New(cfg config.FilterConfig) *Engine {
	return &Engine{
		excludeEN:  lowerAll(cfg.ExcludeTermsEN),
		excludeHE:  cfg.ExcludeTermsHE,
		roleTerms:  lowerAll(cfg.RoleTerms),
		expEN:      lowerAll(cfg.ExperienceTermsEN),
		expHE:      cfg.ExperienceTermsHE,
		skills:     lowerAll(cfg.SkillKeywords),
		minMatches: cfg.MinSkillMatches,
	}
}

func lowerAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		out = append(out, strings.ToLower(t))
	}
	return out
}

// Evaluate runs every rule against the posting. Title and description are
// matched case-insensitively for English terms; Hebrew terms are matched as
// raw substrings since Hebrew has no case.
func (e *Engine) Evaluate(p domain.Posting) Decision {
	body := strings.ToLower(p.Title + " " + p.Description)
	rawBody := p.Title + " " + p.Description

	if term, hit := firstMatch(body, e.excludeEN); hit {
		return Decision{Reason: fmt.Sprintf("excluded term %q", term)}
	}
	if term, hit := firstMatch(rawBody, e.excludeHE); hit {
		return Decision{Reason: fmt.Sprintf("excluded term %q", term)}
	}

	if len(e.roleTerms) > 0 {
		if _, hit := firstMatch(body, e.roleTerms); !hit {
			return Decision{Reason: "no role term"}
		}
	}

	if len(e.expEN) > 0 || len(e.expHE) > 0 {
		_, hitEN := firstMatch(body, e.expEN)
		_, hitHE := firstMatch(rawBody, e.expHE)
		if !hitEN && !hitHE {
			return Decision{Reason: "no experience-level term"}
		}
	}

	matches := allMatches(body, e.skills)
	if len(e.skills) > 0 && len(matches) < e.minMatches {
		return Decision{
			SkillMatches: matches,
			Reason:       fmt.Sprintf("%d skill keywords, need %d", len(matches), e.minMatches),
		}
	}

	return Decision{Accept: true, SkillMatches: matches}
}

// Apply partitions postings into the ones to deliver. Rejections are
// reported through reject, which may be nil.
func (e *Engine) Apply(postings []domain.Posting, reject func(domain.Posting, Decision)) []domain.Posting {
	kept := make([]domain.Posting, 0, len(postings))
	for _, p := range postings {
		d := e.Evaluate(p)
		if d.Accept {
			kept = append(kept, p)
			continue
		}
		if reject != nil {
			reject(p, d)
		}
	}
	return kept
}

func firstMatch(haystack string, terms []string) (string, bool) {
	for _, t := range terms {
		if t == "" {
			continue
		}
		if strings.Contains(haystack, t) {
			return t, true
		}
	}
	return "", false
}

// allMatches counts each distinct keyword once no matter how often it
// appears.
func allMatches(haystack string, terms []string) []string {
	var out []string
	for _, t := range terms {
		if t == "" {
			continue
		}
		if strings.Contains(haystack, t) {
			out = append(out, t)
		}
	}
	return out
}
