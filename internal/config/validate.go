package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy of cfg plus any errors and
// warnings. Term lists are trimmed and deduplicated; Hebrew lists keep their
// original casing since case has no meaning there.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Search.Terms = trimList(out.Search.Terms)
	out.Search.Locations = trimList(out.Search.Locations)
	out.Filters.RoleTerms = trimList(out.Filters.RoleTerms)
	out.Filters.ExperienceTermsEN = trimList(out.Filters.ExperienceTermsEN)
	out.Filters.ExperienceTermsHE = trimList(out.Filters.ExperienceTermsHE)
	out.Filters.ExcludeTermsEN = trimList(out.Filters.ExcludeTermsEN)
	out.Filters.ExcludeTermsHE = trimList(out.Filters.ExcludeTermsHE)
	out.Filters.SkillKeywords = trimList(out.Filters.SkillKeywords)
	out.Sources.Email.SearchSubjectAny = trimList(out.Sources.Email.SearchSubjectAny)

	// ---- defaults ----

	if out.App.Port == 0 {
		out.App.Port = 8000
	}
	if out.App.CronSpec == "" {
		out.App.CronSpec = "@every 6h"
	}
	if out.Filters.MinSkillMatches == 0 {
		// loosened from 3 after it starved the pipeline of true positives
		out.Filters.MinSkillMatches = 2
	}
	if out.Sources.Drushim.MaxPostings == 0 {
		out.Sources.Drushim.MaxPostings = 20
	}
	if out.Sources.GotFriends.MaxPostings == 0 {
		out.Sources.GotFriends.MaxPostings = 30
	}

	// ---- validation rules ----

	if out.App.Port < 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}
	if len(out.Search.Terms) == 0 {
		res.addErr("search.terms must have at least 1 term")
	}
	if out.Filters.MinSkillMatches < 0 {
		res.addErr("filters.min_skill_matches must be >= 0")
	}
	if len(out.Filters.SkillKeywords) == 0 && out.Filters.MinSkillMatches > 0 {
		res.addWarn("filters.skill_keywords is empty; the skill threshold is vacuously satisfied.")
	}
	if len(out.Filters.RoleTerms) == 0 {
		res.addWarn("filters.role_terms is empty; every posting will pass the role rule.")
	}

	if !out.Sources.Drushim.Enabled && !out.Sources.GotFriends.Enabled &&
		!out.Sources.Indeed.Enabled && !out.Sources.GoogleJobs.Enabled &&
		!out.Sources.Email.Enabled {
		res.addErr("no sources enabled")
	}

	if out.Sources.Email.Enabled {
		if strings.TrimSpace(out.Sources.Email.IMAPHost) == "" {
			res.addErr("sources.email.imap_host is required when email is enabled")
		}
		if strings.TrimSpace(out.Sources.Email.Username) == "" {
			res.addErr("sources.email.username is required when email is enabled")
		}
		if out.Sources.Email.IMAPPort == 0 {
			out.Sources.Email.IMAPPort = 993
		}
		if out.Sources.Email.Mailbox == "" {
			out.Sources.Email.Mailbox = "INBOX"
		}
		if len(out.Sources.Email.SearchSubjectAny) == 0 {
			res.addWarn("sources.email.search_subject_any is empty; the mailbox scan may find nothing.")
		}
	}

	// conflicting lists
	excl := map[string]bool{}
	for _, b := range out.Filters.ExcludeTermsEN {
		excl[strings.ToLower(b)] = true
	}
	for _, a := range out.Filters.ExperienceTermsEN {
		if excl[strings.ToLower(a)] {
			res.addWarn("term appears in both experience_terms_en and exclude_terms_en: %q", a)
		}
	}

	return out, res
}
