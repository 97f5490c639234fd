package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the job bot.
type Config struct {
	App      AppConfig
	Search   SearchConfig
	Filters  FilterConfig
	Sources  SourcesConfig
	Telegram TelegramConfig
}

type AppConfig struct {
	Port     int    `yaml:"port"`
	DataDir  string `yaml:"data_dir"`
	CronSpec string `yaml:"cron_spec"` // robfig/cron spec, e.g. "@every 6h"
}

type SearchConfig struct {
	Terms         []string      // search terms fanned out to every source
	Locations     []string      // searched locations
	SourceTimeout time.Duration // per-source fetch deadline
}

type FilterConfig struct {
	RoleTerms         []string `yaml:"role_terms"`
	ExperienceTermsEN []string `yaml:"experience_terms_en"`
	ExperienceTermsHE []string `yaml:"experience_terms_he"`
	ExcludeTermsEN    []string `yaml:"exclude_terms_en"`
	ExcludeTermsHE    []string `yaml:"exclude_terms_he"`
	SkillKeywords     []string `yaml:"skill_keywords"`
	MinSkillMatches   int      `yaml:"min_skill_matches"`
}

type SourcesConfig struct {
	Drushim    ScrapeSourceConfig `yaml:"drushim"`
	GotFriends ScrapeSourceConfig `yaml:"gotfriends"`
	Indeed     ToggleConfig       `yaml:"indeed"`
	GoogleJobs ToggleConfig       `yaml:"googlejobs"`
	Email      EmailConfig        `yaml:"email"`
}

type ScrapeSourceConfig struct {
	Enabled     bool `yaml:"enabled"`
	MaxPostings int  `yaml:"max_postings"`
}

type ToggleConfig struct {
	Enabled bool `yaml:"enabled"`
}

type EmailConfig struct {
	Enabled          bool     `yaml:"enabled"`
	IMAPHost         string   `yaml:"imap_host"`
	IMAPPort         int      `yaml:"imap_port"`
	Username         string   `yaml:"username"`
	Mailbox          string   `yaml:"mailbox"`
	SearchSubjectAny []string `yaml:"search_subject_any"`
}

type TelegramConfig struct {
	ChatID int64 `yaml:"chat_id"`
}

// rawConfig mirrors the YAML layout (durations as strings).
type rawConfig struct {
	App    AppConfig `yaml:"app"`
	Search struct {
		Terms         []string `yaml:"terms"`
		Locations     []string `yaml:"locations"`
		SourceTimeout string   `yaml:"source_timeout"`
	} `yaml:"search"`
	Filters  FilterConfig   `yaml:"filters"`
	Sources  SourcesConfig  `yaml:"sources"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// Load reads the YAML file at path, expands ${ENV} references, applies
// defaults and validates.
func Load(path string) (Config, error) {
	var cfg Config

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &raw); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	timeout := 60 * time.Second
	if raw.Search.SourceTimeout != "" {
		timeout, err = time.ParseDuration(raw.Search.SourceTimeout)
		if err != nil {
			return cfg, fmt.Errorf("parse search.source_timeout %q: %w", raw.Search.SourceTimeout, err)
		}
	}

	cfg = Config{
		App: raw.App,
		Search: SearchConfig{
			Terms:         raw.Search.Terms,
			Locations:     raw.Search.Locations,
			SourceTimeout: timeout,
		},
		Filters:  raw.Filters,
		Sources:  raw.Sources,
		Telegram: raw.Telegram,
	}

	out, res := NormalizeAndValidate(cfg)
	if !res.OK() {
		return out, fmt.Errorf("config validation failed:\n- %v", res.Errors)
	}
	return out, nil
}
