// Package emailalert turns LinkedIn job-alert emails into postings. It scans
// an IMAP mailbox for unseen alert messages, parses the HTML digest, and
// marks consumed messages \Seen so each alert is processed once.
package emailalert

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/emersion/go-imap/v2"

	"github.com/NoaVaturi/JobBot/internal/domain"
	"github.com/NoaVaturi/JobBot/internal/search/types"
)

const maxMessages = 50

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Mailbox  string
	// SubjectNeedles restricts which messages are treated as job alerts;
	// matching is a case-insensitive substring check.
	SubjectNeedles []string
}

type Fetcher struct {
	cfg Config
}

func New(cfg Config) *Fetcher {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.Port == 0 {
		cfg.Port = 993
	}
	return &Fetcher{cfg: cfg}
}

func (f *Fetcher) Source() domain.Source { return domain.SourceEmailAlert }

func (f *Fetcher) Fetch(ctx context.Context, _ types.Query) ([]domain.Posting, error) {
	addr := fmt.Sprintf("%s:%d", f.cfg.Host, f.cfg.Port)
	c, err := dialAndLogin(ctx, addr, f.cfg.Username, f.cfg.Password)
	if err != nil {
		return nil, err
	}
	defer logout(c)

	msgs, err := fetchUnseen(ctx, c, f.cfg.Mailbox, maxMessages)
	if err != nil {
		return nil, err
	}

	var out []domain.Posting
	var consumed []imap.UID
	for _, m := range msgs {
		if !f.subjectMatches(m.Subject) {
			continue
		}
		html := htmlPart(m.Raw)
		if html == "" {
			continue
		}
		jobs := parseAlertHTML(html)
		if len(jobs) == 0 {
			continue
		}
		for _, j := range jobs {
			out = append(out, domain.Posting{
				Source:      domain.SourceEmailAlert,
				ExternalID:  j.ID,
				Title:       j.Title,
				Company:     orUnknown(j.Company),
				Location:    orUnknown(j.Location),
				Description: domain.Unknown,
				URL:         j.URL,
			})
		}
		consumed = append(consumed, m.UID)
	}

	if err := markSeen(c, consumed); err != nil {
		// postings were parsed; losing the flag only risks a re-read that
		// the dedup store absorbs
		log.Printf("[emailalert] mark seen: %v", err)
	}
	log.Printf("[emailalert] fetched %d postings from %d messages", len(out), len(consumed))
	return out, nil
}

func (f *Fetcher) subjectMatches(subject string) bool {
	if len(f.cfg.SubjectNeedles) == 0 {
		return strings.Contains(strings.ToLower(subject), "job alert")
	}
	s := strings.ToLower(subject)
	for _, needle := range f.cfg.SubjectNeedles {
		if strings.Contains(s, strings.ToLower(needle)) {
			return true
		}
	}
	return false
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return domain.Unknown
	}
	return s
}
