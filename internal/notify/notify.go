// Package notify delivers accepted postings to the user.
package notify

import (
	"context"
	"log"

	"github.com/NoaVaturi/JobBot/internal/domain"
)

// Notifier is the delivery channel. DeliverEmpty is a distinct signal so the
// user can tell "nothing new today" apart from a broken pipeline.
type Notifier interface {
	Deliver(ctx context.Context, postings []domain.Posting) error
	DeliverEmpty(ctx context.Context) error
}

// LogNotifier writes deliveries to the process log. Used in tests and when
// no bot token is configured.
type LogNotifier struct{}

func (LogNotifier) Deliver(_ context.Context, postings []domain.Posting) error {
	for _, p := range postings {
		log.Printf("[notify] %s | %s | %s | %s", p.Source, p.Title, p.Company, p.URL)
	}
	return nil
}

func (LogNotifier) DeliverEmpty(context.Context) error {
	log.Printf("[notify] no new postings")
	return nil
}
