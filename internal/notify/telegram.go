package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/NoaVaturi/JobBot/internal/domain"
)

// messageDelay keeps us clear of Telegram's per-chat rate limit.
const messageDelay = 500 * time.Millisecond

type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

// Deliver sends a header followed by one message per posting.
func (t *Telegram) Deliver(ctx context.Context, postings []domain.Posting) error {
	if len(postings) == 0 {
		return t.DeliverEmpty(ctx)
	}

	header := fmt.Sprintf("🚀 *Found %d new job(s) today!*", len(postings))
	if err := t.send(ctx, header); err != nil {
		return err
	}

	for i, p := range postings {
		if err := t.send(ctx, formatPosting(p, i+1, len(postings))); err != nil {
			return fmt.Errorf("posting %d/%d: %w", i+1, len(postings), err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(messageDelay):
		}
	}
	return nil
}

func (t *Telegram) DeliverEmpty(ctx context.Context) error {
	msg := "📭 *No new jobs found today*\n\n" +
		"I've checked all the job boards, but there are no new job postings " +
		"matching your criteria today. I'll check again tomorrow! 🔍"
	return t.send(ctx, msg)
}

func (t *Telegram) send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func formatPosting(p domain.Posting, index, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%d/%d - %s*\n\n", index, total, escapeMarkdown(p.Title))
	fmt.Fprintf(&b, "🏢 *Company:* %s\n", escapeMarkdown(p.Company))
	fmt.Fprintf(&b, "📍 *Location:* %s\n", escapeMarkdown(p.Location))
	fmt.Fprintf(&b, "🔗 *Source:* %s\n", strings.ToUpper(string(p.Source)))

	if desc := p.Description; desc != "" && desc != domain.Unknown {
		if r := []rune(desc); len(r) > 200 {
			desc = string(r[:200]) + "..."
		}
		fmt.Fprintf(&b, "\n📝 *Description:*\n%s\n", escapeMarkdown(desc))
	}
	fmt.Fprintf(&b, "\n🔗 [View Job](%s)", p.URL)
	return b.String()
}

// escapeMarkdown neutralizes the legacy-Markdown control characters that
// show up in scraped text and would otherwise break the message.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer("*", "\\*", "_", "\\_", "`", "\\`", "[", "\\[")
	return r.Replace(s)
}
