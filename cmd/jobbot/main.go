package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/NoaVaturi/JobBot/internal/config"
	"github.com/NoaVaturi/JobBot/internal/events"
	"github.com/NoaVaturi/JobBot/internal/filter"
	"github.com/NoaVaturi/JobBot/internal/notify"
	"github.com/NoaVaturi/JobBot/internal/pipeline"
	"github.com/NoaVaturi/JobBot/internal/scheduler"
	"github.com/NoaVaturi/JobBot/internal/search/drushim"
	"github.com/NoaVaturi/JobBot/internal/search/emailalert"
	"github.com/NoaVaturi/JobBot/internal/search/googlejobs"
	"github.com/NoaVaturi/JobBot/internal/search/gotfriends"
	"github.com/NoaVaturi/JobBot/internal/search/indeed"
	"github.com/NoaVaturi/JobBot/internal/search/types"
	"github.com/NoaVaturi/JobBot/internal/search/util"
	"github.com/NoaVaturi/JobBot/internal/secrets"
	"github.com/NoaVaturi/JobBot/internal/server"
	"github.com/NoaVaturi/JobBot/internal/store"
)

func main() {
	// .env is optional; real deployments use actual env vars
	_ = godotenv.Load()

	dataDir := os.Getenv("JOBBOT_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}
	cfg, err := config.Load(userCfgPath)
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}

	seen, err := store.Open(filepath.Join(dataDir, "jobbot.db"))
	if err != nil {
		if errors.Is(err, store.ErrLocked) {
			log.Fatalf("another jobbot instance is using %s", dataDir)
		}
		log.Fatal(err)
	}
	defer seen.Close()

	fetchers, err := buildFetchers(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if len(fetchers) == 0 {
		log.Fatal("no sources enabled")
	}

	notifier, err := buildNotifier(cfg)
	if err != nil {
		log.Fatal(err)
	}

	hub := events.NewHub()
	runner := pipeline.NewRunner(
		fetchers,
		filter.New(cfg.Filters),
		seen,
		notifier,
		hub,
		types.Query{Terms: cfg.Search.Terms, Locations: cfg.Search.Locations},
		cfg.Search.SourceTimeout,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, err := scheduler.Start(ctx, cfg.App.CronSpec, runner.RunAsync)
	if err != nil {
		log.Fatal(err)
	}

	srv := server.New(cfg.App.Port, server.Deps{
		Trigger:       runner,
		Seen:          seen,
		Hub:           hub,
		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
	})

	go func() {
		log.Printf("[jobbot] listening on %s (data=%s)", srv.Addr, dataDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("[jobbot] shutting down")
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[jobbot] shutdown: %v", err)
	}
}

// buildFetchers registers one fetcher per enabled source. They share one
// per-host rate limiter so two sources never hammer the same site.
func buildFetchers(cfg config.Config) ([]types.Fetcher, error) {
	limiter := util.NewHostLimiter(1.0, 2)

	var fetchers []types.Fetcher
	if cfg.Sources.Drushim.Enabled {
		fetchers = append(fetchers, drushim.New(drushim.Config{
			MaxPostings: cfg.Sources.Drushim.MaxPostings,
		}, limiter))
	}
	if cfg.Sources.GotFriends.Enabled {
		fetchers = append(fetchers, gotfriends.New(gotfriends.Config{
			MaxPostings: cfg.Sources.GotFriends.MaxPostings,
		}, limiter))
	}
	if cfg.Sources.Indeed.Enabled {
		fetchers = append(fetchers, indeed.New(limiter))
	}
	if cfg.Sources.GoogleJobs.Enabled {
		apiKey, err := secrets.Get(secrets.AccountSerpAPIKey, "SERPAPI_KEY")
		if err != nil {
			return nil, err
		}
		if apiKey == "" {
			log.Printf("[jobbot] googlejobs enabled but no SerpAPI key found, skipping source")
		} else {
			fetchers = append(fetchers, googlejobs.New(apiKey, limiter))
		}
	}
	if cfg.Sources.Email.Enabled {
		account := secrets.IMAPAccount(cfg.Sources.Email.Username, cfg.Sources.Email.IMAPHost)
		password, err := secrets.Get(account, "IMAP_PASSWORD")
		if err != nil {
			return nil, err
		}
		if password == "" {
			log.Printf("[jobbot] email source enabled but no IMAP password found, skipping source")
		} else {
			fetchers = append(fetchers, emailalert.New(emailalert.Config{
				Host:           cfg.Sources.Email.IMAPHost,
				Port:           cfg.Sources.Email.IMAPPort,
				Username:       cfg.Sources.Email.Username,
				Password:       password,
				Mailbox:        cfg.Sources.Email.Mailbox,
				SubjectNeedles: cfg.Sources.Email.SearchSubjectAny,
			}))
		}
	}
	return fetchers, nil
}

// buildNotifier picks Telegram when a token is available, and falls back to
// the log notifier so the pipeline still runs end to end without one.
func buildNotifier(cfg config.Config) (notify.Notifier, error) {
	token, err := secrets.Get(secrets.AccountTelegramToken, "TELEGRAM_BOT_TOKEN")
	if err != nil {
		return nil, err
	}
	if token == "" || cfg.Telegram.ChatID == 0 {
		log.Printf("[jobbot] no telegram token or chat id, delivering to log")
		return notify.LogNotifier{}, nil
	}
	return notify.NewTelegram(token, cfg.Telegram.ChatID)
}
