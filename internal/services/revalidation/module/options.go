package module

import (
	"time"

	"payalias/internal/platform/config"
)

// Options controls the revalidation worker
type Options struct {
	Interval       time.Duration
	Batch          int
	StaleAfter     time.Duration
	Concurrency    int
	ScoreDrop      int
	RetryBase      time.Duration
	WebhookSecret  string
	WebhookTimeout time.Duration
	SMTPAddr       string
	SMTPUser       string
	SMTPPass       string
	SMTPFrom       string
}

// FromConfig reads REVALIDATION_* settings
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("REVALIDATION_")
	return Options{
		Interval:       c.MayDuration("INTERVAL", time.Hour),
		Batch:          c.MayInt("BATCH", 50),
		StaleAfter:     c.MayDuration("STALE_AFTER", 24*time.Hour),
		Concurrency:    c.MayInt("CONCURRENCY", 2),
		ScoreDrop:      c.MayInt("SCORE_DROP", 20),
		RetryBase:      c.MayDuration("RETRY_BASE", 500*time.Millisecond),
		WebhookSecret:  c.MayString("WEBHOOK_SECRET", ""),
		WebhookTimeout: c.MayDuration("WEBHOOK_TIMEOUT", 10*time.Second),
		SMTPAddr:       c.MayString("SMTP_ADDR", ""),
		SMTPUser:       c.MayString("SMTP_USER", ""),
		SMTPPass:       c.MayString("SMTP_PASS", ""),
		SMTPFrom:       c.MayString("SMTP_FROM", ""),
	}
}
