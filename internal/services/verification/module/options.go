package module

import (
	"time"

	"payalias/internal/platform/config"
)

// Options holds configuration settings for the verification module
type Options struct {
	DoHURL               string
	HTTPTimeout          time.Duration
	UserAgent            string
	WellKnownFallbackTXT bool
}

// FromConfig reads VERIFICATION_* settings
func FromConfig(cfg config.Conf) Options {
	vc := cfg.Prefix("VERIFICATION_")
	return Options{
		DoHURL:               vc.MayURL("DOH_URL", ""),
		HTTPTimeout:          vc.MayDuration("HTTP_TIMEOUT", 8*time.Second),
		UserAgent:            vc.MayString("USER_AGENT", "payalias-verifier"),
		WellKnownFallbackTXT: vc.MayBool("WELLKNOWN_FALLBACK_TXT", true),
	}
}
