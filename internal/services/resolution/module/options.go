package module

import (
	"time"

	"payalias/internal/platform/config"
	"payalias/internal/services/resolution/plugins"
)

// Cache backends
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Options holds configuration settings for the resolution module
type Options struct {
	CacheBackend  string
	CacheTTL      time.Duration
	NegativeTTL   time.Duration
	SweepEvery    time.Duration
	PluginTimeout time.Duration
	HTTPTimeout   time.Duration
	UserAgent     string
	LookupLog     bool
	Plugins       plugins.Config
}

// FromConfig reads RESOLUTION_* settings
func FromConfig(cfg config.Conf) Options {
	rc := cfg.Prefix("RESOLUTION_")
	return Options{
		CacheBackend:  rc.MayEnum("CACHE_BACKEND", CacheMemory, CacheMemory, CacheRedis),
		CacheTTL:      rc.MayDuration("CACHE_TTL", 5*time.Minute),
		NegativeTTL:   rc.MayDuration("CACHE_NEGATIVE_TTL", 60*time.Second),
		SweepEvery:    rc.MayDuration("CACHE_SWEEP_EVERY", 10*time.Minute),
		PluginTimeout: rc.MayDuration("PLUGIN_TIMEOUT", 5*time.Second),
		HTTPTimeout:   rc.MayDuration("HTTP_TIMEOUT", 8*time.Second),
		UserAgent:     rc.MayString("USER_AGENT", "payalias-resolver"),
		LookupLog:     rc.MayBool("LOOKUP_LOG", true),
		Plugins: plugins.Config{
			DoHURL:               rc.MayURL("DOH_URL", ""),
			HandshakeDoHURL:      rc.MayURL("HNS_DOH_URL", ""),
			EthRPCURL:            rc.MayString("ETH_RPC_URL", ""),
			UDAPIURL:             rc.MayURL("UD_API_URL", ""),
			UDAPIKey:             rc.MayString("UD_API_KEY", ""),
			ZNSAPIURL:            rc.MayURL("ZNS_API_URL", ""),
			BNSAPIURL:            rc.MayURL("BNS_API_URL", ""),
			CNSAPIURL:            rc.MayURL("CNS_API_URL", ""),
			NamecoinAPIURL:       rc.MayURL("NAMECOIN_API_URL", ""),
			WellKnownFallbackTXT: cfg.Prefix("VERIFICATION_").MayBool("WELLKNOWN_FALLBACK_TXT", true),
		},
	}
}
