// Package config reads process configuration from environment variables
package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"payalias/internal/platform/logger"
)

// Conf is a namespaced view over environment variables
// New() reads globally, Prefix("RESOLUTION_") scopes a module
type Conf struct{ prefix string }

// New creates a root Conf with no prefix
func New() Conf { return Conf{} }

// Prefix returns a child Conf, prefixes nest
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) key(k string) string { return c.prefix + k }

// lookup returns the trimmed value and the fully qualified key
func (c Conf) lookup(key string) (string, string) {
	k := c.key(key)
	return strings.TrimSpace(os.Getenv(k)), k
}

// MustString panics when the key is missing or blank
func (c Conf) MustString(key string) string {
	v, k := c.lookup(key)
	if v == "" {
		logger.Get().Panic().Str("key", k).Msg("missing required env")
	}
	return v
}

// MustDuration panics when the key is missing or not a Go duration
func (c Conf) MustDuration(key string) time.Duration {
	s := c.MustString(key)
	d, err := time.ParseDuration(s)
	if err != nil {
		logger.Get().Panic().Str("key", c.key(key)).Str("value", s).Msg("invalid duration (e.g. 250ms, 5s, 24h)")
	}
	return d
}

// Require panics on the first blank key
func (c Conf) Require(keys ...string) {
	for _, key := range keys {
		if v, k := c.lookup(key); v == "" {
			logger.Get().Panic().Str("key", k).Msg("missing required env")
		}
	}
}

// MayString returns the value or def when blank
func (c Conf) MayString(key, def string) string {
	if v, _ := c.lookup(key); v != "" {
		return v
	}
	return def
}

// MayInt returns the value or def; invalid values warn and fall back
func (c Conf) MayInt(key string, def int) int {
	s, k := c.lookup(key)
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", k).Str("value", s).Int("default", def).Msg("invalid int; using default")
	return def
}

// MayFloat64 returns the value or def; invalid values warn and fall back
func (c Conf) MayFloat64(key string, def float64) float64 {
	s, k := c.lookup(key)
	if s == "" {
		return def
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", k).Str("value", s).Float64("default", def).Msg("invalid float; using default")
	return def
}

// MayBool returns the value or def; invalid values warn and fall back
func (c Conf) MayBool(key string, def bool) bool {
	s, k := c.lookup(key)
	if s == "" {
		return def
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", k).Str("value", s).Bool("default", def).Msg("invalid bool; using default")
	return def
}

// MayDuration returns the value or def; invalid values warn and fall back
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	s, k := c.lookup(key)
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	logger.Get().Warn().Str("key", k).Str("value", s).Dur("default", def).Msg("invalid duration; using default")
	return def
}

// MayURL returns an absolute URL string or def
// relative or unparsable values warn and fall back
func (c Conf) MayURL(key, def string) string {
	s, k := c.lookup(key)
	if s == "" {
		return def
	}
	if u, err := url.Parse(s); err == nil && u.IsAbs() {
		return strings.TrimRight(s, "/")
	}
	logger.Get().Warn().Str("key", k).Str("value", s).Str("default", def).Msg("invalid absolute URL; using default")
	return def
}

// MayCSV splits a comma separated value, dropping blanks; def when nothing remains
func (c Conf) MayCSV(key string, def []string) []string {
	s, _ := c.lookup(key)
	if s == "" {
		return def
	}
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayEnum returns the value when it is one of allowed (case insensitive), def when blank, panics otherwise
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := c.MayString(key, def)
	if v == "" {
		return v
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return strings.ToLower(v)
		}
	}
	logger.Get().Panic().Str("key", c.key(key)).Str("value", v).Strs("allowed", allowed).Msg("invalid enum value")
	return ""
}
