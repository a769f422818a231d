// Package normalize folds user supplied aliases into the canonical form used for dispatch and cache keys
// Pipeline order
// 1 drop invalid UTF-8
// 2 NFKC
// 3 case folding
// 4 strip control and format runes (zero-width joiners and the like)
// 5 width fold fullwidth forms to ASCII
// 6 trim, then IDNA to ASCII on the host part
package normalize

import (
	"errors"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/net/idna"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// MaxAliasLen bounds an alias after folding
const MaxAliasLen = 253

// ErrEmpty is returned for blank aliases
var ErrEmpty = errors.New("alias is empty")

// ErrInvalid is returned for aliases that cannot name anything
var ErrInvalid = errors.New("alias contains invalid characters")

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Cc)),
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
		)
	},
}

var hostProfile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(false),
	idna.StrictDomainName(false),
)

// Alias returns the canonical form of s
// the part after the last '@' (or the whole alias when there is none) is IDNA encoded when it looks like a host
func Alias(s string) (string, error) {
	s = strings.ToValidUTF8(s, "")
	tr := chainPool.Get().(transform.Transformer)
	folded, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		return "", ErrInvalid
	}
	folded = strings.TrimSpace(folded)
	if folded == "" {
		return "", ErrEmpty
	}
	if strings.ContainsFunc(folded, unicode.IsSpace) || len(folded) > MaxAliasLen*2 {
		return "", ErrInvalid
	}

	prefix, rest := "", folded
	if strings.HasPrefix(rest, "acct:") {
		prefix, rest = "acct:", rest[len("acct:"):]
	}
	user, host := "", rest
	if i := strings.LastIndexByte(rest, '@'); i >= 0 {
		user, host = rest[:i+1], rest[i+1:]
	}

	if isHostLike(host) {
		ascii, err := hostProfile.ToASCII(strings.TrimSuffix(host, "."))
		if err != nil {
			return "", ErrInvalid
		}
		host = ascii
	}

	out := prefix + user + host
	if len(out) > MaxAliasLen {
		return "", ErrInvalid
	}
	return out, nil
}

// isHostLike skips handles ($name), trailing-slash handshake names and paystring ids
func isHostLike(s string) bool {
	if s == "" || strings.ContainsAny(s, "$/") {
		return false
	}
	return strings.Contains(s, ".")
}

// Host returns the host part of a canonical alias: after '@' or '$', or the alias itself
func Host(alias string) string {
	alias = strings.TrimPrefix(alias, "acct:")
	if i := strings.LastIndexAny(alias, "@$"); i >= 0 {
		return alias[i+1:]
	}
	return strings.TrimSuffix(alias, "/")
}

// User returns the local part before '@' or '$', "" when there is none
func User(alias string) string {
	alias = strings.TrimPrefix(alias, "acct:")
	if i := strings.LastIndexAny(alias, "@$"); i >= 0 {
		return alias[:i]
	}
	return ""
}
