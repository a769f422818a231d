// Package openalias parses the TXT conventions used to publish payment addresses in DNS
//
//	oa1:btc recipient_address=bc1q...; recipient_name="Tips Jar"; tx_description=coffee;
//	bitcoin=bc1q...
//	crypto:eth=0xabc...
package openalias

import (
	"strings"

	"payalias/internal/core/address"
)

const prefix = "oa1:"

// Record is one parsed oa1 entry
type Record struct {
	Currency    string
	Address     string
	Name        string
	Description string
	Fields      map[string]string
}

// ParseRecord parses an oa1 record; ok is false when txt is not oa1 or has no recipient_address
func ParseRecord(txt string) (Record, bool) {
	txt = strings.TrimSpace(unquote(txt))
	if len(txt) < len(prefix) || !strings.EqualFold(txt[:len(prefix)], prefix) {
		return Record{}, false
	}
	body := txt[len(prefix):]
	tag, rest, _ := strings.Cut(body, " ")
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return Record{}, false
	}
	cur, known := address.NormalizeChain(tag)
	if !known || cur == address.All {
		return Record{}, false
	}

	fields := splitFields(rest)
	addr := fields["recipient_address"]
	if addr == "" {
		return Record{}, false
	}
	return Record{
		Currency:    cur,
		Address:     addr,
		Name:        fields["recipient_name"],
		Description: fields["tx_description"],
		Fields:      fields,
	}, true
}

// splitFields reads `key=value;` pairs, honoring double quoted values containing ';'
func splitFields(s string) map[string]string {
	out := map[string]string{}
	for s = strings.TrimSpace(s); s != ""; s = strings.TrimSpace(s) {
		eq := strings.IndexByte(s, '=')
		if eq < 0 {
			break
		}
		key := strings.ToLower(strings.TrimSpace(s[:eq]))
		s = strings.TrimLeft(s[eq+1:], " ")

		var val string
		if strings.HasPrefix(s, `"`) {
			end := strings.IndexByte(s[1:], '"')
			if end < 0 {
				val, s = s[1:], ""
			} else {
				val, s = s[1:end+1], s[end+2:]
				if i := strings.IndexByte(s, ';'); i >= 0 {
					s = s[i+1:]
				} else {
					s = ""
				}
			}
		} else if i := strings.IndexByte(s, ';'); i >= 0 {
			val, s = strings.TrimSpace(s[:i]), s[i+1:]
		} else {
			val, s = strings.TrimSpace(s), ""
		}
		if key != "" {
			out[key] = val
		}
	}
	return out
}

// ParseKeyValue parses the single pair conventions: bitcoin=..., crypto:btc=..., btc=...
func ParseKeyValue(txt string) (currency, addr string, ok bool) {
	txt = strings.TrimSpace(unquote(txt))
	key, val, found := strings.Cut(txt, "=")
	if !found {
		return "", "", false
	}
	key = strings.ToLower(strings.TrimSpace(key))
	val = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(val), ";"))
	if val == "" || strings.ContainsAny(val, " ;") {
		return "", "", false
	}
	key = strings.TrimPrefix(key, "crypto:")
	if key == "" || key == address.All {
		return "", "", false
	}
	cur, known := address.NormalizeChain(key)
	if !known {
		return "", "", false
	}
	return cur, val, true
}

// Find returns the first oa1 address published for chain; "all" matches any record
func Find(records []string, chain string) (string, bool) {
	want, ok := address.NormalizeChain(chain)
	if !ok {
		return "", false
	}
	for _, txt := range records {
		rec, ok := ParseRecord(txt)
		if ok && (want == address.All || rec.Currency == want) {
			return rec.Address, true
		}
	}
	return "", false
}

// All collects every address in records, oa1 and key=value, first one per currency wins
func All(records []string) map[string]string {
	out := map[string]string{}
	for _, txt := range records {
		if rec, ok := ParseRecord(txt); ok {
			if _, seen := out[rec.Currency]; !seen {
				out[rec.Currency] = rec.Address
			}
			continue
		}
		if cur, addr, ok := ParseKeyValue(txt); ok {
			if _, seen := out[cur]; !seen {
				out[cur] = addr
			}
		}
	}
	return out
}

// unquote strips one layer of surrounding quotes some DNS tools leave on TXT data
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
