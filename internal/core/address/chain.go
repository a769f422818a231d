package address

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Currency tickers emitted by resolvers
const (
	BTC  = "BTC"
	ETH  = "ETH"
	LTC  = "LTC"
	DOGE = "DOGE"
	ADA  = "ADA"
	LN   = "LN"
	STX  = "STX"
	ZIL  = "ZIL"
	HNS  = "HNS"
	NMC  = "NMC"
	SOL  = "SOL"
	XMR  = "XMR"

	// All is the chain token meaning no filter
	All = "all"
)

var chainAliases = map[string]string{
	"bitcoin":   BTC,
	"btc":       BTC,
	"ethereum":  ETH,
	"eth":       ETH,
	"ether":     ETH,
	"litecoin":  LTC,
	"ltc":       LTC,
	"dogecoin":  DOGE,
	"doge":      DOGE,
	"cardano":   ADA,
	"ada":       ADA,
	"lightning": LN,
	"ln":        LN,
	"lnurl":     LN,
	"stacks":    STX,
	"stx":       STX,
	"zilliqa":   ZIL,
	"zil":       ZIL,
	"handshake": HNS,
	"hns":       HNS,
	"namecoin":  NMC,
	"nmc":       NMC,
	"solana":    SOL,
	"sol":       SOL,
	"monero":    XMR,
	"xmr":       XMR,
	"polygon":   "MATIC",
	"matic":     "MATIC",
	"bsc":       "BNB",
	"bnb":       "BNB",
	"avalanche": "AVAX",
	"avax":      "AVAX",
}

// evm currencies share the Ethereum address format
var evm = map[string]bool{ETH: true, "MATIC": true, "BNB": true, "AVAX": true, "ETC": true}

// NormalizeChain maps a chain name or ticker to its currency ticker
// "" and "all" map to All; unknown tickers of 2..10 alphanumerics pass through upper-cased
func NormalizeChain(s string) (string, bool) {
	k := cases.Fold().String(strings.TrimSpace(s))
	if k == "" || k == All {
		return All, true
	}
	if c, ok := chainAliases[k]; ok {
		return c, true
	}
	if len(k) < 2 || len(k) > 10 {
		return "", false
	}
	for _, r := range k {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return "", false
		}
	}
	return strings.ToUpper(k), true
}

// KnownChain is NormalizeChain restricted to the named chains above, for keys from untrusted documents
func KnownChain(s string) (string, bool) {
	c, ok := chainAliases[strings.ToLower(strings.TrimSpace(s))]
	return c, ok
}

// OpenAliasTag is the lower-case tag used in oa1:<tag> records for currency
func OpenAliasTag(currency string) string { return strings.ToLower(currency) }

// TagsFor lists the spellings a currency may carry in TXT or JSON records, ticker first
func TagsFor(currency string) []string {
	out := []string{strings.ToLower(currency)}
	for name, c := range chainAliases {
		if c == currency && name != out[0] {
			out = append(out, name)
		}
	}
	slices.Sort(out[1:])
	return out
}
