// Package address checks payment address syntax per chain
// every function is pure and safe for concurrent use
package address

import (
	"bytes"
	"crypto/sha256"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"
)

// Validate reports whether addr is well formed for currency
// currency may be a ticker or chain name; unknown currencies get the Generic check
func Validate(currency, addr string) bool {
	c, ok := NormalizeChain(currency)
	if !ok || c == All {
		return false
	}
	switch {
	case c == BTC:
		return Bitcoin(addr)
	case evm[c]:
		return Ethereum(addr)
	case c == LTC:
		return Litecoin(addr)
	case c == DOGE:
		return Dogecoin(addr)
	case c == ADA:
		return Cardano(addr)
	case c == LN:
		return Lightning(addr)
	default:
		return Generic(addr)
	}
}

// Bitcoin accepts base58check P2PKH/P2SH (mainnet and testnet) and segwit v0/v1+ addresses
func Bitcoin(addr string) bool {
	return base58Check(addr, 0x00, 0x05, 0x6f, 0xc4) || segwit(addr, "bc", "tb", "bcrt")
}

// Litecoin accepts L/M/3 base58check addresses and ltc1 segwit
func Litecoin(addr string) bool {
	return base58Check(addr, 0x30, 0x32, 0x05, 0x6f, 0x3a) || segwit(addr, "ltc", "tltc")
}

// Dogecoin accepts D/9/A base58check addresses
func Dogecoin(addr string) bool {
	return base58Check(addr, 0x1e, 0x16, 0x71, 0xc4)
}

var hexAddr = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Ethereum accepts 0x-prefixed 20 byte hex; mixed case must carry a valid EIP-55 checksum
func Ethereum(addr string) bool {
	if !hexAddr.MatchString(addr) || !common.IsHexAddress(addr) {
		return false
	}
	body := addr[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return true
	}
	return common.HexToAddress(addr).Hex() == addr
}

// Same reports whether a and b name the same address
// hex addresses compare by their 20 bytes and bech32 strings ignore case; everything else is exact
func Same(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == b {
		return true
	}
	if common.IsHexAddress(a) && common.IsHexAddress(b) {
		return common.HexToAddress(a) == common.HexToAddress(b)
	}
	if !strings.EqualFold(a, b) {
		return false
	}
	_, _, _, errA := decodeBech32(a, 0)
	_, _, _, errB := decodeBech32(b, 0)
	return errA == nil && errB == nil
}

var lnAddress = regexp.MustCompile(`(?i)^[a-z0-9._+-]+@[a-z0-9-]+(\.[a-z0-9-]+)+$`)

// Lightning accepts a lightning address (user@host), a bech32 LNURL or a BOLT11 invoice
func Lightning(addr string) bool {
	if lnAddress.MatchString(addr) {
		return true
	}
	hrp, _, variant, err := decodeBech32(addr, 0)
	if err != nil || variant != variantBech32 {
		return false
	}
	if hrp == "lnurl" {
		return true
	}
	for _, p := range []string{"lnbcrt", "lntbs", "lnbc", "lntb", "lnsb"} {
		if strings.HasPrefix(hrp, p) {
			return true
		}
	}
	return false
}

// Cardano accepts Shelley bech32 addresses (addr/addr_test) and legacy Byron base58 addresses
func Cardano(addr string) bool {
	if hrp, _, variant, err := decodeBech32(addr, 0); err == nil {
		return variant == variantBech32 && (hrp == "addr" || hrp == "addr_test")
	}
	if strings.HasPrefix(addr, "Ae2") || strings.HasPrefix(addr, "DdzFF") {
		b, err := base58.Decode(addr)
		return err == nil && len(b) > 40
	}
	return false
}

// Generic accepts 20..128 printable ASCII characters without whitespace
func Generic(addr string) bool {
	if len(addr) < 20 || len(addr) > 128 {
		return false
	}
	for i := 0; i < len(addr); i++ {
		if addr[i] <= ' ' || addr[i] > '~' {
			return false
		}
	}
	return true
}

// base58Check verifies a 25 byte versioned payload with a double-sha256 checksum
func base58Check(addr string, versions ...byte) bool {
	if len(addr) < 26 || len(addr) > 35 {
		return false
	}
	b, err := base58.Decode(addr)
	if err != nil || len(b) != 25 {
		return false
	}
	first := sha256.Sum256(b[:21])
	second := sha256.Sum256(first[:])
	if !bytes.Equal(second[:4], b[21:]) {
		return false
	}
	return bytes.IndexByte(versions, b[0]) >= 0
}
