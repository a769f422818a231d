package address

import (
	"crypto/sha256"

	"github.com/mr-tron/base58"
)

// scriptParams are the address encodings of a bitcoin-family chain
type scriptParams struct {
	p2pkh, p2sh byte
	hrp         string
}

var scriptChains = map[string]scriptParams{
	BTC:  {p2pkh: 0x00, p2sh: 0x05, hrp: "bc"},
	LTC:  {p2pkh: 0x30, p2sh: 0x32, hrp: "ltc"},
	DOGE: {p2pkh: 0x1e, p2sh: 0x16},
}

// EncodeBase58Check prefixes payload with version and appends the double-sha256 checksum
func EncodeBase58Check(version byte, payload []byte) string {
	b := append([]byte{version}, payload...)
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return base58.Encode(append(b, second[:4]...))
}

// FromScript renders a scriptPubKey (the form ENS stores for bitcoin-family coin types) as an address
// supports P2PKH, P2SH and witness programs
func FromScript(currency string, script []byte) (string, bool) {
	p, ok := scriptChains[currency]
	if !ok {
		return "", false
	}
	n := len(script)
	switch {
	case n == 25 && script[0] == 0x76 && script[1] == 0xa9 && script[2] == 0x14 && script[23] == 0x88 && script[24] == 0xac:
		return EncodeBase58Check(p.p2pkh, script[3:23]), true
	case n == 23 && script[0] == 0xa9 && script[1] == 0x14 && script[22] == 0x87:
		return EncodeBase58Check(p.p2sh, script[2:22]), true
	case p.hrp != "" && n >= 4 && n <= 42 && int(script[1]) == n-2:
		ver := script[0]
		switch {
		case ver == 0x00:
			return EncodeSegwit(p.hrp, 0, script[2:]), true
		case ver >= 0x51 && ver <= 0x60:
			return EncodeSegwit(p.hrp, ver-0x50, script[2:]), true
		}
	}
	return "", false
}
