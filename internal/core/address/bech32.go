package address

import (
	"errors"
	"strings"
)

const bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

type bech32Variant int

const (
	variantBech32  bech32Variant = 1
	variantBech32m bech32Variant = 2
)

const (
	bech32Const  = 1
	bech32mConst = 0x2bc830a3
)

var errBech32 = errors.New("invalid bech32 string")

func polymod(values []byte) uint32 {
	gen := [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}
	chk := uint32(1)
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i := 0; i < 5; i++ {
			if (top>>i)&1 == 1 {
				chk ^= gen[i]
			}
		}
	}
	return chk
}

func hrpExpand(hrp string) []byte {
	out := make([]byte, 0, len(hrp)*2+1)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]>>5)
	}
	out = append(out, 0)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]&31)
	}
	return out
}

// decodeBech32 returns the human readable part, the data part without checksum and the variant
// maxLen 0 disables the BIP-173 90 character cap (BOLT11, LNURL, Cardano)
func decodeBech32(s string, maxLen int) (string, []byte, bech32Variant, error) {
	if maxLen > 0 && len(s) > maxLen {
		return "", nil, 0, errBech32
	}
	lower := strings.ToLower(s)
	if lower != s && strings.ToUpper(s) != s {
		return "", nil, 0, errBech32
	}
	s = lower

	pos := strings.LastIndexByte(s, '1')
	if pos < 1 || pos+7 > len(s) {
		return "", nil, 0, errBech32
	}
	hrp := s[:pos]
	for i := 0; i < len(hrp); i++ {
		if hrp[i] < 33 || hrp[i] > 126 {
			return "", nil, 0, errBech32
		}
	}
	data := make([]byte, 0, len(s)-pos-1)
	for i := pos + 1; i < len(s); i++ {
		d := strings.IndexByte(bech32Charset, s[i])
		if d < 0 {
			return "", nil, 0, errBech32
		}
		data = append(data, byte(d))
	}

	var variant bech32Variant
	switch polymod(append(hrpExpand(hrp), data...)) {
	case bech32Const:
		variant = variantBech32
	case bech32mConst:
		variant = variantBech32m
	default:
		return "", nil, 0, errBech32
	}
	return hrp, data[:len(data)-6], variant, nil
}

// convertBits regroups 5-bit words into 8-bit bytes without padding
func convertBits(data []byte, from, to uint) ([]byte, bool) {
	var acc, bits uint
	maxv := uint(1)<<to - 1
	out := make([]byte, 0, len(data)*int(from)/int(to))
	for _, v := range data {
		if uint(v)>>from != 0 {
			return nil, false
		}
		acc = acc<<from | uint(v)
		bits += from
		for bits >= to {
			bits -= to
			out = append(out, byte(acc>>bits&maxv))
		}
	}
	if bits >= from || acc<<(to-bits)&maxv != 0 {
		return nil, false
	}
	return out, true
}

// segwit checks a BIP-173/BIP-350 witness address for one of hrps
func segwit(addr string, hrps ...string) bool {
	hrp, data, variant, err := decodeBech32(addr, 90)
	if err != nil || len(data) < 1 {
		return false
	}
	known := false
	for _, h := range hrps {
		if hrp == h {
			known = true
			break
		}
	}
	if !known {
		return false
	}
	ver := data[0]
	if ver > 16 {
		return false
	}
	prog, ok := convertBits(data[1:], 5, 8)
	if !ok || len(prog) < 2 || len(prog) > 40 {
		return false
	}
	if ver == 0 {
		return variant == variantBech32 && (len(prog) == 20 || len(prog) == 32)
	}
	return variant == variantBech32m
}

// encodeBech32 appends the checksum for variant to hrp and 5-bit data
func encodeBech32(hrp string, data []byte, v bech32Variant) string {
	c := uint32(bech32Const)
	if v == variantBech32m {
		c = bech32mConst
	}
	values := append(hrpExpand(hrp), data...)
	mod := polymod(append(values, 0, 0, 0, 0, 0, 0)) ^ c
	var b strings.Builder
	b.WriteString(hrp)
	b.WriteByte('1')
	for _, d := range data {
		b.WriteByte(bech32Charset[d])
	}
	for i := 0; i < 6; i++ {
		b.WriteByte(bech32Charset[(mod>>uint(5*(5-i)))&31])
	}
	return b.String()
}

// toWords regroups bytes into 5-bit words, zero padding the tail
func toWords(b []byte) []byte {
	var out []byte
	var acc, bits uint
	for _, v := range b {
		acc = acc<<8 | uint(v)
		bits += 8
		for bits >= 5 {
			bits -= 5
			out = append(out, byte(acc>>bits&31))
		}
	}
	if bits > 0 {
		out = append(out, byte(acc<<(5-bits)&31))
	}
	return out
}

// EncodeSegwit renders a witness program; v0 uses bech32, later versions bech32m
func EncodeSegwit(hrp string, version byte, program []byte) string {
	v := variantBech32
	if version > 0 {
		v = variantBech32m
	}
	return encodeBech32(hrp, append([]byte{version}, toWords(program)...), v)
}
