package ens

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

func TestNamehash(t *testing.T) {
	cases := map[string]string{
		"":        "0x0000000000000000000000000000000000000000000000000000000000000000",
		"eth":     "0x93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae",
		"foo.eth": "0xde9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f",
	}
	for name, want := range cases {
		if got := Namehash(name).Hex(); got != want {
			t.Fatalf("Namehash(%q) = %s, want %s", name, got, want)
		}
	}
}

// fakeChain answers calls by method selector with canned outputs
type fakeChain struct {
	t        *testing.T
	resolver common.Address
	eth      common.Address
	coins    map[int64][]byte
	text     string
	fail     bool
}

func (f *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.fail {
		return nil, errors.New("rpc down")
	}
	m, err := contractABI.MethodById(msg.Data[:4])
	if err != nil {
		f.t.Fatalf("unknown selector: %v", err)
	}
	args, err := m.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		f.t.Fatalf("unpack args: %v", err)
	}
	switch m.Name {
	case methodResolver:
		return m.Outputs.Pack(f.resolver)
	case methodAddr:
		return m.Outputs.Pack(f.eth)
	case methodAddrCoin:
		coin := args[1].(*big.Int).Int64()
		return m.Outputs.Pack(f.coins[coin])
	case methodText:
		return m.Outputs.Pack(f.text)
	}
	return nil, nil
}

func TestLookup(t *testing.T) {
	script := append([]byte{0x00, 0x14}, bytes.Repeat([]byte{0x11}, 20)...)
	chain := &fakeChain{
		t:        t,
		resolver: common.HexToAddress("0x4976fb03C32e5B8cfe2b6cCB31c09Ba78EBaBa41"),
		eth:      common.HexToAddress("0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"),
		coins:    map[int64][]byte{CoinBTC: script},
		text:     "tips@getalby.com",
	}
	c := NewWithCaller(chain, RegistryAddress)

	rec, err := c.Lookup(context.Background(), "vitalik.eth", CoinBTC, CoinLTC)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if rec.ETH != chain.eth || rec.Lightning != "tips@getalby.com" {
		t.Fatalf("unexpected records: %+v", rec)
	}
	if !bytes.Equal(rec.Coins[CoinBTC], script) {
		t.Fatalf("btc script not returned: %x", rec.Coins[CoinBTC])
	}
	if _, ok := rec.Coins[CoinLTC]; ok {
		t.Fatal("empty coin records should be skipped")
	}
}

func TestLookupNoResolverAndFailure(t *testing.T) {
	c := NewWithCaller(&fakeChain{t: t}, RegistryAddress)
	rec, err := c.Lookup(context.Background(), "nobody.eth")
	if err != nil || rec.ETH != (common.Address{}) || len(rec.Coins) != 0 {
		t.Fatalf("missing resolver should yield empty records: %+v %v", rec, err)
	}

	c = NewWithCaller(&fakeChain{t: t, fail: true}, RegistryAddress)
	if _, err := c.Lookup(context.Background(), "vitalik.eth"); err == nil {
		t.Fatal("rpc failure should surface from the registry call")
	}
}
