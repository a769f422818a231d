// Package ens reads ENS records from an Ethereum JSON-RPC endpoint
package ens

import (
	"context"
	"math/big"
	"strings"
	"sync"

	perr "payalias/internal/platform/errors"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// RegistryAddress is the ENS registry on mainnet
var RegistryAddress = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

// SLIP-44 coin types used by addr(bytes32,uint256)
const (
	CoinBTC  = 0
	CoinLTC  = 2
	CoinDOGE = 3
	CoinETH  = 60
)

const abiJSON = `[
{"name":"resolver","type":"function","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]},
{"name":"addr","type":"function","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]},
{"name":"addr","type":"function","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"},{"name":"coinType","type":"uint256"}],"outputs":[{"name":"","type":"bytes"}]},
{"name":"text","type":"function","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"},{"name":"key","type":"string"}],"outputs":[{"name":"","type":"string"}]}
]`

// go-ethereum names the second overload addr0
const (
	methodResolver = "resolver"
	methodAddr     = "addr"
	methodAddrCoin = "addr0"
	methodText     = "text"
)

var contractABI = func() abi.ABI {
	a, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic(err)
	}
	return a
}()

// Namehash implements EIP-137; labels are expected already normalized
func Namehash(name string) common.Hash {
	var node common.Hash
	name = strings.TrimSuffix(strings.TrimSpace(name), ".")
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		label := crypto.Keccak256Hash([]byte(labels[i]))
		node = crypto.Keccak256Hash(node.Bytes(), label.Bytes())
	}
	return node
}

// Client resolves ENS names; the RPC connection is dialed on first use
type Client struct {
	url      string
	registry common.Address

	mu     sync.Mutex
	caller ethereum.ContractCaller
}

// New returns a client for the JSON-RPC endpoint at url
func New(url string) *Client {
	return &Client{url: url, registry: RegistryAddress}
}

// NewWithCaller uses an existing contract caller, mainly for tests and simulated backends
func NewWithCaller(caller ethereum.ContractCaller, registry common.Address) *Client {
	return &Client{caller: caller, registry: registry}
}

func (c *Client) conn(ctx context.Context) (ethereum.ContractCaller, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.caller != nil {
		return c.caller, nil
	}
	rc, err := rpc.DialContext(ctx, c.url)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUpstream, "ens: dial rpc")
	}
	c.caller = ethclient.NewClient(rc)
	return c.caller, nil
}

func (c *Client) call(ctx context.Context, to common.Address, method string, args ...any) ([]any, error) {
	caller, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "ens: pack %s", method)
	}
	out, err := caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUpstream, "ens: call %s", method)
	}
	if len(out) == 0 {
		return nil, nil
	}
	vals, err := contractABI.Unpack(method, out)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUpstream, "ens: unpack %s", method)
	}
	return vals, nil
}

// Resolver returns the resolver contract for name, zero when none is set
func (c *Client) Resolver(ctx context.Context, name string) (common.Address, error) {
	vals, err := c.call(ctx, c.registry, methodResolver, Namehash(name))
	if err != nil || len(vals) == 0 {
		return common.Address{}, err
	}
	addr, _ := vals[0].(common.Address)
	return addr, nil
}

// Records is what a resolver publishes for a name
type Records struct {
	ETH       common.Address
	Coins     map[int64][]byte
	Lightning string
}

// Lookup reads the ETH address, the requested coin types and the lightning text record
// a missing resolver yields empty Records; individual record failures are skipped
func (c *Client) Lookup(ctx context.Context, name string, coins ...int64) (Records, error) {
	out := Records{Coins: map[int64][]byte{}}
	res, err := c.Resolver(ctx, name)
	if err != nil {
		return out, err
	}
	if res == (common.Address{}) {
		return out, nil
	}
	node := Namehash(name)

	if vals, err := c.call(ctx, res, methodAddr, node); err == nil && len(vals) > 0 {
		out.ETH, _ = vals[0].(common.Address)
	}
	for _, coin := range coins {
		vals, err := c.call(ctx, res, methodAddrCoin, node, big.NewInt(coin))
		if err != nil || len(vals) == 0 {
			continue
		}
		if b, ok := vals[0].([]byte); ok && len(b) > 0 {
			out.Coins[coin] = b
		}
	}
	if vals, err := c.call(ctx, res, methodText, node, "lightning"); err == nil && len(vals) > 0 {
		out.Lightning, _ = vals[0].(string)
	}
	return out, nil
}
