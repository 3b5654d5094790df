package rpc

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"gm-tui/config"
)

// Client wraps an Ethereum RPC client for one network
type Client struct {
	*ethclient.Client
	Network config.Network
	URL     string
}

// Connect attempts to connect to the network's RPC endpoint
func Connect(network config.Network, alchemyKey string) (*Client, error) {
	return ConnectWithTimeout(network, alchemyKey, 8*time.Second)
}

// ConnectWithTimeout attempts to connect with a custom timeout
func ConnectWithTimeout(network config.Network, alchemyKey string, timeout time.Duration) (*Client, error) {
	url, err := network.RPC(alchemyKey)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}

	return &Client{Client: client, Network: network, URL: url}, nil
}

// Minimal ERC20 balanceOf via eth_call.
var (
	// balanceOf(address) methodID = keccak256("balanceOf(address)")[:4]
	balanceOfSelector = []byte{0x70, 0xa0, 0x82, 0x31}
)

// ERC20BalanceOf queries a token balance with a hand-rolled selector call.
func (c *Client) ERC20BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	// calldata = selector + 32-byte left-padded address
	padded := common.LeftPadBytes(owner.Bytes(), 32)
	data := append(append([]byte{}, balanceOfSelector...), padded...)

	msg := ethereum.CallMsg{
		To:   &token,
		Data: data,
	}
	out, err := c.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return big.NewInt(0), nil
	}
	return new(big.Int).SetBytes(out), nil
}

// IsContract reports whether there is code deployed at addr.
func (c *Client) IsContract(ctx context.Context, addr common.Address) (bool, error) {
	code, err := c.CodeAt(ctx, addr, nil)
	if err != nil {
		return false, err
	}
	return len(code) > 0, nil
}
