package rpc

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TxMeta is supplementary context for the transaction prompt. It is fetched
// speculatively alongside the build so the prompt can show what the
// transaction actually touches.
type TxMeta struct {
	DestIsContract  bool
	NativeSymbol    string
	NativeDecimals  uint8
	ERC20Receiver   *common.Address
	ERC20IsApproval bool
	ERC20Amount     *big.Int
}

// ERC-20 method IDs for the calldata we can explain.
var (
	transferSelector = []byte{0xa9, 0x05, 0x9c, 0xbb} // transfer(address,uint256)
	approveSelector  = []byte{0x09, 0x5e, 0xa7, 0xb3} // approve(address,uint256)
)

// decodeERC20Call recognizes transfer/approve calldata and extracts the
// counterparty and amount.
func decodeERC20Call(data []byte) (receiver common.Address, amount *big.Int, approval, ok bool) {
	if len(data) != 4+32+32 {
		return common.Address{}, nil, false, false
	}
	switch {
	case equalSelector(data, transferSelector):
	case equalSelector(data, approveSelector):
		approval = true
	default:
		return common.Address{}, nil, false, false
	}
	receiver = common.BytesToAddress(data[4+12 : 4+32])
	amount = new(big.Int).SetBytes(data[4+32 : 4+64])
	return receiver, amount, approval, true
}

func equalSelector(data, sel []byte) bool {
	for i := range sel {
		if data[i] != sel[i] {
			return false
		}
	}
	return true
}

// FetchTxMeta inspects the destination and calldata of a request. Errors
// are soft: the prompt renders whatever could be resolved.
func (c *Client) FetchTxMeta(ctx context.Context, req TxRequest) TxMeta {
	meta := TxMeta{
		NativeSymbol:   c.Network.Symbol,
		NativeDecimals: c.Network.NativeDecimals,
	}
	if req.To != nil {
		if isContract, err := c.IsContract(ctx, *req.To); err == nil {
			meta.DestIsContract = isContract
		}
	}
	if receiver, amount, approval, ok := decodeERC20Call(req.Data); ok {
		meta.ERC20Receiver = &receiver
		meta.ERC20Amount = amount
		meta.ERC20IsApproval = approval
	}
	return meta
}
