package rpc

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// TxRequest is a partial transaction as received from a screen or a remote
// dApp. Everything except To/Value/Data is filled in during build.
type TxRequest struct {
	From  common.Address
	To    *common.Address
	Value *big.Int
	Data  []byte
	Gas   uint64 // user-supplied floor, 0 when unset
}

// JsonRpcError is a structured node error (code/message/data). It is a
// domain result, not a failure: the transaction popup renders it inline and
// the WalletConnect router forwards it to the dApp.
type JsonRpcError struct {
	Code    int64
	Message string
	Data    []byte // decoded revert payload when present
}

func (e *JsonRpcError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("rpc error %d: %s (data: 0x%x)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// asJsonRpcError recovers the structured payload from a go-ethereum client
// error, if the error came back as a JSON-RPC error response.
func asJsonRpcError(err error) (*JsonRpcError, bool) {
	var rpcErr gethrpc.Error
	if !errors.As(err, &rpcErr) {
		return nil, false
	}
	out := &JsonRpcError{Code: int64(rpcErr.ErrorCode()), Message: rpcErr.Error()}

	var dataErr gethrpc.DataError
	if errors.As(err, &dataErr) {
		switch data := dataErr.ErrorData().(type) {
		case string:
			trimmed := strings.TrimPrefix(data, "0x")
			if decoded, err := hex.DecodeString(trimmed); err == nil {
				out.Data = decoded
			} else {
				out.Data = []byte(data)
			}
		case nil:
		default:
			out.Data = []byte(fmt.Sprint(data))
		}
	}
	return out, true
}

// GmStamp sets the last four decimal digits of a max-fee value to 9393,
// rounding up into 19393 when the tail is already above it. Transactions
// built by this wallet are recognizable on chain by the stamp; it must
// survive rewrites.
func GmStamp(fee *big.Int) *big.Int {
	mod := big.NewInt(10000)
	tail := new(big.Int).Mod(fee, mod)

	stamp := big.NewInt(9393)
	if tail.Cmp(stamp) > 0 {
		stamp = big.NewInt(19393)
	}
	return new(big.Int).Add(new(big.Int).Sub(fee, tail), stamp)
}

// FeeEstimate carries an EIP-1559 fee suggestion.
type FeeEstimate struct {
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// EstimateFees derives EIP-1559 fees from eth_feeHistory: latest base fee
// doubled for headroom, plus the highest median priority reward seen across
// recent blocks.
func (c *Client) EstimateFees(ctx context.Context) (FeeEstimate, error) {
	history, err := c.FeeHistory(ctx, 5, nil, []float64{50})
	if err != nil {
		return FeeEstimate{}, fmt.Errorf("fee history: %w", err)
	}
	if len(history.BaseFee) == 0 {
		return FeeEstimate{}, fmt.Errorf("fee history returned no base fees")
	}

	baseFee := history.BaseFee[len(history.BaseFee)-1]

	tip := big.NewInt(0)
	for _, rewards := range history.Reward {
		if len(rewards) > 0 && rewards[0].Cmp(tip) > 0 {
			tip = rewards[0]
		}
	}
	if tip.Sign() == 0 {
		suggested, err := c.SuggestGasTipCap(ctx)
		if err != nil {
			return FeeEstimate{}, fmt.Errorf("suggest gas tip: %w", err)
		}
		tip = suggested
	}

	maxFee := new(big.Int).Add(new(big.Int).Mul(baseFee, big.NewInt(2)), tip)
	return FeeEstimate{MaxFeePerGas: maxFee, MaxPriorityFeePerGas: tip}, nil
}

// BumpGasLimit applies the 110% headroom over the node's estimate while
// honoring a larger user-supplied limit.
func BumpGasLimit(userGas, estimate uint64) uint64 {
	bumped := estimate * 110 / 100
	if userGas > bumped {
		return userGas
	}
	return bumped
}

// BuildTx fills in nonce, chain id, EIP-1559 fees (gm-stamped), and gas
// limit, returning the unsigned type-2 transaction. A structured node error
// during estimation is returned as *JsonRpcError so it can be relayed
// outward instead of surfaced as a fatal failure.
func (c *Client) BuildTx(ctx context.Context, req TxRequest) (*types.Transaction, error) {
	nonce, err := c.PendingNonceAt(ctx, req.From)
	if err != nil {
		return nil, fmt.Errorf("fetch nonce: %w", err)
	}

	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}

	fees, err := c.EstimateFees(ctx)
	if err != nil {
		return nil, err
	}
	maxFee := GmStamp(fees.MaxFeePerGas)

	call := ethereum.CallMsg{
		From:      req.From,
		To:        req.To,
		Value:     req.Value,
		Data:      req.Data,
		GasFeeCap: maxFee,
		GasTipCap: fees.MaxPriorityFeePerGas,
	}
	estimate, err := c.EstimateGas(ctx, call)
	if err != nil && strings.Contains(err.Error(), "insufficient funds") {
		// Some nodes simulate the send with the fee fields applied and
		// reject on balance even though the call itself would succeed.
		// Re-estimate without gas price fields to isolate that quirk.
		retry := call
		retry.GasFeeCap = nil
		retry.GasTipCap = nil
		retry.GasPrice = nil
		estimate, err = c.EstimateGas(ctx, retry)
	}
	if err != nil {
		if rpcErr, ok := asJsonRpcError(err); ok {
			return nil, rpcErr
		}
		return nil, fmt.Errorf("estimate gas: %w", err)
	}

	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: fees.MaxPriorityFeePerGas,
		GasFeeCap: maxFee,
		Gas:       BumpGasLimit(req.Gas, estimate),
		To:        req.To,
		Value:     req.Value,
		Data:      req.Data,
	}), nil
}

// SendSignedTx RLP-encodes the signed envelope and submits it with
// eth_sendRawTransaction. Node rejections come back as *JsonRpcError.
func (c *Client) SendSignedTx(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode transaction: %w", err)
	}
	if err := c.Client.Client().CallContext(ctx, nil, "eth_sendRawTransaction", hexutilEncode(raw)); err != nil {
		if rpcErr, ok := asJsonRpcError(err); ok {
			return common.Hash{}, rpcErr
		}
		return common.Hash{}, fmt.Errorf("send transaction: %w", err)
	}
	return tx.Hash(), nil
}

func hexutilEncode(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// receiptPollInterval is how often WaitForReceipt polls the node.
const receiptPollInterval = 2 * time.Second

// WaitForReceipt polls eth_getTransactionReceipt until the receipt exists
// or ctx is canceled. There is no hard timeout; cancellation is the only
// way out of a stuck transaction.
func (c *Client) WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("fetch receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
