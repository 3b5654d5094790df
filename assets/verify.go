package assets

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"gm-tui/config"
	"gm-tui/rpc"
)

// Verifier re-reads pending asset balances straight from each network's
// RPC endpoint and marks them Verified or Rejected against the values the
// indexer reported. Indexer data is displayed immediately; verification
// upgrades or flags it afterwards.
type Verifier struct {
	Networks   *config.NetworkStore
	AlchemyKey string
	Manager    *Manager
}

// VerifyPending checks every Pending asset of the account. Each result is
// applied to the manager as it arrives so the UI can repaint per asset.
// Network errors leave the asset Pending.
func (v *Verifier) VerifyPending(ctx context.Context, account common.Address) error {
	var lastErr error
	clients := make(map[string]*rpc.Client)
	defer func() {
		for _, c := range clients {
			c.Close()
		}
	}()

	for _, asset := range v.Manager.Get(account) {
		if asset.Verification != VerificationPending {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		client, ok := clients[asset.NetworkName]
		if !ok {
			network, err := v.Networks.ByName(asset.NetworkName)
			if err != nil {
				v.Manager.SetVerification(account, asset.NetworkName, asset.Token, VerificationRejected)
				continue
			}
			client, err = rpc.Connect(network, v.AlchemyKey)
			if err != nil {
				lastErr = err
				continue
			}
			clients[asset.NetworkName] = client
		}

		onChain, err := v.readBalance(ctx, client, account, asset)
		if err != nil {
			lastErr = err
			continue
		}

		if onChain.Cmp(asset.Balance) == 0 {
			v.Manager.SetVerification(account, asset.NetworkName, asset.Token, VerificationVerified)
		} else {
			v.Manager.SetVerification(account, asset.NetworkName, asset.Token, VerificationRejected)
		}
	}

	if lastErr != nil {
		return fmt.Errorf("verify balances: %w", lastErr)
	}
	return nil
}

func (v *Verifier) readBalance(ctx context.Context, client *rpc.Client, account common.Address, asset Asset) (*big.Int, error) {
	if asset.Token.IsNative() {
		return client.BalanceAt(ctx, account, nil)
	}
	return client.ERC20BalanceOf(ctx, *asset.Token.Contract, account)
}
