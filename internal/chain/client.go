// Package chain wraps the go-ethereum RPC client with the queries and the
// submission path the trading engine needs: balances (current and historical),
// allowances, nonces, gas suggestions, broadcast, and receipt waits.
package chain

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
)

// Client wraps go-ethereum RPC and provides the account and contract queries
// used by the trader. All methods are synchronous.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
	chainID   *big.Int
}

// Dial connects to the RPC endpoint and probes it for the chain ID, so a bad
// URL fails here rather than on the first trade.
func Dial(ctx context.Context, rawURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "dial rpc endpoint")
	}

	ethClient := ethclient.NewClient(rpcClient)
	chainID, err := ethClient.ChainID(ctx)
	if err != nil {
		rpcClient.Close()
		return nil, errors.Wrap(err, "query chain id")
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethClient,
		chainID:   chainID,
	}, nil
}

// ChainID returns the chain ID captured at dial time.
func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// BlockNumber returns the latest block number.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	number, err := c.ethClient.BlockNumber(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "query block number")
	}
	return number, nil
}

// NativeBalance returns the account's native balance at the given block,
// or at the latest block when block is nil.
func (c *Client) NativeBalance(ctx context.Context, account common.Address, block *big.Int) (*big.Int, error) {
	balance, err := c.ethClient.BalanceAt(ctx, account, block)
	if err != nil {
		return nil, errors.Wrapf(err, "query native balance of %s", account)
	}
	return balance, nil
}

// TokenBalance returns the account's ERC20 balance at the given block, or at
// the latest block when block is nil.
func (c *Client) TokenBalance(ctx context.Context, token, account common.Address, block *big.Int) (*big.Int, error) {
	data, err := packBalanceOf(account)
	if err != nil {
		return nil, err
	}

	resp, err := c.ethClient.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, block)
	if err != nil {
		return nil, errors.Wrapf(err, "call balanceOf on %s", token)
	}

	return unpackAmount("balanceOf", resp)
}

// Allowance returns the amount of the token the owner has approved the
// spender to move.
func (c *Client) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	data, err := packAllowance(owner, spender)
	if err != nil {
		return nil, err
	}

	resp, err := c.ethClient.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "call allowance on %s", token)
	}

	return unpackAmount("allowance", resp)
}

// SuggestGasPrice returns the network's suggested gas price.
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	price, err := c.ethClient.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "suggest gas price")
	}
	return price, nil
}

// PendingNonce returns the account's next nonce including pending
// transactions.
func (c *Client) PendingNonce(ctx context.Context, account common.Address) (uint64, error) {
	nonce, err := c.ethClient.PendingNonceAt(ctx, account)
	if err != nil {
		return 0, errors.Wrapf(err, "query nonce of %s", account)
	}
	return nonce, nil
}

// SendTransaction broadcasts a signed transaction.
func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := c.ethClient.SendTransaction(ctx, tx); err != nil {
		return errors.Wrapf(err, "send transaction %s", tx.Hash())
	}
	return nil
}

// WaitMined blocks until the transaction is mined or the timeout expires.
func (c *Client) WaitMined(ctx context.Context, tx *types.Transaction, timeout time.Duration) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, c.ethClient, tx)
	if err != nil {
		return nil, errors.Wrapf(err, "wait for transaction %s", tx.Hash())
	}
	return receipt, nil
}
