package chain

import (
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// Wallet holds the signing key of the trading account.
type Wallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewWallet derives a wallet from a hex-encoded private key. A 0x prefix is
// accepted.
func NewWallet(privateKeyHex string) (*Wallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "parse private key")
	}

	return &Wallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the account address the key controls.
func (w *Wallet) Address() common.Address {
	return w.address
}

// SignTx signs the transaction for the given chain.
func (w *Wallet) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), w.key)
	if err != nil {
		return nil, errors.Wrap(err, "sign transaction")
	}
	return signed, nil
}
