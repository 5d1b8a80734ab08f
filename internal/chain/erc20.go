package chain

import (
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Minimal ERC20 surface the trader touches: approve for router allowances,
// allowance and balanceOf for preflight and reconciliation reads.
const erc20ABIJSON = `[
  {
    "inputs": [
      {"internalType": "address", "name": "spender", "type": "address"},
      {"internalType": "uint256", "name": "amount", "type": "uint256"}
    ],
    "name": "approve",
    "outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "owner", "type": "address"},
      {"internalType": "address", "name": "spender", "type": "address"}
    ],
    "name": "allowance",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "address", "name": "account", "type": "address"}],
    "name": "balanceOf",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

var (
	erc20ABI     abi.ABI
	erc20ABIOnce sync.Once
	erc20ABIErr  error
)

func erc20ABIInstance() (abi.ABI, error) {
	erc20ABIOnce.Do(func() {
		erc20ABI, erc20ABIErr = abi.JSON(strings.NewReader(erc20ABIJSON))
	})
	return erc20ABI, erc20ABIErr
}

// PackApprove encodes an ERC20 approve(spender, amount) call.
func PackApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	parsed, err := erc20ABIInstance()
	if err != nil {
		return nil, errors.Wrap(err, "parse erc20 abi")
	}

	data, err := parsed.Pack("approve", spender, amount)
	if err != nil {
		return nil, errors.Wrap(err, "pack approve")
	}
	return data, nil
}

func packBalanceOf(account common.Address) ([]byte, error) {
	parsed, err := erc20ABIInstance()
	if err != nil {
		return nil, errors.Wrap(err, "parse erc20 abi")
	}

	data, err := parsed.Pack("balanceOf", account)
	if err != nil {
		return nil, errors.Wrap(err, "pack balanceOf")
	}
	return data, nil
}

func packAllowance(owner, spender common.Address) ([]byte, error) {
	parsed, err := erc20ABIInstance()
	if err != nil {
		return nil, errors.Wrap(err, "parse erc20 abi")
	}

	data, err := parsed.Pack("allowance", owner, spender)
	if err != nil {
		return nil, errors.Wrap(err, "pack allowance")
	}
	return data, nil
}

func unpackAmount(method string, resp []byte) (*big.Int, error) {
	parsed, err := erc20ABIInstance()
	if err != nil {
		return nil, errors.Wrap(err, "parse erc20 abi")
	}

	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, errors.Wrapf(err, "unpack %s", method)
	}
	amount, ok := values[0].(*big.Int)
	if !ok {
		return nil, errors.Errorf("unexpected %s result type %T", method, values[0])
	}
	return amount, nil
}
