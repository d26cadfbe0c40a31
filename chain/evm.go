package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/hellodex/swapengine/logger"
	"github.com/hellodex/swapengine/model"
	"github.com/hellodex/swapengine/util"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Swap router ABI, exactInputSingle only (Uniswap V3 style).
const routerABIJSON = `[{"inputs":[{"components":[{"internalType":"address","name":"tokenIn","type":"address"},{"internalType":"address","name":"tokenOut","type":"address"},{"internalType":"uint24","name":"fee","type":"uint24"},{"internalType":"address","name":"recipient","type":"address"},{"internalType":"uint256","name":"deadline","type":"uint256"},{"internalType":"uint256","name":"amountIn","type":"uint256"},{"internalType":"uint256","name":"amountOutMinimum","type":"uint256"},{"internalType":"uint160","name":"sqrtPriceLimitX96","type":"uint160"}],"internalType":"struct ISwapRouter.ExactInputSingleParams","name":"params","type":"tuple"}],"name":"exactInputSingle","outputs":[{"internalType":"uint256","name":"amountOut","type":"uint256"}],"stateMutability":"payable","type":"function"}]`

// Minimal ERC-20 ABI: approve, balanceOf, decimals.
const erc20ABIJSON = `[{"constant":false,"inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"},{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"},{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"}]`

const (
	approveGasLimit = 100_000
	// DefaultSwapGasLimit is used when on-chain estimation fails.
	DefaultSwapGasLimit = 300_000
	swapDeadline        = 5 * time.Minute
	nativeDecimals      = 18
)

const (
	txStatusSuccess = model.StatusSuccess
	txStatusFailed  = model.StatusFailed
)

var ErrNoAccount = errors.New("no account configured")

type EVMConfig struct {
	RPCURL        string
	ChainID       int64
	PrivateKey    string // hex; empty means read-only mode
	Router        string
	WrappedNative string
	PoolFee       int64 // 0 uses the 0.3% tier
}

// EVM implements Capability against one EVM chain and one router contract.
// The signing context is a single shared resource: sendTx serializes nonce
// acquisition so an approve+swap pair completes before another tx begins.
type EVM struct {
	client  *ethclient.Client
	chainID *big.Int
	key     *ecdsa.PrivateKey
	address common.Address
	router  common.Address
	wrapped common.Address
	poolFee *big.Int

	routerABI abi.ABI
	erc20ABI  abi.ABI

	txMu sync.Mutex
}

func NewEVM(cfg EVMConfig) (*EVM, error) {
	if cfg.RPCURL == "" {
		return nil, errors.New("rpc url not configured")
	}

	routerABI, err := abi.JSON(strings.NewReader(routerABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse router abi: %w", err)
	}
	erc20ABI, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}

	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	c := &EVM{
		client:    client,
		chainID:   big.NewInt(cfg.ChainID),
		router:    common.HexToAddress(cfg.Router),
		wrapped:   common.HexToAddress(cfg.WrappedNative),
		poolFee:   big.NewInt(cfg.PoolFee),
		routerABI: routerABI,
		erc20ABI:  erc20ABI,
	}
	if cfg.PoolFee == 0 {
		c.poolFee = big.NewInt(3000)
	}

	if cfg.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		c.key = key
		c.address = crypto.PubkeyToAddress(key.PublicKey)
		log.Info().
			Str(logger.CategoryField, logger.CategoryChain).
			Str("wallet", c.address.Hex()).
			Int64("chain_id", cfg.ChainID).
			Msg("chain client initialized")
	} else {
		log.Warn().
			Str(logger.CategoryField, logger.CategoryChain).
			Msg("no private key provided, read-only mode")
	}

	return c, nil
}

func (c *EVM) Available() bool { return true }

func (c *EVM) Connected(ctx context.Context) bool {
	_, err := c.client.BlockNumber(ctx)
	if err != nil {
		log.Debug().
			Str(logger.CategoryField, logger.CategoryChain).
			Err(err).
			Msg("connectivity check failed")
	}
	return err == nil
}

func (c *EVM) RouterAddress() common.Address { return c.router }
func (c *EVM) WrappedNative() common.Address { return c.wrapped }

func (c *EVM) Balance(ctx context.Context, token *common.Address) (decimal.Decimal, error) {
	if c.key == nil {
		return decimal.Zero, ErrNoAccount
	}

	if token == nil {
		wei, err := c.client.BalanceAt(ctx, c.address, nil)
		if err != nil {
			return decimal.Zero, fmt.Errorf("native balance: %w", err)
		}
		return util.FromSmallestUnit(wei, nativeDecimals), nil
	}

	var decimalsOut uint8
	if err := c.callERC20(ctx, *token, "decimals", nil, &decimalsOut); err != nil {
		return decimal.Zero, fmt.Errorf("token decimals: %w", err)
	}

	var raw *big.Int
	if err := c.callERC20(ctx, *token, "balanceOf", []interface{}{c.address}, &raw); err != nil {
		return decimal.Zero, fmt.Errorf("token balance: %w", err)
	}

	return util.FromSmallestUnit(raw, int32(decimalsOut)), nil
}

func (c *EVM) GasPriceWei(ctx context.Context) (*big.Int, error) {
	return c.client.SuggestGasPrice(ctx)
}

func (c *EVM) EstimateSwapGas(ctx context.Context, tokenIn, tokenOut common.Address, amountInWei, minOutWei *big.Int) (*model.GasEstimate, error) {
	if c.key == nil {
		return nil, ErrNoAccount
	}

	data, err := c.packSwap(tokenIn, tokenOut, amountInWei, minOutWei)
	if err != nil {
		return nil, err
	}

	gas, err := c.client.EstimateGas(ctx, ethereum.CallMsg{From: c.address, To: &c.router, Data: data})
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}

	price, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("gas price: %w", err)
	}

	cost := new(big.Int).Mul(new(big.Int).SetUint64(gas), price)
	return &model.GasEstimate{
		GasLimit:     gas,
		GasPriceGwei: util.WeiToGwei(price),
		CostWei:      cost,
		CostNative:   util.WeiToEther(cost),
	}, nil
}

func (c *EVM) Approve(ctx context.Context, token, spender common.Address, amountWei *big.Int) (*model.TxOutcome, error) {
	data, err := c.erc20ABI.Pack("approve", spender, amountWei)
	if err != nil {
		return nil, fmt.Errorf("pack approve: %w", err)
	}

	outcome, err := c.sendTx(ctx, token, data, approveGasLimit)
	if err != nil {
		return nil, fmt.Errorf("token approval: %w", err)
	}
	log.Info().
		Str(logger.CategoryField, logger.CategoryChain).
		Str("tx", outcome.TxHash).
		Str("token", token.Hex()).
		Msg("approval tx mined")
	return outcome, nil
}

func (c *EVM) Swap(ctx context.Context, tokenIn, tokenOut common.Address, amountInWei, minOutWei *big.Int) (*model.TxOutcome, error) {
	data, err := c.packSwap(tokenIn, tokenOut, amountInWei, minOutWei)
	if err != nil {
		return nil, err
	}

	gasLimit := uint64(DefaultSwapGasLimit)
	if c.key != nil {
		if gas, eerr := c.client.EstimateGas(ctx, ethereum.CallMsg{From: c.address, To: &c.router, Data: data}); eerr == nil {
			gasLimit = gas + gas/5 // 20% buffer
		} else {
			log.Warn().
				Str(logger.CategoryField, logger.CategoryChain).
				Err(eerr).
				Uint64("default", gasLimit).
				Msg("gas estimation failed, using default limit")
		}
	}

	outcome, err := c.sendTx(ctx, c.router, data, gasLimit)
	if err != nil {
		return nil, fmt.Errorf("swap: %w", err)
	}
	log.Info().
		Str(logger.CategoryField, logger.CategoryChain).
		Str("tx", outcome.TxHash).
		Str("status", outcome.Status).
		Str("explorer", util.TxExplorerURL(c.chainID.Int64(), outcome.TxHash)).
		Msg("swap tx mined")
	return outcome, nil
}

func (c *EVM) packSwap(tokenIn, tokenOut common.Address, amountInWei, minOutWei *big.Int) ([]byte, error) {
	params := struct {
		TokenIn           common.Address
		TokenOut          common.Address
		Fee               *big.Int
		Recipient         common.Address
		Deadline          *big.Int
		AmountIn          *big.Int
		AmountOutMinimum  *big.Int
		SqrtPriceLimitX96 *big.Int
	}{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		Fee:               c.poolFee,
		Recipient:         c.address,
		Deadline:          big.NewInt(time.Now().Add(swapDeadline).Unix()),
		AmountIn:          amountInWei,
		AmountOutMinimum:  minOutWei,
		SqrtPriceLimitX96: big.NewInt(0),
	}

	data, err := c.routerABI.Pack("exactInputSingle", params)
	if err != nil {
		return nil, fmt.Errorf("pack swap: %w", err)
	}
	return data, nil
}

func (c *EVM) callERC20(ctx context.Context, token common.Address, method string, args []interface{}, out interface{}) error {
	data, err := c.erc20ABI.Pack(method, args...)
	if err != nil {
		return err
	}

	raw, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return err
	}

	results, err := c.erc20ABI.Unpack(method, raw)
	if err != nil {
		return fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(results) == 0 {
		return fmt.Errorf("unpack %s: empty result", method)
	}

	return assign(out, results[0])
}

// sendTx builds, signs, submits and waits for one transaction. The mutex
// keeps nonce acquisition monotonic when executions overlap in one process.
func (c *EVM) sendTx(ctx context.Context, to common.Address, data []byte, gasLimit uint64) (*model.TxOutcome, error) {
	if c.key == nil {
		return nil, ErrNoAccount
	}

	c.txMu.Lock()
	defer c.txMu.Unlock()

	nonce, err := c.client.PendingNonceAt(ctx, c.address)
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}

	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, to, big.NewInt(0), gasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}

	if err := c.client.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send tx: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, c.client, signed)
	if err != nil {
		return nil, fmt.Errorf("wait mined: %w", err)
	}

	status := txStatusFailed
	if receipt.Status == types.ReceiptStatusSuccessful {
		status = txStatusSuccess
	}

	return &model.TxOutcome{
		TxHash:      signed.Hash().Hex(),
		Status:      status,
		GasUsed:     receipt.GasUsed,
		BlockNumber: receipt.BlockNumber.Uint64(),
	}, nil
}

func assign(out, v interface{}) error {
	switch dst := out.(type) {
	case *uint8:
		val, ok := v.(uint8)
		if !ok {
			return fmt.Errorf("unexpected type %T", v)
		}
		*dst = val
	case **big.Int:
		val, ok := v.(*big.Int)
		if !ok {
			return fmt.Errorf("unexpected type %T", v)
		}
		*dst = val
	default:
		return fmt.Errorf("unsupported output type %T", out)
	}
	return nil
}
