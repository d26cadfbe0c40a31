package provider

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/hellodex/swapengine/model"
)

// Uniswap V3 Quoter ABI, quoteExactInputSingle only.
const quoterABIJSON = `[{"inputs":[{"internalType":"address","name":"tokenIn","type":"address"},{"internalType":"address","name":"tokenOut","type":"address"},{"internalType":"uint24","name":"fee","type":"uint24"},{"internalType":"uint256","name":"amountIn","type":"uint256"},{"internalType":"uint160","name":"sqrtPriceLimitX96","type":"uint160"}],"name":"quoteExactInputSingle","outputs":[{"internalType":"uint256","name":"amountOut","type":"uint256"}],"stateMutability":"nonpayable","type":"function"}]`

// quoterAddresses lists the Uniswap V3 Quoter contract per chain.
var quoterAddresses = map[int64]common.Address{
	1:    common.HexToAddress("0xb27308f9F90D607463bb33eA1BeBb41C27CE5AB6"),
	137:  common.HexToAddress("0xb27308f9F90D607463bb33eA1BeBb41C27CE5AB6"),
	8453: common.HexToAddress("0x3d4e44Eb1374240CE5F1B871ab261CD16335B76a"),
}

// DefaultPoolFee is the 0.3% fee tier, the most commonly initialized pool.
const DefaultPoolFee = 3000

// UniswapQuoter reads quotes straight from the Uniswap V3 quoter contract via
// eth_call. One instance serves one chain (its RPC endpoint is chain-bound).
// The quoter does not report gas or price impact; those resolve to the
// documented defaults.
type UniswapQuoter struct {
	client  *ethclient.Client
	chainID int64
	fee     *big.Int
	abi     abi.ABI
}

func NewUniswapQuoter(rpcURL string, chainID int64) (*UniswapQuoter, error) {
	parsed, err := abi.JSON(strings.NewReader(quoterABIJSON))
	if err != nil {
		return nil, err
	}
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, err
	}
	return &UniswapQuoter{
		client:  client,
		chainID: chainID,
		fee:     big.NewInt(DefaultPoolFee),
		abi:     parsed,
	}, nil
}

func (p *UniswapQuoter) Name() string { return "uniswap-v3" }

func (p *UniswapQuoter) Supports(chainID int64) bool {
	if chainID != p.chainID {
		return false
	}
	_, ok := quoterAddresses[chainID]
	return ok
}

func (p *UniswapQuoter) GetQuote(ctx context.Context, req model.SwapRequest) (*model.Quote, error) {
	if !p.Supports(req.ChainID) {
		return nil, &Failure{Provider: p.Name(), Cause: CauseUnsupportedChain}
	}

	data, err := p.abi.Pack("quoteExactInputSingle",
		common.HexToAddress(req.TokenIn),
		common.HexToAddress(req.TokenOut),
		p.fee,
		req.AmountIn,
		big.NewInt(0),
	)
	if err != nil {
		return nil, &Failure{Provider: p.Name(), Cause: CauseMalformed, Err: err}
	}

	quoter := quoterAddresses[req.ChainID]
	out, err := p.client.CallContract(ctx, ethereum.CallMsg{To: &quoter, Data: data}, nil)
	if err != nil {
		return nil, &Failure{Provider: p.Name(), Cause: CauseTransport, Err: err}
	}

	results, err := p.abi.Unpack("quoteExactInputSingle", out)
	if err != nil || len(results) == 0 {
		return nil, &Failure{Provider: p.Name(), Cause: CauseMalformed, Err: err}
	}
	amountOut, ok := results[0].(*big.Int)
	if !ok {
		return nil, &Failure{Provider: p.Name(), Cause: CauseMalformed}
	}

	return &model.Quote{
		Source:    p.Name(),
		TokenIn:   req.TokenIn,
		TokenOut:  req.TokenOut,
		AmountIn:  req.AmountIn.String(),
		AmountOut: amountOut.String(),
		Route:     []string{"UNISWAP_V3"},
	}, nil
}
