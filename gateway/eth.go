package gateway

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/everFinance/metarelay/schema"
	"github.com/shopspring/decimal"
)

// Backend is the rpc surface EthGateway needs; *ethclient.Client satisfies it.
type Backend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

type EthGateway struct {
	backend  Backend
	contract common.Address
	abi      abi.ABI
	key      *ecdsa.PrivateKey
	address  common.Address
	chainId  *big.Int
	nonces   *NonceManager

	submitLocker sync.Mutex // one relayer account, one submission in flight
}

func NewEthGateway(backend Backend, contract common.Address, key *ecdsa.PrivateKey, chainId *big.Int) (*EthGateway, error) {
	contractABI, err := abi.JSON(strings.NewReader(ReceiverABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}
	if chainId == nil || chainId.Sign() <= 0 {
		return nil, errors.New("invalid chain id")
	}
	return &EthGateway{
		backend:  backend,
		contract: contract,
		abi:      contractABI,
		key:      key,
		address:  crypto.PubkeyToAddress(key.PublicKey),
		chainId:  new(big.Int).Set(chainId),
		nonces:   NewNonceManager(),
	}, nil
}

// Dial connects to rpcUrl and signs submissions with privKeyHex.
func Dial(rpcUrl, contract, privKeyHex string, chainId *big.Int) (*EthGateway, error) {
	if !common.IsHexAddress(contract) {
		return nil, fmt.Errorf("invalid contract address: %s", contract)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	client, err := ethclient.Dial(rpcUrl)
	if err != nil {
		return nil, err
	}
	return NewEthGateway(client, common.HexToAddress(contract), key, chainId)
}

func (g *EthGateway) Address() common.Address {
	return g.address
}

func (g *EthGateway) GetNonce(ctx context.Context, from common.Address) (*big.Int, error) {
	data, err := g.abi.Pack(MethodGetNonce, from)
	if err != nil {
		return nil, fmt.Errorf("failed to pack method call: %w", err)
	}
	out, err := g.backend.CallContract(ctx, ethereum.CallMsg{To: &g.contract, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	res, err := g.abi.Unpack(MethodGetNonce, out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack getNonce: %w", err)
	}
	if len(res) != 1 {
		return nil, fmt.Errorf("unexpected getNonce outputs: %d", len(res))
	}
	nonce, ok := res[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected getNonce type: %T", res[0])
	}
	return nonce, nil
}

// PackBatch encodes the batchTransfer calldata for txs in the given order.
func (g *EthGateway) PackBatch(txs []*schema.MetaTxWithSig, gasLimit uint64) ([]byte, error) {
	if len(txs) == 0 {
		return nil, schema.ErrEmptyBatch
	}
	items := make([]schema.MetaTxWithSig, 0, len(txs))
	for _, tx := range txs {
		items = append(items, *tx)
	}
	return g.abi.Pack(MethodBatchTransfer, items, new(big.Int).SetUint64(gasLimit))
}

func (g *EthGateway) SubmitBatch(ctx context.Context, txs []*schema.MetaTxWithSig, gasLimit uint64) (common.Hash, error) {
	data, err := g.PackBatch(txs, gasLimit)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack method call: %w", err)
	}

	g.submitLocker.Lock()
	defer g.submitLocker.Unlock()

	gasPrice, err := g.backend.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get gas price: %w", err)
	}
	// a reverting batch fails here, before a nonce is reserved
	gas, err := g.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:     g.address,
		To:       &g.contract,
		GasPrice: gasPrice,
		Data:     data,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to estimate gas: %w", err)
	}
	pendingNonce, err := g.backend.PendingNonceAt(ctx, g.address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}
	nonce := g.nonces.Next(g.address, pendingNonce)

	tx := types.NewTransaction(nonce, g.contract, big.NewInt(0), gas, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(g.chainId), g.key)
	if err != nil {
		g.nonces.Reset(g.address)
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err = g.backend.SendTransaction(ctx, signedTx); err != nil {
		g.nonces.Reset(g.address)
		return common.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	log.Info("batch transaction sent", "txHash", signedTx.Hash().Hex(), "items", len(txs), "nonce", nonce,
		"gas", gas, "gasPrice(gwei)", decimal.NewFromBigInt(gasPrice, -9).String())
	return signedTx.Hash(), nil
}

func (g *EthGateway) GetReceipt(ctx context.Context, txHash common.Hash) (*Receipt, error) {
	receipt, err := g.backend.TransactionReceipt(ctx, txHash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, ErrReceiptNotFound
		}
		return nil, err
	}
	res := &Receipt{
		TxHash:  receipt.TxHash,
		Status:  receipt.Status,
		GasUsed: receipt.GasUsed,
	}
	if receipt.BlockNumber != nil {
		res.BlockNumber = receipt.BlockNumber.Uint64()
	}
	return res, nil
}
