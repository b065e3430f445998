package gateway

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	rcommon "github.com/everFinance/metarelay/common"
	"github.com/everFinance/metarelay/schema"
)

var (
	log = rcommon.NewLog("gateway")

	ErrReceiptNotFound = errors.New("receipt_not_found")
)

// NonceReader reads the settlement contract's per-sender sequence counter at the latest confirmed state.
type NonceReader interface {
	GetNonce(ctx context.Context, from common.Address) (*big.Int, error)
}

// BatchSubmitter sends all items as one batchTransfer call. A nil error only
// means the node accepted the transaction; per-item failures inside the
// contract are not reported.
type BatchSubmitter interface {
	SubmitBatch(ctx context.Context, txs []*schema.MetaTxWithSig, gasLimit uint64) (common.Hash, error)
}

type ReceiptReader interface {
	GetReceipt(ctx context.Context, txHash common.Hash) (*Receipt, error)
}

type Gateway interface {
	NonceReader
	BatchSubmitter
	ReceiptReader
}

type Receipt struct {
	TxHash      common.Hash
	Status      uint64 // 1 success, 0 reverted
	BlockNumber uint64
	GasUsed     uint64
}

func (r *Receipt) Succeeded() bool {
	return r.Status == 1
}
