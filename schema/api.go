package schema

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	TxStatusPending = "pending"
	TxStatusFlushed = "flushed"
)

type RespErr struct {
	Err string `json:"error"`
}

func (r RespErr) Error() string {
	return r.Err
}

type RespTxStatus struct {
	From    string `json:"from"`
	Status  string `json:"status"` // "pending", "flushed"
	BatchId string `json:"batchId,omitempty"`
	TxHash  string `json:"txHash,omitempty"`
	Error   string `json:"error,omitempty"`
}

type RespDomain struct {
	Name              string   `json:"name"`
	Version           string   `json:"version"`
	ChainId           *big.Int `json:"chainId"`
	VerifyingContract string   `json:"verifyingContract"`
}

type RespInfo struct {
	Relayer       string     `json:"relayer"`
	Domain        RespDomain `json:"domain"`
	Pending       int        `json:"pending"`
	FlushInterval string     `json:"flushInterval"`
	GasLimit      uint64     `json:"gasLimit"`
}

// FlushResult is the outcome of one non-empty flush tick.
type FlushResult struct {
	BatchId   string
	Txs       []*MetaTxWithSig
	GasLimit  uint64
	TxHash    common.Hash
	Err       error
	FlushedAt time.Time
}

func (r *FlushResult) Succeeded() bool {
	return r.Err == nil
}

func (r *FlushResult) Senders() []string {
	senders := make([]string, 0, len(r.Txs))
	for _, tx := range r.Txs {
		senders = append(senders, tx.MetaTx.From.Hex())
	}
	return senders
}
