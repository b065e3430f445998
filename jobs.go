package metarelay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/everFinance/metarelay/gateway"
	"github.com/everFinance/metarelay/schema"
	"github.com/panjf2000/ants/v2"
)

const (
	receiptWatchLimit = 200
	receiptPoolSize   = 20
)

func (r *Relayer) runJobs() {
	r.scheduler.Every(10).Seconds().SingletonMode().Do(r.watchReceipts)

	r.scheduler.StartAsync()
}

// watchReceipts resolves the final status of submitted batches. Reverted batches are recorded, never retried.
func (r *Relayer) watchReceipts() {
	batches, err := r.wdb.GetSubmittedBatches(receiptWatchLimit)
	if err != nil {
		log.Error("r.wdb.GetSubmittedBatches()", "err", err)
		return
	}
	if len(batches) == 0 {
		return
	}

	var wg sync.WaitGroup
	p, _ := ants.NewPoolWithFunc(receiptPoolSize, func(i interface{}) {
		defer wg.Done()
		batch := i.(schema.Batch)
		if err := r.checkReceipt(batch); err != nil {
			log.Error("r.checkReceipt(batch)", "err", err, "batchId", batch.BatchId)
		}
	})
	defer p.Release()

	for _, batch := range batches {
		wg.Add(1)
		if err := p.Invoke(batch); err != nil {
			wg.Done()
			log.Error("p.Invoke(batch)", "err", err)
		}
	}
	wg.Wait()
}

func (r *Relayer) checkReceipt(batch schema.Batch) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.RpcTimeout)
	defer cancel()

	status := ""
	var blockNumber uint64
	receipt, err := r.gateway.GetReceipt(ctx, common.HexToHash(batch.TxHash))
	switch {
	case errors.Is(err, gateway.ErrReceiptNotFound):
		if time.Since(batch.CreatedAt) < r.cfg.ReceiptExpired {
			return nil
		}
		status = schema.BatchExpired
	case err != nil:
		return err
	case receipt.Succeeded():
		status = schema.BatchConfirmed
		blockNumber = receipt.BlockNumber
	default:
		status = schema.BatchReverted
		blockNumber = receipt.BlockNumber
	}

	if err = r.wdb.UpdateBatchStatus(batch.BatchId, status, blockNumber, ""); err != nil {
		return err
	}
	metricReceipt(status)
	log.Info("batch receipt", "batchId", batch.BatchId, "txHash", batch.TxHash, "status", status, "block", blockNumber)

	if r.kw != nil {
		info := schema.KafkaBatchInfo{
			BatchId:   batch.BatchId,
			TxHash:    batch.TxHash,
			Status:    status,
			ItemNum:   batch.ItemNum,
			GasLimit:  batch.GasLimit,
			Timestamp: time.Now().Unix(),
		}
		if err = publishBatch(r.kw, info); err != nil {
			log.Error("publishBatch(kw, info)", "err", err, "batchId", batch.BatchId)
		}
	}
	return nil
}
