package metarelay

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/everFinance/metarelay/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordBatch(t *testing.T) {
	gw := newFakeGateway()
	wdb := testSqliteDb(t)
	r := testRelayerWith(t, gw, wdb, nil)

	admitAll(t, r.gate, newAccount(), newAccount())
	ok := r.Scheduler().Flush(context.Background())
	require.NotNil(t, ok)

	gw.submitErr = errNetwork
	admitAll(t, r.gate, newAccount())
	failed := r.Scheduler().Flush(context.Background())
	require.NotNil(t, failed)

	batch, err := wdb.GetBatch(ok.BatchId)
	require.NoError(t, err)
	assert.Equal(t, schema.BatchSubmitted, batch.Status)
	assert.Equal(t, 2, batch.ItemNum)
	items := make([]schema.TxRequest, 0)
	require.NoError(t, json.Unmarshal(batch.Items, &items))
	require.Len(t, items, 2)
	parsed, err := items[0].Parse()
	require.NoError(t, err)
	assert.Equal(t, ok.Txs[0], parsed)

	batch, err = wdb.GetBatch(failed.BatchId)
	require.NoError(t, err)
	assert.Equal(t, schema.BatchFailed, batch.Status)
	assert.Contains(t, batch.ErrMsg, schema.ErrGatewayUnavailable.Error())
	assert.Empty(t, batch.TxHash)

	submitted, err := wdb.GetSubmittedBatches(10)
	require.NoError(t, err)
	require.Len(t, submitted, 1)
	assert.Equal(t, ok.BatchId, submitted[0].BatchId)

	_, err = wdb.GetBatch("missing")
	assert.ErrorIs(t, err, schema.ErrNotExist)
}

func TestUpdateBatchStatus(t *testing.T) {
	wdb := testSqliteDb(t)
	res := &schema.FlushResult{BatchId: "b-1", Txs: []*schema.MetaTxWithSig{pendingTx(1)}, GasLimit: 1}
	require.NoError(t, wdb.InsertBatch(res))

	require.NoError(t, wdb.UpdateBatchStatus("b-1", schema.BatchConfirmed, 42, ""))
	batch, err := wdb.GetBatch("b-1")
	require.NoError(t, err)
	assert.Equal(t, schema.BatchConfirmed, batch.Status)
	assert.Equal(t, uint64(42), batch.BlockNumber)

	submitted, err := wdb.GetSubmittedBatches(10)
	require.NoError(t, err)
	assert.Empty(t, submitted)
}
