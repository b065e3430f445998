package metarelay

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/everFinance/metarelay/schema"
	"github.com/everFinance/metarelay/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequest(r *Relayer, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.engine.ServeHTTP(w, req)
	return w
}

func TestAPI_SubmitTx(t *testing.T) {
	gw := newFakeGateway()
	r := testRelayerWith(t, gw, nil, nil)
	s := newAccount()
	req := s.request(t, common.HexToAddress("0x01"), 0)

	w := doRequest(r, http.MethodPost, "/transaction", req)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Success!", w.Body.String())

	w = doRequest(r, http.MethodPost, "/transaction", req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), schema.ErrTooManyRequests.Error())

	w = doRequest(r, http.MethodPost, "/transaction", `{"metaTx":{"nonce":"0"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPost, "/transaction", newAccount().request(t, common.HexToAddress("0x01"), 1))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"malformed_request"}`, w.Body.String())

	gw.nonceErr = errNetwork
	w = doRequest(r, http.MethodPost, "/transaction", newAccount().request(t, common.HexToAddress("0x01"), 0))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAPI_PendingAndStatus(t *testing.T) {
	gw := newFakeGateway()
	r := testRelayerWith(t, gw, nil, nil)
	a, b := newAccount(), newAccount()
	require.Equal(t, http.StatusCreated, doRequest(r, http.MethodPost, "/transaction", a.request(t, common.HexToAddress("0x01"), 0)).Code)

	w := doRequest(r, http.MethodGet, "/transaction", nil)
	require.Equal(t, http.StatusOK, w.Code)
	txs := make([]schema.TxRequest, 0)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, a.addr.Hex(), txs[0].MetaTx.From)

	status := schema.RespTxStatus{}
	w = doRequest(r, http.MethodGet, "/transaction/"+a.addr.Hex(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, schema.TxStatusPending, status.Status)

	assert.Equal(t, http.StatusNotFound, doRequest(r, http.MethodGet, "/transaction/"+b.addr.Hex(), nil).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(r, http.MethodGet, "/transaction/0x1234", nil).Code)

	res := r.Scheduler().Flush(context.Background())
	require.NotNil(t, res)
	w = doRequest(r, http.MethodGet, "/transaction/"+a.addr.Hex(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, schema.TxStatusFlushed, status.Status)
	assert.Equal(t, res.BatchId, status.BatchId)
	assert.Equal(t, res.TxHash.Hex(), status.TxHash)

	// the sender can queue again once flushed
	assert.Equal(t, http.StatusCreated, doRequest(r, http.MethodPost, "/transaction", a.request(t, common.HexToAddress("0x01"), 0)).Code)
}

func TestAPI_InfoAndHello(t *testing.T) {
	r := testRelayerWith(t, newFakeGateway(), nil, nil)

	w := doRequest(r, http.MethodGet, "/", nil)
	assert.Equal(t, "Hello world!", w.Body.String())

	w = doRequest(r, http.MethodGet, "/info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := schema.RespInfo{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, testRelayer.Hex(), info.Relayer)
	assert.Equal(t, schema.DefaultDomainName, info.Domain.Name)
	assert.Equal(t, int64(31337), info.Domain.ChainId.Int64())
	assert.Equal(t, testContract.Hex(), info.Domain.VerifyingContract)
	assert.Equal(t, uint64(schema.DefaultGasLimit), info.GasLimit)
	assert.Equal(t, "1h0m0s", info.FlushInterval)
}

func TestAPI_SdkRoundTrip(t *testing.T) {
	gw := newFakeGateway()
	r := testRelayerWith(t, gw, testSqliteDb(t), nil)
	srv := httptest.NewServer(r.engine)
	defer srv.Close()

	a := newAccount()
	cli := sdk.NewSDK(srv.URL, a.key)
	_, err := cli.Send(testToken, common.HexToAddress("0x01"), common.Big1, common.Big0)
	require.NoError(t, err)
	_, err = cli.Send(testToken, common.HexToAddress("0x01"), common.Big1, common.Big0)
	assert.ErrorIs(t, err, schema.ErrTooManyRequests)

	pending, err := cli.Cli.GetPendingTxs()
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	res := r.Scheduler().Flush(context.Background())
	require.NotNil(t, res)

	status, err := cli.Cli.GetTxStatus(a.addr)
	require.NoError(t, err)
	assert.Equal(t, res.BatchId, status.BatchId)

	batch, err := cli.Cli.GetBatch(res.BatchId)
	require.NoError(t, err)
	assert.Equal(t, schema.BatchSubmitted, batch.Status)
	assert.Equal(t, 1, batch.ItemNum)
	assert.Equal(t, res.TxHash.Hex(), batch.TxHash)

	_, err = cli.Cli.GetBatch("missing")
	assert.ErrorIs(t, err, schema.ErrNotFound)
}
