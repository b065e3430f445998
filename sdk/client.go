package sdk

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/everFinance/metarelay/schema"
	"gopkg.in/h2non/gentleman.v2"
)

type RelayerCli struct {
	SCli *gentleman.Client
}

func New(relayerUrl string) *RelayerCli {
	return &RelayerCli{
		SCli: gentleman.New().URL(relayerUrl),
	}
}

// SubmitTx posts a signed intent. Rejections map back to the schema error values.
func (a *RelayerCli) SubmitTx(tx schema.TxRequest) error {
	req := a.SCli.Post()
	req.Path("/transaction")
	req.JSON(tx)
	resp, err := req.Send()
	if err != nil {
		return err
	}
	defer resp.Close()
	if !resp.Ok {
		return statusError(resp.StatusCode, resp.Bytes())
	}
	return nil
}

func (a *RelayerCli) GetPendingTxs() ([]schema.TxRequest, error) {
	req := a.SCli.Get()
	req.Path("/transaction")
	resp, err := req.Send()
	if err != nil {
		return nil, err
	}
	defer resp.Close()
	if !resp.Ok {
		return nil, errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	txs := make([]schema.TxRequest, 0)
	err = resp.JSON(&txs)
	return txs, err
}

func (a *RelayerCli) GetTxStatus(from common.Address) (*schema.RespTxStatus, error) {
	req := a.SCli.Get()
	req.Path(fmt.Sprintf("/transaction/%s", from.Hex()))
	resp, err := req.Send()
	if err != nil {
		return nil, err
	}
	defer resp.Close()
	if !resp.Ok {
		return nil, statusError(resp.StatusCode, resp.Bytes())
	}
	status := &schema.RespTxStatus{}
	err = resp.JSON(status)
	return status, err
}

func (a *RelayerCli) GetInfo() (*schema.RespInfo, error) {
	req := a.SCli.Get()
	req.Path("/info")
	resp, err := req.Send()
	if err != nil {
		return nil, err
	}
	defer resp.Close()
	if !resp.Ok {
		return nil, errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	info := &schema.RespInfo{}
	err = resp.JSON(info)
	return info, err
}

func (a *RelayerCli) GetBatch(batchId string) (*schema.Batch, error) {
	req := a.SCli.Get()
	req.Path(fmt.Sprintf("/batch/%s", batchId))
	resp, err := req.Send()
	if err != nil {
		return nil, err
	}
	defer resp.Close()
	if !resp.Ok {
		return nil, statusError(resp.StatusCode, resp.Bytes())
	}
	batch := &schema.Batch{}
	err = resp.JSON(batch)
	return batch, err
}

func statusError(code int, body []byte) error {
	var base error
	switch code {
	case http.StatusBadRequest:
		base = schema.ErrMalformedRequest
	case http.StatusTooManyRequests:
		base = schema.ErrTooManyRequests
	case http.StatusServiceUnavailable:
		base = schema.ErrGatewayUnavailable
	case http.StatusNotFound:
		base = schema.ErrNotFound
	default:
		return fmt.Errorf("resp failed.http code: %d, errMsg:%s", code, string(body))
	}
	return fmt.Errorf("%w: %s", base, string(body))
}
