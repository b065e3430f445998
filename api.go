package metarelay

import (
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	rcommon "github.com/everFinance/metarelay/common"
	"github.com/everFinance/metarelay/schema"
	"github.com/gin-gonic/gin"
)

func (r *Relayer) newEngine() *gin.Engine {
	e := gin.New()
	e.Use(gin.Recovery(), rcommon.CORSMiddleware())

	submit := []gin.HandlerFunc{}
	if r.cfg.Limiter.Limit > 0 {
		var whitelisted func(string) bool
		if r.config != nil {
			whitelisted = r.config.IsWhitelisted
		}
		submit = append(submit, rcommon.LimiterMiddleware(r.cfg.Limiter.Limit, r.cfg.Limiter.Period, whitelisted))
	}
	submit = append(submit, r.submitTx)

	v1 := e.Group("/")
	{
		v1.GET("/", r.hello)
		v1.POST("/transaction", submit...)
		v1.GET("/transaction", r.getPendingTxs)
		v1.GET("/transaction/:from", r.getTxStatus)
		v1.GET("/info", r.getInfo)
		v1.GET("/batch/:id", r.getBatch)
	}
	return e
}

func (r *Relayer) hello(c *gin.Context) {
	c.String(http.StatusOK, "Hello world!")
}

func (r *Relayer) submitTx(c *gin.Context) {
	req := schema.TxRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, schema.ErrMalformedRequest.Error())
		return
	}

	if _, err := r.gate.Admit(c.Request.Context(), &req); err != nil {
		status, msg := admitErrorStatus(err)
		errorResponse(c, status, msg)
		return
	}
	c.String(http.StatusCreated, "Success!")
}

func (r *Relayer) getPendingTxs(c *gin.Context) {
	txs := r.pending.Snapshot()
	res := make([]schema.TxRequest, 0, len(txs))
	for i := range txs {
		res = append(res, schema.ToTxRequest(&txs[i]))
	}
	c.JSON(http.StatusOK, res)
}

func (r *Relayer) getTxStatus(c *gin.Context) {
	from := c.Param("from")
	if !schema.IsValidAddress(from) {
		errorResponse(c, http.StatusBadRequest, "invalid_address")
		return
	}
	addr := common.HexToAddress(from)
	if r.pending.Has(addr) {
		c.JSON(http.StatusOK, schema.RespTxStatus{From: addr.Hex(), Status: schema.TxStatusPending})
		return
	}
	status, err := r.cache.GetTxStatus(addr)
	if err != nil {
		if errors.Is(err, schema.ErrNotExist) {
			errorResponse(c, http.StatusNotFound, schema.ErrNotFound.Error())
			return
		}
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, status)
}

func (r *Relayer) getInfo(c *gin.Context) {
	domain := r.verifier.Domain()
	c.JSON(http.StatusOK, schema.RespInfo{
		Relayer: r.relayer.Hex(),
		Domain: schema.RespDomain{
			Name:              domain.Name,
			Version:           domain.Version,
			ChainId:           domain.ChainId,
			VerifyingContract: domain.VerifyingContract.Hex(),
		},
		Pending:       r.batcher.PendingCount(),
		FlushInterval: r.batcher.Interval().String(),
		GasLimit:      r.batcher.GasLimit(),
	})
}

func (r *Relayer) getBatch(c *gin.Context) {
	if r.wdb == nil {
		errorResponse(c, http.StatusNotFound, schema.ErrNotFound.Error())
		return
	}
	batch, err := r.wdb.GetBatch(c.Param("id"))
	if err != nil {
		if errors.Is(err, schema.ErrNotExist) {
			errorResponse(c, http.StatusNotFound, schema.ErrNotFound.Error())
			return
		}
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, batch)
}

// admitErrorStatus maps admission errors to http status. Malformed reasons are not echoed back.
func admitErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, schema.ErrMalformedRequest):
		return http.StatusBadRequest, schema.ErrMalformedRequest.Error()
	case errors.Is(err, schema.ErrTooManyRequests):
		return http.StatusTooManyRequests, schema.ErrTooManyRequests.Error()
	case errors.Is(err, schema.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable, schema.ErrGatewayUnavailable.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func errorResponse(c *gin.Context, status int, err string) {
	c.JSON(status, schema.RespErr{
		Err: err,
	})
}

func internalErrorResponse(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, schema.RespErr{
		Err: err,
	})
}
