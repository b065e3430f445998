package metarelay

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/everFinance/metarelay/cache"
	rcommon "github.com/everFinance/metarelay/common"
	"github.com/everFinance/metarelay/config"
	"github.com/everFinance/metarelay/gateway"
	"github.com/everFinance/metarelay/schema"
	"github.com/everFinance/metarelay/signer"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
)

type Relayer struct {
	cfg     schema.Config
	gateway gateway.Gateway
	relayer common.Address // account paying for batch submissions

	verifier *signer.Verifier
	pending  *PendingSet
	gate     *AdmissionGate
	batcher  *BatchScheduler

	wdb    *Wdb           // nil when no history db is configured
	config *config.Config // nil when no history db is configured
	kw     EventWriter    // nil when kafka is disabled
	cache  *cache.Cache

	engine    *gin.Engine
	scheduler *gocron.Scheduler
	srv       *http.Server
	metricSrv *http.Server
}

// New wires a relayer from configuration: an ethereum gateway, optional batch history and optional kafka.
func New(cfg schema.Config) (*Relayer, error) {
	cfg.SetDefaults()
	if err := rcommon.InitSentry(cfg.SentryDsn, "metarelay"); err != nil {
		log.Warn("init sentry failed", "err", err)
	}
	gw, err := gateway.Dial(cfg.RpcUrl, cfg.Contract, cfg.PrivKey, big.NewInt(cfg.ChainId))
	if err != nil {
		return nil, err
	}

	var wdb *Wdb
	switch {
	case cfg.SqliteDir != "":
		wdb, err = NewSqliteDb(cfg.SqliteDir)
	case cfg.Mysql != "":
		wdb, err = NewMysqlDb(cfg.Mysql)
	}
	if err != nil {
		return nil, err
	}

	var kw EventWriter
	if cfg.Kafka.Start {
		kw, err = NewKWriter(BatchTopic, cfg.Kafka.Uri)
		if err != nil {
			return nil, err
		}
	}
	return newRelayer(cfg, gw, gw.Address(), wdb, kw)
}

func newRelayer(cfg schema.Config, gw gateway.Gateway, relayer common.Address, wdb *Wdb, kw EventWriter) (*Relayer, error) {
	cfg.SetDefaults()
	if !common.IsHexAddress(cfg.Contract) {
		return nil, errors.New("invalid_contract_address")
	}
	if cfg.ChainId <= 0 {
		return nil, errors.New("invalid_chain_id")
	}
	if cfg.Limiter.Limit > 0 {
		if err := rcommon.ValidateLimiter(cfg.Limiter.Limit, cfg.Limiter.Period); err != nil {
			return nil, fmt.Errorf("invalid limiter config: %w", err)
		}
	}
	domain := signer.Domain{
		Name:              cfg.DomainName,
		Version:           cfg.DomainVersion,
		ChainId:           big.NewInt(cfg.ChainId),
		VerifyingContract: common.HexToAddress(cfg.Contract),
	}

	localCache, err := cache.NewLocalCache(cfg.FlushedTTL)
	if err != nil {
		return nil, err
	}

	var conf *config.Config
	if wdb != nil {
		if err = wdb.Migrate(); err != nil {
			return nil, err
		}
		if conf, err = config.New(wdb.Db); err != nil {
			return nil, err
		}
	}

	verifier := signer.NewVerifier(domain)
	pending := NewPendingSet()
	r := &Relayer{
		cfg:       cfg,
		gateway:   gw,
		relayer:   relayer,
		verifier:  verifier,
		pending:   pending,
		gate:      NewAdmissionGate(verifier, gw, pending, cfg.RpcTimeout),
		batcher:   NewBatchScheduler(pending, gw, cfg.RelayerInterval, cfg.GasLimit, cfg.RpcTimeout),
		wdb:       wdb,
		config:    conf,
		kw:        kw,
		cache:     localCache,
		scheduler: gocron.NewScheduler(time.UTC),
	}
	r.batcher.OnFlush(r.cacheFlushed)
	if wdb != nil {
		r.batcher.OnFlush(r.recordBatch)
	}
	if kw != nil {
		r.batcher.OnFlush(r.publishFlushed)
	}
	r.engine = r.newEngine()
	return r, nil
}

func (r *Relayer) Run() error {
	if r.config != nil {
		r.config.Run()
	}
	if err := r.batcher.Start(); err != nil {
		return err
	}
	if r.wdb != nil {
		go r.runJobs()
	}
	r.metricSrv = rcommon.NewMetricServer(r.cfg.MetricPort)
	r.srv = &http.Server{Addr: r.cfg.Port, Handler: r.engine}
	go func() {
		log.Info("relayer api listening", "port", r.cfg.Port, "relayer", r.relayer.Hex())
		if err := r.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("r.srv.ListenAndServe()", "err", err)
		}
	}()
	return nil
}

// Close stops the timers and servers. Intents still pending are discarded.
func (r *Relayer) Close() {
	r.batcher.Stop()
	r.scheduler.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if r.srv != nil {
		if err := r.srv.Shutdown(ctx); err != nil {
			log.Error("r.srv.Shutdown()", "err", err)
		}
	}
	if r.metricSrv != nil {
		if err := r.metricSrv.Shutdown(ctx); err != nil {
			log.Error("r.metricSrv.Shutdown()", "err", err)
		}
	}
	if r.config != nil {
		r.config.Close()
	}
	if r.kw != nil {
		r.kw.Close()
	}
	if r.wdb != nil {
		r.wdb.Close()
	}
	if n := r.pending.Len(); n > 0 {
		log.Warn("relayer closed with pending intents", "pending", n)
	}
}

func (r *Relayer) Pending() *PendingSet {
	return r.pending
}

func (r *Relayer) Scheduler() *BatchScheduler {
	return r.batcher
}

func (r *Relayer) Admit(ctx context.Context, req *schema.TxRequest) (*schema.MetaTxWithSig, error) {
	return r.gate.Admit(ctx, req)
}

func (r *Relayer) cacheFlushed(res *schema.FlushResult) {
	for _, tx := range res.Txs {
		status := schema.RespTxStatus{
			From:    tx.MetaTx.From.Hex(),
			Status:  schema.TxStatusFlushed,
			BatchId: res.BatchId,
		}
		if res.Succeeded() {
			status.TxHash = res.TxHash.Hex()
		} else {
			status.Error = res.Err.Error()
		}
		if err := r.cache.PutTxStatus(status); err != nil {
			log.Error("r.cache.PutTxStatus(status)", "err", err, "from", status.From)
		}
	}
}

func (r *Relayer) recordBatch(res *schema.FlushResult) {
	if err := r.wdb.InsertBatch(res); err != nil {
		log.Error("r.wdb.InsertBatch(res)", "err", err, "batchId", res.BatchId)
	}
}

func (r *Relayer) publishFlushed(res *schema.FlushResult) {
	status := schema.BatchSubmitted
	if !res.Succeeded() {
		status = schema.BatchFailed
	}
	if err := publishBatch(r.kw, kafkaBatchInfo(res, status)); err != nil {
		log.Error("publishBatch(kw, info)", "err", err, "batchId", res.BatchId)
	}
}
