package metarelay

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/everFinance/metarelay/gateway"
	"github.com/everFinance/metarelay/schema"
	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
)

const resultsBufferSize = 64

var ErrSchedulerStarted = errors.New("scheduler_already_started")

// FlushHook observes every non-empty flush. Hooks must not block for long.
type FlushHook func(res *schema.FlushResult)

// BatchScheduler periodically drains the pending set into one batch submission.
// Drained intents are never restored: a failed submission drops them.
type BatchScheduler struct {
	pending   *PendingSet
	submitter gateway.BatchSubmitter
	interval  time.Duration
	gasLimit  uint64
	timeout   time.Duration

	scheduler *gocron.Scheduler
	results   chan *schema.FlushResult

	hookLock sync.RWMutex
	hooks    []FlushHook

	startLock sync.Mutex
	started   bool
}

func NewBatchScheduler(pending *PendingSet, submitter gateway.BatchSubmitter, interval time.Duration, gasLimit uint64, timeout time.Duration) *BatchScheduler {
	if interval <= 0 {
		interval = schema.DefaultFlushInterval
	}
	if timeout <= 0 {
		timeout = schema.DefaultRpcTimeout
	}
	return &BatchScheduler{
		pending:   pending,
		submitter: submitter,
		interval:  interval,
		gasLimit:  gasLimit,
		timeout:   timeout,
		scheduler: gocron.NewScheduler(time.UTC),
		results:   make(chan *schema.FlushResult, resultsBufferSize),
	}
}

func (s *BatchScheduler) OnFlush(hook FlushHook) {
	s.hookLock.Lock()
	s.hooks = append(s.hooks, hook)
	s.hookLock.Unlock()
}

// Start registers the flush job once; a second call returns ErrSchedulerStarted.
func (s *BatchScheduler) Start() error {
	s.startLock.Lock()
	defer s.startLock.Unlock()
	if s.started {
		return ErrSchedulerStarted
	}
	_, err := s.scheduler.Every(s.interval).StartAt(time.Now().Add(s.interval)).SingletonMode().Do(s.tick)
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.started = true
	log.Info("batch scheduler started", "interval", s.interval.String(), "gasLimit", s.gasLimit)
	return nil
}

func (s *BatchScheduler) Stop() {
	s.scheduler.Stop()
}

func (s *BatchScheduler) Interval() time.Duration {
	return s.interval
}

func (s *BatchScheduler) GasLimit() uint64 {
	return s.gasLimit
}

func (s *BatchScheduler) PendingCount() int {
	return s.pending.Len()
}

// Results delivers non-empty flush results. Results are dropped when nobody reads them.
func (s *BatchScheduler) Results() <-chan *schema.FlushResult {
	return s.results
}

func (s *BatchScheduler) tick() {
	defer func() {
		if r := recover(); r != nil {
			log.Error("batch scheduler tick panic", "err", r, "stack", string(debug.Stack()))
		}
	}()
	s.Flush(context.Background())
}

// Flush submits everything pending as one batch. It returns nil when nothing was pending.
func (s *BatchScheduler) Flush(ctx context.Context) *schema.FlushResult {
	txs := s.pending.DrainAll()
	pendingGauge.Set(float64(s.pending.Len()))
	if len(txs) == 0 {
		return nil
	}

	res := &schema.FlushResult{
		BatchId:  uuid.NewString(),
		Txs:      txs,
		GasLimit: s.gasLimit,
	}
	submitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	txHash, err := s.submitter.SubmitBatch(submitCtx, txs, s.gasLimit)
	cancel()
	res.FlushedAt = time.Now()
	if err != nil {
		res.Err = fmt.Errorf("%w: %v", schema.ErrGatewayUnavailable, err)
		log.Error("s.submitter.SubmitBatch(txs)", "err", err, "batchId", res.BatchId, "dropped", len(txs))
	} else {
		res.TxHash = txHash
		log.Info("batch submitted", "batchId", res.BatchId, "txHash", txHash.Hex(), "items", len(txs))
	}
	metricBatch(res)

	s.hookLock.RLock()
	hooks := s.hooks
	s.hookLock.RUnlock()
	for _, hook := range hooks {
		s.runHook(hook, res)
	}

	select {
	case s.results <- res:
	default:
	}
	return res
}

func (s *BatchScheduler) runHook(hook FlushHook, res *schema.FlushResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("flush hook panic", "err", r, "batchId", res.BatchId)
		}
	}()
	hook(res)
}
