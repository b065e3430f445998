package metarelay

import (
	"github.com/everFinance/metarelay/schema"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricNameSpace = "metarelay"
)

var (
	admissionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "admission_total",
			Help:      "admission results by outcome",
		},
		[]string{"result"},
	)

	pendingGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricNameSpace,
			Name:      "pending_txs",
			Help:      "intents waiting for the next flush",
		},
	)

	batchCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "batch_total",
			Help:      "flushed batches by submit result",
		},
		[]string{"status"},
	)

	batchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: MetricNameSpace,
			Name:      "batch_size",
			Help:      "number of intents per flushed batch",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	receiptCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "batch_receipt_total",
			Help:      "final status of submitted batches",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		admissionCounter,
		pendingGauge,
		batchCounter,
		batchSize,
		receiptCounter,
	)
}

func metricAdmission(err error) {
	admissionCounter.WithLabelValues(admissionResult(err)).Inc()
}

func metricBatch(res *schema.FlushResult) {
	status := schema.BatchSubmitted
	if !res.Succeeded() {
		status = schema.BatchFailed
	}
	batchCounter.WithLabelValues(status).Inc()
	batchSize.Observe(float64(len(res.Txs)))
}

func metricReceipt(status string) {
	receiptCounter.WithLabelValues(status).Inc()
}
