package metarelay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/everFinance/metarelay/schema"
	"github.com/segmentio/kafka-go"
)

const (
	BatchTopic = "metarelay_batch"
)

// EventWriter publishes one encoded message.
type EventWriter interface {
	Write(body []byte) error
	Close()
}

type KWriter struct {
	w *kafka.Writer
}

func NewKWriter(topic string, uri string) (*KWriter, error) {
	w := &kafka.Writer{
		Addr:     kafka.TCP(uri),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &KWriter{
		w: w,
	}, nil
}

func (kw *KWriter) Write(body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := kw.w.WriteMessages(
		ctx,
		kafka.Message{
			Value: body,
		},
	)
	return err
}

func (kw *KWriter) Close() {
	kw.w.Close()
}

func kafkaBatchInfo(res *schema.FlushResult, status string) schema.KafkaBatchInfo {
	info := schema.KafkaBatchInfo{
		BatchId:   res.BatchId,
		Status:    status,
		Senders:   res.Senders(),
		ItemNum:   len(res.Txs),
		GasLimit:  res.GasLimit,
		Timestamp: res.FlushedAt.Unix(),
	}
	if res.Succeeded() {
		info.TxHash = res.TxHash.Hex()
	} else {
		info.ErrMsg = res.Err.Error()
	}
	return info
}

func publishBatch(w EventWriter, info schema.KafkaBatchInfo) error {
	by, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return w.Write(by)
}
