package schema

type KafkaBatchInfo struct {
	BatchId   string   `json:"batchId"`
	TxHash    string   `json:"txHash"`
	Status    string   `json:"status"`
	Senders   []string `json:"senders"`
	ItemNum   int      `json:"itemNum"`
	GasLimit  uint64   `json:"gasLimit"`
	Timestamp int64    `json:"timestamp"`
	ErrMsg    string   `json:"errMsg,omitempty"`
}
