package schema

import (
	"time"

	"gorm.io/datatypes"
)

const (
	BatchSubmitted = "submitted" // accepted by the rpc node, receipt unknown
	BatchFailed    = "failed"    // submit call errored, items dropped
	BatchConfirmed = "confirmed"
	BatchReverted  = "reverted"
	BatchExpired   = "expired" // no receipt within the watch window
)

// Batch is the audit record of one flush. It is never read back into the pending set.
type Batch struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	BatchId     string         `gorm:"uniqueIndex;size:64" json:"batchId"`
	TxHash      string         `gorm:"index:idx1;size:66" json:"txHash"`
	GasLimit    uint64         `json:"gasLimit"`
	ItemNum     int            `json:"itemNum"`
	Items       datatypes.JSON `json:"items"` // json.marshal([]TxRequest)
	Status      string         `gorm:"index:idx2;size:16" json:"status"`
	BlockNumber uint64         `json:"blockNumber"`
	ErrMsg      string         `json:"errMsg"`
}
