package metarelay

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/everFinance/metarelay/schema"
)

// PendingSet holds admitted intents until the next flush, at most one per sender,
// in admission order.
type PendingSet struct {
	lock    sync.Mutex
	senders map[common.Address]struct{}
	txs     []*schema.MetaTxWithSig
}

func NewPendingSet() *PendingSet {
	return &PendingSet{
		senders: make(map[common.Address]struct{}),
		txs:     make([]*schema.MetaTxWithSig, 0),
	}
}

// Add inserts tx unless its sender already has a pending intent.
func (p *PendingSet) Add(tx *schema.MetaTxWithSig) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	from := tx.MetaTx.From
	if _, ok := p.senders[from]; ok {
		return schema.ErrTooManyRequests
	}
	p.senders[from] = struct{}{}
	p.txs = append(p.txs, tx)
	return nil
}

func (p *PendingSet) Has(from common.Address) bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	_, ok := p.senders[from]
	return ok
}

// DrainAll removes and returns every pending intent in admission order.
func (p *PendingSet) DrainAll() []*schema.MetaTxWithSig {
	p.lock.Lock()
	defer p.lock.Unlock()
	txs := p.txs
	p.txs = make([]*schema.MetaTxWithSig, 0, len(txs))
	p.senders = make(map[common.Address]struct{}, len(txs))
	return txs
}

func (p *PendingSet) Len() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return len(p.txs)
}

func (p *PendingSet) Snapshot() []schema.MetaTxWithSig {
	p.lock.Lock()
	defer p.lock.Unlock()
	res := make([]schema.MetaTxWithSig, 0, len(p.txs))
	for _, tx := range p.txs {
		res = append(res, *tx)
	}
	return res
}
