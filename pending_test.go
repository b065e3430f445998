package metarelay

import (
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/everFinance/metarelay/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingTx(i int64) *schema.MetaTxWithSig {
	return &schema.MetaTxWithSig{
		MetaTx: schema.MetaTx{
			From:   common.BigToAddress(big.NewInt(i + 1)),
			To:     common.BigToAddress(big.NewInt(1000 + i)),
			Token:  testToken,
			Amount: big.NewInt(i),
			Nonce:  big.NewInt(0),
		},
		Signature: make([]byte, 65),
	}
}

func TestPendingSet_AddDuplicate(t *testing.T) {
	p := NewPendingSet()
	tx := pendingTx(1)
	require.NoError(t, p.Add(tx))
	assert.True(t, p.Has(tx.MetaTx.From))
	assert.Equal(t, 1, p.Len())

	// same sender, different payload
	other := pendingTx(1)
	other.MetaTx.Amount = big.NewInt(99)
	assert.ErrorIs(t, p.Add(other), schema.ErrTooManyRequests)
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, int64(1), p.Snapshot()[0].MetaTx.Amount.Int64())
}

func TestPendingSet_DrainAll(t *testing.T) {
	p := NewPendingSet()
	for i := int64(0); i < 5; i++ {
		require.NoError(t, p.Add(pendingTx(i)))
	}

	txs := p.DrainAll()
	require.Len(t, txs, 5)
	for i, tx := range txs {
		assert.Equal(t, common.BigToAddress(big.NewInt(int64(i+1))), tx.MetaTx.From)
	}
	assert.Equal(t, 0, p.Len())
	assert.Empty(t, p.DrainAll())

	// drained senders may be admitted again
	require.NoError(t, p.Add(pendingTx(0)))
	assert.Len(t, txs, 5)
}

func TestPendingSet_Snapshot(t *testing.T) {
	p := NewPendingSet()
	require.NoError(t, p.Add(pendingTx(1)))
	snap := p.Snapshot()
	require.Len(t, snap, 1)
	p.DrainAll()
	assert.Len(t, snap, 1)
	assert.Equal(t, 0, p.Len())
}

func TestPendingSet_ConcurrentSameSender(t *testing.T) {
	p := NewPendingSet()
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p.Add(pendingTx(7)) == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, p.Len())
}

func TestPendingSet_ConcurrentDrain(t *testing.T) {
	p := NewPendingSet()
	const n = 500
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		drained []*schema.MetaTxWithSig
	)
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for {
			select {
			case <-done:
				return
			default:
				txs := p.DrainAll()
				mu.Lock()
				drained = append(drained, txs...)
				mu.Unlock()
			}
		}
	}()
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int64) {
			defer wg.Done()
			require.NoError(t, p.Add(pendingTx(i)))
		}(int64(i))
	}
	wg.Wait()
	close(done)
	<-stopped

	mu.Lock()
	defer mu.Unlock()
	total := append(drained, p.DrainAll()...)
	assert.Len(t, total, n)
	seen := make(map[common.Address]struct{})
	for _, tx := range total {
		seen[tx.MetaTx.From] = struct{}{}
	}
	assert.Len(t, seen, n)
}
