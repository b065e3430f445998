package example

import (
	"crypto/ecdsa"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	rcommon "github.com/everFinance/metarelay/common"
	"github.com/everFinance/metarelay/sdk"
	"github.com/panjf2000/ants/v2"
)

var log = rcommon.NewLog("example")

type Transfer struct {
	Key    *ecdsa.PrivateKey
	Token  common.Address
	To     common.Address
	Amount *big.Int
	Nonce  *big.Int
}

// BatchSend submits one signed intent per transfer concurrently and returns the accepted senders.
func BatchSend(relayerUrl string, transfers []Transfer) (accepted []common.Address) {
	var (
		wg   sync.WaitGroup
		lock sync.Mutex
	)
	accepted = make([]common.Address, 0, len(transfers))
	p, _ := ants.NewPoolWithFunc(20, func(i interface{}) {
		defer wg.Done()
		tr := i.(Transfer)
		s := sdk.NewSDK(relayerUrl, tr.Key)
		if _, err := s.Send(tr.Token, tr.To, tr.Amount, tr.Nonce); err != nil {
			log.Error("s.Send(transfer)", "err", err, "from", s.Owner.Hex())
			return
		}
		lock.Lock()
		accepted = append(accepted, s.Owner)
		lock.Unlock()
	})

	defer p.Release()
	for _, tr := range transfers {
		wg.Add(1)
		if err := p.Invoke(tr); err != nil {
			wg.Done()
			log.Error("p.Invoke(transfer)", "err", err)
		}
	}
	wg.Wait()
	return
}
