package gateway

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// NonceManager tracks the relayer account's next nonce so back to back
// submissions do not reuse a nonce the node has not reported as pending yet.
type NonceManager struct {
	mu     sync.Mutex
	nonces map[common.Address]uint64 // next nonce, one past the highest used
}

func NewNonceManager() *NonceManager {
	return &NonceManager{
		nonces: make(map[common.Address]uint64),
	}
}

// Next returns the higher of the rpc pending nonce and the locally tracked one, and reserves it.
func (nm *NonceManager) Next(account common.Address, rpcNonce uint64) uint64 {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	nonce := rpcNonce
	if local, ok := nm.nonces[account]; ok && local > rpcNonce {
		nonce = local
	}
	nm.nonces[account] = nonce + 1
	return nonce
}

// Reset drops local tracking, e.g. after a failed send.
func (nm *NonceManager) Reset(account common.Address) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	delete(nm.nonces, account)
}
