package cache

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/ethereum/go-ethereum/common"
	"github.com/everFinance/metarelay/schema"
)

const txStatusPrefix = "tx-status-"

type Cache struct {
	Cache ICache
}

type ICache interface {
	Set(key string, entry []byte) error

	Get(key string) ([]byte, error)
}

func NewLocalCache(allKeysExpTime time.Duration) (*Cache, error) {
	cache, err := NewBigCache(allKeysExpTime)
	if err != nil {
		return nil, err
	}
	return &Cache{Cache: cache}, nil
}

func txStatusKey(from common.Address) string {
	return txStatusPrefix + strings.ToLower(from.Hex())
}

// PutTxStatus records the outcome of the latest flush that included from.
func (c *Cache) PutTxStatus(status schema.RespTxStatus) error {
	by, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return c.Cache.Set(txStatusKey(common.HexToAddress(status.From)), by)
}

func (c *Cache) GetTxStatus(from common.Address) (*schema.RespTxStatus, error) {
	by, err := c.Cache.Get(txStatusKey(from))
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return nil, schema.ErrNotExist
		}
		return nil, err
	}
	status := &schema.RespTxStatus{}
	err = json.Unmarshal(by, status)
	return status, err
}
