package config

import (
	"sync"
	"time"

	rcommon "github.com/everFinance/metarelay/common"
	"github.com/go-co-op/gocron"
	"gorm.io/gorm"
)

var log = rcommon.NewLog("config")

// Config holds settings that operators change at runtime through the database.
type Config struct {
	wdb       *Wdb
	scheduler *gocron.Scheduler

	lock        sync.RWMutex
	ipWhiteList map[string]struct{}
}

func New(db *gorm.DB) (*Config, error) {
	wdb := NewWdb(db)
	if err := wdb.Migrate(); err != nil {
		return nil, err
	}
	c := &Config{
		wdb:         wdb,
		scheduler:   gocron.NewScheduler(time.UTC),
		ipWhiteList: make(map[string]struct{}),
	}
	c.updateIPWhiteList()
	return c, nil
}

func (c *Config) Wdb() *Wdb {
	return c.wdb
}

// IsWhitelisted is used as the limiter exclusion predicate.
func (c *Config) IsWhitelisted(originOrIp string) bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	_, ok := c.ipWhiteList[originOrIp]
	return ok
}

func (c *Config) Run() {
	go c.runJobs()
}

func (c *Config) Close() {
	c.scheduler.Stop()
}
