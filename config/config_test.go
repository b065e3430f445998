package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDb(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDb, err := db.DB()
	require.NoError(t, err)
	sqlDb.SetMaxOpenConns(1)
	return db
}

func TestConfig_Whitelist(t *testing.T) {
	c, err := New(testDb(t))
	require.NoError(t, err)
	assert.False(t, c.IsWhitelisted("10.0.0.1"))

	require.NoError(t, c.Wdb().UpsertIpRateWhitelist(IpRateWhitelist{OriginOrIP: "10.0.0.1", Available: true}))
	require.NoError(t, c.Wdb().UpsertIpRateWhitelist(IpRateWhitelist{OriginOrIP: "https://app.example", Available: true}))
	require.NoError(t, c.Wdb().UpsertIpRateWhitelist(IpRateWhitelist{OriginOrIP: "10.0.0.2", Available: false}))

	c.updateIPWhiteList()
	assert.True(t, c.IsWhitelisted("10.0.0.1"))
	assert.True(t, c.IsWhitelisted("https://app.example"))
	assert.False(t, c.IsWhitelisted("10.0.0.2"))

	// disabling an entry takes effect on the next refresh
	require.NoError(t, c.Wdb().UpsertIpRateWhitelist(IpRateWhitelist{OriginOrIP: "10.0.0.1", Available: false}))
	c.updateIPWhiteList()
	assert.False(t, c.IsWhitelisted("10.0.0.1"))
}
