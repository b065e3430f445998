package schema

import (
	"time"
)

const (
	DefaultPort           = ":8080"
	DefaultDomainName     = "AutomataRelayerDapp"
	DefaultDomainVersion  = "1"
	DefaultGasLimit       = 100000
	DefaultFlushInterval  = 1 * time.Minute
	DefaultRpcTimeout     = 10 * time.Second
	DefaultFlushedTTL     = 10 * time.Minute
	DefaultReceiptExpired = 30 * time.Minute
	DefaultMetricPort     = ":9000"
)

type Config struct {
	Port       string `yaml:"port"`
	MetricPort string `yaml:"metricPort"`
	SentryDsn  string `yaml:"sentryDsn"`

	// settlement gateway
	RpcUrl     string        `yaml:"rpcUrl"`
	PrivKey    string        `yaml:"privKey"`
	ChainId    int64         `yaml:"chainId"`
	Contract   string        `yaml:"contract"`
	RpcTimeout time.Duration `yaml:"rpcTimeout"`

	// signing domain, fixed per deployment
	DomainName    string `yaml:"domainName"`
	DomainVersion string `yaml:"domainVersion"`

	// batching
	RelayerInterval time.Duration `yaml:"relayerInterval"`
	GasLimit        uint64        `yaml:"gasLimit"`
	ReceiptExpired  time.Duration `yaml:"receiptExpired"`
	FlushedTTL      time.Duration `yaml:"flushedTTL"`

	// batch history; sqlite is used when SqliteDir is set
	Mysql     string `yaml:"mysql"`
	SqliteDir string `yaml:"sqliteDir"`

	Limiter Limiter `yaml:"limiter"`
	Kafka   Kafka   `yaml:"kafka"`
}

type Limiter struct {
	Limit  int    `yaml:"limit"`  // 0 disables the limiter
	Period string `yaml:"period"` // "S","M","H","D"
}

type Kafka struct {
	Start bool   `yaml:"start"`
	Uri   string `yaml:"uri"`
}

func (c *Config) SetDefaults() {
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if c.MetricPort == "" {
		c.MetricPort = DefaultMetricPort
	}
	if c.DomainName == "" {
		c.DomainName = DefaultDomainName
	}
	if c.DomainVersion == "" {
		c.DomainVersion = DefaultDomainVersion
	}
	if c.GasLimit == 0 {
		c.GasLimit = DefaultGasLimit
	}
	if c.RelayerInterval <= 0 {
		c.RelayerInterval = DefaultFlushInterval
	}
	if c.RpcTimeout <= 0 {
		c.RpcTimeout = DefaultRpcTimeout
	}
	if c.FlushedTTL <= 0 {
		c.FlushedTTL = DefaultFlushedTTL
	}
	if c.ReceiptExpired <= 0 {
		c.ReceiptExpired = DefaultReceiptExpired
	}
	if c.Limiter.Period == "" {
		c.Limiter.Period = "M"
	}
}
