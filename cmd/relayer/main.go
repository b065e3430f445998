package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/everFinance/metarelay"
	"github.com/everFinance/metarelay/schema"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "metarelay",
		Usage: "gas-less meta transaction relayer",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "rpc_url", Value: "http://127.0.0.1:8545", Usage: "ethereum json-rpc endpoint", EnvVars: []string{"RPC_URL"}},
			&cli.StringFlag{Name: "priv_key", Usage: "relayer account private key (hex)", EnvVars: []string{"PRIV_KEY"}},
			&cli.Int64Flag{Name: "chain_id", Value: 31337, EnvVars: []string{"CHAIN_ID"}},
			&cli.StringFlag{Name: "contract", Usage: "receiver contract address, also the verifying contract", EnvVars: []string{"CONTRACT"}},
			&cli.StringFlag{Name: "domain_name", Value: schema.DefaultDomainName, EnvVars: []string{"DOMAIN_NAME"}},
			&cli.StringFlag{Name: "domain_version", Value: schema.DefaultDomainVersion, EnvVars: []string{"DOMAIN_VERSION"}},
			&cli.DurationFlag{Name: "interval", Value: schema.DefaultFlushInterval, Usage: "batch flush interval", EnvVars: []string{"RELAYER_INTERVAL"}},
			&cli.Uint64Flag{Name: "gas_limit", Value: schema.DefaultGasLimit, Usage: "gas forwarded to each transfer", EnvVars: []string{"GAS_LIMIT"}},
			&cli.DurationFlag{Name: "rpc_timeout", Value: schema.DefaultRpcTimeout, EnvVars: []string{"RPC_TIMEOUT"}},

			&cli.StringFlag{Name: "mysql", Usage: "mysql dsn for batch history", EnvVars: []string{"MYSQL"}},
			&cli.StringFlag{Name: "sqlite_dir", Usage: "sqlite dir for batch history, used instead of mysql", EnvVars: []string{"SQLITE_DIR"}},
			&cli.BoolFlag{Name: "kafka", Value: false, EnvVars: []string{"KAFKA"}},
			&cli.StringFlag{Name: "kafka_uri", Value: "127.0.0.1:9092", EnvVars: []string{"KAFKA_URI"}},
			&cli.IntFlag{Name: "limit", Value: 0, Usage: "POST /transaction requests per period and client, 0 disables", EnvVars: []string{"LIMIT"}},
			&cli.StringFlag{Name: "limit_period", Value: "M", EnvVars: []string{"LIMIT_PERIOD"}},
			&cli.StringFlag{Name: "sentry_dsn", EnvVars: []string{"SENTRY_DSN"}},

			&cli.StringFlag{Name: "port", Value: schema.DefaultPort, EnvVars: []string{"PORT"}},
			&cli.StringFlag{Name: "metric_port", Value: schema.DefaultMetricPort, EnvVars: []string{"METRIC_PORT"}},
		},
		Action: run,
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	cfg := schema.Config{
		Port:            c.String("port"),
		MetricPort:      c.String("metric_port"),
		SentryDsn:       c.String("sentry_dsn"),
		RpcUrl:          c.String("rpc_url"),
		PrivKey:         c.String("priv_key"),
		ChainId:         c.Int64("chain_id"),
		Contract:        c.String("contract"),
		RpcTimeout:      c.Duration("rpc_timeout"),
		DomainName:      c.String("domain_name"),
		DomainVersion:   c.String("domain_version"),
		RelayerInterval: c.Duration("interval"),
		GasLimit:        c.Uint64("gas_limit"),
		ReceiptExpired:  schema.DefaultReceiptExpired,
		FlushedTTL:      schema.DefaultFlushedTTL,
		Mysql:           c.String("mysql"),
		SqliteDir:       c.String("sqlite_dir"),
		Limiter:         schema.Limiter{Limit: c.Int("limit"), Period: c.String("limit_period")},
		Kafka:           schema.Kafka{Start: c.Bool("kafka"), Uri: c.String("kafka_uri")},
	}
	s, err := metarelay.New(cfg)
	if err != nil {
		return err
	}
	if err = s.Run(); err != nil {
		return err
	}

	<-signals

	s.Close()
	return nil
}
