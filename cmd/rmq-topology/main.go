package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cessoc/rmq"
	"github.com/cessoc/rmq/config"
	"github.com/cessoc/rmq/logger"
	"github.com/cessoc/rmq/topology"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var (
	configPath   = flag.String("config", "", "path to configuration file (optional)")
	topologyPath = flag.String("topology", "", "path to topology file, overrides topology_path from config")
	dryRun       = flag.Bool("dry-run", false, "validate and print the topology without connecting to the broker")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}

	appLogger, err := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		OutputPath: cfg.Logger.OutputPath,
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer appLogger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	path := cfg.TopologyPath
	if *topologyPath != "" {
		path = *topologyPath
	}
	if path == "" {
		appLogger.Fatal("topology file is not set")
	}

	manager := topology.NewManager()
	// routes only name handlers, the cli declares their bindings without consuming
	err = config.LoadTopologyFile(path, manager, nil)
	if err != nil {
		appLogger.Fatal("register topology", zap.String("path", path), zap.Error(err))
	}

	declarations := topology.Compile(manager)
	appLogger.Info("topology registered",
		zap.Int("exchanges", len(declarations.Exchanges)),
		zap.Int("queues", len(declarations.Queues)),
		zap.Int("bindings", len(declarations.Bindings)),
	)
	if *dryRun {
		observer := rmq.NewLogObserver(appLogger)
		for _, exchange := range declarations.Exchanges {
			observer.ExchangeDeclared(exchange)
		}
		for _, queue := range declarations.Queues {
			observer.QueueDeclared(queue)
		}
		for _, binding := range declarations.Bindings {
			observer.BindingDeclared(binding)
		}
		return
	}

	vaultClient, err := config.NewVaultClient(cfg.Vault)
	if err != nil {
		appLogger.Fatal("create vault client", zap.Error(err))
	}
	if vaultClient != nil {
		err = config.ApplyVaultSecrets(ctx, cfg, vaultClient)
		if err != nil {
			appLogger.Fatal("apply vault secrets", zap.Error(err))
		}
	}

	cli := rmq.New(
		cfg.AMQP.URL(),
		rmq.WithDialConfig(rmq.DialConfig{
			Config: amqp.Config{
				Heartbeat: cfg.AMQP.Heartbeat,
				Locale:    "en_US",
			},
			DialTimeout: cfg.AMQP.DialTimeout,
		}),
		rmq.WithDeclaratorOptions(rmq.WithObserver(rmq.NewLogObserver(appLogger))),
	)
	err = cli.Declare(ctx, manager)
	if err != nil {
		appLogger.Fatal("declare topology", zap.String("host", cfg.AMQP.Host), zap.Error(err))
	}
	appLogger.Info("topology declared", zap.String("host", cfg.AMQP.Host))
}
