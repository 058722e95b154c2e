package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"AssetGrid-Chain/internal/api"
	"AssetGrid-Chain/internal/config"
	"AssetGrid-Chain/internal/contracts"
	"AssetGrid-Chain/internal/defi"
	"AssetGrid-Chain/internal/journal"
	"AssetGrid-Chain/internal/observability/alerting"
	"AssetGrid-Chain/internal/observability/metrics"
	"AssetGrid-Chain/internal/scheduler"
	"AssetGrid-Chain/pkg/logger"
)

// main 是 AssetGrid 守护进程的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("assetgridd 运行失败: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Runtime.DataDir, 0o755); err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	appLog := logger.Named("assetgridd")

	store, err := openStore(ctx, cfg.Journal.Store)
	if err != nil {
		return err
	}
	queue, err := openQueue(ctx, cfg.Journal.Queue)
	if err != nil {
		_ = store.Close()
		return err
	}

	recorderOpts := []journal.RecorderOption{
		journal.WithAlertDispatcher(alerting.NewFanout(&alerting.LogNotifier{})),
	}
	if queue != nil {
		recorderOpts = append(recorderOpts, journal.WithProducer(queue))
	}
	recorder := journal.NewRecorder(store, recorderOpts...)
	defer func() {
		if err := recorder.Close(); err != nil {
			appLog.Warn("关闭动作记录失败", slog.Any("error", err))
		}
	}()

	registry := metrics.NewRegistry()
	agent := defi.NewAgent(defi.WithRecorder(recorder))
	integration := contracts.NewIntegration(contracts.WithRecorder(recorder))

	runner, err := scheduler.New(cfg.Automation, agent)
	if err != nil {
		return err
	}

	serverOpts := []api.Option{
		api.WithDeFiAgent(agent),
		api.WithContracts(integration),
		api.WithJournal(recorder),
		api.WithTimeouts(cfg.Server.ReadTimeout(), cfg.Server.WriteTimeout(), cfg.Server.ShutdownTimeout()),
	}
	if !cfg.Metrics.Disabled {
		serverOpts = append(serverOpts, api.WithMetrics(registry, cfg.Metrics.Path))
	}
	server := api.NewServer(cfg.Server.Address, serverOpts...)

	bgCtx, bgCancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		bgCancel()
		wg.Wait()
	}()

	if queue != nil {
		dispatcher := journal.NewDispatcher(store, queue,
			journal.WithWorkerCount(cfg.Journal.Queue.Workers),
			journal.WithObserver(registry),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := dispatcher.Start(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				appLog.Error("动作记录分发器异常退出", slog.Any("error", err))
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := runner.Start(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
			appLog.Error("调度器异常退出", slog.Any("error", err))
		}
	}()

	appLog.Info("AssetGrid 已启动",
		slog.String("defi", agent.Name()),
		slog.String("contracts", integration.Name()),
		slog.String("journal_store", cfg.Journal.Store.Driver),
		slog.String("journal_queue", cfg.Journal.Queue.Driver),
		slog.Int("scheduled_jobs", runner.Jobs()),
	)

	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// loadConfig 读取配置文件，默认路径不存在时使用内置默认值。
func loadConfig() (*config.Config, error) {
	path := config.ResolvePath()
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) && path == config.DefaultPath {
		return config.Default(), nil
	}
	return nil, err
}

func openStore(ctx context.Context, cfg config.StoreConfig) (journal.Store, error) {
	if cfg.Driver == config.StoreMySQL {
		return journal.NewMySQLStore(ctx, cfg.DSN)
	}
	return journal.NewMemoryStore(), nil
}

func openQueue(ctx context.Context, cfg config.QueueConfig) (journal.Queue, error) {
	switch cfg.Driver {
	case config.QueueNone:
		return nil, nil
	case config.QueueRedis:
		return journal.NewRedisQueue(ctx, journal.RedisQueueConfig{
			Address:      cfg.Redis.Address,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			Queue:        cfg.Redis.Queue,
			BlockWait:    time.Duration(cfg.Redis.BlockWaitSeconds) * time.Second,
			RetryBackoff: time.Duration(cfg.Redis.RetryBackoffMS) * time.Millisecond,
		})
	case config.QueueRabbitMQ:
		return journal.NewRabbitMQQueue(journal.RabbitMQConfig{
			URL:      cfg.RabbitMQ.URL,
			Queue:    cfg.RabbitMQ.Queue,
			Prefetch: cfg.RabbitMQ.Prefetch,
			Durable:  cfg.RabbitMQ.Durable,
		})
	default:
		return journal.NewMemoryQueue(cfg.Size), nil
	}
}
