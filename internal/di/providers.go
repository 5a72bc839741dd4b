package di

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"StockScan/internal/app"
	"StockScan/internal/domain/repository"
	"StockScan/internal/handler/api"
	internalrepo "StockScan/internal/repository"
	"StockScan/internal/service/checkpoint"
	"StockScan/internal/service/fetch"
	"StockScan/internal/service/rules"
	"StockScan/internal/service/yahoo"
	"StockScan/internal/usecase"
	"StockScan/pkg/cache"
	"StockScan/pkg/clickhouse"
	"StockScan/pkg/config"
	pkghttp "StockScan/pkg/http"
	"StockScan/pkg/kafka"
	"StockScan/pkg/logger"
	"StockScan/pkg/metrics"
)

func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

func ProvideCache(cfg *config.Config) (cache.Service, error) {
	return cache.NewRedisCache(
		cache.WithHost(cfg.Redis.Host),
		cache.WithPort(cfg.Redis.Port),
		cache.WithPassword(cfg.Redis.Password),
		cache.WithDB(cfg.Redis.DB),
		cache.WithPrefix(cfg.Redis.Prefix),
	)
}

func ProvideClickHouse(cfg *config.Config) (*clickhouse.Client, error) {
	return clickhouse.NewClient(
		clickhouse.WithHost(cfg.ClickHouse.Host),
		clickhouse.WithPort(cfg.ClickHouse.Port),
		clickhouse.WithDatabase(cfg.ClickHouse.Database),
		clickhouse.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		clickhouse.WithHTTP(cfg.ClickHouse.UseHTTP),
		clickhouse.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		clickhouse.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		clickhouse.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
}

func ProvideBarStore(client *clickhouse.Client) repository.BarStore {
	return internalrepo.NewClickHouseBarStore(client)
}

func ProvideUniverseProvider(cfg *config.Config, client *clickhouse.Client) repository.UniverseProvider {
	if cfg.Scan.UniverseCSV != "" {
		return internalrepo.NewCSVUniverseProvider(cfg.Scan.UniverseCSV)
	}
	return internalrepo.NewClickHouseUniverseProvider(client)
}

func ProvideRunSink(client *clickhouse.Client) *internalrepo.ClickHouseRunSink {
	return internalrepo.NewClickHouseRunSink(client)
}

func ProvideCheckpointStore(svc cache.Service) repository.CheckpointStore {
	return internalrepo.NewCacheCheckpointStore(svc)
}

// ProvidePublisher returns nil when Kafka is disabled; the orchestrator
// treats a nil publisher as "no downstream".
func ProvidePublisher(cfg *config.Config) (repository.CandidatePublisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := kafkaProducer(cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaCandidatePublisher(producer, cfg.Kafka.Topic), nil
}

func kafkaProducer(cfg *config.Config) (*kafka.Producer, error) {
	return kafka.NewProducer(
		kafka.WithBrokers(cfg.Kafka.Brokers),
		kafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		kafka.WithCompression(cfg.Kafka.Compression),
		kafka.WithHashByKey(true),
	)
}

func ProvideFetcher(cfg *config.Config, log *logger.Logger) repository.PriceFetcher {
	return yahoo.NewClient(log,
		yahoo.WithBaseURL(cfg.Yahoo.BaseURL),
		yahoo.WithRequestTimeout(cfg.Yahoo.RequestTimeout),
	)
}

func ProvideStrategy(cfg *config.Config, store repository.BarStore, fetcher repository.PriceFetcher, log *logger.Logger) (*fetch.Strategy, error) {
	loc, err := time.LoadLocation(cfg.Scan.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scan timezone: %w", err)
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.Yahoo.MaxRPS), cfg.Yahoo.Burst)
	return fetch.NewStrategy(store, fetcher, limiter, fetch.StrategyOptions{
		PreferCache:    cfg.Scan.PreferCache,
		MaxCacheBars:   cfg.Scan.MaxCacheBars,
		MinHistoryBars: cfg.Scan.MinHistoryBars,
		BaseFreshDays:  cfg.Scan.BaseFreshDays,
		Range:          cfg.Yahoo.Range,
		Interval:       cfg.Yahoo.Interval,
		RetryMax:       cfg.Scan.RetryMax,
		RetryBackoff:   cfg.Scan.RetryBackoff,
		Location:       loc,
	}, log), nil
}

func ProvideGates(cfg *config.Config) (*fetch.Gates, error) {
	loc, err := time.LoadLocation(cfg.Scan.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scan timezone: %w", err)
	}
	return &fetch.Gates{
		BaseFreshDays:  cfg.Scan.BaseFreshDays,
		MinHistoryBars: cfg.Scan.MinHistoryBars,
		MinPrice:       cfg.Scan.MinPrice,
		MinAvgVolume:   cfg.Scan.MinAvgVolume,
		MaxZeroVolDays: cfg.Scan.MaxZeroVolDays,
		MaxFlatDays:    cfg.Scan.MaxFlatDays,
		LookbackDays:   cfg.Scan.LookbackDays,
		Location:       loc,
	}, nil
}

func ProvidePipeline(
	cfg *config.Config,
	strategy *fetch.Strategy,
	gates *fetch.Gates,
	store repository.BarStore,
	log *logger.Logger,
) *usecase.Pipeline {
	return usecase.NewPipeline(
		strategy, gates, store,
		rules.NewEngine(),
		rules.NewTrendFilter(),
		rules.NewVolatilityRisk(0),
		rules.NewMomentumScorer(),
		cfg.Scan.MinScore,
		log,
	)
}

func ProvideScanner(cfg *config.Config, pipeline *usecase.Pipeline, recorder *metrics.Recorder, log *logger.Logger) *usecase.Scanner {
	return usecase.NewScanner(pipeline, cfg.Scan.PoolSize, cfg.Scan.ProgressInterval, recorder, log)
}

func ProvideCheckpointManager(cfg *config.Config, store repository.CheckpointStore, log *logger.Logger) *checkpoint.Manager {
	return checkpoint.NewManager(store, cfg.Scan.CheckpointKey, log)
}

func ProvideOrchestrator(
	cfg *config.Config,
	universe repository.UniverseProvider,
	scanner *usecase.Scanner,
	cpm *checkpoint.Manager,
	sink *internalrepo.ClickHouseRunSink,
	publisher repository.CandidatePublisher,
	log *logger.Logger,
) *usecase.Orchestrator {
	return usecase.NewOrchestrator(universe, scanner, cpm, sink, publisher, cfg.Scan, log)
}

func ProvideServer(cfg *config.Config, sink *internalrepo.ClickHouseRunSink, ch *clickhouse.Client, log *logger.Logger) *pkghttp.Server {
	handler := api.NewHandler(sink, ch.Health, log)
	return pkghttp.NewServer(handler, log,
		pkghttp.WithPort(cfg.Server.Port),
		pkghttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	)
}

func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	server *pkghttp.Server,
	orchestrator *usecase.Orchestrator,
	ch *clickhouse.Client,
	cacheSvc cache.Service,
	publisher repository.CandidatePublisher,
) *app.App {
	closers := []func() error{cacheSvc.Close, ch.Close}
	if publisher != nil {
		closers = append(closers, publisher.Close)
	}
	return app.New(cfg, log, server, orchestrator, ch, cacheSvc, closers)
}
