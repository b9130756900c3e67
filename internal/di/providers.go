package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"WalletPnL/internal/domain/repository"
	"WalletPnL/internal/handler/api"
	mid "WalletPnL/internal/middleware"
	internalrepo "WalletPnL/internal/repository"
	"WalletPnL/internal/service/cielo"
	"WalletPnL/internal/service/coingecko"
	"WalletPnL/internal/service/covalent"
	"WalletPnL/internal/service/dexscreener"
	"WalletPnL/internal/service/helius"
	"WalletPnL/internal/service/jupiter"
	"WalletPnL/internal/service/ratelimit"
	"WalletPnL/internal/usecase"
	"WalletPnL/pkg/cache"
	pkgch "WalletPnL/pkg/clickhouse"
	"WalletPnL/pkg/config"
	xhttp "WalletPnL/pkg/http"
	pkgkafka "WalletPnL/pkg/kafka"
	applogger "WalletPnL/pkg/logger"
	"WalletPnL/pkg/metrics"
	"WalletPnL/pkg/queue"
	"WalletPnL/pkg/server"
)

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lgr, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return lgr, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.HTTPClient.Timeout),
		xhttp.WithUserAgent("walletpnl/1.0"),
	)
}

// ProvideRateLimiter is shared by provider pacing and the HTTP API.
func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideActivityProviders lists activity providers in fallback priority order.
func ProvideActivityProviders(cfg *config.Config, client *xhttp.Client) []repository.ActivityProvider {
	p := cfg.Providers
	return []repository.ActivityProvider{
		helius.NewClient(client, p.Helius.APIKey,
			helius.WithBaseURL(p.Helius.BaseURL),
			helius.WithPageSize(p.Helius.PageSize),
			helius.WithPaging(p.Helius.MaxPages, p.Helius.PageDelay),
		),
		cielo.NewClient(client, p.Cielo.APIKey,
			cielo.WithBaseURL(p.Cielo.BaseURL),
			cielo.WithPageSize(p.Cielo.PageSize),
			cielo.WithPaging(p.Cielo.MaxPages, p.Cielo.PageDelay),
		),
		covalent.NewClient(client, p.Covalent.APIKey,
			covalent.WithBaseURL(p.Covalent.BaseURL),
			covalent.WithPaging(p.Covalent.MaxPages, p.Covalent.PageDelay),
		),
	}
}

func ProvideActivityFetcher(
	cfg *config.Config,
	providers []repository.ActivityProvider,
	limiter *ratelimit.Limiter,
	m repository.Metrics,
	lgr *applogger.Logger,
) *usecase.ActivityFetcher {
	return usecase.NewActivityFetcher(providers, limiter, m, lgr,
		usecase.WithRetryDelay(cfg.Providers.RetryDelay),
	)
}

func ProvidePriceResolver(cfg *config.Config, client *xhttp.Client, m repository.Metrics, lgr *applogger.Logger) *usecase.PriceResolver {
	cg := cfg.Prices.CoinGecko
	source := coingecko.NewClient(client, cg.APIKey,
		coingecko.WithBaseURL(cg.BaseURL),
		coingecko.WithWindowDays(cg.WindowDays),
		coingecko.WithConcurrency(cg.Concurrency),
		coingecko.WithMetrics(m),
	)
	return usecase.NewPriceResolver(source, lgr)
}

// ProvideMetadataResolver orders strategies: Helius DAS, Jupiter, DexScreener.
func ProvideMetadataResolver(cfg *config.Config, client *xhttp.Client, m repository.Metrics, lgr *applogger.Logger) *usecase.MetadataResolver {
	strategies := []repository.MetadataStrategy{
		helius.NewAssetResolver(client, cfg.Providers.Helius.APIKey, cfg.Providers.Helius.RPCURL),
		jupiter.NewTokenList(client, cfg.Metadata.JupiterURL),
		dexscreener.NewPairs(client, cfg.Metadata.DexScreenerURL),
	}
	return usecase.NewMetadataResolver(strategies, m, lgr,
		usecase.WithMetadataBatch(cfg.Metadata.BatchSize, cfg.Metadata.Concurrency),
	)
}

func ProvideAnalyzer(
	fetcher *usecase.ActivityFetcher,
	prices *usecase.PriceResolver,
	meta *usecase.MetadataResolver,
	m repository.Metrics,
	lgr *applogger.Logger,
) *usecase.Analyzer {
	return usecase.NewAnalyzer(fetcher, prices, meta, usecase.NewClassifier(), m, lgr)
}

// ProvideRedisClient returns nil when redis is disabled.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc.Client(), nil
}

// ProvideCache layers memory over redis when redis is enabled, else memory only.
func ProvideCache(cfg *config.Config, rc *redis.Client) cache.Service {
	if rc == nil {
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MemorySize),
			cache.WithMemoryDefaultTTL(cfg.Cache.SummaryTTL),
		)
	}
	return cache.NewLayeredCache(
		cache.NewRedisCacheFromClient(rc, cfg.Redis.Prefix),
		cache.WithLayeredMemorySize(cfg.Cache.MemorySize),
		cache.WithLayeredMemoryTTL(time.Minute),
	)
}

func ProvideSummaryCache(cfg *config.Config, svc cache.Service) *internalrepo.SummaryCache {
	return internalrepo.NewSummaryCache(svc, cfg.Cache.SummaryTTL)
}

// ProvideKafkaProducer returns nil when kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideClickHouseClient returns nil when the archive is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, false),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideSummaryStore creates the archive tables; nil without a client.
func ProvideSummaryStore(client *pkgch.Client, lgr *applogger.Logger) (*internalrepo.ClickHouseSummaryStore, error) {
	if client == nil {
		return nil, nil
	}
	store := internalrepo.NewClickHouseSummaryStore(client, lgr)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

func ProvideSummaryProcessor(
	cfg *config.Config,
	producer *pkgkafka.Producer,
	store *internalrepo.ClickHouseSummaryStore,
	m repository.Metrics,
) *usecase.SummaryProcessor {
	var (
		pub repository.SummaryPublisher
		st  repository.SummaryStorage
	)
	if producer != nil {
		pub = internalrepo.NewKafkaSummaryPublisher(producer, cfg.Kafka.SummariesTopic)
	}
	if store != nil {
		st = store
	}
	return usecase.NewSummaryProcessor(pub, st, m)
}

// ProvideSinkPipeline returns nil when no delivery backend is configured.
func ProvideSinkPipeline(
	cfg *config.Config,
	proc *usecase.SummaryProcessor,
	m repository.Metrics,
	lgr *applogger.Logger,
) *mid.SinkPipeline {
	if !proc.Enabled() {
		return nil
	}
	return mid.NewSinkPipeline(proc, m, lgr,
		mid.WithBufferSize(cfg.Sink.BufferSize),
		mid.WithRetry(cfg.Sink.MaxRetries, cfg.Sink.RetryBackoff),
	)
}

func ProvidePnLService(
	cfg *config.Config,
	analyzer *usecase.Analyzer,
	summaries *internalrepo.SummaryCache,
	pipe *mid.SinkPipeline,
	lgr *applogger.Logger,
) *usecase.PnLService {
	var sink repository.SummarySink
	if pipe != nil {
		sink = pipe
	}
	return usecase.NewPnLService(analyzer, summaries, sink, lgr,
		usecase.WithRunTimeout(cfg.Server.RunTimeout),
	)
}

// ProvideJobQueue returns nil when the redis queue is disabled; jobs then run in-process.
func ProvideJobQueue(cfg *config.Config, rc *redis.Client, lgr *applogger.Logger) *queue.RedisQueue {
	if !cfg.Queue.Enabled || rc == nil {
		return nil
	}
	return queue.NewRedisQueue(lgr, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.MaxRetries,
		RetryDelay: cfg.Queue.RetryDelay,
	}, rc, queue.ModeProducerConsumer, queue.WithKeyPrefix(cfg.Queue.Name))
}

func ProvideJobService(
	cfg *config.Config,
	svc cache.Service,
	q *queue.RedisQueue,
	pnl *usecase.PnLService,
	lgr *applogger.Logger,
) *usecase.JobService {
	store := internalrepo.NewJobStore(svc, cfg.Queue.ResultTTL)
	if q == nil {
		return usecase.NewJobService(store, nil, pnl, lgr)
	}
	jobs := usecase.NewJobService(store, internalrepo.NewRedisJobQueue(q), pnl, lgr)
	q.RegisterJob(usecase.NewAnalyzeJob(jobs))
	return jobs
}

// ProvideKafkaConsumer returns nil unless the request consumer is enabled.
func ProvideKafkaConsumer(cfg *config.Config, lgr *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerHandleTimeout(cfg.Server.RunTimeout+30*time.Second),
		pkgkafka.WithConsumerLogger(lgr),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.RequestIDHook{}))
	return consumer, nil
}

func ProvideKafkaRequestHandler(cfg *config.Config, svc *usecase.PnLService, lgr *applogger.Logger) *usecase.KafkaRequestHandler {
	return usecase.NewKafkaRequestHandler(cfg.Kafka.RequestsTopic, svc, lgr)
}

// ProvideHandlers collects every HTTP route group.
func ProvideHandlers(
	cfg *config.Config,
	lgr *applogger.Logger,
	svc *usecase.PnLService,
	jobs *usecase.JobService,
	store *internalrepo.ClickHouseSummaryStore,
	q *queue.RedisQueue,
	limiter *ratelimit.Limiter,
) []xhttp.Handler {
	var history repository.SummaryHistory
	if store != nil {
		history = store
	}
	var stats repository.JobQueueStats
	if q != nil {
		stats = q
	}
	limit := api.LimitConfig{
		Capacity:     cfg.Server.RateLimit.Capacity,
		RefillPerSec: cfg.Server.RateLimit.RefillPerSec,
	}
	return []xhttp.Handler{
		api.NewPnLEchoHandler(lgr, svc, history, limiter, limit),
		api.NewJobsEchoHandler(lgr, jobs, stats, limiter, limit),
		api.NewProgressWSHandler(lgr, svc),
	}
}

func ProvideHTTPServer(cfg *config.Config, lgr *applogger.Logger, handlers []xhttp.Handler) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(lgr, handlers,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
	)
}

// ProvideApp creates the application server and attaches the error digest
// collector once the producer exists.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	srv *xhttp.Server,
	proc *usecase.SummaryProcessor,
	pipe *mid.SinkPipeline,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaRequestHandler,
	q *queue.RedisQueue,
	svc cache.Service,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
) *server.App {
	if cfg.Log.Digest.Enabled && producer != nil {
		lgr.AddCollector(&applogger.CollectionConfig{
			Service:        "walletpnl",
			FlushInterval:  cfg.Log.Digest.FlushInterval,
			CountThreshold: cfg.Log.Digest.CountThreshold,
			Publisher:      internalrepo.NewKafkaDigestPublisher(producer, cfg.Log.Digest.Topic),
		})
	}

	opts := []server.AppOption{server.WithCloser("cache", svc.Close)}
	if pipe != nil {
		opts = append(opts, server.WithSink(pipe, proc))
	}
	if consumer != nil {
		opts = append(opts, server.WithKafkaConsumer(consumer, kh))
	}
	if q != nil {
		opts = append(opts, server.WithJobWorkers(q))
	}
	if producer != nil {
		opts = append(opts, server.WithCloser("kafka producer", producer.Close))
	}
	if chClient != nil {
		opts = append(opts, server.WithCloser("clickhouse", chClient.Close))
	}
	return server.New(cfg, lgr, srv, opts...)
}
