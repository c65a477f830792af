package di

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	domrepo "ShopPulse/internal/domain/repository"
	domsvc "ShopPulse/internal/domain/service"
	"ShopPulse/internal/handler/api"
	mid "ShopPulse/internal/middleware"
	internalrepo "ShopPulse/internal/repository"
	"ShopPulse/internal/scheduler"
	servicemetrics "ShopPulse/internal/service/metrics"
	"ShopPulse/internal/service/ratelimit"
	"ShopPulse/internal/services/competition"
	"ShopPulse/internal/services/pricing"
	"ShopPulse/internal/services/stripe"
	"ShopPulse/internal/usecase"
	"ShopPulse/pkg/cache"
	pkgch "ShopPulse/pkg/clickhouse"
	"ShopPulse/pkg/config"
	xhttp "ShopPulse/pkg/http"
	pkgkafka "ShopPulse/pkg/kafka"
	applogger "ShopPulse/pkg/logger"
	"ShopPulse/pkg/metrics"
	"ShopPulse/pkg/postgres"
	"ShopPulse/pkg/queue"
	"ShopPulse/pkg/server"
)

// ProvideLogger creates the process logger from the logging section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  cfg.Logging.Output,
		Service: cfg.ServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	servicemetrics.Register()
	return metrics.New()
}

// ProvidePostgresClient connects to the catalog and payments database.
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, error) {
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("postgres: dsn is required (postgres.dsn or DATABASE_URL)")
	}
	client, err := postgres.NewClient(
		postgres.WithDSN(cfg.Postgres.DSN),
		postgres.WithPool(cfg.Postgres.MaxOpenConns, cfg.Postgres.MaxIdleConns, cfg.Postgres.ConnMaxLifetime),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres client: %w", err)
	}
	return client, nil
}

// ProvideClickHouseClient creates a ClickHouse client and the sales table.
// Without a host it returns nil and history falls back to synthetic data.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.ClickHouse.Host == "" {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithPool(10, 5, time.Hour),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := append([]string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database},
		internalrepo.SalesSchema(salesTable(cfg))...)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

func salesTable(cfg *config.Config) string {
	return cfg.ClickHouse.Database + "." + cfg.ClickHouse.SalesTable
}

// ProvideRedisClient returns the shared Redis client, or nil when Redis is disabled.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rdb, err := cache.NewRedisClient(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis client: %w", err)
	}
	return rdb, nil
}

// ProvideCache builds the response cache selected by cache.type.
func ProvideCache(cfg *config.Config, rdb *redis.Client) (cache.Service, error) {
	switch cfg.Cache.Type {
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("cache.type redis needs a redis client")
		}
		return cache.NewRedisCache(rdb, cfg.Cache.Prefix), nil
	case "layered":
		if rdb == nil {
			return nil, fmt.Errorf("cache.type layered needs a redis client")
		}
		return cache.NewLayeredCache(cache.NewRedisCache(rdb, cfg.Cache.Prefix),
			cache.WithLayeredMemorySize(cfg.Cache.MemoryCapacity),
		), nil
	default:
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemoryCapacity)), nil
	}
}

// ProvideKafkaProducer creates a Kafka producer, or nil when no brokers are configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates the sales consumer when enabled.
func ProvideKafkaConsumer(cfg *config.Config, logger *applogger.Logger, m domrepo.Metrics) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled || len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.SetLogger(logger)
	consumer.WithConsumerHook(pkgkafka.NewHookChain(
		pkgkafka.TraceHook{},
		pkgkafka.HookFuncs{
			Err: func(_ context.Context, topic string, _ kafkago.Message, _ []byte, _ error) {
				m.RecordError("consume_" + strings.ReplaceAll(topic, ".", "_"))
			},
		},
	))
	return consumer, nil
}

func ProvideProductStore(pg *postgres.Client, cfg *config.Config) domrepo.ProductStore {
	return internalrepo.NewPGProductStore(pg, cfg.Postgres.ProductsTable)
}

func ProvidePaymentStore(pg *postgres.Client, cfg *config.Config) domrepo.PaymentStore {
	return internalrepo.NewPGPaymentStore(pg, cfg.Postgres.PaymentsTable)
}

// ProvideHistoryStore reads daily aggregates from ClickHouse and falls back to a synthetic series.
func ProvideHistoryStore(ch *pkgch.Client, cfg *config.Config, logger *applogger.Logger) domrepo.HistoryStore {
	var synth []pricing.SyntheticOption
	if cfg.Pricing.SyntheticSeed != 0 {
		synth = append(synth, pricing.WithSeed(cfg.Pricing.SyntheticSeed))
	}
	fallback := pricing.NewSyntheticHistory(synth...)

	if ch == nil {
		return pricing.NewFallbackHistory(nil, fallback)
	}
	store := internalrepo.NewCHHistoryStore(ch, salesTable(cfg))
	store.SetLogger(logger)
	return pricing.NewFallbackHistory(store, fallback)
}

// ProvideSaleStorage returns nil without ClickHouse.
func ProvideSaleStorage(ch *pkgch.Client, cfg *config.Config) domrepo.SaleStorage {
	if ch == nil {
		return nil
	}
	return internalrepo.NewClickHouseSaleStorage(ch.DB(), salesTable(cfg))
}

// ProvideSalePublisher returns nil without Kafka.
func ProvideSalePublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.SalePublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSalePublisher(producer, cfg.Kafka.SalesTopic)
}

// ProvideRecommendationPublisher returns nil without Kafka.
func ProvideRecommendationPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.RecommendationPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaRecommendationPublisher(producer, cfg.Kafka.RecommendationTopic)
}

func ProvideRecommender(cfg *config.Config) domsvc.PriceRecommender {
	p := cfg.Pricing
	return pricing.NewRecommender(
		pricing.WithStockThresholds(p.LowStockThreshold, p.HighStockThreshold),
		pricing.WithMultipliers(p.LowStockMultiplier, p.HighStockMultiplier),
		pricing.WithInventoryModel(p.DemandCeiling, p.OptimalStock, p.MaxStockDistance),
		pricing.WithCompetition(p.Competition),
		pricing.WithConfidence(p.Confidence),
	)
}

func ProvideTrendReporter(cfg *config.Config) domsvc.TrendReporter {
	return pricing.NewTrendReporter(pricing.WithSeasonality(cfg.Pricing.Seasonality))
}

func ProvideCompetitionScorer(cfg *config.Config) domsvc.CompetitionScorer {
	return competition.New(cfg.Pricing.CompetitionURL, cfg.Pricing.CompetitionTimeout, cfg.Pricing.Competition)
}

func ProvidePaymentProcessor(cfg *config.Config) domsvc.PaymentProcessor {
	return stripe.NewProcessor(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
}

func ProvideFeedHub(cfg *config.Config, logger *applogger.Logger) *api.FeedHub {
	return api.NewFeedHub(logger, api.WithAllowedOrigins(cfg.Server.AllowOrigins))
}

func ProvidePricingUseCase(
	cfg *config.Config,
	logger *applogger.Logger,
	products domrepo.ProductStore,
	history domrepo.HistoryStore,
	recommender domsvc.PriceRecommender,
	trends domsvc.TrendReporter,
	scorer domsvc.CompetitionScorer,
	publisher domrepo.RecommendationPublisher,
	feed *api.FeedHub,
	c cache.Service,
	m domrepo.Metrics,
) *usecase.PricingUseCase {
	opts := []usecase.PricingOption{
		usecase.WithCompetitionScorer(scorer),
		usecase.WithBroadcaster(feed),
		usecase.WithResponseCache(c, cfg.Pricing.CacheTTL),
		usecase.WithWindowDays(cfg.Pricing.WindowDays),
	}
	if publisher != nil {
		opts = append(opts, usecase.WithRecommendationPublisher(publisher))
	}
	uc := usecase.NewPricingUseCase(products, history, recommender, trends, m, opts...)
	uc.SetLogger(logger)
	return uc
}

func ProvideRepricer(cfg *config.Config, logger *applogger.Logger, products domrepo.ProductStore, uc *usecase.PricingUseCase, c cache.Service) *usecase.Repricer {
	r := usecase.NewRepricer(products, uc, c, cfg.Repricer.BatchSize, cfg.Repricer.Concurrency)
	r.SetLogger(logger)
	return r
}

// ProvideScheduler returns nil when the repricer is disabled.
func ProvideScheduler(cfg *config.Config, logger *applogger.Logger, r *usecase.Repricer) *scheduler.Scheduler {
	if !cfg.Repricer.Enabled {
		return nil
	}
	return scheduler.New(r, cfg.Repricer.Cron,
		scheduler.WithRunOnStart(cfg.Repricer.RunOnStart),
		scheduler.WithLogger(logger),
	)
}

// ProvideQueue returns the payment job queue, or nil when status updates run inline.
func ProvideQueue(cfg *config.Config, logger *applogger.Logger, rdb *redis.Client) *queue.RedisQueue {
	if !cfg.Queue.Enabled || rdb == nil {
		return nil
	}
	return queue.NewRedisQueue(logger, queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.MaxRetries,
		RetryDelay: cfg.Queue.RetryDelay,
		MaxDelay:   10 * cfg.Queue.RetryDelay,
	}, rdb, queue.WithKeyPrefix(strings.TrimSuffix(cfg.Cache.Prefix, ":")+":queue:"+cfg.Queue.Name))
}

func ProvidePaymentsUseCase(
	logger *applogger.Logger,
	processor domsvc.PaymentProcessor,
	store domrepo.PaymentStore,
	m domrepo.Metrics,
	q *queue.RedisQueue,
) *usecase.PaymentsUseCase {
	uc := usecase.NewPaymentsUseCase(processor, store, m)
	uc.SetLogger(logger)
	if q != nil {
		uc.SetQueue(q)
		q.RegisterJobs(usecase.NewPaymentStatusJob(uc))
	}
	return uc
}

func ProvideSaleProcessor(cfg *config.Config, pub domrepo.SalePublisher, store domrepo.SaleStorage, m domrepo.Metrics) *usecase.SaleProcessor {
	return usecase.NewSaleProcessor(pub, store, m, cfg.Backend.Type)
}

func ProvideSalesPipeline(cfg *config.Config, logger *applogger.Logger, proc *usecase.SaleProcessor, m domrepo.Metrics) *mid.SalesPipeline {
	p := mid.NewSalesPipeline(proc, m,
		mid.WithMaxRPS(cfg.Sales.MaxPerSecond),
		mid.WithBufferSize(cfg.Sales.BufferSize),
		mid.WithRetryBackoff(cfg.Sales.RetryBase, cfg.Sales.RetryMax),
	)
	p.SetLogger(logger)
	return p
}

// ProvideKafkaSalesHandler returns nil without ClickHouse to store into.
func ProvideKafkaSalesHandler(cfg *config.Config, store domrepo.SaleStorage, m domrepo.Metrics) *usecase.KafkaSalesHandler {
	if store == nil {
		return nil
	}
	return usecase.NewKafkaSalesHandler(cfg.Kafka.SalesTopic, store, m)
}

// ProvideHandlers lists every HTTP handler in registration order.
func ProvideHandlers(
	logger *applogger.Logger,
	pricingUC *usecase.PricingUseCase,
	paymentsUC *usecase.PaymentsUseCase,
	pipeline *mid.SalesPipeline,
	feed *api.FeedHub,
	q *queue.RedisQueue,
	pg *postgres.Client,
	ch *pkgch.Client,
	rdb *redis.Client,
) []xhttp.Handler {
	checks := map[string]api.HealthChecker{"postgres": pg}
	if ch != nil {
		checks["clickhouse"] = ch
	}
	if rdb != nil {
		checks["redis"] = api.HealthFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	payments := api.NewPaymentsEchoHandler(logger, paymentsUC)
	if q != nil {
		payments.WithDeadLetters(q)
	}
	return []xhttp.Handler{
		api.NewHealthHandler(logger, checks),
		api.NewPricingEchoHandler(logger, pricingUC),
		payments,
		api.NewSalesEchoHandler(logger, pipeline),
		feed,
	}
}

func ProvideHTTPServer(cfg *config.Config, logger *applogger.Logger, handlers []xhttp.Handler) *xhttp.Server {
	var mw []echo.MiddlewareFunc
	if cfg.RateLimit.Enabled {
		mw = append(mw, ratelimit.Middleware(ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)))
	}
	return xhttp.NewServer(logger, handlers,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.AllowOrigins),
		xhttp.WithMetrics(cfg.Metrics.Enabled, cfg.Metrics.Path),
		xhttp.WithMiddleware(mw...),
	)
}

// ProvideApp assembles the lifecycle. Optional parts are nil when disabled in config.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	httpServer *xhttp.Server,
	pg *postgres.Client,
	ch *pkgch.Client,
	rdb *redis.Client,
	c cache.Service,
	producer *pkgkafka.Producer,
	consumer *pkgkafka.Consumer,
	salesHandler *usecase.KafkaSalesHandler,
	q *queue.RedisQueue,
	pipeline *mid.SalesPipeline,
	sched *scheduler.Scheduler,
	feed *api.FeedHub,
	proc *usecase.SaleProcessor,
) *server.App {
	if cfg.Logging.Collect.Enabled && producer != nil {
		logger.AddCollector(&applogger.CollectionConfig{
			TimeInterval:    cfg.Logging.Collect.Interval,
			CountThreshold:  cfg.Logging.Collect.Threshold,
			Topic:           cfg.Kafka.LogTopic,
			Service:         cfg.ServiceName,
			CollectWarnings: cfg.Logging.Collect.Warnings,
			Publisher:       producer,
		})
	}

	app := server.New(logger, httpServer, cfg.Server.ShutdownTimeout)

	if q != nil {
		app.Add(server.Component{
			Name:  "payment-queue",
			Start: func(context.Context) error { return q.Start() },
			Stop:  q.Stop,
		})
	}
	app.Add(server.Component{
		Name:  "sales-pipeline",
		Start: func(ctx context.Context) error { pipeline.Start(ctx); return nil },
		Stop:  func(context.Context) error { pipeline.Stop(); return nil },
	})
	if consumer != nil && salesHandler != nil {
		consumer.RegisterHandler(salesHandler)
		app.Add(server.Component{
			Name:  "kafka-consumer",
			Start: func(context.Context) error { return consumer.Start() },
			Stop:  consumer.Stop,
		})
	}
	if sched != nil {
		app.Add(server.Component{Name: "repricer", Start: sched.Start, Stop: sched.Stop})
	}
	app.Add(server.Component{
		Name: "feed",
		Stop: func(context.Context) error { feed.Close(); return nil },
	})

	// closers run in reverse: the log collector flushes through the producer before it closes
	app.AddCloser("postgres", pg.Close)
	if ch != nil {
		app.AddCloser("clickhouse", ch.Close)
	}
	if rdb != nil {
		app.AddCloser("redis", rdb.Close)
	}
	app.AddCloser("cache", c.Close)
	app.AddCloser("sale-processor", func() error { proc.Close(); return nil })
	if producer != nil {
		app.AddCloser("kafka-producer", producer.Close)
	}
	app.AddCloser("log-collector", func() error { logger.RemoveCollector(); return nil })
	return app
}
