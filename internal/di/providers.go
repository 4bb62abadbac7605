package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"TradeScope/internal/analysts"
	"TradeScope/internal/collect"
	"TradeScope/internal/domain/repository"
	"TradeScope/internal/handler/api"
	internalrepo "TradeScope/internal/repository"
	"TradeScope/internal/strategy"
	"TradeScope/internal/usecase"
	pkgcache "TradeScope/pkg/cache"
	pkgch "TradeScope/pkg/clickhouse"
	"TradeScope/pkg/config"
	xhttp "TradeScope/pkg/http"
	pkgkafka "TradeScope/pkg/kafka"
	"TradeScope/pkg/logger"
	"TradeScope/pkg/metrics"
	"TradeScope/pkg/queue"
	"TradeScope/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisCache creates the Redis cache backing the result store and queue.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port: %w", err)
	}
	return pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
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
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
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

// ProvideMarketDataClient creates the shared provider REST client.
func ProvideMarketDataClient(cfg *config.Config, log *logger.Logger) *collect.Client {
	return collect.NewClient(&collect.Config{
		BaseURL:          cfg.MarketData.BaseURL,
		APIKey:           cfg.MarketData.APIKey,
		Timeout:          cfg.MarketData.Timeout,
		LookbackDays:     cfg.MarketData.LookbackDays,
		MemoTTL:          cfg.MarketData.MemoTTL,
		RateCapacity:     cfg.MarketData.RateCapacity,
		RateRefillPerSec: cfg.MarketData.RateRefillPerSec,
		WebsocketURL:     cfg.MarketData.WebSocketURL,
		QuoteWait:        cfg.MarketData.QuoteWait,
	}, log)
}

// ProvideCollectors assembles the full collector set; the orchestrator picks
// the applicable subset per mode.
func ProvideCollectors(client *collect.Client, log *logger.Logger) []repository.Collector {
	return []repository.Collector{
		collect.NewPriceHistory(client),
		collect.NewTechnicals(client),
		collect.NewFundamentals(client),
		collect.NewNews(client),
		collect.NewStatements(client),
		collect.NewQuoteStream(client, log),
	}
}

// ProvideAgents assembles the full analyst set.
func ProvideAgents() []repository.Agent {
	return []repository.Agent{
		analysts.NewTechnicalAnalyst(),
		analysts.NewFundamentalAnalyst(),
		analysts.NewSentimentAnalyst(),
		analysts.NewRiskAnalyst(),
	}
}

// ProvideStrategyStore loads rule and risk configuration from disk.
func ProvideStrategyStore(cfg *config.Config) (*strategy.Store, error) {
	return strategy.NewStore(cfg.Strategy.Path, cfg.Strategy.RiskPath)
}

// ProvideResultStore creates the result store over a layered cache so repeat
// cached reads are served from the in-process layer.
func ProvideResultStore(cfg *config.Config, c *pkgcache.RedisCache) repository.ResultStore {
	return internalrepo.NewRedisResultStore(pkgcache.NewLayeredCache(c), cfg.Results.TTL)
}

// ProvideRunArchive creates the ClickHouse run archive, or nil when disabled.
func ProvideRunArchive(chClient *pkgch.Client, log *logger.Logger) repository.RunArchive {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewCHRunArchive(chClient, log)
}

// ProvideDecisionPublisher creates the Kafka decision publisher, or nil when disabled.
func ProvideDecisionPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.DecisionPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaDecisionPublisher(producer, cfg.Kafka.Topic)
}

// ProvideQueue creates the background job queue. The archive job is only
// registered when an archive backend exists; otherwise the queue runs
// producer-only and terminal runs are dropped after logging.
func ProvideQueue(
	cfg *config.Config,
	c *pkgcache.RedisCache,
	archive repository.RunArchive,
	publisher repository.DecisionPublisher,
	log *logger.Logger,
) *queue.RedisQueue {
	qcfg := &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}
	mode := queue.ModeProducerConsumer
	if archive == nil {
		mode = queue.ModeProducerOnly
	}
	q := queue.NewRedisQueue(log, qcfg, c.Client(), mode, queue.WithKeyPrefix("tradescope:queue"))
	if archive != nil {
		q.RegisterJob(internalrepo.NewArchiveJob(archive, publisher, log))
	}
	return q
}

// ProvideRunRecorder hands terminal runs to the queue.
func ProvideRunRecorder(q *queue.RedisQueue, log *logger.Logger) usecase.RunRecorder {
	return internalrepo.NewQueuedRunRecorder(q, log)
}

// ProvideStepExecutor creates the step phase executor.
func ProvideStepExecutor(collectors []repository.Collector, m repository.Metrics, log *logger.Logger) *usecase.StepExecutor {
	return usecase.NewStepExecutor(collectors, m, log)
}

// ProvideAgentCoordinator creates the agent phase coordinator.
func ProvideAgentCoordinator(agents []repository.Agent, m repository.Metrics, log *logger.Logger) *usecase.AgentCoordinator {
	return usecase.NewAgentCoordinator(agents, m, log)
}

// ProvideSynthesizer creates the decision synthesizer.
func ProvideSynthesizer(store *strategy.Store) *usecase.Synthesizer {
	return usecase.NewSynthesizer(store)
}

// ProvideOrchestrator creates the run orchestrator.
func ProvideOrchestrator(
	steps *usecase.StepExecutor,
	agents *usecase.AgentCoordinator,
	synth *usecase.Synthesizer,
	results repository.ResultStore,
	recorder usecase.RunRecorder,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.Orchestrator {
	return usecase.NewOrchestrator(steps, agents, synth, results, recorder, m, log)
}

// ProvideHandlers assembles the HTTP route registrars.
func ProvideHandlers(
	log *logger.Logger,
	orch *usecase.Orchestrator,
	results repository.ResultStore,
	m repository.Metrics,
	store *strategy.Store,
) []xhttp.Handler {
	return []xhttp.Handler{
		api.NewAnalysisHandler(log, orch, results, m),
		api.NewStrategyHandler(log, store),
	}
}

// kafkaLogSink adapts the Kafka producer to the log collector's publisher.
type kafkaLogSink struct {
	producer *pkgkafka.Producer
}

func (s *kafkaLogSink) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return s.producer.Publish(ctx, topic, nil, payload)
}

// ProvideApp creates the application server. When Kafka is available the
// logger additionally ships aggregated error logs to a log topic.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	handlers []xhttp.Handler,
	q *queue.RedisQueue,
	archive repository.RunArchive,
	publisher repository.DecisionPublisher,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
) *server.App {
	if producer != nil {
		log.AddCollector(&logger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.Topic + ".logs",
			Publisher:      &kafkaLogSink{producer: producer},
		})
	}
	return server.New(cfg, log, handlers, q, archive, publisher, chClient)
}
