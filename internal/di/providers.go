package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"GeoPulse/internal/domain/repository"
	"GeoPulse/internal/domain/service"
	"GeoPulse/internal/handler/api"
	mid "GeoPulse/internal/middleware"
	internalrepo "GeoPulse/internal/repository"
	"GeoPulse/internal/scheduler"
	"GeoPulse/internal/service/cast"
	"GeoPulse/internal/service/newstone"
	"GeoPulse/internal/service/predmarket"
	"GeoPulse/internal/service/quotes"
	"GeoPulse/internal/service/radar"
	"GeoPulse/internal/service/ratelimit"
	"GeoPulse/internal/service/trends"
	"GeoPulse/internal/store"
	"GeoPulse/internal/usecase"
	"GeoPulse/pkg/cache"
	pkgch "GeoPulse/pkg/clickhouse"
	"GeoPulse/pkg/config"
	xhttp "GeoPulse/pkg/http"
	pkgkafka "GeoPulse/pkg/kafka"
	applogger "GeoPulse/pkg/logger"
	"GeoPulse/pkg/metrics"
	"GeoPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	format := "json"
	if cfg.Environment == "development" {
		level = "debug"
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and initializes
// the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := append(
		[]string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database},
		internalrepo.SchemaStatements(cfg.ClickHouse.ObservationsTable, cfg.ClickHouse.ScoresTable)...,
	)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideHistoryStore creates the ClickHouse-backed history store.
func ProvideHistoryStore(chClient *pkgch.Client, cfg *config.Config) repository.HistoryStore {
	return internalrepo.NewClickHouseHistory(chClient.DB(),
		cfg.ClickHouse.ObservationsTable, cfg.ClickHouse.ScoresTable)
}

// ProvidePublisher creates the Kafka publisher when the kafka backend
// is configured, nil otherwise.
func ProvidePublisher(cfg *config.Config) (repository.Publisher, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideKafkaConsumer creates the observation consumer for the kafka
// backend, nil otherwise.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != "kafka" {
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
	return consumer, nil
}

// ProvideKafkaObservationsHandler sinks consumed observations into
// history storage. Nil when the kafka backend is off.
func ProvideKafkaObservationsHandler(history repository.HistoryStore, m repository.Metrics, cfg *config.Config) pkgkafka.MessageHandler {
	if cfg.Backend.Type != "kafka" {
		return nil
	}
	return usecase.NewKafkaObservationsHandler(cfg.Kafka.Topic, history, m)
}

// ProvideCache creates the baseline cache: layered over Redis when
// configured, in-process memory otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Cache.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	host, portStr, err := net.SplitHostPort(cfg.Cache.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port: %w", err)
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPrefix("geopulse"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(rc), nil
}

// ProvideHTTPClient creates the shared outbound HTTP client.
func ProvideHTTPClient() *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(20 * time.Second))
}

// ProvideStore creates the in-memory snapshot store.
func ProvideStore() *store.Store {
	return store.New()
}

// ProvideSnapshotReader exposes the store to the HTTP layer.
func ProvideSnapshotReader(st *store.Store) service.SnapshotReader {
	return st
}

// ProvideRecorder creates the observation recorder for the configured
// backend.
func ProvideRecorder(pub repository.Publisher, history repository.HistoryStore, m repository.Metrics, cfg *config.Config) *usecase.ObservationRecorder {
	return usecase.NewObservationRecorder(pub, history, m, cfg.Backend.Type)
}

// ProvideMarketSource creates the prediction-market REST source.
func ProvideMarketSource(httpc *xhttp.Client, cfg *config.Config) repository.PredictionMarketSource {
	return predmarket.New(httpc, cfg.PredMarket.BaseURL)
}

// ProvideContractStream creates the live price stream, nil when
// disabled.
func ProvideContractStream(cfg *config.Config) repository.ContractStream {
	if !cfg.PredMarket.StreamEnabled {
		return nil
	}
	return predmarket.NewStream(cfg.PredMarket.WebSocketURL,
		cfg.PredMarket.ReconnectDelay, cfg.PredMarket.PingInterval)
}

// ProvideMarketRefresher creates the market scoring cycle; the live
// stream tracks each cycle's contract set.
func ProvideMarketRefresher(
	source repository.PredictionMarketSource,
	rec *usecase.ObservationRecorder,
	history repository.HistoryStore,
	c cache.Service,
	log *applogger.Logger,
	m repository.Metrics,
	stream repository.ContractStream,
) *usecase.MarketRefresher {
	r := usecase.NewMarketRefresher(source, rec, history, c, log, m)
	if t, ok := stream.(usecase.ContractTracker); ok {
		r.SetTracker(t)
	}
	return r
}

// ProvideFinancialSource creates the quote source from the configured
// instrument set.
func ProvideFinancialSource(httpc *xhttp.Client, cfg *config.Config, log *applogger.Logger) repository.FinancialSource {
	instruments := make([]quotes.Instrument, 0, len(cfg.Quotes.Instruments))
	for _, i := range cfg.Quotes.Instruments {
		instruments = append(instruments, quotes.Instrument{
			Ticker:   i.Ticker,
			Name:     i.Name,
			Kind:     i.Kind,
			Region:   i.Region,
			Inverted: i.Inverted,
		})
	}
	return quotes.New(httpc, cfg.Quotes.BaseURL, instruments, log)
}

// ProvideFinancialRefresher creates the financial scoring cycle.
func ProvideFinancialRefresher(source repository.FinancialSource, rec *usecase.ObservationRecorder, log *applogger.Logger, m repository.Metrics) *usecase.FinancialRefresher {
	return usecase.NewFinancialRefresher(source, rec, log, m)
}

// ProvideGroundSource creates the search-interest source with batch
// pacing.
func ProvideGroundSource(httpc *xhttp.Client, cfg *config.Config, log *applogger.Logger) repository.GroundSignalSource {
	return trends.New(httpc, cfg.Trends.BaseURL, ratelimit.New(), log)
}

// ProvideGroundRefresher creates the ground signal cycle over the
// built-in term vocabularies.
func ProvideGroundRefresher(source repository.GroundSignalSource, st *store.Store, log *applogger.Logger, m repository.Metrics) *usecase.GroundRefresher {
	return usecase.NewGroundRefresher(source, st, log, m, trends.WideTerms(), trends.PanicTerms())
}

// ProvideNarrativeRefresher creates the news-tone cycle.
func ProvideNarrativeRefresher(httpc *xhttp.Client, cfg *config.Config, st *store.Store, log *applogger.Logger, m repository.Metrics) *usecase.NarrativeRefresher {
	return usecase.NewNarrativeRefresher(newstone.New(httpc, cfg.NewsTone.BaseURL), st, log, m)
}

// ProvideConnectivityRefresher creates the connectivity cycle.
func ProvideConnectivityRefresher(httpc *xhttp.Client, cfg *config.Config, st *store.Store, log *applogger.Logger, m repository.Metrics) *usecase.ConnectivityRefresher {
	return usecase.NewConnectivityRefresher(radar.New(httpc, cfg.Radar.BaseURL, cfg.Radar.Token), st, log, m)
}

// ProvideSupplementalRefresher creates the forecast cycle.
func ProvideSupplementalRefresher(httpc *xhttp.Client, cfg *config.Config, st *store.Store, log *applogger.Logger, m repository.Metrics) *usecase.SupplementalRefresher {
	return usecase.NewSupplementalRefresher(cast.New(httpc, cfg.Cast.BaseURL, cfg.Cast.APIKey), st, log, m)
}

// ProvideSnapshotBuilder creates the snapshot rebuild path.
func ProvideSnapshotBuilder(
	market *usecase.MarketRefresher,
	financial *usecase.FinancialRefresher,
	st *store.Store,
	history repository.HistoryStore,
	log *applogger.Logger,
	m repository.Metrics,
) *usecase.SnapshotBuilder {
	return usecase.NewSnapshotBuilder(market, financial, st, history, log, m)
}

// ProvideRefresher exposes the builder to the HTTP layer.
func ProvideRefresher(b *usecase.SnapshotBuilder) service.Refresher {
	return b
}

// ProvideScheduler registers every refresh task with staggered first
// runs so external sources are not hit in a burst at boot.
func ProvideScheduler(
	cfg *config.Config,
	log *applogger.Logger,
	m repository.Metrics,
	builder *usecase.SnapshotBuilder,
	ground *usecase.GroundRefresher,
	narrative *usecase.NarrativeRefresher,
	connectivity *usecase.ConnectivityRefresher,
	supplemental *usecase.SupplementalRefresher,
	st *store.Store,
) *scheduler.Scheduler {
	s := scheduler.New(log, m)
	s.Register(&scheduler.Task{
		Name:     "snapshot",
		Interval: cfg.Scoring.SnapshotInterval,
		Run:      builder.Rebuild,
	})
	s.Register(&scheduler.Task{
		Name:       "ground",
		StartDelay: 10 * time.Second,
		Interval:   cfg.Trends.Interval,
		Run:        ground.Refresh,
	})
	s.Register(&scheduler.Task{
		Name:       "narrative",
		StartDelay: 30 * time.Second,
		Interval:   cfg.NewsTone.Interval,
		Run:        narrative.Refresh,
	})
	s.Register(&scheduler.Task{
		Name:       "connectivity",
		StartDelay: 50 * time.Second,
		Interval:   cfg.Radar.Interval,
		Run:        connectivity.Refresh,
	})
	s.Register(&scheduler.Task{
		Name:       "forecast",
		StartDelay: 70 * time.Second,
		Interval:   cfg.Cast.Interval,
		Run:        supplemental.Refresh,
	})

	wd := scheduler.NewWatchdog(st, builder, log, m)
	wd.MaxAge = cfg.Scoring.WatchdogMaxAge
	s.Register(wd.Task())

	return s
}

// ProvideCollector creates the live stream collector, nil when the
// stream is disabled.
func ProvideCollector(stream repository.ContractStream, rec *usecase.ObservationRecorder, m repository.Metrics) *usecase.ContractCollector {
	if stream == nil {
		return nil
	}
	pipe := mid.NewObservationPipeline(rec, m,
		mid.WithMaxRPS(4),
		mid.WithBufferSize(1000),
	)
	return usecase.NewContractCollector(stream, rec, m, pipe)
}

// ProvideHTTPHandler creates the scores API handler.
func ProvideHTTPHandler(
	log *applogger.Logger,
	snapshots service.SnapshotReader,
	refresher service.Refresher,
	history repository.HistoryStore,
) xhttp.Handler {
	return api.NewScoresEchoHandler(log, snapshots, refresher, history)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	builder *usecase.SnapshotBuilder,
	sched *scheduler.Scheduler,
	collector *usecase.ContractCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	handler xhttp.Handler,
	rec *usecase.ObservationRecorder,
) *server.App {
	if consumer != nil && kh != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, log, builder, sched, collector, consumer, kh, chClient, handler)
	app.Rec = rec
	return app
}
