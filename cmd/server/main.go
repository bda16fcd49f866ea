package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	agendahandler "votacao/internal/agenda/handler"
	agendaservice "votacao/internal/agenda/service"
	agendastore "votacao/internal/agenda/store"
	eligibilityclient "votacao/internal/eligibility/client"
	eligibilityhandler "votacao/internal/eligibility/handler"
	eligibilitymetrics "votacao/internal/eligibility/metrics"
	eligibilitymodels "votacao/internal/eligibility/models"
	eligibilityservice "votacao/internal/eligibility/service"
	"votacao/internal/platform/config"
	"votacao/internal/platform/httpserver"
	"votacao/internal/platform/kafka"
	"votacao/internal/platform/logger"
	"votacao/internal/platform/metrics"
	"votacao/internal/platform/otel"
	"votacao/internal/platform/postgres"
	"votacao/internal/platform/redis"
	ratelimitmetrics "votacao/internal/ratelimit/metrics"
	ratelimitmw "votacao/internal/ratelimit/middleware"
	ratelimitstore "votacao/internal/ratelimit/store"
	sessionhandler "votacao/internal/session/handler"
	sessionmetrics "votacao/internal/session/metrics"
	sessionservice "votacao/internal/session/service"
	sessionstore "votacao/internal/session/store"
	httptransport "votacao/internal/transport/http"
	"votacao/internal/voting/broadcast"
	"votacao/internal/voting/events"
	votinghandler "votacao/internal/voting/handler"
	votingmetrics "votacao/internal/voting/metrics"
	votingservice "votacao/internal/voting/service"
	votingstore "votacao/internal/voting/store"
	"votacao/internal/voting/tally"
	"votacao/pkg/platform/clock"
	"votacao/pkg/platform/privacy"
	"votacao/pkg/platform/resilience"
)

const rateLimitSweepInterval = time.Minute

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// infra holds the optional backing services. Nil members select the
// in-memory variant of whatever would have used them.
type infra struct {
	db    *sql.DB
	redis *redis.Client
	kafka *kgo.Client
}

func (i *infra) close() {
	if i.kafka != nil {
		i.kafka.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
}

func connect(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	in := &infra{}
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if db != nil {
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("postgres ready")
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}
	in.db = db

	in.redis, err = redis.New(ctx, cfg.Redis)
	if err != nil {
		in.close()
		return nil, err
	}
	if in.redis == nil {
		log.Warn("REDIS_URL not set, using in-memory tally cache and rate limiter")
	}

	in.kafka, err = kafka.NewProducer(ctx, cfg.Kafka, log)
	if err != nil {
		in.close()
		return nil, err
	}
	return in, nil
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	shutdownTracing, err := otel.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	in, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer in.close()

	sysClock := clock.System{}
	platformMetrics := metrics.New()
	hasher := privacy.NewHasher(cfg.Privacy.VoterHashKey)
	storagePolicy := cfg.Storage.Resilience.ToResilience()
	storagePipeline := func(name string) *resilience.Standard {
		return resilience.NewStorage(name, storagePolicy,
			resilience.WithBreakerStateChange(platformMetrics.ObserveBreaker))
	}

	// Stores
	var (
		agendas  agendastore.Store  = agendastore.NewInMemory()
		sessions sessionstore.Store = sessionstore.NewInMemory()
		votes    votingstore.Store  = votingstore.NewInMemory()
		cache    tally.Cache        = tally.NewMemory()
	)
	if in.db != nil {
		agendas = agendastore.NewResilient(agendastore.NewPostgres(in.db), storagePipeline("agendas"))
		sessions = sessionstore.NewResilient(sessionstore.NewPostgres(in.db), storagePipeline("sessions"))
		votes = votingstore.NewResilient(votingstore.NewPostgres(in.db), storagePipeline("votes"))
	}
	var (
		limits       ratelimitstore.Store
		memoryLimits *ratelimitstore.InMemoryStore
	)
	if in.redis != nil {
		cache = tally.NewResilient(tally.NewRedis(in.redis.Client), storagePipeline("tally"))
		limits = ratelimitstore.NewRedis(in.redis.Client, sysClock)
	} else {
		memoryLimits = ratelimitstore.NewInMemory(sysClock)
		limits = memoryLimits
	}

	// Eligibility
	mode, err := eligibilitymodels.ParseMode(cfg.Eligibility.Mode)
	if err != nil {
		return err
	}
	var (
		authority eligibilityservice.Client
		pipeline  *resilience.Pipeline
	)
	if mode == eligibilitymodels.ModeStrict {
		httpClient, err := eligibilityclient.New(cfg.Eligibility.URL, cfg.Eligibility.ConnectTimeout)
		if err != nil {
			return err
		}
		authority = httpClient
		pipeline = eligibilityservice.NewPipeline(cfg.Eligibility.Resilience.ToResilience(),
			resilience.WithBreakerStateChange(platformMetrics.ObserveBreaker)).Pipeline
	}
	checker, err := eligibilityservice.New(mode, authority, pipeline,
		eligibilityservice.WithLogger(log),
		eligibilityservice.WithMetrics(eligibilitymetrics.New()),
		eligibilityservice.WithHasher(hasher),
	)
	if err != nil {
		return err
	}
	log.Info("eligibility configured", "mode", string(checker.Mode()))

	// Services
	agendaSvc, err := agendaservice.New(agendas,
		agendaservice.WithLogger(log),
		agendaservice.WithClock(sysClock),
	)
	if err != nil {
		return err
	}
	sessionSvc, err := sessionservice.New(sessions, agendas,
		sessionservice.WithLogger(log),
		sessionservice.WithClock(sysClock),
		sessionservice.WithMetrics(sessionmetrics.New()),
		sessionservice.WithTallySeeder(cache),
	)
	if err != nil {
		return err
	}
	votingMetrics := votingmetrics.New()
	votingSvc, err := votingservice.New(checker, sessionSvc, votes, cache,
		votingservice.WithLogger(log),
		votingservice.WithClock(sysClock),
		votingservice.WithMetrics(votingMetrics),
		votingservice.WithHasher(hasher),
	)
	if err != nil {
		return err
	}
	broadcaster, err := broadcast.New(votingSvc,
		broadcast.WithLogger(log),
		broadcast.WithClock(sysClock),
		broadcast.WithMetrics(votingMetrics),
	)
	if err != nil {
		return err
	}
	publishers := events.Multi{broadcaster}
	if in.kafka != nil {
		kafkaPub, err := events.NewKafka(in.kafka, cfg.Kafka.Topic,
			events.WithLogger(log),
			events.WithMetrics(votingMetrics),
			events.WithHasher(hasher),
		)
		if err != nil {
			return err
		}
		publishers = append(publishers, kafkaPub)
	}
	votingSvc.SetPublisher(publishers)

	if err := votingSvc.Warm(ctx); err != nil {
		// results fall back to the vote store until reconciled
		log.Warn("tally warm-up failed", "error", err)
	}

	// HTTP
	limiter := ratelimitmw.New(limits, cfg.RateLimit.Votes, cfg.RateLimit.Window, log,
		ratelimitmw.WithDisabled(cfg.RateLimit.Disabled),
		ratelimitmw.WithMetrics(ratelimitmetrics.New()),
	)
	registrars := []httptransport.Registrar{
		agendahandler.New(agendaSvc, log),
		sessionhandler.New(sessionSvc, log),
		votinghandler.New(votingSvc, broadcaster, log, votinghandler.WithVoteLimiter(limiter.Limit)),
	}
	if cfg.Server.ServeMockAuthority {
		registrars = append(registrars, eligibilityhandler.NewAuthority(cfg.Eligibility.StrictChecksum, log))
	}
	routerOpts := []httptransport.Option{httptransport.WithMetrics(platformMetrics)}
	if in.db != nil {
		routerOpts = append(routerOpts, httptransport.WithHealthCheck("postgres", in.db.PingContext))
	}
	if in.redis != nil {
		routerOpts = append(routerOpts, httptransport.WithHealthCheck("redis", in.redis.Health))
	}
	srv := httpserver.New(cfg.Server.Addr, httptransport.NewRouter(log, registrars, routerOpts...))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting votacao", "addr", cfg.Server.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if memoryLimits != nil {
		g.Go(func() error {
			ticker := time.NewTicker(rateLimitSweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					memoryLimits.Sweep()
				}
			}
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		// streams end first so Shutdown does not wait on them
		broadcaster.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		if in.kafka != nil {
			if err := in.kafka.Flush(shutdownCtx); err != nil {
				log.Warn("kafka flush incomplete", "error", err)
			}
		}
		return nil
	})
	return g.Wait()
}
