package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"nonconf/internal/cache"
	"nonconf/internal/feed"
	"nonconf/internal/mailer"
	"nonconf/internal/notification"
	"nonconf/internal/outbox"
	"nonconf/internal/platform/config"
	"nonconf/internal/platform/httpserver"
	"nonconf/internal/platform/logger"
	platformmetrics "nonconf/internal/platform/metrics"
	"nonconf/internal/platform/postgres"
	platformredis "nonconf/internal/platform/redis"
	"nonconf/internal/rnc/handler"
	rncmetrics "nonconf/internal/rnc/metrics"
	"nonconf/internal/rnc/service"
	contactstore "nonconf/internal/rnc/store/contact"
	eventstore "nonconf/internal/rnc/store/event"
	productstore "nonconf/internal/rnc/store/product"
	recordstore "nonconf/internal/rnc/store/record"
	transitionstore "nonconf/internal/rnc/store/transition"
	id "nonconf/pkg/domain"
	"nonconf/pkg/platform/middleware/auth"
	"nonconf/pkg/platform/middleware/requestid"
	"nonconf/pkg/platform/middleware/requestlog"
	"nonconf/pkg/platform/middleware/requesttime"
)

// main wires dependencies and keeps the process lifecycle small. Business
// logic lives in the internal service packages. Postgres, Redis, and Kafka
// are all optional: without them the process runs on in-memory stores, which
// is the local development mode.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores := service.Stores{}
	var svcOpts []service.Option
	var outboxStore outbox.Store

	if cfg.PostgresURL != "" {
		db, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.ApplySchema(ctx, db); err != nil {
			log.Error("schema apply failed", "error", err)
			os.Exit(1)
		}
		stores.Records = recordstore.NewPostgres(db)
		stores.Products = productstore.NewPostgres(db)
		stores.Contacts = contactstore.NewPostgres(db)
		stores.Events = eventstore.NewPostgres(db)
		stores.Transitions = transitionstore.NewPostgres(db)
		stores.Notifications = notification.NewPostgres(db)
		outboxStore = outbox.NewPostgres(db)
		svcOpts = append(svcOpts, service.WithDB(db))
	} else {
		log.Warn("no postgres url configured, using in-memory stores")
		stores.Records = recordstore.NewInMemory()
		stores.Products = productstore.NewInMemory()
		stores.Contacts = contactstore.NewInMemory()
		stores.Events = eventstore.NewInMemory()
		stores.Transitions = transitionstore.NewInMemory()
		stores.Notifications = notification.NewInMemory()
		outboxStore = outbox.NewInMemory()
	}
	svcOpts = append(svcOpts, service.WithOutbox(outboxStore))

	var changeFeed feed.Feed = feed.NewInMemory()
	var listCache cache.Cache = cache.NewInMemory()
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		changeFeed = feed.NewRedis(redisClient.Client, log)
		listCache = cache.NewRedis(redisClient.Client)
	} else {
		log.Warn("no redis url configured, using in-memory cache and feed")
	}
	svcOpts = append(svcOpts, service.WithCache(listCache, cfg.ListCacheTTL))
	svcOpts = append(svcOpts, service.WithMetrics(rncmetrics.New()))

	dispatcher := notification.NewDispatcher(stores.Notifications, log)
	svc, err := service.New(stores, dispatcher, changeFeed, log, svcOpts...)
	if err != nil {
		log.Error("service wiring failed", "error", err)
		os.Exit(1)
	}

	router := chi.NewRouter()
	router.Use(requestid.Middleware)
	router.Use(requesttime.Middleware)
	router.Use(requestlog.Middleware(log, platformmetrics.New()))
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	watcher := feed.NewReconciler(changeFeed, svc.AggregateLoader(), log)
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(auth.NewJWTVerifier(cfg.JWTSigningKey), log))
		handler.New(svc, watcher, log).Register(r)
		notification.NewHandler(stores.Notifications).Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)
	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting nonconf server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	var outboundMailer mailer.Mailer = mailer.NewLog(log)
	if cfg.SMTPAddr != "" {
		outboundMailer = mailer.NewSMTP(cfg.SMTPAddr, nil)
	}
	worker := notification.NewWorker(stores.Notifications, outboundMailer,
		notification.NewStaticDirectory(map[id.UserID]string{}, "localhost"), log, cfg.MailFrom)
	group.Go(func() error { return worker.Run(gctx) })

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := outbox.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka producer setup failed", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		relay := outbox.NewRelay(outboxStore, producer, log)
		group.Go(func() error { return relay.Run(gctx) })
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
}
