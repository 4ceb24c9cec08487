package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/sirupsen/logrus"

	"videosummary/config"
	"videosummary/handlers"
	"videosummary/internal/aiclient"
	"videosummary/internal/chat"
	"videosummary/internal/db"
	"videosummary/internal/health"
	"videosummary/internal/httpclient"
	"videosummary/internal/jobs"
	"videosummary/internal/notify"
	"videosummary/internal/resolver"
	"videosummary/internal/service"
	"videosummary/internal/session"
	"videosummary/internal/share"
	"videosummary/internal/summary"
	"videosummary/internal/transcript"
	"videosummary/internal/translator"
	"videosummary/internal/upload"
	"videosummary/internal/worker"
	"videosummary/middleware"
	"videosummary/models"
	"videosummary/utils"
)

const (
	upstreamTimeout = 30 * time.Second
	checkTimeout    = 10 * time.Second
	persistQueue    = 256
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	log := config.InitLogger(cfg.LogLevel)

	store, err := newStore(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize session store")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := worker.NewDispatcher(cfg.PersistWorkers, persistQueue, log.WithField("component", "worker"))
	dispatcher.Run(ctx)

	svc, err := newService(cfg, store, dispatcher, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize service")
	}

	h := handlers.NewApplicationHandler(svc, svc.Shares, httpclient.NewPooledClient(0), log.WithField("component", "http"))
	app := fiber.New(fiber.Config{
		ErrorHandler:          utils.ErrorHandler,
		BodyLimit:             int(cfg.UploadMaxBytes) + 1<<20,
		DisableStartupMessage: true,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Range",
	}))
	app.Use(middleware.RequestLogger(log))
	h.Register(app)

	hs := health.NewServer(log.WithField("component", "health"))
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.WithError(err).Fatal("Failed to listen for gRPC health")
	}
	go func() {
		if err := hs.Serve(lis); err != nil {
			log.WithError(err).Error("gRPC health server stopped")
		}
	}()

	go func() {
		log.WithField("port", cfg.Port).Info("Starting videosummary API")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()
	hs.SetServing(true)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down videosummary...")
	hs.SetServing(false)
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.WithError(err).Warn("HTTP shutdown did not complete")
	}
	// Queued session saves are flushed before the process exits.
	dispatcher.Stop()

	stopCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	hs.Stop(stopCtx)
	log.Info("videosummary shut down gracefully.")
}

func newStore(cfg config.Config, log logrus.FieldLogger) (db.SessionStore, error) {
	if !cfg.UsesSupabase() {
		log.Warn("SUPABASE_URL/SUPABASE_SERVICE_KEY not set, sessions are kept in memory")
		return db.NewMemoryStore(), nil
	}
	client, err := config.NewSupabaseClient(cfg)
	if err != nil {
		return nil, err
	}
	log.Info("Supabase client initialized successfully.")
	return db.NewSupabaseStore(client, cfg.SessionTable, log.WithField("component", "db")), nil
}

func newService(cfg config.Config, store db.SessionStore, jobQueue service.Submitter, log *logrus.Logger) (*service.Service, error) {
	limited := &httpclient.LimitedClient{
		Client:  httpclient.NewPooledClient(upstreamTimeout),
		Limiter: httpclient.NewHostRateLimiter(cfg.UpstreamRPS, int(cfg.UpstreamRPS)),
	}
	up := resolver.Upstream{BaseURL: cfg.APIURL, APIKey: cfg.APIKey, Client: limited, Logger: log.WithField("component", "resolver")}
	checker := resolver.NewChecker(httpclient.NewPooledClient(0), checkTimeout)
	registry := resolver.NewRegistry(
		resolver.NewDouyinResolver(up, checker),
		resolver.NewTikTokResolver(up, checker),
		resolver.NewYouTubeResolver(up, checker),
		resolver.NewGenericResolver(models.PlatformBilibili, up, checker),
		resolver.NewGenericResolver(models.PlatformXiaohongshu, up, checker),
		resolver.DirectResolver{},
	)

	sessions, err := session.NewManager(store, cfg.ActiveSessions, log.WithField("component", "session"))
	if err != nil {
		return nil, err
	}
	gen := aiclient.NewAIClient(cfg.APIURL, cfg.APIKey, cfg.ModelName, log.WithField("component", "aiclient"))

	return service.New(service.Deps{
		Sessions:    sessions,
		Store:       store,
		Resolvers:   registry,
		Revalidator: resolver.NewRevalidator(registry, cfg.LivenessRetries, cfg.LivenessDelay, log.WithField("component", "liveness")),
		Transcripts: transcript.NewClient(cfg.APIURL, cfg.APIKey, limited, cfg.TranscriptCacheTTL, log.WithField("component", "transcript")),
		Translator:  translator.New(cfg.APIURL, cfg.APIKey, limited, cfg.TranslateBatchSize, cfg.TranslateConcurrency, log.WithField("component", "translator")),
		Summaries:   summary.NewPipeline(gen, log.WithField("component", "summary")),
		Chat:        chat.NewOrchestrator(gen, chat.DefaultWelcome, log.WithField("component", "chat")),
		Shares:      share.NewStore(cfg.ShareDir, log.WithField("component", "share")),
		Uploads:     upload.NewClient(cfg.UploadAPIURL, cfg.UploadMaxBytes, httpclient.NewPooledClient(upstreamTimeout), log.WithField("component", "upload")),
		Notifier:    notify.NewRecorder(0, log.WithField("component", "notify")),
		Jobs:        jobQueue,
		Sequencer:   jobs.NewSequencer(jobs.DefaultSequencerSize),
		Logger:      log.WithField("component", "service"),
	}), nil
}
