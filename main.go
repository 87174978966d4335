package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hackconnect/auth"
	"hackconnect/blobstore"
	"hackconnect/chats"
	"hackconnect/config"
	"hackconnect/db"
	"hackconnect/docstore"
	"hackconnect/events"
	"hackconnect/logger"
	"hackconnect/metrics"
	"hackconnect/middleware"
	"hackconnect/mq"
	"hackconnect/ratelim"
	"hackconnect/rdx"
	"hackconnect/routes"
	"hackconnect/tickets"
	"hackconnect/users"

	"github.com/rs/cors"
	"github.com/spf13/pflag"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	envFile := pflag.String("env-file", ".env", "path to a .env file, ignored when missing")
	port := pflag.String("port", "", "listen port, overrides PORT")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Port = *port
	}

	log := logger.New(cfg.Env)
	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", logger.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]routes.Pinger{}

	// document store
	var (
		store    docstore.Store
		database *mongo.Database
	)
	switch cfg.StoreDriver {
	case "mongo":
		client, dbase, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return err
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(dctx); err != nil {
				log.Warn("mongo disconnect", logger.Err(err))
			}
		}()
		if err := db.EnsureIndexes(ctx, dbase); err != nil {
			return err
		}
		database = dbase
		store = docstore.NewMongo(dbase)
		checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	default:
		log.Warn("using in-memory document store; data is lost on restart")
		store = docstore.NewMemory()
	}

	// blob store
	var blobs blobstore.Store
	switch cfg.BlobDriver {
	case "gridfs":
		g, err := blobstore.NewGridFS(database, cfg.PublicBaseURL)
		if err != nil {
			return err
		}
		blobs = g
	case "memory":
		blobs = blobstore.NewMemory(cfg.PublicBaseURL)
	default:
		fs, err := blobstore.NewFS(cfg.BlobDir, cfg.PublicBaseURL)
		if err != nil {
			return err
		}
		blobs = fs
	}

	// notifications
	var pub mq.Publisher = mq.Nop{}
	if cfg.RedisAddr != "" {
		conn, err := rdx.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer conn.Close()
		pub = mq.NewRedis(conn)
		go mq.Listen(ctx, conn, log)
		checks["redis"] = func(ctx context.Context) error { return conn.Ping(ctx).Err() }
	} else {
		log.Info("REDIS_ADDR not set; ticket notifications disabled")
	}

	// chat assistant
	prompt, err := chats.DefaultPrompt()
	if err != nil {
		return err
	}
	bot := chats.NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey, prompt)
	hub := chats.NewHub()
	go hub.Run()

	m := metrics.New()
	limiter := ratelim.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx, time.Minute)
	scanLimiter := ratelim.NewRateLimiter(cfg.ScanRateLimitRPS, cfg.ScanRateLimitBurst)
	go scanLimiter.Run(ctx, time.Minute)

	if cfg.TicketSigningKey == "" {
		log.Warn("TICKET_SIGNING_KEY not set; tickets are signed with a plain SHA-256 digest")
	}
	ticketSvc := tickets.NewService(store, blobs, tickets.NewSigner(cfg.TicketSigningKey), pub, m, log)
	eventSvc := events.NewService(store, blobs, ticketSvc, log)
	staff := auth.NewStaff(cfg.StaffUsername, cfg.StaffPasswordHash, cfg.StaffJWTSecret, log)
	if !staff.Enabled() {
		log.Warn("STAFF_JWT_SECRET not set; manual check-in is open")
	}

	router := routes.New(routes.Deps{
		Events:      events.NewHandlers(eventSvc, log),
		Tickets:     tickets.NewHandlers(ticketSvc, eventSvc, log),
		Users:       users.NewHandlers(users.NewService(store, log), log),
		Chats:       chats.NewHandlers(bot, hub, log),
		Staff:       staff,
		Blobs:       blobs,
		Metrics:     m,
		Limiter:     limiter,
		ScanLimiter: scanLimiter,
		Checks:      checks,
		Log:         log,
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(middleware.Stack(router, log, cfg.RequestTimeout))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           corsHandler,
		ReadTimeout:       7 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		log.Info("shutting down chat hub")
		hub.Stop()
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", slog.String("addr", server.Addr), slog.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutdown signal received; shutting down gracefully")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped cleanly")
	return nil
}
