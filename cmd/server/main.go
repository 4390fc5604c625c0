package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/duetchat/duet/internal/adapters/http"
	wssignal "github.com/duetchat/duet/internal/adapters/signal"
	"github.com/duetchat/duet/internal/app"
	"github.com/duetchat/duet/internal/auth"
	"github.com/duetchat/duet/internal/config"
	"github.com/duetchat/duet/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}

	verifier := auth.NewJWTVerifier(auth.Options{
		Secret:   []byte(cfg.Secret),
		Alg:      "HS256",
		GuestTTL: cfg.GuestTTL,
	})

	registry := app.NewRegistry()
	queue := app.NewQueue()
	matchmaker := app.NewMatchmaker(queue, registry, cfg.MatchInterval)
	relay := app.NewRelay(registry, verifier, st, matchmaker, cfg.MissedWindow)

	go matchmaker.Run(ctx)

	ctl := wssignal.NewController(relay, cfg.ReadLimit, cfg.PingPeriod, cfg.AuthBurst, cfg.AuthWindow)
	r := router.SetupRouter(ctx, cfg, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("duet gateway started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.MongoURI == "" {
		log.Warn().Msg("no mongo_uri configured, using in-memory store")
		return store.NewMemory(), nil
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	m, err := store.OpenMongo(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, err
	}
	log.Info().Str("database", cfg.MongoDatabase).Msg("connected to mongo")
	return m, nil
}
