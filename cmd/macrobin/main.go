package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"macrobin/cfg"
	"macrobin/pkg/seal"
	"macrobin/svc/api"
	"macrobin/svc/attach"
	"macrobin/svc/db"
	"macrobin/svc/expire"
	"macrobin/svc/lim"
	"macrobin/svc/slug"
	"macrobin/svc/store"
	"macrobin/svc/svc"
	"macrobin/svc/util"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		util.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.Validate(c); err != nil {
		util.Fatal().Err(err).Msg("invalid configuration")
	}
	defer c.Wipe()
	util.InitLog(c.LogLevel, c.Environment == "development")
	util.Info().Str("environment", c.Environment).Msg("starting macrobin")

	if err := os.MkdirAll(c.DataDir, 0o700); err != nil {
		util.Fatal().Err(err).Str("dir", c.DataDir).Msg("failed to create data directory")
	}

	sqlDB, err := db.NewSQLiteWithConfig(c.DatabasePath, c.DBMaxOpenConns, c.DBMaxIdleConns, c.DBQueryTimeout)
	if err != nil {
		util.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer sqlDB.Close()
	util.Info().Str("path", c.DatabasePath).Msg("database initialized")

	loadCtx, loadCancel := context.WithTimeout(context.Background(), 30*time.Second)
	seed, err := sqlDB.LoadAll(loadCtx)
	loadCancel()
	if err != nil {
		util.Fatal().Err(err).Msg("failed to load existing pastas")
	}
	st := store.NewCoordinator(sqlDB, seed)
	util.Info().Int("pastas", st.Len()).Msg("store warmed from database")

	// Resolver construction fails on an unknown default token, so a
	// deployment typo surfaces here and not on the first bad request.
	resolver, err := expire.New(c.DefaultExpiry, c.EternalPasta)
	if err != nil {
		util.Fatal().Err(err).Msg("invalid default expiry")
	}
	codec, err := slug.New(c.SlugScheme, c.SlugSalt)
	if err != nil {
		util.Fatal().Err(err).Msg("invalid slug scheme")
	}

	creator := svc.NewCreator(c, st, attach.NewWriter(c.DataDir), seal.NewAEAD(), codec, resolver)

	limiter := lim.New(c.RateLimit.RPM, c.RateLimit.Burst, c.TrustedProxies)
	util.Info().
		Int("rpm", c.RateLimit.RPM).
		Int("burst", c.RateLimit.Burst).
		Strs("trusted_proxies", c.TrustedProxies).
		Msg("rate limiter initialized")

	server := api.NewServer(c, creator, limiter, sqlDB)

	quitWAL := make(chan struct{})
	go db.StartWALMaintenance(sqlDB.DB(), quitWAL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		util.Info().Msg("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		close(quitWAL)
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		util.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
	util.Info().Msg("shutdown complete")
}
