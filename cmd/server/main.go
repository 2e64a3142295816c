package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nadmax/taskpulse/internal/advisor"
	"github.com/nadmax/taskpulse/internal/api"
	"github.com/nadmax/taskpulse/internal/auth"
	"github.com/nadmax/taskpulse/internal/config"
	"github.com/nadmax/taskpulse/internal/engine"
	"github.com/nadmax/taskpulse/internal/logging"
	"github.com/nadmax/taskpulse/internal/store"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Get().Errorf("failed to load config: %v", err)
		os.Exit(1)
	}

	if err := logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		logging.Get().Errorf("failed to init logging: %v", err)
		os.Exit(1)
	}
	log := logging.Component("server")

	if err := cfg.Validate(); err != nil {
		log.Errorf("invalid config: %v", err)
		os.Exit(1)
	}

	taskStore, err := store.NewPostgresTaskStore(cfg.PostgresDSN)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}

	defer func() {
		if err := taskStore.Close(); err != nil {
			log.Warnf("failed to close task store: %v", err)
		}
	}()

	adv, closeAdvisor := buildAdvisor(cfg, log)
	defer closeAdvisor()

	eng := engine.New(engine.Config{
		Advisor:        adv,
		AdvisorTimeout: cfg.Advisor.Timeout,
	})

	apiHandler := api.NewAPI(taskStore, eng, auth.New([]byte(cfg.JWTSecret)))

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newRouter(apiHandler, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2*cfg.Advisor.Timeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.InfoEvent().
			Str("addr", srv.Addr).
			Bool("advisor", cfg.AdvisorEnabled()).
			Bool("cache", cfg.RedisAddr != "").
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("server failed: %v", err)
			done <- syscall.SIGTERM
		}
	}()

	<-done
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("graceful shutdown failed: %v", err)
	}
}

// buildAdvisor returns NoAdvisor without an API key, otherwise the Groq
// client behind the optional Redis cache and the metrics decorator.
func buildAdvisor(cfg *config.Config, log *logging.Logger) (engine.Advisor, func()) {
	if !cfg.AdvisorEnabled() {
		log.Info("no advisor API key, serving deterministic results only")
		return advisor.NewInstrumented(engine.NoAdvisor{}), func() {}
	}

	var adv engine.Advisor = advisor.NewClient(advisor.Config{
		APIKey:  cfg.Advisor.APIKey,
		BaseURL: cfg.Advisor.BaseURL,
		Model:   cfg.Advisor.Model,
		Timeout: cfg.Advisor.Timeout,
	})
	closeFn := func() {}

	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client, err := advisor.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			log.Warnf("advisor cache disabled: %v", err)
		} else {
			adv = advisor.NewCache(adv, client, cfg.Advisor.CacheTTL)
			closeFn = closer(client, log)
		}
	}

	return advisor.NewInstrumented(adv), closeFn
}

func closer(client *redis.Client, log *logging.Logger) func() {
	return func() {
		if err := client.Close(); err != nil {
			log.Warnf("failed to close redis client: %v", err)
		}
	}
}
