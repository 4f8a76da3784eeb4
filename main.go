package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/sketchguess/apps/go-server/internal/httpserver"
	"github.com/robalobadob/sketchguess/apps/go-server/internal/predict"
	"github.com/robalobadob/sketchguess/apps/go-server/internal/store"
	"github.com/robalobadob/sketchguess/apps/go-server/internal/words"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if getEnv("LOG_FORMAT", "json") == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	if err := words.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load vocabulary")
	}

	predictor := predict.NewClient(predict.Config{
		Endpoint: getEnv("PREDICT_URL", predict.DefaultEndpoint),
		Timeout:  envDuration("PREDICT_TIMEOUT", 0),
	})

	mem := store.NewMemoryStore()
	srv := httpserver.New(mem, httpserver.Options{
		Predictor:    predictor,
		CanvasSize:   envInt("CANVAS_SIZE", 280),
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		DailySalt:    getEnv("DAILY_SALT", "local_dev_salt"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go srv.RunJanitor(ctx, envDuration("SESSION_TTL", 30*time.Minute))

	port := getEnv("PORT", "8080")
	hs := &http.Server{Addr: ":" + port, Handler: srv.Router(), ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()
	log.Info().
		Str("port", port).
		Str("predict_url", predictor.Endpoint()).
		Int("words", words.Count()).
		Msg("starting sketch-guess server")

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-integer env var")
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Warn().Str("key", k).Str("value", v).Msg("ignoring invalid duration env var")
	}
	return def
}
