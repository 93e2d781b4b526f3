package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/koushikbhargav/commercehubef/internal/commercehub"
	"github.com/koushikbhargav/commercehubef/internal/httpapi"
	"github.com/koushikbhargav/commercehubef/internal/syncloop"
)

func main() {
	addr := envOrDefault("COMMERCEHUB_ADDR", ":8080")

	stateBackend, err := buildStateBackendFromEnv()
	if err != nil {
		log.Fatalf("failed to initialize state backend: %v", err)
	}

	store := commercehub.NewStoreWithOptions(commercehub.StoreOptions{
		StateBackend: stateBackend,
		StateFile:    os.Getenv("COMMERCEHUB_STATE_FILE"),
		Logger:       log.Default(),
	})
	defer store.Close()

	poller := syncloop.NewPoller(store, syncloop.PollerOptions{
		Logger:       log.Default(),
		CycleTimeout: durationEnv("COMMERCEHUB_CYCLE_TIMEOUT", 15*time.Second),
	})
	defer poller.Close()

	if path := strings.TrimSpace(os.Getenv("COMMERCEHUB_CSV_FILE")); path != "" {
		fileSource, err := syncloop.WatchFile(store, syncloop.FileSourceOptions{
			StoreID: envOrDefault("COMMERCEHUB_CSV_STORE", "default"),
			Path:    path,
			Logger:  log.Default(),
		})
		if err != nil {
			log.Fatalf("failed to watch %s: %v", path, err)
		}
		defer fileSource.Close()
	}

	writeback := commercehub.NewWritebackAdapter(nil, log.Default())
	server := httpapi.NewServerWithConfig(store, poller, writeback, httpapi.ServerConfig{
		MaxBodyBytes: int64Env("COMMERCEHUB_MAX_BODY_BYTES", 0),
	}, log.Default())

	log.Printf("commercehub listening on %s", addr)
	if err := http.ListenAndServe(addr, server); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func buildStateBackendFromEnv() (commercehub.StateBackend, error) {
	dsn := strings.TrimSpace(os.Getenv("COMMERCEHUB_STATE_BACKEND_DSN"))
	stateFile := strings.TrimSpace(os.Getenv("COMMERCEHUB_STATE_FILE"))
	switch {
	case dsn != "":
		return commercehub.BuildStateBackendFromDSN(dsn)
	case stateFile != "":
		return commercehub.BuildStateBackendFromDSN(stateFile)
	default:
		return nil, nil
	}
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func int64Env(name string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %d", name, raw, fallback)
		return fallback
	}
	return value
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %s", name, raw, fallback.String())
		return fallback
	}
	return value
}
