package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/koushikbhargav/commercehubef/internal/commercehub"
	"github.com/koushikbhargav/commercehubef/internal/syncloop"
)

func main() {
	filePath := flag.String("file", strings.TrimSpace(os.Getenv("COMMERCEHUB_IMPORT_FILE")), "local CSV or JSON file to import")
	sourceURL := flag.String("url", strings.TrimSpace(os.Getenv("COMMERCEHUB_IMPORT_URL")), "read endpoint to import from")
	headersJSON := flag.String("headers", strings.TrimSpace(os.Getenv("COMMERCEHUB_IMPORT_HEADERS")), "request headers as a JSON object")
	mappingJSON := flag.String("mapping", strings.TrimSpace(os.Getenv("COMMERCEHUB_IMPORT_MAPPING")), "field mapping as a JSON object; inferred when empty")
	storeID := flag.String("store", envOrDefault("COMMERCEHUB_IMPORT_STORE", "default"), "store ID to import into")
	stateDSN := flag.String("state", strings.TrimSpace(os.Getenv("COMMERCEHUB_STATE_BACKEND_DSN")), "state backend DSN; print to stdout when empty")
	interval := flag.Duration("interval", durationEnv("COMMERCEHUB_IMPORT_INTERVAL", 30*time.Second), "re-import interval")
	timeout := flag.Duration("timeout", durationEnv("COMMERCEHUB_IMPORT_TIMEOUT", 15*time.Second), "per-import timeout")
	once := flag.Bool("once", false, "run one import and exit")
	flag.Parse()

	if strings.TrimSpace(*filePath) == "" && strings.TrimSpace(*sourceURL) == "" {
		log.Fatalf("a source is required (--file or --url)")
	}
	if strings.TrimSpace(*filePath) != "" && strings.TrimSpace(*sourceURL) != "" {
		log.Fatalf("--file and --url are mutually exclusive")
	}
	if *interval <= 0 {
		*interval = 30 * time.Second
	}
	if *timeout <= 0 {
		*timeout = 15 * time.Second
	}

	headers, err := parseStringMap(*headersJSON)
	if err != nil {
		log.Fatalf("invalid --headers: %v", err)
	}
	mapping, err := parseMapping(*mappingJSON)
	if err != nil {
		log.Fatalf("invalid --mapping: %v", err)
	}

	var store *commercehub.Store
	if strings.TrimSpace(*stateDSN) != "" {
		backend, err := commercehub.BuildStateBackendFromDSN(*stateDSN)
		if err != nil {
			log.Fatalf("failed to initialize state backend: %v", err)
		}
		store = commercehub.NewStoreWithOptions(commercehub.StoreOptions{
			StateBackend: backend,
			Logger:       log.Default(),
		})
		defer store.Close()
	}

	client := syncloop.NewHTTPSourceClient(&http.Client{Timeout: *timeout})
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func() {
		ctx, cancel := context.WithTimeout(rootCtx, *timeout)
		defer cancel()
		records, err := importOnce(ctx, client, *filePath, *sourceURL, headers, mapping)
		if err != nil {
			log.Printf("import failed: %v", err)
			return
		}
		if store != nil {
			store.SetInventory(*storeID, records, sourceLabel(*filePath))
			log.Printf("imported %d items into %s", len(records), *storeID)
			return
		}
		if err := printRecords(records); err != nil {
			log.Printf("failed to write output: %v", err)
		}
	}

	run()
	if *once {
		return
	}

	timer := time.NewTimer(*interval)
	defer timer.Stop()
	for {
		select {
		case <-rootCtx.Done():
			log.Printf("import loop stopping: %v", rootCtx.Err())
			return
		case <-timer.C:
			run()
			timer.Reset(*interval)
		}
	}
}

func importOnce(ctx context.Context, client syncloop.SourceClient, filePath, sourceURL string, headers map[string]string, mapping commercehub.FieldMapping) ([]commercehub.InventoryRecord, error) {
	table, err := loadTable(ctx, client, filePath, sourceURL, headers)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		mapping = commercehub.InferMapping(table.Columns, commercehub.Catalog())
	}
	if err := commercehub.ValidateMapping(mapping); err != nil {
		return nil, err
	}
	return commercehub.Normalize(table.Rows, mapping), nil
}

func loadTable(ctx context.Context, client syncloop.SourceClient, filePath, sourceURL string, headers map[string]string) (commercehub.RawTable, error) {
	if strings.TrimSpace(filePath) != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return commercehub.RawTable{}, err
		}
		return syncloop.DecodeTable(syncloop.SourcePayload{Body: data})
	}
	payload, err := client.Fetch(ctx, sourceURL, headers)
	if err != nil {
		return commercehub.RawTable{}, err
	}
	return syncloop.DecodeTable(payload)
}

func sourceLabel(filePath string) string {
	if strings.TrimSpace(filePath) != "" {
		return "CSV File"
	}
	return "API"
}

func printRecords(records []commercehub.InventoryRecord) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records)
}

func parseStringMap(raw string) (map[string]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("not a JSON object of strings: %w", err)
	}
	return out, nil
}

func parseMapping(raw string) (commercehub.FieldMapping, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out commercehub.FieldMapping
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("not a JSON object of strings: %w", err)
	}
	return out, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
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
