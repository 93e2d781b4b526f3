package commercehub

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// StockUpdateAction is the literal marker field carried in every
// write-back body. Downstream tooling matches on it; do not change it.
const StockUpdateAction = "update_stock"

type WriteClient interface {
	Push(ctx context.Context, method, url string, headers map[string]string, payload map[string]any) error
}

type HTTPWriteClient struct {
	httpClient *http.Client
}

func NewHTTPWriteClient(httpClient *http.Client) *HTTPWriteClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPWriteClient{httpClient: httpClient}
}

// Push issues exactly one request. Write-back is fire-once: a failure
// is reported to the caller, never retried here.
func (c *HTTPWriteClient) Push(ctx context.Context, method, url string, headers map[string]string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{StatusCode: resp.StatusCode}
	}
	return nil
}

type WritebackAdapter struct {
	client WriteClient
	logger Logger
}

func NewWritebackAdapter(client WriteClient, logger Logger) *WritebackAdapter {
	if client == nil {
		client = NewHTTPWriteClient(nil)
	}
	return &WritebackAdapter{client: client, logger: logger}
}

// PushUpdate pushes a partial canonical-field update upstream. Field
// names are translated back to source column names through the
// confirmed mapping; an unmapped field keeps its canonical name. The
// first return value reports whether a push was attempted at all.
func (a *WritebackAdapter) PushUpdate(ctx context.Context, cfg SyncConfig, recordID string, fields map[string]any) (bool, error) {
	if !cfg.WriteEnabled {
		return false, nil
	}
	targetURL := cfg.ResolvedWriteURL()
	if targetURL == "" {
		return false, ErrInvalidInput
	}
	method := cfg.ResolvedWriteMethod()
	if !allowedWriteMethods[method] {
		return false, ErrInvalidInput
	}

	idKey := cfg.Mapping["sku"]
	if idKey == Unmapped {
		idKey = "id"
	}
	payload := map[string]any{
		idKey:    recordID,
		"action": StockUpdateAction,
	}
	for field, value := range fields {
		key := cfg.Mapping[field]
		if key == Unmapped {
			key = field
		}
		payload[key] = value
	}

	if err := a.client.Push(ctx, method, targetURL, cfg.ReadHeaders, payload); err != nil {
		a.logf("write-back to %s failed: %v", targetURL, err)
		return true, err
	}
	a.logf("write-back for %s synced to %s", recordID, targetURL)
	return true, nil
}

func (a *WritebackAdapter) logf(format string, args ...any) {
	if a.logger == nil {
		return
	}
	a.logger.Printf(format, args...)
}
