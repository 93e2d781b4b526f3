package syncloop

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/koushikbhargav/commercehubef/internal/commercehub"
)

// SourcePayload is one raw response from a read endpoint, before the
// CSV/JSON shape is decided.
type SourcePayload struct {
	Body        []byte
	ContentType string
}

type SourceClient interface {
	Fetch(ctx context.Context, url string, headers map[string]string) (SourcePayload, error)
}

type HTTPSourceClient struct {
	httpClient *http.Client
}

func NewHTTPSourceClient(httpClient *http.Client) *HTTPSourceClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPSourceClient{httpClient: httpClient}
}

// Fetch issues one GET with the configured headers. Failures are not
// retried here; the poll loop decides what a failed cycle means.
func (c *HTTPSourceClient) Fetch(ctx context.Context, url string, headers map[string]string) (SourcePayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return SourcePayload{}, err
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SourcePayload{}, &commercehub.TransportError{Err: err}
	}
	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return SourcePayload{}, &commercehub.TransportError{Err: readErr}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return SourcePayload{}, &commercehub.TransportError{StatusCode: resp.StatusCode}
	}
	return SourcePayload{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// DecodeTable picks the reader for a payload: JSON when the content
// type or the first byte says so, delimited text otherwise.
func DecodeTable(payload SourcePayload) (commercehub.RawTable, error) {
	if looksLikeJSON(payload) {
		return commercehub.ParseJSON(payload.Body)
	}
	return commercehub.ParseCSV(string(payload.Body))
}

func looksLikeJSON(payload SourcePayload) bool {
	contentType := strings.ToLower(payload.ContentType)
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	if strings.Contains(contentType, "json") {
		return true
	}
	trimmed := bytes.TrimSpace(payload.Body)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}
