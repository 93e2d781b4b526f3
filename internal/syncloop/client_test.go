package syncloop

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/koushikbhargav/commercehubef/internal/commercehub"
)

func TestHTTPSourceClientSendsConfiguredHeaders(t *testing.T) {
	var gotAuth, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"Name":"Widget"}]`))
	}))
	defer server.Close()

	client := NewHTTPSourceClient(server.Client())
	payload, err := client.Fetch(context.Background(), server.URL, map[string]string{"Authorization": "Bearer token"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer token" || gotMethod != http.MethodGet {
		t.Fatalf("unexpected request: %s %s", gotMethod, gotAuth)
	}
	if payload.ContentType != "application/json" {
		t.Fatalf("unexpected content type: %q", payload.ContentType)
	}
}

func TestHTTPSourceClientReportsNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewHTTPSourceClient(server.Client())
	_, err := client.Fetch(context.Background(), server.URL, nil)
	if !errors.Is(err, commercehub.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	var transportErr *commercehub.TransportError
	if !errors.As(err, &transportErr) || transportErr.StatusCode != http.StatusForbidden {
		t.Fatalf("unexpected error detail: %v", err)
	}
}

func TestDecodeTablePicksJSONByContentType(t *testing.T) {
	payload := SourcePayload{
		Body:        []byte(`[{"Name":"Widget"}]`),
		ContentType: "application/json; charset=utf-8",
	}
	table, err := DecodeTable(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(table.Columns, []string{"Name"}) {
		t.Fatalf("unexpected columns: %#v", table.Columns)
	}
}

func TestDecodeTableSniffsJSONBody(t *testing.T) {
	payload := SourcePayload{Body: []byte("  {\"items\":[{\"Name\":\"Widget\"}]}")}
	table, err := DecodeTable(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("unexpected rows: %#v", table.Rows)
	}
}

func TestDecodeTableFallsBackToCSV(t *testing.T) {
	payload := SourcePayload{
		Body:        []byte("Name,Price\nWidget,5\n"),
		ContentType: "text/csv",
	}
	table, err := DecodeTable(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Rows[0]["Name"] != "Widget" {
		t.Fatalf("unexpected rows: %#v", table.Rows)
	}
}

func TestDecodeTableSurfacesFormatErrors(t *testing.T) {
	payload := SourcePayload{Body: []byte("<!DOCTYPE html><html></html>")}
	if _, err := DecodeTable(payload); !errors.Is(err, commercehub.ErrFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
}
