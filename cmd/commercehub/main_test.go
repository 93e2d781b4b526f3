package main

import (
	"os"
	"testing"
	"time"
)

func TestInt64EnvParsesValue(t *testing.T) {
	t.Setenv("COMMERCEHUB_TEST_INT64", "2048")
	got := int64Env("COMMERCEHUB_TEST_INT64", 7)
	if got != 2048 {
		t.Fatalf("expected 2048, got %d", got)
	}
}

func TestInt64EnvFallsBackOnInvalidValue(t *testing.T) {
	t.Setenv("COMMERCEHUB_TEST_INT64_BAD", "not-a-number")
	got := int64Env("COMMERCEHUB_TEST_INT64_BAD", 7)
	if got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
}

func TestDurationEnvParsesValue(t *testing.T) {
	t.Setenv("COMMERCEHUB_TEST_DURATION", "150ms")
	got := durationEnv("COMMERCEHUB_TEST_DURATION", time.Second)
	if got != 150*time.Millisecond {
		t.Fatalf("expected 150ms, got %s", got)
	}
}

func TestDurationEnvFallsBackOnInvalidValue(t *testing.T) {
	t.Setenv("COMMERCEHUB_TEST_DURATION_BAD", "soon")
	got := durationEnv("COMMERCEHUB_TEST_DURATION_BAD", 2*time.Second)
	if got != 2*time.Second {
		t.Fatalf("expected fallback 2s, got %s", got)
	}
}

func TestEnvOrDefaultUsesFallbackWhenUnset(t *testing.T) {
	_ = os.Unsetenv("COMMERCEHUB_TEST_ADDR_UNSET")
	if got := envOrDefault("COMMERCEHUB_TEST_ADDR_UNSET", ":8080"); got != ":8080" {
		t.Fatalf("expected fallback :8080, got %q", got)
	}
}

func TestBuildStateBackendFromEnvDefaultsToNil(t *testing.T) {
	_ = os.Unsetenv("COMMERCEHUB_STATE_BACKEND_DSN")
	_ = os.Unsetenv("COMMERCEHUB_STATE_FILE")
	backend, err := buildStateBackendFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend != nil {
		t.Fatalf("expected nil backend without configuration")
	}
}

func TestBuildStateBackendFromEnvUsesStateFile(t *testing.T) {
	t.Setenv("COMMERCEHUB_STATE_BACKEND_DSN", "")
	t.Setenv("COMMERCEHUB_STATE_FILE", t.TempDir()+"/state.json")
	backend, err := buildStateBackendFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend == nil {
		t.Fatalf("expected a file backend")
	}
}
