package commercehub

import (
	"net/http"
	"strings"
	"time"
)

const DefaultPollIntervalMs = 30000

var allowedWriteMethods = map[string]bool{
	http.MethodPost:  true,
	http.MethodPut:   true,
	http.MethodPatch: true,
}

// SyncConfig is the per data-source configuration: where to read, how
// often to poll, the confirmed mapping, and the optional independent
// write-back endpoint.
type SyncConfig struct {
	ReadURL        string            `json:"readUrl"`
	ReadHeaders    map[string]string `json:"readHeaders,omitempty"`
	PollIntervalMs int               `json:"pollIntervalMs,omitempty"`
	Enabled        bool              `json:"enabled"`
	LastSync       string            `json:"lastSync,omitempty"`
	Mapping        FieldMapping      `json:"mapping,omitempty"`
	WriteEnabled   bool              `json:"writeEnabled,omitempty"`
	WriteMethod    string            `json:"writeMethod,omitempty"`
	WriteURL       string            `json:"writeUrl,omitempty"`
}

func (c SyncConfig) PollInterval() time.Duration {
	if c.PollIntervalMs <= 0 {
		return DefaultPollIntervalMs * time.Millisecond
	}
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

func (c SyncConfig) ResolvedWriteMethod() string {
	method := strings.ToUpper(strings.TrimSpace(c.WriteMethod))
	if method == "" {
		return http.MethodPost
	}
	return method
}

// ResolvedWriteURL falls back to the read endpoint when no dedicated
// write endpoint is configured.
func (c SyncConfig) ResolvedWriteURL() string {
	if strings.TrimSpace(c.WriteURL) != "" {
		return c.WriteURL
	}
	return c.ReadURL
}

func validateSyncConfig(cfg SyncConfig) error {
	if strings.TrimSpace(cfg.ReadURL) == "" {
		return ErrInvalidInput
	}
	if cfg.WriteMethod != "" && !allowedWriteMethods[strings.ToUpper(strings.TrimSpace(cfg.WriteMethod))] {
		return ErrInvalidInput
	}
	return nil
}

// ConfigPatch is a sparse SyncConfig update. Nil fields are left
// untouched; lastSync is owned by the sync cycle and cannot be patched.
type ConfigPatch struct {
	ReadURL        *string           `json:"readUrl,omitempty"`
	ReadHeaders    map[string]string `json:"readHeaders,omitempty"`
	PollIntervalMs *int              `json:"pollIntervalMs,omitempty"`
	Enabled        *bool             `json:"enabled,omitempty"`
	Mapping        FieldMapping      `json:"mapping,omitempty"`
	WriteEnabled   *bool             `json:"writeEnabled,omitempty"`
	WriteMethod    *string           `json:"writeMethod,omitempty"`
	WriteURL       *string           `json:"writeUrl,omitempty"`
}

func applyConfigPatch(cfg SyncConfig, patch ConfigPatch) SyncConfig {
	if patch.ReadURL != nil {
		cfg.ReadURL = *patch.ReadURL
	}
	if patch.ReadHeaders != nil {
		cfg.ReadHeaders = cloneHeaderMap(patch.ReadHeaders)
	}
	if patch.PollIntervalMs != nil {
		cfg.PollIntervalMs = *patch.PollIntervalMs
	}
	if patch.Enabled != nil {
		cfg.Enabled = *patch.Enabled
	}
	if patch.Mapping != nil {
		cfg.Mapping = cloneMapping(patch.Mapping)
	}
	if patch.WriteEnabled != nil {
		cfg.WriteEnabled = *patch.WriteEnabled
	}
	if patch.WriteMethod != nil {
		cfg.WriteMethod = *patch.WriteMethod
	}
	if patch.WriteURL != nil {
		cfg.WriteURL = *patch.WriteURL
	}
	return cfg
}

func cloneHeaderMap(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	out := make(map[string]string, len(headers))
	for key, value := range headers {
		out[key] = value
	}
	return out
}

func cloneMapping(mapping FieldMapping) FieldMapping {
	if mapping == nil {
		return nil
	}
	out := make(FieldMapping, len(mapping))
	for key, value := range mapping {
		out[key] = value
	}
	return out
}

func cloneSyncConfig(cfg SyncConfig) SyncConfig {
	cfg.ReadHeaders = cloneHeaderMap(cfg.ReadHeaders)
	cfg.Mapping = cloneMapping(cfg.Mapping)
	return cfg
}
