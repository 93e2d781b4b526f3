package commercehub

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type Logger interface {
	Printf(format string, args ...any)
}

type EventType string

const (
	EventInventoryReplaced EventType = "inventory.replaced"
	EventStockAdjusted     EventType = "stock.adjusted"
	EventConfigUpdated     EventType = "config.updated"
)

type InventoryEvent struct {
	StoreID   string    `json:"storeId"`
	Type      EventType `json:"type"`
	RecordID  string    `json:"recordId,omitempty"`
	Stock     int       `json:"stock,omitempty"`
	Count     int       `json:"count,omitempty"`
	Source    string    `json:"source,omitempty"`
	Timestamp string    `json:"timestamp"`
}

type StoreOptions struct {
	StateBackend StateBackend
	StateFile    string
	Logger       Logger
}

// Store holds one SyncConfig and one canonical inventory per data
// source. The inventory is only ever replaced as a whole, so readers
// see the fully-old or fully-new set, never a partial mix.
type Store struct {
	mu           sync.RWMutex
	stores       map[string]*storeState
	stateBackend StateBackend

	watcherMu  sync.Mutex
	watchers   map[int]chan InventoryEvent
	watcherSeq int

	logger Logger
}

type storeState struct {
	Config    *SyncConfig       `json:"config,omitempty"`
	Inventory []InventoryRecord `json:"inventory"`
	Source    string            `json:"source,omitempty"`
}

type persistedState struct {
	Stores map[string]*storeState `json:"stores"`
}

type StateBackend interface {
	Load() (*persistedState, error)
	Save(state *persistedState) error
}

type stateBackendCloser interface {
	Close() error
}

func NewStore() *Store {
	return NewStoreWithOptions(StoreOptions{})
}

func NewStoreWithOptions(opts StoreOptions) *Store {
	backend := opts.StateBackend
	if backend == nil && opts.StateFile != "" {
		backend = NewJSONFileStateBackend(opts.StateFile)
	}
	s := &Store{
		stores:       map[string]*storeState{},
		stateBackend: backend,
		watchers:     map[int]chan InventoryEvent{},
		logger:       opts.Logger,
	}
	s.restore()
	return s
}

func (s *Store) restore() {
	if s.stateBackend == nil {
		return
	}
	state, err := s.stateBackend.Load()
	if err != nil {
		s.logf("failed to load persisted state: %v", err)
		return
	}
	if state == nil || state.Stores == nil {
		return
	}
	s.mu.Lock()
	s.stores = state.Stores
	s.mu.Unlock()
}

func (s *Store) Close() {
	s.mu.RLock()
	backend := s.stateBackend
	s.mu.RUnlock()
	if closer, ok := backend.(stateBackendCloser); ok {
		if err := closer.Close(); err != nil {
			s.logf("failed to close state backend: %v", err)
		}
	}
}

// Config returns a copy of the sync configuration for a data source.
func (s *Store) Config(storeID string) (SyncConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.stores[storeID]
	if !ok || state.Config == nil {
		return SyncConfig{}, ErrNotFound
	}
	return cloneSyncConfig(*state.Config), nil
}

// SetConfig replaces the sync configuration for a data source. The
// mapping must resolve every required canonical field before polling
// on this config is allowed to persist inventory.
func (s *Store) SetConfig(storeID string, cfg SyncConfig) error {
	if storeID == "" {
		return ErrInvalidInput
	}
	if err := validateSyncConfig(cfg); err != nil {
		return err
	}
	stored := cloneSyncConfig(cfg)
	s.mu.Lock()
	state := s.ensureStateLocked(storeID)
	state.Config = &stored
	if cfg.Enabled {
		state.Source = "Custom API"
	}
	s.persistLocked()
	s.mu.Unlock()
	s.publish(InventoryEvent{StoreID: storeID, Type: EventConfigUpdated, Timestamp: nowISO()})
	return nil
}

// PatchConfig merges a sparse update into the existing configuration
// without disturbing lastSync, or enabled unless explicitly included.
func (s *Store) PatchConfig(storeID string, patch ConfigPatch) (SyncConfig, error) {
	s.mu.Lock()
	state, ok := s.stores[storeID]
	if !ok || state.Config == nil {
		s.mu.Unlock()
		return SyncConfig{}, ErrNotFound
	}
	updated := applyConfigPatch(cloneSyncConfig(*state.Config), patch)
	if err := validateSyncConfig(updated); err != nil {
		s.mu.Unlock()
		return SyncConfig{}, err
	}
	state.Config = &updated
	s.persistLocked()
	result := cloneSyncConfig(updated)
	s.mu.Unlock()
	s.publish(InventoryEvent{StoreID: storeID, Type: EventConfigUpdated, Timestamp: nowISO()})
	return result, nil
}

// SetEnabled flips the polling flag without touching the rest of the
// configuration.
func (s *Store) SetEnabled(storeID string, enabled bool) error {
	s.mu.Lock()
	state, ok := s.stores[storeID]
	if !ok || state.Config == nil {
		s.mu.Unlock()
		return ErrNotFound
	}
	state.Config.Enabled = enabled
	s.persistLocked()
	s.mu.Unlock()
	s.publish(InventoryEvent{StoreID: storeID, Type: EventConfigUpdated, Timestamp: nowISO()})
	return nil
}

// Inventory returns a copy of the canonical inventory for a data source.
func (s *Store) Inventory(storeID string) []InventoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.stores[storeID]
	if !ok {
		return []InventoryRecord{}
	}
	out := make([]InventoryRecord, len(state.Inventory))
	copy(out, state.Inventory)
	return out
}

// SetInventory installs an imported inventory and records its source
// label. Unlike ReplaceInventory it does not advance lastSync; imports
// are not sync cycles.
func (s *Store) SetInventory(storeID string, items []InventoryRecord, source string) {
	stored := make([]InventoryRecord, len(items))
	copy(stored, items)
	s.mu.Lock()
	state := s.ensureStateLocked(storeID)
	state.Inventory = stored
	if source != "" {
		state.Source = source
	}
	s.persistLocked()
	s.mu.Unlock()
	s.publish(InventoryEvent{
		StoreID:   storeID,
		Type:      EventInventoryReplaced,
		Count:     len(stored),
		Source:    source,
		Timestamp: nowISO(),
	})
}

// ReplaceInventory commits one successful sync cycle: the inventory is
// swapped atomically and lastSync advances. A failed cycle must simply
// not call this, leaving the previous inventory untouched.
func (s *Store) ReplaceInventory(storeID string, items []InventoryRecord) {
	stored := make([]InventoryRecord, len(items))
	copy(stored, items)
	syncedAt := nowISO()
	s.mu.Lock()
	state := s.ensureStateLocked(storeID)
	state.Inventory = stored
	if state.Config != nil {
		state.Config.LastSync = syncedAt
	}
	s.persistLocked()
	s.mu.Unlock()
	s.publish(InventoryEvent{
		StoreID:   storeID,
		Type:      EventInventoryReplaced,
		Count:     len(stored),
		Timestamp: syncedAt,
	})
}

// AdjustStock applies an optimistic local stock mutation and returns
// the updated record. Pushing the change upstream, and reconciling a
// failed push, is the caller's responsibility.
func (s *Store) AdjustStock(storeID, recordID string, stock int) (InventoryRecord, error) {
	if stock < 0 {
		stock = 0
	}
	s.mu.Lock()
	state, ok := s.stores[storeID]
	if !ok {
		s.mu.Unlock()
		return InventoryRecord{}, ErrNotFound
	}
	found := -1
	for i, record := range state.Inventory {
		if record.ID == recordID {
			found = i
			break
		}
	}
	if found < 0 {
		s.mu.Unlock()
		return InventoryRecord{}, ErrNotFound
	}
	updated := make([]InventoryRecord, len(state.Inventory))
	copy(updated, state.Inventory)
	updated[found].Stock = stock
	state.Inventory = updated
	record := updated[found]
	s.persistLocked()
	s.mu.Unlock()
	s.publish(InventoryEvent{
		StoreID:   storeID,
		Type:      EventStockAdjusted,
		RecordID:  recordID,
		Stock:     stock,
		Timestamp: nowISO(),
	})
	return record, nil
}

// Source reports the label of whatever last populated the inventory.
func (s *Store) Source(storeID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.stores[storeID]
	if !ok {
		return ""
	}
	return state.Source
}

// Watch subscribes to store events until ctx is cancelled. Slow
// consumers drop events rather than block mutations.
func (s *Store) Watch(ctx context.Context) <-chan InventoryEvent {
	ch := make(chan InventoryEvent, 16)
	s.watcherMu.Lock()
	s.watcherSeq++
	id := s.watcherSeq
	s.watchers[id] = ch
	s.watcherMu.Unlock()
	go func() {
		<-ctx.Done()
		s.watcherMu.Lock()
		delete(s.watchers, id)
		s.watcherMu.Unlock()
		close(ch)
	}()
	return ch
}

func (s *Store) publish(event InventoryEvent) {
	s.watcherMu.Lock()
	defer s.watcherMu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- event:
		default:
		}
	}
}

func (s *Store) ensureStateLocked(storeID string) *storeState {
	state, ok := s.stores[storeID]
	if !ok {
		state = &storeState{Inventory: []InventoryRecord{}}
		s.stores[storeID] = state
	}
	return state
}

func (s *Store) persistLocked() {
	if s.stateBackend == nil {
		return
	}
	snapshot := &persistedState{Stores: map[string]*storeState{}}
	for id, state := range s.stores {
		inventory := make([]InventoryRecord, len(state.Inventory))
		copy(inventory, state.Inventory)
		clone := &storeState{Inventory: inventory, Source: state.Source}
		if state.Config != nil {
			cfg := cloneSyncConfig(*state.Config)
			clone.Config = &cfg
		}
		snapshot.Stores[id] = clone
	}
	if err := s.stateBackend.Save(snapshot); err != nil {
		s.logf("failed to persist state: %v", err)
	}
}

func (s *Store) logf(format string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Printf(format, args...)
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

type JSONFileStateBackend struct {
	Path string
}

func NewJSONFileStateBackend(path string) *JSONFileStateBackend {
	return &JSONFileStateBackend{Path: path}
}

func (b *JSONFileStateBackend) Load() (*persistedState, error) {
	if b == nil || b.Path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(b.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (b *JSONFileStateBackend) Save(state *persistedState) error {
	if b == nil || b.Path == "" || state == nil {
		return nil
	}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(b.Path), 0o755); err != nil {
		return err
	}
	return writeFileAtomic(b.Path, data, 0o644)
}

func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()
	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Chmod(mode); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
