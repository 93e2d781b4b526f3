package syncloop

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/koushikbhargav/commercehubef/internal/commercehub"
)

const defaultFileDebounce = 200 * time.Millisecond

type FileSourceOptions struct {
	StoreID  string
	Path     string
	Mapping  commercehub.FieldMapping
	Debounce time.Duration
	Logger   Logger
}

// FileSource keeps a local delimited-text file synced into the store.
// The file is read once on start and re-read whenever it changes on
// disk, debounced because editors tend to emit bursts of events.
type FileSource struct {
	store    *commercehub.Store
	storeID  string
	path     string
	mapping  commercehub.FieldMapping
	debounce time.Duration
	logger   Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
	closed  chan struct{}
}

func WatchFile(store *commercehub.Store, opts FileSourceOptions) (*FileSource, error) {
	storeID := strings.TrimSpace(opts.StoreID)
	if store == nil || storeID == "" {
		return nil, commercehub.ErrInvalidInput
	}
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		return nil, commercehub.ErrInvalidInput
	}
	path = filepath.Clean(path)
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultFileDebounce
	}

	f := &FileSource{
		store:    store,
		storeID:  storeID,
		path:     path,
		mapping:  opts.Mapping,
		debounce: debounce,
		logger:   opts.Logger,
		done:     make(chan struct{}),
		closed:   make(chan struct{}),
	}
	if err := f.syncFile(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: saves that replace the file would drop a
	// watch held on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	f.watcher = watcher
	go f.run()
	return f, nil
}

func (f *FileSource) run() {
	defer close(f.closed)
	var pending *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-f.done:
			if pending != nil {
				pending.Stop()
			}
			return
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if pending == nil {
				pending = time.NewTimer(f.debounce)
				fire = pending.C
			} else {
				pending.Reset(f.debounce)
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.logf("file watch error for %s: %v", f.path, err)
		case <-fire:
			pending = nil
			fire = nil
			if err := f.syncFile(); err != nil {
				f.logf("file sync for %s failed: %v", f.path, err)
			}
		}
	}
}

// syncFile re-reads the file and installs the normalized result. The
// confirmed mapping wins when one is set; otherwise the mapping is
// inferred fresh from the current header row.
func (f *FileSource) syncFile() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}
	table, err := commercehub.ParseCSV(string(data))
	if err != nil {
		return err
	}
	mapping := f.mapping
	if mapping == nil {
		mapping = commercehub.InferMapping(table.Columns, commercehub.Catalog())
	}
	records := commercehub.Normalize(table.Rows, mapping)
	f.store.SetInventory(f.storeID, records, "CSV File")
	f.logf("loaded %d items from %s", len(records), f.path)
	return nil
}

func (f *FileSource) Close() error {
	select {
	case <-f.done:
		return nil
	default:
	}
	close(f.done)
	var err error
	if f.watcher != nil {
		err = f.watcher.Close()
	}
	<-f.closed
	return err
}

func (f *FileSource) logf(format string, args ...any) {
	if f.logger == nil {
		return
	}
	f.logger.Printf(format, args...)
}
