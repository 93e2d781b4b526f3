package syncloop

import (
	"context"
	"sync"
	"time"

	"github.com/koushikbhargav/commercehubef/internal/commercehub"
)

type Logger interface {
	Printf(format string, args ...any)
}

type PollerOptions struct {
	Client       SourceClient
	Logger       Logger
	CycleTimeout time.Duration
}

// Poller keeps one enabled data source re-read and re-normalized on
// its configured interval. One timer per source; cycles never overlap
// because the timer is re-armed only after a cycle finishes, so a tick
// that would land mid-cycle is skipped rather than queued. Disabling
// stops future ticks but lets an in-flight cycle complete and commit,
// matching the behavior this replaces.
type Poller struct {
	store        *commercehub.Store
	client       SourceClient
	logger       Logger
	cycleTimeout time.Duration

	mu   sync.Mutex
	runs map[string]*pollRun
}

type pollRun struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(store *commercehub.Store, opts PollerOptions) *Poller {
	client := opts.Client
	if client == nil {
		client = NewHTTPSourceClient(nil)
	}
	cycleTimeout := opts.CycleTimeout
	if cycleTimeout <= 0 {
		cycleTimeout = 15 * time.Second
	}
	return &Poller{
		store:        store,
		client:       client,
		logger:       opts.Logger,
		cycleTimeout: cycleTimeout,
		runs:         map[string]*pollRun{},
	}
}

// Enable starts polling a data source. The first cycle runs
// immediately so a fresh source is never delayed by the interval. A
// mapping missing a required field refuses to start.
func (p *Poller) Enable(storeID string) error {
	cfg, err := p.store.Config(storeID)
	if err != nil {
		return err
	}
	if err := commercehub.ValidateMapping(cfg.Mapping); err != nil {
		return err
	}
	if err := p.store.SetEnabled(storeID, true); err != nil {
		return err
	}

	p.mu.Lock()
	if existing, ok := p.runs[storeID]; ok {
		existing.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	run := &pollRun{cancel: cancel, done: make(chan struct{})}
	p.runs[storeID] = run
	p.mu.Unlock()

	go p.loop(ctx, storeID, run)
	return nil
}

// Disable stops future ticks for a data source. An in-flight cycle is
// allowed to finish and commit its result.
func (p *Poller) Disable(storeID string) error {
	if err := p.store.SetEnabled(storeID, false); err != nil {
		return err
	}
	p.mu.Lock()
	run, ok := p.runs[storeID]
	if ok {
		delete(p.runs, storeID)
	}
	p.mu.Unlock()
	if ok {
		run.cancel()
	}
	return nil
}

// Close stops every active loop.
func (p *Poller) Close() {
	p.mu.Lock()
	runs := p.runs
	p.runs = map[string]*pollRun{}
	p.mu.Unlock()
	for _, run := range runs {
		run.cancel()
	}
	for _, run := range runs {
		<-run.done
	}
}

func (p *Poller) loop(ctx context.Context, storeID string, run *pollRun) {
	defer close(run.done)

	p.runCycle(storeID)

	cfg, err := p.store.Config(storeID)
	if err != nil {
		p.logf("poll loop for %s stopping: %v", storeID, err)
		return
	}
	timer := time.NewTimer(cfg.PollInterval())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			p.runCycle(storeID)
			cfg, err := p.store.Config(storeID)
			if err != nil || !cfg.Enabled {
				return
			}
			timer.Reset(cfg.PollInterval())
		}
	}
}

// runCycle executes one read → normalize → atomic-replace pass. Any
// failure is logged and the previous inventory stays in place; the
// loop survives arbitrarily many failed cycles. The cycle deliberately
// does not run on the loop context so that disabling mid-flight lets
// it commit.
func (p *Poller) runCycle(storeID string) {
	ctx, cancel := context.WithTimeout(context.Background(), p.cycleTimeout)
	defer cancel()
	if err := p.SyncOnce(ctx, storeID); err != nil {
		p.logf("sync cycle for %s failed: %v", storeID, err)
		return
	}
	p.logf("sync cycle for %s completed", storeID)
}

// SyncOnce runs a single sync cycle against the source configured for
// storeID and commits the normalized inventory on success.
func (p *Poller) SyncOnce(ctx context.Context, storeID string) error {
	cfg, err := p.store.Config(storeID)
	if err != nil {
		return err
	}
	payload, err := p.client.Fetch(ctx, cfg.ReadURL, cfg.ReadHeaders)
	if err != nil {
		return err
	}
	table, err := DecodeTable(payload)
	if err != nil {
		return err
	}
	records := commercehub.Normalize(table.Rows, cfg.Mapping)
	p.store.ReplaceInventory(storeID, records)
	p.logf("synced %d items for %s", len(records), storeID)
	return nil
}

// Running reports whether a poll loop is active for storeID.
func (p *Poller) Running(storeID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.runs[storeID]
	return ok
}

func (p *Poller) logf(format string, args ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Printf(format, args...)
}
