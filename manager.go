package perfgraph

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/perfgraph/perfgraph/component"
	"github.com/perfgraph/perfgraph/config"
	"github.com/perfgraph/perfgraph/internal/logging"
	"github.com/perfgraph/perfgraph/storage"
)

// Manager owns the global merge targets and the registry of thread
// handles. The high-frequency Begin/End path never takes the manager lock;
// the lock covers only thread registration, finalize and administrative
// controls.
type Manager struct {
	mu        sync.Mutex
	cfg       *config.Config
	logger    Logger
	kinds     []component.Kind
	scope     storage.Scope
	globals   map[component.Kind]*storage.Global
	threads   []*Thread
	nextID    uint64
	finalized bool

	processID string

	enabled       atomic.Bool
	droppedFaults atomic.Uint64
}

// New builds a manager measuring the given kinds. A nil cfg resolves the
// default configuration (defaults, environment, nothing else). Kinds
// without storage support are rejected; with no kinds at all, wall time is
// measured.
func New(cfg *config.Config, kinds ...component.Kind) (*Manager, error) {
	if cfg == nil {
		var warnings []string
		var err error
		cfg, warnings, err = config.New()
		if err != nil {
			return nil, err
		}
		_ = warnings // defaults never clamp
	}

	if len(kinds) == 0 {
		kinds = []component.Kind{component.KindWallClock}
	}
	for _, k := range kinds {
		if !component.Capabilities(k).ImplementsStorage {
			return nil, fmt.Errorf("kind %s does not participate in storage", k)
		}
	}

	scope, err := storage.ParseScope(cfg.Scope)
	if err != nil {
		// Normalize clamps unknown scopes, so this only fires when the
		// caller hands in an unnormalized Config. Clamp the same way.
		scope = storage.ScopeTree
	}

	m := &Manager{
		cfg:       cfg,
		logger:    logging.NewWithSettings("perfgraph", cfg.Logging.Level, cfg.Logging.Format),
		kinds:     kinds,
		scope:     scope,
		globals:   make(map[component.Kind]*storage.Global, len(kinds)),
		processID: uuid.NewString(),
	}
	for _, k := range kinds {
		m.globals[k] = storage.NewGlobal(k, cfg.CollapseThreads)
	}
	m.enabled.Store(cfg.Enabled)

	m.logger.Info("instrumentation manager created", map[string]interface{}{
		"process_id":       m.processID,
		"kinds":            len(kinds),
		"max_depth":        cfg.MaxDepth,
		"scope":            cfg.Scope,
		"collapse_threads": cfg.CollapseThreads,
	})
	return m, nil
}

// SetLogger replaces the toolkit's own diagnostics logger. Call before
// spawning threads.
func (m *Manager) SetLogger(l Logger) {
	if l != nil {
		m.logger = l
	}
}

// ProcessID identifies this process in cross-process merges.
func (m *Manager) ProcessID() string { return m.processID }

// Config returns the effective configuration.
func (m *Manager) Config() *config.Config { return m.cfg }

// Kinds returns the measured component kinds.
func (m *Manager) Kinds() []component.Kind { return m.kinds }

// Thread registers a handle for the calling goroutine. The handle is owned
// exclusively by that goroutine; Close it (or let Finalize collect it) when
// the goroutine's measured work is done.
func (m *Manager) Thread() (*Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finalized {
		return nil, ErrFinalized
	}

	id := m.nextID
	m.nextID++
	t := &Thread{
		m:      m,
		id:     id,
		stores: make(map[component.Kind]*storage.Thread, len(m.kinds)),
	}
	set := storage.Settings{
		Enabled:       true,
		MaxDepth:      int32(m.cfg.MaxDepth),
		Scope:         m.scope,
		MaxBookmarks:  m.cfg.MaxThreadBookmarks,
		ThrottleCount: uint64(m.cfg.ThrottleCount),
		ThrottleValue: int64(m.cfg.ThrottleValue),
	}
	for _, k := range m.kinds {
		st := storage.NewThread(k, fmt.Sprintf("thread/%d", id), set)
		global := m.globals[k]
		st.SetFlushFunc(func(g *storage.Graph) {
			if err := global.Merge(g, st.Origin()); err != nil {
				m.fault(err)
			}
		})
		t.stores[k] = st
	}
	m.threads = append(m.threads, t)
	return t, nil
}

// NewSampler returns a goroutine sampler bounded by the configured sample
// cap. Samplers opt out of call-graph storage and are read directly.
func (m *Manager) NewSampler() *component.GoroutineCount {
	g := component.NewGoroutineCount()
	g.SetSampleCap(m.cfg.MaxSamples)
	return g
}

// Finalize merges every thread graph that has not already been collected
// into the per-kind global graphs. Call it after measured goroutines have
// joined; a thread still inserting during Finalize is a data race by the
// ownership rules in the storage package.
func (m *Manager) Finalize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finalized {
		return ErrFinalized
	}

	g, _ := errgroup.WithContext(ctx)
	for _, kind := range m.kinds {
		kind := kind
		g.Go(func() error {
			global := m.globals[kind]
			for _, t := range m.threads {
				st := t.stores[kind]
				if st.State() == storage.StateMerged {
					continue
				}
				graph, err := st.Finalize()
				if err != nil {
					return err
				}
				if err := global.Merge(graph, st.Origin()); err != nil {
					return err
				}
				st.MarkMerged()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	m.finalized = true

	sizes := make(map[string]interface{}, len(m.kinds))
	for _, k := range m.kinds {
		sizes[k.String()] = m.globals[k].Size()
	}
	sizes["threads"] = len(m.threads)
	sizes["dropped_faults"] = m.droppedFaults.Load()
	m.logger.Info("finalize complete", sizes)
	return nil
}

// Global returns the merge target for a kind, nil when the kind is not
// measured. Intended for report/export collaborators after Finalize.
func (m *Manager) Global(kind component.Kind) *storage.Global {
	return m.globals[kind]
}

// Size reports the merged node count for a kind.
func (m *Manager) Size(kind component.Kind) int {
	g := m.globals[kind]
	if g == nil {
		return 0
	}
	return g.Size()
}

// Enable toggles measurement globally. Regions begun while disabled create
// zero nodes; a region already open keeps its node.
func (m *Manager) Enable(v bool) { m.enabled.Store(v) }

// Enabled reports whether measurement is currently on.
func (m *Manager) Enabled() bool { return m.enabled.Load() }

// MaxDepth returns the configured call-graph depth ceiling.
func (m *Manager) MaxDepth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.MaxDepth
}

// SetMaxDepth updates the depth ceiling for threads registered after the
// call. Existing thread handles keep their ceiling: their settings are
// owned by their goroutine and are not mutated across threads.
func (m *Manager) SetMaxDepth(n int) {
	if n < 1 {
		n = 1
	}
	if n > 65536 {
		n = 65536
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.MaxDepth = n
}

// Clear discards all merged data and forgets collected threads, returning
// the manager to a usable pre-finalize state.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.globals {
		g.Clear()
	}
	m.threads = nil
	m.finalized = false
}

// DroppedFaults reports usage faults swallowed in lenient mode.
func (m *Manager) DroppedFaults() uint64 { return m.droppedFaults.Load() }

// fault applies the configured failure policy: panic with a diagnostic in
// strict builds, count and drop otherwise. Statistics are never corrupted
// either way; the erroring operation has already been skipped.
func (m *Manager) fault(err error) {
	if err == nil {
		return
	}
	if m.cfg.Strict {
		panic(fmt.Sprintf("perfgraph: %v", err))
	}
	m.droppedFaults.Add(1)
	m.logger.Error("usage fault dropped", map[string]interface{}{"error": err.Error()})
}

// collect merges one closing thread's graphs outside of Finalize.
func (m *Manager) collect(t *Thread) error {
	for _, k := range m.kinds {
		st := t.stores[k]
		graph, err := st.Finalize()
		if err != nil {
			return err
		}
		if err := m.globals[k].Merge(graph, st.Origin()); err != nil {
			return err
		}
		st.MarkMerged()
	}
	return nil
}
