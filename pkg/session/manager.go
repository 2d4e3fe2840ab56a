package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/charsheet/internal/logging"
	"github.com/aretw0/charsheet/pkg/dom"
	"github.com/aretw0/charsheet/pkg/domain"
	"github.com/aretw0/charsheet/pkg/keygen"
	"github.com/aretw0/charsheet/pkg/ports"
	"github.com/aretw0/charsheet/pkg/renderer"
)

// ErrElementNotFound is returned by Input for unknown element ids.
var ErrElementNotFound = errors.New("element not found")

// ErrNoPage is returned when a sheet has no bound page.
var ErrNoPage = errors.New("sheet has no page")

// Sheet is one live character sheet.
type Sheet struct {
	Renderer *renderer.Renderer
	Page     *dom.Document
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager owns live sheets and guarantees one interaction per sheet at a time.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	engine ports.SheetEngine
	keys   *keygen.Allocator
	store  ports.DocumentStore
	page   string
	hooks  domain.LifecycleHooks
	logger *slog.Logger

	mu     sync.Mutex            // guards locks and sheets
	locks  map[string]*lockEntry // active locks
	sheets map[string]*Sheet
}

// Option configures the Manager.
type Option func(*Manager)

// WithStore persists each sheet's snapshot after every change.
func WithStore(store ports.DocumentStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithPage binds every new sheet to a fresh parse of html.
func WithPage(html string) Option {
	return func(m *Manager) {
		m.page = html
	}
}

// WithHooks forwards lifecycle callbacks to every renderer.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = h
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a Manager over engine. keys may be nil.
func NewManager(engine ports.SheetEngine, keys *keygen.Allocator, opts ...Option) *Manager {
	if keys == nil {
		keys = keygen.New()
	}
	m := &Manager{
		engine: engine,
		keys:   keys,
		locks:  make(map[string]*lockEntry),
		sheets: make(map[string]*Sheet),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a sheet from an engine document and returns its key.
func (m *Manager) Create(ctx context.Context, document []byte) (string, error) {
	r, err := renderer.New(ctx, m.engine, m.keys, document,
		renderer.WithLogger(m.logger),
		renderer.WithHooks(m.hooks),
	)
	if err != nil {
		return "", err
	}

	sheet := &Sheet{Renderer: r}
	if m.page != "" {
		page, err := dom.ParseString(m.page)
		if err != nil {
			_ = r.Close(ctx)
			return "", fmt.Errorf("failed to parse page: %w", err)
		}
		if err := r.BindToDom(ctx, page.Body()); err != nil {
			_ = r.Close(ctx)
			return "", fmt.Errorf("failed to bind page: %w", err)
		}
		sheet.Page = page
	} else if err := r.Synchronize(ctx); err != nil {
		_ = r.Close(ctx)
		return "", err
	}

	key := r.Key()
	m.mu.Lock()
	m.sheets[key] = sheet
	m.mu.Unlock()

	if err := m.persist(ctx, sheet); err != nil {
		return key, err
	}
	m.logger.Info("sheet started", "sheet", key)
	return key, nil
}

// Restore starts a sheet from a snapshot previously persisted under id.
func (m *Manager) Restore(ctx context.Context, id string) (string, error) {
	if m.store == nil {
		return "", domain.ErrDocumentNotFound
	}
	rec, err := m.store.Load(ctx, id)
	if err != nil {
		return "", err
	}
	return m.Create(ctx, rec.Data)
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must Lock entry.mu and call release(key) after unlocking.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// WithLock runs fn with exclusive access to the sheet under key.
// Returns domain.ErrSheetNotFound for unknown keys.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(context.Context, *Sheet) error) error {
	entry := m.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(key)
	}()

	m.mu.Lock()
	sheet, ok := m.sheets[key]
	m.mu.Unlock()
	if !ok {
		return domain.ErrSheetNotFound
	}
	return fn(ctx, sheet)
}

// Snapshot returns the sheet's last synchronized snapshot as JSON.
func (m *Manager) Snapshot(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := m.WithLock(ctx, key, func(ctx context.Context, s *Sheet) error {
		var err error
		data, err = json.Marshal(s.Renderer.Snapshot())
		return err
	})
	return data, err
}

// Apply runs a batch of changes and persists the result.
// The returned error joins every rejected change.
func (m *Manager) Apply(ctx context.Context, key string, changes ...domain.Change) error {
	return m.WithLock(ctx, key, func(ctx context.Context, s *Sheet) error {
		updateErr := s.Renderer.Update(ctx, changes...)
		return errors.Join(updateErr, m.persist(ctx, s))
	})
}

// Input simulates a committed edit of the element with id on the sheet's page.
func (m *Manager) Input(ctx context.Context, key, id, text string) error {
	return m.WithLock(ctx, key, func(ctx context.Context, s *Sheet) error {
		if s.Page == nil {
			return ErrNoPage
		}
		el := s.Page.GetElementByID(id)
		if el == nil {
			return fmt.Errorf("%w: %q", ErrElementNotFound, id)
		}
		el.Input(ctx, text)
		return m.persist(ctx, s)
	})
}

// Render writes the sheet's page.
func (m *Manager) Render(ctx context.Context, key string, w io.Writer) error {
	return m.WithLock(ctx, key, func(ctx context.Context, s *Sheet) error {
		if s.Page == nil {
			return ErrNoPage
		}
		return s.Page.Render(w)
	})
}

// Required returns the user values the sheet still needs.
func (m *Manager) Required(ctx context.Context, key string) ([]string, error) {
	var names []string
	err := m.WithLock(ctx, key, func(ctx context.Context, s *Sheet) error {
		var err error
		names, err = s.Renderer.MinimumRequiredUserValues(ctx)
		return err
	})
	return names, err
}

// Close stops the sheet, frees its key and removes its persisted snapshot.
func (m *Manager) Close(ctx context.Context, key string) error {
	return m.WithLock(ctx, key, func(ctx context.Context, s *Sheet) error {
		err := s.Renderer.Close(ctx)
		m.mu.Lock()
		delete(m.sheets, key)
		m.mu.Unlock()
		if m.store != nil {
			err = errors.Join(err, m.store.Delete(ctx, key))
		}
		return err
	})
}

// List returns the keys of live sheets, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.sheets))
	for k := range m.sheets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *Manager) persist(ctx context.Context, s *Sheet) error {
	if m.store == nil {
		return nil
	}
	key := s.Renderer.Key()
	data, err := json.Marshal(s.Renderer.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to encode sheet %s: %w", key, err)
	}
	if err := m.store.Save(ctx, key, domain.NewRecord(key, data)); err != nil {
		m.logger.Warn("failed to persist sheet", "sheet", key, "err", err)
		return fmt.Errorf("failed to persist sheet %s: %w", key, err)
	}
	return nil
}
