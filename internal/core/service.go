package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/JonMunkholm/shoplist/internal/logging"
	"github.com/JonMunkholm/shoplist/internal/storage"
)

// Options configures a Service.
type Options struct {
	Delimiter    rune
	DefaultAisle string
	Locale       string
	MaxUsers     int
	// Admins lists identity names granted every capability.
	Admins   []string
	Observer Observer
}

// Service owns the master catalog and the open sessions, and persists both
// through a storage.Store. It is safe for concurrent use; operations on one
// identity are applied one at a time.
type Service struct {
	store    storage.Store
	opts     Options
	sorter   *Sorter
	observer Observer

	mu       sync.RWMutex
	catalog  Catalog
	version  uint64
	sessions map[string]*Session

	// usersMu serializes read-modify-write cycles on the user registry.
	usersMu sync.Mutex
}

// Outcome reports the result of a list mutation. Warning is set when the
// change was applied in memory but could not be persisted.
type Outcome struct {
	Applied bool              `json:"applied"`
	Product *Product          `json:"product,omitempty"`
	Import  *TextImportResult `json:"import,omitempty"`
	Warning string            `json:"warning,omitempty"`
}

// CatalogSummary reports a catalog import.
type CatalogSummary struct {
	Products int      `json:"products"`
	Aisles   []string `json:"aisles"`
	Warning  string   `json:"warning,omitempty"`
}

func NewService(store storage.Store, opts Options) *Service {
	if opts.Delimiter == 0 {
		opts.Delimiter = ';'
	}
	if strings.TrimSpace(opts.DefaultAisle) == "" {
		opts.DefaultAisle = DefaultAisle
	}
	if opts.Locale == "" {
		opts.Locale = "es"
	}
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	return &Service{
		store:    store,
		opts:     opts,
		sorter:   NewSorter(opts.Locale),
		observer: obs,
		catalog:  Catalog{},
		sessions: make(map[string]*Session),
	}
}

// Load reads the persisted master catalog. A missing master leaves the
// catalog empty.
func (s *Service) Load(ctx context.Context) error {
	data, err := s.store.Get(ctx, MasterKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load master catalog: %w", err)
	}

	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return fmt.Errorf("decode master catalog: %w", err)
	}
	ensureIDs(products)
	s.setCatalog(Catalog(products).Clone())
	return nil
}

// Store returns the backing store.
func (s *Service) Store() storage.Store { return s.store }

// Sorter returns the collation used for display order.
func (s *Service) Sorter() *Sorter { return s.sorter }

// Delimiter returns the catalog field delimiter.
func (s *Service) Delimiter() rune { return s.opts.Delimiter }

// Catalog returns a copy of the master catalog.
func (s *Service) Catalog() Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(Catalog(nil), s.catalog...)
}

// Aisles returns the distinct aisles of the master catalog in display order.
func (s *Service) Aisles() []string {
	return s.sorter.Aisles(s.Catalog())
}

// ExportCatalog writes the master catalog as delimited text.
func (s *Service) ExportCatalog(w io.Writer) error {
	return WriteCatalog(w, s.Catalog(), s.opts.Delimiter)
}

// Identify returns the identity for name with the capabilities configured
// for it. An empty name is the anonymous identity. Administrators get the
// configured spelling of their name.
func (s *Service) Identify(name string) Identity {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, AnonymousName) {
		return Anonymous()
	}
	if admin, ok := s.adminName(name); ok {
		return Identity{Name: admin, Caps: append([]Capability(nil), AllCapabilities...)}
	}
	return Identity{Name: name}
}

func (s *Service) isAdmin(name string) bool {
	_, ok := s.adminName(name)
	return ok
}

// adminName returns the configured administrator name matching name.
func (s *Service) adminName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, a := range s.opts.Admins {
		a = strings.TrimSpace(a)
		if a != "" && strings.EqualFold(a, name) {
			return a, true
		}
	}
	return "", false
}

// Open returns the session for id, loading and reconciling it on first use
// or after the master catalog changed.
func (s *Service) Open(ctx context.Context, id Identity) (*Session, error) {
	sess := s.session(id)
	sess.op.Lock()
	defer sess.op.Unlock()

	if err := s.ensureLoaded(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Close discards the cached session of id. Persisted state is kept.
func (s *Service) Close(id Identity) {
	s.mu.Lock()
	delete(s.sessions, id.SnapshotKey())
	n := len(s.sessions)
	s.mu.Unlock()
	s.observer.SessionsOpen(n)
}

// Snapshot returns a copy of id's list.
func (s *Service) Snapshot(ctx context.Context, id Identity) (Snapshot, error) {
	sess, err := s.Open(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

func (s *Service) Toggle(ctx context.Context, id Identity, ref string) (Outcome, error) {
	return s.productMutation(ctx, id, "toggle", ref, func(sess *Session) (Product, bool) {
		return sess.Toggle(ref)
	})
}

func (s *Service) SetQuantity(ctx context.Context, id Identity, ref string, value int) (Outcome, error) {
	return s.productMutation(ctx, id, "set_quantity", ref, func(sess *Session) (Product, bool) {
		return sess.SetQuantity(ref, value)
	})
}

func (s *Service) SetQuantityString(ctx context.Context, id Identity, ref, raw string) (Outcome, error) {
	return s.SetQuantity(ctx, id, ref, ParseQuantity(raw))
}

func (s *Service) SetAisle(ctx context.Context, id Identity, ref, aisle string) (Outcome, error) {
	return s.productMutation(ctx, id, "set_aisle", ref, func(sess *Session) (Product, bool) {
		return sess.SetAisle(ref, aisle)
	})
}

func (s *Service) SetObservations(ctx context.Context, id Identity, text string) (Outcome, error) {
	return s.mutate(ctx, id, "set_observations", func(sess *Session, out *Outcome) {
		sess.SetObservations(text)
		out.Applied = true
	})
}

func (s *Service) ClearAll(ctx context.Context, id Identity) (Outcome, error) {
	return s.mutate(ctx, id, "clear", func(sess *Session, out *Outcome) {
		sess.ClearAll()
		out.Applied = true
	})
}

// ImportText applies a text snapshot to id's list. The body is parsed
// before the session is touched, so a read failure changes nothing.
func (s *Service) ImportText(ctx context.Context, id Identity, r io.Reader) (Outcome, error) {
	var importErr error
	out, err := s.mutate(ctx, id, "import_text", func(sess *Session, out *Outcome) {
		res, err := sess.ImportText(r)
		if err != nil {
			importErr = err
			return
		}
		out.Applied = true
		out.Import = &res
		s.observer.TextImported(res.Found, res.Updated)
		logging.FromContext(ctx).Info("text snapshot imported",
			"user", id.Name, "found", res.Found, "updated", res.Updated, "unmatched", len(res.Unmatched))
	})
	if err != nil {
		return out, err
	}
	return out, importErr
}

// ShowAll reloads an unselected copy of the master catalog into a list that
// has no products, for identities that do not edit the master.
func (s *Service) ShowAll(ctx context.Context, id Identity) (Outcome, error) {
	return s.mutate(ctx, id, "show_all", func(sess *Session, out *Outcome) {
		if id.Can(CapEditMaster) || !sess.isEmpty() {
			return
		}
		catalog, version := s.currentCatalog()
		if len(catalog) == 0 {
			return
		}
		sess.replace(Snapshot{Products: catalog.Clone()}, version)
		out.Applied = true
	})
}

// Reset purges id's persisted list and clears it in memory. With reload the
// list is refilled from the master catalog and saved. Identities that edit
// the master always reload, since saving an empty list would empty the
// master too.
func (s *Service) Reset(ctx context.Context, id Identity, reload bool) (Outcome, error) {
	sess := s.session(id)
	sess.op.Lock()
	defer sess.op.Unlock()

	logger := logging.FromContext(ctx)
	out := Outcome{Applied: true}

	if err := s.store.Delete(ctx, id.SnapshotKey()); err != nil {
		logger.Warn("failed to purge snapshot", "user", id.Name, "error", err)
		s.observer.PersistFailed(id.SnapshotKey())
		out.Warning = FormatUserError(fmt.Errorf("persist snapshot %q: %w", id.SnapshotKey(), err))
	}

	catalog, version := s.currentCatalog()
	if !reload && !id.Can(CapEditMaster) {
		sess.replace(Snapshot{}, version)
		s.observer.MutationApplied("reset", true)
		return out, nil
	}

	sess.replace(Snapshot{Products: catalog.Clone()}, version)
	if err := s.persist(ctx, sess); err != nil {
		logger.Warn("failed to save reloaded list", "user", id.Name, "error", err)
		out.Warning = FormatUserError(err)
	}
	s.observer.MutationApplied("reset", true)
	return out, nil
}

// ImportCatalog parses a catalog source and makes it the master catalog.
// On any parse failure the current catalog is kept. Other identities'
// lists reconcile against the new catalog the next time they are opened.
func (s *Service) ImportCatalog(ctx context.Context, id Identity, r io.Reader) (CatalogSummary, error) {
	if !id.Can(CapImportCatalog) {
		return CatalogSummary{}, ErrForbidden
	}

	catalog, err := ParseCatalog(r, ImportOptions{Delimiter: s.opts.Delimiter, DefaultAisle: s.opts.DefaultAisle})
	if err != nil {
		return CatalogSummary{}, err
	}

	logger := logging.WithFields(ctx, "user", id.Name)
	s.setCatalog(catalog)
	s.observer.CatalogImported(len(catalog))

	summary := CatalogSummary{Products: len(catalog), Aisles: s.sorter.Aisles(catalog)}
	if err := s.putMaster(ctx, catalog); err != nil {
		logger.Warn("failed to persist master catalog", "error", err)
		summary.Warning = FormatUserError(err)
	}

	sess, err := s.Open(ctx, id)
	if err != nil {
		return summary, err
	}
	sess.op.Lock()
	if err := s.persist(ctx, sess); err != nil && summary.Warning == "" {
		summary.Warning = FormatUserError(err)
	}
	sess.op.Unlock()

	logger.Info("catalog imported", "products", summary.Products, "aisles", len(summary.Aisles))
	return summary, nil
}

// AddProduct appends a product to the master catalog through id's list.
func (s *Service) AddProduct(ctx context.Context, id Identity, name, aisle string) (Outcome, error) {
	name, aisle, err := s.validateProduct(id, name, aisle)
	if err != nil {
		return Outcome{}, err
	}
	return s.mutate(ctx, id, "add_product", func(sess *Session, out *Outcome) {
		p := Product{ID: uuid.NewString(), Name: name, Aisle: aisle}
		sess.addProduct(p)
		out.Applied = true
		out.Product = &p
	})
}

// EditProduct renames ref and moves it to aisle.
func (s *Service) EditProduct(ctx context.Context, id Identity, ref, name, aisle string) (Outcome, error) {
	name, aisle, err := s.validateProduct(id, name, aisle)
	if err != nil {
		return Outcome{}, err
	}
	return s.productMutation(ctx, id, "edit_product", ref, func(sess *Session) (Product, bool) {
		return sess.update(ref, true, func(p *Product) {
			p.Name = name
			p.Aisle = aisle
		})
	})
}

// DeleteProduct removes ref from the master catalog through id's list.
func (s *Service) DeleteProduct(ctx context.Context, id Identity, ref string) (Outcome, error) {
	if !id.Can(CapEditMaster) {
		return Outcome{}, ErrForbidden
	}
	return s.productMutation(ctx, id, "delete_product", ref, func(sess *Session) (Product, bool) {
		return sess.removeProduct(ref)
	})
}

func (s *Service) validateProduct(id Identity, name, aisle string) (string, string, error) {
	if !id.Can(CapEditMaster) {
		return "", "", ErrForbidden
	}
	name, aisle = strings.TrimSpace(name), strings.TrimSpace(aisle)
	if name == "" || aisle == "" {
		return "", "", ErrInvalidProduct
	}
	return name, aisle, nil
}

// productMutation runs fn against one product and records a missing
// reference as a logged no-op.
func (s *Service) productMutation(ctx context.Context, id Identity, op, ref string, fn func(*Session) (Product, bool)) (Outcome, error) {
	return s.mutate(ctx, id, op, func(sess *Session, out *Outcome) {
		p, ok := fn(sess)
		if !ok {
			logging.FromContext(ctx).Warn("product not found", "op", op, "ref", ref, "user", id.Name)
			return
		}
		out.Applied = true
		out.Product = &p
	})
}

// mutate applies fn to id's session and saves it when fn reports a change.
// A save failure becomes a warning on the outcome.
func (s *Service) mutate(ctx context.Context, id Identity, op string, fn func(*Session, *Outcome)) (Outcome, error) {
	sess := s.session(id)
	sess.op.Lock()
	defer sess.op.Unlock()

	if err := s.ensureLoaded(ctx, sess); err != nil {
		return Outcome{}, err
	}

	var out Outcome
	fn(sess, &out)
	s.observer.MutationApplied(op, out.Applied)
	if !out.Applied {
		return out, nil
	}

	if err := s.persist(ctx, sess); err != nil {
		logging.FromContext(ctx).Warn("mutation applied but not persisted", "op", op, "user", id.Name, "error", err)
		out.Warning = FormatUserError(err)
	}
	return out, nil
}

func (s *Service) session(id Identity) *Session {
	key := id.SnapshotKey()

	s.mu.Lock()
	sess, ok := s.sessions[key]
	if !ok {
		sess = &Session{svc: s, identity: id}
		s.sessions[key] = sess
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		s.observer.SessionsOpen(n)
	}
	return sess
}

// ensureLoaded reconciles sess against the current catalog when it has not
// been loaded yet or the catalog changed since. The caller holds sess.op.
func (s *Service) ensureLoaded(ctx context.Context, sess *Session) error {
	catalog, version := s.currentCatalog()
	loaded, sessVersion := sess.state()
	if loaded && sessVersion == version {
		return nil
	}

	var prior *Snapshot
	if loaded {
		cur := sess.Snapshot()
		prior = &cur
	} else {
		p, err := s.loadSnapshot(ctx, sess.identity)
		if err != nil {
			return err
		}
		prior = p
	}

	snap, created := Reconcile(catalog, prior)
	sess.replace(snap, version)

	if created {
		if err := s.persist(ctx, sess); err != nil {
			logging.FromContext(ctx).Warn("failed to persist new list", "user", sess.identity.Name, "error", err)
		}
	}
	return nil
}

func (s *Service) loadSnapshot(ctx context.Context, id Identity) (*Snapshot, error) {
	data, err := s.store.Get(ctx, id.SnapshotKey())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %q: %w", id.SnapshotKey(), err)
	}

	snap, err := decodeSnapshot(data)
	if err != nil {
		logging.FromContext(ctx).Warn("discarding unreadable snapshot", "user", id.Name, "error", err)
		return nil, nil
	}
	return &snap, nil
}

// decodeSnapshot accepts the current object form and the bare product array
// written before lists carried observations.
func decodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &snap.Products); err != nil {
			return Snapshot{}, err
		}
	} else if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, err
	}
	ensureIDs(snap.Products)
	return snap, nil
}

func (s *Service) persist(ctx context.Context, sess *Session) error {
	snap := sess.Snapshot()
	key := sess.identity.SnapshotKey()

	var errs []error
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %q: %w", key, err)
	}
	if err := s.store.Put(ctx, key, data); err != nil {
		s.observer.PersistFailed(key)
		errs = append(errs, fmt.Errorf("persist snapshot %q: %w", key, err))
	}

	if sess.identity.Can(CapEditMaster) {
		master := Catalog(snap.Products).Clone()
		if v, changed := s.replaceCatalog(master); changed {
			sess.setVersion(v)
		}
		if err := s.putMaster(ctx, master); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) putMaster(ctx context.Context, products []Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("encode master catalog: %w", err)
	}
	if err := s.store.Put(ctx, MasterKey, data); err != nil {
		s.observer.PersistFailed(MasterKey)
		return fmt.Errorf("persist snapshot %q: %w", MasterKey, err)
	}
	return nil
}

func (s *Service) currentCatalog() (Catalog, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog, s.version
}

func (s *Service) setCatalog(c Catalog) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = c
	s.version++
	return s.version
}

// replaceCatalog installs c when it differs from the current catalog.
func (s *Service) replaceCatalog(c Catalog) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sameCatalog(s.catalog, c) {
		return s.version, false
	}
	s.catalog = c
	s.version++
	return s.version, true
}

func sameCatalog(a, b Catalog) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Name != b[i].Name || a[i].Aisle != b[i].Aisle {
			return false
		}
	}
	return true
}
