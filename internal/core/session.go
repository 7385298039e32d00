package core

import (
	"context"
	"io"
	"strconv"
	"strings"
	"sync"
)

// Session is the open list of one identity. Its methods mutate memory only;
// Save persists. Service wraps each mutation and its Save in one critical
// section, which is the path HTTP handlers and the TUI use.
type Session struct {
	svc      *Service
	identity Identity

	// op serializes mutate-then-persist sequences.
	op sync.Mutex

	mu      sync.RWMutex
	snap    Snapshot
	aisles  []string
	version uint64
	loaded  bool
}

// Identity returns the owner of the session.
func (s *Session) Identity() Identity {
	return s.identity
}

// Snapshot returns a copy of the current list.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.clone()
}

// Aisles returns the distinct aisles of the list in display order.
func (s *Session) Aisles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.aisles...)
}

// Product looks up ref by ID, then by name.
func (s *Session) Product(ref string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := findProduct(s.snap.Products, ref); i >= 0 {
		return s.snap.Products[i], true
	}
	return Product{}, false
}

// Toggle flips the checked state of ref. It reports false when ref does not
// name a product.
func (s *Session) Toggle(ref string) (Product, bool) {
	return s.update(ref, false, func(p *Product) { p.Toggle() })
}

// SetQuantity sets the quantity of ref, clamped to [0, MaxQuantity]. Zero
// or less unchecks the product.
func (s *Session) SetQuantity(ref string, value int) (Product, bool) {
	return s.update(ref, false, func(p *Product) { p.SetQuantity(value) })
}

// SetQuantityString coerces raw the way a quantity form field is read:
// leading integer digits count, anything unparseable is zero.
func (s *Session) SetQuantityString(ref, raw string) (Product, bool) {
	return s.SetQuantity(ref, ParseQuantity(raw))
}

// SetAisle moves ref to aisle. A blank aisle becomes the default aisle.
func (s *Session) SetAisle(ref, aisle string) (Product, bool) {
	aisle = strings.TrimSpace(aisle)
	if aisle == "" {
		aisle = s.svc.opts.DefaultAisle
	}
	return s.update(ref, true, func(p *Product) { p.Aisle = aisle })
}

// SetObservations replaces the free-text notes.
func (s *Session) SetObservations(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Observations = text
}

// ClearAll unchecks every product and clears the observations.
func (s *Session) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.snap.Products {
		s.snap.Products[i].reset()
	}
	s.snap.Observations = ""
}

// ImportText replaces the selection with the one described by a text
// snapshot. Every product is unchecked first; entries that match no product
// are reported, not failed. Observations are replaced only when the text
// carries an observations block.
func (s *Session) ImportText(r io.Reader) (TextImportResult, error) {
	parsed, err := parseSnapshotText(r)
	if err != nil {
		return TextImportResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res := applyText(s.snap.Products, parsed)
	if parsed.hasObservations {
		s.snap.Observations = strings.Join(parsed.observations, "\n")
	}
	return res, nil
}

// Save persists the list. For identities holding CapEditMaster the list,
// with selections cleared, also becomes the shared master catalog.
func (s *Session) Save(ctx context.Context) error {
	return s.svc.persist(ctx, s)
}

func (s *Session) update(ref string, aislesChanged bool, fn func(*Product)) (Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := findProduct(s.snap.Products, ref)
	if i < 0 {
		return Product{}, false
	}
	fn(&s.snap.Products[i])
	if aislesChanged {
		s.aisles = s.svc.sorter.Aisles(s.snap.Products)
	}
	return s.snap.Products[i], true
}

func (s *Session) replace(snap Snapshot, version uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.Products == nil {
		snap.Products = []Product{}
	}
	s.snap = snap
	s.aisles = s.svc.sorter.Aisles(snap.Products)
	s.version = version
	s.loaded = true
}

func (s *Session) state() (loaded bool, version uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded, s.version
}

func (s *Session) setVersion(v uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = v
}

func (s *Session) addProduct(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Products = append(s.snap.Products, p)
	s.aisles = s.svc.sorter.Aisles(s.snap.Products)
}

func (s *Session) removeProduct(ref string) (Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := findProduct(s.snap.Products, ref)
	if i < 0 {
		return Product{}, false
	}
	removed := s.snap.Products[i]
	s.snap.Products = append(s.snap.Products[:i], s.snap.Products[i+1:]...)
	s.aisles = s.svc.sorter.Aisles(s.snap.Products)
	return removed, true
}

func (s *Session) isEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snap.Products) == 0
}

// ParseQuantity reads the leading integer of raw. Non-numeric input and
// negative numbers yield 0; values past MaxQuantity yield MaxQuantity.
func ParseQuantity(raw string) int {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "-") {
		return 0
	}
	raw = strings.TrimPrefix(raw, "+")

	end := 0
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(raw[:end])
	if err != nil || n > MaxQuantity {
		return MaxQuantity
	}
	return n
}
