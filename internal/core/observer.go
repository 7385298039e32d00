package core

// Observer receives notifications about service activity. The metrics
// package provides the production implementation.
type Observer interface {
	MutationApplied(op string, applied bool)
	PersistFailed(key string)
	CatalogImported(products int)
	TextImported(found, updated int)
	SessionsOpen(n int)
}

type nopObserver struct{}

func (nopObserver) MutationApplied(string, bool) {}
func (nopObserver) PersistFailed(string)         {}
func (nopObserver) CatalogImported(int)          {}
func (nopObserver) TextImported(int, int)        {}
func (nopObserver) SessionsOpen(int)             {}
