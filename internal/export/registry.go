package export

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Format describes one export format.
type Format struct {
	Key         string
	Label       string
	Extension   string
	ContentType string
	// RequiresSelection rejects lists without checked products.
	RequiresSelection bool
	Render            func(w io.Writer, doc Document) error
}

var (
	registry   = make(map[string]Format)
	registryMu sync.RWMutex
)

// Register adds a format to the registry.
// Panics if a format with the same key is already registered.
func Register(f Format) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[f.Key]; exists {
		panic(fmt.Sprintf("export format already registered: %s", f.Key))
	}
	if f.Render == nil {
		panic(fmt.Sprintf("export format %s has no renderer", f.Key))
	}
	if f.Extension == "" {
		f.Extension = f.Key
	}
	registry[f.Key] = f
}

// Get returns a format by key.
// Returns false if not found.
func Get(key string) (Format, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	f, ok := registry[key]
	return f, ok
}

// All returns every registered format sorted by key.
func All() []Format {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Format, 0, len(registry))
	for _, f := range registry {
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}

// Keys returns the registered format keys, sorted.
func Keys() []string {
	formats := All()
	keys := make([]string, len(formats))
	for i, f := range formats {
		keys[i] = f.Key
	}
	return keys
}

// Clear removes all registered formats.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Format)
}

func init() {
	Register(Format{
		Key:               "pdf",
		Label:             "PDF",
		Extension:         "pdf",
		ContentType:       "application/pdf",
		RequiresSelection: true,
		Render:            RenderPDF,
	})
	Register(Format{
		Key:               "txt",
		Label:             "Checklist",
		Extension:         "txt",
		ContentType:       "text/plain; charset=utf-8",
		RequiresSelection: true,
		Render:            RenderChecklist,
	})
	Register(Format{
		Key:         "snapshot",
		Label:       "Re-importable text",
		Extension:   "txt",
		ContentType: "text/plain; charset=utf-8",
		Render:      RenderSnapshot,
	})
}
