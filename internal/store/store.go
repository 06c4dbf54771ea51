// Package store is the durable key-value document store shared by every
// window of the application.
//
// A document is identified by a namespace ("prompts.json", "settings.json",
// "license.json") and holds named JSON values. Each Load reads the document
// from the backend again; handles never share memory. Save writes the whole
// document, so two handles that race on the same namespace follow
// last-save-wins semantics. There is no locking and no versioning here.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/existflow/promptpicker/internal/logger"
)

// Well-known namespaces
const (
	NamespacePrompts  = "prompts.json"
	NamespaceSettings = "settings.json"
	NamespaceLicense  = "license.json"
)

var (
	// ErrCorrupt is returned by Load when a document exists but is not a JSON object.
	ErrCorrupt = errors.New("store document is corrupt")
	// ErrClosed is returned when using a handle after its store was closed.
	ErrClosed = errors.New("store is closed")
)

// Document is the raw content of one namespace.
type Document map[string]json.RawMessage

// Backend persists whole documents.
type Backend interface {
	// Read returns the document body, or nil with no error if it does not exist.
	Read(ctx context.Context, namespace string) ([]byte, error)
	// Write replaces the document body.
	Write(ctx context.Context, namespace string, body []byte) error
	// Quarantine moves a corrupt document out of the way and returns where it went.
	Quarantine(ctx context.Context, namespace string) (string, error)
	Close() error
}

// Store opens document handles on a backend.
type Store struct {
	backend Backend
	log     *logger.Logger
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used for store diagnostics
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New creates a store over backend
func New(backend Backend, opts ...Option) *Store {
	s := &Store{backend: backend, log: logger.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the backend
func (s *Store) Close() error {
	return s.backend.Close()
}

// Load opens the document for namespace, creating an empty one in memory if it
// does not exist yet. A malformed document yields ErrCorrupt.
func (s *Store) Load(ctx context.Context, namespace string) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := s.backend.Read(ctx, namespace)
	if err != nil {
		s.log.Error("Failed to read store document", logger.F("namespace", namespace), logger.F("error", err))
		return nil, fmt.Errorf("failed to read %s: %w", namespace, err)
	}

	doc := Document{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &doc); err != nil {
			s.log.Warn("Store document is not valid JSON", logger.F("namespace", namespace), logger.F("error", err))
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, namespace, err)
		}
		if doc == nil {
			// "null" on disk
			doc = Document{}
		}
	}

	return &Handle{store: s, namespace: namespace, doc: doc}, nil
}

// Quarantine moves a corrupt namespace aside so it can be rebuilt
func (s *Store) Quarantine(ctx context.Context, namespace string) (string, error) {
	dest, err := s.backend.Quarantine(ctx, namespace)
	if err != nil {
		return "", fmt.Errorf("failed to quarantine %s: %w", namespace, err)
	}
	s.log.Warn("Corrupt store document moved aside", logger.F("namespace", namespace), logger.F("dest", dest))
	return dest, nil
}

// Handle is one window's view of a document. It is not safe for concurrent use.
type Handle struct {
	store     *Store
	namespace string
	doc       Document
	dirty     bool
}

// Namespace returns the document name
func (h *Handle) Namespace() string { return h.namespace }

// Has reports whether key is set
func (h *Handle) Has(key string) bool {
	_, ok := h.doc[key]
	return ok
}

// Get decodes the value for key into out. It reports false when the key is
// absent. A JSON null counts as present.
func (h *Handle) Get(key string, out interface{}) (bool, error) {
	raw, ok := h.doc[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("failed to decode %s/%s: %w", h.namespace, key, err)
	}
	return true, nil
}

// Set stages value under key. It is not durable until Save.
func (h *Handle) Set(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", h.namespace, key, err)
	}
	h.doc[key] = raw
	h.dirty = true
	return nil
}

// Delete removes key; later Gets report it absent
func (h *Handle) Delete(key string) {
	if _, ok := h.doc[key]; ok {
		delete(h.doc, key)
		h.dirty = true
	}
}

// Keys returns the keys of the document in sorted order
func (h *Handle) Keys() []string {
	keys := make([]string, 0, len(h.doc))
	for k := range h.doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save flushes the whole document to the backend
func (h *Handle) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.MarshalIndent(h.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", h.namespace, err)
	}

	if err := h.store.backend.Write(ctx, h.namespace, body); err != nil {
		h.store.log.Error("Failed to save store document", logger.F("namespace", h.namespace), logger.F("error", err))
		return fmt.Errorf("failed to save %s: %w", h.namespace, err)
	}

	h.dirty = false
	h.store.log.Debug("Store document saved", logger.F("namespace", h.namespace), logger.F("bytes", len(body)))
	return nil
}

// Dirty reports whether there are staged changes
func (h *Handle) Dirty() bool { return h.dirty }
