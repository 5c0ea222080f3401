// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-pkcs8.
//
// go-pkcs8 is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package keystore persists PKCS#8 containers by ID. Every import is
// strictly decoded and stored in canonical form; every read is decoded
// again so a tampered entry is reported rather than returned.
package keystore

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jeremyhahn/go-pkcs8/pkg/logging"
	"github.com/jeremyhahn/go-pkcs8/pkg/metrics"
	"github.com/jeremyhahn/go-pkcs8/pkg/pkcs8"
	"github.com/jeremyhahn/go-pkcs8/pkg/secure"
	"github.com/jeremyhahn/go-pkcs8/pkg/storage"
	"github.com/jeremyhahn/go-pkcs8/pkg/validation"
)

// Store is a container store on top of a storage.Backend. It is safe for
// concurrent use.
type Store struct {
	storage storage.Backend
	logger  *logging.Logger
	backend string
	mu      sync.RWMutex
	closed  bool
}

// New creates a Store with the given configuration.
//
// Example usage:
//
//	store, err := keystore.New(&keystore.Config{
//	    Storage: memory.New(),
//	    Backend: "memory",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	id, err := store.Import("", der)
func New(cfg *Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Store{
		storage: cfg.Storage,
		logger:  cfg.Logger,
		backend: cfg.Backend,
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if s.backend == "" {
		s.backend = DefaultBackend
	}
	s.logger = s.logger.With("backend", s.backend)
	s.refreshCount()
	return s, nil
}

// Import strictly decodes der and stores its canonical encoding under id.
// An empty id is replaced with a random UUID. The stored ID is returned.
func (s *Store) Import(id string, der []byte) (string, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.importLocked(id, der)
	s.observe(metrics.OpImport, start, err)
	return id, err
}

func (s *Store) importLocked(id string, der []byte) (string, error) {
	if s.closed {
		return "", ErrClosed
	}
	if id == "" {
		id = uuid.NewString()
	}
	if err := validation.ValidateKeyID(id); err != nil {
		return "", err
	}

	c, err := pkcs8.Decode(der)
	if err != nil {
		s.recordDecodeError(err)
		return "", fmt.Errorf("keystore: import %s: %w", id, err)
	}
	defer s.wipe(c)

	exists, err := s.storage.Exists(keyPath(id))
	if err != nil {
		return "", fmt.Errorf("keystore: import %s: %w", id, err)
	}
	if exists {
		return "", fmt.Errorf("%w: %s", ErrKeyExists, id)
	}

	enc, err := c.Encode()
	if err != nil {
		return "", fmt.Errorf("keystore: import %s: %w", id, err)
	}
	defer secure.Zero(enc)

	if err := s.storage.Put(keyPath(id), enc, storage.DefaultOptions()); err != nil {
		return "", fmt.Errorf("keystore: import %s: %w", id, err)
	}
	s.refreshCount()

	s.logger.Info("imported key",
		"id", id,
		"algorithm", c.Algorithm(),
		"version", c.Version().String(),
		"public_key", c.HasPublicKey())
	return id, nil
}

// Get returns the container stored under id. The caller owns the result
// and should Wipe it when done.
func (s *Store) Get(id string) (*pkcs8.Container, error) {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.getLocked(id)
	s.observe(metrics.OpGet, start, err)
	return c, err
}

func (s *Store) getLocked(id string) (*pkcs8.Container, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if err := validation.ValidateKeyID(id); err != nil {
		return nil, err
	}

	data, err := s.storage.Get(keyPath(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, id)
		}
		return nil, fmt.Errorf("keystore: get %s: %w", id, err)
	}
	defer secure.Zero(data)

	c, err := pkcs8.Decode(data)
	if err != nil {
		s.recordDecodeError(err)
		s.logger.Warn("stored key failed to decode", "id", id, "error", err.Error())
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, id, err)
	}
	return c, nil
}

// Export returns the canonical encoding of the container stored under id.
func (s *Store) Export(id string) ([]byte, error) {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	der, err := s.exportLocked(id)
	s.observe(metrics.OpExport, start, err)
	return der, err
}

func (s *Store) exportLocked(id string) ([]byte, error) {
	c, err := s.getLocked(id)
	if err != nil {
		return nil, err
	}
	defer s.wipe(c)

	der, err := c.Encode()
	if err != nil {
		return nil, fmt.Errorf("keystore: export %s: %w", id, err)
	}
	s.logger.Debug("exported key", "id", id)
	return der, nil
}

// Delete removes the container stored under id.
func (s *Store) Delete(id string) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.deleteLocked(id)
	s.observe(metrics.OpDelete, start, err)
	return err
}

func (s *Store) deleteLocked(id string) error {
	if s.closed {
		return ErrClosed
	}
	if err := validation.ValidateKeyID(id); err != nil {
		return err
	}

	if err := s.storage.Delete(keyPath(id)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrKeyNotFound, id)
		}
		return fmt.Errorf("keystore: delete %s: %w", id, err)
	}
	s.refreshCount()

	s.logger.Info("deleted key", "id", id)
	return nil
}

// List returns the stored IDs in sorted order.
func (s *Store) List() ([]string, error) {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, err := s.listLocked()
	s.observe(metrics.OpList, start, err)
	return ids, err
}

func (s *Store) listLocked() ([]string, error) {
	if s.closed {
		return nil, ErrClosed
	}
	keys, err := s.storage.List(storage.KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("keystore: list: %w", err)
	}

	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, strings.TrimPrefix(key, storage.KeyPrefix))
	}
	return ids, nil
}

// Equal reports whether the containers stored under idA and idB have the
// same canonical encoding.
func (s *Store) Equal(idA, idB string) (bool, error) {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	equal, err := s.equalLocked(idA, idB)
	s.observe(metrics.OpCompare, start, err)
	return equal, err
}

func (s *Store) equalLocked(idA, idB string) (bool, error) {
	a, err := s.getLocked(idA)
	if err != nil {
		return false, err
	}
	defer s.wipe(a)

	b, err := s.getLocked(idB)
	if err != nil {
		return false, err
	}
	defer s.wipe(b)

	return a.Equal(b), nil
}

// Close closes the store and its storage backend.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.storage.Close()
}

func keyPath(id string) string {
	return storage.KeyPrefix + id
}

func (s *Store) wipe(c *pkcs8.Container) {
	c.Wipe()
	metrics.RecordWipe()
}

func (s *Store) observe(op string, start time.Time, err error) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
		s.logger.Debug("operation failed",
			"operation", op,
			"error", validation.SanitizeForLog(err.Error()))
	}
	metrics.RecordOperation(op, status, time.Since(start).Seconds())
}

func (s *Store) recordDecodeError(err error) {
	var decErr *pkcs8.DecodeError
	if errors.As(err, &decErr) {
		metrics.RecordDecodeError(decErr.Kind.String())
	}
}

// refreshCount must be called with the lock held or before the store is shared.
func (s *Store) refreshCount() {
	keys, err := s.storage.List(storage.KeyPrefix)
	if err != nil {
		return
	}
	metrics.SetKeysTotal(s.backend, float64(len(keys)))
}
