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

// Package keyfactory turns PKCS#8 containers into typed Go private keys and
// back. Algorithms are dispatched by name through a Registry; algorithms
// without a parser stay as raw containers.
package keyfactory

import (
	"crypto"
	"sort"
	"sync"

	"github.com/jeremyhahn/go-pkcs8/pkg/algid"
	"github.com/jeremyhahn/go-pkcs8/pkg/pkcs8"
)

// Parser converts a decoded container into a typed private key. A parser
// must not retain or modify the container.
type Parser func(c *pkcs8.Container) (crypto.PrivateKey, error)

// Registry maps algorithm names to parsers. It is safe for concurrent use.
type Registry struct {
	parsers map[string]Parser
	mu      sync.RWMutex
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns the shared registry with parsers for RSA, EC, Ed25519,
// X25519, Ed448 and X448.
func Default() *Registry {
	defaultOnce.Do(func() {
		r := NewRegistry()
		r.Register(algid.NameRSA, parseStandard)
		r.Register(algid.NameEC, parseStandard)
		r.Register(algid.NameEd25519, parseStandard)
		r.Register(algid.NameX25519, parseStandard)
		r.Register(algid.NameEd448, parseEd448)
		r.Register(algid.NameX448, parseX448)
		defaultRegistry = r
	})
	return defaultRegistry
}

// Register installs p for the algorithm name, replacing any previous parser.
// A nil parser removes the entry.
func (r *Registry) Register(name string, p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p == nil {
		delete(r.parsers, name)
		return
	}
	r.parsers[name] = p
}

// Lookup returns the parser registered for name.
func (r *Registry) Lookup(name string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[name]
	return p, ok
}

// Names returns the registered algorithm names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseKey strictly decodes der and hands the container to the parser
// registered for its algorithm. On success the container is wiped and the
// typed key returned. When no parser exists, or the parser rejects the key,
// the *pkcs8.Container itself is returned.
func (r *Registry) ParseKey(der []byte) (crypto.PrivateKey, error) {
	if len(der) == 0 {
		return nil, ErrInvalidData
	}
	c, err := pkcs8.Decode(der)
	if err != nil {
		return nil, err
	}

	p, ok := r.Lookup(c.Algorithm())
	if !ok {
		return c, nil
	}
	key, err := p(c)
	if err != nil {
		return c, nil
	}
	c.Wipe()
	return key, nil
}

// ParseKey parses der with the default registry.
func ParseKey(der []byte) (crypto.PrivateKey, error) {
	return Default().ParseKey(der)
}
