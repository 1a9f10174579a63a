// Package session holds unlocked signing keys in memory and issues the JWT
// tokens that gate the wallet API. Keys never leave process memory; locking
// an account simply drops its key.
package session

import (
	"crypto/ecdsa"
	"strings"
	"sync"
)

// Registry maps unlocked account addresses to their signing keys
type Registry struct {
	mu   sync.RWMutex
	keys map[string]*ecdsa.PrivateKey
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{keys: make(map[string]*ecdsa.PrivateKey)}
}

// Put stores the signing key of an unlocked account
func (r *Registry) Put(address string, key *ecdsa.PrivateKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[strings.ToLower(address)] = key
}

// Get returns the signing key of an unlocked account
func (r *Registry) Get(address string) (*ecdsa.PrivateKey, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.keys[strings.ToLower(address)]
	return key, ok
}

// Drop removes an account's key from memory, locking it
func (r *Registry) Drop(address string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, strings.ToLower(address))
}

// DropAll removes every key, locking all accounts
func (r *Registry) DropAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = make(map[string]*ecdsa.PrivateKey)
}
