// ABOUTME: API key storage in ~/.toolagent/auth.yaml with 0600 permissions
// ABOUTME: Consulted after config and environment when resolving a provider key

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// AuthStore holds API keys by provider name.
type AuthStore struct {
	path string
	mu   sync.Mutex
	keys map[string]string
}

type authFile struct {
	Keys map[string]string `yaml:"keys"`
}

// LoadAuth reads the auth file at path, or returns an empty store if it
// doesn't exist.
func LoadAuth(path string) (*AuthStore, error) {
	store := &AuthStore{path: path, keys: make(map[string]string)}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading auth file: %w", err)
	}
	var f authFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing auth file: %w", err)
	}
	for k, v := range f.Keys {
		store.keys[strings.ToLower(k)] = v
	}
	return store, nil
}

// Save writes the store to disk with restricted permissions.
func (a *AuthStore) Save() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := EnsureDir(filepath.Dir(a.path)); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(authFile{Keys: a.keys})
	if err != nil {
		return fmt.Errorf("marshaling auth: %w", err)
	}
	if err := os.WriteFile(a.path, data, 0o600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	return nil
}

// Key returns the stored key for provider, or "".
func (a *AuthStore) Key(provider string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.keys[strings.ToLower(provider)]
}

// SetKey stores an API key for a provider. An empty key removes it.
func (a *AuthStore) SetKey(provider, key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if key == "" {
		delete(a.keys, strings.ToLower(provider))
		return
	}
	a.keys[strings.ToLower(provider)] = key
}
