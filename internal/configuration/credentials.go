package configuration

import (
	"crypto/subtle"
	"encoding/json"
	"os"
	"sync"
)

// CredentialStore owns the allowed-users table for the listing surface.
// It replaces the original deployment's ambient global map: constructed
// once, injected into the handlers, refreshed explicitly.
type CredentialStore struct {
	envUser  string
	envPass  string
	filePath string

	mu    sync.RWMutex
	users map[string]string
}

func NewCredentialStore(envUser, envPass, filePath string) *CredentialStore {
	s := &CredentialStore{envUser: envUser, envPass: envPass, filePath: filePath}
	s.Refresh()
	return s
}

// Refresh rebuilds the table from the environment pair plus the
// credentials file. File entries override the environment entry for the
// same username, so operators can rotate a password without a restart.
func (s *CredentialStore) Refresh() {
	combined := map[string]string{}
	if s.envUser != "" && s.envPass != "" {
		combined[s.envUser] = s.envPass
	}
	for _, cred := range loadFileCredentials(s.filePath) {
		combined[cred.username] = cred.password
	}

	s.mu.Lock()
	s.users = combined
	s.mu.Unlock()
}

// Enabled reports whether any credentials exist at all. With none
// configured the listing surface is open.
func (s *CredentialStore) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users) > 0
}

// Known reports whether username is in the table.
func (s *CredentialStore) Known(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[username]
	return ok
}

// Verify checks a username/password pair against the table.
func (s *CredentialStore) Verify(username, password string) bool {
	s.mu.RLock()
	expected, ok := s.users[username]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(password)) == 1
}

type credential struct {
	username string
	password string
}

// loadFileCredentials accepts the three shapes deployed credential files
// already use: a single {username, password} object, {"users": [...]},
// or a bare list; "user" and "pass" are accepted as key aliases. An
// unreadable or malformed file yields no entries rather than an error.
func loadFileCredentials(path string) []credential {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	var entries []any
	switch v := raw.(type) {
	case map[string]any:
		if users, ok := v["users"].([]any); ok {
			entries = users
		} else {
			entries = []any{v}
		}
	case []any:
		entries = v
	}

	var creds []credential
	for _, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		username := stringField(obj, "username", "user")
		password := stringField(obj, "password", "pass")
		if username != "" && password != "" {
			creds = append(creds, credential{username: username, password: password})
		}
	}
	return creds
}

func stringField(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := obj[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
