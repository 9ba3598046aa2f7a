package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCredFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestCredentialStoreEnvOnly(t *testing.T) {
	s := NewCredentialStore("admin", "secret", "")

	assert.True(t, s.Enabled())
	assert.True(t, s.Known("admin"))
	assert.True(t, s.Verify("admin", "secret"))
	assert.False(t, s.Verify("admin", "wrong"))
	assert.False(t, s.Verify("other", "secret"))
}

func TestCredentialStoreDisabled(t *testing.T) {
	s := NewCredentialStore("", "", "")

	assert.False(t, s.Enabled())
	assert.False(t, s.Verify("", ""))
}

func TestCredentialFileShapes(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"users list", `{"users": [{"username": "alice", "password": "pw1"}]}`},
		{"single object", `{"username": "alice", "password": "pw1"}`},
		{"bare list", `[{"username": "alice", "password": "pw1"}]`},
		{"user/pass aliases", `[{"user": "alice", "pass": "pw1"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewCredentialStore("", "", writeCredFile(t, tt.content))

			assert.True(t, s.Enabled())
			assert.True(t, s.Verify("alice", "pw1"))
		})
	}
}

func TestCredentialFileOverridesEnv(t *testing.T) {
	path := writeCredFile(t, `{"users": [{"username": "admin", "password": "rotated"}]}`)
	s := NewCredentialStore("admin", "stale", path)

	assert.True(t, s.Verify("admin", "rotated"))
	assert.False(t, s.Verify("admin", "stale"))
}

func TestCredentialRefreshPicksUpChanges(t *testing.T) {
	path := writeCredFile(t, `[{"username": "alice", "password": "pw1"}]`)
	s := NewCredentialStore("", "", path)
	require.True(t, s.Verify("alice", "pw1"))

	require.NoError(t, os.WriteFile(path, []byte(`[{"username": "bob", "password": "pw2"}]`), 0600))
	s.Refresh()

	assert.False(t, s.Known("alice"))
	assert.True(t, s.Verify("bob", "pw2"))
}

func TestCredentialFileMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{{{`},
		{"wrong types", `[{"username": 42, "password": true}]`},
		{"missing password", `[{"username": "alice"}]`},
		{"scalar", `"admin"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewCredentialStore("", "", writeCredFile(t, tt.content))
			assert.False(t, s.Enabled())
		})
	}
}

func TestCredentialFileMissing(t *testing.T) {
	s := NewCredentialStore("env", "pw", filepath.Join(t.TempDir(), "nope.json"))

	assert.True(t, s.Enabled(), "env pair still applies when the file is absent")
	assert.True(t, s.Verify("env", "pw"))
}
