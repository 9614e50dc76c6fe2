package test

import (
	"os"
	"testing"
)

// EnvVars holds settings for tests that talk to real Firestore or FCM.
type EnvVars map[string]string

// NewEnvVars skips t unless every key is set.
func NewEnvVars(t *testing.T, keys ...string) EnvVars {
	t.Helper()
	vars := EnvVars{}
	for _, key := range keys {
		value, ok := os.LookupEnv(key)
		if !ok || value == "" {
			t.Skipf("%s is not set", key)
		}
		vars[key] = value
	}
	return vars
}

// Get returns the value of key. Asking for a key that was not passed to
// NewEnvVars is a bug in the test and panics.
func (e EnvVars) Get(key string) string {
	v, ok := e[key]
	if !ok {
		panic("test env var was not requested: " + key)
	}
	return v
}
