// Package secretstore resolves webhook.signing.secret_ref values against a
// host-provided secret store. This is the trivial environment-backed
// implementation; a production deployment would swap this for
// Vault/SSM/Secrets Manager without touching call sites.
package secretstore

import (
	"fmt"
	"os"
)

type Store interface {
	Resolve(ref string) (string, error)
}

// EnvStore resolves a secret_ref by looking up an environment variable of
// the same name, prefixed to avoid collisions with unrelated process env.
type EnvStore struct {
	Prefix string
}

func NewEnvStore(prefix string) *EnvStore {
	return &EnvStore{Prefix: prefix}
}

func (s *EnvStore) Resolve(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty secret_ref")
	}
	v, ok := os.LookupEnv(s.Prefix + ref)
	if !ok {
		return "", fmt.Errorf("secret_ref %q not found", ref)
	}
	return v, nil
}
