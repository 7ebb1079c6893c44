// internal/secrets/secrets.go
//
// Secret reference resolver for workspace collaborators.
//
// Context
// -------
//   - The resolver core never touches secret material; it only carries
//     references such as database.password_env_var.  This package turns a
//     reference into a value at the point of use.
//   - Two reference forms are supported: "env:NAME" (or a bare variable
//     name, the password_env_var contract) and "vault:mount/path#key" for
//     KV-v2 secrets behind the HashiCorp Vault Go SDK.
//   - Vault lookups are cached per key with a TTL, so hot paths such as
//     connection-pool rebuilds do not hammer the Vault server.
//
// Environment expectations for Vault references
// ---------------------------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – initial token (falls back to ~/.vault-token).
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
)

const vaultCacheTTL = 5 * time.Minute

// Resolver turns secret references into values.  Safe for concurrent
// use.  The zero value resolves env references; Vault references lazily
// dial the server on first use.
type Resolver struct {
	mu    sync.Mutex
	api   *vault.Client
	cache map[string]cached
}

type cached struct {
	val string
	exp time.Time
}

// New returns a Resolver with an empty cache.
func New() *Resolver {
	return &Resolver{cache: make(map[string]cached)}
}

// Resolve maps a reference to its secret value:
//
//	"env:PGPASSWORD"          – environment variable
//	"PGPASSWORD"              – environment variable (bare form)
//	"vault:secret/media#pass" – KV-v2 key via Vault
//
// An unset environment variable is an error, not an empty string, so a
// missing secret fails loudly at connect time instead of producing an
// unauthenticated session.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	switch {
	case ref == "":
		return "", errors.New("secrets: empty reference")
	case strings.HasPrefix(ref, "vault:"):
		return r.fromVault(ctx, strings.TrimPrefix(ref, "vault:"))
	case strings.HasPrefix(ref, "env:"):
		return fromEnv(strings.TrimPrefix(ref, "env:"))
	default:
		return fromEnv(ref)
	}
}

func fromEnv(name string) (string, error) {
	val, ok := os.LookupEnv(name)
	if !ok {
		return "", fmt.Errorf("secrets: environment variable %q is not set", name)
	}
	return val, nil
}

func (r *Resolver) fromVault(ctx context.Context, ref string) (string, error) {
	path, key, ok := strings.Cut(ref, "#")
	if !ok || path == "" || key == "" {
		return "", fmt.Errorf("secrets: vault reference %q must be \"mount/path#key\"", ref)
	}

	r.mu.Lock()
	if cv, hit := r.cache[ref]; hit && time.Now().Before(cv.exp) {
		r.mu.Unlock()
		return cv.val, nil
	}
	api := r.api
	r.mu.Unlock()

	if api == nil {
		var err error
		api, err = dial()
		if err != nil {
			return "", err
		}
		r.mu.Lock()
		r.api = api
		r.mu.Unlock()
	}

	mount, rel := splitMount(path)
	sec, err := api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("secrets: vault get %s: %w", path, err)
	}
	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("secrets: key %q not found in secret %q", key, path)
	}
	val, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("secrets: value at %s#%s is not a string", path, key)
	}

	r.mu.Lock()
	r.cache[ref] = cached{val: val, exp: time.Now().Add(vaultCacheTTL)}
	r.mu.Unlock()
	return val, nil
}

func dial() (*vault.Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("secrets: vault env cfg: %w", err)
	}
	api, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("secrets: vault api: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		api.SetToken(tok)
	}
	return api, nil
}

func splitMount(p string) (mount, rel string) {
	parts := strings.SplitN(p, "/", 2)
	mount = parts[0]
	if len(parts) == 2 {
		rel = parts[1]
	}
	return
}
