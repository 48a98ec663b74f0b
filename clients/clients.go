// Package clients holds the API callers allowed to use the HTTP surface,
// loaded from config/.clients.json.
package clients

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync/atomic"

	"github.com/zeptools/gw-docs/sec"
	"github.com/zeptools/gw-docs/variant"
)

type ClientAppConf struct {
	ID         string    `json:"-"` // filled with a key from .clients.json
	Name       string    `json:"name"`
	SecretHash string    `json:"secret_hash"` // hex SHA-256 of the client secret
	Variants   []string  `json:"variants"`    // allowed variants; empty = all
	CanSign    bool      `json:"can_sign"`
	DebugOpts  DebugOpts `json:"debug_opts"`
}

// DebugOpts for Each Client App
type DebugOpts struct {
	// EchoRecord returns the derived amounts with every render response.
	EchoRecord bool `json:"echo_record"`
}

// Authenticate compares secret with the stored hash in constant time.
func (c *ClientAppConf) Authenticate(secret string) bool {
	if c.SecretHash == "" || secret == "" {
		return false
	}
	got := sec.HashHexSHA256([]byte(secret))
	return subtle.ConstantTimeCompare([]byte(got), []byte(c.SecretHash)) == 1
}

func (c *ClientAppConf) Allows(v variant.Variant) bool {
	return len(c.Variants) == 0 || slices.Contains(c.Variants, string(v))
}

// Ctx Access Helpers

type ctxKey struct{}

func WithClientConf(ctx context.Context, conf ClientAppConf) context.Context {
	return context.WithValue(ctx, ctxKey{}, conf)
}

func ClientConfFromContext(ctx context.Context) (ClientAppConf, bool) {
	ctxVal := ctx.Value(ctxKey{})
	val, ok := ctxVal.(ClientAppConf)
	return val, ok
}

// Registry holds the client apps behind an atomic pointer so the set can be
// hot-reloaded while requests are served.
type Registry struct {
	apps atomic.Pointer[map[string]ClientAppConf]
}

func NewRegistry(apps map[string]ClientAppConf) *Registry {
	r := &Registry{}
	r.Store(apps)
	return r
}

// Store swaps in a new set. A single atomic store.
func (r *Registry) Store(apps map[string]ClientAppConf) {
	if apps == nil {
		apps = map[string]ClientAppConf{}
	}
	r.apps.Store(&apps)
}

// Get returns the conf of id with ID filled in.
func (r *Registry) Get(id string) (ClientAppConf, bool) {
	if r == nil {
		return ClientAppConf{}, false
	}
	m := r.apps.Load()
	if m == nil {
		return ClientAppConf{}, false
	}
	conf, ok := (*m)[id]
	conf.ID = id
	return conf, ok
}

func (r *Registry) Len() int {
	if m := r.apps.Load(); m != nil {
		return len(*m)
	}
	return 0
}

// LoadFile reads a config/.clients.json style map keyed by client id.
func LoadFile(path string) (map[string]ClientAppConf, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var apps map[string]ClientAppConf
	if err = json.Unmarshal(b, &apps); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return apps, nil
}
