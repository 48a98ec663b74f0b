package sec

import (
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var ErrUnknownKID = errors.New("unknown key id")

// JWK - an RSA verification key in RFC 7517 form
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	N   string `json:"n"` // modulus, base64url
	E   string `json:"e"` // exponent, base64url
}

func NewJWK(kid string, pub *rsa.PublicKey) JWK {
	return JWK{
		Kty: "RSA",
		Use: "sig",
		Kid: kid,
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

func (j JWK) PublicKey() (*rsa.PublicKey, error) {
	if j.Kty != "RSA" {
		return nil, fmt.Errorf("kid %q: key type %q", j.Kid, j.Kty)
	}
	n, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, fmt.Errorf("kid %q: modulus: %w", j.Kid, err)
	}
	e, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, fmt.Errorf("kid %q: exponent: %w", j.Kid, err)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: int(new(big.Int).SetBytes(e).Int64())}, nil
}

// JWKS is served as-is on /.well-known/jwks.json. Keys are sorted by kid.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

func (s *JWKS) find(kid string) (JWK, bool) {
	if s == nil {
		return JWK{}, false
	}
	i := slices.IndexFunc(s.Keys, func(k JWK) bool { return k.Kid == kid })
	if i < 0 {
		return JWK{}, false
	}
	return s.Keys[i], true
}

// PublicKey returns the key published under kid.
func (s *JWKS) PublicKey(kid string) (*rsa.PublicKey, error) {
	k, ok := s.find(kid)
	if !ok {
		return nil, fmt.Errorf("kid %q: %w", kid, ErrUnknownKID)
	}
	return k.PublicKey()
}

// Add publishes pub under kid unless kid is already present.
func (s *JWKS) Add(kid string, pub *rsa.PublicKey) {
	if _, ok := s.find(kid); ok {
		return
	}
	s.Keys = append(s.Keys, NewJWK(kid, pub))
	slices.SortFunc(s.Keys, func(a, b JWK) int { return strings.Compare(a.Kid, b.Kid) })
}

// LoadJWKS publishes every {kid}_public.pem in dir. Keys other than RSA are
// skipped.
func LoadJWKS(dir string) (*JWKS, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read key dir: %w", err)
	}
	suffix := PublicKeyFile("")
	set := &JWKS{}
	for _, entry := range entries {
		kid, ok := strings.CutSuffix(entry.Name(), suffix)
		if entry.IsDir() || !ok || kid == "" {
			continue
		}
		pub, err := LoadPublicKey(filepath.Join(dir, entry.Name()))
		if errors.Is(err, errNotRSA) {
			continue
		}
		if err != nil {
			return nil, err
		}
		set.Add(kid, pub)
	}
	return set, nil
}
