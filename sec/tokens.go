package sec

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenConf - config/.tokens.json
type TokenConf struct {
	Issuer         string `json:"issuer"`
	Alg            string `json:"alg"` // HS256 (default) or RS256
	Secret         string `json:"secret"`
	SecretEnc      string `json:"secret_enc"`       // HS256 secret encrypted with the config cipher
	PrivateKeyFile string `json:"private_key_file"` // RS256 signing key, PKCS#1 or PKCS#8 PEM
	PublicKeyDir   string `json:"public_key_dir"`   // RS256 verification keys, {kid}_public.pem
	KID            string `json:"kid"`              // RS256 key ID of the signing key
	TTLSec         int    `json:"ttl_sec"`          // default 900
}

func (c *TokenConf) TTL() time.Duration {
	if c.TTLSec <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.TTLSec) * time.Second
}

// DocumentClaims grant read access to one stored document.
type DocumentClaims struct {
	Path    string `json:"path"` // storage-relative
	Variant string `json:"variant,omitempty"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies short-lived document download tokens.
type Tokens struct {
	issuer  string
	ttl     time.Duration
	method  jwt.SigningMethod
	signKey any
	kid     string
	secret  []byte // HS256
	keys    *JWKS  // RS256
	now     func() time.Time
}

func NewHS256Tokens(issuer string, secret []byte, ttl time.Duration) (*Tokens, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("HS256 secret must be at least 32 bytes, got %d", len(secret))
	}
	return &Tokens{
		issuer:  issuer,
		ttl:     ttl,
		method:  jwt.SigningMethodHS256,
		signKey: secret,
		secret:  secret,
		now:     time.Now,
	}, nil
}

// NewRS256Tokens signs with privateKey under kid and verifies against keys.
// The signing key is published under kid when keys lack it.
func NewRS256Tokens(issuer string, privateKey *rsa.PrivateKey, kid string, keys *JWKS, ttl time.Duration) (*Tokens, error) {
	if keys == nil {
		keys = &JWKS{}
	}
	keys.Add(kid, &privateKey.PublicKey)
	return &Tokens{
		issuer:  issuer,
		ttl:     ttl,
		method:  jwt.SigningMethodRS256,
		signKey: privateKey,
		kid:     kid,
		keys:    keys,
		now:     time.Now,
	}, nil
}

// JWKS publishes the RS256 verification keys; nil for HS256.
func (t *Tokens) JWKS() *JWKS {
	return t.keys
}

func (t *Tokens) Issue(path string, variant string) (string, error) {
	jti, err := GenerateOpaqueToken(16)
	if err != nil {
		return "", err
	}
	now := t.now()
	claims := DocumentClaims{
		Path:    path,
		Variant: variant,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			ID:        jti,
		},
	}
	token := jwt.NewWithClaims(t.method, claims)
	if t.kid != "" {
		token.Header["kid"] = t.kid
	}
	return token.SignedString(t.signKey)
}

func (t *Tokens) Verify(signedToken string) (*DocumentClaims, error) {
	claims := &DocumentClaims{}
	_, err := jwt.ParseWithClaims(signedToken, claims, t.keyFunc,
		jwt.WithValidMethods([]string{t.method.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Path == "" {
		return nil, errors.New("token carries no document path")
	}
	return claims, nil
}

func (t *Tokens) keyFunc(token *jwt.Token) (any, error) {
	if t.secret != nil {
		return t.secret, nil
	}
	kid, _ := token.Header["kid"].(string)
	return t.keys.PublicKey(kid)
}

// GenerateOpaqueToken generates a Base64-encoded, URL-safe, opaque random string
func GenerateOpaqueToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = 32 // default 32 bytes (256 bits)
	}
	b := make([]byte, byteLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashHexSHA256 - hex SHA-256 of data, used as a content ETag
func HashHexSHA256(data []byte) string {
	checksum := sha256.Sum256(data)
	return hex.EncodeToString(checksum[:])
}
