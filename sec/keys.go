package sec

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
)

const (
	pemPrivateRSA = "RSA PRIVATE KEY"
	pemPrivate    = "PRIVATE KEY"
	pemPublic     = "PUBLIC KEY"
)

// PublicKeyFile is the name the JWKS loader expects for the key kid.
func PublicKeyFile(kid string) string {
	return kid + "_public.pem"
}

func writePEM(path string, blockType string, der []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der}), perm)
}

// SavePrivateKey writes key as PKCS#1 PEM, readable by the owner only.
func SavePrivateKey(path string, key *rsa.PrivateKey) error {
	return writePEM(path, pemPrivateRSA, x509.MarshalPKCS1PrivateKey(key), 0o600)
}

func SavePublicKey(path string, pub *rsa.PublicKey) error {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return err
	}
	return writePEM(path, pemPublic, der, 0o644)
}

// LoadPrivateKey reads an RSA key in PKCS#1 or PKCS#8 PEM.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, fmt.Errorf("%s: no PEM block", path)
	}
	switch block.Type {
	case pemPrivateRSA:
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case pemPrivate:
		k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		rsaKey, ok := k.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%s: not an RSA key", path)
		}
		return rsaKey, nil
	}
	return nil, fmt.Errorf("%s: unexpected PEM block %q", path, block.Type)
}

var errNotRSA = errors.New("not an RSA key")

// LoadPublicKey reads a PKIX "PUBLIC KEY" PEM holding exactly one RSA key.
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, rest := pem.Decode(b)
	if block == nil || block.Type != pemPublic {
		return nil, fmt.Errorf("%s: no %s block", path, pemPublic)
	}
	if len(bytes.TrimSpace(rest)) > 0 {
		return nil, fmt.Errorf("%s: data after the key", path)
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, errNotRSA)
	}
	return rsaPub, nil
}

// KeyID derives a stable hex ID of n bytes (8..32) from the public key.
func KeyID(pub *rsa.PublicKey, n int) (string, error) {
	if n < 8 || n > 32 {
		return "", fmt.Errorf("key id length %d not within [8, 32]", n)
	}
	h := sha256.New()
	h.Write(pub.N.Bytes())
	h.Write(big.NewInt(int64(pub.E)).Bytes())
	return hex.EncodeToString(h.Sum(nil)[:n]), nil
}

// GenerateSigningKey creates an RSA key pair under dir: privateFile for
// signing and {kid}_public.pem for the JWKS. It returns the key ID.
func GenerateSigningKey(dir string, privateFile string, bits int) (string, error) {
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return "", err
	}
	kid, err := KeyID(&key.PublicKey, 8)
	if err != nil {
		return "", err
	}
	if err = SavePrivateKey(filepath.Join(dir, privateFile), key); err != nil {
		return "", err
	}
	if err = SavePublicKey(filepath.Join(dir, PublicKeyFile(kid)), &key.PublicKey); err != nil {
		return "", err
	}
	return kid, nil
}
