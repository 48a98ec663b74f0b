package sec

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/chacha20poly1305"
)

// Read https://pkg.go.dev/golang.org/x/crypto/chacha20poly1305

// Cipher - XChaCha20-Poly1305 with a random nonce prepended to each
// ciphertext. Used for secrets kept in config files (pw_enc, secret_enc).
type Cipher struct {
	aead       cipher.AEAD
	encodeFunc func([]byte) string          // e.g. base64.RawURLEncoding.EncodeToString
	decodeFunc func(string) ([]byte, error) // e.g. base64.RawURLEncoding.DecodeString
}

func NewCipher(key []byte, encodeFunc func([]byte) string, decodeFunc func(string) ([]byte, error)) (*Cipher, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead, encodeFunc: encodeFunc, decodeFunc: decodeFunc}, nil
}

func NewCipherBase64(key []byte) (*Cipher, error) {
	return NewCipher(key, base64.RawURLEncoding.EncodeToString, base64.RawURLEncoding.DecodeString)
}

// NewCipherFromEnv reads a base64url (unpadded) 32-byte key from the
// environment variable envName.
func NewCipherFromEnv(envName string) (*Cipher, error) {
	encoded := os.Getenv(envName)
	if encoded == "" {
		return nil, fmt.Errorf("%s is not set", envName)
	}
	key, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", envName, err)
	}
	return NewCipherBase64(key)
}

func (c *Cipher) EncryptEncode(plaintext []byte) (string, error) {
	// fresh nonce every time, with capacity left for the ciphertext
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	return c.encodeFunc(c.aead.Seal(nonce, nonce, plaintext, nil)), nil
}

func (c *Cipher) DecodeDecrypt(encodedCiphertext string) ([]byte, error) {
	data, err := c.decodeFunc(encodedCiphertext)
	if err != nil {
		return nil, err
	}
	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	return c.aead.Open(nil, nonce, ciphertext, nil)
}

// Reveal returns plain if set, otherwise enc decrypted with c. Both empty is
// an empty secret. A nil c with a non-empty enc is an error.
func Reveal(c *Cipher, plain string, enc string) (string, error) {
	if plain != "" || enc == "" {
		return plain, nil
	}
	if c == nil {
		return "", errors.New("encrypted secret present but no cipher configured")
	}
	b, err := c.DecodeDecrypt(enc)
	if err != nil {
		return "", fmt.Errorf("decrypt secret: %w", err)
	}
	return string(b), nil
}
