package sec

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return []byte("0123456789abcdef0123456789abcdef")
}

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipherBase64(testKey())
	require.NoError(t, err)

	enc, err := c.EncryptEncode([]byte("ftp-password"))
	require.NoError(t, err)
	enc2, err := c.EncryptEncode([]byte("ftp-password"))
	require.NoError(t, err)
	assert.NotEqual(t, enc, enc2, "random nonce")

	plain, err := c.DecodeDecrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "ftp-password", string(plain))

	_, err = c.DecodeDecrypt(enc[:len(enc)-2] + "AA")
	assert.Error(t, err, "tampered ciphertext")
	_, err = c.DecodeDecrypt("AA")
	assert.Error(t, err)

	_, err = NewCipherBase64([]byte("short"))
	assert.Error(t, err)
}

func TestNewCipherFromEnv(t *testing.T) {
	t.Setenv("DOCS_SECRET_KEY", base64.RawURLEncoding.EncodeToString(testKey()))
	c, err := NewCipherFromEnv("DOCS_SECRET_KEY")
	require.NoError(t, err)
	require.NotNil(t, c)

	t.Setenv("DOCS_SECRET_KEY", "")
	_, err = NewCipherFromEnv("DOCS_SECRET_KEY")
	assert.Error(t, err)
}

func TestReveal(t *testing.T) {
	c, err := NewCipherBase64(testKey())
	require.NoError(t, err)
	enc, err := c.EncryptEncode([]byte("s3cret"))
	require.NoError(t, err)

	got, err := Reveal(c, "", enc)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)

	got, err = Reveal(nil, "plain", enc)
	require.NoError(t, err)
	assert.Equal(t, "plain", got)

	got, err = Reveal(nil, "", "")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = Reveal(nil, "", enc)
	assert.Error(t, err)
}

func TestTokens_HS256(t *testing.T) {
	tokens, err := NewHS256Tokens("gw-docs", []byte(strings.Repeat("k", 32)), time.Minute)
	require.NoError(t, err)

	signed, err := tokens.Issue("manual/INV-1.pdf", "Manual")
	require.NoError(t, err)
	claims, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "manual/INV-1.pdf", claims.Path)
	assert.Equal(t, "Manual", claims.Variant)
	assert.NotEmpty(t, claims.ID)
	assert.Nil(t, tokens.JWKS())

	// expired
	tokens.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = tokens.Verify(signed)
	assert.Error(t, err)

	// other issuer or secret
	other, err := NewHS256Tokens("gw-docs", []byte(strings.Repeat("x", 32)), time.Minute)
	require.NoError(t, err)
	_, err = other.Verify(signed)
	assert.Error(t, err)

	_, err = NewHS256Tokens("gw-docs", []byte("short"), time.Minute)
	assert.Error(t, err)
}

func TestTokens_RS256(t *testing.T) {
	dir := t.TempDir()
	kid, err := GenerateSigningKey(dir, "signing.pem", 2048)
	require.NoError(t, err)
	assert.Len(t, kid, 16)

	loaded, err := LoadPrivateKey(filepath.Join(dir, "signing.pem"))
	require.NoError(t, err)
	jwks, err := LoadJWKS(dir)
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)
	assert.Equal(t, kid, jwks.Keys[0].Kid)

	tokens, err := NewRS256Tokens("gw-docs", loaded, kid, jwks, time.Minute)
	require.NoError(t, err)
	signed, err := tokens.Issue("receipt/RCP-1.pdf", "")
	require.NoError(t, err)
	claims, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "receipt/RCP-1.pdf", claims.Path)

	hs, err := NewHS256Tokens("gw-docs", []byte(strings.Repeat("k", 32)), time.Minute)
	require.NoError(t, err)
	_, err = hs.Verify(signed)
	assert.Error(t, err, "algorithm is pinned")
}

func TestJWKS(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	set := &JWKS{}
	set.Add("b", &key.PublicKey)
	set.Add("a", &key.PublicKey)
	set.Add("b", &key.PublicKey)
	require.Len(t, set.Keys, 2)
	assert.Equal(t, "a", set.Keys[0].Kid)

	pub, err := set.PublicKey("b")
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(pub))

	_, err = set.PublicKey("c")
	assert.ErrorIs(t, err, ErrUnknownKID)
	var nilSet *JWKS
	_, err = nilSet.PublicKey("a")
	assert.ErrorIs(t, err, ErrUnknownKID)

	bad := set.Keys[0]
	bad.Kty = "EC"
	_, err = bad.PublicKey()
	assert.Error(t, err)
}

func TestHashHexSHA256(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", HashHexSHA256(nil))
}

func TestLoadPrivateKey_PKCS8(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "pkcs8.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600))

	loaded, err := LoadPrivateKey(path)
	require.NoError(t, err)
	assert.True(t, key.Equal(loaded))

	a, err := KeyID(&key.PublicKey, 8)
	require.NoError(t, err)
	b, err := KeyID(&loaded.PublicKey, 8)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	_, err = KeyID(&key.PublicKey, 4)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("junk"), 0o600))
	_, err = LoadPrivateKey(path)
	assert.Error(t, err)
}
