package conf

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeptools/gw-docs/sec"
)

func writeConf(t *testing.T, root string, name string, body string) {
	t.Helper()
	dir := filepath.Join(root, "config")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func baseCore(t *testing.T, root string) *Core {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	c := &Core{}
	require.NoError(t, c.BaseInit(root, ctx, cancel))
	return c
}

func TestBaseInit(t *testing.T) {
	root := t.TempDir()
	writeConf(t, root, ".core.json", `{
		"app_name": "docs-test",
		"listen": ":8080",
		"log": {"level": "error"},
		"letterhead": {"name": "PT Gedung Perkantoran", "lines": ["Jakarta"]},
		"worker": {"concurrency": 2},
		"throttle": {"render": {"burst": 5, "increment": 1, "period_sec": 1}}
	}`)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("DOCS_HOST=docs.example.com\n"), 0o600))
	t.Setenv("DOCS_LISTEN", "127.0.0.1:9090")
	t.Cleanup(func() { _ = os.Unsetenv("DOCS_HOST") })

	c := baseCore(t, root)
	assert.Equal(t, "docs-test", c.AppName)
	assert.Equal(t, "127.0.0.1:9090", c.Listen)
	assert.Equal(t, "docs.example.com", os.Getenv("DOCS_HOST"))
	assert.Equal(t, "docs.example.com", c.Host)
	assert.Equal(t, "PT Gedung Perkantoran", c.Letterhead.Name)
	assert.Equal(t, 2, c.Worker.Concurrency)
	require.Contains(t, c.Throttle, "render")
	assert.Equal(t, 5, c.Throttle["render"].Burst)
	assert.Nil(t, c.Cipher)
}

func TestBaseInit_MissingCore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := &Core{}
	assert.Error(t, c.BaseInit(t.TempDir(), ctx, cancel))
}

func TestPrepare_DocumentStack(t *testing.T) {
	root := t.TempDir()
	writeConf(t, root, ".core.json", `{"app_name": "docs-test", "log": {"level": "error"}}`)
	writeConf(t, root, ".storage.json", `{"root": "out"}`)
	writeConf(t, root, ".stamp.json", `{"size": 60}`)
	writeConf(t, root, ".transfer.json", `{"type": "local", "root": "remote", "host": "local"}`)

	c := baseCore(t, root)
	require.NoError(t, c.PrepareStorage())
	assert.Equal(t, filepath.Join(root, "out"), c.Store.Root())

	require.NoError(t, c.PrepareCompositor())
	assert.InDelta(t, 60, c.StampConf.Size, 1e-9)
	assert.InDelta(t, -25, c.StampConf.MarginVertical, 1e-9, "defaults kept")

	require.NoError(t, c.PrepareTransfer())
	require.NotNil(t, c.Transfer)
	require.NoError(t, c.PrepareEngine())
	require.NotNil(t, c.Engine)

	// without a kv database there is no queue
	require.NoError(t, c.PrepareKVDatabase())
	assert.Nil(t, c.KVDBClient)
	assert.Error(t, c.PrepareQueue())

	c.ResourceCleanUp()
}

func TestPrepare_UnsupportedTransfer(t *testing.T) {
	root := t.TempDir()
	writeConf(t, root, ".core.json", `{"log": {"level": "error"}}`)
	writeConf(t, root, ".transfer.json", `{"type": "sftp"}`)
	c := baseCore(t, root)
	assert.ErrorContains(t, c.PrepareTransfer(), "sftp")
}

func TestPrepare_HTTPStack(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	t.Setenv("DOCS_SECRET_KEY", base64.RawURLEncoding.EncodeToString(key))
	cipher, err := sec.NewCipherBase64(key)
	require.NoError(t, err)
	secretEnc, err := cipher.EncryptEncode([]byte(strings.Repeat("z", 32)))
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	root := t.TempDir()
	writeConf(t, root, ".core.json", `{"app_name": "docs-test", "log": {"level": "error"}, "listen": "127.0.0.1:0"}`)
	writeConf(t, root, ".kv-databases.json", fmt.Sprintf(`{"type": "redis", "host": %q, "port": %s, "prefix": "docs:"}`, mr.Host(), mr.Port()))
	writeConf(t, root, ".tokens.json", fmt.Sprintf(`{"secret_enc": %q, "ttl_sec": 60}`, secretEnc))
	writeConf(t, root, ".clients.json", `{"billing": {"name": "Billing", "secret_hash": "00"}}`)

	c := baseCore(t, root)
	require.NotNil(t, c.Cipher)
	require.NoError(t, c.PrepareStorage())
	require.NoError(t, c.PrepareCompositor())
	require.NoError(t, c.PrepareEngine())
	require.NoError(t, c.PrepareKVDatabase())
	require.NoError(t, c.PrepareQueue())
	require.NoError(t, c.PrepareTokens())
	assert.Equal(t, "docs-test", c.TokenConf.Issuer)
	require.NoError(t, c.PrepareClientApps())
	assert.Equal(t, 1, c.ClientApps.Len())

	// the decrypted secret signs tokens the API can verify
	tok, err := c.Tokens.Issue("manual/INV-1.pdf", "Manual")
	require.NoError(t, err)
	claims, err := c.Tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "manual/INV-1.pdf", claims.Path)

	h := c.API().Router()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	c.ResourceCleanUp()
}

func TestPrepareSources_MainBackend(t *testing.T) {
	root := t.TempDir()
	writeConf(t, root, ".core.json", `{"log": {"level": "error"}}`)
	writeConf(t, root, ".main-backend-api.json", `{"host": "https://billing.example.com", "client_id": "gw-docs"}`)
	c := baseCore(t, root)
	require.NoError(t, c.PrepareSQLDatabases())
	require.NoError(t, c.PrepareSources())
	require.NotNil(t, c.Source)
	assert.Equal(t, "gw-docs", c.MainBackendConf.ClientID)
}

func TestPrepareSources_UnknownDB(t *testing.T) {
	root := t.TempDir()
	writeConf(t, root, ".core.json", `{"log": {"level": "error"}}`)
	writeConf(t, root, ".sources.json", `{"db": "billing"}`)
	c := baseCore(t, root)
	assert.ErrorContains(t, c.PrepareSources(), "billing")
}

func TestPrepareTokens_RS256(t *testing.T) {
	root := t.TempDir()
	writeConf(t, root, ".core.json", `{"app_name": "docs-test", "log": {"level": "error"}}`)
	kid, err := sec.GenerateSigningKey(filepath.Join(root, "config", "keys"), "signing.pem", 2048)
	require.NoError(t, err)
	writeConf(t, root, ".tokens.json", fmt.Sprintf(
		`{"alg": "RS256", "private_key_file": "config/keys/signing.pem", "public_key_dir": "config/keys", "kid": %q}`, kid))

	c := baseCore(t, root)
	require.NoError(t, c.PrepareTokens())
	require.NotNil(t, c.Tokens.JWKS())
	require.Len(t, c.Tokens.JWKS().Keys, 1)
	assert.Equal(t, kid, c.Tokens.JWKS().Keys[0].Kid)

	signed, err := c.Tokens.Issue("receipt/RCP-1.pdf", "Receipt")
	require.NoError(t, err)
	claims, err := c.Tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "docs-test", claims.Issuer)
}
