package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeptools/gw-docs/errs"
	"github.com/zeptools/gw-docs/variant"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Conf{Root: t.TempDir()}, zerolog.Nop())
	require.NoError(t, err)
	return s
}

func TestStore_WriteCreatesParents(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	p, err := s.Write(ctx, DocumentPath(variant.MustLookup(variant.Manual), "INV-1"), []byte("%PDF-1"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Root(), "manual", "INV-1.pdf"), p)

	got, err := s.Read(ctx, "manual/INV-1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1", string(got))

	// overwrite is idempotent on the directory
	_, err = s.Write(ctx, "manual/INV-1.pdf", []byte("%PDF-2"))
	require.NoError(t, err)
	got, _ = s.Read(ctx, "manual/INV-1.pdf")
	assert.Equal(t, "%PDF-2", string(got))

	entries, err := os.ReadDir(filepath.Join(s.Root(), "manual"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestStore_PathBusy(t *testing.T) {
	s := newStore(t)
	p, err := s.Abs("receipt/RCP-1.pdf")
	require.NoError(t, err)

	release, ok := s.locks.TryAcquire(p)
	require.True(t, ok)
	_, err = s.Write(context.Background(), "receipt/RCP-1.pdf", []byte("x"))
	assert.ErrorIs(t, err, errs.ErrPathBusy)
	release()

	_, err = s.Write(context.Background(), "receipt/RCP-1.pdf", []byte("x"))
	assert.NoError(t, err)
}

func TestStore_ConcurrentDistinctPaths(t *testing.T) {
	s := newStore(t)
	var wg sync.WaitGroup
	var failed atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("DOC-%02d", i)
			if _, err := s.Write(context.Background(), DocumentPath(variant.MustLookup(variant.Schedule), id), []byte("x")); err != nil {
				failed.Add(1)
			}
		}(i)
	}
	wg.Wait()
	assert.Zero(t, failed.Load())
}

func TestStore_RejectsEscape(t *testing.T) {
	s := newStore(t)
	_, err := s.Write(context.Background(), "../outside.pdf", []byte("x"))
	assert.Error(t, err)
	assert.False(t, s.Exists("../outside.pdf"))
}

func TestStore_CancelledContext(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Write(ctx, "manual/x.pdf", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, s.Exists("manual/x.pdf"))
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "schedule/INV-9.pdf", DocumentPath(variant.MustLookup(variant.Schedule), "INV-9"))
	assert.Equal(t, "/UNSIGNED/GQCINV/RECEIPT/RCP-1.pdf", RemoteUnsignedPath(variant.MustLookup(variant.Receipt), "RCP-1"))
	assert.Equal(t, "/SIGNED/GQCINV/MANUAL/output-INV-1.pdf", RemoteSignedPath(variant.CategoryManual, "output-INV-1.pdf"))

	water := variant.MustLookup(variant.UtilityReferenceWater)
	assert.Equal(t, "WTR-1_reference_water.pdf", SignedName(water, "WTR-1"))
	assert.Equal(t, "schedule/WTR-1_reference_water.pdf", SignedPath(water, "WTR-1"))
	assert.Equal(t, "output-INV-1.pdf", SignedName(variant.MustLookup(variant.Manual), "INV-1"))
}

func TestPaths_SupportingSheetsDoNotShareInvoiceFile(t *testing.T) {
	seen := map[string]variant.Variant{}
	family := []variant.Variant{variant.Schedule, variant.UtilityReferenceWater, variant.UtilityReferenceElectric, variant.UtilityReferenceFCU, variant.Overtime}
	for _, v := range family {
		p := variant.MustLookup(v)
		for _, name := range []string{DocumentPath(p, "INV-1"), SignedPath(p, "INV-1"), RemoteUnsignedPath(p, "INV-1")} {
			prev, dup := seen[name]
			assert.False(t, dup, "%s and %s both use %s", prev, v, name)
			seen[name] = v
		}
	}

	water := variant.MustLookup(variant.UtilityReferenceWater)
	assert.Equal(t, "schedule/INV-1_water.pdf", DocumentPath(water, "INV-1"))
	assert.Equal(t, "/UNSIGNED/GQCINV/SCHEDULE/INV-1_water.pdf", RemoteUnsignedPath(water, "INV-1"))
	overtime := variant.MustLookup(variant.Overtime)
	assert.Equal(t, "schedule/INV-1_overtime.pdf", DocumentPath(overtime, "INV-1"))
	assert.Equal(t, "output-INV-1_overtime.pdf", SignedName(overtime, "INV-1"))
}

func TestCheckIdentifier(t *testing.T) {
	assert.NoError(t, CheckIdentifier("INV-2024-0001"))
	assert.ErrorIs(t, CheckIdentifier(""), errs.ErrMissingField)
	for _, bad := range []string{"..", "a/b", `a\b`, "."} {
		assert.ErrorIs(t, CheckIdentifier(bad), errs.ErrInvalidField, bad)
	}
}
