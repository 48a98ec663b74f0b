package transfer

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	host   string
	inUse  *atomic.Int32
	peak   *atomic.Int32
	closed atomic.Bool
	mu     sync.Mutex
	files  map[string][]byte
	dirs   []string
	fail   bool
}

func (c *fakeClient) enter() func() {
	n := c.inUse.Add(1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	return func() { c.inUse.Add(-1) }
}

func (c *fakeClient) MakeDirAll(ctx context.Context, dir string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirs = append(c.dirs, dir)
	return nil
}

func (c *fakeClient) Put(ctx context.Context, remotePath string, r io.Reader) error {
	defer c.enter()()
	if c.fail {
		return errors.New("broken pipe")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[remotePath] = b
	return nil
}

func (c *fakeClient) Get(ctx context.Context, remotePath string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.files[remotePath]
	if !ok {
		return nil, errors.New("not found")
	}
	return b, nil
}

func (c *fakeClient) Close() error {
	c.closed.Store(true)
	return nil
}

type fakeDialer struct {
	dials  atomic.Int32
	inUse  atomic.Int32
	peak   atomic.Int32
	mu     sync.Mutex
	conns  []*fakeClient
	failOn int32 // dial number whose client fails, 0 = none
}

func (d *fakeDialer) dial(ctx context.Context, host string) (Client, error) {
	n := d.dials.Add(1)
	c := &fakeClient{host: host, inUse: &d.inUse, peak: &d.peak, files: make(map[string][]byte), fail: n == d.failOn}
	d.mu.Lock()
	d.conns = append(d.conns, c)
	d.mu.Unlock()
	return c, nil
}

func TestPool_BoundsConcurrencyPerHost(t *testing.T) {
	d := &fakeDialer{}
	p := NewPool(d.dial, 2, zerolog.Nop())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Upload(context.Background(), "ftp.example:21", "/UNSIGNED/GQCINV/MANUAL/INV-1.pdf", []byte("x")))
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, d.peak.Load(), int32(2))
	assert.LessOrEqual(t, d.dials.Load(), int32(2), "connections are reused")
	assert.Equal(t, int(d.dials.Load()), p.Idle("ftp.example:21"))
	require.NoError(t, p.Close())
	for _, c := range d.conns {
		assert.True(t, c.closed.Load())
	}
}

func TestPool_HostsAreIndependent(t *testing.T) {
	d := &fakeDialer{}
	p := NewPool(d.dial, 1, zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, p.Upload(ctx, "a:21", "/x/1.pdf", []byte("1")))
	require.NoError(t, p.Upload(ctx, "b:21", "/x/1.pdf", []byte("1")))
	assert.Equal(t, int32(2), d.dials.Load())
	assert.Equal(t, 1, p.Idle("a:21"))
	assert.Equal(t, 1, p.Idle("b:21"))
}

func TestPool_DropsBrokenConnection(t *testing.T) {
	d := &fakeDialer{failOn: 1}
	p := NewPool(d.dial, 1, zerolog.Nop())
	ctx := context.Background()

	err := p.Upload(ctx, "h:21", "/a/b.pdf", []byte("x"))
	require.Error(t, err)
	assert.True(t, d.conns[0].closed.Load())
	assert.Zero(t, p.Idle("h:21"))

	require.NoError(t, p.Upload(ctx, "h:21", "/a/b.pdf", []byte("x")))
	assert.Equal(t, int32(2), d.dials.Load())
	assert.Equal(t, []string{"/a"}, d.conns[1].dirs)

	got, err := p.Download(ctx, "h:21", "/a/b.pdf")
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))
}

func TestPool_QueuedCallerHonoursContext(t *testing.T) {
	d := &fakeDialer{}
	p := NewPool(d.dial, 1, zerolog.Nop())

	hold := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = p.Do(context.Background(), "h:21", func(Client) error {
			close(held)
			<-hold
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Do(ctx, "h:21", func(Client) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(hold)
}

func TestPool_Closed(t *testing.T) {
	p := NewPool((&fakeDialer{}).dial, 1, zerolog.Nop())
	require.NoError(t, p.Close())
	err := p.Upload(context.Background(), "h:21", "/a.pdf", nil)
	assert.ErrorIs(t, err, ErrPoolClosed)
}
