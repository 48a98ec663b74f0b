package transfer

import (
	"bytes"
	"context"
	"errors"
	"path"
	"sync"

	"github.com/rs/zerolog"
)

var ErrPoolClosed = errors.New("transfer pool closed")

// Pool hands out at most MaxConns connections per host. Callers beyond that
// wait in line until a connection is released or their context ends. Idle
// connections are reused; a connection whose operation failed is closed
// rather than returned.
type Pool struct {
	dial     Dialer
	maxConns int
	log      zerolog.Logger

	mu     sync.Mutex
	hosts  map[string]*hostPool
	closed bool
}

type hostPool struct {
	slots  chan struct{}
	mu     sync.Mutex
	idle   []Client
	closed bool
}

func NewPool(dial Dialer, maxConns int, log zerolog.Logger) *Pool {
	if maxConns < 1 {
		maxConns = 2
	}
	return &Pool{dial: dial, maxConns: maxConns, log: log, hosts: make(map[string]*hostPool)}
}

func (p *Pool) host(host string) (*hostPool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPoolClosed
	}
	hp, ok := p.hosts[host]
	if !ok {
		hp = &hostPool{slots: make(chan struct{}, p.maxConns)}
		p.hosts[host] = hp
	}
	return hp, nil
}

// Do runs fn with exclusive use of a connection to host.
func (p *Pool) Do(ctx context.Context, host string, fn func(Client) error) error {
	hp, err := p.host(host)
	if err != nil {
		return err
	}
	select {
	case hp.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-hp.slots }()

	c, err := hp.take(ctx, p.dial, host)
	if err != nil {
		return err
	}
	if err = fn(c); err != nil {
		p.log.Warn().Err(err).Str("host", host).Msg("[WARN] transfer failed, dropping connection")
		_ = c.Close()
		return err
	}
	hp.give(c)
	return nil
}

// Upload writes data to remotePath on host, creating its directory first.
func (p *Pool) Upload(ctx context.Context, host string, remotePath string, data []byte) error {
	return p.Do(ctx, host, func(c Client) error {
		if err := c.MakeDirAll(ctx, path.Dir(remotePath)); err != nil {
			return err
		}
		if err := c.Put(ctx, remotePath, bytes.NewReader(data)); err != nil {
			return err
		}
		p.log.Info().Str("host", host).Str("path", remotePath).Int("bytes", len(data)).Msg("[INFO] uploaded")
		return nil
	})
}

func (p *Pool) Download(ctx context.Context, host string, remotePath string) ([]byte, error) {
	var data []byte
	err := p.Do(ctx, host, func(c Client) error {
		var err error
		data, err = c.Get(ctx, remotePath)
		return err
	})
	return data, err
}

// Idle reports the number of idle connections kept for host.
func (p *Pool) Idle(host string) int {
	p.mu.Lock()
	hp, ok := p.hosts[host]
	p.mu.Unlock()
	if !ok {
		return 0
	}
	hp.mu.Lock()
	defer hp.mu.Unlock()
	return len(hp.idle)
}

// Close closes idle connections and refuses new work. Connections in use
// are closed when their caller releases them.
func (p *Pool) Close() error {
	p.mu.Lock()
	p.closed = true
	hosts := p.hosts
	p.hosts = make(map[string]*hostPool)
	p.mu.Unlock()

	var errs []error
	for _, hp := range hosts {
		hp.mu.Lock()
		for _, c := range hp.idle {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		hp.idle = nil
		hp.closed = true
		hp.mu.Unlock()
	}
	return errors.Join(errs...)
}

func (hp *hostPool) take(ctx context.Context, dial Dialer, host string) (Client, error) {
	hp.mu.Lock()
	if n := len(hp.idle); n > 0 {
		c := hp.idle[n-1]
		hp.idle = hp.idle[:n-1]
		hp.mu.Unlock()
		return c, nil
	}
	hp.mu.Unlock()
	return dial(ctx, host)
}

func (hp *hostPool) give(c Client) {
	hp.mu.Lock()
	defer hp.mu.Unlock()
	if hp.closed {
		_ = c.Close()
		return
	}
	hp.idle = append(hp.idle, c)
}
