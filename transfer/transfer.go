// Package transfer delivers documents to a remote host. Connections are not
// safe for concurrent use, so they are handed out by a Pool that bounds and
// queues access per destination host.
package transfer

import (
	"context"
	"io"
	"time"
)

// Client - one connection to one destination host
type Client interface {
	// MakeDirAll creates dir and its parents; existing ones are fine.
	MakeDirAll(ctx context.Context, dir string) error
	Put(ctx context.Context, remotePath string, r io.Reader) error
	Get(ctx context.Context, remotePath string) ([]byte, error)
	Close() error
}

// Dialer opens a new connection to host.
type Dialer func(ctx context.Context, host string) (Client, error)

// Conf - config/.transfer.json
type Conf struct {
	Type     string `json:"type"` // ftp, local
	Host     string `json:"host"` // host:port for ftp
	User     string `json:"user"`
	PW       string `json:"pw"`
	PWEnc    string `json:"pw_enc"`    // encrypted PW, see sec.Cipher
	Root     string `json:"root"`      // local: directory standing in for the remote root
	MaxConns int    `json:"max_conns"` // per host, default 2
	// TimeoutSec bounds dialing and each command. 0 = no timeout.
	TimeoutSec int `json:"timeout_sec"`
}

func (c *Conf) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}
