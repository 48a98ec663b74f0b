// Package local is a transfer backend that writes into a directory. It
// stands in for the remote host in development and tests.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeptools/gw-docs/transfer"
)

var _ transfer.Client = (*Client)(nil)

type Client struct {
	Root string
}

// Dialer ignores the host; every connection writes under root.
func Dialer(root string) transfer.Dialer {
	return func(ctx context.Context, host string) (transfer.Client, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if root == "" {
			return nil, fmt.Errorf("local transfer root is empty")
		}
		return &Client{Root: root}, nil
	}
}

func (c *Client) path(remotePath string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(remotePath))
	p := filepath.Join(c.Root, clean)
	if !strings.HasPrefix(p, filepath.Clean(c.Root)) {
		return "", fmt.Errorf("remote path %q escapes the root", remotePath)
	}
	return p, nil
}

func (c *Client) MakeDirAll(ctx context.Context, dir string) error {
	p, err := c.path(dir)
	if err != nil {
		return err
	}
	return os.MkdirAll(p, 0o755)
}

func (c *Client) Put(ctx context.Context, remotePath string, r io.Reader) error {
	p, err := c.path(remotePath)
	if err != nil {
		return err
	}
	f, err := os.Create(p)
	if err != nil {
		return err
	}
	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (c *Client) Get(ctx context.Context, remotePath string) ([]byte, error) {
	p, err := c.path(remotePath)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func (c *Client) Close() error {
	return nil
}
