package ftp

import (
	"context"
	"fmt"
	"io"
	"strings"

	lowimpl "github.com/jlaffaye/ftp"

	"github.com/zeptools/gw-docs/transfer"
)

var _ transfer.Client = (*Client)(nil)

// Client - one logged-in FTP control connection
type Client struct {
	conn *lowimpl.ServerConn
}

// Dialer returns a transfer.Dialer that logs in with the credentials of conf.
// pw is the decrypted password; conf.PW is used when it is empty.
func Dialer(conf *transfer.Conf, pw string) transfer.Dialer {
	if pw == "" {
		pw = conf.PW
	}
	return func(ctx context.Context, host string) (transfer.Client, error) {
		opts := []lowimpl.DialOption{lowimpl.DialWithContext(ctx)}
		if t := conf.Timeout(); t > 0 {
			opts = append(opts, lowimpl.DialWithTimeout(t))
		}
		conn, err := lowimpl.Dial(host, opts...)
		if err != nil {
			return nil, fmt.Errorf("ftp dial %s: %w", host, err)
		}
		if err = conn.Login(conf.User, pw); err != nil {
			_ = conn.Quit()
			return nil, fmt.Errorf("ftp login %s@%s: %w", conf.User, host, err)
		}
		return &Client{conn: conn}, nil
	}
}

// MakeDirAll creates each missing segment of dir. MKD on an existing
// directory fails on most servers, so a segment is only created when CWD
// into it fails.
func (c *Client) MakeDirAll(ctx context.Context, dir string) error {
	cur := "/"
	for _, seg := range strings.Split(strings.Trim(dir, "/"), "/") {
		if seg == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		cur = strings.TrimSuffix(cur, "/") + "/" + seg
		if err := c.conn.ChangeDir(cur); err == nil {
			continue
		}
		if err := c.conn.MakeDir(cur); err != nil {
			return fmt.Errorf("ftp mkdir %s: %w", cur, err)
		}
	}
	return c.conn.ChangeDir("/")
}

func (c *Client) Put(ctx context.Context, remotePath string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.conn.Stor(remotePath, r); err != nil {
		return fmt.Errorf("ftp stor %s: %w", remotePath, err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, remotePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := c.conn.Retr(remotePath)
	if err != nil {
		return nil, fmt.Errorf("ftp retr %s: %w", remotePath, err)
	}
	defer resp.Close()
	return io.ReadAll(resp)
}

func (c *Client) Close() error {
	return c.conn.Quit()
}
