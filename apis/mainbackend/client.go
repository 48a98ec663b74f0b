// Package mainbackend fetches document records from the main backend API
// when they are not read from SQL.
package mainbackend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/zeptools/gw-docs/errs"
	"github.com/zeptools/gw-docs/record"
	"github.com/zeptools/gw-docs/sources"
	"github.com/zeptools/gw-docs/storage"
	"github.com/zeptools/gw-docs/variant"
)

const defaultRecordEndpoint = "/documents/{variant}/{identifier}/record"

type Client struct {
	*http.Client // [Embedded]
	Conf         *Conf
	token        string
}

// Ensure Client implements sources.Source
var _ sources.Source = (*Client)(nil)

// New - token is the decrypted bearer token; conf.Token is used when empty.
func New(conf *Conf, token string) *Client {
	if token == "" {
		token = conf.Token
	}
	return &Client{
		Client: &http.Client{Timeout: conf.Timeout()},
		Conf:   conf,
		token:  token,
	}
}

func (c *Client) recordURL(v variant.Variant, identifier string) string {
	endpoint := c.Conf.RecordEndpoint
	if endpoint == "" {
		endpoint = defaultRecordEndpoint
	}
	endpoint = strings.NewReplacer(
		"{variant}", url.PathEscape(string(v)),
		"{identifier}", url.PathEscape(identifier),
	).Replace(endpoint)
	return strings.TrimSuffix(c.Conf.Host, "/") + endpoint
}

// Load GETs the record of identifier. 404 is sources.ErrNotFound.
func (c *Client) Load(ctx context.Context, v variant.Variant, identifier string) (record.Record, error) {
	if _, err := variant.Lookup(v); err != nil {
		return nil, err
	}
	if err := storage.CheckIdentifier(identifier); err != nil {
		return nil, errs.WithContext(err, string(v), identifier)
	}
	upstrReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.recordURL(v, identifier), nil)
	if err != nil {
		return nil, err
	}
	upstrReq.Header.Set("Client-Id", c.Conf.ClientID)
	upstrReq.Header.Set("Accept", "application/json")
	if c.token != "" {
		upstrReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	upstrRes, err := c.Do(upstrReq)
	if err != nil {
		return nil, fmt.Errorf("main backend %s: %w", identifier, err)
	}
	defer upstrRes.Body.Close()

	switch {
	case upstrRes.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s %s: %w", v, identifier, sources.ErrNotFound)
	case upstrRes.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(upstrRes.Body, 512))
		return nil, fmt.Errorf("main backend %s: HTTP %d: %s", identifier, upstrRes.StatusCode, strings.TrimSpace(string(msg)))
	}

	dec := json.NewDecoder(upstrRes.Body)
	dec.UseNumber() // amounts keep their digits
	var rec record.Record
	if err = dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", identifier, err)
	}
	if rec.StringOr("doc_no", "") == "" {
		rec["doc_no"] = identifier
	}
	return rec, nil
}
