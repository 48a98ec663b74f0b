package mainbackend

import "time"

// Conf - config/.main-backend-api.json
type Conf struct {
	Host     string `json:"host"`      // e.g. https://billing.example.com
	ClientID string `json:"client_id"` // ID of this App as a Client of the MainBackendAPI
	Token    string `json:"token"`     // bearer token, optional
	TokenEnc string `json:"token_enc"` // encrypted Token, see sec.Cipher
	// RecordEndpoint may use {variant} and {identifier}.
	// Default /documents/{variant}/{identifier}/record
	RecordEndpoint string `json:"record_endpoint"`
	TimeoutSec     int    `json:"timeout_sec"` // default 30
}

func (c *Conf) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}
