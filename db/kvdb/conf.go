package kvdb

// Conf - config/.kv-databases.json
type Conf struct {
	Type  string `json:"type"` // redis
	Host  string `json:"host"`
	Port  int    `json:"port"`
	PW    string `json:"pw"`
	PWEnc string `json:"pw_enc"` // encrypted PW, see sec.Cipher
	DB    int    `json:"db"`     // optional db number e.g. redis
	// Prefix is prepended to every key the app writes, e.g. "gw-docs:"
	Prefix string `json:"prefix"`
}
