package sqldb

// Conf - one entry of config/.sql-databases.json
type Conf struct {
	Type     string `json:"type"` // mysql, pgsql
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	PW       string `json:"pw"`
	PWEnc    string `json:"pw_enc"` // encrypted PW, see sec.Cipher
	DB       string `json:"db"`
	TZ       string `json:"tz"`        // Connection Timezone
	DSN      string `json:"dsn"`       // To Overwrite Default DSN
	MaxConns int    `json:"max_conns"` // default 10
}

func (c *Conf) MaxOpenConns() int {
	if c.MaxConns <= 0 {
		return 10
	}
	return c.MaxConns
}
