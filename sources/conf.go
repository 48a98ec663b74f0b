package sources

import "github.com/zeptools/gw-docs/db/sqldb"

// Conf - config/.sources.json
type Conf struct {
	DB string `json:"db"` // key into config/.sql-databases.json
	// RowsOrder lists the row columns to sort by. A leading '-' sorts descending.
	RowsOrder []string `json:"rows_order"`
}

// OrderBy validates RowsOrder. Default is line_no ascending.
func (c *Conf) OrderBy() ([]sqldb.OrderBy, error) {
	if len(c.RowsOrder) == 0 {
		return []sqldb.OrderBy{{Column: sqldb.MustColumn("line_no")}}, nil
	}
	out := make([]sqldb.OrderBy, 0, len(c.RowsOrder))
	for _, s := range c.RowsOrder {
		o, err := sqldb.ParseOrderBy(s)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}
