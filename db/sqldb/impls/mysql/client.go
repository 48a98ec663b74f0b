package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "github.com/go-sql-driver/mysql" // side-effect
	"github.com/rs/zerolog/log"

	"github.com/zeptools/gw-docs/db/sqldb"
)

const (
	DBType                   = "mysql"
	DefaultPlaceholderPrefix = '?'
)

// Register the mysql factory with sqldb.New
func Register() {
	sqldb.RegisterFactory(DBType, func(conf *sqldb.Conf, pw string) (sqldb.Client, error) {
		return &Client{conf: conf, pw: pw, rawStore: sqldb.NewRawStore()}, nil
	})
}

type Client struct {
	conf     *sqldb.Conf
	pw       string
	dsn      string
	rawStore *sqldb.RawSQLStore

	// db fields are implementation details, not exported
	db *sql.DB
}

// Ensure mysql.Client implements sqldb.Client interface
var _ sqldb.Client = (*Client)(nil)

func (c *Client) Init() error {
	var err error
	if c.conf.DSN != "" {
		c.dsn = c.conf.DSN
	} else {
		loc := c.conf.TZ
		if loc == "" {
			loc = "UTC"
		}
		c.dsn = fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=%s&sql_mode=ANSI_QUOTES",
			c.conf.User, c.pw, c.conf.Host, c.conf.Port, c.conf.DB, url.QueryEscape(loc),
		)
	}
	if err = sqldb.LoadRawStmtsToStore(c.rawStore, DBType, DefaultPlaceholderPrefix); err != nil {
		return err
	}
	if c.db, err = sql.Open("mysql", c.dsn); err != nil {
		return err
	}
	c.db.SetConnMaxLifetime(3 * time.Minute)
	c.db.SetMaxOpenConns(c.conf.MaxOpenConns())
	c.db.SetMaxIdleConns(c.conf.MaxOpenConns())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = c.Ping(ctx); err != nil {
		return fmt.Errorf("mysql ping failed: %w", err)
	}
	log.Info().Str("db", DBType).Int("raw_stmts", c.rawStore.Len()).Msg("[INFO][SQLDB] client initialized")
	return nil
}

func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Client) Conf() *sqldb.Conf {
	return c.conf
}

func (c *Client) DSN() string {
	return c.dsn
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) PlaceholderPrefix() byte {
	return DefaultPlaceholderPrefix
}

func (c *Client) RawStore() *sqldb.RawSQLStore {
	return c.rawStore
}

func (c *Client) Exec(ctx context.Context, query string, args ...any) (sqldb.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

func (c *Client) QueryRows(ctx context.Context, query string, args ...any) (sqldb.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

func (c *Client) QueryRow(ctx context.Context, query string, args ...any) sqldb.Row {
	return &Row{row: c.db.QueryRowContext(ctx, query, args...)}
}

type Row struct {
	row *sql.Row
}

// Ensure mysql.Row implements sqldb.Row interface
var _ sqldb.Row = (*Row)(nil)

func (r *Row) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return sqldb.ErrNoRows
	}
	return err
}
