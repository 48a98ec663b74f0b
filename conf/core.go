// Package conf wires the app together from the files under {appRoot}/config.
// Only .core.json is required; every other concern is prepared when its file
// is present.
package conf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zeptools/gw-docs/apis/mainbackend"
	"github.com/zeptools/gw-docs/clients"
	"github.com/zeptools/gw-docs/db/kvdb"
	"github.com/zeptools/gw-docs/db/kvdb/impls/redis"
	"github.com/zeptools/gw-docs/db/sqldb"
	"github.com/zeptools/gw-docs/db/sqldb/impls/mysql"
	"github.com/zeptools/gw-docs/db/sqldb/impls/pgsql"
	"github.com/zeptools/gw-docs/engine"
	"github.com/zeptools/gw-docs/jobs"
	"github.com/zeptools/gw-docs/layout"
	"github.com/zeptools/gw-docs/logging"
	"github.com/zeptools/gw-docs/pdfs/impls/fpdf"
	"github.com/zeptools/gw-docs/sec"
	"github.com/zeptools/gw-docs/sources"
	"github.com/zeptools/gw-docs/stamp"
	"github.com/zeptools/gw-docs/storage"
	"github.com/zeptools/gw-docs/svc"
	"github.com/zeptools/gw-docs/throttle"
	"github.com/zeptools/gw-docs/transfer"
	"github.com/zeptools/gw-docs/transfer/impls/ftp"
	"github.com/zeptools/gw-docs/transfer/impls/local"
	"github.com/zeptools/gw-docs/uds"
	"github.com/zeptools/gw-docs/web"
)

// EnvPrefix - DOCS_LISTEN, DOCS_HOST, DOCS_LOG_LEVEL, DOCS_STORAGE_ROOT and
// DOCS_SECRET_KEY (base64url, 32 bytes) are read from the environment and
// from {appRoot}/.env
const EnvPrefix = "DOCS_"

// DebugOpts - app wide debug switches
type DebugOpts struct {
	// AccessLog logs every HTTP request at info level.
	AccessLog bool `json:"access_log"`
}

// Core - common config, config/.core.json
type Core struct {
	AppName    string                          `json:"app_name"`
	Listen     string                          `json:"listen"` // HTTP Server Listen IP:PORT Address
	Host       string                          `json:"host"`   // public host, used in logs and links
	DebugOpts  DebugOpts                       `json:"debug_opts"`
	Log        logging.Conf                    `json:"log"`
	Letterhead layout.Letterhead               `json:"letterhead"`
	LogoPath   string                          `json:"letterhead_logo"` // relative to AppRoot
	Worker     jobs.WorkerConf                 `json:"worker"`
	Throttle   map[string]*throttle.BucketConf `json:"throttle"` // route group -> bucket
	AdminSock  string                          `json:"admin_sock"`

	AppRoot    string             `json:"-"`
	RootCtx    context.Context    `json:"-"` // Global Context with RootCancel
	RootCancel context.CancelFunc `json:"-"` // CancelFunc for RootCtx
	Logger     zerolog.Logger     `json:"-"`
	Cipher     *sec.Cipher        `json:"-"` // nil without DOCS_SECRET_KEY

	StorageConf  storage.Conf           `json:"-"`
	StampConf    stamp.Options          `json:"-"`
	TransferConf *transfer.Conf         `json:"-"` // nil = no delivery
	KVDBConf     *kvdb.Conf             `json:"-"`
	SQLDBConfs   map[string]*sqldb.Conf `json:"-"`
	TokenConf    *sec.TokenConf         `json:"-"`
	SourcesConf  *sources.Conf          `json:"-"`

	Store               *storage.Store                `json:"-"`
	Compositor          *stamp.Compositor             `json:"-"`
	StampImage          []byte                        `json:"-"`
	Transfer            *transfer.Pool                `json:"-"`
	KVDBClient          kvdb.Client                   `json:"-"`
	SQLDBClients        map[string]sqldb.Client       `json:"-"`
	Tokens              *sec.Tokens                   `json:"-"`
	Source              sources.Source                `json:"-"` // SQL loader or main backend
	MainBackendConf     *mainbackend.Conf             `json:"-"`
	Engine              *engine.Engine                `json:"-"`
	Queue               *jobs.Queue                   `json:"-"`
	ClientApps          *clients.Registry             `json:"-"` // [Hot Reload] PrepareClientApps
	ThrottleBucketStore *throttle.BucketStore[string] `json:"-"`
	WebService          *web.Service                  `json:"-"`
	JobWorker           *jobs.Worker                  `json:"-"`
	UDSService          *uds.Service                  `json:"-"`

	services []svc.Service // Services to Manage
	done     chan error
}

// BaseInit - 1st step for initialization
// 1. set AppRoot and load {appRoot}/.env
// 2. load config/.core.json and apply DOCS_* overrides
// 3. build the logger and the secret cipher
// 4. start the shutdown signal listener
func (c *Core) BaseInit(appRoot string, rootCtx context.Context, rootCancel context.CancelFunc) error {
	c.AppRoot = appRoot
	if err := godotenv.Load(filepath.Join(appRoot, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	if _, err := c.loadJSON(".core.json", c, false); err != nil {
		return err
	}
	c.applyEnv()
	if c.AppName == "" {
		c.AppName = "gw-docs"
	}
	c.Logger = logging.New(c.AppName, c.Log)
	// packages without an injected logger write through the global one
	log.Logger = c.Logger

	if os.Getenv(EnvPrefix+"SECRET_KEY") != "" {
		cipher, err := sec.NewCipherFromEnv(EnvPrefix + "SECRET_KEY")
		if err != nil {
			return err
		}
		c.Cipher = cipher
	}
	if c.LogoPath != "" {
		logo, err := os.ReadFile(c.path(c.LogoPath))
		if err != nil {
			return fmt.Errorf("letterhead logo: %w", err)
		}
		c.Letterhead.Logo = logo
	}

	c.RootCtx = rootCtx
	c.RootCancel = rootCancel
	c.startShutdownSignalListener()
	return nil
}

func (c *Core) applyEnv() {
	if v := os.Getenv(EnvPrefix + "LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv(EnvPrefix + "HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// path resolves p against AppRoot unless it is absolute
func (c *Core) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.AppRoot, p)
}

// loadJSON reads config/{name} into dst. A missing optional file reports
// false and no error.
func (c *Core) loadJSON(name string, dst any, optional bool) (bool, error) {
	confBytes, err := os.ReadFile(filepath.Join(c.AppRoot, "config", name))
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err = json.Unmarshal(confBytes, dst); err != nil {
		return false, fmt.Errorf("config/%s: %w", name, err)
	}
	return true, nil
}

func (c *Core) AddService(s svc.Service) {
	c.services = append(c.services, s)
	c.Logger.Info().Str("service", s.Name()).Int("total", len(c.services)).Msg("[INFO] service added")
}

func (c *Core) StartServices() error {
	c.done = make(chan error, len(c.services))
	for _, s := range c.services {
		err := s.Start()
		if err != nil {
			return fmt.Errorf("start %s: %w", s.Name(), err)
		}
		go func(s svc.Service) {
			err := <-s.Done()
			c.done <- err
		}(s) // pass the loop var to the param. otherwise, they are captured inside goroutine lazily
	}
	return nil
}

// WaitServicesDone blocks until every service has stopped and returns the
// first error.
func (c *Core) WaitServicesDone() error {
	var first error
	for i := 0; i < len(c.services); i++ {
		if err := <-c.done; err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (c *Core) StopServices() {
	for _, s := range c.services {
		s.Stop()
	}
}

var once sync.Once

func (c *Core) startShutdownSignalListener() {
	once.Do(func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigs
			c.Logger.Info().Str("signal", sig.String()).Msg("[INFO] got signal. shutting down")
			c.RootCancel() // broadcast to all child services via Context.Done()
		}()
	})
	c.Logger.Debug().Msg("[INFO][CORE] shutdown signal listener started")
}

//---- Documents ----

// PrepareStorage - config/.storage.json, default root data/docs
func (c *Core) PrepareStorage() error {
	if _, err := c.loadJSON(".storage.json", &c.StorageConf, true); err != nil {
		return err
	}
	if v := os.Getenv(EnvPrefix + "STORAGE_ROOT"); v != "" {
		c.StorageConf.Root = v
	}
	if c.StorageConf.Root == "" {
		c.StorageConf.Root = "data/docs"
	}
	c.StorageConf.Root = c.path(c.StorageConf.Root)
	store, err := storage.New(c.StorageConf, c.Logger)
	if err != nil {
		return err
	}
	c.Store = store
	return nil
}

// PrepareCompositor - config/.stamp.json over the defaults. The default
// stamp image is read from ImagePath when set.
func (c *Core) PrepareCompositor() error {
	c.StampConf = stamp.DefaultOptions()
	if _, err := c.loadJSON(".stamp.json", &c.StampConf, true); err != nil {
		return err
	}
	comp, err := stamp.NewCompositor(c.StampConf)
	if err != nil {
		return err
	}
	c.Compositor = comp
	if c.StampConf.ImagePath != "" {
		if c.StampImage, err = os.ReadFile(c.path(c.StampConf.ImagePath)); err != nil {
			return fmt.Errorf("stamp image: %w", err)
		}
	}
	return nil
}

// PrepareTransfer - config/.transfer.json; without it documents stay local
func (c *Core) PrepareTransfer() error {
	var tc transfer.Conf
	ok, err := c.loadJSON(".transfer.json", &tc, true)
	if err != nil || !ok {
		return err
	}
	var dial transfer.Dialer
	switch tc.Type {
	case "ftp":
		pw, err := sec.Reveal(c.Cipher, tc.PW, tc.PWEnc)
		if err != nil {
			return fmt.Errorf("transfer pw: %w", err)
		}
		dial = ftp.Dialer(&tc, pw)
	case "local":
		dial = local.Dialer(c.path(tc.Root))
	default:
		return fmt.Errorf("unsupported transfer type %q", tc.Type)
	}
	c.TransferConf = &tc
	c.Transfer = transfer.NewPool(dial, tc.MaxConns, c.Logger)
	return nil
}

// PrepareEngine - needs PrepareStorage and PrepareCompositor; the transfer
// pool is used when prepared.
func (c *Core) PrepareEngine() error {
	if c.Store == nil || c.Compositor == nil {
		return errors.New("storage and compositor not ready")
	}
	ec := engine.Config{
		Layout:     layout.NewEngine(fpdf.NewMetrics(), c.Letterhead),
		Compositor: c.Compositor,
		Store:      c.Store,
		StampImage: c.StampImage,
		Log:        c.Logger,
	}
	if c.Transfer != nil {
		ec.Uploader = c.Transfer
		ec.Host = c.TransferConf.Host
	}
	e, err := engine.New(ec)
	if err != nil {
		return err
	}
	c.Engine = e
	return nil
}

//---- Databases ----

// PrepareKVDatabase - config/.kv-databases.json
func (c *Core) PrepareKVDatabase() error {
	var kc kvdb.Conf
	ok, err := c.loadJSON(".kv-databases.json", &kc, true)
	if err != nil || !ok {
		return err
	}
	pw, err := sec.Reveal(c.Cipher, kc.PW, kc.PWEnc)
	if err != nil {
		return fmt.Errorf("kvdb pw: %w", err)
	}
	switch kc.Type {
	case "redis":
		client := redis.New(&kc, pw)
		if err = client.Init(); err != nil {
			return err
		}
		c.KVDBClient = client
	// case "memcached"
	default:
		return fmt.Errorf("unsupported key-value database type %q", kc.Type)
	}
	c.KVDBConf = &kc
	return nil
}

// PrepareSQLDatabases - config/.sql-databases.json, one client per entry
func (c *Core) PrepareSQLDatabases() error {
	confs := make(map[string]*sqldb.Conf)
	ok, err := c.loadJSON(".sql-databases.json", &confs, true)
	if err != nil || !ok {
		return err
	}
	// Registering Supported Implementations
	pgsql.Register()
	mysql.Register()

	c.SQLDBConfs = confs
	c.SQLDBClients = make(map[string]sqldb.Client, len(confs))
	for name, dc := range confs {
		pw, err := sec.Reveal(c.Cipher, dc.PW, dc.PWEnc)
		if err != nil {
			return fmt.Errorf("sqldb %s pw: %w", name, err)
		}
		client, err := sqldb.New(dc, pw)
		if err != nil {
			return err
		}
		if err = client.Init(); err != nil {
			return fmt.Errorf("sqldb %s: %w", name, err)
		}
		c.SQLDBClients[name] = client
		c.Logger.Info().Str("db", name).Str("type", dc.Type).Msg("[INFO] SQL DB client ready")
	}
	return nil
}

// PrepareSources - config/.sources.json reads records from the SQL client it
// names. Without it, config/.main-backend-api.json fetches them over HTTP.
func (c *Core) PrepareSources() error {
	var sc sources.Conf
	ok, err := c.loadJSON(".sources.json", &sc, true)
	if err != nil {
		return err
	}
	if !ok {
		return c.prepareMainBackendSource()
	}
	db, found := c.SQLDBClients[sc.DB]
	if !found {
		return fmt.Errorf("sources: SQL database %q not configured", sc.DB)
	}
	order, err := sc.OrderBy()
	if err != nil {
		return err
	}
	c.SourcesConf = &sc
	c.Source = sources.NewLoader(db, order)
	return nil
}

func (c *Core) prepareMainBackendSource() error {
	var mc mainbackend.Conf
	ok, err := c.loadJSON(".main-backend-api.json", &mc, true)
	if err != nil || !ok {
		return err
	}
	token, err := sec.Reveal(c.Cipher, mc.Token, mc.TokenEnc)
	if err != nil {
		return fmt.Errorf("main backend token: %w", err)
	}
	c.MainBackendConf = &mc
	c.Source = mainbackend.New(&mc, token)
	return nil
}

//---- Jobs ----

// PrepareQueue - needs PrepareKVDatabase
func (c *Core) PrepareQueue() error {
	if c.KVDBClient == nil {
		return errors.New("job queue needs config/.kv-databases.json")
	}
	c.Queue = jobs.NewQueue(c.KVDBClient, c.Worker.JobTTL())
	return nil
}

func (c *Core) PrepareJobWorker() error {
	if c.Queue == nil || c.Engine == nil {
		return errors.New("queue and engine not ready")
	}
	c.JobWorker = jobs.NewWorker(c.RootCtx, c.Queue, c.Engine, c.Worker, c.Logger)
	c.AddService(c.JobWorker)
	return nil
}

//---- HTTP ----

// PrepareTokens - config/.tokens.json; without it no download links are
// issued
func (c *Core) PrepareTokens() error {
	var tc sec.TokenConf
	ok, err := c.loadJSON(".tokens.json", &tc, true)
	if err != nil || !ok {
		return err
	}
	if tc.Issuer == "" {
		tc.Issuer = c.AppName
	}
	var tokens *sec.Tokens
	switch strings.ToUpper(tc.Alg) {
	case "", "HS256":
		secret, err := sec.Reveal(c.Cipher, tc.Secret, tc.SecretEnc)
		if err != nil {
			return fmt.Errorf("token secret: %w", err)
		}
		tokens, err = sec.NewHS256Tokens(tc.Issuer, []byte(secret), tc.TTL())
		if err != nil {
			return err
		}
	case "RS256":
		key, err := sec.LoadPrivateKey(c.path(tc.PrivateKeyFile))
		if err != nil {
			return err
		}
		var keys *sec.JWKS
		if tc.PublicKeyDir != "" {
			if keys, err = sec.LoadJWKS(c.path(tc.PublicKeyDir)); err != nil {
				return err
			}
		}
		if tokens, err = sec.NewRS256Tokens(tc.Issuer, key, tc.KID, keys, tc.TTL()); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported token alg %q", tc.Alg)
	}
	c.TokenConf = &tc
	c.Tokens = tokens
	return nil
}

// PrepareClientApps builds a new client map from config/.clients.json and
// swaps it in, so this can be invoked again to hot-reload the clients.
func (c *Core) PrepareClientApps() error {
	apps, err := clients.LoadFile(filepath.Join(c.AppRoot, "config", ".clients.json"))
	if err != nil {
		return err
	}
	if c.ClientApps == nil {
		c.ClientApps = clients.NewRegistry(apps)
	} else {
		c.ClientApps.Store(apps)
	}
	c.Logger.Info().Int("clients", len(apps)).Msg("[INFO] client apps loaded")
	return nil
}

// PrepareThrottleBucketStore registers one bucket group per entry of the
// "throttle" section.
func (c *Core) PrepareThrottleBucketStore(cleanupCycle time.Duration, cleanupOlderThan time.Duration) {
	c.ThrottleBucketStore = throttle.NewBucketStore[string](c.RootCtx, cleanupCycle, cleanupOlderThan, c.Logger)
	for group, bc := range c.Throttle {
		c.ThrottleBucketStore.SetBucketGroup(group, bc)
	}
	c.AddService(c.ThrottleBucketStore)
}

// API assembles the HTTP surface from whatever has been prepared.
func (c *Core) API() *web.API {
	return &web.API{
		Engine:   c.Engine,
		Store:    c.Store,
		Queue:    c.Queue,
		Tokens:   c.Tokens,
		Clients:  c.ClientApps,
		Throttle: c.ThrottleBucketStore,
		Source:   c.Source,
		Log:      c.Logger,
	}
}

func (c *Core) PrepareWebService() {
	router := c.API().Router()
	c.WebService = web.NewService(c.RootCtx, c.Listen, router, c.Logger)
	c.AddService(c.WebService)
}

// PrepareUDSService opens the admin socket with the queue commands, when a
// queue is prepared, and reload-clients.
func (c *Core) PrepareUDSService() {
	if c.AdminSock == "" {
		return
	}
	cmds := map[string]uds.CmdHnd{}
	if c.Queue != nil {
		cmds = jobs.AdminCommands(c.Queue)
	}
	cmds["reload-clients"] = uds.CmdHnd{
		Desc: "reload config/.clients.json",
		Fn: func(ctx context.Context, args []string, w io.Writer) error {
			if err := c.PrepareClientApps(); err != nil {
				return err
			}
			_, err := fmt.Fprintf(w, "%d clients\n", c.ClientApps.Len())
			return err
		},
	}
	c.UDSService = uds.NewService(c.RootCtx, c.path(c.AdminSock), cmds, c.Logger)
	c.AddService(c.UDSService)
}

func (c *Core) ResourceCleanUp() {
	c.Logger.Info().Msg("[INFO] App Resource Cleaning Up...")
	if c.Transfer != nil {
		if err := c.Transfer.Close(); err != nil {
			c.Logger.Error().Err(err).Msg("[ERROR] Failed to close transfer pool")
		}
	}
	if c.KVDBClient != nil {
		if err := c.KVDBClient.Close(); err != nil {
			c.Logger.Error().Err(err).Msg("[ERROR] Failed to close KV database client")
		}
	}
	for name, client := range c.SQLDBClients {
		if err := client.Close(); err != nil {
			c.Logger.Error().Err(err).Str("db", name).Msg("[ERROR] Failed to close SQL DB client")
		}
	}
	c.Logger.Info().Msg("[INFO] App Resource Cleanup Complete")
}
