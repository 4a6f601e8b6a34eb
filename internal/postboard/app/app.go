package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aussiebroadwan/postboard/internal/postboard/store"
	"github.com/aussiebroadwan/postboard/internal/postboard/store/drivers/file"
	"github.com/aussiebroadwan/postboard/internal/postboard/store/drivers/memory"
	"github.com/aussiebroadwan/postboard/internal/postboard/store/drivers/sqlite"
	"github.com/aussiebroadwan/postboard/pkg/feedsdk"
	"github.com/aussiebroadwan/postboard/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X".
var BuildVersion = "v0.1.0"

const storePingTimeout = 5 * time.Second

// Application holds the client-side dependencies every command needs.
type Application struct {
	cfg    Config
	logger *slog.Logger

	store   store.Store
	client  *feedsdk.SDKClient
	session *feedsdk.Session
}

// Option adjusts construction. Tests use them to inject transports and
// writers.
type Option func(*options)

type options struct {
	logWriter io.Writer
	transport http.RoundTripper
}

// WithLogWriter sends logs to w instead of stderr.
func WithLogWriter(w io.Writer) Option {
	return func(o *options) { o.logWriter = w }
}

// WithTransport sets the HTTP transport under the logging transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// New builds the logger, credential store, SDK client and an Uninitialized
// session.
func New(cfg Config, opts ...Option) (*Application, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "postboard",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Writer:  o.logWriter,
		}),
	}

	if err := app.initStore(); err != nil {
		return nil, err
	}

	app.initClient(o.transport)
	app.session = app.client.NewSession(app.store)

	return app, nil
}

// initStore opens the configured credential store and applies migrations.
func (app *Application) initStore() error {
	var (
		st  store.Store
		err error
	)

	switch app.cfg.Store {
	case StoreFile, "":
		st, err = file.NewStore(app.cfg.StorePath, app.cfg.StorePassphrase)
	case StoreSQLite:
		if err = os.MkdirAll(filepath.Dir(app.cfg.StorePath), 0o700); err == nil {
			st, err = sqlite.NewStore(app.cfg.StorePath)
		}
	case StoreMemory:
		st = memory.NewStore()
	default:
		return fmt.Errorf("%w: %q", store.ErrUnknownDriver, app.cfg.Store)
	}
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", app.cfg.Store, err)
	}

	if err := st.ApplyMigrations(); err != nil {
		_ = st.Close()
		return fmt.Errorf("failed to apply store migrations: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), storePingTimeout)
	defer cancel()
	if err := st.Ping(ctx); err != nil {
		_ = st.Close()
		return fmt.Errorf("credential store unreachable: %w", err)
	}

	app.store = st
	app.logger.Debug("credential store ready", "driver", app.cfg.Store, "path", app.cfg.StorePath)
	return nil
}

func (app *Application) initClient(rt http.RoundTripper) {
	client := feedsdk.NewSDKClient(app.cfg.APIURL)
	client.HTTPClient = &http.Client{
		Timeout:   app.cfg.HTTPTimeout,
		Transport: slogx.NewTransport(app.logger, rt),
	}
	client.Logger = app.logger
	client.Limiter = app.cfg.ClientLimit.Limiter()
	if app.cfg.RefreshLeeway > 0 {
		client.RefreshLeeway = app.cfg.RefreshLeeway
	}
	app.client = client
}

// Bootstrap restores the persisted session. A failed restore is logged and
// leaves the session Anonymous; the error is returned so callers can say why
// a protected command was refused.
func (app *Application) Bootstrap(ctx context.Context) error {
	err := app.session.Bootstrap(ctx)
	if err != nil {
		app.logger.Warn("could not restore session", "error", err)
	}
	return err
}

func (app *Application) Config() Config             { return app.cfg }
func (app *Application) Logger() *slog.Logger       { return app.logger }
func (app *Application) Client() *feedsdk.SDKClient { return app.client }
func (app *Application) Session() *feedsdk.Session  { return app.session }
func (app *Application) Store() store.Store         { return app.store }

// Close releases the credential store.
func (app *Application) Close() error {
	if err := app.store.Close(); err != nil {
		app.logger.Error("error closing credential store", "error", err)
		return err
	}
	return nil
}
