package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tOgg1/squads/internal/config"
	"github.com/tOgg1/squads/internal/db"
	"github.com/tOgg1/squads/internal/logging"
	"github.com/tOgg1/squads/internal/squads/data"
	"github.com/tOgg1/squads/internal/squads/rescache"
)

type globalFlags struct {
	configFile string
	logLevel   string
	logFormat  string
	fixtures   string
	jsonOutput bool
}

// environment holds what every command needs. Storage is opened lazily so
// commands that never touch it do not create files.
type environment struct {
	flags    globalFlags
	cfg      *config.Config
	logger   zerolog.Logger
	logFile  *os.File
	provider data.Provider
	database *db.DB
	cache    *rescache.Cache
}

func (e *environment) setup() error {
	loader := config.NewLoader()
	if e.flags.configFile != "" {
		loader.SetConfigFile(e.flags.configFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	if e.flags.logLevel != "" {
		cfg.Logging.Level = e.flags.logLevel
	}
	if e.flags.logFormat != "" {
		cfg.Logging.Format = e.flags.logFormat
	}
	if e.flags.fixtures != "" {
		cfg.API.FixturesDir = e.flags.fixtures
	}
	e.cfg = cfg

	var out io.Writer = os.Stderr
	if path := strings.TrimSpace(cfg.Logging.File); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		e.logFile = f
		out = f
	}
	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       out,
		EnableCaller: cfg.Logging.EnableCaller,
	})
	e.logger = logging.Component("cli")
	if used := loader.ConfigFileUsed(); used != "" {
		e.logger.Debug().Str("config_file", used).Msg("loaded config file")
	}
	return nil
}

// dataProvider picks the fixtures directory when configured, the HTTP API
// otherwise.
func (e *environment) dataProvider() (data.Provider, error) {
	if e.provider != nil {
		return e.provider, nil
	}
	switch {
	case e.cfg.API.FixturesDir != "":
		e.provider = data.NewFileProvider(e.cfg.API.FixturesDir)
	case e.cfg.API.BaseURL != "":
		e.provider = data.NewHTTPProvider(e.cfg.API.BaseURL, e.cfg.API.Token, e.cfg.API.Timeout)
	default:
		return nil, fmt.Errorf("no data source: set api.base_url or --fixtures")
	}
	return e.provider, nil
}

func (e *environment) openDB(ctx context.Context) (*db.DB, error) {
	if e.database != nil {
		return e.database, nil
	}
	if err := e.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	database, err := db.Open(ctx, e.cfg.DatabasePath())
	if err != nil {
		return nil, err
	}
	e.database = database
	return database, nil
}

// openCache starts a resource cache persisting under the configured image
// directory and recording into the metadata database.
func (e *environment) openCache(ctx context.Context) (*rescache.Cache, error) {
	if e.cache != nil {
		return e.cache, nil
	}
	provider, err := e.dataProvider()
	if err != nil {
		return nil, err
	}
	database, err := e.openDB(ctx)
	if err != nil {
		return nil, err
	}
	cache, err := rescache.New(provider, rescache.Options{
		Dir:          e.cfg.ImageCacheDir(),
		Extension:    e.cfg.Cache.Extension,
		Workers:      e.cfg.Cache.Workers,
		FetchTimeout: e.cfg.Cache.FetchTimeout,
		MaxResident:  e.cfg.Cache.MaxResident,
		Manifest:     db.NewResourceRepository(database),
	})
	if err != nil {
		return nil, err
	}
	cache.Start(ctx)
	e.cache = cache
	return cache, nil
}

func (e *environment) close() error {
	var firstErr error
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			firstErr = err
		}
		e.cache = nil
	}
	if e.database != nil {
		if err := e.database.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		e.database = nil
	}
	if e.logFile != nil {
		_ = e.logFile.Close()
		e.logFile = nil
	}
	return firstErr
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
