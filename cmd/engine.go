package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/brogergvhs/mangameta/internal/adapters/kitsu"
	"github.com/brogergvhs/mangameta/internal/config"
	"github.com/brogergvhs/mangameta/internal/services"
	"github.com/brogergvhs/mangameta/internal/sites"
	"github.com/brogergvhs/mangameta/internal/ui"
	"github.com/brogergvhs/mangameta/internal/util"
)

// env is everything a scraping command needs, built from the merged config.
type env struct {
	cfg     *config.Config
	source  string
	log     *ui.Logger
	client  *http.Client
	catalog *sites.Catalog
	engine  *services.Engine
}

func loadEnv(opts config.Options) (*env, error) {
	opts.IgnoreConfig = flagIgnoreConfig
	opts.Debug = opts.Debug || flagDebug
	opts.SitesDir = flagSitesDir
	opts.PermissiveEpisodes = opts.PermissiveEpisodes || flagPermissive

	cfg, source, err := config.LoadMerged(opts)
	if err != nil {
		return nil, err
	}

	log := ui.NewLogger(cfg.Debug)
	log.Debugf("config: %s", source)

	client, err := util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:     cfg.Timeout(),
		UserAgent:   util.PickUserAgent(cfg.UserAgent),
		Cookie:      cfg.Cookie,
		CookieFile:  cfg.CookieFile,
		DebugLogger: log.Named("http"),
	})
	if err != nil {
		return nil, err
	}

	cat, err := sites.Load(cfg.SitesDir)
	if err != nil {
		return nil, fmt.Errorf("load sites from %s: %w", cfg.SitesDir, err)
	}
	log.Debugf("loaded %d sites from %s", len(cat.Registry.Sites()), cfg.SitesDir)

	fetcher := util.NewFetcher(client, cfg.Retries)
	fetcher.Limiter = util.PerSecond(cfg.RequestsPerSecond)
	adapters := map[string]services.Adapter{
		"kitsu": kitsu.New(fetcher),
	}
	engine := services.New(cat, fetcher, services.Options{
		Policy:   cfg.Policy(),
		Adapters: adapters,
		Log:      log.Named("services"),
	})

	return &env{
		cfg:     cfg,
		source:  source,
		log:     log,
		client:  client,
		catalog: cat,
		engine:  engine,
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
