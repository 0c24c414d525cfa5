package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/brogergvhs/mangameta/internal/reconcile"
	"github.com/brogergvhs/mangameta/internal/scrapeerr"
)

type Config struct {
	SitesDir       string   `yaml:"sites_dir"`
	Output         string   `yaml:"output"`
	ImageWorkers   int      `yaml:"image_workers"`
	ChapterWorkers int      `yaml:"chapter_workers"`
	KeepFolders    bool     `yaml:"keep_folders"`
	Debug          bool     `yaml:"debug"`
	AllowExt       []string `yaml:"allow_ext"`

	Cookie     string `yaml:"cookie"`
	CookieFile string `yaml:"cookie_file"`
	UserAgent  string `yaml:"user_agent"`

	SkipBroken         bool `yaml:"skip_broken"`
	Retries            int  `yaml:"retries"`
	TimeoutSeconds     int  `yaml:"timeout_seconds"`
	PermissiveEpisodes bool `yaml:"permissive_episodes"`

	// RequestsPerSecond caps page fetches. Zero disables the limit.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// Options are command-line overrides. Zero values leave the profile alone.
type Options struct {
	IgnoreConfig       bool
	Debug              bool
	SitesDir           string
	Output             string
	ImageWorkers       int
	ChapterWorkers     int
	KeepFolders        bool
	AllowExt           []string
	Cookie             string
	CookieFile         string
	UserAgent          string
	SkipBroken         bool
	Retries            int
	TimeoutSeconds     int
	PermissiveEpisodes bool
	RequestsPerSecond  float64
}

const (
	defaultImageWorkers   = 5
	defaultChapterWorkers = 2
	defaultRetries        = 3
	defaultTimeout        = 30
)

func DefaultSitesDir() string {
	return filepath.Join(ConfigRoot(), "sites")
}

func DefaultConfig() *Config {
	return &Config{
		SitesDir:       DefaultSitesDir(),
		Output:         ".",
		ImageWorkers:   defaultImageWorkers,
		ChapterWorkers: defaultChapterWorkers,
		AllowExt:       []string{"jpg", "jpeg", "png", "webp"},
		Retries:        defaultRetries,
		TimeoutSeconds: defaultTimeout,
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, scrapeerr.Wrap(scrapeerr.KindConfiguration, err, "parse "+path)
	}

	return &c, nil
}

// LoadMerged reads the active profile, applies opts on top and fills in
// defaults. The second result says where the values came from.
func LoadMerged(opts Options) (*Config, string, error) {
	if opts.IgnoreConfig {
		return finish(DefaultConfig(), opts, "(ignored config)")
	}

	activePath, err := ActiveConfigPath()
	if errors.Is(err, ErrNoConfig) || activePath == "" {
		return finish(DefaultConfig(), opts, "(default config in memory)\nRun `mangameta config init` to create an actual config")
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadYAML(activePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
	}

	return finish(cfg, opts, activePath)
}

func finish(cfg *Config, opts Options, source string) (*Config, string, error) {
	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return cfg, source, nil
}

func mergeConfig(c *Config, o Options) {
	if o.SitesDir != "" {
		c.SitesDir = o.SitesDir
	}
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.ImageWorkers != 0 {
		c.ImageWorkers = o.ImageWorkers
	}
	if o.ChapterWorkers != 0 {
		c.ChapterWorkers = o.ChapterWorkers
	}
	if o.KeepFolders {
		c.KeepFolders = true
	}
	if o.Debug {
		c.Debug = true
	}
	if len(o.AllowExt) > 0 {
		c.AllowExt = o.AllowExt
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.SkipBroken {
		c.SkipBroken = true
	}
	if o.Retries != 0 {
		c.Retries = o.Retries
	}
	if o.TimeoutSeconds != 0 {
		c.TimeoutSeconds = o.TimeoutSeconds
	}
	if o.PermissiveEpisodes {
		c.PermissiveEpisodes = true
	}
	if o.RequestsPerSecond != 0 {
		c.RequestsPerSecond = o.RequestsPerSecond
	}
}

func normalizeDefaults(c *Config) {
	if c.SitesDir == "" {
		c.SitesDir = DefaultSitesDir()
	}
	if c.Output == "" {
		c.Output = "."
	}
	if c.ImageWorkers == 0 {
		c.ImageWorkers = defaultImageWorkers
	}
	if c.ChapterWorkers == 0 {
		c.ChapterWorkers = defaultChapterWorkers
	}
	if c.Retries == 0 {
		c.Retries = defaultRetries
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = defaultTimeout
	}
	for i, ext := range c.AllowExt {
		c.AllowExt[i] = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	}
}

func (c *Config) Validate() error {
	switch {
	case c.ImageWorkers < 0:
		return scrapeerr.Configuration("image_workers must be positive, got %d", c.ImageWorkers)
	case c.ChapterWorkers < 0:
		return scrapeerr.Configuration("chapter_workers must be positive, got %d", c.ChapterWorkers)
	case c.Retries < 0:
		return scrapeerr.Configuration("retries must be positive, got %d", c.Retries)
	case c.TimeoutSeconds < 0:
		return scrapeerr.Configuration("timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	case c.RequestsPerSecond < 0:
		return scrapeerr.Configuration("requests_per_second must be positive, got %g", c.RequestsPerSecond)
	}

	return nil
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *Config) Policy() reconcile.Policy {
	if c.PermissiveEpisodes {
		return reconcile.Permissive
	}

	return reconcile.Strict
}

func (c *Config) Print(w io.Writer) {
	_, _ = fmt.Fprintf(w, " -sites_dir: %s\n", c.SitesDir)
	_, _ = fmt.Fprintf(w, " -output: %s\n", c.Output)
	_, _ = fmt.Fprintf(w, " -image_workers: %d\n", c.ImageWorkers)
	_, _ = fmt.Fprintf(w, " -chapter_workers: %d\n", c.ChapterWorkers)
	_, _ = fmt.Fprintf(w, " -retries: %d\n", c.Retries)
	_, _ = fmt.Fprintf(w, " -timeout_seconds: %d\n", c.TimeoutSeconds)
	_, _ = fmt.Fprintf(w, " -episodes: %s\n", c.Policy())
	if c.KeepFolders {
		_, _ = fmt.Fprintf(w, " -keep_folders: %t\n", c.KeepFolders)
	}
	if c.Debug {
		_, _ = fmt.Fprintf(w, " -debug: %t\n", c.Debug)
	}
	if c.CookieFile != "" {
		_, _ = fmt.Fprintf(w, " -cookie_file: %s\n", c.CookieFile)
	}
	if c.UserAgent != "" {
		_, _ = fmt.Fprintf(w, " -user_agent: %s\n", c.UserAgent)
	}
	if c.SkipBroken {
		_, _ = fmt.Fprintf(w, " -skip_broken: %t\n", c.SkipBroken)
	}
	if c.RequestsPerSecond > 0 {
		_, _ = fmt.Fprintf(w, " -requests_per_second: %g\n", c.RequestsPerSecond)
	}
	if len(c.AllowExt) > 0 {
		_, _ = fmt.Fprintf(w, " -allow_ext: %s\n", strings.Join(c.AllowExt, ", "))
	}
}
