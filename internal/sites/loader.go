package sites

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/cascadia"

	"github.com/brogergvhs/mangameta/internal/extractor"
	"github.com/brogergvhs/mangameta/internal/scrapeerr"
)

type Kind string

const (
	SingleSiteScraper Kind = "SingleSiteScraper"
	MultiSiteScraper  Kind = "MultiSiteScraper"
)

// RequestConfig holds the request headers for a site. The METHOD key picks
// the HTTP method instead of setting a header.
type RequestConfig map[string]string

const methodKey = "METHOD"

func (c RequestConfig) Method() string {
	if m := strings.TrimSpace(c[methodKey]); m != "" {
		return strings.ToUpper(m)
	}

	return "GET"
}

func (c RequestConfig) Headers() map[string]string {
	out := make(map[string]string, len(c))
	for k, v := range c {
		if k != methodKey {
			out[k] = v
		}
	}

	return out
}

// Service is a compiled field set for one site plus how to request its pages.
type Service struct {
	Name    string
	Kind    Kind
	Fields  []extractor.Descriptor
	Request RequestConfig
}

// Process evaluates every field against an HTML document. Fields whose
// first-only selector matched nothing are left out of the result.
func (s *Service) Process(html string) (map[string]string, error) {
	return extractor.ExtractHTML(html, s.Fields)
}

// SearchDef is a compiled .search definition.
type SearchDef struct {
	Name     string
	Request  RequestConfig
	URL      string
	URLEmpty string
	Offset   int

	Selector cascadia.Selector
	Cover    cascadia.Selector
	// Optional selectors are nil when the definition leaves them out.
	Label  cascadia.Selector
	Type   cascadia.Selector
	Status cascadia.Selector
}

// Catalog is everything loaded from a site directory. It is built once and
// shared read-only.
type Catalog struct {
	Registry *Registry
	Multi    map[string]*Service
	Single   map[string]*Service
	Metadata map[string]*Service
	Search   map[string]*SearchDef
}

type header struct {
	Kind          *Kind   `json:"kind"`
	RequestConfig *string `json:"request_config"`
}

type searchFile struct {
	Headers       *string `json:"headers"`
	URLEmpty      *string `json:"url_empty"`
	URL           string  `json:"url"`
	Selector      string  `json:"selector"`
	LabelSelector *string `json:"label_selector"`
	Type          *string `json:"type"`
	Status        *string `json:"status"`
	Cover         string  `json:"cover"`
	Offset        *int    `json:"offset"`
}

var iconExts = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "webp": true, "ico": true, "svg": true,
}

// Load reads a site directory. A single bad file fails the whole load.
func Load(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read sites dir: %w", err)
	}

	cat := &Catalog{
		Multi:    map[string]*Service{},
		Single:   map[string]*Service{},
		Metadata: map[string]*Service{},
		Search:   map[string]*SearchDef{},
	}
	filters := map[string][]Filter{}
	icons := map[string]string{}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		site, _, ok := strings.Cut(name, ".")
		if !ok {
			continue
		}
		ext := strings.TrimPrefix(filepath.Ext(name), ".")
		path := filepath.Join(dir, name)

		switch ext {
		case "filter":
			raw, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			fs, err := ParseFilters(string(raw))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			filters[site] = fs
		case "scraper":
			svc, err := loadService(dir, path, site)
			if err != nil {
				return nil, err
			}
			switch svc.Kind {
			case MultiSiteScraper:
				cat.Multi[site] = svc
			case SingleSiteScraper:
				cat.Single[site] = svc
			default:
				return nil, scrapeerr.Configuration("%s: missing or unknown kind %q", name, svc.Kind)
			}
		case "metadata":
			svc, err := loadService(dir, path, site)
			if err != nil {
				return nil, err
			}
			cat.Metadata[site] = svc
		case "search":
			def, err := loadSearch(dir, path, site)
			if err != nil {
				return nil, err
			}
			cat.Search[site] = def
		case "json":
			// request configs, read on demand
		default:
			if iconExts[strings.ToLower(ext)] {
				icons[site] = path
			}
		}
	}

	var list []Site
	for site, fs := range filters {
		list = append(list, Site{Name: site, Filters: fs, Icon: icons[site]})
	}
	cat.Registry = NewRegistry(list)

	return cat, nil
}

func loadService(dir, path, site string) (*Service, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	first, rest, _ := strings.Cut(string(raw), "\n")
	first = strings.TrimSpace(first)
	if first == "" {
		return nil, scrapeerr.Configuration("header missing in file: %s", path)
	}
	if !strings.HasPrefix(first, "{") {
		first = "{" + first + "}"
	}

	var h header
	if err := json.Unmarshal([]byte(first), &h); err != nil {
		return nil, scrapeerr.Wrap(scrapeerr.KindConfiguration, err, "header of "+path)
	}

	fields, err := extractor.ParseAll(rest)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	svc := &Service{Name: site, Fields: fields}
	if h.Kind != nil {
		svc.Kind = *h.Kind
	}
	if h.RequestConfig != nil {
		svc.Request, err = loadRequestConfig(dir, *h.RequestConfig)
		if err != nil {
			return nil, err
		}
	}

	return svc, nil
}

func loadRequestConfig(dir, file string) (RequestConfig, error) {
	raw, err := os.ReadFile(filepath.Join(dir, file))
	if err != nil {
		return nil, fmt.Errorf("request config: %w", err)
	}

	var cfg RequestConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, scrapeerr.Wrap(scrapeerr.KindConfiguration, err, "request config "+file)
	}

	return cfg, nil
}

func loadSearch(dir, path, site string) (*SearchDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f searchFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, scrapeerr.Wrap(scrapeerr.KindConfiguration, err, "search definition "+path)
	}
	if f.URL == "" {
		return nil, scrapeerr.Configuration("%s: url is required", path)
	}

	def := &SearchDef{Name: site, URL: f.URL}
	if f.URLEmpty != nil {
		def.URLEmpty = *f.URLEmpty
	}
	if f.Offset != nil {
		def.Offset = *f.Offset
	}
	if f.Headers != nil {
		if def.Request, err = loadRequestConfig(dir, *f.Headers); err != nil {
			return nil, err
		}
	}

	compile := func(field, css string) (cascadia.Selector, error) {
		sel, err := cascadia.Compile(css)
		if err != nil {
			return nil, scrapeerr.Wrap(scrapeerr.KindGrammar, err, fmt.Sprintf("%s: %s selector", path, field))
		}

		return sel, nil
	}
	optional := func(field string, css *string) (cascadia.Selector, error) {
		if css == nil {
			return nil, nil
		}

		return compile(field, *css)
	}

	if def.Selector, err = compile("selector", f.Selector); err != nil {
		return nil, err
	}
	if def.Cover, err = compile("cover", f.Cover); err != nil {
		return nil, err
	}
	if def.Label, err = optional("label_selector", f.LabelSelector); err != nil {
		return nil, err
	}
	if def.Type, err = optional("type", f.Type); err != nil {
		return nil, err
	}
	if def.Status, err = optional("status", f.Status); err != nil {
		return nil, err
	}

	return def, nil
}
