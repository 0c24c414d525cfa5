package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/mangameta/internal/chapters"
	"github.com/brogergvhs/mangameta/internal/reconcile"
)

// run executes the root command with args and returns what it printed.
// Package-level flag values survive between executions, so they are reset
// first.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	flagIgnoreConfig, flagDebug, flagPermissive, flagJSON = false, false, false, false
	flagSitesDir, flagFieldsHTML = "", ""
	flagSearchSite, flagSearchPage = "", 1
	flagSeries, flagChapter, flagRange, flagList, flagAllowExt = "", "", "", "", ""
	flagOutput, flagImageWorkers, flagChapterWorkers = "", 0, 0
	flagKeepFolders, flagDryRun, flagSkipBroken = false, false, false
	flagRetries, flagTimeout, flagRPS = 0, 0, 0
	flagCookie, flagCookieFile, flagUserAgent = "", "", ""
	flagInitYes, flagConfigFrom, forceRemove, flagResetSites = false, "", false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()

	return out.String(), err
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	return dir
}

func TestFieldsCheck(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"demo.scraper": `"kind": "MultiSiteScraper"
urls[@href] #list ... a
labels[@strip_text] #list ... a`,
		"page.html": `<div id="list"><p><a href="/c/1"> One </a></p><p><a href="/c/2">Two</a></p></div>`,
	})

	out, err := run(t, "fields", "check", filepath.Join(dir, "demo.scraper"))
	require.NoError(t, err)
	assert.Contains(t, out, "#list a")
	assert.Contains(t, out, "2 fields ok")

	out, err = run(t, "--json", "fields", "check", filepath.Join(dir, "demo.scraper"), "--html", filepath.Join(dir, "page.html"))
	require.NoError(t, err)

	var values map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &values))
	assert.Equal(t, `["/c/1","/c/2"]`, values["urls"])
	assert.Equal(t, `["One","Two"]`, values["labels"])
}

func TestFieldsCheckRejectsBadSelector(t *testing.T) {
	dir := writeFiles(t, map[string]string{"bad.scraper": "urls[@href] #list.\n"})

	_, err := run(t, "fields", "check", filepath.Join(dir, "bad.scraper"))
	assert.Error(t, err)
}

func TestSitesCommand(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"demo.filter":  "starts_with https://demo.example/\n",
		"demo.scraper": "\"kind\": \"MultiSiteScraper\"\nurls[@href] a\n",
		"demo.search":  `{"url": "https://demo.example/s?q={query}", "selector": "a", "cover": "img"}`,
		"other.filter": "contains other.example\n",
	})

	out, err := run(t, "--ignore-config", "--sites-dir", dir, "sites")
	require.NoError(t, err)
	assert.Contains(t, out, "chapters,search")
	assert.Contains(t, out, "Searchable: demo, kitsu")
	assert.Regexp(t, `other\s+-\s*\n`, out)
}

const seriesPage = `<html><body><ul id="list">
<li><a href="/series/demo/1">Chapter 1</a></li>
<li><a href="/series/demo/2">Chapter 2</a></li>
</ul></body></html>`

const chapterPage = `<html><body><div id="pages">
<img src="/img/1.jpg"><img src="/img/2.jpg">
</div></body></html>`

func demoSite(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/series/demo", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, seriesPage)
	})
	mux.HandleFunc("/series/demo/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, chapterPage)
	})
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = fmt.Fprint(w, "jpeg:"+r.URL.Path)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dir := writeFiles(t, map[string]string{
		"demo.filter": "starts_with " + srv.URL + "/series/\n",
		"demo.scraper": `"kind": "MultiSiteScraper"
urls[@href] #list ... a
labels[@strip_text] #list ... a
imgs[@src] #pages img`,
	})

	return srv, dir
}

func TestChaptersCommand(t *testing.T) {
	srv, dir := demoSite(t)

	out, err := run(t, "--ignore-config", "--sites-dir", dir, "--json", "chapters", srv.URL+"/series/demo")
	require.NoError(t, err)

	var res reconcile.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Now, 2)
	assert.Equal(t, 2.0, res.Now[1].Episode)
	assert.Equal(t, srv.URL+"/series/demo/2", res.Now[1].URL)

	out, err = run(t, "--ignore-config", "--sites-dir", dir, "pages", srv.URL+"/series/demo/1")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/img/1.jpg\n"+srv.URL+"/img/2.jpg\n", out)

	_, err = run(t, "--ignore-config", "--sites-dir", dir, "chapters", "https://unknown.example/")
	assert.Error(t, err)
}

func TestDownloadCommand(t *testing.T) {
	srv, dir := demoSite(t)
	output := t.TempDir()

	out, err := run(t, "--ignore-config", "--sites-dir", dir, "download", srv.URL+"/series/demo",
		"--series", "Demo", "--list", "2", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Dry-run: 1 chapters selected.")

	out, err = run(t, "--ignore-config", "--sites-dir", dir, "download", srv.URL+"/series/demo",
		"--series", "Demo", "--list", "2", "--output", output, "--retries", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Chapters: 1\n")

	ch := chapters.Chapter{Series: "Demo", Info: reconcile.Info{Episode: 2, Titles: []string{"Chapter 2"}}}
	assert.FileExists(t, ch.OutputCBZPath(output))
	assert.NoDirExists(t, filepath.Join(output, ch.FolderName()))
}

func TestConfigCommands(t *testing.T) {
	t.Setenv("APPDATA", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	out, err := run(t, "config", "init", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "This config is now active (label: Default).")

	out, err = run(t, "config", "add", "work")
	require.NoError(t, err)
	assert.Contains(t, out, "Created new config:")

	_, err = run(t, "config", "switch", "work")
	require.NoError(t, err)

	out, err = run(t, "config", "rename", "work", "office")
	require.NoError(t, err)
	assert.Contains(t, out, `Active profile is now "office"`)

	out, err = run(t, "config", "list")
	require.NoError(t, err)
	assert.Regexp(t, `office\s+\S+office\.yaml\s+yes`, out)

	out, err = run(t, "config", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, `Reset config "office"`)

	out, err = run(t, "config", "remove", "office", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Fallback switched to: Default")

	_, err = run(t, "config", "rename", "Default", "main")
	assert.Error(t, err)

	out, err = run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "mangameta dev")
}

func TestPermissiveFlagHelp(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("permissive")
	require.NotNil(t, flag)
	assert.Equal(t, "fill in missing chapter numbers instead of failing", flag.Usage)
	assert.NotContains(t, flag.Usage, "duplicate")
}
