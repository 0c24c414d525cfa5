package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/brogergvhs/mangameta/internal/chapters"
	"github.com/brogergvhs/mangameta/internal/config"
	"github.com/brogergvhs/mangameta/internal/downloader"
	"github.com/brogergvhs/mangameta/internal/ui"
	"github.com/brogergvhs/mangameta/internal/util"
)

var (
	// selection
	flagSeries   string
	flagChapter  string
	flagRange    string
	flagList     string
	flagAllowExt string

	// runtime
	flagOutput         string
	flagImageWorkers   int
	flagChapterWorkers int
	flagKeepFolders    bool
	flagDryRun         bool
	flagSkipBroken     bool
	flagRetries        int
	flagTimeout        int
	flagRPS            float64

	// headers/auth
	flagCookie     string
	flagCookieFile string
	flagUserAgent  string
)

func init() {
	downloadCmd := &cobra.Command{
		Use:   "download <series-url>",
		Short: "Download manga chapters and produce CBZ files. Uses the defaults from the selected config, overwritten by CLI flags",
		Args:  cobra.ExactArgs(1),
		RunE:  runDownload,
	}

	// selection
	downloadCmd.Flags().StringVar(&flagSeries, "series", "", "series name used for file names (defaults to the metadata title)")
	downloadCmd.Flags().StringVar(&flagChapter, "chapter", "", "download a single chapter by number or title (e.g. 5 or 28.5)")
	downloadCmd.Flags().StringVar(&flagRange, "range", "", "download a range of chapter numbers (e.g. 5-12)")
	downloadCmd.Flags().StringVar(&flagList, "list", "", "download specific chapter numbers (e.g. 1,3,5.5)")
	downloadCmd.Flags().StringVar(&flagAllowExt, "allow-ext", "", "allowed image extensions (e.g. \"webp|jpg|png\")")

	// runtime
	downloadCmd.Flags().StringVar(&flagOutput, "output", "", "output folder for CBZ files")
	downloadCmd.Flags().IntVar(&flagImageWorkers, "image-workers", 0, "parallel image downloads per chapter")
	downloadCmd.Flags().IntVar(&flagChapterWorkers, "chapter-workers", 0, "parallel chapter downloads")
	downloadCmd.Flags().BoolVar(&flagKeepFolders, "keep-folders", false, "keep temporary folders")
	downloadCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "show what would be downloaded, don't download")
	downloadCmd.Flags().BoolVar(&flagSkipBroken, "skip-broken", false, "skip failed images instead of failing the whole chapter")
	downloadCmd.Flags().IntVar(&flagRetries, "retries", 0, "attempts per request")
	downloadCmd.Flags().IntVar(&flagTimeout, "timeout", 0, "request timeout in seconds")
	downloadCmd.Flags().Float64Var(&flagRPS, "requests-per-second", 0, "limit page fetches per second (0 = unlimited)")

	// headers/auth
	downloadCmd.Flags().StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	downloadCmd.Flags().StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	downloadCmd.Flags().StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(config.Options{
		Output:         flagOutput,
		ImageWorkers:   flagImageWorkers,
		ChapterWorkers: flagChapterWorkers,
		KeepFolders:    flagKeepFolders,
		AllowExt:       splitExt(flagAllowExt),
		Cookie:         flagCookie,
		CookieFile:     flagCookieFile,
		UserAgent:      flagUserAgent,
		SkipBroken:     flagSkipBroken,
		Retries:        flagRetries,
		TimeoutSeconds: flagTimeout,

		RequestsPerSecond: flagRPS,
	})
	if err != nil {
		return err
	}
	defer e.log.Sync()

	cfg := e.cfg
	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	seriesURL := args[0]

	_, _ = fmt.Fprintf(out, "Config file: %s\n", e.source)
	if cfg.Debug {
		cfg.Print(out)
	}
	_, _ = fmt.Fprintln(out)

	res, err := e.engine.Multi.GetChapters(ctx, seriesURL)
	if err != nil {
		return err
	}

	sel := chapters.Selection{Chapter: flagChapter, Range: flagRange, List: flagList}
	if sel.Empty() {
		_, _ = fmt.Fprintf(out, "Found %d chapters on the site", len(res.Now))
		if len(res.Later) > 0 {
			_, _ = fmt.Fprintf(out, " (%d more scheduled)", len(res.Later))
		}
		_, _ = fmt.Fprint(out, ".\n\n")
	}

	series := seriesName(ctx, e, seriesURL)
	selected, err := chapters.Filter(chapters.Wrap(series, res.Now), sel)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return fmt.Errorf("no chapters selected")
	}

	if flagDryRun {
		_, _ = fmt.Fprintf(out, "Dry-run: %d chapters selected.\n\n", len(selected))
		for i, ch := range selected {
			_, _ = fmt.Fprintf(out, "%3d) %s  [%s]\n    %s\n", i+1, ch.Title(), ch.Number(), ch.URL)
		}
		return nil
	}

	if err := os.MkdirAll(cfg.Output, 0755); err != nil {
		return fmt.Errorf("cannot create output folder: %w", err)
	}
	util.SetupInterruptHandler(cfg.Output, e.log)

	pm := ui.NewProgressManager(out)
	stats := &ui.Stats{}
	dl := downloader.New(e.client, downloader.Options{
		Attempts:   cfg.Retries,
		Timeout:    cfg.Timeout(),
		SkipBroken: cfg.SkipBroken,
		AllowExt:   cfg.AllowExt,
	}, e.log.Named("download"))
	start := time.Now()

	sem := make(chan struct{}, max(1, cfg.ChapterWorkers))
	var wg sync.WaitGroup

	for _, ch := range selected {
		ch := ch
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			if err := downloadChapter(ctx, e, dl, pm, stats, ch); err != nil {
				stats.FailedChapters.Add(1)
				e.log.Errorf("chapter %s failed: %v", ch.Number(), err)
			}
		}()
	}
	wg.Wait()
	pm.Wait()

	_, _ = fmt.Fprintln(out)
	stats.Summary(out, time.Since(start))
	util.RemoveIfEmpty(cfg.Output, e.log)

	if failed := stats.FailedChapters.Load(); failed > 0 {
		return fmt.Errorf("%d of %d chapters failed", failed, len(selected))
	}
	_, _ = fmt.Fprintln(out, "\nAll done.")

	return nil
}

func downloadChapter(
	ctx context.Context,
	e *env,
	dl *downloader.Downloader,
	pm *ui.ProgressManager,
	stats *ui.Stats,
	ch chapters.Chapter,
) error {
	handle := pm.Register("Ch." + ch.Number())

	imgs, err := e.engine.Multi.GetPages(ctx, ch.Info)
	if err != nil {
		handle.Abort()
		return err
	}
	if len(imgs) == 0 {
		handle.Abort()
		return fmt.Errorf("no pages found at %s", ch.URL)
	}
	handle.SetTotal(len(imgs))

	tmpFolder := filepath.Join(e.cfg.Output, ch.FolderName())
	res, err := dl.DownloadPages(ctx, imgs, tmpFolder, ch.URL, max(1, e.cfg.ImageWorkers), handle)
	stats.SkippedImages.Add(int64(res.Skipped + res.Failed))
	if err != nil {
		_ = os.RemoveAll(tmpFolder)
		return err
	}
	if len(res.Files) == 0 {
		_ = os.RemoveAll(tmpFolder)
		return fmt.Errorf("every page was skipped")
	}

	info := &util.ComicInfo{
		Title:  ch.Title(),
		Series: ch.Series,
		Number: ch.Number(),
		Web:    ch.URL,
		Manga:  "YesAndRightToLeft",
	}
	if err := util.CreateCBZ(res.Files, ch.OutputCBZPath(e.cfg.Output), info); err != nil {
		_ = os.RemoveAll(tmpFolder)
		return err
	}

	if !e.cfg.KeepFolders {
		util.CleanupFolder(tmpFolder)
	}

	stats.TotalChapters.Add(1)
	stats.TotalImages.Add(int64(len(res.Files)))
	stats.TotalBytes.Add(res.Bytes)

	return nil
}

// seriesName picks the name used in output file names: the --series flag,
// then the metadata title, then the last path segment of the series URL.
func seriesName(ctx context.Context, e *env, seriesURL string) string {
	if flagSeries != "" {
		return flagSeries
	}

	if meta, err := e.engine.Metadata.GetMetadata(ctx, seriesURL); err == nil {
		if title, ok := meta["title"]; ok && !title.IsArray() && title.Item != "" {
			return title.Item
		}
	} else {
		e.log.Debugf("no metadata for %s: %v", seriesURL, err)
	}

	u, err := url.Parse(seriesURL)
	if err != nil {
		return ""
	}

	base := path.Base(strings.TrimSuffix(u.Path, "/"))
	if base == "." || base == "/" {
		return u.Hostname()
	}

	return base
}

func splitExt(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ',' || r == ' '
	})

	var out []string
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			out = append(out, f)
		}
	}

	return out
}
