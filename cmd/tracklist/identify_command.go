package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"tracklist/internal/audio"
	"tracklist/internal/config"
	"tracklist/internal/export"
	"tracklist/internal/idcache"
	"tracklist/internal/identify"
	"tracklist/internal/pipeline"
	"tracklist/internal/providers"
	"tracklist/internal/providers/acrcloud"
	"tracklist/internal/providers/audd"
	"tracklist/internal/ratelimit"
	"tracklist/internal/segment"
	"tracklist/internal/tracklist"
)

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	var formatsFlag []string
	var outputDir string
	var noCache bool
	var workers int

	cmd := &cobra.Command{
		Use:   "identify <audio-file>",
		Short: "Identify the tracks in a mix recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			src, err := audio.OpenFile(args[0])
			if err != nil {
				return err
			}
			meta := audio.ProbeMetadata(args[0])

			segmenter, err := segment.New(cfg.Identification.SegmentLength, cfg.Identification.SegmentOverlap)
			if err != nil {
				return err
			}

			clients, err := buildClients(cfg)
			if err != nil {
				return err
			}

			cache, closeCache, err := buildCache(cfg, noCache, logger)
			if err != nil {
				return err
			}
			defer closeCache()

			limiterOpts := make([]ratelimit.Option, 0, len(clients))
			for _, client := range clients {
				limiterOpts = append(limiterOpts, ratelimit.WithProviderLimit(client.Name(), cfg.ProviderLimit(client.Name())))
			}
			limiter := ratelimit.New(ratelimit.Limit{}, limiterOpts...)

			orchestrator := identify.NewOrchestrator(identify.Options{
				Clients:         clients,
				Cache:           cache,
				Limiter:         limiter,
				Policy:          cfg.RetryPolicy(),
				MinConfidence:   cfg.Identification.MinConfidence,
				FallbackEnabled: cfg.Providers.FallbackEnabled,
				Logger:          logger,
			})

			workerCount := cfg.Identification.MaxConcurrentSegments
			if workers > 0 {
				workerCount = workers
			}
			started := time.Now()
			report, err := pipeline.Run(runCtx, src, pipeline.Options{
				Segmenter:  segmenter,
				Identifier: orchestrator,
				Matcher: tracklist.MatcherOptions{
					MinConfidence: cfg.Identification.MinConfidence,
					TimeThreshold: cfg.Identification.TimeThreshold,
					MaxDuplicates: cfg.Identification.MaxDuplicates,
				},
				Workers: workerCount,
				Logger:  logger,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printTracklist(out, report.Tracklist)
			printSummary(out, report, orchestrator.Metrics().Snapshot(), time.Since(started))

			doc := export.Document{
				RunID:       report.RunID,
				Source:      args[0],
				Title:       meta.Title,
				Artist:      meta.Artist,
				GeneratedAt: time.Now(),
				Partial:     report.Partial,
				Tracks:      report.Tracklist.Tracks,
			}
			return writeExports(cmd, cfg, doc, formatsFlag, outputDir)
		},
	}

	cmd.Flags().StringSliceVarP(&formatsFlag, "format", "f", nil, "Export formats (json, markdown, m3u, csv); defaults to output.formats")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Export directory; defaults to output.dir")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the identification cache for this run")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent segments; defaults to identification.max_concurrent_segments")
	return cmd
}

// buildClients assembles provider clients in the configured priority order.
func buildClients(cfg *config.Config) ([]providers.Client, error) {
	order := cfg.ProviderOrder()
	clients := make([]providers.Client, 0, len(order))
	for _, name := range order {
		switch name {
		case acrcloud.ProviderName:
			clients = append(clients, acrcloud.New(acrcloud.Config{
				Host:         cfg.Providers.ACRCloud.Host,
				AccessKey:    cfg.Providers.ACRCloud.AccessKey,
				AccessSecret: cfg.Providers.ACRCloud.AccessSecret,
				Timeout:      time.Duration(cfg.Providers.ACRCloud.TimeoutSeconds) * time.Second,
			}))
		case audd.ProviderName:
			clients = append(clients, audd.New(audd.Config{
				APIToken: cfg.Providers.AudD.APIToken,
				Endpoint: cfg.Providers.AudD.Endpoint,
				Timeout:  time.Duration(cfg.Providers.AudD.TimeoutSeconds) * time.Second,
			}))
		default:
			return nil, fmt.Errorf("unknown provider %q", name)
		}
	}
	return clients, nil
}

// buildCache opens the configured cache backend. The returned closer is
// always safe to call.
func buildCache(cfg *config.Config, noCache bool, logger *slog.Logger) (*idcache.Cache, func(), error) {
	if noCache || !cfg.Cache.Enabled {
		return nil, func() {}, nil
	}
	switch cfg.Cache.Backend {
	case "memory":
		store := idcache.NewMemoryStore()
		return idcache.New(store, cfg.CacheTTL(), logger), func() { _ = store.Close() }, nil
	case "sqlite":
		store, err := idcache.OpenSQLite(cfg.Cache.Dir)
		if err != nil {
			return nil, func() {}, err
		}
		return idcache.New(store, cfg.CacheTTL(), logger), func() { _ = store.Close() }, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

func printTracklist(out io.Writer, list tracklist.Tracklist) {
	if len(list.Tracks) == 0 {
		fmt.Fprintln(out, "No tracks identified.")
		return
	}

	rows := make([][]string, 0, len(list.Tracks))
	for i, t := range list.Tracks {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			tracklist.FormatTimestamp(t.FirstSeen),
			t.Artist,
			t.Title,
			fmt.Sprintf("%.0f%%", t.Confidence*100),
			t.Provider,
		})
	}
	pretty := isatty.IsTerminal(os.Stdout.Fd())
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Time", "Artist", "Title", "Conf", "Provider"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		pretty,
	))
}

func printSummary(out io.Writer, report pipeline.Report, snap identify.Snapshot, elapsed time.Duration) {
	fmt.Fprintf(out, "\n%d tracks from %d/%d segments (%d failed, %d cache hits, %d provider calls) in %s\n",
		len(report.Tracklist.Tracks), report.SegmentsProcessed, report.SegmentsTotal,
		report.SegmentsFailed, snap.CacheHits, snap.ProviderCalls, elapsed.Round(time.Millisecond))
	if report.Partial {
		fmt.Fprintln(out, "Run was interrupted; the tracklist covers only the processed prefix.")
	}
}

// writeExports renders the document in each requested format.
func writeExports(cmd *cobra.Command, cfg *config.Config, doc export.Document, formatsFlag []string, outputDir string) error {
	names := formatsFlag
	if len(names) == 0 {
		names = cfg.Output.Formats
	}
	dir := strings.TrimSpace(outputDir)
	if dir == "" {
		dir = cfg.Output.Dir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %q: %w", dir, err)
	}

	for _, name := range names {
		format, err := export.ParseFormat(name)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, doc.FileName(format))
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		if err := export.Write(file, format, doc); err != nil {
			file.Close()
			return fmt.Errorf("write %s export: %w", format, err)
		}
		if err := file.Close(); err != nil {
			return fmt.Errorf("close export file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	}
	return nil
}
