package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/marmstr93ng/PostcodeParse/internal/adapters/cache"
	"github.com/marmstr93ng/PostcodeParse/internal/adapters/export"
	"github.com/marmstr93ng/PostcodeParse/internal/adapters/geocode"
	"github.com/marmstr93ng/PostcodeParse/internal/adapters/ons"
	"github.com/marmstr93ng/PostcodeParse/internal/adapters/paf"
	"github.com/marmstr93ng/PostcodeParse/internal/cli"
	"github.com/marmstr93ng/PostcodeParse/internal/config"
	"github.com/marmstr93ng/PostcodeParse/internal/domain"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/db"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/fsutil"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/logging"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/obs"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/progress"
	"github.com/marmstr93ng/PostcodeParse/internal/ports"
	"github.com/marmstr93ng/PostcodeParse/internal/services"
	"github.com/marmstr93ng/PostcodeParse/internal/updater"
	"github.com/marmstr93ng/PostcodeParse/internal/workspace"
)

const appVersion = "2.0.0"

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// main is the application composition root. It wires concrete adapters
// (PAF/ONS files, geocoding API, cache backends) behind ports and drives
// one extraction run.
func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("postcodeparse", flag.ContinueOnError)
	logLevel := flags.String("log-level", "", "override log level (debug|info|warn|error)")
	logFormat := flags.String("log-format", "", "override log format (text|json)")
	noInput := flags.Bool("no-input", false, "never prompt; fail instead of asking")
	skipUpdateCheck := flags.Bool("skip-update-check", false, "do not check GitHub for a newer release")
	flags.Usage = usage(flags)

	if err := flags.Parse(args); err != nil {
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *logFormat != "" {
		cfg.LogFormat = *logFormat
	}

	if err := fsutil.EnsureDir(cfg.BaseDir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	log, closeLog, err := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel, cfg.BaseDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	defer func() { _ = closeLog() }()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runID := uuid.NewString()
	ctx = obs.WithRunID(ctx, runID)
	log.Info("starting run", slog.String("run_id", runID), slog.String("version", appVersion))

	if !*skipUpdateCheck {
		if done := checkForUpdate(ctx, cfg, log, *noInput); done {
			return exitOK
		}
	}

	if !*noInput {
		defer cli.PauseForExit()
	}

	params, code := collectParams(flags.Args(), cfg, log, *noInput)
	if code != exitOK {
		return code
	}

	if err := workspace.WriteSpacePath(cfg.BaseDir, params.SpacePath); err != nil {
		log.Warn("could not save space path", slog.Any("err", err))
	}

	if err := extract(ctx, cfg, log, params, *noInput); err != nil {
		log.Error("run failed", slog.String("run_id", runID), slog.Any("err", err))
		return exitFailure
	}

	return exitOK
}

func usage(flags *flag.FlagSet) func() {
	return func() {
		fmt.Fprintln(flags.Output(), "Usage: postcodeparse [flags] [guided|manual] [mode flags]")
		fmt.Fprintln(flags.Output(), "\nExtracts residential postcodes for a set of districts into a new event folder.")
		fmt.Fprintln(flags.Output(), "\nFlags:")
		flags.PrintDefaults()
		fmt.Fprintln(flags.Output(), `
Modes:
  guided   interactive parameter entry (default)
  manual   parameters from flags:
             -s, --space-path      path to the shared space
             -e, --event-location  event location name (e.g. Belfast)
             -d, --event-date      event date as MonthYear (e.g. April2026)
             -p, --districts       districts, comma or space separated (e.g. BT1,BT2)`)
	}
}

// collectParams resolves run parameters for the chosen mode. The returned
// code is exitOK on success.
func collectParams(args []string, cfg *config.Config, log *slog.Logger, noInput bool) (*cli.Params, int) {
	mode := "guided"
	if len(args) > 0 {
		mode = args[0]
		args = args[1:]
	}

	switch mode {
	case "guided":
		if noInput {
			fmt.Fprintln(os.Stderr, "guided mode needs prompts; drop --no-input or use manual mode")
			return nil, exitUsage
		}

		saved, err := workspace.ReadSpacePath(cfg.BaseDir)
		if err != nil {
			log.Warn("could not read saved settings", slog.Any("err", err))
		}

		params, err := cli.Guided(saved)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return nil, exitFailure
		}
		return params, exitOK

	case "manual":
		manualFlags := flag.NewFlagSet("manual", flag.ContinueOnError)
		var spacePath, eventLocation, eventDate, districts string
		manualFlags.StringVar(&spacePath, "s", "", "path to the shared space")
		manualFlags.StringVar(&spacePath, "space-path", "", "path to the shared space")
		manualFlags.StringVar(&eventLocation, "e", "", "event location name")
		manualFlags.StringVar(&eventLocation, "event-location", "", "event location name")
		manualFlags.StringVar(&eventDate, "d", "", "event date as MonthYear")
		manualFlags.StringVar(&eventDate, "event-date", "", "event date as MonthYear")
		manualFlags.StringVar(&districts, "p", "", "postcode districts, comma or space separated")
		manualFlags.StringVar(&districts, "districts", "", "postcode districts, comma or space separated")

		if err := manualFlags.Parse(args); err != nil {
			return nil, exitUsage
		}

		params, err := cli.Manual(spacePath, eventLocation, eventDate, districts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\nRun 'postcodeparse --help' for usage.\n", err)
			return nil, exitUsage
		}
		return params, exitOK

	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\nRun 'postcodeparse --help' for usage.\n", mode)
		return nil, exitUsage
	}
}

// checkForUpdate reports a newer release and, on confirmation, downloads
// and launches the installer. Returns true when the process should exit so
// the installer can replace it. Update failures never block the run.
func checkForUpdate(ctx context.Context, cfg *config.Config, log *slog.Logger, noInput bool) bool {
	mgr, err := updater.NewManager(cfg.Update.APIBaseURL, cfg.Update.Repo, cfg.Update.Installer, cfg.BaseDir, appVersion)
	if err != nil {
		log.Error("update check skipped", slog.Any("err", err))
		return false
	}

	rel, err := mgr.Check(ctx)
	if err != nil {
		log.Error("update check failed", slog.Any("err", err))
		return false
	}
	if rel == nil {
		log.Info("current version is latest", slog.String("version", appVersion))
		return false
	}

	log.Info("update available",
		slog.String("current", appVersion),
		slog.String("latest", rel.Version.String()),
	)

	if noInput {
		return false
	}

	install, err := cli.ConfirmUpdate(rel.Version.String())
	if err != nil || !install {
		return false
	}

	path, err := mgr.Download(ctx, rel)
	if err != nil {
		log.Error("installer download failed", slog.Any("err", err))
		return false
	}

	log.Info("launching installer", slog.String("path", path))
	if err := exec.Command(path).Start(); err != nil {
		log.Error("installer launch failed", slog.Any("err", err))
		return false
	}

	return true
}

// extract scaffolds the event folder and runs the pipeline end to end.
func extract(ctx context.Context, cfg *config.Config, log *slog.Logger, params *cli.Params, noInput bool) error {
	ws, err := workspace.New(params.SpacePath, cfg.Data, log)
	if err != nil {
		return err
	}

	event, err := ws.PrepareEvent(params.EventLocation, params.EventDate)
	if err != nil {
		return err
	}
	log.Info("event folder ready", slog.String("path", event.Dir))

	workDir, err := os.MkdirTemp("", "postcodeparse")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	var reporter progress.Reporter = progress.NewTerminal(os.Stderr)
	if noInput {
		reporter = progress.Noop{}
	}

	districtSet := domain.NewDistrictSet(params.Districts)

	trimmedPAF, err := paf.Trim(ctx, event.PAFPath, workDir, districtSet, reporter)
	if err != nil {
		return err
	}

	onsFile, err := ons.FindAreaFile(event.ONSDir, params.Districts[0].Area())
	if err != nil {
		return err
	}
	trimmedONS, err := ons.Trim(ctx, onsFile, workDir, districtSet, reporter)
	if err != nil {
		return err
	}

	sources := []ports.Locator{ons.NewLocator(trimmedONS)}
	if cfg.Geocoder.Enabled {
		client, err := geocode.NewClient(cfg.Geocoder.BaseURL, cfg.Geocoder.Timeout)
		if err != nil {
			return err
		}
		sources = append(sources, client)
	}

	var locator ports.Locator = services.NewChainLocator(log, sources...)

	geocodeCache, closeCache := openCache(ctx, cfg, log)
	defer func() { _ = closeCache() }()
	if geocodeCache != nil {
		locator = services.NewCachedLocator(log, locator, geocodeCache)
	}

	run, err := services.Extract(ctx, services.ExtractRequest{
		RunID:     obs.RunID(ctx),
		Districts: params.Districts,
	}, paf.NewSource(trimmedPAF), locator, reporter, log)
	if err != nil {
		return err
	}

	for _, u := range run.Unlocated {
		log.Warn("postcode not located",
			slog.String("postcode", u.Postcode.String()),
			slog.Int("occurrences", u.Occurrences),
		)
	}

	exporters := []ports.Exporter{
		export.NewCSVExporter(event.OutputDir),
		export.NewKMLExporter(event.OutputDir),
		export.NewMarkerExporter(event.OutputDir),
	}
	if err := services.Export(ctx, run, exporters, log); err != nil {
		return err
	}

	log.Info("outputs written", slog.String("path", event.OutputDir))

	if !noInput {
		workspace.OpenFolder(log, event.Dir)
	}

	return nil
}

// openCache builds the configured cache backend. A backend that cannot be
// opened degrades to an uncached run with a warning; the cache is an
// optimization, not a requirement.
func openCache(ctx context.Context, cfg *config.Config, log *slog.Logger) (ports.GeocodeCache, func() error) {
	noop := func() error { return nil }

	switch cfg.Cache.Backend {
	case "off":
		return nil, noop

	case "sqlite":
		sqlDB, err := db.OpenSQLite(cfg.Cache.SQLitePath)
		if err != nil {
			log.Warn("geocode cache unavailable", slog.Any("err", err))
			return nil, noop
		}
		if err := cache.InitSchema(ctx, sqlDB); err != nil {
			log.Warn("geocode cache unavailable", slog.Any("err", err))
			_ = sqlDB.Close()
			return nil, noop
		}
		return cache.NewSqliteGeocodeCache(sqlDB), sqlDB.Close

	case "postgres":
		sqlDB, err := db.OpenPostgres(cfg.Cache.DatabaseURL)
		if err != nil {
			log.Warn("geocode cache unavailable", slog.Any("err", err))
			return nil, noop
		}
		if err := cache.InitSchema(ctx, sqlDB); err != nil {
			log.Warn("geocode cache unavailable", slog.Any("err", err))
			_ = sqlDB.Close()
			return nil, noop
		}
		return cache.NewSQLGeocodeCache(sqlDB), sqlDB.Close

	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr, DB: cfg.Cache.RedisDB})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("geocode cache unavailable", slog.Any("err", err))
			_ = client.Close()
			return nil, noop
		}
		return cache.NewRedisGeocodeCache(client), client.Close

	default:
		return nil, noop
	}
}
