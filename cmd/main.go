package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	service "github.com/kallio/physync/internal/app"
	"github.com/kallio/physync/internal/auth"
	"github.com/kallio/physync/internal/config"
	"github.com/kallio/physync/internal/dest"
	"github.com/kallio/physync/internal/export"
	"github.com/kallio/physync/internal/source"
	"github.com/kallio/physync/internal/transport"
	"github.com/kallio/physync/pkg/logger"
	"github.com/kallio/physync/pkg/metrics"
)

const pushJobName = "physync"

type flags struct {
	configFile   string
	lookback     int
	out          string
	listAccounts bool
	printAPIKey  bool
	dryRun       bool
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.configFile, "config", ".env", "path to the credentials .env file")
	flag.IntVar(&f.lookback, "lookback", 0, "measurement window in hours (overrides configuration)")
	flag.StringVar(&f.out, "out", "", "export fetched records to this .xlsx or .csv file")
	flag.BoolVar(&f.listAccounts, "list-accounts", false, "list accessible source accounts and exit")
	flag.BoolVar(&f.printAPIKey, "print-api-key", false, "fetch and print the source api key, then exit")
	flag.BoolVar(&f.dryRun, "dry-run", false, "fetch and export only; skip the destination upload")
	flag.Parse()
	return f
}

func main() {
	os.Exit(run())
}

func run() int {
	f := parseFlags()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, f.configFile)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	log := logger.Get().With(logger.String("runId", uuid.NewString()))
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level, falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	policy := transport.DefaultPolicy()
	if cfg.RetryMaxAttempts > 0 {
		policy.MaxAttempts = cfg.RetryMaxAttempts
	}

	signer := auth.NewSigner(cfg.SourceConsumerID, cfg.SourceSharedSecret)
	sourceHTTP := transport.NewClient(cfg.SourceBaseURL,
		transport.WithPolicy(policy),
		transport.WithHeaderProvider(source.Headers(signer, cfg.SourceAPIKey)),
		transport.WithLogger(log.Named("transport")),
	)
	fetcher := source.NewFetcher(sourceHTTP, cfg.SourceAccountID, cfg.SourceTeamID,
		source.WithLogger(log.Named("source")))

	// The bootstrap modes only need the signing credentials; the api
	// key itself is what -print-api-key exists to discover.
	if f.listAccounts || f.printAPIKey {
		if cfg.SourceConsumerID == "" || cfg.SourceSharedSecret == "" {
			log.Error(ctx, "source_consumer_id and source_shared_secret are required")
			return 1
		}
		if f.printAPIKey {
			return printAPIKey(ctx, fetcher, log)
		}
		return listAccounts(ctx, fetcher, log)
	}

	if err := cfg.ValidateSource(); err != nil {
		log.Error(ctx, "source configuration incomplete", logger.Error(err))
		return 1
	}

	opts := []service.Option{
		service.WithSource(fetcher),
		service.WithLookback(resolveLookback(f.lookback, cfg.LookbackHours)),
		service.WithDryRun(f.dryRun),
		service.WithLogger(log.Named("pipeline")),
	}
	if f.out != "" {
		opts = append(opts, service.WithExport(f.out, export.Write))
	}

	if !f.dryRun {
		if err := cfg.ValidateDest(); err != nil {
			log.Error(ctx, "destination configuration incomplete", logger.Error(err))
			return 1
		}
		destHTTP := transport.NewClient(cfg.DestBaseURL,
			transport.WithPolicy(policy),
			transport.WithBasicAuth(cfg.DestUsername, cfg.DestPassword),
			transport.WithHeaderProvider(dest.Headers(cfg.DestAppID)),
			transport.WithLogger(log.Named("transport")),
		)
		opts = append(opts, service.WithDestination(
			dest.NewClient(destHTTP, cfg.DestFormName,
				dest.WithBatchSize(cfg.DedupBatchSize),
				dest.WithLogger(log.Named("dest")))))
	}

	summary, err := service.NewService(opts...).Run(ctx)
	pushMetrics(ctx, cfg.PushgatewayURL, log)
	if err != nil {
		log.Error(ctx, "sync run failed", logger.Error(err))
		return 1
	}

	log.Info(ctx, "sync run complete",
		logger.Int("fetched", summary.Fetched),
		logger.Int("uploaded", summary.Uploaded),
		logger.Int("failed", summary.Failed))
	return 0
}

// resolveLookback prefers the flag over configuration.
func resolveLookback(flagHours, cfgHours int) time.Duration {
	if flagHours > 0 {
		return time.Duration(flagHours) * time.Hour
	}
	return time.Duration(cfgHours) * time.Hour
}

func listAccounts(ctx context.Context, fetcher *source.Fetcher, log logger.Logger) int {
	accounts, err := fetcher.Accounts(ctx)
	if err != nil {
		log.Error(ctx, "account listing failed", logger.Error(err))
		return 1
	}
	for _, a := range accounts {
		fmt.Printf("%s\t%s\n", a.ID, a.Name)
	}
	return 0
}

func printAPIKey(ctx context.Context, fetcher *source.Fetcher, log logger.Logger) int {
	key, err := fetcher.APIKey(ctx)
	if err != nil {
		log.Error(ctx, "api key fetch failed", logger.Error(err))
		return 1
	}
	fmt.Println(key)
	return 0
}

func pushMetrics(ctx context.Context, gatewayURL string, log logger.Logger) {
	if gatewayURL == "" {
		return
	}
	if err := metrics.PushGlobal(gatewayURL, pushJobName); err != nil {
		log.Warn(ctx, "metrics push failed", logger.Error(err))
	}
}
