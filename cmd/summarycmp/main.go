// Command summarycmp runs blind side-by-side summarization comparisons from
// the terminal. It is a thin shell over the core packages: every subcommand
// loads configuration, opens the store, builds the provider registry, and
// calls one engine operation.
//
// Subcommands:
//
//	run         submit a text file to every enabled provider model
//	rank        record a blind ranking for a session
//	leaderboard print aggregate per-model standings
//	sessions    list recent comparison sessions
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/time/rate"

	"summarycmp/infrastructure/provider"
	"summarycmp/internal/comparison"
	"summarycmp/internal/config"
	"summarycmp/internal/domain"
	"summarycmp/internal/leaderboard"
	"summarycmp/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = runCmd(os.Args[2:])
	case "rank":
		err = rankCmd(os.Args[2:])
	case "leaderboard":
		err = leaderboardCmd(os.Args[2:])
	case "sessions":
		err = sessionsCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "summarycmp: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: summarycmp <run|rank|leaderboard|sessions> [flags]")
}

// app holds the wired collaborators shared by every subcommand.
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	store    *storage.Store
	registry *provider.Registry
	service  *comparison.Service
}

func bootstrap(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	if cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		log.SetLevel(level)
	}

	store, err := storage.Open(cfg.DatabasePath, log)
	if err != nil {
		return nil, err
	}

	catalog := config.DefaultCatalog()
	if cfg.CatalogPath != "" {
		if catalog, err = config.LoadCatalog(cfg.CatalogPath); err != nil {
			return nil, err
		}
	}
	if err := store.SeedProviderModels(context.Background(), catalog.ProviderModels()); err != nil {
		return nil, err
	}

	registry, err := buildRegistry(cfg, log)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		registry: registry,
		service:  comparison.NewService(store, registry, log),
	}, nil
}

func buildRegistry(cfg *config.Config, log *logrus.Logger) (*provider.Registry, error) {
	metrics := provider.NewMetrics(prometheus.DefaultRegisterer)

	configs := make(map[string]provider.ClientConfig, len(provider.FactoryKeys()))
	for _, key := range provider.FactoryKeys() {
		pc := cfg.Provider(key)
		middleware := []provider.Middleware{
			provider.TracingMiddleware(),
			provider.MetricsMiddleware(metrics),
		}
		if pc.RequestsPerSecond > 0 {
			middleware = append(middleware,
				provider.RateLimitMiddleware(rate.Limit(pc.RequestsPerSecond), 1))
		}
		configs[key] = provider.ClientConfig{
			APIKey:     pc.APIKey,
			Endpoint:   pc.Endpoint,
			Logger:     log,
			Middleware: middleware,
		}
	}
	return provider.NewRegistryFromConfig(configs)
}

func runCmd(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file path")
	inputPath := fs.String("input", "", "Text file to summarize")
	description := fs.String("description", "", "Optional sample description")
	fs.Parse(args)

	if *inputPath == "" {
		return fmt.Errorf("run: -input is required")
	}
	data, err := os.ReadFile(*inputPath)
	if err != nil {
		return err
	}

	a, err := bootstrap(*configPath)
	if err != nil {
		return err
	}

	fileName := *inputPath
	var desc *string
	if *description != "" {
		desc = description
	}

	session, err := a.service.CreateAndRun(context.Background(), string(data), &fileName, desc)
	if err != nil {
		return err
	}

	fmt.Printf("session %s\n\n", session.ID)
	for _, result := range sortedByDisplayOrder(session.Results) {
		// Blind output: the provider identity is deliberately not printed.
		fmt.Printf("[%d] result %d\n", result.DisplayOrder, result.ID)
		if result.IsSuccess && result.SummaryText != nil {
			fmt.Printf("    %s\n", *result.SummaryText)
		} else if result.ErrorMessage != nil {
			fmt.Printf("    failed: %s\n", *result.ErrorMessage)
		}
		fmt.Printf("    %d ms\n\n", result.DurationMs)
	}
	fmt.Println("rank with: summarycmp rank -session", session.ID, "-order <id,id,...>")
	return nil
}

func sortedByDisplayOrder(results []domain.SummaryResult) []domain.SummaryResult {
	ordered := make([]domain.SummaryResult, len(results))
	for _, result := range results {
		ordered[result.DisplayOrder-1] = result
	}
	return ordered
}

func rankCmd(args []string) error {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file path")
	sessionID := fs.String("session", "", "Session id")
	order := fs.String("order", "", "Comma-separated successful result ids, best first")
	unacceptable := fs.String("unacceptable", "", "Comma-separated result ids flagged unacceptable")
	fs.Parse(args)

	id, err := uuid.Parse(*sessionID)
	if err != nil {
		return fmt.Errorf("rank: invalid -session: %w", err)
	}
	orderedIDs, err := parseIDList(*order)
	if err != nil {
		return fmt.Errorf("rank: invalid -order: %w", err)
	}
	unacceptableIDs, err := parseIDList(*unacceptable)
	if err != nil {
		return fmt.Errorf("rank: invalid -unacceptable: %w", err)
	}

	a, err := bootstrap(*configPath)
	if err != nil {
		return err
	}

	if err := a.service.SaveRankings(context.Background(), id, orderedIDs, unacceptableIDs); err != nil {
		return err
	}
	fmt.Printf("ranking recorded for session %s\n", id)
	return nil
}

func parseIDList(value string) ([]uint, error) {
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func leaderboardCmd(args []string) error {
	fs := flag.NewFlagSet("leaderboard", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file path")
	fs.Parse(args)

	a, err := bootstrap(*configPath)
	if err != nil {
		return err
	}

	entries, err := leaderboard.NewAggregator(a.store, a.registry).Compute(context.Background())
	if err != nil {
		return err
	}

	printer := message.NewPrinter(language.English)
	printer.Printf("%-28s %6s %8s %6s %8s %6s %12s\n",
		"model", "total", "avg rank", "wins", "avg ms", "failed", "avg price")
	for _, entry := range entries {
		price := "-"
		if entry.AveragePrice != nil {
			price = "$" + entry.AveragePrice.StringFixed(6)
		}
		printer.Printf("%-28s %6d %8.2f %6d %8.0f %6d %12s\n",
			entry.DisplayName, entry.TotalComparisons, entry.AverageRank,
			entry.FirstPlaceWins, entry.AverageDurationMs, entry.FailedCount, price)
	}
	return nil
}

func sessionsCmd(args []string) error {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file path")
	count := fs.Int("count", 10, "Number of sessions to list")
	fs.Parse(args)

	a, err := bootstrap(*configPath)
	if err != nil {
		return err
	}

	sessions, err := a.service.RecentSessions(context.Background(), *count)
	if err != nil {
		return err
	}

	for _, session := range sessions {
		state := "unranked"
		if session.IsRanked {
			state = "ranked"
		}
		fmt.Printf("%s  %s  %s  %d results\n",
			session.ID, session.CreatedAt.Format("2006-01-02 15:04"), state, len(session.Results))
	}
	return nil
}
