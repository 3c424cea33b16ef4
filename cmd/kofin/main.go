// kofin — Korean financial-data research CLI
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kofin-ai/kofin/internal/config"
	"github.com/kofin-ai/kofin/internal/logging"
	"github.com/kofin-ai/kofin/internal/provider"
	"github.com/kofin-ai/kofin/internal/providers/dart"
	"github.com/kofin-ai/kofin/internal/providers/ecos"
	"github.com/kofin-ai/kofin/internal/providers/kis"
	"github.com/kofin-ai/kofin/internal/providers/kosis"
	"github.com/kofin-ai/kofin/internal/resolver"
	"github.com/kofin-ai/kofin/internal/seed"
	"github.com/kofin-ai/kofin/internal/tools"
	"github.com/kofin-ai/kofin/pkg/models"
	"github.com/kofin-ai/kofin/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, populated by the root PersistentPreRunE.
var (
	cfg *config.Config
	log *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if hint := provider.Remediation(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kofin",
	Short: "kofin — 한국 금융데이터 리서치 CLI",
	Long: `kofin is a research CLI over four Korean financial-data providers:
corporate filings (DART), equity quotes (KIS), central-bank statistics
(ECOS), and national statistics (KOSIS), with shared rate limiting,
two-tier caching, and fuzzy company-name resolution.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		log = logging.New(cfg.Logging)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: config.yaml searched in ./config, ~/.kofin, /etc/kofin)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(companyCmd)
	rootCmd.AddCommand(financialsCmd)
	rootCmd.AddCommand(priceCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(indicatorCmd)
	rootCmd.AddCommand(keystatsCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(disclosuresCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(seedCmd)
}

// --- Composition root ---

// buildClients constructs one client per provider with credentials
// present. Missing credentials exclude the provider instead of failing.
func buildClients() (tools.Clients, error) {
	var c tools.Clients
	stateDir := cfg.State.Dir

	if key := cfg.Providers.Dart.APIKey; key != "" {
		dc, err := dart.New(key, stateDir, log)
		if err != nil {
			return c, err
		}
		c.Dart = dc
	}
	if k := cfg.Providers.Kis; k.AppKey != "" && k.AppSecret != "" {
		env := kis.EnvProd
		if k.Sandbox {
			env = kis.EnvSandbox
		}
		kc, err := kis.New(k.AppKey, k.AppSecret, env, stateDir, log)
		if err != nil {
			return c, err
		}
		c.Kis = kc
	}
	if key := cfg.Providers.Ecos.APIKey; key != "" {
		ec, err := ecos.New(key, stateDir, log)
		if err != nil {
			return c, err
		}
		c.Ecos = ec
	}
	if key := cfg.Providers.Kosis.APIKey; key != "" {
		kc, err := kosis.New(key, stateDir, log)
		if err != nil {
			return c, err
		}
		c.Kosis = kc
	}
	return c, nil
}

// newTools builds the tool set and loads the corp-code resolver from its
// disk cache, falling back to the DART download when available.
func newTools(ctx context.Context, needResolver bool) (*tools.Tools, error) {
	clients, err := buildClients()
	if err != nil {
		return nil, err
	}

	res := resolver.New(cfg.State.Dir, log)
	if needResolver {
		if clients.Dart == nil {
			if err := res.LoadFromCache(); err != nil {
				return nil, fmt.Errorf("corp codes unavailable: set the DART API key or seed the cache")
			}
		} else if err := res.Load(ctx, clients.Dart); err != nil {
			return nil, err
		}
	}

	return tools.New(clients, res, nil, log), nil
}

// resolveOrExit maps a user query to a company.
func resolveOrExit(ts *tools.Tools, query string) (models.CorpMapping, error) {
	res := ts.Resolver().Resolve(query)
	if res == nil {
		return models.CorpMapping{}, fmt.Errorf("no company matched %q", query)
	}
	if res.MatchType == models.MatchFuzzyName {
		fmt.Printf("≈ %s (%s, 유사도 %.2f)\n", res.Mapping.CorpName, res.Mapping.CorpCode, res.Confidence)
	}
	return res.Mapping, nil
}

// signalContext cancels on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// --- Commands ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kofin %s (commit %s, built %s)\n", version, commit, date)
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <query>",
	Short: "Resolve a ticker, corp code, or company name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		ts, err := newTools(ctx, true)
		if err != nil {
			return err
		}
		defer ts.Clients().Close()

		res := ts.Resolver().Resolve(args[0])
		if res == nil {
			return fmt.Errorf("no company matched %q", args[0])
		}
		return printJSON(res)
	},
}

var companyCmd = &cobra.Command{
	Use:   "company <query>",
	Short: "Show the company overview",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		ts, err := newTools(ctx, true)
		if err != nil {
			return err
		}
		defer ts.Clients().Close()

		mapping, err := resolveOrExit(ts, args[0])
		if err != nil {
			return err
		}
		info, _, err := ts.CompanyInfo(ctx, mapping.CorpCode, provider.CacheOptions{})
		if err != nil {
			return err
		}
		return printJSON(info)
	},
}

var financialsCmd = &cobra.Command{
	Use:   "financials <query>",
	Short: "Fetch financial statements (consolidated-first)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		ts, err := newTools(ctx, true)
		if err != nil {
			return err
		}
		defer ts.Clients().Close()

		mapping, err := resolveOrExit(ts, args[0])
		if err != nil {
			return err
		}

		year, _ := cmd.Flags().GetString("year")
		report, _ := cmd.Flags().GetString("report")
		division, _ := cmd.Flags().GetString("division")
		if year == "" {
			year = fmt.Sprintf("%d", utils.NowKST().Year()-1)
		}

		stmt, meta, err := ts.FinancialStatements(ctx, mapping.CorpCode, year, report, division, provider.CacheOptions{})
		if err != nil {
			return err
		}
		if meta.UsedFallback {
			fmt.Println("연결재무제표가 없어 별도재무제표로 대체되었습니다.")
		}
		return printJSON(stmt)
	},
}

var priceCmd = &cobra.Command{
	Use:   "price <query>",
	Short: "Show the live price snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		ts, err := newTools(ctx, true)
		if err != nil {
			return err
		}
		defer ts.Clients().Close()

		mapping, err := resolveOrExit(ts, args[0])
		if err != nil {
			return err
		}
		if !mapping.Listed() {
			return fmt.Errorf("%s is not listed", mapping.CorpName)
		}
		snap, _, err := ts.Price(ctx, mapping.StockCode, provider.CacheOptions{})
		if err != nil {
			return err
		}
		return printJSON(snap)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <query>",
	Short: "Summarize the daily price history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		ts, err := newTools(ctx, true)
		if err != nil {
			return err
		}
		defer ts.Clients().Close()

		mapping, err := resolveOrExit(ts, args[0])
		if err != nil {
			return err
		}
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		if to == "" {
			to = utils.NowKST().Format("20060102")
		}
		if from == "" {
			from = utils.NowKST().AddDate(0, -3, 0).Format("20060102")
		}

		summary, _, err := ts.PriceHistory(ctx, mapping.StockCode, from, to, provider.CacheOptions{})
		if err != nil {
			return err
		}
		return printJSON(summary)
	},
}

var indexCmd = &cobra.Command{
	Use:   "index [KOSPI|KOSDAQ]",
	Short: "Show a market-index snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		ts, err := newTools(ctx, false)
		if err != nil {
			return err
		}
		defer ts.Clients().Close()

		name := "KOSPI"
		if len(args) == 1 {
			name = args[0]
		}
		snap, _, err := ts.MarketIndex(ctx, name, provider.CacheOptions{})
		if err != nil {
			return err
		}
		return printJSON(snap)
	},
}

var indicatorCmd = &cobra.Command{
	Use:   "indicator <table>",
	Short: "Fetch a central-bank statistics series",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		ts, err := newTools(ctx, false)
		if err != nil {
			return err
		}
		defer ts.Clients().Close()

		period, _ := cmd.Flags().GetString("period")
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		items, _ := cmd.Flags().GetStringSlice("items")

		series, _, err := ts.Indicator(ctx, args[0], period, from, to, items, provider.CacheOptions{})
		if err != nil {
			return err
		}
		return printJSON(series)
	},
}

var keystatsCmd = &cobra.Command{
	Use:   "keystats",
	Short: "List the central bank's headline statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		ts, err := newTools(ctx, false)
		if err != nil {
			return err
		}
		defer ts.Clients().Close()

		stats, _, err := ts.KeyStatistics(ctx, provider.CacheOptions{})
		if err != nil {
			return err
		}
		return printJSON(stats)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search the statistics catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		ts, err := newTools(ctx, false)
		if err != nil {
			return err
		}
		defer ts.Clients().Close()

		entries, _, err := ts.SearchCatalog(ctx, args[0], provider.CacheOptions{})
		if err != nil {
			return err
		}
		return printJSON(entries)
	},
}

var disclosuresCmd = &cobra.Command{
	Use:   "disclosures [query]",
	Short: "List disclosures for a company, or today's feed",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		today, _ := cmd.Flags().GetBool("today")
		if today {
			ts, err := newTools(ctx, false)
			if err != nil {
				return err
			}
			defer ts.Clients().Close()
			limit, _ := cmd.Flags().GetInt("limit")
			items, err := ts.TodayDisclosures(ctx, limit)
			if err != nil {
				return err
			}
			return printJSON(items)
		}

		if len(args) != 1 {
			return fmt.Errorf("a company query is required without --today")
		}
		ts, err := newTools(ctx, true)
		if err != nil {
			return err
		}
		defer ts.Clients().Close()

		mapping, err := resolveOrExit(ts, args[0])
		if err != nil {
			return err
		}
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		if to == "" {
			to = utils.NowKST().Format("20060102")
		}
		if from == "" {
			from = utils.NowKST().AddDate(0, -1, 0).Format("20060102")
		}
		items, _, err := ts.Disclosures(ctx, mapping.CorpCode, from, to, provider.CacheOptions{})
		if err != nil {
			return err
		}
		return printJSON(items)
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <query>",
	Short: "Assemble a company snapshot (overview + financials + price)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		ts, err := newTools(ctx, true)
		if err != nil {
			return err
		}
		defer ts.Clients().Close()

		mapping, err := resolveOrExit(ts, args[0])
		if err != nil {
			return err
		}
		year := fmt.Sprintf("%d", utils.NowKST().Year()-1)
		snap, err := ts.Snapshot(ctx, mapping, year)
		if err != nil {
			return err
		}
		return printJSON(snap)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show credential, rate-limit, and cache status",
	RunE: func(cmd *cobra.Command, args []string) error {
		clients, err := buildClients()
		if err != nil {
			return err
		}
		defer clients.Close()

		fmt.Println("== Credentials ==")
		for _, ks := range config.CheckAPIKeys(cfg) {
			mark := "✗"
			if ks.IsSet {
				mark = "✓"
			}
			fmt.Printf("  %s %-16s %s\n", mark, ks.Name, ks.Masked)
		}

		fmt.Println("== Rate limits ==")
		printProviderStatus(clients)
		return nil
	},
}

func printProviderStatus(clients tools.Clients) {
	if clients.Dart != nil {
		st := clients.Dart.Status()
		fmt.Printf("  dart : %d/%d used (%.1f%%)\n", st.DailyUsed, st.DailyLimit, st.PercentUsed)
		if ds, err := clients.Dart.DiskStats(); err == nil {
			fmt.Printf("         cache %d entries, %d hits\n", ds.Entries, ds.TotalHits)
		}
	}
	if clients.Kis != nil {
		st := clients.Kis.Status()
		fmt.Printf("  kis  : %d/%d used (%.1f%%), token valid: %v\n",
			st.DailyUsed, st.DailyLimit, st.PercentUsed, clients.Kis.Tokens().IsValid())
	}
	if clients.Ecos != nil {
		st := clients.Ecos.Status()
		fmt.Printf("  ecos : %d/%d used (%.1f%%)\n", st.DailyUsed, st.DailyLimit, st.PercentUsed)
	}
	if clients.Kosis != nil {
		st := clients.Kosis.Status()
		fmt.Printf("  kosis: %d/%d used (%.1f%%)\n", st.DailyUsed, st.DailyLimit, st.PercentUsed)
	}
}

var cacheCmd = &cobra.Command{
	Use:   "cache <prune|stats|invalidate>",
	Short: "Administer the provider disk caches",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		clients, err := buildClients()
		if err != nil {
			return err
		}
		defer clients.Close()

		switch args[0] {
		case "prune":
			pruneCaches(clients)
		case "stats":
			printProviderStatus(clients)
		case "invalidate":
			if len(args) < 2 {
				return fmt.Errorf("usage: kofin cache invalidate <prefix>")
			}
			invalidateCaches(clients, args[1])
		default:
			return fmt.Errorf("unknown cache subcommand %q", args[0])
		}
		return nil
	},
}

func pruneCaches(clients tools.Clients) {
	total := 0
	if clients.Dart != nil {
		if n, err := clients.Dart.Cache().Prune(); err == nil {
			total += n
		}
	}
	if clients.Kis != nil {
		if n, err := clients.Kis.Cache().Prune(); err == nil {
			total += n
		}
	}
	if clients.Ecos != nil {
		if n, err := clients.Ecos.Cache().Prune(); err == nil {
			total += n
		}
	}
	if clients.Kosis != nil {
		if n, err := clients.Kosis.Cache().Prune(); err == nil {
			total += n
		}
	}
	fmt.Printf("%d expired entries pruned\n", total)
}

func invalidateCaches(clients tools.Clients, prefix string) {
	total := 0
	if clients.Dart != nil {
		if n, err := clients.Dart.Cache().InvalidatePrefix(prefix); err == nil {
			total += n
		}
	}
	if clients.Kis != nil {
		if n, err := clients.Kis.Cache().InvalidatePrefix(prefix); err == nil {
			total += n
		}
	}
	if clients.Ecos != nil {
		if n, err := clients.Ecos.Cache().InvalidatePrefix(prefix); err == nil {
			total += n
		}
	}
	if clients.Kosis != nil {
		if n, err := clients.Kosis.Cache().InvalidatePrefix(prefix); err == nil {
			total += n
		}
	}
	fmt.Printf("%d entries removed\n", total)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Crawl providers into a local demo store (resumable)",
	RunE: func(cmd *cobra.Command, args []string) error {
		companies, _ := cmd.Flags().GetInt("companies")
		years, _ := cmd.Flags().GetInt("years")
		output, _ := cmd.Flags().GetString("output")
		reset, _ := cmd.Flags().GetBool("reset")
		status, _ := cmd.Flags().GetBool("status")

		store, err := seed.OpenStore(output)
		if err != nil {
			return err
		}
		defer store.Close()

		if status {
			st, err := store.Stats()
			if err != nil {
				return err
			}
			return printJSON(st)
		}
		if reset {
			if err := store.Reset(); err != nil {
				return err
			}
			fmt.Println("seed store reset")
			return nil
		}

		if cfg.Providers.Dart.APIKey == "" {
			return fmt.Errorf("seeding requires the DART API key")
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ts, err := newTools(ctx, true)
		if err != nil {
			return err
		}
		defer ts.Clients().Close()

		seeder := seed.NewSeeder(store, ts, log)

		// SIGINT finishes the current company, then exits cleanly.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			fmt.Println("\ninterrupt received; finishing the current company...")
			seeder.Interrupt()
		}()
		defer signal.Stop(sigCh)

		start := time.Now()
		res, err := seeder.Run(ctx, seed.Config{Companies: companies, Years: years})
		if err != nil {
			return err
		}
		fmt.Printf("seeded %d companies (%d fetched, %d skipped) in %s\n",
			res.Companies, res.Fetched, res.Skipped, time.Since(start).Round(time.Second))
		if res.Interrupted {
			fmt.Println("run interrupted; rerun to resume")
		}
		return nil
	},
}

func init() {
	financialsCmd.Flags().String("year", "", "fiscal year (default: last closed year)")
	financialsCmd.Flags().String("report", "11011", "report code (11011 annual, 11012 H1, 11013 Q1, 11014 Q3)")
	financialsCmd.Flags().String("division", "", "statement division (CFS or OFS; default consolidated-first)")

	historyCmd.Flags().String("from", "", "range start YYYYMMDD (default: 3 months ago)")
	historyCmd.Flags().String("to", "", "range end YYYYMMDD (default: today)")

	indicatorCmd.Flags().String("period", "M", "period granularity (A, Q, M, D)")
	indicatorCmd.Flags().String("from", "", "range start time token")
	indicatorCmd.Flags().String("to", "", "range end time token")
	indicatorCmd.Flags().StringSlice("items", nil, "item codes (up to 3)")

	disclosuresCmd.Flags().Bool("today", false, "read the public recent-filings feed")
	disclosuresCmd.Flags().Int("limit", 20, "max feed items with --today")
	disclosuresCmd.Flags().String("from", "", "range start YYYYMMDD (default: 1 month ago)")
	disclosuresCmd.Flags().String("to", "", "range end YYYYMMDD (default: today)")

	seedCmd.Flags().Int("companies", 10, "number of listed companies to crawl")
	seedCmd.Flags().Int("years", 3, "fiscal years back from the last closed year")
	seedCmd.Flags().String("output", "kofin-demo.sqlite", "seed store path")
	seedCmd.Flags().Bool("reset", false, "drop all seeded data and checkpoints")
	seedCmd.Flags().Bool("status", false, "print store statistics and exit")
}
