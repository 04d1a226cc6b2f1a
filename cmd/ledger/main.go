package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rocjay1/ledger-analyzer/internal/analysis"
	"github.com/rocjay1/ledger-analyzer/internal/config"
	"github.com/rocjay1/ledger-analyzer/internal/ledger"
	"github.com/rocjay1/ledger-analyzer/internal/models"
	"github.com/rocjay1/ledger-analyzer/internal/services"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// command holds the flags shared by every subcommand.
type command struct {
	fs   *flag.FlagSet
	file *string
	out  *string
	date *string
}

func newCommand(name string) *command {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return &command{
		fs:   fs,
		file: fs.String("file", "", "Path to the ledger (.csv or .xlsx)"),
		out:  fs.String("out", "", "Also save the report JSON to this file"),
		date: fs.String("date", "", "Reference date, YYYY-MM-DD or YYYY-MM-DD HH:MM:SS (defaults to now)"),
	}
}

func (c *command) parse(args []string) {
	c.fs.Parse(args)
	if *c.file == "" {
		fmt.Fprintf(os.Stderr, "Error: -file is required\n\n")
		c.fs.Usage()
		os.Exit(2)
	}
}

func (c *command) refDate() time.Time {
	if *c.date == "" {
		return time.Now()
	}
	for _, layout := range []string{models.DateTimeLayout, analysis.DateLayout} {
		if t, err := time.Parse(layout, *c.date); err == nil {
			return t
		}
	}
	fatal("invalid -date", fmt.Errorf("%q is not YYYY-MM-DD or YYYY-MM-DD HH:MM:SS", *c.date))
	return time.Time{}
}

func (c *command) table() []models.Transaction {
	res, err := ledger.LoadFile(*c.file, slog.Default())
	if err != nil {
		fatal("failed to load ledger", err)
	}
	for _, e := range res.Errors {
		slog.Warn("ledger row problem", "problem", e)
	}
	return res.Transactions
}

// emit prints report and, when -out is set, also writes it to that file.
func (c *command) emit(report any) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fatal("failed to encode report", err)
	}
	fmt.Println(string(data))

	if *c.out != "" {
		if err := os.WriteFile(*c.out, append(data, '\n'), 0o644); err != nil {
			fatal("failed to save report", err)
		}
		slog.Info("saved report", "path", *c.out, "size_bytes", len(data))
	}
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	builder := analysis.NewBuilder(slog.Default())
	args := os.Args[2:]

	switch os.Args[1] {
	case "dashboard":
		runDashboard(cfg, builder, args)
	case "category":
		runCategory(builder, args)
	case "weekday":
		runWeekday(builder, args)
	case "events":
		runEvents(builder, args)
	case "search":
		runSearch(args)
	case "cashback":
		runCashback(args)
	case "roundup":
		runRoundUp(args)
	case "phones":
		runPhones(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Ledger Analyzer CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  ledger <command> -file PATH [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  dashboard  Month-to-date summary with cards, top transactions and quotes")
	fmt.Println("  category   Spend in one category over the last three months")
	fmt.Println("  weekday    Average spend per weekday")
	fmt.Println("  events     Expense and income breakdown for a period")
	fmt.Println("  search     Find transactions by description or category")
	fmt.Println("  cashback   Cashback per category for a month")
	fmt.Println("  roundup    Savings from rounding purchases up")
	fmt.Println("  phones     Transactions mentioning a phone number")
	fmt.Println("  help       Show this help message")
	fmt.Println("\nEvery command accepts -out PATH to also save the report.")
	fmt.Println("Run 'ledger <command> -h' for more information on a command.")
}

func runDashboard(cfg *config.Config, builder *analysis.Builder, args []string) {
	cmd := newCommand("dashboard")
	cmd.parse(args)

	settings, err := services.LoadSettingsFile(cfg.SettingsFile)
	if err != nil {
		if !services.IsNotFound(err) {
			slog.Warn("ignoring settings file", "path", cfg.SettingsFile, "error", err)
		}
		settings = models.DefaultSettings()
	}

	market := services.NewMarketDataService(services.MarketConfig{
		ExchangeURL:  cfg.ExchangeAPIURL,
		ExchangeKey:  cfg.ExchangeAPIKey,
		StockURL:     cfg.StockAPIURL,
		StockKey:     cfg.StockAPIKey,
		BaseCurrency: cfg.BaseCurrency,
		CacheTTL:     cfg.MarketCacheTTL,
	}, nil, slog.Default())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	report, err := builder.Dashboard(ctx, cmd.table(), cmd.refDate(), settings, market)
	if err != nil {
		fatal("failed to build dashboard", err)
	}
	cmd.emit(report)
}

func runCategory(builder *analysis.Builder, args []string) {
	cmd := newCommand("category")
	category := cmd.fs.String("category", "", "Exact category name")
	cmd.parse(args)
	if *category == "" {
		fatal("missing flag", errors.New("-category is required"))
	}

	report, err := builder.CategorySpend(cmd.table(), *category, cmd.refDate())
	if err != nil {
		fatal("failed to build category report", err)
	}
	cmd.emit(report)
}

func runWeekday(builder *analysis.Builder, args []string) {
	cmd := newCommand("weekday")
	cmd.parse(args)

	var asOf *time.Time
	if *cmd.date != "" {
		t := cmd.refDate()
		asOf = &t
	}
	report, err := builder.WeekdayAverage(cmd.table(), asOf)
	if err != nil {
		fatal("failed to build weekday report", err)
	}
	cmd.emit(report)
}

func runEvents(builder *analysis.Builder, args []string) {
	cmd := newCommand("events")
	period := cmd.fs.String("period", "month", "week, month, year, all or last_3_months")
	cmd.parse(args)

	kind, err := analysis.ParsePeriodKind(*period)
	if err != nil {
		fatal("invalid -period", err)
	}
	report, err := builder.Events(cmd.table(), cmd.refDate(), kind)
	if err != nil {
		fatal("failed to build events report", err)
	}
	cmd.emit(report)
}

func runSearch(args []string) {
	cmd := newCommand("search")
	query := cmd.fs.String("q", "", "Text to look for")
	cmd.parse(args)
	if *query == "" {
		fatal("missing flag", errors.New("-q is required"))
	}
	cmd.emit(analysis.Search(*query, cmd.table()))
}

func runCashback(args []string) {
	cmd := newCommand("cashback")
	now := time.Now()
	year := cmd.fs.Int("year", now.Year(), "Calendar year")
	month := cmd.fs.Int("month", int(now.Month()), "Calendar month, 1-12")
	cmd.parse(args)
	if *month < 1 || *month > 12 {
		fatal("invalid -month", fmt.Errorf("%d is not between 1 and 12", *month))
	}

	cashback, err := analysis.CashbackByCategory(cmd.table(), *year, *month)
	if err != nil {
		fatal("failed to build cashback report", err)
	}
	cmd.emit(cashback)
}

func runRoundUp(args []string) {
	cmd := newCommand("roundup")
	month := cmd.fs.String("month", time.Now().Format("2006-01"), "Month as YYYY-MM")
	roundTo := cmd.fs.Int("round-to", 50, "Round purchases up to a multiple of this")
	cmd.parse(args)
	if err := analysis.ValidateMonth(*month); err != nil {
		fatal("invalid -month", err)
	}

	savings, err := analysis.RoundUpSavings(*month, cmd.table(), *roundTo)
	if err != nil {
		fatal("failed to compute round-up savings", err)
	}
	cmd.emit(map[string]any{"month": *month, "round_to": *roundTo, "savings": savings})
}

func runPhones(args []string) {
	cmd := newCommand("phones")
	cmd.parse(args)

	matches := analysis.FindPhoneTransactions(cmd.table())
	cmd.emit(map[string]any{"matches": matches, "total_found": len(matches)})
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
