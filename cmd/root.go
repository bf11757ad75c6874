package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/Dfera000/Buscador-nuevas-ediciones/cmd/resolve"
	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/cache"
	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/config"
)

var runResolve = resolve.Run

// CLI represents the complete command structure for the ediciones application
type CLI struct {
	// Global flags
	Verbose bool `short:"v" help:"Enable debug logging"`

	// Cache flags
	NoCache     bool   `help:"Bypass the OpenLibrary response cache"`
	CacheDBFile string `help:"Path to cache SQLite database file" default:"./cache.db"`
	CacheTTL    string `help:"Cache time-to-live duration (e.g., 720h for 30 days)" default:"720h"`

	Resolve ResolveCmd `cmd:"" help:"Find the latest edition of every book in a CSV file"`
	Cache   CacheCmd   `cmd:"" help:"Manage the OpenLibrary response cache"`
}

// ResolveCmd represents the resolve command
type ResolveCmd struct {
	Input            string `short:"f" help:"Path to the input CSV file (columns Title, Author, year, Idioma, ISBN)"`
	Output           string `short:"o" help:"Path to the result CSV file" default:"results.csv"`
	JSON             string `name:"json" help:"Also write the run report as JSON to this path"`
	YAML             string `name:"yaml" help:"Also write the run report as YAML to this path"`
	DB               string `name:"db" help:"Also store outcomes in this SQLite database"`
	Overwrite        bool   `help:"Replace existing output files"`
	AllowMissingYear bool   `help:"Resolve rows without a year instead of rejecting them"`
	Headful          bool   `help:"Show the browser window"`
	Quiet            bool   `short:"q" help:"Do not print a line per record"`
}

// CacheCmd represents the cache command and its subcommands
type CacheCmd struct {
	Invalidate cache.InvalidateCacheCmd `cmd:"" help:"Drop every cached response of a source"`
	Prune      cache.PruneCacheCmd      `cmd:"" help:"Drop cached responses older than the cache TTL"`
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging(slog.LevelInfo)
	initConfig()

	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("ediciones"),
		kong.Description("Finds the most recent edition of each book in a reading list."),
		kong.UsageOnError(),
	)

	updateGlobalConfig(&cli)

	err := ctx.Run()
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() {
	config.SetDefaults()

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("cache.ttl", "720h") // 30 days
	viper.SetDefault("log.level", "info")

	// EDICIONES_CATALOG_PAUSE overrides catalog.pause, and so on
	viper.SetEnvPrefix("EDICIONES")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			slog.Info("Config file not found, writing default config file...")
			if err := viper.SafeWriteConfig(); err != nil {
				slog.Error("Error writing config file", "error", err)
			}
		} else {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	config.InitConfig()

	if level, ok := parseLevel(viper.GetString("log.level")); ok {
		initLogging(level)
	}
}

func updateGlobalConfig(cli *CLI) {
	if cli.Verbose {
		initLogging(slog.LevelDebug)
	}

	if cli.NoCache {
		viper.Set("cache.enabled", false)
	}
	viper.Set("cache.dbfile", cli.CacheDBFile)
	viper.Set("cache.ttl", cli.CacheTTL)
}

// Run methods for each command

func (r *ResolveCmd) Run() error {
	// Read from config if value not provided via flag
	input := r.Input
	if input == "" {
		input = viper.GetString("resolve.csvfile")
	}

	// Check if required value is still missing
	if input == "" {
		return fmt.Errorf("input CSV file is required (provide via --input flag or resolve.csvfile in config)")
	}

	if r.AllowMissingYear {
		config.SetAllowMissingYear(true)
	}
	if r.Headful {
		config.SetHeadless(false)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return runResolve(ctx, resolve.Options{
		Input:      input,
		Output:     r.Output,
		JSONOutput: r.JSON,
		YAMLOutput: r.YAML,
		DBPath:     r.DB,
		Overwrite:  r.Overwrite,
		Quiet:      r.Quiet,
	})
}

func parseLevel(s string) (slog.Level, bool) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, false
	}
	return level, true
}

func initLogging(level slog.Level) {
	// Create a human-readable handler for logging
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: level,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}
