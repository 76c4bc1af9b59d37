package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/draftloom/draftloom/pkg/backend"
	"github.com/draftloom/draftloom/pkg/cli"
	"github.com/draftloom/draftloom/pkg/draftcache"
	"github.com/draftloom/draftloom/pkg/kv"
)

var (
	// Global flags
	cfgFile     string
	contextName string
	inputFile   string
	verbose     bool

	// Global configuration
	globalConfig *cli.Config

	styles = cli.NewStyles(cli.DefaultTheme)
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "draftloom",
	Short: "Multi-model drafting CLI",
	Long: `draftloom - a command line client for the drafting backend.

It streams multi-model generation turns, drives long-form generation
jobs with human-review checkpoints, and keeps a local per-chat draft
metadata cache.

Examples:
  # Set up a new context
  draftloom config add-context dev --api-key YOUR_API_KEY

  # Run one turn against two models
  draftloom -c dev chat --models modelA,modelB "escreva a introdução"

  # Drive a job, answering review checkpoints interactively
  draftloom -c dev job run -f request.yaml
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <user config dir>/draftloom/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context name to use")
	rootCmd.PersistentFlags().StringVarP(&inputFile, "file", "f", "", "input request file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	var err error
	globalConfig, err = cli.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}
}

// getContext returns the context configuration to use
func getContext() (*cli.Context, error) {
	if globalConfig == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	ctx, err := globalConfig.ResolveContext(contextName)
	if err != nil {
		if contextName == "" {
			return nil, fmt.Errorf("no context specified. Use -c flag or set a default context with 'draftloom config use-context'")
		}
		return nil, err
	}
	return ctx, nil
}

// newLogger builds the process logger; verbose lowers the level to debug.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newClient builds the backend client from the resolved context.
func newClient(ctx *cli.Context, log *slog.Logger) *backend.Client {
	opts := []backend.Option{
		backend.WithLogger(log),
		backend.WithTimeout(60 * time.Second),
	}
	if ctx.BaseURL != "" {
		opts = append(opts, backend.WithBaseURL(ctx.BaseURL))
	}
	return backend.NewClient(ctx.APIKey, opts...)
}

// openCache opens the badger-backed draft metadata cache for the context.
func openCache(ctx *cli.Context) (*draftcache.Cache, kv.Store, error) {
	dir := ctx.CacheDir
	if dir == "" {
		dir = filepath.Join(globalConfig.Dir(), "cache")
	}
	store, err := kv.NewBadger(kv.BadgerOptions{Dir: dir})
	if err != nil {
		return nil, nil, fmt.Errorf("open draft cache: %w", err)
	}
	return draftcache.New(store), store, nil
}
