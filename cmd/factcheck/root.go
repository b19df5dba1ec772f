package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/maxradov/propacondom-app/internal/cache"
	"github.com/maxradov/propacondom-app/internal/client"
	"github.com/maxradov/propacondom-app/internal/config"
	"github.com/maxradov/propacondom-app/internal/session"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var version = "dev"

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	debug        bool
	baseURL      string
	configPath   string
	noCache      bool
	pollInterval time.Duration
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "factcheck",
		Short: "factcheck - submit content for fact-checking and read the reports",
		Long: `factcheck is a command-line client for the fact-check service.

It submits a URL or a piece of text for analysis, follows the background task
until it finishes, lets you pick which claims to verify and renders the
resulting report.`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "Backend base URL (overrides server.base_url)")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a config file (default: nearest "+config.FileName+")")
	cmd.PersistentFlags().BoolVar(&opts.noCache, "no-cache", false, "Do not read or write the local report cache")
	cmd.PersistentFlags().DurationVar(&opts.pollInterval, "poll-interval", 0, "Delay between task status queries (overrides polling.interval)")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if opts.debug {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
		client.Version = version
	}

	cmd.AddCommand(newCheckCommand(opts))
	cmd.AddCommand(newReportCommand(opts))
	cmd.AddCommand(newSelectCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newFeedCommand(opts))
	cmd.AddCommand(newLanguagesCommand())
	cmd.AddCommand(newSessionsCommand())
	cmd.AddCommand(newCacheCommand(opts))

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}

// env is everything a command needs to talk to the backend.
type env struct {
	cfg    *config.Config
	client *client.Client
	cache  *cache.Cache
	events session.Logger
}

func (o *globalOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFile(o.configPath)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	return config.Load(wd)
}

// setup loads configuration and builds the client, cache and session log.
// Callers must Close the returned env.
func (o *globalOptions) setup() (*env, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if o.baseURL != "" {
		cfg.Server.BaseURL = o.baseURL
	}

	c, err := client.New(cfg.Server.BaseURL,
		client.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout()}),
		client.WithMaxInputLength(cfg.Input.MaxLength),
	)
	if err != nil {
		return nil, err
	}

	cacheDir := ""
	if cfg.CacheEnabled() && !o.noCache {
		cacheDir = cfg.Cache.Dir
	}

	events, err := session.Open(cfg.SessionLogEnabled(), cfg.SessionLog.Dir)
	if err != nil {
		return nil, fmt.Errorf("opening session log: %w", err)
	}
	return &env{
		cfg:    cfg,
		client: c,
		cache:  cache.New(cacheDir, cache.WithMaxAge(cfg.CacheMaxAge())),
		events: events,
	}, nil
}

func (o *globalOptions) interval(cfg *config.Config) time.Duration {
	if o.pollInterval > 0 {
		return o.pollInterval
	}
	return cfg.PollInterval()
}

// Close flushes the session log.
func (e *env) Close() error {
	return e.events.Close()
}

// terminalFile returns the *os.File behind v when it is a terminal.
func terminalFile(v any) (*os.File, bool) {
	f, ok := v.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil, false
	}
	return f, true
}

func isTerminal(v any) bool {
	_, ok := terminalFile(v)
	return ok
}

// terminalWidth is the column count of w, or zero if unknown.
func terminalWidth(w io.Writer) int {
	f, ok := terminalFile(w)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}
