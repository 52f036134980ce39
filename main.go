package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zebis-scraper/config"
	"zebis-scraper/fetcher"
	"zebis-scraper/logging"
	"zebis-scraper/parser"
	"zebis-scraper/query"
	"zebis-scraper/scraper"
	"zebis-scraper/server"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// app holds everything a command needs once configuration is loaded
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	service *scraper.Service
	close   func() error
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "zebis-scraper",
		Short:        "JSON API in front of the zebis.ch material search",
		SilenceUsage: true,
		// Without a subcommand the server is started
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to an optional YAML configuration file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	})
	root.AddCommand(newSearchCommand(&configPath))

	return root
}

func newSearchCommand(configPath *string) *cobra.Command {
	var topic, grade, subject string

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run a single search and print the JSON response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			ctx := a.log.WithContext(cmd.Context())
			resp, err := a.service.Search(ctx, topic, grade, subject)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "Free text to search for")
	cmd.Flags().StringVar(&grade, "grade", "", "Grade level (7, 8 or 9)")
	cmd.Flags().StringVar(&subject, "subject", "", "Subject slug, e.g. ethics")

	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	a, err := setup(configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpApp := server.New(a.service, a.log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpApp.Listen(":" + a.cfg.Server.Port)
	}()

	a.log.Info().
		Str("port", a.cfg.Server.Port).
		Str("fetch_mode", a.cfg.Fetch.Mode).
		Str("search_url", a.cfg.SearchURL()).
		Msg("server started")

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpApp.ShutdownWithContext(shutdownCtx)
}

// setup loads configuration and wires the search pipeline
func setup(configPath string, logOut io.Writer) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, logOut)
	if err != nil {
		return nil, err
	}

	f, closeFetcher := newFetcher(cfg)

	catalog := query.DefaultCatalog()
	service := scraper.NewService(
		catalog,
		query.NewBuilder(cfg.SearchURL(), catalog),
		f,
		parser.NewParser(cfg.Site.Origin),
	)

	return &app{
		cfg:     cfg,
		log:     log,
		service: service,
		close:   closeFetcher,
	}, nil
}

// newFetcher picks the fetcher for the configured mode
func newFetcher(cfg *config.Config) (fetcher.Fetcher, func() error) {
	opts := fetcher.Options{
		UserAgent:      cfg.Fetch.UserAgent,
		AcceptLanguage: cfg.Fetch.AcceptLanguage,
		Timeout:        cfg.Fetch.Timeout,
	}
	noop := func() error { return nil }

	switch cfg.Fetch.Mode {
	case config.FetchModeProxy:
		return fetcher.NewProxyFetcher(cfg.Fetch.ProxyEndpoint, cfg.Fetch.ProxyAPIKey, opts), noop
	case config.FetchModeRender:
		rf := fetcher.NewRodFetcher(opts, cfg.Fetch.BrowserBin)
		return rf, rf.Close
	default:
		return fetcher.NewCollyFetcher(opts), noop
	}
}
