package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/leaderboard/internal/cache"
	"github.com/mcoot/leaderboard/internal/cache/sqlite"
	"github.com/mcoot/leaderboard/internal/client"
	"github.com/mcoot/leaderboard/internal/gateway"
	"github.com/mcoot/leaderboard/internal/model"
	"github.com/mcoot/leaderboard/internal/session"
	"github.com/mcoot/leaderboard/internal/texts"
)

// app is one CLI invocation: its streams, configuration and lazily opened session
type app struct {
	cfg    *Config
	in     io.Reader
	bufIn  *bufio.Reader
	out    io.Writer
	errOut io.Writer
	output *Output
	logger *slog.Logger

	texts      *texts.Catalogue
	cache      *sqlite.Cache
	controller *session.Controller
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{
		cfg:    DefaultConfig(),
		in:     in,
		out:    out,
		errOut: errOut,
		output: NewOutput("text", out, errOut),
		logger: slog.New(slog.DiscardHandler),
	}
}

// NewRootCmd creates the root command bound to the process streams
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp(os.Stdin, os.Stdout, os.Stderr))
}

func newRootCmd(a *app) *cobra.Command {
	cfg := a.cfg

	rootCmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Terminal client for the leaderboard service",
		Long: `leaderboard signs players in to a competition, submits their scores and
shows the ranked leaderboard.

The session is kept in a local cache file, so a player stays signed in
between invocations until they log in as someone else.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Output != "text" && cfg.Output != "json" {
				return fmt.Errorf("invalid output format %q: must be 'text' or 'json'", cfg.Output)
			}
			a.output = NewOutput(cfg.Output, a.out, a.errOut)

			level := slog.LevelError
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: LEADERBOARD_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Competition, "competition", "c", cfg.Competition, "Competition id (env: LEADERBOARD_COMPETITION)")
	rootCmd.PersistentFlags().StringVar(&cfg.CachePath, "cache", cfg.CachePath, "Local cache file (env: LEADERBOARD_CACHE)")
	rootCmd.PersistentFlags().StringVar(&cfg.TextsPath, "texts", cfg.TextsPath, "JSON file overriding screen texts (env: LEADERBOARD_TEXTS)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().StringVar(&cfg.TermsURL, "terms-url", cfg.TermsURL, "Terms of use URL (env: LEADERBOARD_TERMS_URL)")
	rootCmd.PersistentFlags().StringVar(&cfg.PrivacyURL, "privacy-url", cfg.PrivacyURL, "Privacy policy URL (env: LEADERBOARD_PRIVACY_URL)")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newWelcomeCmd(a))
	rootCmd.AddCommand(newRegisterCmd(a))
	rootCmd.AddCommand(newLoginCmd(a))
	rootCmd.AddCommand(newWhoamiCmd(a))
	rootCmd.AddCommand(newScoreCmd(a))
	rootCmd.AddCommand(newBoardCmd(a))
	rootCmd.AddCommand(newTermsCmd(a))
	rootCmd.AddCommand(newPrivacyCmd(a))
	rootCmd.AddCommand(newHealthCmd(a))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := a.run(context.Background(), os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// run executes one command line and reports its error
func (a *app) run(ctx context.Context, args []string) error {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetIn(a.in)
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		a.reportError(err)
	}
	if closeErr := a.close(); closeErr != nil {
		a.logger.Warn("failed to close cache", slog.String("error", closeErr.Error()))
	}
	return err
}

// reportError prints err unless a screen has already shown it
func (a *app) reportError(err error) {
	var classified *session.ClassifiedError
	if !a.output.IsJSON() && (errors.Is(err, errInvalidForm) || errors.As(err, &classified)) {
		return
	}
	a.output.PrintError(err)
}

// session opens the cache and builds the controller on first use
func (a *app) session(ctx context.Context) (*session.Controller, error) {
	if a.controller != nil {
		return a.controller, nil
	}

	catalogue, err := a.catalogue()
	if err != nil {
		return nil, err
	}

	if err := a.cfg.ensureCacheDir(); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	c, err := sqlite.Open(ctx, a.cfg.CachePath)
	if err != nil {
		return nil, err
	}
	a.cache = c

	competition := model.CompetitionID(a.cfg.Competition)
	tokens := gateway.NewCacheTokens(c, cache.TokenKey(competition))
	gw := gateway.NewHTTP(client.New(a.cfg.ServerURL), competition, tokens)

	var presenter session.Presenter = session.NopPresenter{}
	if !a.output.IsJSON() {
		presenter = newTerminalPresenter(a.out, a.errOut, catalogue)
	}

	a.controller = session.New(session.Config{
		Competition: competition,
		Gateway:     gw,
		Cache:       c,
		Presenter:   presenter,
		Texts:       catalogue,
		Logger:      a.logger,
	})
	a.controller.Subscribe(a.onEvent)
	return a.controller, nil
}

func (a *app) catalogue() (*texts.Catalogue, error) {
	if a.texts != nil {
		return a.texts, nil
	}
	catalogue, err := texts.LoadFile(a.cfg.TextsPath)
	if err != nil {
		return nil, err
	}
	a.texts = catalogue
	return catalogue, nil
}

func (a *app) close() error {
	if a.cache == nil {
		return nil
	}
	err := a.cache.Close()
	a.cache = nil
	a.controller = nil
	return err
}
