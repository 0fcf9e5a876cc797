// Package cli wires the khobor command tree: the web server and one-shot searches printed to the terminal.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Adda-Baaj/khobor-search/internal/app"
	"github.com/Adda-Baaj/khobor-search/internal/config"
	"github.com/Adda-Baaj/khobor-search/internal/logger"
	"github.com/Adda-Baaj/khobor-search/internal/web"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersionInfo is called from main with the values injected at build time.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Deps are the constructors the commands bootstrap from. Config and logger are
// only built by commands that need them, so `version` works without an API key.
type Deps struct {
	LoadConfig func() (*config.Config, error)
	NewLogger  func(level string) (logger.Logger, error)
	Out        io.Writer
}

type searchFlags struct {
	limit  int
	json   bool
	width  int
	date   string
	noSink bool
}

// NewRootCommand builds the command tree.
func NewRootCommand(deps Deps) *cobra.Command {
	if deps.Out == nil {
		deps.Out = os.Stdout
	}

	root := &cobra.Command{
		Use:           "khobor",
		Short:         "News search over SerpApi Google News",
		Long:          "khobor searches Google News through SerpApi, either from the terminal or behind a small web UI and JSON API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(deps.Out)

	root.AddCommand(newServeCommand(deps))
	root.AddCommand(newLatestCommand(deps))
	root.AddCommand(newByDateCommand(deps))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "khobor %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})
	return root
}

// Execute runs the command tree with ctx and returns the first error.
func Execute(ctx context.Context, deps Deps, args []string) error {
	root := NewRootCommand(deps)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newServeCommand(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI, JSON API and metrics endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, _, err := bootstrap(cmd.Context(), deps, false)
			if err != nil {
				return err
			}
			defer rt.Close()
			return rt.Serve(cmd.Context())
		},
	}
}

func newLatestCommand(deps Deps) *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "latest <query...>",
		Short: "Print the latest news for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, deps, flags, web.Request{
				Query:      strings.Join(args, " "),
				SearchType: web.SearchTypeLatest,
				Limit:      flags.limit,
			})
		},
	}
	bindSearchFlags(cmd, &flags)
	return cmd
}

func newByDateCommand(deps Deps) *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "bydate --date YYYY-MM-DD <query...>",
		Short: "Print news for a query published on one calendar day",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, deps, flags, web.Request{
				Query:      strings.Join(args, " "),
				SearchType: web.SearchTypeByDate,
				Date:       flags.date,
				Limit:      flags.limit,
			})
		},
	}
	bindSearchFlags(cmd, &flags)
	cmd.Flags().StringVar(&flags.date, "date", "", "calendar day to search (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func bindSearchFlags(cmd *cobra.Command, flags *searchFlags) {
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "maximum number of results (0 uses default_result_limit)")
	cmd.Flags().BoolVar(&flags.json, "json", false, "print the search state as JSON")
	cmd.Flags().IntVar(&flags.width, "width", defaultWidth, "card width in columns")
	cmd.Flags().BoolVar(&flags.noSink, "no-publish", false, "do not publish the search event")
}

func runSearch(cmd *cobra.Command, deps Deps, flags searchFlags, req web.Request) error {
	rt, cfg, err := bootstrap(cmd.Context(), deps, flags.noSink)
	if err != nil {
		return err
	}
	defer rt.Close()

	state := rt.Handler().Search(cmd.Context(), req)

	out := cmd.OutOrStdout()
	if flags.json {
		if err := writeJSON(out, state); err != nil {
			return err
		}
	} else {
		renderer := newCardRenderer(flags.width, cfg.DateLocation)
		if state.Error == "" {
			fmt.Fprint(out, renderer.Render(state.Articles))
		}
	}
	if state.Error != "" {
		return errors.New(state.Error)
	}
	return nil
}

func bootstrap(ctx context.Context, deps Deps, noPublish bool) (*app.Runtime, *config.Config, error) {
	if deps.LoadConfig == nil {
		return nil, nil, fmt.Errorf("no config loader configured")
	}
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	var log logger.Logger = logger.NopLogger{}
	if deps.NewLogger != nil {
		log, err = deps.NewLogger(cfg.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("init logger: %w", err)
		}
	}
	log.InfoObj("khobor starting", "config", cfg.String())

	if noPublish {
		c := *cfg
		c.PublishersFile = ""
		cfg = &c
	}

	rt, err := app.New(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize runtime", "error", err.Error())
		return nil, nil, err
	}
	return rt, cfg, nil
}

func writeJSON(w io.Writer, state web.State) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(state)
}
