package cmd

import (
	"fmt"
	"time"

	"github.com/naka-gawa/readme-stats/internal/config"
	"github.com/naka-gawa/readme-stats/internal/gateway"
	"github.com/naka-gawa/readme-stats/internal/patch"
	"github.com/naka-gawa/readme-stats/internal/render"
	"github.com/naka-gawa/readme-stats/internal/usecase"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Recomputes commit statistics and rewrites the marked README section",
	Long: `Fetches commit counts (and optionally line deltas) for every configured
repository, aggregates them by category for all time, the current year and the
previous month, and replaces the content between the start and end markers of
the output file. Repositories that cannot be reached are counted as zero.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger, err := newLogger(cmd)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer logger.Sync() //nolint:errcheck

		cfg, err := loadConfig(cmd, logger)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("source") {
			cfg.Source, _ = cmd.Flags().GetString("source")
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("validate config: %w", err)
			}
		}
		if out, _ := cmd.Flags().GetString("output"); out != "" {
			cfg.Output.Path = out
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		token, err := config.Token()
		if err != nil {
			return err
		}

		// Inject dependencies and run the main business logic.
		source, err := newMetricSource(cfg, token, logger)
		if err != nil {
			return err
		}
		composer := usecase.NewComposer(
			usecase.NewCollector(source, logger, cfg.Concurrency, cfg.Timeout),
			usecase.NewAggregator(cfg.Categories, cfg.Metrics.Lines, cfg.Unreachable == config.UnreachableFootnote),
			cfg.Repos,
			logger,
		)

		report, err := composer.Compose(ctx, time.Now())
		if err != nil {
			return err
		}
		block := render.Markdown{Lines: cfg.Metrics.Lines}.Block(report)

		if dryRun {
			render.Preview(cmd.OutOrStdout(), report, cfg.Metrics.Lines)
			fmt.Fprint(cmd.OutOrStdout(), block)
			return nil
		}

		if err := patch.File(cfg.Output.Path, cfg.Output.StartMarker, cfg.Output.EndMarker, block); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s updated successfully!\n", cfg.Output.Path)
		return nil
	},
}

// newMetricSource builds the data source adapter selected by cfg.Source.
func newMetricSource(cfg *config.Config, token string, logger *zap.Logger) (gateway.MetricSource, error) {
	if cfg.Source == config.SourceGit {
		policy, err := gateway.NewCachePolicy(cfg.Cache.Policy, cfg.Cache.MaxAge)
		if err != nil {
			return nil, err
		}
		return gateway.NewGitSource(nil, gateway.GitOptions{
			Token:    token,
			Email:    cfg.Author.Email,
			CacheDir: cfg.Cache.Dir,
			Policy:   policy,
			Lines:    cfg.Metrics.Lines,
		}, logger), nil
	}

	httpClient, err := gateway.NewHTTPClient(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	switch cfg.Source {
	case config.SourceGraphQL:
		return gateway.NewGraphQLSource(httpClient, cfg.Author.Login, logger), nil
	case config.SourceREST:
		return gateway.NewRESTSource(httpClient, cfg.Author.Login, logger), nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().Bool("dry-run", false, "Print the generated section instead of writing the output file")
	updateCmd.Flags().StringP("output", "o", "", "Markdown file to update (overrides output.path)")
	updateCmd.Flags().StringP("source", "s", "", "Data source: git, graphql or rest (overrides source)")
}
