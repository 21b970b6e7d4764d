package main

import (
	"context"
	"fmt"
	"os"

	"github.com/nulzo/cost-report/internal/cli"
	"github.com/nulzo/cost-report/internal/config"
	"github.com/nulzo/cost-report/internal/platform/logger"
	"github.com/nulzo/cost-report/internal/seed"
	"github.com/nulzo/cost-report/internal/store"
	"github.com/nulzo/cost-report/internal/store/backend"
	"github.com/nulzo/cost-report/internal/store/model"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "seed",
		Short: "Manage the provider catalog",
		Long: `Loads the bundled provider catalog and maintains the stored price memo.

The target store comes from the same configuration as the server
(config.yaml, .env, DATABASE_DRIVER, DATABASE_URI / MONGODB_URI).

Examples:
  seed providers                 # insert missing providers
  seed providers --replace       # recreate every bundled provider
  seed providers --dry-run       # print the catalog without writing
  seed clear-pricing             # forget every memoized price`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(providersCmd(), clearPricingCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", cli.CrossMark(), err)
		os.Exit(1)
	}
}

func providersCmd() *cobra.Command {
	var (
		replace bool
		dryRun  bool
		file    string
	)

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Insert the bundled providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			providers, err := loadCatalog(file)
			if err != nil {
				return err
			}

			if dryRun {
				fmt.Println(cli.PrettyFormat(providers))
				return nil
			}

			return withStore(cmd.Context(), func(ctx context.Context, repo store.Repository) error {
				res, err := seed.Apply(ctx, repo.Providers(), providers, replace)
				if err != nil {
					return err
				}
				for _, name := range res.Created {
					fmt.Printf("%s created  %s\n", cli.CheckMark(), name)
				}
				for _, name := range res.Replaced {
					fmt.Printf("%s replaced %s\n", cli.CheckMark(), name)
				}
				for _, name := range res.Skipped {
					fmt.Printf("%s skipped  %s %s\n", cli.Arrow(), name, cli.Style("(exists)", cli.Dim))
				}
				fmt.Printf("\n%s\n", cli.Style(fmt.Sprintf("Providers inserted successfully (%d created, %d replaced, %d skipped)",
					len(res.Created), len(res.Replaced), len(res.Skipped)), cli.Bold))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "recreate providers that already exist")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the catalog instead of writing it")
	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog yaml to load instead of the bundled one")

	return cmd
}

func clearPricingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-pricing",
		Short: "Remove the price memo from every provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, repo store.Repository) error {
				n, err := repo.Providers().ClearPricing(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("%s Cleared pricing for %s provider(s)\n", cli.CheckMark(), cli.Style(fmt.Sprint(n), cli.Cyan))
				return nil
			})
		},
	}
}

func loadCatalog(file string) ([]model.Provider, error) {
	if file == "" {
		return seed.Load()
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return seed.Parse(data)
}

func withStore(ctx context.Context, fn func(context.Context, store.Repository) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	log := logger.Initialize(logger.Config{Level: "warn", Format: "console"})
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	repo, err := backend.Open(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Database.Driver, err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Warn("Failed to close store", zap.Error(err))
		}
	}()

	return fn(ctx, repo)
}
