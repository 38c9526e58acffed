package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/catalogrank/backend/internal/domain"
	"github.com/catalogrank/backend/internal/infrastructure/catalog"
	"github.com/catalogrank/backend/internal/infrastructure/logging"
	"github.com/catalogrank/backend/internal/usecase"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// topColumns maps the top subcommand argument to a catalog column
var topColumns = map[string]string{
	"brand":    domain.ColumnBrand,
	"material": domain.ColumnMaterial,
	"color":    domain.ColumnColor,
	"country":  domain.ColumnCountry,
}

// app carries the state shared by all subcommands
type app struct {
	out         io.Writer
	catalogPath string
	format      string
	logLevel    string

	logger  *zap.Logger
	catalog *domain.Catalog
}

// newRootCmd builds the command tree writing reports to out
func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:   "catalog-report",
		Short: "Rank and summarize a furniture catalog from the command line",
		Long: `catalog-report loads a catalog CSV once and runs the same recommendation
and analytics pipeline the HTTP server exposes.

Output is JSON by default; use --format yaml for a human-friendly report.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.format != "json" && a.format != "yaml" {
				return fmt.Errorf("unsupported format %q (want json or yaml)", a.format)
			}

			logger, err := logging.New(a.logLevel, "console")
			if err != nil {
				return err
			}
			a.logger = logger

			loader := catalog.NewLoader(catalog.Config{
				Path:        a.catalogPath,
				SearchPaths: catalog.DefaultSearchPaths,
			}, logger)
			a.catalog, err = loader.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.catalogPath, "catalog", "", "catalog CSV file (default: search the usual data paths)")
	root.PersistentFlags().StringVarP(&a.format, "format", "o", "json", "output format: json or yaml")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(
		a.newSummaryCmd(),
		a.newRecommendCmd(),
		a.newPriceDistributionCmd(),
		a.newTopCmd(),
		a.newPriceByCategoryCmd(),
	)
	return root
}

func (a *app) newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print catalog-wide statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := usecase.NewAnalyticsService(a.logger).Summary(a.catalog)
			if err != nil {
				return err
			}
			return a.render(summary)
		},
	}
}

func (a *app) newRecommendCmd() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "recommend <query>",
		Short: "Rank products against a free-text query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := usecase.NewRecommendationService(nil, nil, usecase.RecommendationConfig{}, a.logger)
			result, err := svc.Recommend(cmd.Context(), a.catalog, strings.Join(args, " "), topK)
			if err != nil {
				return err
			}
			return a.render(result)
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", usecase.DefaultTopK, "number of products to return (0 returns every match)")
	return cmd
}

func (a *app) newPriceDistributionCmd() *cobra.Command {
	var bins int

	cmd := &cobra.Command{
		Use:   "price-distribution",
		Short: "Print an equal-width price histogram",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hist, err := usecase.NewAnalyticsService(a.logger).PriceDistribution(a.catalog, bins)
			if err != nil {
				return err
			}
			return a.render(hist)
		},
	}

	cmd.Flags().IntVar(&bins, "bins", usecase.DefaultHistogramBins, "number of histogram bins")
	return cmd
}

func (a *app) newTopCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:       "top <brand|material|color|country|category>",
		Short:     "Print the most frequent values of a column",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"brand", "material", "color", "country", "category"},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := usecase.NewAnalyticsService(a.logger)

			var (
				table domain.CountTable
				err   error
			)
			if args[0] == "category" {
				if !cmd.Flags().Changed("limit") {
					limit = usecase.DefaultCategoryLimit
				}
				table, err = svc.TopCategories(a.catalog, limit)
			} else {
				table, err = svc.TopValues(a.catalog, topColumns[args[0]], limit)
			}
			if err != nil {
				return err
			}
			return a.render(table)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", usecase.DefaultTopLimit, "number of values to print (0 prints all)")
	return cmd
}

func (a *app) newPriceByCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "price-by-category",
		Short: "Print mean prices of the most frequent categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := usecase.NewAnalyticsService(a.logger).PriceByCategory(a.catalog)
			if err != nil {
				return err
			}
			return a.render(table)
		},
	}
}

// render writes v in the selected output format
func (a *app) render(v any) error {
	if a.format == "yaml" {
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
