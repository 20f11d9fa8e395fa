package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/brainworx/scorecard/internal/catalog"
	"github.com/brainworx/scorecard/internal/config"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [variant]",
		Short: "Validate the loaded pattern catalogs",
		Long: `Load the built-in catalogs plus any overlay directory from configuration
and check their integrity:
  - Scale bounds and aggregation mode
  - Duplicate pattern codes and question ids
  - Questions referencing undefined patterns
  - Monotonic, gap-free severity threshold tables

With a variant argument only that catalog is reported; without one every
loaded variant is.

Exit code: 0 if valid, 1 if errors found`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(cmd)
			if err != nil {
				return err
			}
			variant := ""
			if len(args) == 1 {
				variant = args[0]
			}
			return validateCatalogs(configPath, variant, cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}

	return cmd
}

// validateCatalogs loads the catalog library and reports each variant. Load
// already rejects defective catalogs, so a successful load means every
// reported variant passed validation.
func validateCatalogs(configPath, variant string, output io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	library, err := catalog.Load(cfg.CatalogDir)
	if err != nil {
		fmt.Fprintf(output, "✗ Catalog validation failed\n  Error: %v\n", err)
		return fmt.Errorf("catalog validation failed: %w", err)
	}

	variants := library.Variants()
	if variant != "" {
		if _, err := library.Catalog(variant); err != nil {
			return err
		}
		variants = []string{variant}
	}

	for _, name := range variants {
		cat, err := library.Catalog(name)
		if err != nil {
			return err
		}
		reportCatalog(cat, output)
	}

	fmt.Fprintf(output, "\n✓ %d catalog(s) valid!\n", len(variants))
	return nil
}

// reportCatalog prints one variant's summary with per-pattern coverage.
func reportCatalog(cat *catalog.Catalog, output io.Writer) {
	fmt.Fprintf(output, "✓ %s v%d: %s\n", cat.Variant, cat.Version, cat.Title)
	fmt.Fprintf(output, "  %d patterns, %d questions, scale [%d,%d], %s aggregation",
		len(cat.Patterns), len(cat.Questions), cat.ScaleMin, cat.ScaleMax, cat.Aggregation)
	if cat.DualRater {
		fmt.Fprintf(output, ", dual rater")
	}
	fmt.Fprintf(output, "\n")
	fmt.Fprintf(output, "  %d severity tiers keyed on %s\n", len(cat.Thresholds.Tiers), cat.Thresholds.Key)

	counts := make(map[string]int, len(cat.Patterns))
	for _, q := range cat.Questions {
		counts[q.PatternCode]++
	}
	for _, p := range cat.Patterns {
		if counts[p.Code] == 0 {
			fmt.Fprintf(output, "  ! pattern %s has no questions and will always score as unanswered\n", p.Code)
		}
	}
}
