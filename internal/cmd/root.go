package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for scorecard
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scorecard",
		Short: "Assessment scoring and report delivery pipeline",
		Long: `Scorecard scores completed BrainWorx assessment runs, composes the
client and coach reports, and emails them to every registered recipient.

It loads the variant's pattern catalog, aggregates raw answers into ranked
pattern scores, renders audience-specific reports as text and HTML, and fans
deliveries out over SMTP with one settled result per recipient.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: $SCORECARD_HOME/config.yaml)")

	// Add subcommands
	cmd.AddCommand(NewSendCommand())
	cmd.AddCommand(NewScoreCommand())
	cmd.AddCommand(NewImportCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewWatchCommand())

	return cmd
}
