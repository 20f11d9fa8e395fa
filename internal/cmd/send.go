package cmd

import (
	"github.com/spf13/cobra"
)

// NewSendCommand creates the send command
func NewSendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <run-id>",
		Short: "Score a completed run and email its reports",
		Long: `Score a completed assessment run, compose the client and coach reports,
and email them to every registered recipient.

The respondent receives the personal summary; the registered coach and any
configured admin addresses receive the full coach analysis. Every recipient
gets one settled status line; delivery failures never abort the other
recipients.

A run that already carries a delivered marker is refused unless --resend is
given. Dispatch is at-least-once: rerunning send after a partial failure
re-sends to every recipient, including ones that already succeeded.

Examples:
  scorecard send 7f9c2e14-8a30-4a9f-b6d1-2f4f4f6a9b21
  scorecard send 7f9c2e14-8a30-4a9f-b6d1-2f4f4f6a9b21 --resend
  scorecard send 7f9c2e14-8a30-4a9f-b6d1-2f4f4f6a9b21 --save-dir ./reports`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resend, _ := cmd.Flags().GetBool("resend")
			saveDir, _ := cmd.Flags().GetString("save-dir")

			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()
			env.exportDir = saveDir

			return env.dispatchRun(cmd.Context(), args[0], resend)
		},
	}

	cmd.Flags().Bool("resend", false, "Dispatch again even if the run is already marked delivered")
	cmd.Flags().String("save-dir", "", "Also write the rendered reports into this directory")

	return cmd
}
