package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/brainworx/scorecard/internal/catalog"
	"github.com/brainworx/scorecard/internal/config"
	"github.com/brainworx/scorecard/internal/delivery"
	"github.com/brainworx/scorecard/internal/filelock"
	"github.com/brainworx/scorecard/internal/logger"
	"github.com/brainworx/scorecard/internal/models"
	"github.com/brainworx/scorecard/internal/render"
	"github.com/brainworx/scorecard/internal/report"
	"github.com/brainworx/scorecard/internal/scoring"
	"github.com/brainworx/scorecard/internal/store"
)

// pipelineEnv bundles the shared machinery the subcommands run against:
// configuration, the catalog library, the run store, and the mail transport.
type pipelineEnv struct {
	cfg       *config.Config
	library   *catalog.Library
	store     *store.Store
	transport delivery.Transport
	log       *logger.ConsoleLogger
	out       io.Writer

	// exportDir, when set, receives a rendered copy of each dispatched
	// report.
	exportDir string
}

// resolveConfigPath returns the --config flag value, falling back to
// config.yaml under the scorecard home.
func resolveConfigPath(cmd *cobra.Command) (string, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		return configPath, nil
	}
	home, err := config.Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "config.yaml"), nil
}

// newEnv loads configuration and opens the store for a command invocation.
func newEnv(cmd *cobra.Command) (*pipelineEnv, error) {
	configPath, err := resolveConfigPath(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	library, err := catalog.Load(cfg.CatalogDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalogs: %w", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}

	return &pipelineEnv{
		cfg:       cfg,
		library:   library,
		store:     st,
		transport: delivery.NewSMTPTransport(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password),
		log:       logger.New(cmd.ErrOrStderr(), cfg.LogLevel),
		out:       cmd.OutOrStdout(),
	}, nil
}

// Close releases the environment's resources.
func (env *pipelineEnv) Close() {
	if env.store != nil {
		env.store.Close()
	}
}

// dispatchRun is the send pipeline: load the run, score it, compose and
// render both audience reports, fan deliveries out, and journal the settled
// results. A run already carrying a delivered marker is refused unless
// resend is set.
func (env *pipelineEnv) dispatchRun(ctx context.Context, runID string, resend bool) error {
	run, err := env.store.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if !run.Completed() {
		return fmt.Errorf("run %s: %w", runID, models.ErrRunNotCompleted)
	}

	delivered, err := env.store.Delivered(ctx, runID)
	if err != nil {
		return err
	}
	if delivered && !resend {
		return fmt.Errorf("run %s is already marked delivered; use --resend to dispatch again", runID)
	}

	lockDir, err := config.LockDir()
	if err != nil {
		return err
	}
	lock, err := filelock.ForRun(lockDir, runID)
	if err != nil {
		return err
	}
	acquired, err := lock.TryLock()
	if err != nil {
		return err
	}
	if !acquired {
		return fmt.Errorf("another dispatch for run %s is already in progress", runID)
	}
	defer lock.Unlock()

	cat, err := env.library.Catalog(run.Variant)
	if err != nil {
		return err
	}

	engine := scoring.NewEngine(cat)
	result, err := engine.ScoreRun(run)
	if err != nil {
		return err
	}
	for _, warning := range result.Warnings {
		env.log.Warnf("run %s: %s", runID, warning)
	}

	var combined *scoring.Combined
	if cat.DualRater {
		combined, err = env.combineWithPartner(ctx, engine, run, result)
		if err != nil {
			return err
		}
	}

	content, err := env.composeContent(cat, run, result, combined)
	if err != nil {
		return err
	}

	if env.exportDir != "" {
		if err := env.exportReports(runID, content); err != nil {
			return err
		}
	}

	recipients := buildRecipients(run, env.cfg.Delivery.AdminRecipients)
	if len(recipients) == 0 {
		return fmt.Errorf("run %s has no delivery recipients", runID)
	}

	dispatcher := delivery.NewDispatcher(env.transport,
		delivery.WithTimeout(env.cfg.Delivery.Timeout),
		delivery.WithMaxConcurrent(env.cfg.Delivery.MaxConcurrent))

	env.log.Infof("dispatching run %s to %d recipient(s)", runID, len(recipients))
	results := dispatcher.Dispatch(ctx, delivery.Job{
		RunID:      runID,
		From:       env.cfg.SMTP.From,
		Content:    content,
		Recipients: recipients,
	})

	failed := 0
	for _, res := range results {
		env.printDeliveryLine(res)
		if !res.Sent() {
			failed++
		}
	}

	// Journal every settled attempt and stamp the marker even on partial
	// failure; the operator re-dispatches with --resend.
	if err := env.store.MarkDelivered(ctx, runID, results); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d deliveries failed for run %s", failed, len(results), runID)
	}
	return nil
}

// combineWithPartner looks for the other rater's completed run for the same
// subject and merges the two results. A missing partner is not an error: the
// single rater's view ships with a warning.
func (env *pipelineEnv) combineWithPartner(ctx context.Context, engine *scoring.Engine, run *models.AssessmentRun, result *scoring.Result) (*scoring.Combined, error) {
	siblings, err := env.store.RunsForSubject(ctx, run.SubjectID)
	if err != nil {
		return nil, err
	}

	// A rater may have re-taken the assessment; pair with the most
	// recently completed counterpart.
	var partner *models.AssessmentRun
	for _, sibling := range siblings {
		if sibling.ID == run.ID || sibling.Rater == run.Rater || !sibling.Completed() {
			continue
		}
		if partner == nil || sibling.CompletedAt.After(partner.CompletedAt) {
			partner = sibling
		}
	}
	if partner == nil {
		env.log.Warnf("run %s: no completed %s counterpart for subject %s, dispatching single-rater report",
			run.ID, otherRater(run.Rater), run.SubjectID)
		return nil, nil
	}

	partnerResult, err := engine.ScoreRun(partner)
	if err != nil {
		return nil, fmt.Errorf("score counterpart run %s: %w", partner.ID, err)
	}

	combined, err := engine.Combine(result, partnerResult)
	if err != nil {
		return nil, err
	}
	env.log.Infof("combined run %s with %s run %s", run.ID, partner.Rater, partner.ID)
	return combined, nil
}

// composeContent builds the per-audience message content for a scored run.
func (env *pipelineEnv) composeContent(cat *catalog.Catalog, run *models.AssessmentRun, result *scoring.Result, combined *scoring.Combined) (map[models.ReportAudience]delivery.Content, error) {
	composer := report.NewComposer(cat, env.cfg.ClientTopN)
	htmlRenderer := render.NewHTMLRenderer()
	docCtx := report.Context{
		RespondentName: run.Respondent.Name,
		CompletedAt:    run.CompletedAt,
	}

	content := make(map[models.ReportAudience]delivery.Content, 2)
	for _, audience := range []models.ReportAudience{models.AudienceClient, models.AudienceCoach} {
		var doc *report.Document
		var err error
		if combined != nil {
			doc, err = composer.ComposeCombined(audience, combined, docCtx)
		} else {
			doc, err = composer.Compose(audience, result, docCtx)
		}
		if err != nil {
			return nil, err
		}

		html, err := htmlRenderer.Render(doc)
		if err != nil {
			return nil, fmt.Errorf("render %s report: %w", audience, err)
		}

		content[audience] = delivery.Content{
			Subject:  subjectFor(audience, cat.Title, run.Respondent.Name),
			TextBody: render.Markdown(doc),
			HTMLBody: html,
		}
	}
	return content, nil
}

// exportReports writes the rendered report bodies next to each other under
// the export directory, one markdown and one HTML file per audience.
func (env *pipelineEnv) exportReports(runID string, content map[models.ReportAudience]delivery.Content) error {
	for _, audience := range []models.ReportAudience{models.AudienceClient, models.AudienceCoach} {
		body, ok := content[audience]
		if !ok {
			continue
		}
		base := filepath.Join(env.exportDir, fmt.Sprintf("%s-%s", runID, audience))
		if err := filelock.AtomicWrite(base+".md", []byte(body.TextBody)); err != nil {
			return fmt.Errorf("export %s report: %w", audience, err)
		}
		if err := filelock.AtomicWrite(base+".html", []byte(body.HTMLBody)); err != nil {
			return fmt.Errorf("export %s report: %w", audience, err)
		}
		env.log.Infof("saved %s report to %s.md", audience, base)
	}
	return nil
}

// buildRecipients assembles the fan-out list: the respondent always gets the
// client report, the registered coach and the configured admin addresses get
// the coach report.
func buildRecipients(run *models.AssessmentRun, admins []string) []models.Recipient {
	var recipients []models.Recipient
	if run.Respondent.Email != "" {
		recipients = append(recipients, models.Recipient{
			Role:     models.RoleRespondent,
			Name:     run.Respondent.Name,
			Address:  run.Respondent.Email,
			Audience: models.AudienceClient,
		})
	}
	if run.CoachEmail != "" {
		recipients = append(recipients, models.Recipient{
			Role:     models.RoleCoach,
			Address:  run.CoachEmail,
			Audience: models.AudienceCoach,
		})
	}
	for _, addr := range admins {
		recipients = append(recipients, models.Recipient{
			Role:     models.RoleAdmin,
			Address:  addr,
			Audience: models.AudienceCoach,
		})
	}
	return recipients
}

// printDeliveryLine writes one settled recipient outcome to the console.
func (env *pipelineEnv) printDeliveryLine(res models.DeliveryResult) {
	status := color.New(color.FgGreen).Sprint("sent")
	if !res.Sent() {
		status = color.New(color.FgRed).Sprint("failed")
	}
	line := fmt.Sprintf("%s  %s <%s>  %s", status, res.Recipient.Role, res.Recipient.Address,
		res.Duration.Round(time.Millisecond))
	if res.Err != nil {
		line += fmt.Sprintf("  (%v)", res.Err)
	}
	fmt.Fprintln(env.out, line)
}

func subjectFor(audience models.ReportAudience, title, name string) string {
	if audience == models.AudienceCoach {
		return fmt.Sprintf("Coach report: %s - %s", title, name)
	}
	return fmt.Sprintf("Your %s results", title)
}

func otherRater(role models.RaterRole) models.RaterRole {
	if role == models.RaterParent {
		return models.RaterTeacher
	}
	return models.RaterParent
}
