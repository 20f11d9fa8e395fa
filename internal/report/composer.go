package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/brainworx/scorecard/internal/catalog"
	"github.com/brainworx/scorecard/internal/models"
	"github.com/brainworx/scorecard/internal/scoring"
)

// Coaching note tiers, keyed purely on the pattern percentage.
const (
	notePriority   = "Priority intervention - this pattern significantly impacts daily life"
	noteMonitoring = "Active monitoring - work on this area with professional support"
	noteAwareness  = "Awareness - keep this pattern in view and address it when it arises"
)

// Context is the respondent context a document is composed with. CompletedAt
// is the run's completion date; composition never reads the clock.
type Context struct {
	RespondentName string
	CompletedAt    time.Time
}

// Composer builds audience-specific documents from scored results for one
// variant's catalog. Construct once and share; it holds no mutable state.
type Composer struct {
	cat  *catalog.Catalog
	topN int
}

// NewComposer creates a composer for the catalog. topN caps the client
// report's pattern list; zero or negative falls back to the catalog default.
func NewComposer(cat *catalog.Catalog, topN int) *Composer {
	if topN <= 0 {
		topN = cat.ClientTopN
	}
	if topN <= 0 {
		topN = len(cat.Patterns)
	}
	return &Composer{cat: cat, topN: topN}
}

// Compose builds the document for the given audience.
func (c *Composer) Compose(audience models.ReportAudience, res *scoring.Result, ctx Context) (*Document, error) {
	switch audience {
	case models.AudienceClient:
		return c.clientReport(res, ctx), nil
	case models.AudienceCoach:
		return c.coachReport(res, nil, ctx), nil
	default:
		return nil, fmt.Errorf("compose: unknown audience %q", audience)
	}
}

// ComposeCombined builds the document for a dual-rater subject. The coach
// document gains per-rater fields; the client document is composed from the
// merged scores alone.
func (c *Composer) ComposeCombined(audience models.ReportAudience, combined *scoring.Combined, ctx Context) (*Document, error) {
	switch audience {
	case models.AudienceClient:
		return c.clientReport(combined.Merged, ctx), nil
	case models.AudienceCoach:
		return c.coachReport(combined.Merged, combined, ctx), nil
	default:
		return nil, fmt.Errorf("compose: unknown audience %q", audience)
	}
}

// clientReport selects the top-N patterns with short descriptions only and
// attaches the full-pattern chart series. Interventions are omitted for this
// audience.
func (c *Composer) clientReport(res *scoring.Result, ctx Context) *Document {
	doc := c.newDocument(models.AudienceClient, res, ctx)

	top := res.Scores
	if len(top) > c.topN {
		top = top[:c.topN]
	}

	overview := Section{
		Heading: "Your Strongest Patterns",
		Body: fmt.Sprintf("The %d patterns that showed up most strongly in your assessment, "+
			"from strongest to mildest.", len(top)),
	}
	for _, s := range top {
		def := c.cat.Pattern(s.Code)
		sub := Section{
			Heading: s.Name,
			Fields: []Field{
				{Label: "Presence", Value: fmt.Sprintf("%d%%", s.Percentage)},
				{Label: "Level", Value: s.SeverityTier},
			},
		}
		if def != nil {
			sub.Body = def.Description
		}
		if s.Unanswered {
			sub.Fields = append(sub.Fields, Field{Label: "Note", Value: "no questions answered"})
		}
		overview.Subsections = append(overview.Subsections, sub)
	}
	doc.Sections = append(doc.Sections, overview)

	doc.Sections = append(doc.Sections, Section{
		Heading: "Next Steps",
		Body: "Review your full results with your coach to explore what these patterns " +
			"mean for you and which programs fit your profile.",
	})
	return doc
}

// coachReport includes every pattern with the full clinical narrative, ranked
// interventions, a tier-keyed coaching note, and an executive summary block.
func (c *Composer) coachReport(res *scoring.Result, combined *scoring.Combined, ctx Context) *Document {
	doc := c.newDocument(models.AudienceCoach, res, ctx)
	doc.Sections = append(doc.Sections, c.executiveSummary(res))

	patterns := Section{Heading: "Pattern Analysis"}
	for _, s := range res.Scores {
		sub := Section{
			Heading: fmt.Sprintf("%s (%d%%)", s.Name, s.Percentage),
			Fields: []Field{
				{Label: "Score", Value: fmt.Sprintf("%g / %g", s.ActualScore, s.MaxScore)},
				{Label: "Severity", Value: s.SeverityTier},
				{Label: "Questions answered", Value: fmt.Sprintf("%d", s.Count)},
				{Label: "Coaching note", Value: coachingNote(s.Percentage)},
			},
		}
		if def := c.cat.Pattern(s.Code); def != nil {
			sub.Body = def.Description
			if def.Manifestations != "" {
				sub.Fields = append(sub.Fields, Field{Label: "Manifestations", Value: def.Manifestations})
			}
			if def.Causes != "" {
				sub.Fields = append(sub.Fields, Field{Label: "Likely causes", Value: def.Causes})
			}
			if def.ImpactTier != "" {
				sub.Fields = append(sub.Fields, Field{Label: "Impact tier", Value: def.ImpactTier})
			}
			sub.Items = def.Interventions
		}
		if combined != nil {
			sub.Fields = append(sub.Fields, raterFields(combined, s.Code)...)
		}
		patterns.Subsections = append(patterns.Subsections, sub)
	}
	doc.Sections = append(doc.Sections, patterns)
	return doc
}

// executiveSummary aggregates tier counts, the extreme patterns, and the mean
// percentage. Tier counts follow threshold-table order so the block is
// deterministic.
func (c *Composer) executiveSummary(res *scoring.Result) Section {
	counts := make(map[string]int)
	for _, s := range res.Scores {
		counts[s.SeverityTier]++
	}

	section := Section{Heading: "Executive Summary"}
	tierOrder := make([]string, 0, len(c.cat.Thresholds.Tiers))
	for _, t := range c.cat.Thresholds.Tiers {
		tierOrder = append(tierOrder, t.Tier)
	}
	// Tiers outside the table (possible only with hand-built results)
	// still get reported, after the declared ones.
	var extra []string
	for tier := range counts {
		known := false
		for _, t := range tierOrder {
			if t == tier {
				known = true
			}
		}
		if !known {
			extra = append(extra, tier)
		}
	}
	sort.Strings(extra)

	for _, tier := range append(tierOrder, extra...) {
		if n, ok := counts[tier]; ok {
			section.Fields = append(section.Fields, Field{
				Label: tier, Value: fmt.Sprintf("%d pattern(s)", n),
			})
		}
	}

	if len(res.Scores) > 0 {
		highest := res.Scores[0]
		lowest := res.Scores[len(res.Scores)-1]
		section.Fields = append(section.Fields,
			Field{Label: "Highest pattern", Value: fmt.Sprintf("%s (%d%%)", highest.Name, highest.Percentage)},
			Field{Label: "Lowest pattern", Value: fmt.Sprintf("%s (%d%%)", lowest.Name, lowest.Percentage)},
			Field{Label: "Mean percentage", Value: fmt.Sprintf("%.1f%%", res.MeanPercentage())},
		)
	}
	return section
}

// newDocument builds the shared document shell: identity fields, the full
// chart series, and scoring warnings.
func (c *Composer) newDocument(audience models.ReportAudience, res *scoring.Result, ctx Context) *Document {
	doc := &Document{
		Audience:       audience,
		Title:          c.cat.Title,
		Variant:        res.Variant,
		RunID:          res.RunID,
		RespondentName: ctx.RespondentName,
		CompletedAt:    ctx.CompletedAt,
		Warnings:       res.Warnings,
	}
	for _, s := range res.Scores {
		label := s.Name
		if def := c.cat.Pattern(s.Code); def != nil && def.ShortName != "" {
			label = def.ShortName
		}
		doc.Series = append(doc.Series, SeriesPoint{
			Code:       s.Code,
			Label:      label,
			Percentage: s.Percentage,
		})
	}
	return doc
}

// raterFields renders each rater's view of one pattern for dual-rater coach
// reports.
func raterFields(combined *scoring.Combined, code string) []Field {
	var fields []Field
	for _, res := range []*scoring.Result{combined.A, combined.B} {
		for _, s := range res.Scores {
			if s.Code != code {
				continue
			}
			value := fmt.Sprintf("%.2f (%s)", s.ActualScore, s.SeverityTier)
			if s.Unanswered {
				value = "not answered"
			}
			fields = append(fields, Field{Label: raterLabel(res.Rater), Value: value})
		}
	}
	return fields
}

func raterLabel(role models.RaterRole) string {
	switch role {
	case models.RaterParent:
		return "At home (parent)"
	case models.RaterTeacher:
		return "At school (teacher)"
	default:
		return "Self report"
	}
}

// coachingNote maps a percentage to its tier-keyed note.
func coachingNote(percentage int) string {
	switch {
	case percentage >= 70:
		return notePriority
	case percentage >= 50:
		return noteMonitoring
	default:
		return noteAwareness
	}
}
