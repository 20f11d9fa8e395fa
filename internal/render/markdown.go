// Package render turns composed document models into concrete formats. The
// composer stays render-agnostic; everything format-specific lives here.
//
// Two renderers are provided: Markdown for plaintext email bodies and report
// files, and HTML (markdown converted through goldmark) for rich email
// bodies.
package render

import (
	"fmt"
	"strings"

	"github.com/brainworx/scorecard/internal/models"
	"github.com/brainworx/scorecard/internal/report"
)

// Markdown renders a document as markdown text. Rendering is deterministic:
// it walks the document model in order and adds nothing of its own.
func Markdown(doc *report.Document) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", doc.Title)
	fmt.Fprintf(&sb, "**Respondent:** %s  \n", doc.RespondentName)
	fmt.Fprintf(&sb, "**Completed:** %s  \n", doc.CompletedAt.Format("2 January 2006"))
	fmt.Fprintf(&sb, "**Report:** %s\n\n", audienceLabel(doc))

	for _, warning := range doc.Warnings {
		fmt.Fprintf(&sb, "> Note: %s\n\n", warning)
	}

	for _, section := range doc.Sections {
		writeSection(&sb, section, 2)
	}

	if len(doc.Series) > 0 {
		sb.WriteString("## Pattern Overview\n\n")
		sb.WriteString("| Pattern | Presence |\n|---|---|\n")
		for _, point := range doc.Series {
			fmt.Fprintf(&sb, "| %s | %d%% |\n", point.Label, point.Percentage)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeSection(sb *strings.Builder, section report.Section, level int) {
	if level > 6 {
		level = 6
	}
	fmt.Fprintf(sb, "%s %s\n\n", strings.Repeat("#", level), section.Heading)

	if section.Body != "" {
		sb.WriteString(section.Body)
		sb.WriteString("\n\n")
	}
	for _, field := range section.Fields {
		fmt.Fprintf(sb, "- **%s:** %s\n", field.Label, field.Value)
	}
	if len(section.Fields) > 0 {
		sb.WriteString("\n")
	}
	for i, item := range section.Items {
		fmt.Fprintf(sb, "%d. %s\n", i+1, item)
	}
	if len(section.Items) > 0 {
		sb.WriteString("\n")
	}
	for _, sub := range section.Subsections {
		writeSection(sb, sub, level+1)
	}
}

func audienceLabel(doc *report.Document) string {
	if doc.Audience == models.AudienceCoach {
		return "Comprehensive coach analysis"
	}
	return "Personal summary"
}
