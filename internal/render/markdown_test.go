package render

import (
	"strings"
	"testing"
	"time"

	"github.com/brainworx/scorecard/internal/models"
	"github.com/brainworx/scorecard/internal/report"
)

func sampleDocument() *report.Document {
	return &report.Document{
		Audience:       models.AudienceCoach,
		Title:          "Test Assessment",
		Variant:        "test",
		RunID:          "run-1",
		RespondentName: "Alex Example",
		CompletedAt:    time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Warnings:       []string{"incomplete assessment: 2 of 3 questions answered, scoring answered questions only"},
		Sections: []report.Section{
			{
				Heading: "Executive Summary",
				Fields:  []report.Field{{Label: "High", Value: "1 pattern(s)"}},
			},
			{
				Heading: "Pattern Analysis",
				Subsections: []report.Section{
					{
						Heading: "Pattern One (100%)",
						Body:    "First pattern.",
						Items:   []string{"Do A", "Do B"},
					},
				},
			},
		},
		Series: []report.SeriesPoint{
			{Code: "P1", Label: "One", Percentage: 100},
			{Code: "P2", Label: "Two", Percentage: 40},
		},
	}
}

func TestMarkdownRendersStructure(t *testing.T) {
	md := Markdown(sampleDocument())

	wantFragments := []string{
		"# Test Assessment",
		"**Respondent:** Alex Example",
		"**Completed:** 14 March 2026",
		"Comprehensive coach analysis",
		"> Note: incomplete assessment",
		"## Executive Summary",
		"- **High:** 1 pattern(s)",
		"### Pattern One (100%)",
		"1. Do A",
		"2. Do B",
		"| One | 100% |",
		"| Two | 40% |",
	}
	for _, fragment := range wantFragments {
		if !strings.Contains(md, fragment) {
			t.Errorf("Markdown missing %q", fragment)
		}
	}
}

func TestMarkdownDeterminism(t *testing.T) {
	doc := sampleDocument()
	if Markdown(doc) != Markdown(doc) {
		t.Error("Rendering twice produced different markdown")
	}
}

func TestHTMLRender(t *testing.T) {
	renderer := NewHTMLRenderer()
	html, err := renderer.Render(sampleDocument())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for _, fragment := range []string{
		"<h1", "Test Assessment", "<table>", "</html>",
	} {
		if !strings.Contains(html, fragment) {
			t.Errorf("HTML missing %q", fragment)
		}
	}
}
