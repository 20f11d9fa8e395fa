// Package catalog loads and serves the versioned pattern catalogs that drive
// scoring and report composition. A catalog bundles, per assessment variant,
// the pattern definitions, the question schema, the aggregation mode, and the
// severity threshold table.
//
// Catalogs are reference data: loaded once, read-only at run time, and keyed
// by (variant, code). The same short code may denote different patterns in
// different variants, so codes are never merged across variants.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brainworx/scorecard/internal/models"
)

//go:embed data/*.yaml
var builtinFS embed.FS

// PatternDefinition is one catalog entry: the static reference data for a
// single pattern within its variant.
type PatternDefinition struct {
	// Code is the short pattern code, unique within the variant.
	Code string `yaml:"code"`

	// Name is the full display name, e.g. "TRAP - Home/Work Environment".
	Name string `yaml:"name"`

	// ShortName is the compact label used in chart series and tables.
	ShortName string `yaml:"short_name"`

	// Category groups related patterns, e.g. "Trauma" or "Core ADHD".
	Category string `yaml:"category"`

	// ImpactTier is the pattern's severity-impact tier, e.g. "Critical".
	ImpactTier string `yaml:"impact_tier"`

	// Description is the short narrative shown to respondents.
	Description string `yaml:"description"`

	// Manifestations and Causes are the clinical narratives used only in
	// coach reports.
	Manifestations string `yaml:"manifestations"`
	Causes         string `yaml:"causes"`

	// Interventions is the ranked intervention list for coach reports.
	Interventions []string `yaml:"interventions"`
}

// ThresholdTable is a variant's declarative severity scheme. Tiers are
// ordered descending by Min; the first tier whose Min is at or below the
// keyed value classifies the score.
type ThresholdTable struct {
	// Key selects whether tiers classify the percentage or the raw
	// aggregate score.
	Key models.ThresholdKey `yaml:"key"`

	// Tiers are the tier boundaries, highest first.
	Tiers []models.SeverityThreshold `yaml:"tiers"`
}

// Classify returns the tier label for the given value in the table's key
// space.
func (t ThresholdTable) Classify(value float64) string {
	for _, tier := range t.Tiers {
		if value >= tier.Min {
			return tier.Tier
		}
	}
	if len(t.Tiers) == 0 {
		return ""
	}
	return t.Tiers[len(t.Tiers)-1].Tier
}

// Catalog is the full reference bundle for one assessment variant.
type Catalog struct {
	// Variant names the assessment, e.g. "nip3" or "nipp1118".
	Variant string `yaml:"variant"`

	// Version tracks catalog revisions; bumped whenever reference data
	// changes.
	Version int `yaml:"version"`

	// Title is the human-readable assessment name used in reports.
	Title string `yaml:"title"`

	// Aggregation selects sum or mean scoring for the variant.
	Aggregation models.AggregationMode `yaml:"aggregation"`

	// ScaleMin and ScaleMax bound raw answers for every question in the
	// variant.
	ScaleMin int `yaml:"scale_min"`
	ScaleMax int `yaml:"scale_max"`

	// DualRater marks variants assessed by two independent raters.
	DualRater bool `yaml:"dual_rater"`

	// ClientTopN is the default number of top patterns in the client
	// report, overridable by configuration.
	ClientTopN int `yaml:"client_top_n"`

	// Thresholds is the variant's severity scheme.
	Thresholds ThresholdTable `yaml:"thresholds"`

	// Patterns holds the definitions in catalog order, which is also the
	// tie-break order when scores rank equal.
	Patterns []PatternDefinition `yaml:"patterns"`

	// Questions is the published question schema. Scale bounds are
	// stamped from the variant during load.
	Questions []models.Question `yaml:"questions"`

	byCode map[string]*PatternDefinition
}

// Pattern returns the definition for code, or nil when the variant does not
// define it.
func (c *Catalog) Pattern(code string) *PatternDefinition {
	return c.byCode[code]
}

// DefinitionOrder returns the index of code in catalog order, used as the
// stable tie-break when percentages rank equal. Unknown codes sort last.
func (c *Catalog) DefinitionOrder(code string) int {
	for i, p := range c.Patterns {
		if p.Code == code {
			return i
		}
	}
	return len(c.Patterns)
}

// Library holds every loaded catalog, keyed by variant name.
type Library struct {
	catalogs map[string]*Catalog
}

// LoadBuiltin loads the catalogs embedded in the binary.
func LoadBuiltin() (*Library, error) {
	return loadFS(builtinFS, "data")
}

// Load loads the embedded catalogs and then overlays any *.yaml catalogs
// found in dir. An overlay with the same variant name replaces the builtin
// wholesale; partial merges are not supported. A missing or empty dir is not
// an error.
func Load(dir string) (*Library, error) {
	lib, err := LoadBuiltin()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return lib, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return lib, nil
		}
		return nil, fmt.Errorf("read catalog dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		cat, err := parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}
		lib.catalogs[cat.Variant] = cat
	}
	return lib, nil
}

// Catalog returns the catalog for variant, or an error naming the known
// variants when it is not loaded.
func (l *Library) Catalog(variant string) (*Catalog, error) {
	cat, ok := l.catalogs[variant]
	if !ok {
		return nil, fmt.Errorf("unknown assessment variant %q (have: %s)",
			variant, strings.Join(l.Variants(), ", "))
	}
	return cat, nil
}

// Variants returns the loaded variant names in sorted order.
func (l *Library) Variants() []string {
	names := make([]string, 0, len(l.catalogs))
	for name := range l.catalogs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func loadFS(fsys fs.FS, root string) (*Library, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("read embedded catalogs: %w", err)
	}
	lib := &Library{catalogs: make(map[string]*Catalog)}
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := fs.ReadFile(fsys, root+"/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read embedded catalog %s: %w", entry.Name(), err)
		}
		cat, err := parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse embedded catalog %s: %w", entry.Name(), err)
		}
		lib.catalogs[cat.Variant] = cat
	}
	return lib, nil
}

func parse(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	// Stamp the variant scale onto every question so downstream code can
	// treat questions as self-contained.
	for i := range cat.Questions {
		cat.Questions[i].ScaleMin = cat.ScaleMin
		cat.Questions[i].ScaleMax = cat.ScaleMax
	}

	cat.byCode = make(map[string]*PatternDefinition, len(cat.Patterns))
	for i := range cat.Patterns {
		cat.byCode[cat.Patterns[i].Code] = &cat.Patterns[i]
	}

	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}
