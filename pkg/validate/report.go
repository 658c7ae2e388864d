package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gsbingo17/cms-to-commerce/pkg/mapping"
)

// Issue is one validation problem of one record
type Issue struct {
	Entity   string `json:"entity"`
	RecordID string `json:"recordId"`
	Message  string `json:"issue"`
}

// EntityCounts are the per-entity totals of a report
type EntityCounts struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
	Issues  int `json:"issues"`
}

// Report aggregates the validation results of a run
type Report struct {
	RunID           string                   `json:"runId"`
	StartedAt       time.Time                `json:"startedAt"`
	FinishedAt      time.Time                `json:"finishedAt"`
	TotalEntities   int                      `json:"totalEntities"`
	ValidEntities   int                      `json:"validEntities"`
	InvalidEntities int                      `json:"invalidEntities"`
	TotalIssues     int                      `json:"totalIssues"`
	Entities        map[string]*EntityCounts `json:"entities"`
	Issues          []Issue                  `json:"issues"`
}

// NewReport starts a report with a fresh run id
func NewReport() *Report {
	return &Report{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Entities:  make(map[string]*EntityCounts),
		Issues:    []Issue{},
	}
}

// Add folds one result into the report
func (r *Report) Add(entity mapping.EntityType, id string, res Result) {
	counts, ok := r.Entities[string(entity)]
	if !ok {
		counts = &EntityCounts{}
		r.Entities[string(entity)] = counts
	}

	r.TotalEntities++
	counts.Total++
	if res.Valid {
		r.ValidEntities++
		counts.Valid++
	} else {
		r.InvalidEntities++
		counts.Invalid++
	}

	r.TotalIssues += len(res.Issues)
	counts.Issues += len(res.Issues)
	for _, msg := range res.Issues {
		r.Issues = append(r.Issues, Issue{Entity: string(entity), RecordID: id, Message: msg})
	}
}

// HasIssues reports whether any record failed validation
func (r *Report) HasIssues() bool {
	return r.TotalIssues > 0
}

// Finish stamps the end time
func (r *Report) Finish() {
	r.FinishedAt = time.Now().UTC()
}

// WriteJSON writes the report as indented JSON
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return writeFile(path, data)
}

// WriteMarkdown writes a human-readable summary with every issue
func (r *Report) WriteMarkdown(path string) error {
	return writeFile(path, r.Markdown())
}

// Markdown renders the report
func (r *Report) Markdown() []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# Validation Report\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", r.RunID)
	fmt.Fprintf(&b, "- Started: %s\n", r.StartedAt.Format(time.RFC3339))
	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "- Finished: %s\n", r.FinishedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "\n## Summary\n\n")
	fmt.Fprintf(&b, "| Total | Valid | Invalid | Issues |\n|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d |\n", r.TotalEntities, r.ValidEntities, r.InvalidEntities, r.TotalIssues)

	if len(r.Entities) > 0 {
		names := make([]string, 0, len(r.Entities))
		for name := range r.Entities {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Fprintf(&b, "\n## By entity\n\n")
		fmt.Fprintf(&b, "| Entity | Total | Valid | Invalid | Issues |\n|---|---|---|---|---|\n")
		for _, name := range names {
			c := r.Entities[name]
			fmt.Fprintf(&b, "| %s | %d | %d | %d | %d |\n", name, c.Total, c.Valid, c.Invalid, c.Issues)
		}
	}

	fmt.Fprintf(&b, "\n## Issues\n\n")
	if len(r.Issues) == 0 {
		fmt.Fprintf(&b, "No issues found.\n")
		return b.Bytes()
	}
	for _, is := range r.Issues {
		fmt.Fprintf(&b, "- **%s** `%s`: %s\n", is.Entity, is.RecordID, strings.ReplaceAll(is.Message, "\n", " "))
	}
	return b.Bytes()
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
