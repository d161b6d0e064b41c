package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/fxnlabs/gemmbench/internal/bench"
	"gopkg.in/yaml.v3"
)

// Reporter renders sweep reports.
type Reporter interface {
	Report(w io.Writer, reports []bench.ShapeReport) error
}

// Formats lists the accepted reporter names.
var Formats = []string{"table", "json", "yaml"}

// New returns the reporter for format, comparing against refs.
func New(format string, refs []Reference) (Reporter, error) {
	switch strings.ToLower(format) {
	case "", "table":
		return &TableReporter{References: refs}, nil
	case "json":
		return &JSONReporter{References: refs, Indent: "  "}, nil
	case "yaml", "yml":
		return &YAMLReporter{References: refs}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q, want one of %v", format, Formats)
	}
}

// Document is the structured form of a sweep shared by the JSON and YAML
// reporters.
type Document struct {
	Shapes  []ShapeDocument `json:"shapes" yaml:"shapes"`
	Overall *RankedEntry    `json:"overall,omitempty" yaml:"overall,omitempty"`
}

type ShapeDocument struct {
	Shape      string                `json:"shape" yaml:"shape"`
	Ranked     []RankedEntry         `json:"ranked" yaml:"ranked"`
	Failures   []bench.Failure       `json:"failures,omitempty" yaml:"failures,omitempty"`
	Comparison string                `json:"comparison,omitempty" yaml:"comparison,omitempty"`
	References []ReferenceComparison `json:"references,omitempty" yaml:"references,omitempty"`
}

type RankedEntry struct {
	bench.Result `yaml:",inline"`

	Rank      int     `json:"rank" yaml:"rank"`
	AvgTimeMs float64 `json:"avgTimeMs" yaml:"avgTimeMs"`
}

// NewDocument ranks every shape and the sweep as a whole.
func NewDocument(reports []bench.ShapeReport, refs []Reference) Document {
	var doc Document
	for _, rep := range reports {
		sd := ShapeDocument{Shape: rep.Shape.String(), Failures: rep.Failures}
		ranked := Rank(rep.Results).Results()
		for i, r := range ranked {
			sd.Ranked = append(sd.Ranked, newEntry(i+1, r))
		}
		if len(ranked) > 1 {
			if c, err := Compare(ranked[0], ranked[1]); err == nil {
				sd.Comparison = c.String()
			}
		}
		sd.References = CompareReferences(refs, rep)
		doc.Shapes = append(doc.Shapes, sd)
	}
	if best, ok := RankAll(reports).Best(); ok && len(reports) > 1 {
		e := newEntry(1, best)
		doc.Overall = &e
	}
	return doc
}

func newEntry(rank int, r bench.Result) RankedEntry {
	return RankedEntry{Rank: rank, Result: r, AvgTimeMs: float64(r.AvgTime.Microseconds()) / 1e3}
}

// JSONReporter writes a Document as JSON.
type JSONReporter struct {
	References []Reference
	Indent     string
}

func (j *JSONReporter) Report(w io.Writer, reports []bench.ShapeReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", j.Indent)
	return enc.Encode(NewDocument(reports, j.References))
}

// YAMLReporter writes a Document as YAML.
type YAMLReporter struct {
	References []Reference
}

func (y *YAMLReporter) Report(w io.Writer, reports []bench.ShapeReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(reports, y.References)); err != nil {
		return err
	}
	return enc.Close()
}

var (
	medals      = []string{"🥇", "🥈", "🥉"}
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	rightStyle  = lipgloss.NewStyle().Align(lipgloss.Right).Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true).Reverse(true)
	titleStyle  = lipgloss.NewStyle().Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#d05050"))
	borderColor = "#705090"
)

// TableReporter renders one ranked table per shape, failures below it.
type TableReporter struct {
	References []Reference
}

func (t *TableReporter) Report(w io.Writer, reports []bench.ShapeReport) error {
	doc := NewDocument(reports, t.References)
	var sb strings.Builder
	for i, sd := range doc.Shapes {
		a, b, c := reports[i].Shape.Bytes()
		sb.WriteString(titleStyle.Render(fmt.Sprintf("%s  (%.1f GFLOP, buffers %s)",
			sd.Shape, reports[i].Shape.Ops()/1e9, humanize.IBytes(uint64(a+b+c)))))
		sb.WriteString("\n")

		if len(sd.Ranked) > 0 {
			sb.WriteString(rankedTable(sd.Ranked).String())
			sb.WriteString("\n")
		} else {
			sb.WriteString("no successful measurements\n")
		}
		if sd.Comparison != "" {
			sb.WriteString(sd.Comparison + "\n")
		}
		for _, ref := range sd.References {
			sb.WriteString(ref.String() + "\n")
		}
		if len(sd.Failures) > 0 {
			sb.WriteString(failureTable(sd.Failures).String())
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	if doc.Overall != nil {
		sb.WriteString(titleStyle.Render(fmt.Sprintf("Best overall: %s on %s at %.3f TOPS",
			doc.Overall.ID(), doc.Overall.Shape, doc.Overall.Throughput)))
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func newTable(headers ...string) *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(borderColor))).
		Headers(headers...)
}

func rankedTable(entries []RankedEntry) *lgtable.Table {
	best := entries[0].Throughput
	table := newTable("Rank", "Backend", "Candidate", "Avg time", "TOPS", "vs best").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == lgtable.HeaderRow:
				return headerStyle
			case col >= 3:
				return rightStyle
			default:
				return cellStyle
			}
		})
	for _, e := range entries {
		rank := fmt.Sprintf("%d", e.Rank)
		if e.Rank <= len(medals) {
			rank = medals[e.Rank-1] + " " + rank
		}
		candidate := fmt.Sprintf("#%d", e.Candidate)
		if e.CandidateName != "" {
			candidate += " " + e.CandidateName
		}
		table.Row(rank, e.Backend, candidate, e.AvgTime.String(),
			fmt.Sprintf("%.3f", e.Throughput), fmt.Sprintf("%.1f%%", 100*e.Throughput/best))
	}
	return table
}

func failureTable(failures []bench.Failure) *lgtable.Table {
	table := newTable("Failed", "Kind", "Error").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle
			}
			if col == 1 {
				return failStyle.Padding(0, 1)
			}
			return cellStyle
		})
	for _, f := range failures {
		table.Row(f.ID(), f.Kind.String(), f.Message)
	}
	return table
}
