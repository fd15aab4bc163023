package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/sahil485/neXus/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SimpleWriter outputs human-readable text summaries.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables additional detail in the output.
	verbose bool

	// titler renders section headers in title case.
	titler cases.Caser
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		verbose:    false,
		titler:     cases.Title(language.English),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write renders the summary in human-readable format.
func (w *SimpleWriter) Write(summary model.CrawlSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeGraph(&sb, summary)
	w.writeFetches(&sb, summary)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the summary header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary model.CrawlSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          NEXUS CRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Seed Actor:  %s\n", summary.SeedActorID))
	sb.WriteString(fmt.Sprintf("Started:     %s\n", summary.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:    %s\n", summary.Duration))

	if summary.Succeeded() {
		sb.WriteString("Status:      Complete\n")
	} else {
		sb.WriteString(fmt.Sprintf("Status:      FAILED - %s (partial results retained)\n", summary.ErrorMessage))
	}

	if w.verbose {
		sb.WriteString(fmt.Sprintf("Request ID:  %s\n", summary.RequestID))
	}
	sb.WriteString("\n")
}

// writeGraph writes the graph growth section.
func (w *SimpleWriter) writeGraph(sb *strings.Builder, summary model.CrawlSummary) {
	w.writeSectionHeader(sb, "graph")

	sb.WriteString(fmt.Sprintf("  First Degree:   %d actors\n", summary.FirstDegreeCount))
	sb.WriteString(fmt.Sprintf("  Second Degree:  %d actors\n", summary.SecondDegreeCount))
	sb.WriteString(fmt.Sprintf("  Actors Written: %d\n", summary.ActorsUpserted))
	sb.WriteString(fmt.Sprintf("  Edges Written:  %d\n", summary.EdgesUpserted))
	sb.WriteString("\n")
}

// writeFetches writes the fetch activity section.
func (w *SimpleWriter) writeFetches(sb *strings.Builder, summary model.CrawlSummary) {
	w.writeSectionHeader(sb, "fetch activity")

	sb.WriteString(fmt.Sprintf("  Performed:       %d\n", summary.FetchesPerformed))
	sb.WriteString(fmt.Sprintf("  Skipped (fresh): %d\n", summary.SkippedFresh))
	sb.WriteString(fmt.Sprintf("  Restricted:      %d\n", summary.SkippedRestricted))
	sb.WriteString(fmt.Sprintf("  Not Found:       %d\n", summary.NotFound))
	sb.WriteString("\n")
}

// writeSectionHeader writes a dashed section header in title case.
func (w *SimpleWriter) writeSectionHeader(sb *strings.Builder, name string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(w.titler.String(name))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}
