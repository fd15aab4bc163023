package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/sahil485/neXus/internal/model"
)

// MarkdownWriter outputs summaries in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write renders the summary in Markdown format.
func (w *MarkdownWriter) Write(summary model.CrawlSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeGraph(md, summary)
	w.writeFetches(md, summary)

	return len(md.String()), md.Build()
}

// writeHeader writes the summary header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary model.CrawlSummary) {
	md.H1("Nexus Crawl Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed Actor", "`" + summary.SeedActorID + "`"},
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", summary.Duration.String()},
			{"Status", w.statusText(summary)},
		},
	})
	md.PlainText("")
}

// statusText returns the status cell based on the terminal state.
func (w *MarkdownWriter) statusText(summary model.CrawlSummary) string {
	if summary.Succeeded() {
		return "✅ Complete"
	}
	return "❌ Failed - " + summary.ErrorMessage
}

// writeGraph writes the graph growth section.
func (w *MarkdownWriter) writeGraph(md *markdown.Markdown, summary model.CrawlSummary) {
	md.H2("Graph")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"First-degree actors", strconv.Itoa(summary.FirstDegreeCount)},
			{"Second-degree actors", strconv.Itoa(summary.SecondDegreeCount)},
			{"Actors written", strconv.Itoa(summary.ActorsUpserted)},
			{"Edges written", strconv.Itoa(summary.EdgesUpserted)},
		},
	})
	md.PlainText("")
}

// writeFetches writes the fetch activity section with an outcome pie chart.
func (w *MarkdownWriter) writeFetches(md *markdown.Markdown, summary model.CrawlSummary) {
	md.H2("Fetch Activity")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"Performed", strconv.Itoa(summary.FetchesPerformed)},
			{"Skipped (fresh)", strconv.Itoa(summary.SkippedFresh)},
			{"Restricted", strconv.Itoa(summary.SkippedRestricted)},
			{"Not found", strconv.Itoa(summary.NotFound)},
		},
	})
	md.PlainText("")

	if summary.FetchesPerformed+summary.SkippedFresh > 0 {
		w.writePieChart(md, summary)
	}

	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart of fetch outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary model.CrawlSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Fetch Outcome Distribution"),
		piechart.WithShowData(true),
	)

	if summary.FetchesPerformed > 0 {
		chart.LabelAndIntValue("Performed", uint64(summary.FetchesPerformed))
	}
	if summary.SkippedFresh > 0 {
		chart.LabelAndIntValue("Skipped (fresh)", uint64(summary.SkippedFresh))
	}
	if summary.SkippedRestricted > 0 {
		chart.LabelAndIntValue("Restricted", uint64(summary.SkippedRestricted))
	}
	if summary.NotFound > 0 {
		chart.LabelAndIntValue("Not found", uint64(summary.NotFound))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert reflecting how the run ended.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary model.CrawlSummary) {
	switch {
	case !summary.Succeeded():
		md.Cautionf(
			"Crawl failed: %s. Records persisted before the failure remain valid.",
			summary.ErrorMessage,
		)
	case summary.FetchesPerformed == 0 && summary.SkippedFresh > 0:
		md.Tipf(
			"All %d records were still fresh; no directory calls were needed.",
			summary.SkippedFresh,
		)
	default:
		md.Notef(
			"Crawl completed with %d directory calls.",
			summary.FetchesPerformed,
		)
	}
	md.PlainText("")
}
