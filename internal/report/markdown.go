package report

import (
	"io"
	"strings"

	"github.com/nao1215/markdown"
)

// MarkdownWriter outputs reports in Markdown format.
// Connection and dangling plug sections are kept as text code blocks so they
// read exactly like the plain text report.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *Report) (int, error) {
	md := markdown.NewMarkdown(w.output)
	installs, connections, dangling := sections(report)

	w.writeHeader(md, report)
	failed := w.writeInstalls(md, installs)
	w.writeBlock(md, "Connections", connections, "No auto-connections.")
	w.writeBlock(md, "Dangling Plugs", dangling, "No dangling plugs.")
	w.writeAlert(md, failed, len(report.LinesOf(LineDangling)))

	return len(md.String()), md.Build()
}

// writeHeader writes the title and the filter in effect.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *Report) {
	md.H1("Auto-connections: " + report.TargetSnap)
	md.PlainText("")
	if report.Interface != "" {
		md.PlainTextf("Interface filter: `%s`", report.Interface)
		md.PlainText("")
	}
}

// writeInstalls writes the installation table and returns the number of
// snaps that would not install.
func (w *MarkdownWriter) writeInstalls(md *markdown.Markdown, lines []Line) int {
	md.H2("Installation")
	md.PlainText("")

	var rows [][]string
	failed := 0
	for _, l := range lines {
		switch l.Kind {
		case LineInstall:
			status := strings.TrimPrefix(l.Text, "installing "+l.Snap+": ")
			if status != "OK" {
				failed++
			}
			rows = append(rows, []string{"`" + l.Snap + "`", status, "-"})
		case LineBadInterfaces:
			if len(rows) > 0 {
				rows[len(rows)-1][2] = strings.TrimPrefix(l.Text, "bad-interfaces: ")
			}
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Snap", "Status", "Bad interfaces"},
		Rows:   rows,
	})
	md.PlainText("")
	return failed
}

// writeBlock writes a section whose lines are rendered as a text code block.
func (w *MarkdownWriter) writeBlock(md *markdown.Markdown, title string, lines []Line, empty string) {
	md.H2(title)
	md.PlainText("")

	if len(lines) == 0 {
		md.PlainText(empty)
		md.PlainText("")
		return
	}

	text := make([]string, len(lines))
	for i, l := range lines {
		text[i] = l.String()
	}
	md.CodeBlocks(markdown.SyntaxHighlight("text"), strings.Join(text, "\n"))
	md.PlainText("")
}

// writeAlert summarises what needs attention.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, failed, dangling int) {
	switch {
	case failed > 0:
		md.Cautionf("%d snap(s) would not install.", failed)
	case dangling > 0:
		md.Warningf("%d plug(s) would stay unconnected.", dangling)
	default:
		md.Tip("Every plug of the target snap would be connected.")
	}
}
