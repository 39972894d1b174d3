// Package report interprets simulation results and writes them out.
//
// Render turns a model.SimulationResult into an ordered list of report lines:
// installation status, auto-connections in canonical order, and dangling
// plugs, optionally with the ranked candidates the engine considered. The
// ordering only depends on explicit sort keys, so the same input always yields
// byte-identical output and repeated simulations diff cleanly.
//
// Writers then emit a Report in different formats:
//   - SimpleWriter: Plain text lines, the canonical format
//   - JSONWriter: Structured JSON for tool integration
//   - MarkdownWriter: GitHub-flavoured Markdown for sharing
package report
