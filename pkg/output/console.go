package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/wvhulle/cargo-dirty/pkg/graph"
)

// PrintRebuildReport writes a colorized report of root causes and their
// cascades. With explain set, each root cause also gets its long-form
// explanation block.
func PrintRebuildReport(w io.Writer, project string, g *graph.RebuildGraph, explain bool) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)
	dim := color.New(color.Faint)

	bold.Fprintf(w, "cargo-dirty - rebuild analysis")
	if project != "" {
		fmt.Fprintf(w, " (%s)", project)
	}
	fmt.Fprintln(w)

	if g.IsEmpty() {
		green.Fprintln(w, "No rebuild triggers detected.")
		return
	}

	chains := g.RootCauseChains()
	plural := "s"
	if len(chains) == 1 {
		plural = ""
	}
	fmt.Fprintf(w, "%d root cause%s, %d rebuilds total\n\n", len(chains), plural, g.Len())

	for _, chain := range chains {
		yellow.Fprintf(w, "  %s", chain.RootCause.Package)
		fmt.Fprintf(w, "  %s\n", chain.RootCause.Reason.Summary())

		for _, affected := range chain.AffectedPackages {
			cyan.Fprintf(w, "    -> %s", affected.Package)
			dim.Fprintf(w, "  %s\n", affected.Reason.Summary())
		}

		if explain {
			dim.Fprintf(w, "    %s\n", indentLines(chain.RootCause.Reason.Explain()))
		}
		fmt.Fprintln(w)
	}
}

// indentLines keeps continuation lines aligned under the first one.
func indentLines(s string) string {
	return strings.ReplaceAll(s, "\n", "\n    ")
}
