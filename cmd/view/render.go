package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/LegacyCodeHQ/codeviz/orchestrator"
	"github.com/LegacyCodeHQ/codeviz/progress"
	"github.com/LegacyCodeHQ/codeviz/selection"
	"github.com/LegacyCodeHQ/codeviz/snapshot"
	"github.com/fatih/color"
)

var (
	brand  = color.New(color.FgHiGreen, color.Bold)
	subtle = color.New(color.FgHiBlack)
	info   = color.New(color.FgCyan)
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
)

const progressBarWidth = 20

func renderHeader(w io.Writer, h orchestrator.Header) {
	name := h.ProjectName
	if name == "" {
		name = "Dependency graph"
	}
	fmt.Fprintln(w, brand.Sprint(name))

	line := fmt.Sprintf("%d files, %d connections", h.FileCount, h.ConnectionCount)
	if h.GeneratedAt.Unix() > 0 {
		line += ", generated " + h.GeneratedAt.UTC().Format("2006-01-02 15:04 MST")
	}
	fmt.Fprintln(w, subtle.Sprint(line))

	renderProgress(w, h.Progress)
}

func renderProgress(w io.Writer, p progress.State) {
	switch {
	case p.InProgress():
		filled := p.Percentage * progressBarWidth / 100
		bar := "[" + strings.Repeat("#", filled) + strings.Repeat(".", progressBarWidth-filled) + "]"
		fmt.Fprintf(w, "%s %3d%% %s\n", info.Sprint(bar), p.Percentage, p.Message)
	case p.Complete():
		fmt.Fprintf(w, "%s %s\n", good.Sprint("✓"), p.Message)
	}
}

func renderView(w io.Writer, v orchestrator.View) {
	switch v.Phase {
	case orchestrator.PhaseAwaitingChannel:
		fmt.Fprintln(w, subtle.Sprint("Connecting to progress feed..."))
	case orchestrator.PhaseLoading:
		fmt.Fprintln(w, subtle.Sprint("Loading graph..."))
		renderProgress(w, v.Header.Progress)
	case orchestrator.PhaseReindexing:
		fmt.Fprintln(w, subtle.Sprint("Reindexing..."))
		renderProgress(w, v.Header.Progress)
	case orchestrator.PhasePathSelection:
		fmt.Fprintln(w, "No graph yet. Run 'analyze <path>' to scan a project.")
	case orchestrator.PhaseError:
		fmt.Fprintf(w, "%s %s\n", bad.Sprint("Error:"), v.Error)
		fmt.Fprintln(w, subtle.Sprint("Run 'retry' or 'reindex' to try again."))
	case orchestrator.PhaseReady:
		renderHeader(w, v.Header)
	}
}

func renderResults(w io.Writer, results []snapshot.Node) {
	if len(results) == 0 {
		fmt.Fprintln(w, subtle.Sprint("No matches"))
		return
	}
	for i, n := range results {
		fmt.Fprintf(w, "%2d. %s  %s\n", i+1, n.Label, subtle.Sprint(n.Path))
	}
}

func renderSelection(w io.Writer, s selection.State) {
	if !s.Selected {
		fmt.Fprintln(w, "Selection cleared")
		return
	}
	fmt.Fprintf(w, "Selected %s, highlighting %s\n", info.Sprint(s.SelectedID), strings.Join(s.HighlightedIDs(), ", "))
}

func renderDetails(w io.Writer, d orchestrator.NodeDetails) {
	fmt.Fprintln(w, brand.Sprint(d.Node.Label))
	fmt.Fprintf(w, "  Path:         %s\n", d.Node.Path)
	fmt.Fprintf(w, "  Type:         %s\n", d.Node.Type)
	fmt.Fprintf(w, "  Connections:  %d\n", d.Connections)
	fmt.Fprintf(w, "  Imports:      %s\n", listOrNone(d.Imports))
	fmt.Fprintf(w, "  Imported by:  %s\n", listOrNone(d.ImportedBy))
}

func listOrNone(ids []string) string {
	if len(ids) == 0 {
		return "none"
	}
	return strings.Join(ids, ", ")
}

const helpText = `Commands:
  search <query>   filter files by name or path
  enter            select the first search result
  pick <n>         select the n-th search result
  esc              clear the search
  click <id>       toggle selection of a node
  details          show the selected node
  open             open the selected file in your editor
  copy             copy the selected file's path
  reindex          rebuild the graph
  analyze <path>   scan a different project
  retry            retry after an error
  status           show the current state
  quit             exit
`
