package view

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/LegacyCodeHQ/codeviz/orchestrator"
	"github.com/LegacyCodeHQ/codeviz/progress"
)

// lockedWriter serialises command output and asynchronous progress lines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// session runs the interactive command loop against one orchestrator.
type session struct {
	o      *orchestrator.Orchestrator
	out    io.Writer
	prompt string
	copy   func(string) error
}

func (s *session) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(s.out, s.prompt)

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			select {
			case err := <-scanErr:
				return err
			default:
				return nil
			}
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		quit, err := s.exec(ctx, line)
		if err != nil {
			fmt.Fprintf(s.out, "%s %v\n", bad.Sprint("error:"), err)
		}
		if quit {
			return nil
		}
	}
}

func (s *session) exec(ctx context.Context, line string) (bool, error) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "search":
		renderResults(s.out, s.o.Search(arg))

	case "enter":
		state, ok := s.o.SearchEnter()
		if !ok {
			fmt.Fprintln(s.out, "No search result to select")
			return false, nil
		}
		renderSelection(s.out, state)

	case "pick":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return false, fmt.Errorf("pick needs a result number, got %q", arg)
		}
		state, ok := s.o.SearchPick(n - 1)
		if !ok {
			fmt.Fprintf(s.out, "No search result %d\n", n)
			return false, nil
		}
		renderSelection(s.out, state)

	case "esc":
		s.o.SearchEscape()
		fmt.Fprintln(s.out, "Search cleared")

	case "click":
		state, err := s.o.Click(arg)
		if err != nil {
			return false, err
		}
		renderSelection(s.out, state)

	case "details":
		details, ok := s.o.Details()
		if !ok {
			fmt.Fprintln(s.out, "No node selected")
			return false, nil
		}
		renderDetails(s.out, details)

	case "open":
		result, err := s.o.OpenSelected(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(s.out, "Opened %s in your editor\n", result.File)

	case "copy":
		details, ok := s.o.Details()
		if !ok {
			return false, orchestrator.ErrNoSelection
		}
		if err := s.copy(details.Node.Path); err != nil {
			return false, fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		fmt.Fprintf(s.out, "%s Copied %s to your clipboard\n", good.Sprint("✓"), details.Node.Path)

	case "reindex":
		if err := s.o.Reindex(ctx); err != nil {
			return false, err
		}
		renderView(s.out, s.o.View())

	case "analyze":
		if err := s.o.Analyze(ctx, arg); err != nil {
			return false, err
		}
		renderView(s.out, s.o.View())

	case "retry":
		if err := s.o.Retry(ctx); err != nil {
			return false, err
		}
		renderView(s.out, s.o.View())

	case "status":
		v := s.o.View()
		fmt.Fprintf(s.out, "Phase: %s\n", v.Phase)
		renderView(s.out, v)

	case "help":
		fmt.Fprint(s.out, helpText)

	case "quit", "exit":
		return true, nil

	default:
		return false, fmt.Errorf("unknown command %q (type 'help' for commands)", name)
	}
	return false, nil
}

// printProgress prints each new progress state until the orchestrator closes.
func printProgress(w io.Writer, o *orchestrator.Orchestrator) {
	states, unsubscribe := o.SubscribeProgress()
	defer unsubscribe()

	last := progress.Idle()
	for p := range states {
		if p == last {
			continue
		}
		last = p
		renderProgress(w, p)
	}
}
