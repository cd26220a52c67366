package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"academy/internal/application/debounce"
	"academy/internal/application/planeditor"
	"academy/internal/domain/association"
)

const helpText = `commands:
  ls                    show both lists
  sel a|l <id>          toggle selection of a course in available (a) or linked (l)
  add                   move selected available courses into the plan
  rm                    move selected linked courses out of the plan
  filter a|l [text]     filter a list by name (empty text clears)
  diff                  show saved links and pending changes
  save                  apply pending changes
  discard               drop pending changes
  reload                fetch both lists again
  help                  this text
  quit                  leave (pending changes are lost)`

// filterInput is one keystroke burst of filter text for a list.
type filterInput struct {
	list  association.List
	query string
}

// session is one interactive editing run over a plan.
type session struct {
	ed *planeditor.Editor

	mu      sync.Mutex // guards out and the filters
	out     io.Writer
	filters map[association.List]string

	filter *debounce.Debouncer[filterInput]
	// onFilter, when set, runs after a debounced filter is applied.
	onFilter func()
}

func newSession(planID string, source planeditor.Source, out io.Writer, wait time.Duration) *session {
	s := &session{
		ed:      planeditor.New(planID, source),
		out:     out,
		filters: map[association.List]string{association.Available: "", association.Linked: ""},
	}
	s.filter = debounce.New(wait, s.applyFilter)
	return s
}

// Close stops any pending filter.
func (s *session) Close() {
	s.filter.Stop()
}

func (s *session) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func (s *session) applyFilter(in filterInput) {
	s.mu.Lock()
	s.filters[in.list] = in.query
	s.mu.Unlock()
	s.render()
	if s.onFilter != nil {
		s.onFilter()
	}
}

// Run loads the editor and then executes commands from in until quit or EOF.
func (s *session) Run(ctx context.Context, in io.Reader) error {
	if err := s.load(ctx); err != nil {
		var loadErr *planeditor.LoadError
		if !errors.As(err, &loadErr) {
			return err
		}
		s.printf("%v\n(type reload to retry)\n", err)
	} else {
		s.render()
	}

	scanner := bufio.NewScanner(in)
	s.printf("> ")
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		quit, err := s.exec(ctx, scanner.Text())
		if err != nil {
			s.printf("error: %s\n", userMessage(err))
		}
		if quit {
			return nil
		}
		s.printf("> ")
	}
	return scanner.Err()
}

func (s *session) load(ctx context.Context) error {
	s.printf("loading courses for plan %s...\n", s.ed.PlanID())
	return s.ed.Load(ctx)
}

// exec runs one command line. It reports whether the session should end.
func (s *session) exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "quit", "exit", "q":
		if s.ed.Dirty() {
			s.printf("discarding unsaved changes\n")
		}
		return true, nil
	case "help", "?":
		s.printf("%s\n", helpText)
	case "ls":
		s.render()
	case "sel":
		if len(args) != 2 {
			return false, errors.New("usage: sel a|l <id>")
		}
		l, err := association.ParseList(args[0])
		if err != nil {
			return false, err
		}
		if _, err := s.ed.ToggleSelect(l, args[1]); err != nil {
			return false, err
		}
		s.render()
	case "add", "rm":
		from := association.Available
		if cmd == "rm" {
			from = association.Linked
		}
		n, err := s.ed.MoveSelected(from)
		if err != nil {
			return false, err
		}
		if n == 0 {
			s.printf("nothing selected in %s\n", from)
			return false, nil
		}
		s.render()
	case "filter":
		if len(args) < 1 {
			return false, errors.New("usage: filter a|l [text]")
		}
		l, err := association.ParseList(args[0])
		if err != nil {
			return false, err
		}
		s.filter.Trigger(filterInput{list: l, query: strings.Join(args[1:], " ")})
	case "diff":
		d, err := s.ed.Diff()
		if err != nil {
			return false, err
		}
		baseline, err := s.ed.Baseline()
		if err != nil {
			return false, err
		}
		s.printf("saved:  %s\n", joinOrDash(baseline))
		if d.IsEmpty() {
			s.printf("no pending changes\n")
			return false, nil
		}
		s.printf("add:    %s\nremove: %s\n", joinOrDash(d.Add), joinOrDash(d.Remove))
	case "save":
		res, err := s.ed.Save(ctx)
		if err != nil {
			return false, err
		}
		if res.NothingToSave {
			s.printf("no changes to save\n")
			return false, nil
		}
		s.printf("%s\n", res.Message)
		s.render()
	case "discard":
		if err := s.ed.Discard(); err != nil {
			return false, err
		}
		s.render()
	case "reload":
		s.ed.Reset()
		if err := s.load(ctx); err != nil {
			return false, err
		}
		s.render()
	default:
		return false, fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return false, nil
}

// render prints both lists with the current filters.
func (s *session) render() {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.ed.View(s.filters[association.Available], s.filters[association.Linked])
	if v.Status != planeditor.StatusReady {
		fmt.Fprintf(s.out, "editor is %s\n", v.Status)
		return
	}
	writeList(s.out, "Available", v.Available)
	writeList(s.out, "Linked", v.Linked)
	if v.Dirty {
		fmt.Fprintf(s.out, "* unsaved: %d to add, %d to remove\n", v.Added(), v.Removed())
	}
}

func writeList(w io.Writer, title string, l planeditor.ListView) {
	count := fmt.Sprintf("%d", l.Count())
	if l.Count() != l.Total {
		count = fmt.Sprintf("%d of %d", l.Count(), l.Total)
	}
	fmt.Fprintf(w, "%s (%s)", title, count)
	if n := len(l.SelectedIDs); n > 0 {
		fmt.Fprintf(w, " %d selected", n)
	}
	if l.Filter != "" {
		fmt.Fprintf(w, " filter=%q", l.Filter)
	}
	fmt.Fprintln(w)
	if l.Empty() {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, r := range l.Rows {
		mark := "[ ]"
		if r.Selected {
			mark = "[x]"
		}
		suffix := ""
		if !r.IsActive {
			suffix = " (inactive)"
		}
		fmt.Fprintf(w, "  %s %s  %s%s\n", mark, r.ID, r.Name, suffix)
	}
}

func joinOrDash(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ", ")
}

// userMessage prefers the text a server or editor meant for the operator.
func userMessage(err error) string {
	var saveErr *planeditor.SaveError
	if errors.As(err, &saveErr) {
		return saveErr.Message
	}
	return err.Error()
}
