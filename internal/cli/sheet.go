package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/charsheet"
	"github.com/aretw0/charsheet/internal/presentation/graph"
	"github.com/aretw0/charsheet/internal/presentation/tui"
	"github.com/aretw0/charsheet/pkg/dice"
	"github.com/aretw0/charsheet/pkg/dom"
	"github.com/aretw0/charsheet/pkg/domain"
	"github.com/aretw0/charsheet/pkg/renderer"
)

// ErrNoPage is returned by RunRender when no page was given.
var ErrNoPage = errors.New("render needs a page (--page)")

// ErrInvalidAssignment is returned for --set values not of the form name=value.
var ErrInvalidAssignment = errors.New("invalid assignment, expected name=value")

// SheetOptions selects a sheet document, the page it binds to and the user
// values to set before any output.
type SheetOptions struct {
	SheetPath string
	PagePath  string
	Sets      []string
}

// InspectOptions controls RunInspect.
type InspectOptions struct {
	Mermaid bool
	Plain   bool
}

type openedSheet struct {
	r       *renderer.Renderer
	page    *dom.Document
	changed []string
}

// parseAssignments turns "name=dice" pairs into user-input changes. Malformed
// dice text is an error here since nothing is left untouched on the CLI.
func parseAssignments(sets []string) ([]domain.Change, []string, error) {
	changes := make([]domain.Change, 0, len(sets))
	names := make([]string, 0, len(sets))
	for _, s := range sets {
		name, text, ok := strings.Cut(s, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("%w: %q", ErrInvalidAssignment, s)
		}
		v, err := dice.Parse(text)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", name, err)
		}
		changes = append(changes, domain.UserInput(name, v))
		names = append(names, name)
	}
	return changes, names, nil
}

func openSheet(ctx context.Context, host *charsheet.Host, opts SheetOptions) (*openedSheet, error) {
	changes, names, err := parseAssignments(opts.Sets)
	if err != nil {
		return nil, err
	}

	document, err := os.ReadFile(opts.SheetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}

	r, err := host.NewRenderer(ctx, document)
	if err != nil {
		return nil, err
	}
	s := &openedSheet{r: r, changed: names}

	if opts.PagePath != "" {
		html, err := os.ReadFile(opts.PagePath)
		if err != nil {
			_ = r.Close(ctx)
			return nil, fmt.Errorf("failed to read page: %w", err)
		}
		s.page, err = dom.ParseString(string(html))
		if err != nil {
			_ = r.Close(ctx)
			return nil, fmt.Errorf("failed to parse page: %w", err)
		}
		if err := r.BindToDom(ctx, s.page.Body()); err != nil {
			_ = r.Close(ctx)
			return nil, err
		}
	} else if err := r.Synchronize(ctx); err != nil {
		_ = r.Close(ctx)
		return nil, err
	}

	if len(changes) > 0 {
		if err := r.Update(ctx, changes...); err != nil {
			_ = r.Close(ctx)
			return nil, err
		}
	}
	return s, nil
}

// RunRender writes the page bound to the sheet.
func RunRender(ctx context.Context, w io.Writer, host *charsheet.Host, opts SheetOptions) error {
	if opts.PagePath == "" {
		return ErrNoPage
	}
	s, err := openSheet(ctx, host, opts)
	if err != nil {
		return err
	}
	defer s.r.Close(ctx)
	return s.page.Render(w)
}

// RunSet writes the sheet snapshot, after the assignments, as indented JSON.
func RunSet(ctx context.Context, w io.Writer, host *charsheet.Host, opts SheetOptions) error {
	s, err := openSheet(ctx, host, opts)
	if err != nil {
		return err
	}
	defer s.r.Close(ctx)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s.r.Snapshot())
}

// RunRequired prints the minimum required user values, one per line.
func RunRequired(ctx context.Context, w io.Writer, host *charsheet.Host, opts SheetOptions) error {
	s, err := openSheet(ctx, host, opts)
	if err != nil {
		return err
	}
	defer s.r.Close(ctx)

	names, err := s.r.MinimumRequiredUserValues(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(w, n)
	}
	return nil
}

// RunInspect describes the sheet as markdown, optionally with a Mermaid
// dependency graph, rendered with glamour unless Plain is set.
func RunInspect(ctx context.Context, w io.Writer, host *charsheet.Host, opts SheetOptions, inspect InspectOptions) error {
	s, err := openSheet(ctx, host, opts)
	if err != nil {
		return err
	}
	defer s.r.Close(ctx)

	required, err := s.r.MinimumRequiredUserValues(ctx)
	if err != nil {
		return err
	}
	snap := s.r.Snapshot()

	markdown := tui.SheetMarkdown(opts.SheetPath, snap, required)
	if inspect.Mermaid {
		var missing []string
		for _, name := range required {
			if _, ok := snap.UserValue(name); !ok {
				missing = append(missing, name)
			}
		}
		markdown += "\n## Dependencies\n\n```mermaid\n" +
			graph.GenerateMermaid(snap, &graph.Overlay{Missing: missing, Changed: s.changed}) +
			"```\n"
	}

	out, err := tui.NewRenderer(inspect.Plain)(markdown)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
