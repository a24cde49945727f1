package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/praetorian-inc/relex/pkg/incremental"
	"github.com/praetorian-inc/relex/pkg/types"
	"golang.org/x/term"
)

// styles holds color formatters for token diffs
type styles struct {
	added   *color.Color
	removed *color.Color
	changed *color.Color
	overlap *color.Color
	heading *color.Color
	meta    *color.Color
}

// newStyles creates color formatters for diff output
func newStyles(enabled bool) *styles {
	s := &styles{
		added:   color.New(color.FgGreen),
		removed: color.New(color.FgRed),
		changed: color.New(color.FgYellow),
		overlap: color.New(color.FgMagenta),
		heading: color.New(color.Bold),
		meta:    color.New(color.FgHiBlue),
	}

	if !enabled {
		s.added.DisableColor()
		s.removed.DisableColor()
		s.changed.DisableColor()
		s.overlap.DisableColor()
		s.heading.DisableColor()
		s.meta.DisableColor()
	} else {
		s.added.EnableColor()
		s.removed.EnableColor()
		s.changed.EnableColor()
		s.overlap.EnableColor()
		s.heading.EnableColor()
		s.meta.EnableColor()
	}

	return s
}

// colorEnabled resolves an auto/always/never mode for w.
// auto colors only terminals, and never when NO_COLOR is set.
func colorEnabled(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto", "":
		f, ok := w.(*os.File)
		if !ok || !term.IsTerminal(int(f.Fd())) {
			return false, nil
		}
		return os.Getenv("NO_COLOR") == "", nil
	default:
		return false, fmt.Errorf("unknown color mode: %s", mode)
	}
}

// diffReport is the JSON form of one re-lex.
type diffReport struct {
	Path    string              `json:"path,omitempty"`
	Grammar string              `json:"grammar"`
	Changes []types.TokenChange `json:"changes"`
	Stats   incremental.Stats   `json:"stats"`
}

func writeDiffJSON(w io.Writer, report diffReport) error {
	if report.Changes == nil {
		report.Changes = []types.TokenChange{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func writeDiffHuman(w io.Writer, s *styles, heading string, res *incremental.Result) {
	if heading != "" {
		s.heading.Fprintf(w, "%s\n", heading)
	}
	if len(res.Changes) == 0 {
		fmt.Fprintf(w, "No token changes.\n")
	}

	for _, ch := range res.Changes {
		switch ch.Type {
		case types.TokenAdded:
			s.added.Fprintf(w, "+ %s\n", describeToken(ch.NewToken))
		case types.TokenRemoved:
			s.removed.Fprintf(w, "- %s\n", describeToken(ch.OldToken))
		case types.TokenChanged:
			s.changed.Fprintf(w, "~ %s -> %s\n", describeToken(ch.OldToken), describeToken(ch.NewToken))
		case types.TokenOverlap:
			s.overlap.Fprintf(w, "! %s overlaps %s\n", describeToken(ch.OldToken), describeToken(ch.NewToken))
		}
	}

	st := res.Stats
	s.meta.Fprintf(w, "%d tokens: %d reused, %d rescanned (%d added, %d changed, %d removed, %d overlaps)\n",
		len(res.Tokens), st.Reused, st.Rescanned, st.Added, st.Changed, st.Removed, st.Overlaps)
}

func describeToken(tok *types.Token) string {
	if tok == nil {
		return "<none>"
	}
	return fmt.Sprintf("%s %q at %d:%d", tok.Type, tok.Text, tok.Line, tok.Column)
}
