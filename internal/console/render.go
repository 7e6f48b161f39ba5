package console

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"autolink/internal/target"
)

const (
	nameWidth = 20
	uriWidth  = 56
)

// WriteList prints targets numbered from 1, with their triggers and the next
// activation after now.
func WriteList(w io.Writer, ts []target.Target, now time.Time) {
	if len(ts) == 0 {
		fmt.Fprintln(w, "no entries yet; add one with: add <name> <uri> [<day> <HH:MM>]")
		return
	}
	for i, t := range ts {
		fmt.Fprintf(w, "%3d. %s  %s\n", i+1,
			runewidth.FillRight(runewidth.Truncate(t.Name, nameWidth, "…"), nameWidth),
			runewidth.Truncate(t.URI, uriWidth, "…"),
		)
		if len(t.Triggers) == 0 {
			fmt.Fprintln(w, "     times: none (manual launch only)")
			continue
		}
		fmt.Fprintf(w, "     times: %s\n", formatTriggers(t.Triggers))
		if next, ok := t.Next(now); ok {
			fmt.Fprintf(w, "     next:  %s\n", formatWhen(next, now))
		}
	}
}

// WriteUpcoming prints planned activations, one per line.
func WriteUpcoming(w io.Writer, ups []target.Upcoming, now time.Time) {
	if len(ups) == 0 {
		fmt.Fprintln(w, "nothing scheduled")
		return
	}
	for _, u := range ups {
		fmt.Fprintf(w, "%s  %3d. %s\n", formatWhen(u.At, now), u.Index+1, u.Name)
	}
}

func formatTriggers(trs []target.Trigger) string {
	parts := make([]string, len(trs))
	for i, tr := range trs {
		parts[i] = fmt.Sprintf("[%d] %s %s", i+1, tr.Day().Short(), tr.Clock())
	}
	return strings.Join(parts, ", ")
}

func formatWhen(at, now time.Time) string {
	return fmt.Sprintf("%s %s (%s)", at.Format("Mon"), at.Format("15:04"), humanize.RelTime(at, now, "ago", "from now"))
}
