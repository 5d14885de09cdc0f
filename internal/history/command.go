package history

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"
	"github.com/samber/lo"
)

const defaultListLimit = 10

// ErrDisabled is returned when a history command runs without a history store.
var ErrDisabled = errors.New("reply history is disabled")

// Command is one history action requested on the command line.
type Command struct {
	// Limit caps listings; 0 means the default.
	Limit int
	// Search, when set, fuzzy-matches past replies instead of listing recent ones.
	Search string
	// DeleteID removes one entry.
	DeleteID uint
	// Clear removes every entry.
	Clear bool
}

// Requested reports whether any history action was asked for.
func (c Command) Requested() bool {
	return c.Limit > 0 || c.Search != "" || c.DeleteID != 0 || c.Clear
}

// Run performs the command and prints its result to w, wrapped to width.
func (c Command) Run(w io.Writer, historyManager *HistoryManager, now time.Time, width int) error {
	if historyManager == nil {
		return ErrDisabled
	}

	switch {
	case c.Clear:
		if err := historyManager.ResetHistory(); err != nil {
			return fmt.Errorf("failed to clear reply history: %w", err)
		}
		fmt.Fprintln(w, "Reply history cleared.")
		return nil
	case c.DeleteID != 0:
		if err := historyManager.DeleteEntry(c.DeleteID); err != nil {
			return err
		}
		fmt.Fprintf(w, "Deleted reply #%d.\n", c.DeleteID)
		return nil
	}

	limit := c.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var entries []ReplyEntry
	var err error
	if c.Search != "" {
		entries, err = historyManager.SearchReplies(c.Search, limit)
	} else {
		entries, err = historyManager.GetRecentEntries(limit)
		// Oldest first so the newest reply ends up next to the prompt.
		entries = lo.Reverse(entries)
	}
	if err != nil {
		return fmt.Errorf("failed to read reply history: %w", err)
	}

	PrintEntries(w, entries, now, width)
	return nil
}

// PrintEntries writes one block per entry with a relative timestamp, the
// comment and the reply, each cut to fit width.
func PrintEntries(w io.Writer, entries []ReplyEntry, now time.Time, width int) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No replies found.")
		return
	}

	lineWidth := uint(60)
	if width-11 >= 20 {
		lineWidth = uint(width - 11)
	}

	for _, entry := range entries {
		fmt.Fprintf(w, "#%d  %s  %s\n", entry.ID, humanize.RelTime(entry.CreatedAt, now, "ago", "from now"), entry.Model)
		fmt.Fprintf(w, "  comment: %s\n", truncate.StringWithTail(singleLine(entry.Comment), lineWidth, "..."))
		fmt.Fprintf(w, "  reply:   %s\n", truncate.StringWithTail(singleLine(entry.Reply), lineWidth, "..."))
		fmt.Fprintln(w)
	}
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
