// Package stats computes writing statistics for the status bar.
package stats

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rivo/uniseg"
)

// WordsPerMinute is the reading speed used for reading time estimates.
const WordsPerMinute = 200

type Stats struct {
	Words              int
	Characters         int
	ReadingTimeMinutes int
}

// Compute returns the statistics of text. Characters are counted as
// grapheme clusters so combined emoji and accented letters count once.
func Compute(text string) Stats {
	words := len(strings.Fields(text))

	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	if minutes < 1 {
		minutes = 1
	}

	return Stats{
		Words:              words,
		Characters:         uniseg.GraphemeClusterCount(text),
		ReadingTimeMinutes: minutes,
	}
}

// String formats the statistics for display.
func (s Stats) String() string {
	return fmt.Sprintf("%s words · %s chars · %d min read",
		humanize.Comma(int64(s.Words)),
		humanize.Comma(int64(s.Characters)),
		s.ReadingTimeMinutes,
	)
}
